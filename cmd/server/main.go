/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the zone inventory engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Start the stale-transit sweeper
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags override environment variables:
    -port           HTTP server port            (env PORT, default 8080)
    -db             SQLite database path        (env DATABASE_PATH, default zoneflow.db)
                    Use ":memory:" for an in-memory database
    -sweep-interval Stale-transit sweep cadence (env SWEEP_INTERVAL, default 1m)
    -revert-after   Transit auto-revert timeout (env REVERT_AFTER, default 25m)
    -log-level      Log level                   (env LOG_LEVEL, default info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/zoneflow.db"

  # Tighten the revert timeout
  ./server -revert-after=10m

SEE ALSO:
  - api/server.go: Router configuration
  - api/sweeper.go: Stale-transit sweeper
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/zoneflow/api"
	"github.com/warp/zoneflow/inventory"
	"github.com/warp/zoneflow/store/sqlite"
)

func main() {
	// .env is optional; flags still win over whatever it sets.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "zoneflow.db"), "SQLite database path")
	sweepInterval := flag.Duration("sweep-interval", envDuration("SWEEP_INTERVAL", time.Minute), "stale-transit sweep cadence")
	revertAfter := flag.Duration("revert-after", envDuration("REVERT_AFTER", inventory.DefaultRevertTimeout), "transit auto-revert timeout")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler and services
	handler := api.NewHandler(store, inventory.SystemClock{}, log)
	handler.Transit.RevertTimeout = *revertAfter

	// Background sweeper returns forgotten transits to their origin.
	sweeper := api.NewTransitSweeper(handler.Transit, handler.Snapshot, log)
	sweeper.CheckInterval = *sweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	// Create router
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

// =============================================================================
// ENVIRONMENT HELPERS
// =============================================================================

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
