/*
sweeper.go - Automated stale-transit sweeper

PURPOSE:
  Periodically scans for pallets whose transit has exceeded the revert
  timeout and returns them to their origin zone. This keeps forgotten
  scanner-gun moves from leaving pallets stuck "In Transit" forever.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates the actual revert decision to TransitService.AutoRevertStale,
    so a manual admin trigger and the sweeper share one code path
  - Safe to run alongside manual triggers; reverting is idempotent

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 minute)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewTransitSweeper(handler.Transit, handler.Snapshot, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: RunAutoRevert endpoint (manual trigger)
  - inventory/transit.go: AutoRevertStale and the revert timeout
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/zoneflow/inventory"
)

// TransitSweeper auto-reverts stale in-transit pallets on a timer.
type TransitSweeper struct {
	Transit       *inventory.TransitService
	Snapshot      *inventory.SnapshotService
	Log           *logrus.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewTransitSweeper creates a new sweeper.
func NewTransitSweeper(transit *inventory.TransitService, snapshot *inventory.SnapshotService, log *logrus.Logger) *TransitSweeper {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TransitSweeper{
		Transit:       transit,
		Snapshot:      snapshot,
		Log:           log,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (ts *TransitSweeper) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.Enabled {
		ts.Log.Info("sweeper disabled, not starting")
		return
	}

	ts.ticker = time.NewTicker(ts.CheckInterval)
	ts.wg.Add(1)

	go ts.run()

	ts.Log.WithField("interval", ts.CheckInterval).Info("transit sweeper started")
}

// Stop stops the sweeper.
func (ts *TransitSweeper) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.ticker != nil {
		ts.ticker.Stop()
		close(ts.stop)
		ts.wg.Wait()
		ts.Log.Info("transit sweeper stopped")
	}
}

func (ts *TransitSweeper) run() {
	defer ts.wg.Done()

	// Run immediately on start
	ts.sweep()

	for {
		select {
		case <-ts.ticker.C:
			ts.sweep()
		case <-ts.stop:
			return
		}
	}
}

func (ts *TransitSweeper) sweep() {
	ctx := context.Background()

	reverted, err := ts.Transit.AutoRevertStale(ctx)
	if err != nil {
		ts.Log.WithError(err).Error("transit sweep failed")
		return
	}
	if len(reverted) == 0 {
		return
	}

	if ts.Snapshot != nil {
		ts.Snapshot.Invalidate()
	}
	ts.Log.WithFields(logrus.Fields{
		"count":   len(reverted),
		"pallets": reverted,
	}).Info("auto-reverted stale transits")
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ts *TransitSweeper) RunNow() {
	ts.sweep()
}
