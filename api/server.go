/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the warehouse UI

ROUTE GROUPS:
  /api/pallets/*    Pallet actions (move, receive, cancel, split)
  /api/zones/*      Zone residency and flow queries
  /api/bincards/*   Shift reconciliation
  /api/movements    Ledger queries
  /api/admin/*      Admin operations
  /api/scenarios/*  Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pallet actions
		r.Route("/pallets", func(r chi.Router) {
			r.Get("/{id}", h.GetPallet)
			r.Post("/{id}/move", h.MovePallet)
			r.Post("/{id}/receive", h.ReceivePallet)
			r.Post("/{id}/cancel-transit", h.CancelTransit)
			r.Post("/{id}/split", h.SplitPallet)
		})

		// Zone queries
		r.Route("/zones", func(r chi.Router) {
			r.Get("/totals", h.GetZoneTotals)
			r.Get("/{zone}/pallets", h.GetPalletsInZone)
			r.Get("/{zone}/inbound", h.GetInboundsToZone)
			r.Get("/{zone}/outbound", h.GetOutboundsFromZone)
		})

		// Ledger queries
		r.Get("/movements", h.ListMovements)

		// Bin card reconciliation
		r.Route("/bincards", func(r chi.Router) {
			r.Get("/", h.GetBinCardData)
			r.Get("/variance-report", h.VarianceReport)
			r.Post("/confirm", h.ConfirmBinCard)
			r.Post("/confirm-zone", h.ConfirmZoneBinCard)
			r.Post("/confirm-zone-per-sku", h.ConfirmZoneBinCardPerSKU)
			r.Post("/revoke", h.RevokeBinCard)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/auto-revert", h.RunAutoRevert)
			r.Get("/bincards/confirmed", h.GetConfirmedBinCards)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page for anyone hitting the API root in a browser.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Zone Inventory Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Zone Inventory Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/zones/totals">/api/zones/totals</a> - Zone inventory snapshot</li>
<li><a href="/api/movements">/api/movements</a> - Movement ledger</li>
<li><a href="/api/bincards">/api/bincards</a> - Current shift balances</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
