/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the database with realistic demo data so the engine can be explored
  without a warehouse attached. Each scenario resets the store and loads a
  zone layout, SKU eligibility rules, roles, and pallets.

SCENARIOS:
  warehouse-basics   Small finished-goods flow: production intake, FG store,
                     dispatch, quarantine
  fifo-discipline    A FIFO store seeded with pallets of different ages to
                     exercise oldest-first enforcement
  split-and-consume  Bulk pallets in packing, ready for splitting and
                     terminal consumption

SEEDING NOTES:
  Every seeded pallet also gets an intake ledger entry (empty from-zone,
  status Received) so bin-card replay reconstructs the same balances the
  live state shows.

SEE ALSO:
  - factory/config.go: JSON layout parsing used here
  - handlers.go: Scenario endpoints registered in server.go
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/zoneflow/inventory"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "warehouse-basics",
		Name:        "Warehouse Basics",
		Description: "Finished-goods flow across production, FG store, dispatch, and quarantine",
	},
	{
		ID:          "fifo-discipline",
		Name:        "FIFO Discipline",
		Description: "A FIFO store with pallets of different ages; only the oldest may leave",
	},
	{
		ID:          "split-and-consume",
		Name:        "Split and Consume",
		Description: "Bulk pallets in packing, ready for partial splits and terminal consumption",
	},
}

// baseLayoutJSON is the zone layout shared by all scenarios.
const baseLayoutJSON = `{
  "zones": [
    {"name": "Production", "prefix": "PRD", "allows_splitting": false},
    {"name": "FG Store", "prefix": "FG-DET", "fifo_required": true, "shelf_life_days": 180},
    {"name": "Packing", "prefix": "PCK"},
    {"name": "Dispatch", "prefix": "DSP", "allows_splitting": false},
    {"name": "Quarantine Zone", "prefix": "QRN", "default_status": "Quarantine"}
  ],
  "mappings": [
    {"sku": "FG-DET-*", "allowed_zones": ["Production", "FG Store", "Packing", "Dispatch"], "default_zone": "FG Store", "requires_banding": true},
    {"sku": "RM-CHEM-01", "allowed_zones": ["Production", "Quarantine Zone"], "default_zone": "Production"}
  ],
  "roles": [
    {"actor_id": "sup-olu", "role": "Supervisor"},
    {"actor_id": "qa-ada", "role": "QA"},
    {"actor_id": "op-chidi", "role": "Operator"}
  ]
}`

// =============================================================================
// SCENARIO ENDPOINTS
// =============================================================================

// ListScenarios returns the scenario catalog.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"scenarios": scenarios,
	})
}

// GetCurrentScenario returns the most recently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"scenario": h.currentScenario,
	})
}

// LoadScenario resets the database and seeds the requested scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		h.writeError(w, err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Snapshot.Invalidate()
	h.Transit.Eligibility.InvalidateCache()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears every table.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}

	h.currentScenario = ""
	h.Snapshot.Invalidate()
	h.Transit.Eligibility.InvalidateCache()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// =============================================================================
// SEEDING
// =============================================================================

func (h *Handler) resetStore(ctx context.Context) error {
	resetter, ok := h.Store.(Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return resetter.Reset(ctx)
}

func (h *Handler) loadScenario(ctx context.Context, scenarioID string) error {
	var known bool
	for _, s := range scenarios {
		if s.ID == scenarioID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: scenario_id %q", inventory.ErrMissingField, scenarioID)
	}

	if err := h.resetStore(ctx); err != nil {
		return err
	}
	if err := h.seedLayout(ctx); err != nil {
		return err
	}

	now := h.Transit.Clock.Now()
	switch scenarioID {
	case "warehouse-basics":
		return h.seedWarehouseBasics(ctx, now)
	case "fifo-discipline":
		return h.seedFIFODiscipline(ctx, now)
	case "split-and-consume":
		return h.seedSplitAndConsume(ctx, now)
	}
	return nil
}

// seedLayout loads the shared zone/mapping/role layout.
func (h *Handler) seedLayout(ctx context.Context) error {
	cfg, err := h.Factory.ParseConfig(baseLayoutJSON)
	if err != nil {
		return err
	}
	for _, z := range cfg.Zones {
		if err := h.Store.SaveZoneConfig(ctx, z); err != nil {
			return err
		}
	}
	for _, m := range cfg.Mappings {
		if err := h.Store.SaveMapping(ctx, m); err != nil {
			return err
		}
	}
	for actorID, role := range cfg.Roles {
		if err := h.Store.SaveRole(ctx, actorID, role); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedWarehouseBasics(ctx context.Context, now time.Time) error {
	seeds := []palletSeed{
		{id: "FG-DET-00001", sku: "FG-DET-500G", zone: "FG Store", qty: 120, age: 48 * time.Hour, banded: true},
		{id: "FG-DET-00002", sku: "FG-DET-500G", zone: "FG Store", qty: 120, age: 24 * time.Hour, banded: true},
		{id: "FG-DET-00003", sku: "FG-DET-1KG", zone: "FG Store", qty: 80, age: 12 * time.Hour, banded: true},
		{id: "PRD-00001", sku: "FG-DET-500G", zone: "Production", qty: 100, age: 2 * time.Hour, banded: true},
		{id: "QRN-00001", sku: "RM-CHEM-01", zone: "Quarantine Zone", qty: 40, age: 72 * time.Hour, status: inventory.StatusQuarantine},
	}
	return h.seedPallets(ctx, now, seeds)
}

func (h *Handler) seedFIFODiscipline(ctx context.Context, now time.Time) error {
	seeds := []palletSeed{
		{id: "FG-DET-00010", sku: "FG-DET-500G", zone: "FG Store", qty: 100, age: 96 * time.Hour, banded: true},
		{id: "FG-DET-00011", sku: "FG-DET-500G", zone: "FG Store", qty: 100, age: 72 * time.Hour, banded: true},
		{id: "FG-DET-00012", sku: "FG-DET-500G", zone: "FG Store", qty: 100, age: 48 * time.Hour, banded: true},
		{id: "FG-DET-00013", sku: "FG-DET-1KG", zone: "FG Store", qty: 60, age: 24 * time.Hour, banded: true},
	}
	return h.seedPallets(ctx, now, seeds)
}

func (h *Handler) seedSplitAndConsume(ctx context.Context, now time.Time) error {
	seeds := []palletSeed{
		{id: "PCK-00001", sku: "FG-DET-500G", zone: "Packing", qty: 500, age: 36 * time.Hour, banded: true},
		{id: "PCK-00002", sku: "FG-DET-1KG", zone: "Packing", qty: 300, age: 20 * time.Hour, banded: true},
		{id: "FG-DET-00020", sku: "FG-DET-500G", zone: "FG Store", qty: 100, age: 60 * time.Hour, banded: true},
	}
	return h.seedPallets(ctx, now, seeds)
}

type palletSeed struct {
	id     string
	sku    string
	zone   string
	qty    float64
	age    time.Duration
	banded bool
	status inventory.PalletStatus
}

// seedPallets persists the pallets plus matching intake ledger entries.
func (h *Handler) seedPallets(ctx context.Context, now time.Time, seeds []palletSeed) error {
	for _, seed := range seeds {
		createdAt := now.Add(-seed.age)
		qty := decimal.NewFromFloat(seed.qty)
		status := seed.status
		if status == "" {
			status = inventory.StatusAvailable
		}
		palletType := ""
		if seed.banded {
			palletType = inventory.PalletTypeBanded
		}

		pallet := inventory.Pallet{
			ID:                inventory.PalletID(seed.id),
			SKU:               inventory.SKU(seed.sku),
			PalletType:        palletType,
			CurrentZone:       inventory.Zone(seed.zone),
			Status:            status,
			Quantity:          qty,
			RemainingQuantity: qty,
			CreatedAt:         createdAt,
			Notes:             []string{"Seeded by demo scenario"},
		}
		if err := h.Store.SavePallet(ctx, pallet); err != nil {
			return err
		}

		receivedAt := createdAt
		entry := inventory.MovementEntry{
			ID:         inventory.NewMovementID(createdAt),
			PalletID:   pallet.ID,
			ToZone:     pallet.CurrentZone,
			Quantity:   qty,
			MovedBy:    inventory.SystemActor,
			Reason:     "Production intake",
			Status:     inventory.MovementReceived,
			CreatedAt:  createdAt,
			ReceivedAt: &receivedAt,
			ReceivedBy: inventory.SystemActor,
		}
		if err := h.Store.AppendMovement(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
