/*
handlers.go - HTTP API handlers for the zone inventory engine

PURPOSE:
  Exposes the movement and reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Pallets:
    POST   /api/pallets/{id}/move           Initiate a two-phase move
    POST   /api/pallets/{id}/receive        Complete a move at destination
    POST   /api/pallets/{id}/cancel-transit Abort an in-flight move
    POST   /api/pallets/{id}/split          Carve off a child pallet
    GET    /api/pallets/{id}                Pallet detail

  Zones:
    GET    /api/zones/{zone}/pallets        Resident pallets
    GET    /api/zones/{zone}/inbound        Movements heading into the zone
    GET    /api/zones/{zone}/outbound       Movements leaving the zone
    GET    /api/zones/totals                Cached inventory snapshot

  Bin cards:
    GET    /api/bincards                      Computed shift balances
    POST   /api/bincards/confirm              Confirm one (zone, SKU) card
    POST   /api/bincards/confirm-zone         Confirm a zone from one total count
    POST   /api/bincards/confirm-zone-per-sku Confirm a zone per SKU + roll-up
    POST   /api/bincards/revoke               Revoke a confirmed zone/shift
    GET    /api/bincards/variance-report      Confirmed records with variances

  Admin:
    POST   /api/admin/auto-revert           Sweep stale transits now
    GET    /api/admin/bincards/confirmed    Confirmed records for review

  Ledger:
    GET    /api/movements                   Filtered ledger query

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario
    POST   /api/scenarios/reset             Clear the database

REQUEST FLOW:
  1. Parse and validate HTTP request (go-playground/validator)
  2. Call domain logic (transit service, reconciler, snapshot)
  3. Serialize response with the success envelope
  4. Map domain errors onto HTTP status codes

ERROR HANDLING:
  Rule violations and bad input map to 4xx with {success: false, error}:
  - 400: Validation errors, malformed input, missing fields
  - 403: Cancellation without Supervisor/QA role
  - 404: Unknown pallet or zone
  - 409: Transit state conflicts, duplicate confirmation
  - 500: Storage failures

SECURITY NOTE:
  No authentication middleware. Actor identity is taken from request
  bodies; an upstream gateway is expected to authenticate in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/zoneflow/factory"
	"github.com/warp/zoneflow/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter is implemented by stores that support clearing all records.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      inventory.Store
	Transit    *inventory.TransitService
	Reconciler *inventory.Reconciler
	Snapshot   *inventory.SnapshotService
	Factory    *factory.ConfigFactory
	Log        *logrus.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler with all services wired against the store.
func NewHandler(store inventory.Store, clock inventory.Clock, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:      store,
		Transit:    inventory.NewTransitService(store, clock),
		Reconciler: inventory.NewReconciler(store, clock),
		Snapshot:   inventory.NewSnapshotService(store, clock),
		Factory:    factory.NewConfigFactory(),
		Log:        log,
		validate:   validator.New(),
	}
}

// =============================================================================
// PALLET ACTIONS
// =============================================================================

// MovePallet initiates a two-phase move.
// POST /api/pallets/{id}/move
func (h *Handler) MovePallet(w http.ResponseWriter, r *http.Request) {
	palletID := inventory.PalletID(chi.URLParam(r, "id"))

	var req MovePalletRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	in := inventory.MoveInput{
		PalletID:       palletID,
		ToZone:         inventory.Zone(req.ToZone),
		MovedBy:        req.MovedBy,
		Reason:         req.Reason,
		OverrideReason: req.OverrideReason,
		OrderReference: req.OrderReference,
	}
	if req.Quantity != nil {
		qty := decimal.NewFromFloat(*req.Quantity)
		in.Quantity = &qty
	}

	movementID, err := h.Transit.InitiateMove(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Snapshot.Invalidate()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"movement_id": string(movementID),
	})
}

// ReceivePallet completes a move at the destination.
// POST /api/pallets/{id}/receive
func (h *Handler) ReceivePallet(w http.ResponseWriter, r *http.Request) {
	palletID := inventory.PalletID(chi.URLParam(r, "id"))

	var req ReceivePalletRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	pallet, err := h.Transit.ReceiveMove(r.Context(), palletID, req.ReceivedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Snapshot.Invalidate()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pallet":  toPalletDTO(pallet),
	})
}

// CancelTransit aborts an in-flight move. Requires Supervisor or QA role.
// POST /api/pallets/{id}/cancel-transit
func (h *Handler) CancelTransit(w http.ResponseWriter, r *http.Request) {
	palletID := inventory.PalletID(chi.URLParam(r, "id"))

	var req CancelTransitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Transit.CancelMove(r.Context(), palletID, req.CancelledBy, req.EscalationReason); err != nil {
		h.writeError(w, err)
		return
	}
	h.Snapshot.Invalidate()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SplitPallet carves a child pallet off a parent and sends it in transit.
// POST /api/pallets/{id}/split
func (h *Handler) SplitPallet(w http.ResponseWriter, r *http.Request) {
	palletID := inventory.PalletID(chi.URLParam(r, "id"))

	var req SplitPalletRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	child, movementID, err := h.Transit.SplitPallet(r.Context(), palletID,
		decimal.NewFromFloat(req.Quantity), inventory.Zone(req.TargetZone), req.MovedBy, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Snapshot.Invalidate()

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"child":       toPalletDTO(child),
		"movement_id": string(movementID),
	})
}

// GetPallet returns a single pallet.
// GET /api/pallets/{id}
func (h *Handler) GetPallet(w http.ResponseWriter, r *http.Request) {
	palletID := inventory.PalletID(chi.URLParam(r, "id"))

	pallet, err := h.Store.GetPallet(r.Context(), palletID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if pallet == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Pallet not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pallet":  toPalletDTO(pallet),
	})
}

// =============================================================================
// ZONE QUERIES
// =============================================================================

// GetPalletsInZone returns the pallets resident in a zone, oldest first.
// GET /api/zones/{zone}/pallets?status=&limit=
func (h *Handler) GetPalletsInZone(w http.ResponseWriter, r *http.Request) {
	zone := inventory.Zone(chi.URLParam(r, "zone"))

	pallets, err := h.Store.ListPalletsInZone(r.Context(), zone)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := pallets[:0]
		for _, p := range pallets {
			if strings.EqualFold(string(p.Status), status) {
				filtered = append(filtered, p)
			}
		}
		pallets = filtered
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 && limit < len(pallets) {
			pallets = pallets[:limit]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"zone":    string(zone),
		"pallets": toPalletDTOs(pallets),
	})
}

// GetInboundsToZone returns active movements heading into a zone.
// GET /api/zones/{zone}/inbound
func (h *Handler) GetInboundsToZone(w http.ResponseWriter, r *http.Request) {
	zone := inventory.Zone(chi.URLParam(r, "zone"))

	entries, err := h.Store.ListMovements(r.Context(), inventory.MovementFilter{
		ToZone: zone,
		Status: inventory.MovementInTransit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"zone":      string(zone),
		"movements": toMovementDTOs(entries),
	})
}

// GetOutboundsFromZone returns active movements leaving a zone.
// GET /api/zones/{zone}/outbound
func (h *Handler) GetOutboundsFromZone(w http.ResponseWriter, r *http.Request) {
	zone := inventory.Zone(chi.URLParam(r, "zone"))

	entries, err := h.Store.ListMovements(r.Context(), inventory.MovementFilter{
		FromZone: zone,
		Status:   inventory.MovementInTransit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"zone":      string(zone),
		"movements": toMovementDTOs(entries),
	})
}

// GetZoneTotals returns the cached inventory snapshot across all zones.
// GET /api/zones/totals
func (h *Handler) GetZoneTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Snapshot.ZoneTotals(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"zones":   toZoneTotalsDTOs(totals),
	})
}

// =============================================================================
// LEDGER QUERIES
// =============================================================================

// ListMovements returns ledger entries matching the query filters.
// GET /api/movements?pallet_id=&from_zone=&to_zone=&status=&from=&to=
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inventory.MovementFilter{
		PalletID: inventory.PalletID(q.Get("pallet_id")),
		FromZone: inventory.Zone(q.Get("from_zone")),
		ToZone:   inventory.Zone(q.Get("to_zone")),
		Status:   inventory.MovementStatus(q.Get("status")),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid from timestamp (use RFC3339)"})
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid to timestamp (use RFC3339)"})
			return
		}
		filter.To = t
	}

	entries, err := h.Store.ListMovements(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"movements": toMovementDTOs(entries),
	})
}

// =============================================================================
// BIN CARD ENDPOINTS
// =============================================================================

// GetBinCardData returns the computed shift balances, optionally filtered.
// GET /api/bincards?zone=&sku=&shift_date=&shift=
func (h *Handler) GetBinCardData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	shiftDate, shift, ok := h.resolveShift(w, q.Get("shift_date"), q.Get("shift"))
	if !ok {
		return
	}

	report, err := h.Reconciler.ShiftBalances(r.Context(), shiftDate, shift)
	if err != nil {
		h.writeError(w, err)
		return
	}

	balances := report.Balances
	if zone := q.Get("zone"); zone != "" {
		filtered := balances[:0]
		for _, b := range balances {
			if strings.EqualFold(string(b.Zone), zone) {
				filtered = append(filtered, b)
			}
		}
		balances = filtered
	}
	if sku := q.Get("sku"); sku != "" {
		filtered := balances[:0]
		for _, b := range balances {
			if string(b.SKU) == sku {
				filtered = append(filtered, b)
			}
		}
		balances = filtered
	}

	writeJSON(w, http.StatusOK, BinCardReportDTO{
		Success:   true,
		ShiftDate: report.ShiftDate,
		Shift:     string(report.Shift),
		Live:      report.Live,
		Balances:  toShiftBalanceDTOs(balances),
	})
}

// ConfirmBinCard confirms a single (zone, SKU) bin card with a physical count.
// POST /api/bincards/confirm
func (h *Handler) ConfirmBinCard(w http.ResponseWriter, r *http.Request) {
	var req ConfirmBinCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.Reconciler.ConfirmBinCard(r.Context(),
		inventory.Zone(req.Zone), inventory.SKU(req.SKU), req.ShiftDate,
		inventory.Shift(req.Shift), req.ConfirmedBy, decimal.NewFromFloat(req.PhysicalCount))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"record":  toBinCardDTO(*rec),
	})
}

// ConfirmZoneBinCard confirms a zone's total for a shift from one physical
// count, writing only the zone-total roll-up record.
// POST /api/bincards/confirm-zone
func (h *Handler) ConfirmZoneBinCard(w http.ResponseWriter, r *http.Request) {
	var req ConfirmZoneBinCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.Reconciler.ConfirmZoneBinCard(r.Context(),
		inventory.Zone(req.Zone), inventory.Shift(req.Shift), req.ShiftDate,
		req.ConfirmedBy, decimal.NewFromFloat(req.PhysicalCount))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"record":  toBinCardDTO(*rec),
	})
}

// ConfirmZoneBinCardPerSKU confirms every counted SKU of a zone for a shift,
// plus the zone-total roll-up row.
// POST /api/bincards/confirm-zone-per-sku
func (h *Handler) ConfirmZoneBinCardPerSKU(w http.ResponseWriter, r *http.Request) {
	var req ConfirmZonePerSKURequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	counts := make([]inventory.PhysicalCount, len(req.Counts))
	for i, c := range req.Counts {
		counts[i] = inventory.PhysicalCount{
			SKU:      inventory.SKU(c.SKU),
			Quantity: decimal.NewFromFloat(c.Quantity),
		}
	}

	recs, err := h.Reconciler.ConfirmZoneBinCardPerSKU(r.Context(),
		inventory.Zone(req.Zone), inventory.Shift(req.Shift), req.ShiftDate,
		req.ConfirmedBy, counts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"records": toBinCardDTOs(recs),
	})
}

// RevokeBinCard flips a zone/shift's confirmed records to Revoked.
// POST /api/bincards/revoke
func (h *Handler) RevokeBinCard(w http.ResponseWriter, r *http.Request) {
	var req RevokeBinCardRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	revoked, err := h.Reconciler.RevokeZoneBinCard(r.Context(),
		inventory.Zone(req.Zone), inventory.Shift(req.Shift), req.ShiftDate, req.RevokedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"revoked": revoked,
	})
}

// VarianceReport returns confirmed records, which carry server-computed
// variances, filtered by zone/SKU/shift/date range.
// GET /api/bincards/variance-report?zone=&sku=&shift=&date_from=&date_to=
func (h *Handler) VarianceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := h.Reconciler.VarianceReport(r.Context(), inventory.BinCardFilter{
		Zone:     inventory.Zone(q.Get("zone")),
		SKU:      inventory.SKU(q.Get("sku")),
		Shift:    inventory.Shift(q.Get("shift")),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"records": toBinCardDTOs(recs),
	})
}

// GetConfirmedBinCards returns confirmed records for admin review.
// GET /api/admin/bincards/confirmed?zone=&shift_date=
func (h *Handler) GetConfirmedBinCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := h.Store.ListBinCards(r.Context(), inventory.BinCardFilter{
		Zone:      inventory.Zone(q.Get("zone")),
		ShiftDate: q.Get("shift_date"),
		Status:    inventory.BinCardConfirmed,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"records": toBinCardDTOs(recs),
	})
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// RunAutoRevert sweeps stale transits immediately.
// POST /api/admin/auto-revert
func (h *Handler) RunAutoRevert(w http.ResponseWriter, r *http.Request) {
	reverted, err := h.Transit.AutoRevertStale(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(reverted) > 0 {
		h.Snapshot.Invalidate()
	}

	ids := make([]string, len(reverted))
	for i, id := range reverted {
		ids[i] = string(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"reverted": ids,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveShift parses the shift date and shift, defaulting to the window
// containing the current time.
func (h *Handler) resolveShift(w http.ResponseWriter, dateStr, shiftStr string) (time.Time, inventory.Shift, bool) {
	if dateStr == "" && shiftStr == "" {
		date, shift := inventory.CurrentShift(h.Transit.Clock.Now())
		return date, shift, true
	}

	if dateStr == "" || shiftStr == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "shift_date and shift must be supplied together"})
		return time.Time{}, "", false
	}

	date, err := time.Parse(inventory.ShiftDateLayout, dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid shift_date format (use YYYY-MM-DD)"})
		return time.Time{}, "", false
	}
	shift := inventory.Shift(shiftStr)
	if !shift.Valid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid shift (use Day or Night)"})
		return time.Time{}, "", false
	}
	return date, shift, true
}

// decodeAndValidate parses the JSON body into dst and runs validation,
// writing a 400 response on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: err.Error()})
		return false
	}
	return true
}

// writeError maps a domain error onto an HTTP status and the failure envelope.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case inventory.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, inventory.ErrAlreadyInTransit),
		errors.Is(err, inventory.ErrNotInTransit),
		errors.Is(err, inventory.ErrAlreadyConfirmed):
		status = http.StatusConflict
	case inventory.IsClientError(err):
		status = http.StatusBadRequest
	default:
		h.Log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
