/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers carrying the success flag

ENVELOPE:
  Action responses carry {"success": true, ...} on the happy path and
  {"success": false, "error": "..."} on rule violations, so scanner-gun
  clients can branch on a single boolean.

VALIDATION:
  Request structs carry go-playground/validator tags; handlers run them
  through decodeAndValidate before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Domain model these decouple from
*/
package api

import (
	"time"

	"github.com/warp/zoneflow/inventory"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// MovePalletRequest initiates a two-phase move.
type MovePalletRequest struct {
	ToZone         string   `json:"to_zone" validate:"required"`
	MovedBy        string   `json:"moved_by" validate:"required"`
	Reason         string   `json:"reason,omitempty"`
	OverrideReason string   `json:"override_reason,omitempty"`
	Quantity       *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	OrderReference string   `json:"order_reference,omitempty"`
}

// ReceivePalletRequest completes a move at the destination.
type ReceivePalletRequest struct {
	ReceivedBy string `json:"received_by" validate:"required"`
}

// CancelTransitRequest aborts an in-flight move.
type CancelTransitRequest struct {
	CancelledBy      string `json:"cancelled_by" validate:"required"`
	EscalationReason string `json:"escalation_reason" validate:"required"`
}

// SplitPalletRequest carves a child pallet off a parent.
type SplitPalletRequest struct {
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	TargetZone string  `json:"target_zone" validate:"required"`
	MovedBy    string  `json:"moved_by" validate:"required"`
	Reason     string  `json:"reason,omitempty"`
}

// ConfirmBinCardRequest confirms a single (zone, SKU) bin card.
type ConfirmBinCardRequest struct {
	Zone          string  `json:"zone" validate:"required"`
	SKU           string  `json:"sku" validate:"required"`
	ShiftDate     string  `json:"shift_date" validate:"required"`
	Shift         string  `json:"shift" validate:"required,oneof=Day Night"`
	ConfirmedBy   string  `json:"confirmed_by" validate:"required"`
	PhysicalCount float64 `json:"physical_count" validate:"gte=0"`
}

// ConfirmZoneBinCardRequest confirms a zone's total for a shift from one
// physical count, writing only the zone-total roll-up row.
type ConfirmZoneBinCardRequest struct {
	Zone          string  `json:"zone" validate:"required"`
	ShiftDate     string  `json:"shift_date" validate:"required"`
	Shift         string  `json:"shift" validate:"required,oneof=Day Night"`
	ConfirmedBy   string  `json:"confirmed_by" validate:"required"`
	PhysicalCount float64 `json:"physical_count" validate:"gte=0"`
}

// PhysicalCountDTO is one operator-submitted count within a zone confirmation.
type PhysicalCountDTO struct {
	SKU      string  `json:"sku" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// ConfirmZonePerSKURequest confirms every counted SKU of a zone for a shift,
// including the zone-total roll-up row.
type ConfirmZonePerSKURequest struct {
	Zone        string             `json:"zone" validate:"required"`
	ShiftDate   string             `json:"shift_date" validate:"required"`
	Shift       string             `json:"shift" validate:"required,oneof=Day Night"`
	ConfirmedBy string             `json:"confirmed_by" validate:"required"`
	Counts      []PhysicalCountDTO `json:"counts" validate:"required,min=1,dive"`
}

// RevokeBinCardRequest reopens a confirmed zone/shift for re-counting.
type RevokeBinCardRequest struct {
	Zone      string `json:"zone" validate:"required"`
	ShiftDate string `json:"shift_date" validate:"required"`
	Shift     string `json:"shift" validate:"required,oneof=Day Night"`
	RevokedBy string `json:"revoked_by" validate:"required"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// TransitDTO mirrors a pallet's active transit sub-record.
type TransitDTO struct {
	ToZone      string `json:"to_zone"`
	MovementID  string `json:"movement_id"`
	InitiatedAt string `json:"initiated_at"`
	InitiatedBy string `json:"initiated_by"`
}

// PalletDTO represents a pallet in API responses.
type PalletDTO struct {
	ID                string      `json:"id"`
	SKU               string      `json:"sku"`
	PalletType        string      `json:"pallet_type,omitempty"`
	CurrentZone       string      `json:"current_zone"`
	Status            string      `json:"status"`
	Quantity          float64     `json:"quantity"`
	RemainingQuantity float64     `json:"remaining_quantity"`
	ParentID          string      `json:"parent_id,omitempty"`
	ChildIDs          []string    `json:"child_ids,omitempty"`
	Notes             []string    `json:"notes,omitempty"`
	CreatedAt         string      `json:"created_at"`
	LastMovedAt       string      `json:"last_moved_at,omitempty"`
	LastMovedBy       string      `json:"last_moved_by,omitempty"`
	InTransit         *TransitDTO `json:"in_transit,omitempty"`
}

// MovementDTO represents one ledger entry.
type MovementDTO struct {
	ID               string  `json:"id"`
	PalletID         string  `json:"pallet_id"`
	FromZone         string  `json:"from_zone,omitempty"`
	ToZone           string  `json:"to_zone"`
	Quantity         float64 `json:"quantity"`
	MovedBy          string  `json:"moved_by,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	OverrideReason   string  `json:"override_reason,omitempty"`
	OrderReference   string  `json:"order_reference,omitempty"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	ReceivedAt       string  `json:"received_at,omitempty"`
	ReceivedBy       string  `json:"received_by,omitempty"`
	CancelledAt      string  `json:"cancelled_at,omitempty"`
	CancelledBy      string  `json:"cancelled_by,omitempty"`
	EscalationReason string  `json:"escalation_reason,omitempty"`
	AutoRevertedAt   string  `json:"auto_reverted_at,omitempty"`
}

// SKUTotalDTO is one SKU's share of a zone snapshot.
type SKUTotalDTO struct {
	SKU         string  `json:"sku"`
	PalletCount int     `json:"pallet_count"`
	Quantity    float64 `json:"quantity"`
}

// ZoneTotalsDTO aggregates a zone's resident inventory.
type ZoneTotalsDTO struct {
	Zone          string        `json:"zone"`
	PalletCount   int           `json:"pallet_count"`
	InTransitOut  int           `json:"in_transit_out"`
	TotalQuantity float64       `json:"total_quantity"`
	BySKU         []SKUTotalDTO `json:"by_sku"`
}

// ShiftBalanceDTO is one computed (zone, SKU) bucket for a shift.
type ShiftBalanceDTO struct {
	Zone     string  `json:"zone"`
	SKU      string  `json:"sku"`
	Opening  float64 `json:"opening_balance"`
	MovedIn  float64 `json:"moved_in"`
	MovedOut float64 `json:"moved_out"`
	Closing  float64 `json:"system_closing"`
}

// BinCardReportDTO is the bin-card query response.
type BinCardReportDTO struct {
	Success   bool              `json:"success"`
	ShiftDate string            `json:"shift_date"`
	Shift     string            `json:"shift"`
	Live      bool              `json:"live"`
	Balances  []ShiftBalanceDTO `json:"balances"`
}

// BinCardRecordDTO represents a persisted reconciliation row.
type BinCardRecordDTO struct {
	ID             string  `json:"id"`
	Zone           string  `json:"zone"`
	SKU            string  `json:"sku"`
	ShiftDate      string  `json:"shift_date"`
	Shift          string  `json:"shift"`
	OpeningBalance float64 `json:"opening_balance"`
	MovedIn        float64 `json:"moved_in"`
	MovedOut       float64 `json:"moved_out"`
	SystemClosing  float64 `json:"system_closing"`
	PhysicalCount  float64 `json:"physical_count"`
	Variance       float64 `json:"variance"`
	Status         string  `json:"status"`
	ConfirmedBy    string  `json:"confirmed_by,omitempty"`
	ConfirmedAt    string  `json:"confirmed_at"`
	RevokedBy      string  `json:"revoked_by,omitempty"`
	RevokedAt      string  `json:"revoked_at,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPalletDTO(p *inventory.Pallet) PalletDTO {
	qty, _ := p.Quantity.Float64()
	remaining, _ := p.RemainingQuantity.Float64()

	dto := PalletDTO{
		ID:                string(p.ID),
		SKU:               string(p.SKU),
		PalletType:        p.PalletType,
		CurrentZone:       string(p.CurrentZone),
		Status:            string(p.Status),
		Quantity:          qty,
		RemainingQuantity: remaining,
		ParentID:          string(p.ParentID),
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		LastMovedBy:       p.LastMovedBy,
	}
	for _, child := range p.ChildIDs {
		dto.ChildIDs = append(dto.ChildIDs, string(child))
	}
	if p.LastMovedAt != nil {
		dto.LastMovedAt = p.LastMovedAt.Format(time.RFC3339)
	}
	if p.InTransit != nil {
		dto.InTransit = &TransitDTO{
			ToZone:      string(p.InTransit.ToZone),
			MovementID:  string(p.InTransit.MovementID),
			InitiatedAt: p.InTransit.InitiatedAt.Format(time.RFC3339),
			InitiatedBy: p.InTransit.InitiatedBy,
		}
	}
	return dto
}

func toPalletDTOs(pallets []inventory.Pallet) []PalletDTO {
	dtos := make([]PalletDTO, len(pallets))
	for i := range pallets {
		dtos[i] = toPalletDTO(&pallets[i])
	}
	return dtos
}

func toMovementDTO(e inventory.MovementEntry) MovementDTO {
	qty, _ := e.Quantity.Float64()
	dto := MovementDTO{
		ID:               string(e.ID),
		PalletID:         string(e.PalletID),
		FromZone:         string(e.FromZone),
		ToZone:           string(e.ToZone),
		Quantity:         qty,
		MovedBy:          e.MovedBy,
		Reason:           e.Reason,
		OverrideReason:   e.OverrideReason,
		OrderReference:   e.OrderReference,
		Status:           string(e.Status),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		ReceivedBy:       e.ReceivedBy,
		CancelledBy:      e.CancelledBy,
		EscalationReason: e.EscalationReason,
	}
	if e.ReceivedAt != nil {
		dto.ReceivedAt = e.ReceivedAt.Format(time.RFC3339)
	}
	if e.CancelledAt != nil {
		dto.CancelledAt = e.CancelledAt.Format(time.RFC3339)
	}
	if e.AutoRevertedAt != nil {
		dto.AutoRevertedAt = e.AutoRevertedAt.Format(time.RFC3339)
	}
	return dto
}

func toMovementDTOs(entries []inventory.MovementEntry) []MovementDTO {
	dtos := make([]MovementDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toMovementDTO(e)
	}
	return dtos
}

func toBinCardDTO(rec inventory.BinCardRecord) BinCardRecordDTO {
	opening, _ := rec.OpeningBalance.Float64()
	in, _ := rec.MovedIn.Float64()
	out, _ := rec.MovedOut.Float64()
	closing, _ := rec.SystemClosing.Float64()
	physical, _ := rec.PhysicalCount.Float64()
	variance, _ := rec.Variance.Float64()

	dto := BinCardRecordDTO{
		ID:             rec.ID,
		Zone:           string(rec.Zone),
		SKU:            string(rec.SKU),
		ShiftDate:      rec.ShiftDate,
		Shift:          string(rec.Shift),
		OpeningBalance: opening,
		MovedIn:        in,
		MovedOut:       out,
		SystemClosing:  closing,
		PhysicalCount:  physical,
		Variance:       variance,
		Status:         string(rec.Status),
		ConfirmedBy:    rec.ConfirmedBy,
		ConfirmedAt:    rec.ConfirmedAt.Format(time.RFC3339),
		RevokedBy:      rec.RevokedBy,
	}
	if rec.RevokedAt != nil {
		dto.RevokedAt = rec.RevokedAt.Format(time.RFC3339)
	}
	return dto
}

func toBinCardDTOs(recs []inventory.BinCardRecord) []BinCardRecordDTO {
	dtos := make([]BinCardRecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toBinCardDTO(rec)
	}
	return dtos
}

func toShiftBalanceDTOs(balances []inventory.ShiftBalance) []ShiftBalanceDTO {
	dtos := make([]ShiftBalanceDTO, len(balances))
	for i, b := range balances {
		opening, _ := b.Opening.Float64()
		in, _ := b.MovedIn.Float64()
		out, _ := b.MovedOut.Float64()
		closing, _ := b.Closing.Float64()
		dtos[i] = ShiftBalanceDTO{
			Zone:     string(b.Zone),
			SKU:      string(b.SKU),
			Opening:  opening,
			MovedIn:  in,
			MovedOut: out,
			Closing:  closing,
		}
	}
	return dtos
}

func toZoneTotalsDTOs(totals []inventory.ZoneTotals) []ZoneTotalsDTO {
	dtos := make([]ZoneTotalsDTO, len(totals))
	for i, zt := range totals {
		total, _ := zt.TotalQuantity.Float64()
		dto := ZoneTotalsDTO{
			Zone:          string(zt.Zone),
			PalletCount:   zt.PalletCount,
			InTransitOut:  zt.InTransitOut,
			TotalQuantity: total,
		}
		for _, st := range zt.BySKU {
			qty, _ := st.Quantity.Float64()
			dto.BySKU = append(dto.BySKU, SKUTotalDTO{
				SKU:         string(st.SKU),
				PalletCount: st.PalletCount,
				Quantity:    qty,
			})
		}
		dtos[i] = dto
	}
	return dtos
}
