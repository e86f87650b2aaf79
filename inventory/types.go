/*
Package inventory provides the zone inventory movement and reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking physical
  stock units ("pallets") through a fixed set of warehouse zones: the two-phase
  transit protocol (initiate -> receive/cancel/auto-revert), FIFO enforcement,
  zone/SKU eligibility rules, pallet splitting with quantity conservation, and
  the shift-level bin-card reconciliation built by replaying the movement ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Pallet: A trackable stock unit with a remaining quantity, current zone,
    lifecycle status, and at most one active transit sub-record
  - ZoneConfig: Per-zone movement rules (FIFO requirement, splitting policy,
    pallet-numbering counter)
  - SKUZoneMapping: Per-SKU destination rules with wildcard-suffix matching
  - Zone/SKU/PalletID/MovementID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all quantities
  2. Auditability: Pallets are never hard-deleted; every transition appends
     a note and a ledger entry
  3. Type Safety: Strong typing for identifiers prevents mixing zones and SKUs
  4. Single Transit: A pallet carries at most one active transit sub-record

SEE ALSO:
  - transit.go: The transit state machine
  - ledger.go: The append-only movement ledger
  - bincard.go: Shift reconciliation (live and replay)
*/
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PalletID string
type MovementID string
type Zone string
type SKU string

// ZoneTotalSKU is the sentinel SKU used for zone-level bin card roll-ups.
const ZoneTotalSKU SKU = "ZONE_TOTAL"

// TerminalZone is the sink for fully consumed stock. Any SKU may move there
// unconditionally; pallets received there leave active inventory.
const TerminalZone Zone = "Final Consumption"

// IsTerminalZone matches the terminal zone name case-insensitively so
// operator-entered spelling variants still resolve to the sink.
func IsTerminalZone(z Zone) bool {
	return strings.EqualFold(strings.TrimSpace(string(z)), string(TerminalZone))
}

// =============================================================================
// PALLET - The unit of tracked stock
// =============================================================================

type PalletStatus string

const (
	StatusAvailable  PalletStatus = "Available"
	StatusQuarantine PalletStatus = "Quarantine"
	StatusInTransit  PalletStatus = "In Transit"
	StatusConsumed   PalletStatus = "Consumed"
)

// PalletTypeBanded marks pallets that satisfy a banding requirement.
const PalletTypeBanded = "Banded"

// TransitInfo is the active transit sub-record. At most one exists per pallet;
// it is set by InitiateMove and cleared by receive, cancel, or auto-revert.
type TransitInfo struct {
	ToZone      Zone
	MovementID  MovementID
	InitiatedAt time.Time
	InitiatedBy string
}

// Pallet is a trackable unit of physical stock.
//
// INVARIANTS:
//   - RemainingQuantity <= Quantity
//   - At most one active transit sub-record (InTransit)
//   - The sum of child quantities taken at split time never exceeds the
//     parent's remaining quantity at that moment
//   - Never hard-deleted (audit trail)
type Pallet struct {
	ID          PalletID
	SKU         SKU
	PalletType  string // e.g. "Banded", "Loose"
	CurrentZone Zone
	Status      PalletStatus

	// Quantity is the original quantity; RemainingQuantity is decremented
	// by splits and never exceeds Quantity.
	Quantity          decimal.Decimal
	RemainingQuantity decimal.Decimal

	// Split lineage
	ParentID PalletID
	ChildIDs []PalletID

	// Audit trail: free-form notes appended by every transition.
	Notes []string

	CreatedAt   time.Time
	LastMovedAt *time.Time
	LastMovedBy string

	InTransit *TransitInfo
}

// Remaining returns the effective remaining quantity, falling back to the
// original quantity for pallets created before splitting existed.
func (p *Pallet) Remaining() decimal.Decimal {
	if p.RemainingQuantity.IsZero() && !p.Quantity.IsZero() && len(p.ChildIDs) == 0 {
		return p.Quantity
	}
	return p.RemainingQuantity
}

// =============================================================================
// ZONE CONFIG - Per-zone movement rules
// =============================================================================

// ZoneConfig holds the movement rules for one zone. Zones are a closed,
// pre-seeded set plus operator additions; the numbering counter is mutated
// only by pallet-id minting.
type ZoneConfig struct {
	Name            Zone
	Prefix          string // used to mint pallet ids, e.g. "FG-DET"
	FIFORequired    bool
	AllowsSplitting bool
	ShelfLifeDays   int
	DefaultStatus   PalletStatus
	NextPalletNum   int // monotonic counter
}

// =============================================================================
// SKU-ZONE MAPPING - Per-SKU destination eligibility
// =============================================================================

// SKUZoneMapping restricts where a SKU may be moved. The SKU field is either
// an exact SKU or a wildcard-suffix pattern such as "FG-DET-*".
// An empty AllowedZones set means unrestricted.
type SKUZoneMapping struct {
	SKU             SKU
	AllowedZones    []Zone
	DefaultZone     Zone
	RequiresBanding bool
	ShelfLifeDays   int
}

// Matches reports whether this mapping applies to the given SKU.
func (m SKUZoneMapping) Matches(sku SKU) bool {
	pattern := string(m.SKU)
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(string(sku), strings.TrimSuffix(pattern, "*"))
	}
	return pattern == string(sku)
}

// AllowsZone reports whether the mapping permits a destination zone.
func (m SKUZoneMapping) AllowsZone(z Zone) bool {
	if len(m.AllowedZones) == 0 {
		return true
	}
	for _, allowed := range m.AllowedZones {
		if strings.EqualFold(string(allowed), string(z)) {
			return true
		}
	}
	return false
}

// =============================================================================
// ROLES - Cancellation authority
// =============================================================================

type Role string

const (
	RoleSupervisor Role = "Supervisor"
	RoleQA         Role = "QA"
	RoleOperator   Role = "Operator"
	RoleNone       Role = ""
)

// CanCancelTransit reports whether a role may override an in-transit move.
func (r Role) CanCancelTransit() bool {
	return r == RoleSupervisor || r == RoleQA
}
