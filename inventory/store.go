/*
store.go - Persistence interfaces for pallets, ledger, config, and bin cards

PURPOSE:
  Defines the boundary between the engine and the record store. Every
  component depends only on these contracts, so a spreadsheet-like backend,
  SQLite, or a real database can satisfy them. Rows are mapped to typed
  records exactly once, at this boundary.

KEY INTERFACES:
  PalletStore:     Pallet records, keyed by pallet id
  LedgerStore:     Append-only movement ledger with one-shot terminal updates
  ZoneConfigStore: Zone rules + the pallet-numbering counter
  MappingStore:    SKU-to-zone eligibility table
  BinCardStore:    Shift reconciliation records
  RoleStore:       Static actor-to-role lookup (cancellation authority)
  Store:           Composite of all of the above

LEDGER CONTRACT:
  Movement entries are append-only. Once appended, only the status and its
  matching terminal metadata may be written, exactly once per transition
  (In Transit -> Received | Cancelled | Auto-Reverted). Implementations do
  not expose deletes.

IMPLEMENTATIONS:
  - store/sqlite:         Production SQLite store
  - inventory/store:      In-memory store for tests and development

SEE ALSO:
  - ledger.go: MovementEntry and status transitions
  - store/sqlite/sqlite.go: Concrete implementation
*/
package inventory

import (
	"context"
	"time"
)

// =============================================================================
// PALLET STORE
// =============================================================================

// PalletStore persists pallet records. Pallets are never deleted; every
// transition is an upsert of the full record.
type PalletStore interface {
	// GetPallet returns the pallet or nil if unknown.
	GetPallet(ctx context.Context, id PalletID) (*Pallet, error)

	// SavePallet inserts or updates a pallet by id.
	SavePallet(ctx context.Context, p Pallet) error

	// ListPallets returns all pallets, ordered by creation time.
	ListPallets(ctx context.Context) ([]Pallet, error)

	// ListPalletsInZone returns pallets whose current zone matches.
	ListPalletsInZone(ctx context.Context, zone Zone) ([]Pallet, error)

	// ListPalletsInTransit returns pallets carrying an active transit sub-record.
	ListPalletsInTransit(ctx context.Context) ([]Pallet, error)
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// MovementFilter narrows ledger queries. Zero values match everything.
type MovementFilter struct {
	PalletID PalletID
	FromZone Zone
	ToZone   Zone
	Status   MovementStatus
	From     time.Time // inclusive, on CreatedAt
	To       time.Time // inclusive, on CreatedAt
}

// LedgerStore persists the movement ledger.
type LedgerStore interface {
	// AppendMovement adds a new In-Transit entry. Append-only.
	AppendMovement(ctx context.Context, e MovementEntry) error

	// GetMovement returns the entry or nil if unknown.
	GetMovement(ctx context.Context, id MovementID) (*MovementEntry, error)

	// UpdateMovement writes the terminal status and metadata for an entry.
	// Called exactly once per transition.
	UpdateMovement(ctx context.Context, e MovementEntry) error

	// ListMovements returns entries matching the filter in chronological order.
	ListMovements(ctx context.Context, f MovementFilter) ([]MovementEntry, error)
}

// =============================================================================
// CONFIG STORES
// =============================================================================

// ZoneConfigStore persists per-zone rules.
type ZoneConfigStore interface {
	// GetZoneConfig returns the config or nil if the zone is unknown.
	GetZoneConfig(ctx context.Context, zone Zone) (*ZoneConfig, error)

	// ListZoneConfigs returns all configured zones.
	ListZoneConfigs(ctx context.Context) ([]ZoneConfig, error)

	// SaveZoneConfig inserts or updates a zone config.
	SaveZoneConfig(ctx context.Context, cfg ZoneConfig) error

	// NextPalletNumber atomically increments and returns the zone's
	// pallet-numbering counter.
	NextPalletNumber(ctx context.Context, zone Zone) (int, error)
}

// MappingStore persists the SKU-zone eligibility table. Read-mostly;
// callers go through the TTL cache in eligibility.go.
type MappingStore interface {
	ListMappings(ctx context.Context) ([]SKUZoneMapping, error)
	SaveMapping(ctx context.Context, m SKUZoneMapping) error
}

// RoleStore is the static actor-to-role lookup backing the cancellation
// authority. Read-only to the engine.
type RoleStore interface {
	// GetRole returns RoleNone when the actor is unknown.
	GetRole(ctx context.Context, actorID string) (Role, error)
	SaveRole(ctx context.Context, actorID string, role Role) error
}

// =============================================================================
// BIN CARD STORE
// =============================================================================

// BinCardFilter narrows bin card queries. Zero values match everything.
type BinCardFilter struct {
	Zone      Zone
	SKU       SKU
	Shift     Shift
	Status    BinCardStatus
	DateFrom  string // ShiftDateLayout, inclusive
	DateTo    string // ShiftDateLayout, inclusive
	ShiftDate string // exact match
}

// BinCardStore persists reconciliation records. Revocation flips status,
// never deletes.
type BinCardStore interface {
	SaveBinCard(ctx context.Context, rec BinCardRecord) error
	ListBinCards(ctx context.Context, f BinCardFilter) ([]BinCardRecord, error)

	// GetConfirmedBinCard returns the confirmed record for the key, or nil.
	GetConfirmedBinCard(ctx context.Context, zone Zone, sku SKU, shiftDate string, shift Shift) (*BinCardRecord, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Store is the full record-store contract the engine runs against.
type Store interface {
	PalletStore
	LedgerStore
	ZoneConfigStore
	MappingStore
	RoleStore
	BinCardStore
}
