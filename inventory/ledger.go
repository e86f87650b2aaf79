/*
ledger.go - Append-only movement ledger

PURPOSE:
  The ledger is the immutable record of every movement attempt and its
  terminal outcome. Historical zone balances are always reconstructed by
  replaying it - there is no stored balance that can drift out of sync.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: Entries are never deleted.
  2. ONE TERMINAL WRITE: Status and terminal metadata are written exactly
     once per transition (Received, Cancelled, or Auto-Reverted).
  3. AUDITABLE: Every entry carries actor, reason, and timestamps.

MOVEMENT IDS:
  Time-prefixed with a random suffix so ids are globally unique and sort
  roughly chronologically.

SEE ALSO:
  - store.go: LedgerStore persistence contract
  - bincard.go: Replays this ledger for historical shifts
*/
package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MOVEMENT ENTRY
// =============================================================================

type MovementStatus string

const (
	MovementInTransit    MovementStatus = "In Transit"
	MovementReceived     MovementStatus = "Received"
	MovementCancelled    MovementStatus = "Cancelled"
	MovementAutoReverted MovementStatus = "Auto-Reverted"
)

// IsTerminal reports whether the status ends the movement's lifecycle.
func (s MovementStatus) IsTerminal() bool {
	return s == MovementReceived || s == MovementCancelled || s == MovementAutoReverted
}

// CountsForBalance reports whether the entry contributes stock to its
// destination when replaying the ledger. Cancelled and auto-reverted moves
// never left the origin.
func (s MovementStatus) CountsForBalance() bool {
	return s == MovementInTransit || s == MovementReceived
}

// MovementEntry is one ledger row. FromZone is empty for entries that
// introduce stock (production intake seeding).
type MovementEntry struct {
	ID       MovementID
	PalletID PalletID
	FromZone Zone
	ToZone   Zone
	Quantity decimal.Decimal

	MovedBy        string
	Reason         string
	OverrideReason string
	OrderReference string

	Status    MovementStatus
	CreatedAt time.Time

	// Terminal metadata, written once with the matching status.
	ReceivedAt       *time.Time
	ReceivedBy       string
	CancelledAt      *time.Time
	CancelledBy      string
	EscalationReason string
	AutoRevertedAt   *time.Time
}

// NewMovementID mints a globally unique, time-prefixed movement id.
func NewMovementID(at time.Time) MovementID {
	return MovementID(fmt.Sprintf("mv-%d-%s", at.UnixNano(), uuid.NewString()[:8]))
}
