/*
errors.go - Centralized error taxonomy for the inventory engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Action handlers surface these as structured {success: false, error: ...}
  envelopes rather than propagating raw failures.

ERROR CATEGORIES:
  1. Lookup errors   - Unknown pallet/zone/SKU
  2. Transit errors  - State machine violations (already/not in transit)
  3. Rule violations - Eligibility, FIFO, authorization, split conservation
  4. Storage errors  - Record store failures

USAGE:
  if errors.Is(err, inventory.ErrFifoViolation) {
      // reject with the required pallet named in the message
  }

SEE ALSO:
  - transit.go: Produces most of these errors
  - api/handlers.go: Maps them onto the response envelope
*/
package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPalletNotFound is returned when a referenced pallet doesn't exist.
	ErrPalletNotFound = errors.New("pallet not found")

	// ErrZoneNotFound is returned when a referenced zone has no configuration.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrAlreadyInTransit is returned when initiating a move on a pallet that
	// already carries an active transit sub-record.
	ErrAlreadyInTransit = errors.New("pallet already in transit")

	// ErrNotInTransit is returned by receive/cancel/revert on an idle pallet.
	ErrNotInTransit = errors.New("pallet not in transit")

	// ErrNoOpMove is returned when the destination equals the current zone.
	ErrNoOpMove = errors.New("destination equals current zone")

	// ErrIneligibleMove is returned when SKU/zone rules reject a destination.
	ErrIneligibleMove = errors.New("move not eligible")

	// ErrFifoViolation is returned when a FIFO zone would be drained out of order.
	ErrFifoViolation = errors.New("fifo violation")

	// ErrUnauthorized is returned when the actor lacks the required role.
	ErrUnauthorized = errors.New("actor not authorized")

	// ErrInvalidQuantity is returned for zero or negative split quantities
	// and for move quantities that differ from the pallet's remaining.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientQuantity is returned when a split exceeds the parent's
	// remaining quantity.
	ErrInsufficientQuantity = errors.New("insufficient remaining quantity")

	// ErrMissingEscalationReason is returned when cancelling without a reason.
	ErrMissingEscalationReason = errors.New("escalation reason is required")

	// ErrMissingField is returned when a required request field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrAlreadyConfirmed is returned when confirming a bin card key that
	// already has a confirmed record. Revoke first to re-confirm.
	ErrAlreadyConfirmed = errors.New("bin card already confirmed")

	// ErrStorageUnavailable is returned when the record store cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IneligibleMoveError carries the human-readable rejection reason.
type IneligibleMoveError struct {
	SKU     SKU
	ToZone  Zone
	Message string
}

func (e *IneligibleMoveError) Error() string {
	return fmt.Sprintf("move of %s to %s rejected: %s", e.SKU, e.ToZone, e.Message)
}

func (e *IneligibleMoveError) Unwrap() error { return ErrIneligibleMove }

// FifoViolationError names the pallet that must move first.
type FifoViolationError struct {
	Zone           Zone
	PalletID       PalletID
	RequiredPallet PalletID
}

func (e *FifoViolationError) Error() string {
	return fmt.Sprintf("fifo violation in %s: pallet %s must move before %s (or supply an override reason)",
		e.Zone, e.RequiredPallet, e.PalletID)
}

func (e *FifoViolationError) Unwrap() error { return ErrFifoViolation }

// InsufficientQuantityError details a split conservation failure.
type InsufficientQuantityError struct {
	PalletID  PalletID
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cannot split %v from pallet %s: only %v remaining",
		e.Requested, e.PalletID, e.Available)
}

func (e *InsufficientQuantityError) Unwrap() error { return ErrInsufficientQuantity }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPalletNotFound) || errors.Is(err, ErrZoneNotFound)
}

// IsClientError returns true if the error is due to invalid client input or
// a business rule violation, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAlreadyInTransit) ||
		errors.Is(err, ErrNotInTransit) ||
		errors.Is(err, ErrNoOpMove) ||
		errors.Is(err, ErrIneligibleMove) ||
		errors.Is(err, ErrFifoViolation) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientQuantity) ||
		errors.Is(err, ErrMissingEscalationReason) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrAlreadyConfirmed)
}
