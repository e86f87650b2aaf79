/*
transit.go - The transit state machine

PURPOSE:
  Drives a pallet through the two-phase movement protocol:

  Idle --initiate--> InTransit --receive--> Idle (new zone)
                              \--cancel---> Idle (origin)
                              \--timeout--> Idle (origin, auto-reverted)

  Each movement terminates exactly once: Received, Cancelled, or
  Auto-Reverted. The pallet itself returns to Idle in all three cases.

SIDE EFFECT ORDER:
  Ledger entry first, then the pallet record. From the caller's perspective
  a successful return means both were written; a mid-write failure leaves a
  ledger entry without a matching transit sub-record, which the sweeper and
  receive path tolerate.

GATES AT INITIATION:
  1. Pallet exists, is idle, and the destination differs from the origin
  2. Zone/SKU eligibility (eligibility.go)
  3. FIFO discipline of the origin zone, unless an override reason is given

SEE ALSO:
  - split.go: Child pallets enter the same protocol
  - api/sweeper.go: Periodic auto-revert runner
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRevertTimeout is how long a transit may stay open before the
// sweeper returns the pallet to its origin.
const DefaultRevertTimeout = 25 * time.Minute

// SystemActor is recorded as the actor for automatic transitions.
const SystemActor = "system"

// =============================================================================
// SERVICE
// =============================================================================

// TransitService is the central control component of the engine.
type TransitService struct {
	Store       Store
	Eligibility *EligibilityChecker
	FIFO        *FIFOEnforcer
	Authority   *CancellationAuthority
	Clock       Clock

	// RevertTimeout overrides DefaultRevertTimeout when positive.
	RevertTimeout time.Duration
}

// NewTransitService wires a service against a store with default policies.
func NewTransitService(store Store, clock Clock) *TransitService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TransitService{
		Store:       store,
		Eligibility: NewEligibilityChecker(store, store, UnmappedPermissive, clock),
		FIFO:        &FIFOEnforcer{Pallets: store, Zones: store},
		Authority:   &CancellationAuthority{Roles: store},
		Clock:       clock,
	}
}

// MoveInput carries the parameters of an initiation. A move always carries
// the pallet's full remaining quantity; Quantity nil defaults to it, and any
// other value is rejected. Splitting is the partial-move mechanism.
type MoveInput struct {
	PalletID       PalletID
	ToZone         Zone
	MovedBy        string
	Reason         string
	OverrideReason string
	Quantity       *decimal.Decimal
	OrderReference string
}

// =============================================================================
// INITIATE
// =============================================================================

// InitiateMove starts a movement and returns the new movement id.
func (s *TransitService) InitiateMove(ctx context.Context, in MoveInput) (MovementID, error) {
	pallet, err := s.Store.GetPallet(ctx, in.PalletID)
	if err != nil {
		return "", err
	}
	if pallet == nil {
		return "", fmt.Errorf("%w: %s", ErrPalletNotFound, in.PalletID)
	}
	if pallet.InTransit != nil {
		return "", fmt.Errorf("%w: %s is already moving to %s", ErrAlreadyInTransit, pallet.ID, pallet.InTransit.ToZone)
	}
	if pallet.CurrentZone == in.ToZone {
		return "", fmt.Errorf("%w: %s is already in %s", ErrNoOpMove, pallet.ID, in.ToZone)
	}

	result, err := s.Eligibility.Check(ctx, pallet.SKU, in.ToZone, pallet.PalletType)
	if err != nil {
		return "", err
	}
	if !result.Allowed {
		return "", &IneligibleMoveError{SKU: pallet.SKU, ToZone: in.ToZone, Message: result.Message}
	}

	if in.OverrideReason == "" {
		if err := s.FIFO.CheckMove(ctx, pallet); err != nil {
			return "", err
		}
	}

	quantity := pallet.Remaining()
	if in.Quantity != nil && !in.Quantity.Equal(quantity) {
		// A partial quantity would put the ledger out of step with the
		// whole-pallet relocation ReceiveMove performs. Split instead.
		return "", fmt.Errorf("%w: a move carries the full remaining %s; split the pallet to move %s",
			ErrInvalidQuantity, quantity, in.Quantity)
	}

	now := s.Clock.Now()
	movementID := NewMovementID(now)

	entry := MovementEntry{
		ID:             movementID,
		PalletID:       pallet.ID,
		FromZone:       pallet.CurrentZone,
		ToZone:         in.ToZone,
		Quantity:       quantity,
		MovedBy:        in.MovedBy,
		Reason:         in.Reason,
		OverrideReason: in.OverrideReason,
		OrderReference: in.OrderReference,
		Status:         MovementInTransit,
		CreatedAt:      now,
	}
	if err := s.Store.AppendMovement(ctx, entry); err != nil {
		return "", err
	}

	pallet.InTransit = &TransitInfo{
		ToZone:      in.ToZone,
		MovementID:  movementID,
		InitiatedAt: now,
		InitiatedBy: in.MovedBy,
	}
	pallet.Notes = append(pallet.Notes, fmt.Sprintf("[%s] move to %s initiated by %s (%s)",
		now.Format(time.RFC3339), in.ToZone, in.MovedBy, movementID))
	if err := s.Store.SavePallet(ctx, *pallet); err != nil {
		return "", err
	}

	return movementID, nil
}

// =============================================================================
// RECEIVE
// =============================================================================

// ReceiveMove completes a transit at its destination. Eligibility is
// re-evaluated so the destination's current rules decide the post-receipt
// status; an ineligible result at this point no longer blocks the receipt,
// since the stock is physically there.
func (s *TransitService) ReceiveMove(ctx context.Context, palletID PalletID, receivedBy string) (*Pallet, error) {
	pallet, err := s.Store.GetPallet(ctx, palletID)
	if err != nil {
		return nil, err
	}
	if pallet == nil {
		return nil, fmt.Errorf("%w: %s", ErrPalletNotFound, palletID)
	}
	if pallet.InTransit == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInTransit, palletID)
	}

	transit := *pallet.InTransit
	now := s.Clock.Now()

	status := StatusAvailable
	if result, err := s.Eligibility.Check(ctx, pallet.SKU, transit.ToZone, pallet.PalletType); err == nil && result.TargetStatus != "" {
		status = result.TargetStatus
	}

	if entry, err := s.Store.GetMovement(ctx, transit.MovementID); err == nil && entry != nil && !entry.Status.IsTerminal() {
		entry.Status = MovementReceived
		entry.ReceivedAt = &now
		entry.ReceivedBy = receivedBy
		if err := s.Store.UpdateMovement(ctx, *entry); err != nil {
			return nil, err
		}
	}

	pallet.CurrentZone = transit.ToZone
	pallet.Status = status
	pallet.InTransit = nil
	pallet.LastMovedAt = &now
	pallet.LastMovedBy = receivedBy
	pallet.Notes = append(pallet.Notes, fmt.Sprintf("[%s] received in %s by %s",
		now.Format(time.RFC3339), transit.ToZone, receivedBy))

	if err := s.Store.SavePallet(ctx, *pallet); err != nil {
		return nil, err
	}
	return pallet, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// CancelMove aborts a transit, leaving the pallet at its origin. Requires a
// Supervisor or QA actor and an escalation reason.
func (s *TransitService) CancelMove(ctx context.Context, palletID PalletID, cancelledBy, escalationReason string) error {
	pallet, err := s.Store.GetPallet(ctx, palletID)
	if err != nil {
		return err
	}
	if pallet == nil {
		return fmt.Errorf("%w: %s", ErrPalletNotFound, palletID)
	}
	if pallet.InTransit == nil {
		return fmt.Errorf("%w: %s", ErrNotInTransit, palletID)
	}
	if escalationReason == "" {
		return ErrMissingEscalationReason
	}
	if err := s.Authority.Authorize(ctx, cancelledBy); err != nil {
		return err
	}

	now := s.Clock.Now()
	transit := *pallet.InTransit

	if entry, err := s.Store.GetMovement(ctx, transit.MovementID); err == nil && entry != nil && !entry.Status.IsTerminal() {
		entry.Status = MovementCancelled
		entry.CancelledAt = &now
		entry.CancelledBy = cancelledBy
		entry.EscalationReason = escalationReason
		if err := s.Store.UpdateMovement(ctx, *entry); err != nil {
			return err
		}
	}

	pallet.InTransit = nil
	pallet.Notes = append(pallet.Notes, fmt.Sprintf("[%s] transit to %s cancelled by %s: %s",
		now.Format(time.RFC3339), transit.ToZone, cancelledBy, escalationReason))
	return s.Store.SavePallet(ctx, *pallet)
}

// =============================================================================
// AUTO-REVERT
// =============================================================================

// AutoRevertStale returns every stale transit to its origin and reports the
// reverted pallet ids. Safe to re-run: pallets already reverted carry no
// transit sub-record and are skipped.
func (s *TransitService) AutoRevertStale(ctx context.Context) ([]PalletID, error) {
	timeout := s.RevertTimeout
	if timeout <= 0 {
		timeout = DefaultRevertTimeout
	}

	pallets, err := s.Store.ListPalletsInTransit(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	var reverted []PalletID
	for i := range pallets {
		pallet := pallets[i]
		if pallet.InTransit == nil {
			continue
		}
		if now.Sub(pallet.InTransit.InitiatedAt) <= timeout {
			continue
		}

		transit := *pallet.InTransit
		if entry, err := s.Store.GetMovement(ctx, transit.MovementID); err == nil && entry != nil && !entry.Status.IsTerminal() {
			entry.Status = MovementAutoReverted
			entry.AutoRevertedAt = &now
			if err := s.Store.UpdateMovement(ctx, *entry); err != nil {
				return reverted, err
			}
		}

		pallet.InTransit = nil
		pallet.Notes = append(pallet.Notes, fmt.Sprintf("[%s] transit to %s auto-reverted by %s after timeout",
			now.Format(time.RFC3339), transit.ToZone, SystemActor))
		if err := s.Store.SavePallet(ctx, pallet); err != nil {
			return reverted, err
		}
		reverted = append(reverted, pallet.ID)
	}
	return reverted, nil
}
