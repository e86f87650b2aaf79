/*
split.go - Pallet splitting with quantity conservation

PURPOSE:
  Carves a child pallet off a parent. The child is minted in the target
  zone's numbering sequence and enters the normal transit protocol (it must
  be received at the target before it counts as resident there). The
  parent's remaining quantity drops by exactly the child quantity.

CONSERVATION INVARIANT:
  parent.remaining_after + child.quantity == parent.remaining_before

SEE ALSO:
  - transit.go: The child's in-transit entry mirrors InitiateMove
  - types.go: Parent/child lineage fields
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SplitPallet creates a child pallet of childQuantity bound for targetZone.
// Returns the child and its movement id.
func (s *TransitService) SplitPallet(
	ctx context.Context,
	parentID PalletID,
	childQuantity decimal.Decimal,
	targetZone Zone,
	movedBy string,
	reason string,
) (*Pallet, MovementID, error) {
	if !childQuantity.IsPositive() {
		return nil, "", fmt.Errorf("%w: split quantity must be positive, got %v", ErrInvalidQuantity, childQuantity)
	}

	parent, err := s.Store.GetPallet(ctx, parentID)
	if err != nil {
		return nil, "", err
	}
	if parent == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrPalletNotFound, parentID)
	}

	available := parent.Remaining()
	if childQuantity.GreaterThan(available) {
		return nil, "", &InsufficientQuantityError{PalletID: parentID, Requested: childQuantity, Available: available}
	}

	originCfg, err := s.Store.GetZoneConfig(ctx, parent.CurrentZone)
	if err != nil {
		return nil, "", err
	}
	if originCfg != nil && !originCfg.AllowsSplitting {
		return nil, "", &IneligibleMoveError{
			SKU:     parent.SKU,
			ToZone:  targetZone,
			Message: fmt.Sprintf("zone %s does not allow splitting", parent.CurrentZone),
		}
	}

	targetCfg, err := s.Store.GetZoneConfig(ctx, targetZone)
	if err != nil {
		return nil, "", err
	}
	if targetCfg == nil && !IsTerminalZone(targetZone) {
		return nil, "", fmt.Errorf("%w: %s", ErrZoneNotFound, targetZone)
	}

	// The terminal zone carries no numbering sequence; children consumed
	// straight out of a split keep the parent zone's sequence instead.
	mintZone, mintCfg := targetZone, targetCfg
	if mintCfg == nil {
		mintZone, mintCfg = parent.CurrentZone, originCfg
	}
	childID, err := s.mintPalletID(ctx, mintZone, mintCfg)
	if err != nil {
		return nil, "", err
	}

	now := s.Clock.Now()
	movementID := NewMovementID(now)

	// Ledger first: the child's in-transit entry mirrors InitiateMove
	// semantics, so the child must also be received at the target.
	entry := MovementEntry{
		ID:        movementID,
		PalletID:  childID,
		FromZone:  parent.CurrentZone,
		ToZone:    targetZone,
		Quantity:  childQuantity,
		MovedBy:   movedBy,
		Reason:    reason,
		Status:    MovementInTransit,
		CreatedAt: now,
	}
	if err := s.Store.AppendMovement(ctx, entry); err != nil {
		return nil, "", err
	}

	child := Pallet{
		ID:                childID,
		SKU:               parent.SKU,
		PalletType:        parent.PalletType,
		CurrentZone:       parent.CurrentZone,
		Status:            parent.Status,
		Quantity:          childQuantity,
		RemainingQuantity: childQuantity,
		ParentID:          parent.ID,
		CreatedAt:         now,
		InTransit: &TransitInfo{
			ToZone:      targetZone,
			MovementID:  movementID,
			InitiatedAt: now,
			InitiatedBy: movedBy,
		},
		Notes: []string{fmt.Sprintf("[%s] split %v from %s by %s, bound for %s",
			now.Format(time.RFC3339), childQuantity, parent.ID, movedBy, targetZone)},
	}
	if err := s.Store.SavePallet(ctx, child); err != nil {
		return nil, "", err
	}

	parent.RemainingQuantity = available.Sub(childQuantity)
	parent.ChildIDs = append(parent.ChildIDs, childID)
	parent.Notes = append(parent.Notes, fmt.Sprintf("[%s] split %v into child %s by %s",
		now.Format(time.RFC3339), childQuantity, childID, movedBy))
	if err := s.Store.SavePallet(ctx, *parent); err != nil {
		return nil, "", err
	}

	return &child, movementID, nil
}

// mintPalletID builds a zone-prefixed, sequence-numbered pallet id.
func (s *TransitService) mintPalletID(ctx context.Context, zone Zone, cfg *ZoneConfig) (PalletID, error) {
	prefix := "PAL"
	if cfg != nil && cfg.Prefix != "" {
		prefix = cfg.Prefix
	}
	n, err := s.Store.NextPalletNumber(ctx, zone)
	if err != nil {
		return "", err
	}
	return PalletID(fmt.Sprintf("%s-%05d", prefix, n)), nil
}
