package inventory

import (
	"context"
	"sort"
)

// =============================================================================
// FIFO ENFORCER
// =============================================================================
// When a pallet leaves a zone whose config requires FIFO, it must be the
// oldest resident (by CreatedAt) of that zone. Any other resident is rejected
// with the required pallet named, unless the caller supplies an override
// reason - the override path is handled by the transit state machine, which
// simply skips this check.

// FIFOEnforcer gates moves out of FIFO-required zones.
type FIFOEnforcer struct {
	Pallets PalletStore
	Zones   ZoneConfigStore
}

// CheckMove validates that pallet may leave its current zone. Returns a
// *FifoViolationError naming the pallet that must move first.
func (f *FIFOEnforcer) CheckMove(ctx context.Context, pallet *Pallet) error {
	cfg, err := f.Zones.GetZoneConfig(ctx, pallet.CurrentZone)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.FIFORequired {
		return nil
	}

	residents, err := f.Pallets.ListPalletsInZone(ctx, pallet.CurrentZone)
	if err != nil {
		return err
	}

	oldest := oldestResident(residents)
	if oldest == nil || oldest.ID == pallet.ID {
		return nil
	}
	return &FifoViolationError{
		Zone:           pallet.CurrentZone,
		PalletID:       pallet.ID,
		RequiredPallet: oldest.ID,
	}
}

// oldestResident returns the oldest pallet by CreatedAt that still holds
// stock and is not already on its way out.
func oldestResident(residents []Pallet) *Pallet {
	candidates := make([]Pallet, 0, len(residents))
	for _, p := range residents {
		if p.InTransit != nil {
			continue
		}
		if p.Status == StatusConsumed {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return &candidates[0]
}
