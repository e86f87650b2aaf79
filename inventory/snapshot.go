/*
snapshot.go - Zone inventory totals

PURPOSE:
  Aggregates current pallet state into per-zone totals (pallet count and
  remaining quantity, broken down by SKU). The snapshot is computed on read
  and cached briefly; a non-blocking rebuild guard means a caller that loses
  the race is served the previous snapshot instead of queueing behind the
  full-table scan.

SEE ALSO:
  - bincard.go: Live-shift balances share the same grouping
*/
package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotTTL is how long zone totals are served from cache.
const SnapshotTTL = 30 * time.Second

// SKUTotal is one SKU's share of a zone.
type SKUTotal struct {
	SKU         SKU
	PalletCount int
	Quantity    decimal.Decimal
}

// ZoneTotals aggregates the pallets currently resident in one zone.
// In-transit pallets count at their origin until received.
type ZoneTotals struct {
	Zone          Zone
	PalletCount   int
	InTransitOut  int
	TotalQuantity decimal.Decimal
	BySKU         []SKUTotal
}

// SnapshotService serves cached zone totals.
type SnapshotService struct {
	Pallets PalletStore
	Clock   Clock

	rebuildMu sync.Mutex
	stateMu   sync.RWMutex
	cached    []ZoneTotals
	cachedAt  time.Time
}

// NewSnapshotService wires a snapshot service.
func NewSnapshotService(pallets PalletStore, clock Clock) *SnapshotService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SnapshotService{Pallets: pallets, Clock: clock}
}

// ZoneTotals returns the current totals, rebuilt at most once per TTL.
// A stale snapshot is served when another caller is already rebuilding.
func (s *SnapshotService) ZoneTotals(ctx context.Context) ([]ZoneTotals, error) {
	s.stateMu.RLock()
	cached, cachedAt := s.cached, s.cachedAt
	s.stateMu.RUnlock()

	now := s.Clock.Now()
	if cached != nil && now.Sub(cachedAt) < SnapshotTTL {
		return cached, nil
	}

	if !s.rebuildMu.TryLock() {
		if cached != nil {
			return cached, nil
		}
		// First build: nothing stale to serve, wait for the winner.
		s.rebuildMu.Lock()
	}
	defer s.rebuildMu.Unlock()

	// Re-check: the rebuild we waited on may have refreshed the snapshot.
	s.stateMu.RLock()
	cached, cachedAt = s.cached, s.cachedAt
	s.stateMu.RUnlock()
	if cached != nil && s.Clock.Now().Sub(cachedAt) < SnapshotTTL {
		return cached, nil
	}

	totals, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	s.cached = totals
	s.cachedAt = s.Clock.Now()
	s.stateMu.Unlock()
	return totals, nil
}

// Invalidate drops the cached snapshot so the next read rebuilds.
func (s *SnapshotService) Invalidate() {
	s.stateMu.Lock()
	s.cached = nil
	s.stateMu.Unlock()
}

func (s *SnapshotService) build(ctx context.Context) ([]ZoneTotals, error) {
	pallets, err := s.Pallets.ListPallets(ctx)
	if err != nil {
		return nil, err
	}

	type skuKey struct {
		zone Zone
		sku  SKU
	}
	zones := make(map[Zone]*ZoneTotals)
	skus := make(map[skuKey]*SKUTotal)

	for _, p := range pallets {
		if IsTerminalZone(p.CurrentZone) {
			continue
		}
		zt := zones[p.CurrentZone]
		if zt == nil {
			zt = &ZoneTotals{Zone: p.CurrentZone}
			zones[p.CurrentZone] = zt
		}
		zt.PalletCount++
		zt.TotalQuantity = zt.TotalQuantity.Add(p.Remaining())
		if p.InTransit != nil {
			zt.InTransitOut++
		}

		k := skuKey{zone: p.CurrentZone, sku: p.SKU}
		st := skus[k]
		if st == nil {
			st = &SKUTotal{SKU: p.SKU}
			skus[k] = st
		}
		st.PalletCount++
		st.Quantity = st.Quantity.Add(p.Remaining())
	}

	var out []ZoneTotals
	for zone, zt := range zones {
		for k, st := range skus {
			if k.zone == zone {
				zt.BySKU = append(zt.BySKU, *st)
			}
		}
		sort.Slice(zt.BySKU, func(i, j int) bool { return zt.BySKU[i].SKU < zt.BySKU[j].SKU })
		out = append(out, *zt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out, nil
}
