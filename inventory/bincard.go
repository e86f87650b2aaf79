/*
bincard.go - Shift-level stock reconciliation ("bin cards")

PURPOSE:
  Computes the system-side zone/SKU balances for a shift and stores
  physical-count confirmations with their variance. Two computation modes:

  LIVE (shift end still in the future):
    Closing balances come straight from current pallet state, grouped by
    (zone, SKU) and excluding terminal zones. MovedIn/MovedOut are summed
    from ledger entries inside the shift window. Opening is derived:
    closing - movedIn + movedOut, floored at zero.

  REPLAY (shift end has elapsed):
    Current pallet state no longer reflects the zone's occupancy as of the
    shift, so balances are reconstructed by replaying the entire ledger in
    chronological order up to the shift end. Cancelled and auto-reverted
    entries are excluded - that stock never left its origin.

CONFIRMATION RULES:
  - Variance is always computed server-side: physical - systemClosing.
  - One confirmed record per (zone, sku, shiftDate, shift) key; a zone-total
    roll-up record is written alongside per-SKU confirmations, or alone when
    the zone is counted as a single total.
  - Revocation flips status to Revoked and permits re-confirmation; history
    is never deleted.

SEE ALSO:
  - shift.go: Shift window arithmetic
  - ledger.go: Entry statuses replayed here
*/
package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD TYPES
// =============================================================================

type BinCardStatus string

const (
	BinCardConfirmed BinCardStatus = "Confirmed"
	BinCardRevoked   BinCardStatus = "Revoked"
)

// BinCardRecord is one persisted reconciliation row, keyed by
// (zone, sku-or-ZONE_TOTAL, shiftDate, shift).
type BinCardRecord struct {
	ID        string
	Zone      Zone
	SKU       SKU // ZoneTotalSKU for the roll-up row
	ShiftDate string
	Shift     Shift

	OpeningBalance decimal.Decimal
	MovedIn        decimal.Decimal
	MovedOut       decimal.Decimal
	SystemClosing  decimal.Decimal
	PhysicalCount  decimal.Decimal
	Variance       decimal.Decimal // physical - systemClosing, server-computed

	Status      BinCardStatus
	ConfirmedBy string
	ConfirmedAt time.Time
	RevokedBy   string
	RevokedAt   *time.Time
}

// ShiftBalance is one computed (zone, SKU) bucket for a shift.
type ShiftBalance struct {
	Zone     Zone
	SKU      SKU
	Opening  decimal.Decimal
	MovedIn  decimal.Decimal
	MovedOut decimal.Decimal
	Closing  decimal.Decimal
}

// ShiftReport carries the computed balances and which mode produced them.
type ShiftReport struct {
	ShiftDate string
	Shift     Shift
	Live      bool
	Balances  []ShiftBalance
}

// PhysicalCount is an operator-submitted count for one SKU.
type PhysicalCount struct {
	SKU      SKU
	Quantity decimal.Decimal
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler computes and persists bin cards.
type Reconciler struct {
	Pallets  PalletStore
	Ledger   LedgerStore
	BinCards BinCardStore
	Clock    Clock
}

// NewReconciler wires a reconciler against a composite store.
func NewReconciler(store Store, clock Clock) *Reconciler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Reconciler{Pallets: store, Ledger: store, BinCards: store, Clock: clock}
}

// ShiftBalances computes the per-(zone, SKU) balances for a shift, choosing
// live or replay mode by comparing the shift end against the clock.
func (r *Reconciler) ShiftBalances(ctx context.Context, shiftDate time.Time, shift Shift) (*ShiftReport, error) {
	start, end := ShiftWindow(shiftDate, shift)
	live := r.Clock.Now().Before(end)

	var balances []ShiftBalance
	var err error
	if live {
		balances, err = r.liveBalances(ctx, start, end)
	} else {
		balances, err = r.replayBalances(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Zone != balances[j].Zone {
			return balances[i].Zone < balances[j].Zone
		}
		return balances[i].SKU < balances[j].SKU
	})

	return &ShiftReport{
		ShiftDate: start.Format(ShiftDateLayout),
		Shift:     shift,
		Live:      live,
		Balances:  balances,
	}, nil
}

type bucket struct {
	zone Zone
	sku  SKU
}

// liveBalances derives balances from current pallet state.
func (r *Reconciler) liveBalances(ctx context.Context, start, end time.Time) ([]ShiftBalance, error) {
	pallets, err := r.Pallets.ListPallets(ctx)
	if err != nil {
		return nil, err
	}

	closing := make(map[bucket]decimal.Decimal)
	skuByPallet := make(map[PalletID]SKU, len(pallets))
	for _, p := range pallets {
		skuByPallet[p.ID] = p.SKU
		if IsTerminalZone(p.CurrentZone) {
			continue
		}
		b := bucket{zone: p.CurrentZone, sku: p.SKU}
		closing[b] = closing[b].Add(p.Remaining())
	}

	movedIn, movedOut, err := r.windowFlows(ctx, start, end, skuByPallet)
	if err != nil {
		return nil, err
	}

	var out []ShiftBalance
	for _, b := range mergeBuckets(closing, movedIn, movedOut) {
		in, outQ := movedIn[b], movedOut[b]
		closeBal := closing[b]
		opening := closeBal.Sub(in).Add(outQ)
		if opening.IsNegative() {
			opening = decimal.Zero
		}
		out = append(out, ShiftBalance{
			Zone: b.zone, SKU: b.sku,
			Opening: opening, MovedIn: in, MovedOut: outQ, Closing: closeBal,
		})
	}
	return out, nil
}

// replayBalances reconstructs balances by replaying the full ledger up to
// the shift end.
func (r *Reconciler) replayBalances(ctx context.Context, start, end time.Time) ([]ShiftBalance, error) {
	entries, err := r.Ledger.ListMovements(ctx, MovementFilter{To: end})
	if err != nil {
		return nil, err
	}
	pallets, err := r.Pallets.ListPallets(ctx)
	if err != nil {
		return nil, err
	}
	skuByPallet := make(map[PalletID]SKU, len(pallets))
	for _, p := range pallets {
		skuByPallet[p.ID] = p.SKU
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })

	opening := make(map[bucket]decimal.Decimal)
	movedIn := make(map[bucket]decimal.Decimal)
	movedOut := make(map[bucket]decimal.Decimal)

	for _, e := range entries {
		if !e.Status.CountsForBalance() {
			continue
		}
		if !e.CreatedAt.Before(end) {
			continue
		}
		sku, ok := skuByPallet[e.PalletID]
		if !ok {
			continue
		}
		inWindow := InWindow(e.CreatedAt, start, end)

		if e.FromZone != "" && !IsTerminalZone(e.FromZone) {
			from := bucket{zone: e.FromZone, sku: sku}
			if inWindow {
				movedOut[from] = movedOut[from].Add(e.Quantity)
			} else {
				opening[from] = opening[from].Sub(e.Quantity)
			}
		}
		if !IsTerminalZone(e.ToZone) {
			to := bucket{zone: e.ToZone, sku: sku}
			if inWindow {
				movedIn[to] = movedIn[to].Add(e.Quantity)
			} else {
				opening[to] = opening[to].Add(e.Quantity)
			}
		}
	}

	var out []ShiftBalance
	for _, b := range mergeBuckets(opening, movedIn, movedOut) {
		open, in, outQ := opening[b], movedIn[b], movedOut[b]
		out = append(out, ShiftBalance{
			Zone: b.zone, SKU: b.sku,
			Opening: open, MovedIn: in, MovedOut: outQ,
			Closing: open.Add(in).Sub(outQ),
		})
	}
	return out, nil
}

// windowFlows sums in/out quantities per (zone, SKU) for entries inside the
// window, excluding cancelled and auto-reverted moves.
func (r *Reconciler) windowFlows(ctx context.Context, start, end time.Time, skuByPallet map[PalletID]SKU) (map[bucket]decimal.Decimal, map[bucket]decimal.Decimal, error) {
	entries, err := r.Ledger.ListMovements(ctx, MovementFilter{From: start, To: end})
	if err != nil {
		return nil, nil, err
	}

	movedIn := make(map[bucket]decimal.Decimal)
	movedOut := make(map[bucket]decimal.Decimal)
	for _, e := range entries {
		if !e.Status.CountsForBalance() || !InWindow(e.CreatedAt, start, end) {
			continue
		}
		sku, ok := skuByPallet[e.PalletID]
		if !ok {
			continue
		}
		if e.FromZone != "" && !IsTerminalZone(e.FromZone) {
			from := bucket{zone: e.FromZone, sku: sku}
			movedOut[from] = movedOut[from].Add(e.Quantity)
		}
		if !IsTerminalZone(e.ToZone) {
			to := bucket{zone: e.ToZone, sku: sku}
			movedIn[to] = movedIn[to].Add(e.Quantity)
		}
	}
	return movedIn, movedOut, nil
}

func mergeBuckets(maps ...map[bucket]decimal.Decimal) []bucket {
	seen := make(map[bucket]bool)
	var out []bucket
	for _, m := range maps {
		for b := range m {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// ConfirmBinCard persists one (zone, SKU) confirmation. Fails with
// ErrAlreadyConfirmed if an unrevoked record exists for the key.
func (r *Reconciler) ConfirmBinCard(ctx context.Context, zone Zone, sku SKU, shiftDate string, shift Shift, confirmedBy string, physical decimal.Decimal) (*BinCardRecord, error) {
	report, err := r.reportFor(ctx, shiftDate, shift)
	if err != nil {
		return nil, err
	}
	balance := findBalance(report.Balances, zone, sku)
	if sku == ZoneTotalSKU {
		balance = zoneTotal(report.Balances, zone)
	}

	rec, err := r.buildConfirmed(ctx, zone, sku, shiftDate, shift, confirmedBy, physical, balance)
	if err != nil {
		return nil, err
	}
	if err := r.BinCards.SaveBinCard(ctx, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ConfirmZoneBinCard persists the zone-total roll-up from a single physical
// count covering the whole zone. No per-SKU rows are written; submit counts
// through ConfirmZoneBinCardPerSKU when they exist per SKU.
func (r *Reconciler) ConfirmZoneBinCard(ctx context.Context, zone Zone, shift Shift, shiftDate string, confirmedBy string, physical decimal.Decimal) (*BinCardRecord, error) {
	report, err := r.reportFor(ctx, shiftDate, shift)
	if err != nil {
		return nil, err
	}

	rec, err := r.buildConfirmed(ctx, zone, ZoneTotalSKU, shiftDate, shift, confirmedBy, physical, zoneTotal(report.Balances, zone))
	if err != nil {
		return nil, err
	}
	if err := r.BinCards.SaveBinCard(ctx, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ConfirmZoneBinCardPerSKU persists one confirmation per submitted SKU plus
// the zone-total roll-up. Fails before writing anything if any key in the
// batch is already confirmed.
func (r *Reconciler) ConfirmZoneBinCardPerSKU(ctx context.Context, zone Zone, shift Shift, shiftDate string, confirmedBy string, counts []PhysicalCount) ([]BinCardRecord, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: physical counts", ErrMissingField)
	}
	report, err := r.reportFor(ctx, shiftDate, shift)
	if err != nil {
		return nil, err
	}

	var records []*BinCardRecord
	physicalTotal := decimal.Zero
	for _, count := range counts {
		balance := findBalance(report.Balances, zone, count.SKU)
		rec, err := r.buildConfirmed(ctx, zone, count.SKU, shiftDate, shift, confirmedBy, count.Quantity, balance)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		physicalTotal = physicalTotal.Add(count.Quantity)
	}

	// Zone-total roll-up across every bucket in the zone, counted or not.
	rollup, err := r.buildConfirmed(ctx, zone, ZoneTotalSKU, shiftDate, shift, confirmedBy, physicalTotal, zoneTotal(report.Balances, zone))
	if err != nil {
		return nil, err
	}
	records = append(records, rollup)

	out := make([]BinCardRecord, 0, len(records))
	for _, rec := range records {
		if err := r.BinCards.SaveBinCard(ctx, *rec); err != nil {
			return out, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// RevokeZoneBinCard flips every confirmed record for the key to Revoked and
// returns how many were flipped. History stays in place.
func (r *Reconciler) RevokeZoneBinCard(ctx context.Context, zone Zone, shift Shift, shiftDate string, revokedBy string) (int, error) {
	records, err := r.BinCards.ListBinCards(ctx, BinCardFilter{
		Zone: zone, Shift: shift, ShiftDate: shiftDate, Status: BinCardConfirmed,
	})
	if err != nil {
		return 0, err
	}

	now := r.Clock.Now()
	for i := range records {
		records[i].Status = BinCardRevoked
		records[i].RevokedBy = revokedBy
		records[i].RevokedAt = &now
		if err := r.BinCards.SaveBinCard(ctx, records[i]); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// VarianceReport returns confirmed records matching the filter.
func (r *Reconciler) VarianceReport(ctx context.Context, f BinCardFilter) ([]BinCardRecord, error) {
	f.Status = BinCardConfirmed
	return r.BinCards.ListBinCards(ctx, f)
}

// =============================================================================
// HELPERS
// =============================================================================

func (r *Reconciler) reportFor(ctx context.Context, shiftDate string, shift Shift) (*ShiftReport, error) {
	if !shift.Valid() {
		return nil, fmt.Errorf("%w: shift must be %s or %s", ErrMissingField, ShiftDay, ShiftNight)
	}
	date, err := time.Parse(ShiftDateLayout, shiftDate)
	if err != nil {
		return nil, fmt.Errorf("%w: shift date must be %s", ErrMissingField, ShiftDateLayout)
	}
	return r.ShiftBalances(ctx, date, shift)
}

func (r *Reconciler) buildConfirmed(ctx context.Context, zone Zone, sku SKU, shiftDate string, shift Shift, confirmedBy string, physical decimal.Decimal, balance ShiftBalance) (*BinCardRecord, error) {
	existing, err := r.BinCards.GetConfirmedBinCard(ctx, zone, sku, shiftDate, shift)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s/%s %s %s", ErrAlreadyConfirmed, zone, sku, shiftDate, shift)
	}

	now := r.Clock.Now()
	return &BinCardRecord{
		ID:             fmt.Sprintf("bc-%d-%s-%s", now.UnixNano(), zone, sku),
		Zone:           zone,
		SKU:            sku,
		ShiftDate:      shiftDate,
		Shift:          shift,
		OpeningBalance: balance.Opening,
		MovedIn:        balance.MovedIn,
		MovedOut:       balance.MovedOut,
		SystemClosing:  balance.Closing,
		PhysicalCount:  physical,
		Variance:       physical.Sub(balance.Closing),
		Status:         BinCardConfirmed,
		ConfirmedBy:    confirmedBy,
		ConfirmedAt:    now,
	}, nil
}

// zoneTotal sums every bucket of a zone into one ZONE_TOTAL balance.
func zoneTotal(balances []ShiftBalance, zone Zone) ShiftBalance {
	total := ShiftBalance{Zone: zone, SKU: ZoneTotalSKU}
	for _, b := range balances {
		if b.Zone != zone {
			continue
		}
		total.Opening = total.Opening.Add(b.Opening)
		total.MovedIn = total.MovedIn.Add(b.MovedIn)
		total.MovedOut = total.MovedOut.Add(b.MovedOut)
		total.Closing = total.Closing.Add(b.Closing)
	}
	return total
}

func findBalance(balances []ShiftBalance, zone Zone, sku SKU) ShiftBalance {
	for _, b := range balances {
		if b.Zone == zone && b.SKU == sku {
			return b
		}
	}
	return ShiftBalance{Zone: zone, SKU: sku}
}
