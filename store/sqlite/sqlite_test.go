package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zoneflow/inventory"
	"github.com/warp/zoneflow/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testPallet(id string) inventory.Pallet {
	qty := decimal.NewFromInt(60)
	return inventory.Pallet{
		ID:                inventory.PalletID(id),
		SKU:               "FG-DET-500G",
		PalletType:        inventory.PalletTypeBanded,
		CurrentZone:       "FG Store",
		Status:            inventory.StatusAvailable,
		Quantity:          qty,
		RemainingQuantity: qty,
		CreatedAt:         time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// PALLET PERSISTENCE
// =============================================================================

func TestPallet_RoundTrip(t *testing.T) {
	// GIVEN: A pallet with lineage, notes, and a transit sub-record
	// WHEN: Saved and reloaded
	// THEN: Every field survives

	store := newTestStore(t)
	ctx := context.Background()

	moved := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testPallet("FG-DET-00001")
	p.ParentID = "PRD-00001"
	p.ChildIDs = []inventory.PalletID{"FG-DET-00002"}
	p.Notes = []string{"split from PRD-00001"}
	p.LastMovedAt = &moved
	p.LastMovedBy = "op-1"
	p.InTransit = &inventory.TransitInfo{
		ToZone:      "Dispatch",
		MovementID:  "mv-1",
		InitiatedAt: moved,
		InitiatedBy: "op-1",
	}
	require.NoError(t, store.SavePallet(ctx, p))

	got, err := store.GetPallet(ctx, "FG-DET-00001")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, p.SKU, got.SKU)
	assert.Equal(t, p.CurrentZone, got.CurrentZone)
	assert.True(t, got.Quantity.Equal(p.Quantity))
	assert.True(t, got.RemainingQuantity.Equal(p.RemainingQuantity))
	assert.Equal(t, p.ParentID, got.ParentID)
	assert.Equal(t, p.ChildIDs, got.ChildIDs)
	assert.Equal(t, p.Notes, got.Notes)
	assert.Equal(t, "op-1", got.LastMovedBy)
	require.NotNil(t, got.LastMovedAt)
	assert.True(t, got.LastMovedAt.Equal(moved))
	require.NotNil(t, got.InTransit)
	assert.Equal(t, inventory.Zone("Dispatch"), got.InTransit.ToZone)
	assert.Equal(t, inventory.MovementID("mv-1"), got.InTransit.MovementID)
	assert.True(t, got.InTransit.InitiatedAt.Equal(moved))
}

func TestPallet_UnknownIDReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetPallet(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPallet_ZoneListingIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePallet(ctx, testPallet("FG-DET-00001")))

	got, err := store.ListPalletsInZone(ctx, "fg store")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPallet_InTransitListing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idle := testPallet("FG-DET-00001")
	require.NoError(t, store.SavePallet(ctx, idle))

	moving := testPallet("FG-DET-00002")
	moving.InTransit = &inventory.TransitInfo{
		ToZone:      "Dispatch",
		MovementID:  "mv-1",
		InitiatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		InitiatedBy: "op-1",
	}
	require.NoError(t, store.SavePallet(ctx, moving))

	got, err := store.ListPalletsInTransit(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inventory.PalletID("FG-DET-00002"), got[0].ID)

	// Clearing the sub-record removes the pallet from the listing
	moving.InTransit = nil
	require.NoError(t, store.SavePallet(ctx, moving))
	got, err = store.ListPalletsInTransit(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// MOVEMENT LEDGER
// =============================================================================

func testMovement(id string, createdAt time.Time) inventory.MovementEntry {
	return inventory.MovementEntry{
		ID:        inventory.MovementID(id),
		PalletID:  "FG-DET-00001",
		FromZone:  "FG Store",
		ToZone:    "Dispatch",
		Quantity:  decimal.NewFromInt(60),
		MovedBy:   "op-1",
		Reason:    "shipment",
		Status:    inventory.MovementInTransit,
		CreatedAt: createdAt,
	}
}

func TestMovement_AppendAndTerminalUpdate(t *testing.T) {
	// GIVEN: An in-transit ledger entry
	// WHEN: Marked received
	// THEN: The terminal status and metadata persist

	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendMovement(ctx, testMovement("mv-1", created)))

	got, err := store.GetMovement(ctx, "mv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inventory.MovementInTransit, got.Status)

	received := created.Add(10 * time.Minute)
	got.Status = inventory.MovementReceived
	got.ReceivedAt = &received
	got.ReceivedBy = "op-2"
	require.NoError(t, store.UpdateMovement(ctx, *got))

	got, err = store.GetMovement(ctx, "mv-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementReceived, got.Status)
	assert.Equal(t, "op-2", got.ReceivedBy)
	require.NotNil(t, got.ReceivedAt)
	assert.True(t, got.ReceivedAt.Equal(received))
}

func TestMovement_UpdateUnknownEntryFails(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateMovement(context.Background(), testMovement("ghost", time.Now()))
	assert.Error(t, err)
}

func TestMovement_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	first := testMovement("mv-1", base)
	require.NoError(t, store.AppendMovement(ctx, first))

	second := testMovement("mv-2", base.Add(2*time.Hour))
	second.PalletID = "FG-DET-00002"
	second.FromZone = "Packing"
	second.ToZone = "FG Store"
	require.NoError(t, store.AppendMovement(ctx, second))

	byPallet, err := store.ListMovements(ctx, inventory.MovementFilter{PalletID: "FG-DET-00002"})
	require.NoError(t, err)
	require.Len(t, byPallet, 1)
	assert.Equal(t, inventory.MovementID("mv-2"), byPallet[0].ID)

	byZone, err := store.ListMovements(ctx, inventory.MovementFilter{ToZone: "Dispatch"})
	require.NoError(t, err)
	require.Len(t, byZone, 1)
	assert.Equal(t, inventory.MovementID("mv-1"), byZone[0].ID)

	byWindow, err := store.ListMovements(ctx, inventory.MovementFilter{From: base.Add(time.Hour), To: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, byWindow, 1)
	assert.Equal(t, inventory.MovementID("mv-2"), byWindow[0].ID)
}

// =============================================================================
// ZONE CONFIG AND NUMBERING
// =============================================================================

func TestZoneConfig_RoundTripAndSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := inventory.ZoneConfig{
		Name:            "FG Store",
		Prefix:          "FG-DET",
		FIFORequired:    true,
		AllowsSplitting: true,
		ShelfLifeDays:   180,
		DefaultStatus:   inventory.StatusAvailable,
		NextPalletNum:   1,
	}
	require.NoError(t, store.SaveZoneConfig(ctx, cfg))

	got, err := store.GetZoneConfig(ctx, "fg store")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FIFORequired)
	assert.Equal(t, 180, got.ShelfLifeDays)

	n1, err := store.NextPalletNumber(ctx, "FG Store")
	require.NoError(t, err)
	n2, err := store.NextPalletNumber(ctx, "FG Store")
	require.NoError(t, err)
	assert.Equal(t, 1, n1)
	assert.Equal(t, 2, n2)

	// Re-saving the config must not rewind the sequence
	require.NoError(t, store.SaveZoneConfig(ctx, cfg))
	n3, err := store.NextPalletNumber(ctx, "FG Store")
	require.NoError(t, err)
	assert.Equal(t, 3, n3)
}

func TestNextPalletNumber_UnknownZone(t *testing.T) {
	store := newTestStore(t)

	_, err := store.NextPalletNumber(context.Background(), "Mezzanine")
	assert.ErrorIs(t, err, inventory.ErrZoneNotFound)
}

// =============================================================================
// MAPPINGS AND ROLES
// =============================================================================

func TestMapping_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := inventory.SKUZoneMapping{
		SKU:             "FG-DET-*",
		AllowedZones:    []inventory.Zone{"FG Store", "Dispatch"},
		DefaultZone:     "FG Store",
		RequiresBanding: true,
	}
	require.NoError(t, store.SaveMapping(ctx, m))

	got, err := store.ListMappings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m.AllowedZones, got[0].AllowedZones)
	assert.True(t, got[0].RequiresBanding)

	// Upsert by SKU
	m.RequiresBanding = false
	require.NoError(t, store.SaveMapping(ctx, m))
	got, err = store.ListMappings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].RequiresBanding)
}

func TestRoles_UnknownActorHasNoRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	role, err := store.GetRole(ctx, "stranger")
	require.NoError(t, err)
	assert.Equal(t, inventory.RoleNone, role)

	require.NoError(t, store.SaveRole(ctx, "sup-1", inventory.RoleSupervisor))
	role, err = store.GetRole(ctx, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.RoleSupervisor, role)
}

// =============================================================================
// BIN CARDS
// =============================================================================

func testBinCard(id string, sku inventory.SKU) inventory.BinCardRecord {
	return inventory.BinCardRecord{
		ID:             id,
		Zone:           "FG Store",
		SKU:            sku,
		ShiftDate:      "2025-03-10",
		Shift:          inventory.ShiftDay,
		OpeningBalance: decimal.NewFromInt(60),
		SystemClosing:  decimal.NewFromInt(60),
		PhysicalCount:  decimal.NewFromInt(58),
		Variance:       decimal.NewFromInt(-2),
		Status:         inventory.BinCardConfirmed,
		ConfirmedBy:    "op-1",
		ConfirmedAt:    time.Date(2025, 3, 10, 19, 5, 0, 0, time.UTC),
	}
}

func TestBinCard_ConfirmedLookupAndRevocation(t *testing.T) {
	// GIVEN: A confirmed record
	// WHEN: Looked up by key, then revoked
	// THEN: The key lookup only sees confirmed records

	store := newTestStore(t)
	ctx := context.Background()
	rec := testBinCard("bc-1", "FG-DET-500G")
	require.NoError(t, store.SaveBinCard(ctx, rec))

	got, err := store.GetConfirmedBinCard(ctx, "FG Store", "FG-DET-500G", "2025-03-10", inventory.ShiftDay)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Variance.Equal(decimal.NewFromInt(-2)))

	revokedAt := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	rec.Status = inventory.BinCardRevoked
	rec.RevokedBy = "sup-1"
	rec.RevokedAt = &revokedAt
	require.NoError(t, store.SaveBinCard(ctx, rec))

	got, err = store.GetConfirmedBinCard(ctx, "FG Store", "FG-DET-500G", "2025-03-10", inventory.ShiftDay)
	require.NoError(t, err)
	assert.Nil(t, got)

	revoked, err := store.ListBinCards(ctx, inventory.BinCardFilter{Status: inventory.BinCardRevoked})
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.Equal(t, "sup-1", revoked[0].RevokedBy)
	require.NotNil(t, revoked[0].RevokedAt)
}

func TestBinCard_DateRangeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	early := testBinCard("bc-1", "FG-DET-500G")
	early.ShiftDate = "2025-03-08"
	require.NoError(t, store.SaveBinCard(ctx, early))
	late := testBinCard("bc-2", "FG-DET-1KG")
	require.NoError(t, store.SaveBinCard(ctx, late))

	got, err := store.ListBinCards(ctx, inventory.BinCardFilter{DateFrom: "2025-03-09", DateTo: "2025-03-11"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bc-2", got[0].ID)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePallet(ctx, testPallet("FG-DET-00001")))
	require.NoError(t, store.AppendMovement(ctx, testMovement("mv-1", time.Now())))
	require.NoError(t, store.SaveZoneConfig(ctx, inventory.ZoneConfig{Name: "FG Store", Prefix: "FG-DET"}))

	require.NoError(t, store.Reset(ctx))

	pallets, err := store.ListPallets(ctx)
	require.NoError(t, err)
	assert.Empty(t, pallets)
	zones, err := store.ListZoneConfigs(ctx)
	require.NoError(t, err)
	assert.Empty(t, zones)
}
