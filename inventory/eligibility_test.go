package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/warp/zoneflow/inventory"
	"github.com/warp/zoneflow/inventory/store"
)

func newChecker(t *testing.T, policy inventory.UnmappedSKUPolicy) (*inventory.EligibilityChecker, *store.Memory, *fakeClock) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	clock := newFakeClock()

	zones := []inventory.ZoneConfig{
		{Name: "FG Store", Prefix: "FG-DET", DefaultStatus: inventory.StatusAvailable},
		{Name: "Dispatch", Prefix: "DSP", DefaultStatus: inventory.StatusAvailable},
		{Name: "Quarantine Zone", Prefix: "QRN", DefaultStatus: inventory.StatusQuarantine},
	}
	for _, z := range zones {
		if err := mem.SaveZoneConfig(ctx, z); err != nil {
			t.Fatalf("seed zone: %v", err)
		}
	}
	return inventory.NewEligibilityChecker(mem, mem, policy, clock), mem, clock
}

func saveMapping(t *testing.T, mem *store.Memory, m inventory.SKUZoneMapping) {
	t.Helper()
	if err := mem.SaveMapping(context.Background(), m); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
}

func TestEligibility_TerminalZoneAcceptsAnything(t *testing.T) {
	// GIVEN: Any SKU, even one with a restrictive mapping
	// WHEN: Checked against the terminal consumption zone
	// THEN: Allowed with Consumed status, no zone config required

	checker, mem, _ := newChecker(t, inventory.UnmappedPermissive)
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-500G", AllowedZones: []inventory.Zone{"FG Store"}})

	res, err := checker.Check(context.Background(), "FG-DET-500G", "final consumption", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed || res.TargetStatus != inventory.StatusConsumed {
		t.Errorf("expected consumed allowance, got %+v", res)
	}
}

func TestEligibility_UnknownZoneIsAnError(t *testing.T) {
	checker, _, _ := newChecker(t, inventory.UnmappedPermissive)

	_, err := checker.Check(context.Background(), "FG-DET-500G", "Mezzanine", "")
	if !errors.Is(err, inventory.ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}

func TestEligibility_ExactMatchBeatsWildcard(t *testing.T) {
	// GIVEN: A wildcard entry restricting FG-DET-* to FG Store and an exact
	//        entry for FG-DET-500G allowing Dispatch
	// WHEN: FG-DET-500G is checked for Dispatch
	// THEN: The exact entry wins and the move is allowed

	checker, mem, _ := newChecker(t, inventory.UnmappedPermissive)
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-*", AllowedZones: []inventory.Zone{"FG Store"}})
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-500G", AllowedZones: []inventory.Zone{"Dispatch"}})

	res, err := checker.Check(context.Background(), "FG-DET-500G", "Dispatch", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed {
		t.Errorf("exact mapping should allow Dispatch: %+v", res)
	}

	// A sibling SKU still falls under the wildcard restriction
	res, err = checker.Check(context.Background(), "FG-DET-1KG", "Dispatch", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Errorf("wildcard mapping should reject Dispatch: %+v", res)
	}
}

func TestEligibility_BandingRequirement(t *testing.T) {
	// GIVEN: A mapping requiring banded pallets
	// WHEN: Checked with a loose pallet, then a banded one
	// THEN: The loose pallet is rejected with a message naming the SKU

	checker, mem, _ := newChecker(t, inventory.UnmappedPermissive)
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-*", RequiresBanding: true})

	res, err := checker.Check(context.Background(), "FG-DET-500G", "FG Store", "Loose")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Fatal("loose pallet should be rejected")
	}
	if !strings.Contains(res.Message, "FG-DET-500G") {
		t.Errorf("message should name the SKU: %q", res.Message)
	}

	res, err = checker.Check(context.Background(), "FG-DET-500G", "FG Store", inventory.PalletTypeBanded)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed {
		t.Errorf("banded pallet should be allowed: %+v", res)
	}
}

func TestEligibility_AllowedZonesListed(t *testing.T) {
	checker, mem, _ := newChecker(t, inventory.UnmappedPermissive)
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-*", AllowedZones: []inventory.Zone{"FG Store", "Dispatch"}})

	res, err := checker.Check(context.Background(), "FG-DET-500G", "Quarantine Zone", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Fatal("zone outside the allowed list should be rejected")
	}
	if !strings.Contains(res.Message, "FG Store") || !strings.Contains(res.Message, "Dispatch") {
		t.Errorf("rejection should list the allowed zones: %q", res.Message)
	}

	// Empty list means unrestricted
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "RM-CHEM-01"})
	checker.InvalidateCache()
	res, err = checker.Check(context.Background(), "RM-CHEM-01", "Quarantine Zone", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed || res.TargetStatus != inventory.StatusQuarantine {
		t.Errorf("unrestricted SKU should take the zone default status, got %+v", res)
	}
}

func TestEligibility_UnmappedSKUPolicy(t *testing.T) {
	// GIVEN: A SKU with no table entry
	// WHEN: Checked under permissive and strict policies
	// THEN: Permissive allows with the zone default; strict rejects

	permissive, _, _ := newChecker(t, inventory.UnmappedPermissive)
	res, err := permissive.Check(context.Background(), "ZZ-UNKNOWN", "FG Store", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed || res.TargetStatus != inventory.StatusAvailable {
		t.Errorf("permissive policy should allow, got %+v", res)
	}

	strict, _, _ := newChecker(t, inventory.UnmappedStrict)
	res, err = strict.Check(context.Background(), "ZZ-UNKNOWN", "FG Store", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Errorf("strict policy should reject, got %+v", res)
	}
}

func TestEligibility_MappingCacheRespectsTTL(t *testing.T) {
	// GIVEN: A checker that has already loaded the mapping table
	// WHEN: A new mapping is saved without invalidation
	// THEN: The stale table is served until the TTL lapses

	checker, mem, clock := newChecker(t, inventory.UnmappedStrict)
	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "FG-DET-*"})

	res, err := checker.Check(context.Background(), "FG-DET-500G", "FG Store", "")
	if err != nil || !res.Allowed {
		t.Fatalf("warm-up check: %+v, %v", res, err)
	}

	saveMapping(t, mem, inventory.SKUZoneMapping{SKU: "RM-CHEM-01"})

	res, err = checker.Check(context.Background(), "RM-CHEM-01", "FG Store", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Allowed {
		t.Error("new mapping should not be visible before the TTL lapses")
	}

	clock.Advance(inventory.MappingCacheTTL)
	res, err = checker.Check(context.Background(), "RM-CHEM-01", "FG Store", "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Allowed {
		t.Error("mapping should be visible after the TTL lapses")
	}
}
