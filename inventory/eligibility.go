/*
eligibility.go - Zone/SKU eligibility checks

PURPOSE:
  Answers "may this SKU be moved to that zone, and what status does it get
  on receipt?". Consulted by the transit state machine both at initiation
  (gate the move) and at receipt (pick the post-receipt status).

RULE ORDER:
  1. The terminal consumption zone accepts any SKU unconditionally and
     assigns the Consumed status - it is the sink for used-up stock.
  2. The destination zone must be configured; its default status is the
     candidate post-receipt status.
  3. The SKU is looked up in the eligibility table: exact match first, then
     wildcard-suffix patterns. No entry means the unmapped-SKU policy
     decides (permissive allows, strict rejects).
  4. A banding-required SKU rejects pallets that are not banded.
  5. A restricted SKU rejects zones outside its allowed list, naming the
     allowed zones in the message.

CACHING:
  The mapping table is read-mostly and cached for 5 minutes through the
  explicit TTL cache. Seeding invalidates the cache.

SEE ALSO:
  - types.go: SKUZoneMapping matching rules
  - transit.go: Caller
*/
package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MappingCacheTTL is how long the eligibility table is served from cache.
const MappingCacheTTL = 5 * time.Minute

const mappingCacheKey = "sku-zone-mappings"

// UnmappedSKUPolicy decides what happens when a SKU has no table entry.
// The reference behavior is permissive; strict is available for sites that
// want every SKU mapped explicitly.
type UnmappedSKUPolicy string

const (
	UnmappedPermissive UnmappedSKUPolicy = "permissive"
	UnmappedStrict     UnmappedSKUPolicy = "strict"
)

// EligibilityResult is the outcome of a check. TargetStatus is only
// meaningful when Allowed is true.
type EligibilityResult struct {
	Allowed      bool
	TargetStatus PalletStatus
	Message      string
}

// =============================================================================
// CHECKER
// =============================================================================

// EligibilityChecker evaluates zone/SKU rules with a cached mapping table.
type EligibilityChecker struct {
	Zones       ZoneConfigStore
	Mappings    MappingStore
	UnmappedSKU UnmappedSKUPolicy

	cache *Cache[[]SKUZoneMapping]
}

// NewEligibilityChecker wires a checker with the 5-minute mapping cache.
func NewEligibilityChecker(zones ZoneConfigStore, mappings MappingStore, policy UnmappedSKUPolicy, clock Clock) *EligibilityChecker {
	if policy == "" {
		policy = UnmappedPermissive
	}
	return &EligibilityChecker{
		Zones:       zones,
		Mappings:    mappings,
		UnmappedSKU: policy,
		cache:       NewCache[[]SKUZoneMapping](MappingCacheTTL, clock),
	}
}

// InvalidateCache forces the next check to reload the mapping table.
func (c *EligibilityChecker) InvalidateCache() {
	c.cache.Invalidate(mappingCacheKey)
}

// Check evaluates whether sku may move to toZone.
func (c *EligibilityChecker) Check(ctx context.Context, sku SKU, toZone Zone, palletType string) (EligibilityResult, error) {
	if IsTerminalZone(toZone) {
		return EligibilityResult{Allowed: true, TargetStatus: StatusConsumed}, nil
	}

	cfg, err := c.Zones.GetZoneConfig(ctx, toZone)
	if err != nil {
		return EligibilityResult{}, err
	}
	if cfg == nil {
		return EligibilityResult{}, fmt.Errorf("%w: %s", ErrZoneNotFound, toZone)
	}
	targetStatus := cfg.DefaultStatus
	if targetStatus == "" {
		targetStatus = StatusAvailable
	}

	mapping, found, err := c.findMapping(ctx, sku)
	if err != nil {
		return EligibilityResult{}, err
	}
	if !found {
		if c.UnmappedSKU == UnmappedStrict {
			return EligibilityResult{
				Allowed: false,
				Message: fmt.Sprintf("SKU %s has no zone mapping and unmapped SKUs are rejected", sku),
			}, nil
		}
		return EligibilityResult{Allowed: true, TargetStatus: targetStatus}, nil
	}

	if mapping.RequiresBanding && palletType != PalletTypeBanded {
		return EligibilityResult{
			Allowed: false,
			Message: fmt.Sprintf("SKU %s requires banded pallets; pallet type is %q", sku, palletType),
		}, nil
	}

	if !mapping.AllowsZone(toZone) {
		return EligibilityResult{
			Allowed: false,
			Message: fmt.Sprintf("SKU %s may only move to: %s", sku, zoneList(mapping.AllowedZones)),
		}, nil
	}

	return EligibilityResult{Allowed: true, TargetStatus: targetStatus}, nil
}

// findMapping looks up the table entry for a SKU: exact match wins over
// wildcard-suffix patterns.
func (c *EligibilityChecker) findMapping(ctx context.Context, sku SKU) (SKUZoneMapping, bool, error) {
	mappings, err := c.cache.Get(mappingCacheKey, func() ([]SKUZoneMapping, error) {
		return c.Mappings.ListMappings(ctx)
	})
	if err != nil {
		return SKUZoneMapping{}, false, err
	}

	for _, m := range mappings {
		if m.SKU == sku {
			return m, true, nil
		}
	}
	for _, m := range mappings {
		if m.Matches(sku) {
			return m, true, nil
		}
	}
	return SKUZoneMapping{}, false, nil
}

func zoneList(zones []Zone) string {
	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = string(z)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
