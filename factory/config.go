/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON zone and SKU-mapping definitions into inventory.ZoneConfig
  and inventory.SKUZoneMapping objects. This enables warehouse configuration
  without code changes - operations staff can define zones and eligibility
  rules in JSON, and the factory creates the proper Go structs.

WHY JSON?
  - Non-developers can modify zone layouts and eligibility
  - Easy integration with admin UI
  - Version control for warehouse configs
  - Database storage of zone definitions

JSON SCHEMA:
  {
    "zones": [
      {
        "name": "FG Store",
        "prefix": "FG-DET",
        "fifo_required": true,
        "allows_splitting": true,
        "shelf_life_days": 180,
        "default_status": "Available"
      }
    ],
    "mappings": [
      {
        "sku": "FG-DET-*",
        "allowed_zones": ["FG Store", "Dispatch"],
        "default_zone": "FG Store",
        "requires_banding": true
      }
    ],
    "roles": [
      {"actor_id": "sup-01", "role": "Supervisor"}
    ]
  }

KEY FEATURES:
  - Validates JSON structure
  - Sets sensible defaults (splitting allowed, Available status)
  - Supports wildcard-suffix SKU patterns ("FG-DET-*")
  - Round-trips configs back to JSON for the admin API

USAGE:
  factory := NewConfigFactory()

  cfg, err := factory.ParseConfig(jsonString)
  for _, z := range cfg.Zones {
      store.SaveZoneConfig(ctx, z)
  }

SEE ALSO:
  - inventory/types.go: ZoneConfig and SKUZoneMapping definitions
  - api/scenarios.go: Demo configurations built on this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warp/zoneflow/inventory"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a full warehouse configuration.
type ConfigJSON struct {
	Zones    []ZoneJSON    `json:"zones"`
	Mappings []MappingJSON `json:"mappings,omitempty"`
	Roles    []RoleJSON    `json:"roles,omitempty"`
}

// ZoneJSON is the JSON representation of a zone.
type ZoneJSON struct {
	Name            string `json:"name"`
	Prefix          string `json:"prefix"`
	FIFORequired    bool   `json:"fifo_required,omitempty"`
	AllowsSplitting *bool  `json:"allows_splitting,omitempty"` // Default true
	ShelfLifeDays   int    `json:"shelf_life_days,omitempty"`
	DefaultStatus   string `json:"default_status,omitempty"` // Default "Available"
}

// MappingJSON is the JSON representation of a SKU eligibility rule.
// The sku field accepts a wildcard-suffix pattern such as "FG-DET-*".
type MappingJSON struct {
	SKU             string   `json:"sku"`
	AllowedZones    []string `json:"allowed_zones,omitempty"` // Empty = unrestricted
	DefaultZone     string   `json:"default_zone,omitempty"`
	RequiresBanding bool     `json:"requires_banding,omitempty"`
	ShelfLifeDays   int      `json:"shelf_life_days,omitempty"`
}

// RoleJSON links an actor to a cancellation-authority role.
type RoleJSON struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

// Config is the parsed warehouse configuration.
type Config struct {
	Zones    []inventory.ZoneConfig
	Mappings []inventory.SKUZoneMapping
	Roles    map[string]inventory.Role
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON warehouse configs to Go structs.
type ConfigFactory struct{}

// NewConfigFactory creates a new config factory.
func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// ParseConfig parses a JSON string into a warehouse Config.
func (f *ConfigFactory) ParseConfig(jsonStr string) (*Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts ConfigJSON to a warehouse Config.
func (f *ConfigFactory) FromJSON(cj ConfigJSON) (*Config, error) {
	cfg := &Config{Roles: make(map[string]inventory.Role)}

	for i, zj := range cj.Zones {
		zone, err := parseZone(zj)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		cfg.Zones = append(cfg.Zones, zone)
	}

	for i, mj := range cj.Mappings {
		mapping, err := parseMapping(mj)
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		cfg.Mappings = append(cfg.Mappings, mapping)
	}

	for _, rj := range cj.Roles {
		if rj.ActorID == "" {
			return nil, fmt.Errorf("role entry missing actor_id")
		}
		role, err := parseRole(rj.Role)
		if err != nil {
			return nil, fmt.Errorf("actor %s: %w", rj.ActorID, err)
		}
		cfg.Roles[rj.ActorID] = role
	}

	return cfg, nil
}

// ToJSON converts a warehouse Config back to its JSON representation.
func (f *ConfigFactory) ToJSON(cfg *Config) ConfigJSON {
	var cj ConfigJSON

	for _, z := range cfg.Zones {
		split := z.AllowsSplitting
		cj.Zones = append(cj.Zones, ZoneJSON{
			Name:            string(z.Name),
			Prefix:          z.Prefix,
			FIFORequired:    z.FIFORequired,
			AllowsSplitting: &split,
			ShelfLifeDays:   z.ShelfLifeDays,
			DefaultStatus:   string(z.DefaultStatus),
		})
	}

	for _, m := range cfg.Mappings {
		mj := MappingJSON{
			SKU:             string(m.SKU),
			DefaultZone:     string(m.DefaultZone),
			RequiresBanding: m.RequiresBanding,
			ShelfLifeDays:   m.ShelfLifeDays,
		}
		for _, z := range m.AllowedZones {
			mj.AllowedZones = append(mj.AllowedZones, string(z))
		}
		cj.Mappings = append(cj.Mappings, mj)
	}

	for actorID, role := range cfg.Roles {
		cj.Roles = append(cj.Roles, RoleJSON{ActorID: actorID, Role: string(role)})
	}

	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseZone(zj ZoneJSON) (inventory.ZoneConfig, error) {
	if strings.TrimSpace(zj.Name) == "" {
		return inventory.ZoneConfig{}, fmt.Errorf("zone name is required")
	}

	zone := inventory.ZoneConfig{
		Name:            inventory.Zone(zj.Name),
		Prefix:          zj.Prefix,
		FIFORequired:    zj.FIFORequired,
		AllowsSplitting: true,
		ShelfLifeDays:   zj.ShelfLifeDays,
		DefaultStatus:   inventory.StatusAvailable,
		NextPalletNum:   1,
	}
	if zj.AllowsSplitting != nil {
		zone.AllowsSplitting = *zj.AllowsSplitting
	}
	if zj.DefaultStatus != "" {
		status, err := parseStatus(zj.DefaultStatus)
		if err != nil {
			return inventory.ZoneConfig{}, err
		}
		zone.DefaultStatus = status
	}
	return zone, nil
}

func parseMapping(mj MappingJSON) (inventory.SKUZoneMapping, error) {
	if strings.TrimSpace(mj.SKU) == "" {
		return inventory.SKUZoneMapping{}, fmt.Errorf("mapping sku is required")
	}

	mapping := inventory.SKUZoneMapping{
		SKU:             inventory.SKU(mj.SKU),
		DefaultZone:     inventory.Zone(mj.DefaultZone),
		RequiresBanding: mj.RequiresBanding,
		ShelfLifeDays:   mj.ShelfLifeDays,
	}
	for _, z := range mj.AllowedZones {
		mapping.AllowedZones = append(mapping.AllowedZones, inventory.Zone(z))
	}
	return mapping, nil
}

func parseStatus(s string) (inventory.PalletStatus, error) {
	switch s {
	case string(inventory.StatusAvailable):
		return inventory.StatusAvailable, nil
	case string(inventory.StatusQuarantine):
		return inventory.StatusQuarantine, nil
	case string(inventory.StatusConsumed):
		return inventory.StatusConsumed, nil
	default:
		return "", fmt.Errorf("unknown default_status: %s", s)
	}
}

func parseRole(s string) (inventory.Role, error) {
	switch s {
	case string(inventory.RoleSupervisor):
		return inventory.RoleSupervisor, nil
	case string(inventory.RoleQA):
		return inventory.RoleQA, nil
	case string(inventory.RoleOperator):
		return inventory.RoleOperator, nil
	case "":
		return inventory.RoleNone, nil
	default:
		return inventory.RoleNone, fmt.Errorf("unknown role: %s", s)
	}
}
