package factory_test

import (
	"testing"

	"github.com/warp/zoneflow/factory"
	"github.com/warp/zoneflow/inventory"
)

const sampleConfigJSON = `{
	"zones": [
		{
			"name": "FG Store",
			"prefix": "FG-DET",
			"fifo_required": true,
			"shelf_life_days": 180
		},
		{
			"name": "Production",
			"prefix": "PRD",
			"allows_splitting": false
		},
		{
			"name": "Quarantine Zone",
			"prefix": "QRN",
			"default_status": "Quarantine"
		}
	],
	"mappings": [
		{
			"sku": "FG-DET-*",
			"allowed_zones": ["FG Store", "Production"],
			"default_zone": "FG Store",
			"requires_banding": true
		}
	],
	"roles": [
		{"actor_id": "sup-01", "role": "Supervisor"},
		{"actor_id": "qa-01", "role": "QA"}
	]
}`

func TestParseConfig_FullLayout(t *testing.T) {
	// GIVEN: A JSON layout with zones, mappings, and roles
	// WHEN: Parsed
	// THEN: Defaults apply and every section comes through

	f := factory.NewConfigFactory()
	cfg, err := f.ParseConfig(sampleConfigJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(cfg.Zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(cfg.Zones))
	}

	fg := cfg.Zones[0]
	if fg.Name != "FG Store" || !fg.FIFORequired || fg.ShelfLifeDays != 180 {
		t.Errorf("FG Store zone mismatch: %+v", fg)
	}
	if !fg.AllowsSplitting {
		t.Error("splitting should default to allowed")
	}
	if fg.DefaultStatus != inventory.StatusAvailable {
		t.Errorf("default status should be Available, got %s", fg.DefaultStatus)
	}
	if fg.NextPalletNum != 1 {
		t.Errorf("numbering should start at 1, got %d", fg.NextPalletNum)
	}

	if cfg.Zones[1].AllowsSplitting {
		t.Error("explicit allows_splitting=false should stick")
	}
	if cfg.Zones[2].DefaultStatus != inventory.StatusQuarantine {
		t.Errorf("quarantine default status lost: %+v", cfg.Zones[2])
	}

	if len(cfg.Mappings) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(cfg.Mappings))
	}
	m := cfg.Mappings[0]
	if m.SKU != "FG-DET-*" || !m.RequiresBanding || len(m.AllowedZones) != 2 {
		t.Errorf("mapping mismatch: %+v", m)
	}
	if !m.Matches("FG-DET-500G") {
		t.Error("wildcard pattern should match suffix variants")
	}

	if cfg.Roles["sup-01"] != inventory.RoleSupervisor || cfg.Roles["qa-01"] != inventory.RoleQA {
		t.Errorf("roles mismatch: %v", cfg.Roles)
	}
}

func TestParseConfig_Rejections(t *testing.T) {
	f := factory.NewConfigFactory()

	cases := []struct {
		name string
		json string
	}{
		{"malformed json", `{"zones": [`},
		{"missing zone name", `{"zones": [{"prefix": "FG"}]}`},
		{"unknown default status", `{"zones": [{"name": "A", "default_status": "Lost"}]}`},
		{"missing mapping sku", `{"zones": [{"name": "A"}], "mappings": [{"default_zone": "A"}]}`},
		{"unknown role", `{"zones": [{"name": "A"}], "roles": [{"actor_id": "x", "role": "Janitor"}]}`},
		{"role without actor", `{"zones": [{"name": "A"}], "roles": [{"role": "QA"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.ParseConfig(tc.json); err == nil {
				t.Errorf("expected parse error for %s", tc.name)
			}
		})
	}
}

func TestConfig_JSONRoundTrip(t *testing.T) {
	// GIVEN: A parsed config
	// WHEN: Serialized back to JSON and parsed again
	// THEN: The zones and mappings survive unchanged

	f := factory.NewConfigFactory()
	cfg, err := f.ParseConfig(sampleConfigJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cj := f.ToJSON(cfg)
	again, err := f.FromJSON(cj)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if len(again.Zones) != len(cfg.Zones) || len(again.Mappings) != len(cfg.Mappings) {
		t.Fatalf("round trip shape changed: %d zones, %d mappings", len(again.Zones), len(again.Mappings))
	}
	for i := range cfg.Zones {
		if again.Zones[i] != cfg.Zones[i] {
			t.Errorf("zone %d changed: %+v vs %+v", i, cfg.Zones[i], again.Zones[i])
		}
	}
	if again.Roles["sup-01"] != inventory.RoleSupervisor {
		t.Errorf("roles changed: %v", again.Roles)
	}
}
