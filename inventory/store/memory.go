// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/zoneflow/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements the full inventory.Store contract with maps.
type Memory struct {
	mu        sync.RWMutex
	pallets   map[inventory.PalletID]inventory.Pallet
	movements map[inventory.MovementID]inventory.MovementEntry
	moveOrder []inventory.MovementID
	zones     map[inventory.Zone]inventory.ZoneConfig
	mappings  []inventory.SKUZoneMapping
	roles     map[string]inventory.Role
	binCards  []inventory.BinCardRecord
}

var _ inventory.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		pallets:   make(map[inventory.PalletID]inventory.Pallet),
		movements: make(map[inventory.MovementID]inventory.MovementEntry),
		zones:     make(map[inventory.Zone]inventory.ZoneConfig),
		roles:     make(map[string]inventory.Role),
	}
}

// Reset clears every record. Development and scenario loading only.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pallets = make(map[inventory.PalletID]inventory.Pallet)
	m.movements = make(map[inventory.MovementID]inventory.MovementEntry)
	m.moveOrder = nil
	m.zones = make(map[inventory.Zone]inventory.ZoneConfig)
	m.mappings = nil
	m.roles = make(map[string]inventory.Role)
	m.binCards = nil
	return nil
}

// =============================================================================
// PALLETS
// =============================================================================

func (m *Memory) GetPallet(_ context.Context, id inventory.PalletID) (*inventory.Pallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pallets[id]
	if !ok {
		return nil, nil
	}
	cp := clonePallet(p)
	return &cp, nil
}

func (m *Memory) SavePallet(_ context.Context, p inventory.Pallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pallets[p.ID] = clonePallet(p)
	return nil
}

func (m *Memory) ListPallets(_ context.Context) ([]inventory.Pallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Pallet, 0, len(m.pallets))
	for _, p := range m.pallets {
		out = append(out, clonePallet(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) ListPalletsInZone(ctx context.Context, zone inventory.Zone) ([]inventory.Pallet, error) {
	all, err := m.ListPallets(ctx)
	if err != nil {
		return nil, err
	}
	var out []inventory.Pallet
	for _, p := range all {
		if strings.EqualFold(string(p.CurrentZone), string(zone)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ListPalletsInTransit(ctx context.Context) ([]inventory.Pallet, error) {
	all, err := m.ListPallets(ctx)
	if err != nil {
		return nil, err
	}
	var out []inventory.Pallet
	for _, p := range all {
		if p.InTransit != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func clonePallet(p inventory.Pallet) inventory.Pallet {
	cp := p
	cp.ChildIDs = append([]inventory.PalletID(nil), p.ChildIDs...)
	cp.Notes = append([]string(nil), p.Notes...)
	if p.InTransit != nil {
		t := *p.InTransit
		cp.InTransit = &t
	}
	if p.LastMovedAt != nil {
		t := *p.LastMovedAt
		cp.LastMovedAt = &t
	}
	return cp
}

// =============================================================================
// MOVEMENT LEDGER
// =============================================================================

func (m *Memory) AppendMovement(_ context.Context, e inventory.MovementEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.movements[e.ID]; exists {
		return fmt.Errorf("movement %s already exists", e.ID)
	}
	m.movements[e.ID] = e
	m.moveOrder = append(m.moveOrder, e.ID)
	return nil
}

func (m *Memory) GetMovement(_ context.Context, id inventory.MovementID) (*inventory.MovementEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.movements[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) UpdateMovement(_ context.Context, e inventory.MovementEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.movements[e.ID]; !exists {
		return fmt.Errorf("movement %s not found", e.ID)
	}
	m.movements[e.ID] = e
	return nil
}

func (m *Memory) ListMovements(_ context.Context, f inventory.MovementFilter) ([]inventory.MovementEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.MovementEntry
	for _, id := range m.moveOrder {
		e := m.movements[id]
		if f.PalletID != "" && e.PalletID != f.PalletID {
			continue
		}
		if f.FromZone != "" && !strings.EqualFold(string(e.FromZone), string(f.FromZone)) {
			continue
		}
		if f.ToZone != "" && !strings.EqualFold(string(e.ToZone), string(f.ToZone)) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// ZONE CONFIG
// =============================================================================

func (m *Memory) GetZoneConfig(_ context.Context, zone inventory.Zone) (*inventory.ZoneConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.lookupZone(zone)
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (m *Memory) ListZoneConfigs(_ context.Context) ([]inventory.ZoneConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.ZoneConfig, 0, len(m.zones))
	for _, cfg := range m.zones {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveZoneConfig(_ context.Context, cfg inventory.ZoneConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones[cfg.Name] = cfg
	return nil
}

func (m *Memory) NextPalletNumber(_ context.Context, zone inventory.Zone) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.lookupZone(zone)
	if !ok {
		return 0, fmt.Errorf("%w: %s", inventory.ErrZoneNotFound, zone)
	}
	if cfg.NextPalletNum <= 0 {
		cfg.NextPalletNum = 1
	}
	n := cfg.NextPalletNum
	cfg.NextPalletNum++
	m.zones[cfg.Name] = cfg
	return n, nil
}

// lookupZone matches zone names case-insensitively. Callers hold the lock.
func (m *Memory) lookupZone(zone inventory.Zone) (inventory.ZoneConfig, bool) {
	if cfg, ok := m.zones[zone]; ok {
		return cfg, true
	}
	for name, cfg := range m.zones {
		if strings.EqualFold(string(name), string(zone)) {
			return cfg, true
		}
	}
	return inventory.ZoneConfig{}, false
}

// =============================================================================
// SKU MAPPINGS
// =============================================================================

func (m *Memory) ListMappings(_ context.Context) ([]inventory.SKUZoneMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.SKUZoneMapping, len(m.mappings))
	copy(out, m.mappings)
	return out, nil
}

func (m *Memory) SaveMapping(_ context.Context, mapping inventory.SKUZoneMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.mappings {
		if existing.SKU == mapping.SKU {
			m.mappings[i] = mapping
			return nil
		}
	}
	m.mappings = append(m.mappings, mapping)
	return nil
}

// =============================================================================
// ROLES
// =============================================================================

func (m *Memory) GetRole(_ context.Context, actorID string) (inventory.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roles[actorID], nil
}

func (m *Memory) SaveRole(_ context.Context, actorID string, role inventory.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[actorID] = role
	return nil
}

// =============================================================================
// BIN CARDS
// =============================================================================

func (m *Memory) SaveBinCard(_ context.Context, rec inventory.BinCardRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.binCards {
		if existing.ID == rec.ID {
			m.binCards[i] = rec
			return nil
		}
	}
	m.binCards = append(m.binCards, rec)
	return nil
}

func (m *Memory) ListBinCards(_ context.Context, f inventory.BinCardFilter) ([]inventory.BinCardRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []inventory.BinCardRecord
	for _, rec := range m.binCards {
		if !matchBinCard(rec, f) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShiftDate != out[j].ShiftDate {
			return out[i].ShiftDate < out[j].ShiftDate
		}
		return out[i].ConfirmedAt.Before(out[j].ConfirmedAt)
	})
	return out, nil
}

func (m *Memory) GetConfirmedBinCard(_ context.Context, zone inventory.Zone, sku inventory.SKU, shiftDate string, shift inventory.Shift) (*inventory.BinCardRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.binCards {
		if rec.Status == inventory.BinCardConfirmed &&
			strings.EqualFold(string(rec.Zone), string(zone)) &&
			rec.SKU == sku && rec.ShiftDate == shiftDate && rec.Shift == shift {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func matchBinCard(rec inventory.BinCardRecord, f inventory.BinCardFilter) bool {
	if f.Zone != "" && !strings.EqualFold(string(rec.Zone), string(f.Zone)) {
		return false
	}
	if f.SKU != "" && rec.SKU != f.SKU {
		return false
	}
	if f.Shift != "" && rec.Shift != f.Shift {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.ShiftDate != "" && rec.ShiftDate != f.ShiftDate {
		return false
	}
	if f.DateFrom != "" && rec.ShiftDate < f.DateFrom {
		return false
	}
	if f.DateTo != "" && rec.ShiftDate > f.DateTo {
		return false
	}
	return true
}
