/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the full inventory.Store contract (pallets, movement ledger,
  zone config, SKU mappings, roles, bin cards) using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

LEDGER ENFORCEMENT:
  The zone_movements table is append-only from the engine's perspective:
  AppendMovement inserts, UpdateMovement writes the terminal status and its
  metadata once, and no delete path exists.

KEY TABLES:
  pallets:          Current pallet state incl. the transit sub-record
  zone_movements:   Append-only movement ledger
  zone_config:      Per-zone rules + pallet-numbering counter
  sku_zone_mapping: Eligibility table (exact and wildcard-suffix SKUs)
  roles:            Static actor-to-role lookup
  bin_cards:        Shift reconciliation records (revoked rows kept)

INDEXES:
  - idx_pallets_zone:       Zone residency scans (FIFO, snapshots)
  - idx_pallets_in_transit: Sweeper scans (partial index)
  - idx_movements_created:  Ledger replay and shift windows
  - idx_movements_to/from:  Inbound/outbound queries
  - idx_bincards_key:       Confirmed-record lookups

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so multiple readers
  don't block the single writer.

USAGE:
  store, err := sqlite.New("./data/zoneflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/zoneflow/inventory"
)

// Store implements inventory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes the pallet-numbering counter
}

var _ inventory.Store = (*Store)(nil)

const timeLayout = time.RFC3339Nano

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pallets (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL,
		pallet_type TEXT,
		current_zone TEXT NOT NULL COLLATE NOCASE,
		status TEXT NOT NULL,
		quantity TEXT NOT NULL,
		remaining_quantity TEXT NOT NULL,
		parent_id TEXT,
		child_ids_json TEXT,
		notes_json TEXT,
		created_at TEXT NOT NULL,
		last_moved_at TEXT,
		last_moved_by TEXT,
		transit_to_zone TEXT,
		transit_movement_id TEXT,
		transit_initiated_at TEXT,
		transit_initiated_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pallets_zone
		ON pallets(current_zone);
	CREATE INDEX IF NOT EXISTS idx_pallets_sku
		ON pallets(sku);
	CREATE INDEX IF NOT EXISTS idx_pallets_in_transit
		ON pallets(transit_initiated_at) WHERE transit_movement_id IS NOT NULL;

	-- Append-only movement ledger
	CREATE TABLE IF NOT EXISTS zone_movements (
		id TEXT PRIMARY KEY,
		pallet_id TEXT NOT NULL,
		from_zone TEXT COLLATE NOCASE,
		to_zone TEXT NOT NULL COLLATE NOCASE,
		quantity TEXT NOT NULL,
		moved_by TEXT,
		reason TEXT,
		override_reason TEXT,
		order_reference TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		received_at TEXT,
		received_by TEXT,
		cancelled_at TEXT,
		cancelled_by TEXT,
		escalation_reason TEXT,
		auto_reverted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_movements_created
		ON zone_movements(created_at);
	CREATE INDEX IF NOT EXISTS idx_movements_pallet
		ON zone_movements(pallet_id);
	CREATE INDEX IF NOT EXISTS idx_movements_to
		ON zone_movements(to_zone, status);
	CREATE INDEX IF NOT EXISTS idx_movements_from
		ON zone_movements(from_zone, status);

	CREATE TABLE IF NOT EXISTS zone_config (
		name TEXT PRIMARY KEY COLLATE NOCASE,
		prefix TEXT NOT NULL,
		fifo_required INTEGER NOT NULL DEFAULT 0,
		allows_splitting INTEGER NOT NULL DEFAULT 1,
		shelf_life_days INTEGER NOT NULL DEFAULT 0,
		default_status TEXT NOT NULL,
		next_pallet_number INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS sku_zone_mapping (
		sku TEXT PRIMARY KEY,
		allowed_zones_json TEXT,
		default_zone TEXT,
		requires_banding INTEGER NOT NULL DEFAULT 0,
		shelf_life_days INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS roles (
		actor_id TEXT PRIMARY KEY,
		role TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bin_cards (
		id TEXT PRIMARY KEY,
		zone TEXT NOT NULL COLLATE NOCASE,
		sku TEXT NOT NULL,
		shift_date TEXT NOT NULL,
		shift TEXT NOT NULL,
		opening_balance TEXT NOT NULL,
		moved_in TEXT NOT NULL,
		moved_out TEXT NOT NULL,
		system_closing TEXT NOT NULL,
		physical_count TEXT NOT NULL,
		variance TEXT NOT NULL,
		status TEXT NOT NULL,
		confirmed_by TEXT,
		confirmed_at TEXT NOT NULL,
		revoked_by TEXT,
		revoked_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bincards_key
		ON bin_cards(zone, sku, shift_date, shift, status);
	CREATE INDEX IF NOT EXISTS idx_bincards_date
		ON bin_cards(shift_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PALLETS
// =============================================================================

func (s *Store) GetPallet(ctx context.Context, id inventory.PalletID) (*inventory.Pallet, error) {
	pallets, err := s.queryPallets(ctx, `SELECT `+palletColumns+` FROM pallets WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(pallets) == 0 {
		return nil, nil
	}
	return &pallets[0], nil
}

func (s *Store) SavePallet(ctx context.Context, p inventory.Pallet) error {
	childJSON, err := json.Marshal(p.ChildIDs)
	if err != nil {
		return err
	}
	notesJSON, err := json.Marshal(p.Notes)
	if err != nil {
		return err
	}

	var transitTo, transitMove, transitAt, transitBy any
	if p.InTransit != nil {
		transitTo = string(p.InTransit.ToZone)
		transitMove = string(p.InTransit.MovementID)
		transitAt = p.InTransit.InitiatedAt.Format(timeLayout)
		transitBy = p.InTransit.InitiatedBy
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pallets (id, sku, pallet_type, current_zone, status, quantity,
			remaining_quantity, parent_id, child_ids_json, notes_json, created_at,
			last_moved_at, last_moved_by,
			transit_to_zone, transit_movement_id, transit_initiated_at, transit_initiated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sku = excluded.sku,
			pallet_type = excluded.pallet_type,
			current_zone = excluded.current_zone,
			status = excluded.status,
			quantity = excluded.quantity,
			remaining_quantity = excluded.remaining_quantity,
			parent_id = excluded.parent_id,
			child_ids_json = excluded.child_ids_json,
			notes_json = excluded.notes_json,
			last_moved_at = excluded.last_moved_at,
			last_moved_by = excluded.last_moved_by,
			transit_to_zone = excluded.transit_to_zone,
			transit_movement_id = excluded.transit_movement_id,
			transit_initiated_at = excluded.transit_initiated_at,
			transit_initiated_by = excluded.transit_initiated_by`,
		string(p.ID), string(p.SKU), p.PalletType, string(p.CurrentZone), string(p.Status),
		p.Quantity.String(), p.RemainingQuantity.String(), string(p.ParentID),
		string(childJSON), string(notesJSON), p.CreatedAt.Format(timeLayout),
		nullTime(p.LastMovedAt), p.LastMovedBy,
		transitTo, transitMove, transitAt, transitBy,
	)
	return err
}

func (s *Store) ListPallets(ctx context.Context) ([]inventory.Pallet, error) {
	return s.queryPallets(ctx, `SELECT `+palletColumns+` FROM pallets ORDER BY created_at, id`)
}

func (s *Store) ListPalletsInZone(ctx context.Context, zone inventory.Zone) ([]inventory.Pallet, error) {
	return s.queryPallets(ctx,
		`SELECT `+palletColumns+` FROM pallets WHERE current_zone = ? ORDER BY created_at, id`,
		string(zone))
}

func (s *Store) ListPalletsInTransit(ctx context.Context) ([]inventory.Pallet, error) {
	return s.queryPallets(ctx,
		`SELECT `+palletColumns+` FROM pallets WHERE transit_movement_id IS NOT NULL ORDER BY transit_initiated_at`)
}

const palletColumns = `id, sku, pallet_type, current_zone, status, quantity,
	remaining_quantity, parent_id, child_ids_json, notes_json, created_at,
	last_moved_at, last_moved_by,
	transit_to_zone, transit_movement_id, transit_initiated_at, transit_initiated_by`

func (s *Store) queryPallets(ctx context.Context, query string, args ...any) ([]inventory.Pallet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []inventory.Pallet
	for rows.Next() {
		p, err := scanPallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPallet(rows *sql.Rows) (inventory.Pallet, error) {
	var (
		p                                            inventory.Pallet
		id, sku, zone, status                        string
		palletType, parentID, lastMovedBy            sql.NullString
		quantity, remaining                          string
		childJSON, notesJSON                         sql.NullString
		createdAt                                    string
		lastMovedAt                                  sql.NullString
		transitTo, transitMove, transitAt, transitBy sql.NullString
	)

	if err := rows.Scan(&id, &sku, &palletType, &zone, &status, &quantity,
		&remaining, &parentID, &childJSON, &notesJSON, &createdAt,
		&lastMovedAt, &lastMovedBy,
		&transitTo, &transitMove, &transitAt, &transitBy); err != nil {
		return p, err
	}

	p.ID = inventory.PalletID(id)
	p.SKU = inventory.SKU(sku)
	p.PalletType = palletType.String
	p.CurrentZone = inventory.Zone(zone)
	p.Status = inventory.PalletStatus(status)
	p.ParentID = inventory.PalletID(parentID.String)
	p.LastMovedBy = lastMovedBy.String

	var err error
	if p.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return p, fmt.Errorf("pallet %s: bad quantity %q", id, quantity)
	}
	if p.RemainingQuantity, err = decimal.NewFromString(remaining); err != nil {
		return p, fmt.Errorf("pallet %s: bad remaining quantity %q", id, remaining)
	}
	if childJSON.Valid && childJSON.String != "" {
		if err := json.Unmarshal([]byte(childJSON.String), &p.ChildIDs); err != nil {
			return p, err
		}
	}
	if notesJSON.Valid && notesJSON.String != "" {
		if err := json.Unmarshal([]byte(notesJSON.String), &p.Notes); err != nil {
			return p, err
		}
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return p, err
	}
	if lastMovedAt.Valid {
		t, err := time.Parse(timeLayout, lastMovedAt.String)
		if err != nil {
			return p, err
		}
		p.LastMovedAt = &t
	}
	if transitMove.Valid {
		initiatedAt, err := time.Parse(timeLayout, transitAt.String)
		if err != nil {
			return p, err
		}
		p.InTransit = &inventory.TransitInfo{
			ToZone:      inventory.Zone(transitTo.String),
			MovementID:  inventory.MovementID(transitMove.String),
			InitiatedAt: initiatedAt,
			InitiatedBy: transitBy.String,
		}
	}
	return p, nil
}

// =============================================================================
// MOVEMENT LEDGER
// =============================================================================

func (s *Store) AppendMovement(ctx context.Context, e inventory.MovementEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zone_movements (id, pallet_id, from_zone, to_zone, quantity,
			moved_by, reason, override_reason, order_reference, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), string(e.PalletID), string(e.FromZone), string(e.ToZone),
		e.Quantity.String(), e.MovedBy, e.Reason, e.OverrideReason, e.OrderReference,
		string(e.Status), e.CreatedAt.Format(timeLayout),
	)
	return err
}

func (s *Store) GetMovement(ctx context.Context, id inventory.MovementID) (*inventory.MovementEntry, error) {
	entries, err := s.queryMovements(ctx, `SELECT `+movementColumns+` FROM zone_movements WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *Store) UpdateMovement(ctx context.Context, e inventory.MovementEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE zone_movements SET
			status = ?,
			received_at = ?, received_by = ?,
			cancelled_at = ?, cancelled_by = ?, escalation_reason = ?,
			auto_reverted_at = ?
		WHERE id = ?`,
		string(e.Status),
		nullTime(e.ReceivedAt), nullString(e.ReceivedBy),
		nullTime(e.CancelledAt), nullString(e.CancelledBy), nullString(e.EscalationReason),
		nullTime(e.AutoRevertedAt),
		string(e.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("movement %s not found", e.ID)
	}
	return err
}

func (s *Store) ListMovements(ctx context.Context, f inventory.MovementFilter) ([]inventory.MovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM zone_movements WHERE 1=1`
	var args []any
	if f.PalletID != "" {
		query += ` AND pallet_id = ?`
		args = append(args, string(f.PalletID))
	}
	if f.FromZone != "" {
		query += ` AND from_zone = ?`
		args = append(args, string(f.FromZone))
	}
	if f.ToZone != "" {
		query += ` AND to_zone = ?`
		args = append(args, string(f.ToZone))
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.From.Format(timeLayout))
	}
	if !f.To.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, f.To.Format(timeLayout))
	}
	query += ` ORDER BY created_at, id`
	return s.queryMovements(ctx, query, args...)
}

const movementColumns = `id, pallet_id, from_zone, to_zone, quantity, moved_by,
	reason, override_reason, order_reference, status, created_at,
	received_at, received_by, cancelled_at, cancelled_by, escalation_reason, auto_reverted_at`

func (s *Store) queryMovements(ctx context.Context, query string, args ...any) ([]inventory.MovementEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []inventory.MovementEntry
	for rows.Next() {
		e, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanMovement(rows *sql.Rows) (inventory.MovementEntry, error) {
	var (
		e                                          inventory.MovementEntry
		id, palletID, toZone, quantity, status     string
		fromZone, movedBy, reason, override, order sql.NullString
		createdAt                                  string
		receivedAt, receivedBy                     sql.NullString
		cancelledAt, cancelledBy, escalation       sql.NullString
		autoRevertedAt                             sql.NullString
	)

	if err := rows.Scan(&id, &palletID, &fromZone, &toZone, &quantity, &movedBy,
		&reason, &override, &order, &status, &createdAt,
		&receivedAt, &receivedBy, &cancelledAt, &cancelledBy, &escalation, &autoRevertedAt); err != nil {
		return e, err
	}

	e.ID = inventory.MovementID(id)
	e.PalletID = inventory.PalletID(palletID)
	e.FromZone = inventory.Zone(fromZone.String)
	e.ToZone = inventory.Zone(toZone)
	e.MovedBy = movedBy.String
	e.Reason = reason.String
	e.OverrideReason = override.String
	e.OrderReference = order.String
	e.Status = inventory.MovementStatus(status)
	e.ReceivedBy = receivedBy.String
	e.CancelledBy = cancelledBy.String
	e.EscalationReason = escalation.String

	var err error
	if e.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return e, fmt.Errorf("movement %s: bad quantity %q", id, quantity)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return e, err
	}
	if e.ReceivedAt, err = parseNullTime(receivedAt); err != nil {
		return e, err
	}
	if e.CancelledAt, err = parseNullTime(cancelledAt); err != nil {
		return e, err
	}
	if e.AutoRevertedAt, err = parseNullTime(autoRevertedAt); err != nil {
		return e, err
	}
	return e, nil
}

// =============================================================================
// ZONE CONFIG
// =============================================================================

func (s *Store) GetZoneConfig(ctx context.Context, zone inventory.Zone) (*inventory.ZoneConfig, error) {
	cfgs, err := s.queryZoneConfigs(ctx,
		`SELECT name, prefix, fifo_required, allows_splitting, shelf_life_days, default_status, next_pallet_number
		 FROM zone_config WHERE name = ?`, string(zone))
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, nil
	}
	return &cfgs[0], nil
}

func (s *Store) ListZoneConfigs(ctx context.Context) ([]inventory.ZoneConfig, error) {
	return s.queryZoneConfigs(ctx,
		`SELECT name, prefix, fifo_required, allows_splitting, shelf_life_days, default_status, next_pallet_number
		 FROM zone_config ORDER BY name`)
}

func (s *Store) SaveZoneConfig(ctx context.Context, cfg inventory.ZoneConfig) error {
	next := cfg.NextPalletNum
	if next <= 0 {
		next = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zone_config (name, prefix, fifo_required, allows_splitting, shelf_life_days, default_status, next_pallet_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			prefix = excluded.prefix,
			fifo_required = excluded.fifo_required,
			allows_splitting = excluded.allows_splitting,
			shelf_life_days = excluded.shelf_life_days,
			default_status = excluded.default_status`,
		string(cfg.Name), cfg.Prefix, boolInt(cfg.FIFORequired), boolInt(cfg.AllowsSplitting),
		cfg.ShelfLifeDays, string(cfg.DefaultStatus), next,
	)
	return err
}

// NextPalletNumber increments the zone counter under the store mutex so two
// concurrent splits never mint the same id.
func (s *Store) NextPalletNumber(ctx context.Context, zone inventory.Zone) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT next_pallet_number FROM zone_config WHERE name = ?`, string(zone)).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", inventory.ErrZoneNotFound, zone)
	}
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		n = 1
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE zone_config SET next_pallet_number = ? WHERE name = ?`, n+1, string(zone))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) queryZoneConfigs(ctx context.Context, query string, args ...any) ([]inventory.ZoneConfig, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []inventory.ZoneConfig
	for rows.Next() {
		var (
			cfg                   inventory.ZoneConfig
			name, status          string
			prefix                sql.NullString
			fifo, split           int
			shelfLife, nextNumber int
		)
		if err := rows.Scan(&name, &prefix, &fifo, &split, &shelfLife, &status, &nextNumber); err != nil {
			return nil, err
		}
		cfg.Name = inventory.Zone(name)
		cfg.Prefix = prefix.String
		cfg.FIFORequired = fifo != 0
		cfg.AllowsSplitting = split != 0
		cfg.ShelfLifeDays = shelfLife
		cfg.DefaultStatus = inventory.PalletStatus(status)
		cfg.NextPalletNum = nextNumber
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// =============================================================================
// SKU MAPPINGS
// =============================================================================

func (s *Store) ListMappings(ctx context.Context) ([]inventory.SKUZoneMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sku, allowed_zones_json, default_zone, requires_banding, shelf_life_days FROM sku_zone_mapping ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []inventory.SKUZoneMapping
	for rows.Next() {
		var (
			m                  inventory.SKUZoneMapping
			sku                string
			zonesJSON, defZone sql.NullString
			banding, shelfLife int
		)
		if err := rows.Scan(&sku, &zonesJSON, &defZone, &banding, &shelfLife); err != nil {
			return nil, err
		}
		m.SKU = inventory.SKU(sku)
		m.DefaultZone = inventory.Zone(defZone.String)
		m.RequiresBanding = banding != 0
		m.ShelfLifeDays = shelfLife
		if zonesJSON.Valid && zonesJSON.String != "" {
			if err := json.Unmarshal([]byte(zonesJSON.String), &m.AllowedZones); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SaveMapping(ctx context.Context, m inventory.SKUZoneMapping) error {
	zonesJSON, err := json.Marshal(m.AllowedZones)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sku_zone_mapping (sku, allowed_zones_json, default_zone, requires_banding, shelf_life_days)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sku) DO UPDATE SET
			allowed_zones_json = excluded.allowed_zones_json,
			default_zone = excluded.default_zone,
			requires_banding = excluded.requires_banding,
			shelf_life_days = excluded.shelf_life_days`,
		string(m.SKU), string(zonesJSON), string(m.DefaultZone), boolInt(m.RequiresBanding), m.ShelfLifeDays,
	)
	return err
}

// =============================================================================
// ROLES
// =============================================================================

func (s *Store) GetRole(ctx context.Context, actorID string) (inventory.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM roles WHERE actor_id = ?`, actorID).Scan(&role)
	if err == sql.ErrNoRows {
		return inventory.RoleNone, nil
	}
	if err != nil {
		return inventory.RoleNone, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	return inventory.Role(role), nil
}

func (s *Store) SaveRole(ctx context.Context, actorID string, role inventory.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roles (actor_id, role) VALUES (?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET role = excluded.role`,
		actorID, string(role))
	return err
}

// =============================================================================
// BIN CARDS
// =============================================================================

func (s *Store) SaveBinCard(ctx context.Context, rec inventory.BinCardRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bin_cards (id, zone, sku, shift_date, shift,
			opening_balance, moved_in, moved_out, system_closing, physical_count, variance,
			status, confirmed_by, confirmed_at, revoked_by, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			revoked_by = excluded.revoked_by,
			revoked_at = excluded.revoked_at`,
		rec.ID, string(rec.Zone), string(rec.SKU), rec.ShiftDate, string(rec.Shift),
		rec.OpeningBalance.String(), rec.MovedIn.String(), rec.MovedOut.String(),
		rec.SystemClosing.String(), rec.PhysicalCount.String(), rec.Variance.String(),
		string(rec.Status), rec.ConfirmedBy, rec.ConfirmedAt.Format(timeLayout),
		nullString(rec.RevokedBy), nullTime(rec.RevokedAt),
	)
	return err
}

func (s *Store) ListBinCards(ctx context.Context, f inventory.BinCardFilter) ([]inventory.BinCardRecord, error) {
	query := `SELECT ` + binCardColumns + ` FROM bin_cards WHERE 1=1`
	var args []any
	if f.Zone != "" {
		query += ` AND zone = ?`
		args = append(args, string(f.Zone))
	}
	if f.SKU != "" {
		query += ` AND sku = ?`
		args = append(args, string(f.SKU))
	}
	if f.Shift != "" {
		query += ` AND shift = ?`
		args = append(args, string(f.Shift))
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.ShiftDate != "" {
		query += ` AND shift_date = ?`
		args = append(args, f.ShiftDate)
	}
	if f.DateFrom != "" {
		query += ` AND shift_date >= ?`
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		query += ` AND shift_date <= ?`
		args = append(args, f.DateTo)
	}
	query += ` ORDER BY shift_date, confirmed_at`
	return s.queryBinCards(ctx, query, args...)
}

func (s *Store) GetConfirmedBinCard(ctx context.Context, zone inventory.Zone, sku inventory.SKU, shiftDate string, shift inventory.Shift) (*inventory.BinCardRecord, error) {
	recs, err := s.queryBinCards(ctx,
		`SELECT `+binCardColumns+` FROM bin_cards
		 WHERE zone = ? AND sku = ? AND shift_date = ? AND shift = ? AND status = ?
		 LIMIT 1`,
		string(zone), string(sku), shiftDate, string(shift), string(inventory.BinCardConfirmed))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

const binCardColumns = `id, zone, sku, shift_date, shift,
	opening_balance, moved_in, moved_out, system_closing, physical_count, variance,
	status, confirmed_by, confirmed_at, revoked_by, revoked_at`

func (s *Store) queryBinCards(ctx context.Context, query string, args ...any) ([]inventory.BinCardRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []inventory.BinCardRecord
	for rows.Next() {
		var (
			rec                             inventory.BinCardRecord
			id, zone, sku, shiftDate, shift string
			opening, in, outQ, closing      string
			physical, variance, status      string
			confirmedBy, revokedBy          sql.NullString
			confirmedAt                     string
			revokedAt                       sql.NullString
		)
		if err := rows.Scan(&id, &zone, &sku, &shiftDate, &shift,
			&opening, &in, &outQ, &closing, &physical, &variance,
			&status, &confirmedBy, &confirmedAt, &revokedBy, &revokedAt); err != nil {
			return nil, err
		}
		rec.ID = id
		rec.Zone = inventory.Zone(zone)
		rec.SKU = inventory.SKU(sku)
		rec.ShiftDate = shiftDate
		rec.Shift = inventory.Shift(shift)
		rec.Status = inventory.BinCardStatus(status)
		rec.ConfirmedBy = confirmedBy.String
		rec.RevokedBy = revokedBy.String

		var err error
		if rec.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
			return nil, err
		}
		if rec.MovedIn, err = decimal.NewFromString(in); err != nil {
			return nil, err
		}
		if rec.MovedOut, err = decimal.NewFromString(outQ); err != nil {
			return nil, err
		}
		if rec.SystemClosing, err = decimal.NewFromString(closing); err != nil {
			return nil, err
		}
		if rec.PhysicalCount, err = decimal.NewFromString(physical); err != nil {
			return nil, err
		}
		if rec.Variance, err = decimal.NewFromString(variance); err != nil {
			return nil, err
		}
		if rec.ConfirmedAt, err = time.Parse(timeLayout, confirmedAt); err != nil {
			return nil, err
		}
		if rec.RevokedAt, err = parseNullTime(revokedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears every table. Development and scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"pallets", "zone_movements", "zone_config", "sku_zone_mapping", "roles", "bin_cards"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
