/*
Package sqlite provides the SQLite-backed store for the payroll service.

PURPOSE:
  Persists every record class the service owns - organizations, users,
  invitations, sections, workers, styles, style rates, production logs,
  and bonus rules - and implements the payroll.Store read contract the
  computation engine depends on. In production the same patterns apply
  to PostgreSQL; only minor SQL dialect differences.

MONEY:
  Rates, thresholds, and bonus values are stored as decimal strings and
  parsed with shopspring/decimal on read. No float columns anywhere a
  money value lives.

DATES:
  Calendar dates (production dates, rate validity bounds, rule windows)
  are stored as ISO "YYYY-MM-DD" TEXT, so SQL range comparisons and the
  engine's lexicographic ordering agree. Timestamps are RFC3339 TEXT.

TENANCY:
  Every record carries organization_id and every list query filters by
  it. Point lookups by primary key are pre-scoped by construction: ids
  are only ever handed out inside their organization.

KEY INDEXES:
  idx_production_worker_date: the engine's period fetch (hot path)
  idx_rates_style_effective:  rate-set fetch per style
  idx_workers_manual_id:      UNIQUE per-organization manual ids
  idx_invitations_token:      UNIQUE invitation token lookup

CONCURRENCY:
  Opened in WAL mode; a sync.RWMutex serializes writers. With a real
  database server the mutex goes away and row-level locking takes over.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: the read contract the engine consumes
  - payroll/store/memory.go: in-memory implementation for engine tests
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/payroll"
)

// Store implements persistence for all record classes using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
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
	-- Organizations (tenancy roots)
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		invite_code TEXT NOT NULL,
		created_by TEXT NOT NULL,
		address_line1 TEXT,
		address_line2 TEXT,
		city TEXT,
		state TEXT,
		postal_code TEXT,
		country TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_organizations_invite_code
		ON organizations(invite_code);

	-- Users (mirrored from the external identity provider)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		organization_id TEXT,
		role TEXT NOT NULL DEFAULT 'pending',
		onboarded BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_users_organization
		ON users(organization_id);

	-- Invitations (single-use, expiring tokens)
	CREATE TABLE IF NOT EXISTS invitations (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		invited_by TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		token TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_token
		ON invitations(token);
	CREATE INDEX IF NOT EXISTS idx_invitations_organization
		ON invitations(organization_id);
	CREATE INDEX IF NOT EXISTS idx_invitations_email
		ON invitations(email, status);

	-- Sections (production lines)
	CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		manager_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sections_organization
		ON sections(organization_id);

	-- Workers (the people being paid)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		section_id TEXT NOT NULL,
		name TEXT NOT NULL,
		manual_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workers_organization
		ON workers(organization_id);
	CREATE INDEX IF NOT EXISTS idx_workers_section
		ON workers(section_id);

	-- CRITICAL: a human-assigned manual id is unique within its
	-- organization. Empty manual ids are exempt.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_workers_manual_id
		ON workers(organization_id, manual_id)
		WHERE manual_id IS NOT NULL AND manual_id != '';

	-- Styles (garment designs with piece rates)
	CREATE TABLE IF NOT EXISTS styles (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_styles_organization
		ON styles(organization_id);

	-- Style rates (time-versioned pricing intervals; overlaps allowed,
	-- resolution is the engine's job)
	CREATE TABLE IF NOT EXISTS style_rates (
		id TEXT PRIMARY KEY,
		style_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rates_style_effective
		ON style_rates(style_id, effective_date);
	CREATE INDEX IF NOT EXISTS idx_rates_organization
		ON style_rates(organization_id);

	-- Production logs (one row per worker/style/date output record)
	CREATE TABLE IF NOT EXISTS production_logs (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		style_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		production_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_production_worker_date
		ON production_logs(worker_id, production_date);
	CREATE INDEX IF NOT EXISTS idx_production_org_date
		ON production_logs(organization_id, production_date);
	CREATE INDEX IF NOT EXISTS idx_production_style_date
		ON production_logs(style_id, production_date);

	-- Bonus rules
	CREATE TABLE IF NOT EXISTS bonus_rules (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		criteria_type TEXT NOT NULL,
		threshold TEXT NOT NULL,
		bonus_type TEXT NOT NULL,
		bonus_value TEXT NOT NULL,
		apply_on TEXT NOT NULL,
		style_id TEXT,
		section_id TEXT,
		active BOOLEAN DEFAULT TRUE,
		effective_date TEXT,
		end_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rules_organization
		ON bonus_rules(organization_id);
	CREATE INDEX IF NOT EXISTS idx_rules_org_active
		ON bonus_rules(organization_id, active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"production_logs", "style_rates", "bonus_rules", "workers",
		"styles", "sections", "invitations", "users", "organizations",
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullDate converts an optional calendar date for storage.
func nullDate(d *payroll.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// datePtr converts a nullable column back to an optional date.
func datePtr(ns sql.NullString) *payroll.Date {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d := payroll.Date(ns.String)
	return &d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
