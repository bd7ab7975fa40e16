/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  One database file holds everything the engine reads or writes:
  the short-leave ledger, short-leave requests, the policy document,
  the holiday calendar and the report inputs (employees, punches, leaves).

INTERFACES IMPLEMENTED:
  generic.Store:           Ledger persistence (append-only)
  generic.HolidayCalendar: HolidayInfo lookups
  shortleave.RequestStore: Request lifecycle
  report.Source:           Employees, punches and approved leaves
  factory.DocumentStore:   Versioned policy documents

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on ledger_entries
  - No DELETE statements on ledger_entries
  - Cancellations are reversal entries

KEY TABLES:
  ledger_entries:        Immutable allowance usage log
  short_leave_requests:  Requests and their decisions
  policies:              Policy documents (JSON), versioned
  holidays:              Calendar entries with kind
  employees:             Employee master data with group
  attendance_records:    Raw check-in/check-out per employee-day
  leaves:                Approved leave intervals

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory ledger store for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
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

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Allowance ledger (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		resource TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		delta_value TEXT NOT NULL,
		delta_unit TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_employee_resource_date
		ON ledger_entries(employee_id, resource, effective_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_reference
		ON ledger_entries(reference_id);

	-- Short-leave requests
	CREATE TABLE IF NOT EXISTS short_leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		group_name TEXT NOT NULL,
		leave_date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		decided_by TEXT,
		decided_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_short_leave_requests_employee
		ON short_leave_requests(employee_id, leave_date);
	CREATE INDEX IF NOT EXISTS idx_short_leave_requests_status
		ON short_leave_requests(status);

	-- Policy documents (versioned)
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Holiday calendar
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'government',
		recurring INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE(date, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		code TEXT,
		name TEXT NOT NULL,
		department TEXT,
		group_name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- Raw punches, one row per employee-day
	CREATE TABLE IF NOT EXISTS attendance_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, date),
		FOREIGN KEY (employee_id) REFERENCES employees(id) ON DELETE CASCADE
	);

	-- Approved leave intervals
	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		leave_type TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (employee_id) REFERENCES employees(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_employee ON leaves(employee_id, start_date, end_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE (generic.Store interface)
// =============================================================================

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata of %s: %w", tx.ID, err)
	}

	query := `
		INSERT INTO ledger_entries
		(id, employee_id, resource, effective_at, delta_value, delta_unit,
		 tx_type, reference_id, reason, idempotency_key, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		tx.ID,
		tx.EmployeeID,
		tx.Resource,
		tx.EffectiveAt.String(),
		tx.Delta.Value.String(),
		tx.Delta.Unit,
		tx.Type,
		tx.ReferenceID,
		tx.Reason,
		nullString(tx.IdempotencyKey),
		string(metadataJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// LoadRange returns transactions in [from, to], chronologically.
func (s *Store) LoadRange(ctx context.Context, employeeID generic.EmployeeID, resource string, from, to generic.TimePoint) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, resource, effective_at, delta_value, delta_unit,
			tx_type, reference_id, reason, idempotency_key, metadata_json
		FROM ledger_entries
		WHERE employee_id = ? AND resource = ? AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at, created_at, rowid
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID, resource, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []generic.Transaction
	for rows.Next() {
		var tx generic.Transaction
		var effectiveAt, deltaValue, deltaUnit, txType string
		var referenceID, reason, idempotencyKey, metadataJSON sql.NullString

		if err := rows.Scan(&tx.ID, &tx.EmployeeID, &tx.Resource, &effectiveAt, &deltaValue, &deltaUnit,
			&txType, &referenceID, &reason, &idempotencyKey, &metadataJSON); err != nil {
			return nil, err
		}

		tx.EffectiveAt, err = generic.ParseDate(effectiveAt)
		if err != nil {
			return nil, err
		}
		if tx.Delta, err = parseAmount(deltaValue, deltaUnit); err != nil {
			return nil, fmt.Errorf("ledger entry %s: %w", tx.ID, err)
		}
		tx.Type = generic.TransactionType(txType)
		tx.ReferenceID = referenceID.String
		tx.Reason = reason.String
		tx.IdempotencyKey = idempotencyKey.String
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &tx.Metadata); err != nil {
				return nil, fmt.Errorf("ledger entry %s metadata: %w", tx.ID, err)
			}
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Exists checks if the idempotency key has been used.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE idempotency_key = ?", idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// POLICY DOCUMENTS
// =============================================================================

// SavePolicyDocument upserts a policy document and bumps its version.
func (s *Store) SavePolicyDocument(ctx context.Context, id, configJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO policies (id, config_json, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			version = policies.version + 1,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, id, configJSON, now, now)
	return err
}

// LoadPolicyDocument returns the stored document, or found=false.
func (s *Store) LoadPolicyDocument(ctx context.Context, id string) (configJSON string, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	err = s.db.QueryRowContext(ctx, "SELECT config_json FROM policies WHERE id = ?", id).Scan(&configJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return configJSON, true, nil
}

// =============================================================================
// HOLIDAY CALENDAR (generic.HolidayCalendar)
// =============================================================================

// SaveHoliday saves a holiday and returns the ID it is stored under. Same
// date and name updates kind and recurrence of the existing row, which keeps
// its original ID.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, kind, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, name) DO UPDATE SET
			kind = excluded.kind,
			recurring = excluded.recurring
		RETURNING id
	`
	var id string
	err := s.db.QueryRowContext(ctx, query,
		h.ID, h.Date.String(), h.Name, string(h.Kind), h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrHolidayNotFound
	}
	return nil
}

// ListHolidays returns holidays in year (recurring ones always included).
// year <= 0 returns everything.
func (s *Store) ListHolidays(ctx context.Context, year int) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, date, name, kind, recurring FROM holidays"
	var args []any
	if year > 0 {
		query += " WHERE recurring = 1 OR substr(date, 1, 4) = ?"
		args = append(args, fmt.Sprintf("%04d", year))
	}
	query += " ORDER BY date, name"
	return s.queryHolidays(ctx, query, args...)
}

// HolidayInfo resolves the calendar state of date.
func (s *Store) HolidayInfo(ctx context.Context, date generic.TimePoint) (generic.HolidayInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holidays, err := s.queryHolidays(ctx,
		"SELECT id, date, name, kind, recurring FROM holidays WHERE date = ? OR (recurring = 1 AND substr(date, 6) = ?)",
		date.String(), date.Time.Format("01-02"),
	)
	if err != nil {
		return generic.HolidayInfo{}, err
	}
	return generic.ResolveHolidayInfo(date, holidays), nil
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]generic.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date, kind string
		if err := rows.Scan(&h.ID, &date, &h.Name, &kind, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, err = generic.ParseDate(date)
		if err != nil {
			return nil, err
		}
		h.Kind = generic.HolidayKind(kind)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"ledger_entries", "short_leave_requests", "policies", "holidays",
		"attendance_records", "leaves", "employees",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseAmount(value, unit string) (generic.Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return generic.Amount{}, fmt.Errorf("delta %q: %w", value, err)
	}
	return generic.Amount{Value: d, Unit: generic.Unit(unit)}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// parseTime reads an optional RFC 3339 column. NULL or empty is nil.
func parseTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
