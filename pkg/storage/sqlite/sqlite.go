// Package sqlite provides a file-backed implementation of transport.RecordStore
// using the pure-Go modernc.org/sqlite driver. It suits single-instance
// deployments that need records to survive restarts without a database
// server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/storage"
	"github.com/rhuss/keygate/pkg/transport"
)

// Config configures the SQLite store.
type Config struct {
	// Path is the database file. Created if missing.
	Path string

	// BusyTimeout is how long to wait for locks before failing (default: 5s).
	BusyTimeout time.Duration
}

// Store is a SQLite-backed RecordStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure Store implements transport.RecordStore at compile time.
var _ transport.RecordStore = (*Store)(nil)

// New opens (or creates) the database file, enables WAL journaling, and
// creates the schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite supports a single writer; one connection also keeps the
	// pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		fmt.Sprintf(`PRAGMA busy_timeout=%d;`, cfg.BusyTimeout.Milliseconds()),
		`PRAGMA synchronous=NORMAL;`,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			account_status TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_customers_customer_id ON customers(customer_id);`,
		`CREATE TABLE IF NOT EXISTS call_logs (
			id TEXT PRIMARY KEY,
			caller TEXT NOT NULL,
			ivr_path TEXT NOT NULL DEFAULT '',
			call_start INTEGER,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// FindCustomer returns the earliest inserted customer with the given customerId.
func (s *Store) FindCustomer(ctx context.Context, customerID string) (*api.Customer, error) {
	var (
		c       api.Customer
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, name, account_status, created_at
		FROM customers
		WHERE customer_id = ?
		ORDER BY rowid
		LIMIT 1
	`, customerID).Scan(&c.ID, &c.CustomerID, &c.Name, &c.AccountStatus, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer: %w", err)
	}
	c.CreatedAt = fromUnixNano(created)
	return &c, nil
}

// ListCustomers returns all customers in insertion order.
func (s *Store) ListCustomers(ctx context.Context) ([]api.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, name, account_status, created_at
		FROM customers
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	out := []api.Customer{}
	for rows.Next() {
		var (
			c       api.Customer
			created int64
		)
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Name, &c.AccountStatus, &created); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		c.CreatedAt = fromUnixNano(created)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customers: %w", err)
	}
	return out, nil
}

// InsertCustomer stores a customer.
func (s *Store) InsertCustomer(ctx context.Context, c api.Customer) (*api.Customer, error) {
	if c.ID == "" {
		c.ID = api.NewCustomerID()
	}
	c.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, customer_id, name, account_status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.CustomerID, c.Name, c.AccountStatus, c.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting customer: %w", err)
	}
	return &c, nil
}

// ListCallLogs returns all call logs in insertion order.
func (s *Store) ListCallLogs(ctx context.Context) ([]api.CallLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, caller, ivr_path, call_start, created_at
		FROM call_logs
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing call logs: %w", err)
	}
	defer rows.Close()

	out := []api.CallLog{}
	for rows.Next() {
		var (
			l       api.CallLog
			start   sql.NullInt64
			created int64
		)
		if err := rows.Scan(&l.ID, &l.Caller, &l.IVRPath, &start, &created); err != nil {
			return nil, fmt.Errorf("scanning call log: %w", err)
		}
		if start.Valid {
			t := fromUnixNano(start.Int64)
			l.CallStart = &t
		}
		l.CreatedAt = fromUnixNano(created)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating call logs: %w", err)
	}
	return out, nil
}

// InsertCallLog stores a call log.
func (s *Store) InsertCallLog(ctx context.Context, l api.CallLog) (*api.CallLog, error) {
	if l.ID == "" {
		l.ID = api.NewCallLogID()
	}
	l.CreatedAt = s.now()

	var start sql.NullInt64
	if l.CallStart != nil {
		start = sql.NullInt64{Int64: l.CallStart.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_logs (id, caller, ivr_path, call_start, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.ID, l.Caller, l.IVRPath, start, l.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting call log: %w", err)
	}
	return &l, nil
}

// ListItems returns all items in insertion order.
func (s *Store) ListItems(ctx context.Context) ([]api.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM items
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	out := []api.Item{}
	for rows.Next() {
		var (
			it      api.Item
			created int64
		)
		if err := rows.Scan(&it.ID, &it.Name, &created); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.CreatedAt = fromUnixNano(created)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return out, nil
}

// InsertItem stores an item.
func (s *Store) InsertItem(ctx context.Context, item api.Item) (*api.Item, error) {
	if item.ID == "" {
		item.ID = api.NewItemID()
	}
	item.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, created_at)
		VALUES (?, ?, ?)
	`, item.ID, item.Name, item.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting item: %w", err)
	}
	return &item, nil
}

// HealthCheck verifies the database file is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// isUniqueViolation reports a PRIMARY KEY or UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
