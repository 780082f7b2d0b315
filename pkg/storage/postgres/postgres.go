// Package postgres provides a PostgreSQL implementation of transport.RecordStore.
// It uses pgx/v5 for connection pooling and applies embedded schema
// migrations on startup.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/storage"
	"github.com/rhuss/keygate/pkg/transport"
)

// Store is a PostgreSQL-backed RecordStore.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Ensure Store implements transport.RecordStore at compile time.
var _ transport.RecordStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		pool: pool,
		// Postgres keeps microseconds; truncate so returned records match stored ones.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// FindCustomer returns the earliest inserted customer with the given customerId.
func (s *Store) FindCustomer(ctx context.Context, customerID string) (*api.Customer, error) {
	var c api.Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, name, account_status, created_at
		FROM customers
		WHERE customer_id = $1
		ORDER BY seq
		LIMIT 1
	`, customerID).Scan(&c.ID, &c.CustomerID, &c.Name, &c.AccountStatus, &c.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns all customers in insertion order.
func (s *Store) ListCustomers(ctx context.Context) ([]api.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, name, account_status, created_at
		FROM customers
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	out := []api.Customer{}
	for rows.Next() {
		var c api.Customer
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Name, &c.AccountStatus, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO customers (id, customer_id, name, account_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.CustomerID, c.Name, c.AccountStatus, c.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting customer: %w", err)
	}
	return &c, nil
}

// ListCallLogs returns all call logs in insertion order.
func (s *Store) ListCallLogs(ctx context.Context) ([]api.CallLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, caller, ivr_path, call_start, created_at
		FROM call_logs
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("listing call logs: %w", err)
	}
	defer rows.Close()

	out := []api.CallLog{}
	for rows.Next() {
		var l api.CallLog
		if err := rows.Scan(&l.ID, &l.Caller, &l.IVRPath, &l.CallStart, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning call log: %w", err)
		}
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO call_logs (id, caller, ivr_path, call_start, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, l.ID, l.Caller, l.IVRPath, l.CallStart, l.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting call log: %w", err)
	}
	return &l, nil
}

// ListItems returns all items in insertion order.
func (s *Store) ListItems(ctx context.Context) ([]api.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM items
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	out := []api.Item{}
	for rows.Next() {
		var it api.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO items (id, name, created_at)
		VALUES ($1, $2, $3)
	`, item.ID, item.Name, item.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, storage.ErrConflict
		}
		return nil, fmt.Errorf("inserting item: %w", err)
	}
	return &item, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
