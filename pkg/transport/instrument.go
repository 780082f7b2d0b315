package transport

import (
	"context"
	"time"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/debug"
	"github.com/rhuss/keygate/pkg/observability"
)

// InstrumentStore wraps a RecordStore so every call is counted and timed
// under the given backend label.
func InstrumentStore(backend string, next RecordStore) RecordStore {
	return &instrumentedStore{backend: backend, next: next}
}

type instrumentedStore struct {
	backend string
	next    RecordStore
}

func (s *instrumentedStore) observe(op string, start time.Time, err error, args ...any) {
	observability.ObserveStore(s.backend, op, start, err)
	if debug.Enabled("storage") {
		args = append([]any{"backend", s.backend, "op", op, "duration", time.Since(start)}, args...)
		if err != nil {
			args = append(args, "error", err)
		}
		debug.Log("storage", "store call", args...)
	}
}

func (s *instrumentedStore) FindCustomer(ctx context.Context, customerID string) (*api.Customer, error) {
	start := time.Now()
	c, err := s.next.FindCustomer(ctx, customerID)
	s.observe("find_customer", start, err, "customer_id", customerID)
	return c, err
}

func (s *instrumentedStore) ListCustomers(ctx context.Context) ([]api.Customer, error) {
	start := time.Now()
	out, err := s.next.ListCustomers(ctx)
	s.observe("list_customers", start, err, "count", len(out))
	return out, err
}

func (s *instrumentedStore) InsertCustomer(ctx context.Context, c api.Customer) (*api.Customer, error) {
	start := time.Now()
	saved, err := s.next.InsertCustomer(ctx, c)
	s.observe("insert_customer", start, err)
	return saved, err
}

func (s *instrumentedStore) ListCallLogs(ctx context.Context) ([]api.CallLog, error) {
	start := time.Now()
	out, err := s.next.ListCallLogs(ctx)
	s.observe("list_call_logs", start, err, "count", len(out))
	return out, err
}

func (s *instrumentedStore) InsertCallLog(ctx context.Context, l api.CallLog) (*api.CallLog, error) {
	start := time.Now()
	saved, err := s.next.InsertCallLog(ctx, l)
	s.observe("insert_call_log", start, err)
	return saved, err
}

func (s *instrumentedStore) ListItems(ctx context.Context) ([]api.Item, error) {
	start := time.Now()
	out, err := s.next.ListItems(ctx)
	s.observe("list_items", start, err, "count", len(out))
	return out, err
}

func (s *instrumentedStore) InsertItem(ctx context.Context, item api.Item) (*api.Item, error) {
	start := time.Now()
	saved, err := s.next.InsertItem(ctx, item)
	s.observe("insert_item", start, err)
	return saved, err
}

func (s *instrumentedStore) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := s.next.HealthCheck(ctx)
	s.observe("health_check", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
