// Package memory provides an in-memory implementation of transport.RecordStore
// for testing and lightweight deployments. Records are stored in memory and
// lost when the process restarts. An optional per-collection size limit
// evicts the oldest record first.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/storage"
	"github.com/rhuss/keygate/pkg/transport"
)

// collection keeps records in insertion order with an ID index.
type collection[T any] struct {
	order []string
	byID  map[string]T
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{byID: make(map[string]T)}
}

func (c *collection[T]) insert(id string, v T, maxSize int) error {
	if _, exists := c.byID[id]; exists {
		return storage.ErrConflict
	}
	if maxSize > 0 && len(c.order) >= maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.byID, oldest)
	}
	c.order = append(c.order, id)
	c.byID[id] = v
	return nil
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Store is an in-memory RecordStore.
type Store struct {
	mu        sync.RWMutex
	customers *collection[api.Customer]
	callLogs  *collection[api.CallLog]
	items     *collection[api.Item]
	maxSize   int // 0 = unlimited
	now       func() time.Time
}

// Ensure Store implements transport.RecordStore at compile time.
var _ transport.RecordStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, each collection grows
// without limit. If maxSize > 0, the oldest record of a collection is
// evicted when its limit is reached.
func New(maxSize int) *Store {
	return &Store{
		customers: newCollection[api.Customer](),
		callLogs:  newCollection[api.CallLog](),
		items:     newCollection[api.Item](),
		maxSize:   maxSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FindCustomer returns the earliest inserted customer with the given customerId.
func (s *Store) FindCustomer(_ context.Context, customerID string) (*api.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.customers.order {
		c := s.customers.byID[id]
		if c.CustomerID == customerID {
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListCustomers returns all customers in insertion order.
func (s *Store) ListCustomers(_ context.Context) ([]api.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers.list(), nil
}

// InsertCustomer stores a customer. An empty ID is generated; CreatedAt
// is always set to the insertion time.
func (s *Store) InsertCustomer(_ context.Context, c api.Customer) (*api.Customer, error) {
	if c.ID == "" {
		c.ID = api.NewCustomerID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.CreatedAt = s.now()
	if err := s.customers.insert(c.ID, c, s.maxSize); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCallLogs returns all call logs in insertion order.
func (s *Store) ListCallLogs(_ context.Context) ([]api.CallLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callLogs.list(), nil
}

// InsertCallLog stores a call log.
func (s *Store) InsertCallLog(_ context.Context, l api.CallLog) (*api.CallLog, error) {
	if l.ID == "" {
		l.ID = api.NewCallLogID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l.CreatedAt = s.now()
	if err := s.callLogs.insert(l.ID, l, s.maxSize); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListItems returns all items in insertion order.
func (s *Store) ListItems(_ context.Context) ([]api.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.list(), nil
}

// InsertItem stores an item.
func (s *Store) InsertItem(_ context.Context, item api.Item) (*api.Item, error) {
	if item.ID == "" {
		item.ID = api.NewItemID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.CreatedAt = s.now()
	if err := s.items.insert(item.ID, item, s.maxSize); err != nil {
		return nil, err
	}
	return &item, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
