package transport

import (
	"context"

	"github.com/rhuss/keygate/pkg/api"
)

// RecordStore handles persistence and retrieval of customer records,
// call logs, and items.
type RecordStore interface {
	// FindCustomer returns the first customer whose customerId matches.
	// Returns storage.ErrNotFound if there is none.
	FindCustomer(ctx context.Context, customerID string) (*api.Customer, error)

	// ListCustomers returns every stored customer, oldest first.
	ListCustomers(ctx context.Context) ([]api.Customer, error)

	// InsertCustomer stores a customer and returns it with its generated
	// ID and creation time.
	InsertCustomer(ctx context.Context, c api.Customer) (*api.Customer, error)

	// ListCallLogs returns every stored call log, oldest first.
	ListCallLogs(ctx context.Context) ([]api.CallLog, error)

	// InsertCallLog stores a call log and returns the stored record.
	InsertCallLog(ctx context.Context, l api.CallLog) (*api.CallLog, error)

	// ListItems returns every stored item, oldest first.
	ListItems(ctx context.Context) ([]api.Item, error)

	// InsertItem stores an item and returns the stored record.
	InsertItem(ctx context.Context, item api.Item) (*api.Item, error)

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
