// Package source fetches raw customer, asset, ticket and user records from a
// PSA system or a synthetic generator and decodes them into domain models.
package source

import (
	"context"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
)

// TicketWindow is how far back ticket history is requested.
const TicketWindow = 90 * 24 * time.Hour

// DataSource provides the raw inputs of one review.
type DataSource interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Customer(ctx context.Context, customerID string) (model.Customer, error)
	Assets(ctx context.Context, customerID string) ([]model.Asset, error)
	Tickets(ctx context.Context, customerID string) ([]model.Ticket, error)
	Users(ctx context.Context, customerID string) ([]model.User, error)
}

// CustomerLister is implemented by sources that can enumerate their whole
// client roster for import.
type CustomerLister interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
}
