package workspace

import (
	"context"
	"errors"
)

// ErrDuplicate marks unique-constraint conflicts surfaced to the caller as
// HTTP 409.
var ErrDuplicate = errors.New("duplicate entry")

// Store defines the persistence surface behind the workspace endpoints.
// Implemented by the PostgreSQL repository; tests stub it.
type Store interface {
	DashboardSummary(ctx context.Context, tenantID int64) (Summary, error)

	ListItems(ctx context.Context, tenantID int64) ([]Item, error)
	CreateItem(ctx context.Context, tenantID int64, sku, name string, quantity int64) (Item, error)

	ListSales(ctx context.Context, tenantID int64) ([]Sale, error)
	CreateSale(ctx context.Context, tenantID, customerID, total int64) (Sale, error)

	ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error)
	CreateInvoice(ctx context.Context, tenantID, saleID int64) (Invoice, error)

	ListCustomers(ctx context.Context, tenantID int64) ([]Customer, error)
	CreateCustomer(ctx context.Context, tenantID int64, name, email string) (Customer, error)

	GetBranding(ctx context.Context, tenantID int64) (Branding, error)
	UpdateBranding(ctx context.Context, tenantID int64, branding Branding) error

	UpdateProfileName(ctx context.Context, userID int64, name string) error
}
