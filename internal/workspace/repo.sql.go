package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerdesk/ledgerdesk/internal/platform/db"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Every query is scoped
// by tenant id; the tenant comes from the session, never from the request
// body.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DashboardSummary counts the headline figures for a tenant.
func (r *Repository) DashboardSummary(ctx context.Context, tenantID int64) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM inventory_items WHERE tenant_id = $1),
			(SELECT COUNT(*) FROM sales WHERE tenant_id = $1),
			(SELECT COUNT(*) FROM invoices WHERE tenant_id = $1),
			(SELECT COUNT(*) FROM customers WHERE tenant_id = $1)`,
		tenantID,
	).Scan(&s.Items, &s.Sales, &s.Invoices, &s.Customers)
	return s, err
}

// ListItems returns inventory for a tenant ordered by SKU.
func (r *Repository) ListItems(ctx context.Context, tenantID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sku, name, quantity, created_at FROM inventory_items WHERE tenant_id = $1 ORDER BY sku`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateItem inserts an inventory item. A duplicate SKU within the tenant
// maps to a validation error rather than a raw constraint failure.
func (r *Repository) CreateItem(ctx context.Context, tenantID int64, sku, name string, quantity int64) (Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx,
		`INSERT INTO inventory_items (tenant_id, sku, name, quantity, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING id, sku, name, quantity, created_at`,
		tenantID, sku, name, quantity,
	).Scan(&it.ID, &it.SKU, &it.Name, &it.Quantity, &it.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_inventory_items_tenant_sku" {
			return Item{}, fmt.Errorf("%w: sku already exists", ErrDuplicate)
		}
		return Item{}, err
	}
	return it, nil
}

// ListSales returns sales for a tenant, newest first.
func (r *Repository) ListSales(ctx context.Context, tenantID int64) ([]Sale, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_id, total_cents, created_at FROM sales WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Total, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// CreateSale records a sale against a customer of the same tenant.
func (r *Repository) CreateSale(ctx context.Context, tenantID, customerID, total int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sales (tenant_id, customer_id, total_cents, created_at)
		 SELECT $1, id, $3, NOW() FROM customers WHERE id = $2 AND tenant_id = $1
		 RETURNING id, customer_id, total_cents, created_at`,
		tenantID, customerID, total,
	).Scan(&s.ID, &s.CustomerID, &s.Total, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

// ListInvoices returns invoices for a tenant, newest first.
func (r *Repository) ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sale_id, number, total_cents, created_at FROM invoices WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.SaleID, &inv.Number, &inv.Total, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// CreateInvoice generates an invoice from a sale inside one transaction so
// the invoice number sequence stays gapless per tenant.
func (r *Repository) CreateInvoice(ctx context.Context, tenantID, saleID int64) (Invoice, error) {
	var inv Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var total int64
		if err := tx.QueryRow(ctx,
			`SELECT total_cents FROM sales WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
			saleID, tenantID,
		).Scan(&total); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		var seq int64
		if err := tx.QueryRow(ctx,
			`UPDATE tenants SET invoice_seq = invoice_seq + 1 WHERE id = $1 RETURNING invoice_seq`,
			tenantID,
		).Scan(&seq); err != nil {
			return err
		}
		number := fmt.Sprintf("INV-%d-%06d", time.Now().Year(), seq)
		return tx.QueryRow(ctx,
			`INSERT INTO invoices (tenant_id, sale_id, number, total_cents, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING id, sale_id, number, total_cents, created_at`,
			tenantID, saleID, number, total,
		).Scan(&inv.ID, &inv.SaleID, &inv.Number, &inv.Total, &inv.CreatedAt)
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// ListCustomers returns customers for a tenant ordered by name.
func (r *Repository) ListCustomers(ctx context.Context, tenantID int64) ([]Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at FROM customers WHERE tenant_id = $1 ORDER BY name, id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CreateCustomer inserts a customer record.
func (r *Repository) CreateCustomer(ctx context.Context, tenantID int64, name, email string) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (tenant_id, name, email, created_at) VALUES ($1, $2, $3, NOW()) RETURNING id, name, email, created_at`,
		tenantID, name, email,
	).Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

// GetBranding loads the tenant's branding settings.
func (r *Repository) GetBranding(ctx context.Context, tenantID int64) (Branding, error) {
	var b Branding
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(brand_color, ''), COALESCE(logo_url, '') FROM tenants WHERE id = $1`,
		tenantID,
	).Scan(&b.BrandColor, &b.LogoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branding{}, shared.ErrNotFound
		}
		return Branding{}, err
	}
	return b, nil
}

// UpdateBranding stores the tenant's branding settings.
func (r *Repository) UpdateBranding(ctx context.Context, tenantID int64, branding Branding) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET brand_color = $2, logo_url = $3 WHERE id = $1`,
		tenantID, branding.BrandColor, branding.LogoURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateProfileName renames the caller's own account.
func (r *Repository) UpdateProfileName(ctx context.Context, userID int64, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`,
		userID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Store = (*Repository)(nil)
