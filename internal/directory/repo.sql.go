package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type identityRow struct {
	ID       int64
	Email    string
	Name     string
	Role     string
	TenantID *int64
	IsActive bool
}

// FindIdentity loads the identity columns for an active user.
func (r *Repository) FindIdentity(ctx context.Context, userID int64) (identityRow, error) {
	var row identityRow
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, role, tenant_id, is_active FROM users WHERE id = $1`,
		userID,
	).Scan(&row.ID, &row.Email, &row.Name, &row.Role, &row.TenantID, &row.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identityRow{}, shared.ErrNotFound
		}
		return identityRow{}, err
	}
	if !row.IsActive {
		return identityRow{}, shared.ErrNotFound
	}
	return row, nil
}

// ListMembers returns the members of a tenant ordered by name.
func (r *Repository) ListMembers(ctx context.Context, tenantID int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, role, is_active, created_at, updated_at FROM users WHERE tenant_id = $1 ORDER BY name, id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListTenants returns one console page of tenants.
func (r *Repository) ListTenants(ctx context.Context, limit, offset int) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, is_active, created_at FROM tenants ORDER BY name, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// CountTenants returns the total tenant count for pagination.
func (r *Repository) CountTenants(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total)
	return total, err
}
