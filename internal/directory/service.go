package directory

import (
	"context"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Service resolves identities and answers team queries. It implements
// session.IdentityResolver.
type Service struct {
	repo *Repository
}

// NewService builds Service instance.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Resolve is the "who am I" lookup consumed by the session manager. An
// unknown role string in the database maps to RoleUnknown, which holds no
// permissions.
func (s *Service) Resolve(ctx context.Context, userID int64) (*session.Identity, error) {
	row, err := s.repo.FindIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, _ := rbac.ParseRole(row.Role)
	ident := &session.Identity{
		ID:    row.ID,
		Email: row.Email,
		Name:  row.Name,
		Role:  role,
	}
	if row.TenantID != nil {
		ident.TenantID = *row.TenantID
	}
	return ident, nil
}

// ListMembers returns the team roster for a tenant.
func (s *Service) ListMembers(ctx context.Context, tenantID int64) ([]Member, error) {
	return s.repo.ListMembers(ctx, tenantID)
}

// ListTenants returns one page of tenants plus pagination metadata.
func (s *Service) ListTenants(ctx context.Context, page, perPage int) ([]Tenant, shared.Pagination, error) {
	total, err := s.repo.CountTenants(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	tenants, err := s.repo.ListTenants(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return tenants, pagination, nil
}
