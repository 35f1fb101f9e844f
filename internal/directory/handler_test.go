package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

type stubConsole struct {
	tenants []Tenant
	members map[int64][]Member
}

func (s *stubConsole) ListTenants(ctx context.Context, page, perPage int) ([]Tenant, shared.Pagination, error) {
	return s.tenants, shared.NewPagination(page, perPage, len(s.tenants)), nil
}

func (s *stubConsole) ListMembers(ctx context.Context, tenantID int64) ([]Member, error) {
	return s.members[tenantID], nil
}

func newAdminRouter(console Console) http.Handler {
	handler := NewHandler(nil, console, guard.New(guard.DefaultPaths(), nil, nil))
	r := chi.NewRouter()
	r.Route("/admin", handler.MountRoutes)
	return r
}

func adminServe(h http.Handler, role rbac.Role, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	snap := session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &session.Identity{ID: 1, Email: "root@ledgerdesk.test", Role: role},
	}
	req = req.WithContext(session.ContextWithSnapshot(req.Context(), snap))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminTenantListing(t *testing.T) {
	console := &stubConsole{
		tenants: []Tenant{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}},
	}
	router := newAdminRouter(console)

	rec := adminServe(router, rbac.RolePlatformAdmin, "/admin/tenants?page=1&per_page=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tenants    []Tenant `json:"tenants"`
		Page       int      `json:"page"`
		Total      int      `json:"total"`
		TotalPages int      `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tenants, 2)
	require.Equal(t, 1, body.Page)
	require.Equal(t, 2, body.Total)
	require.Equal(t, 1, body.TotalPages)
}

func TestAdminMemberListing(t *testing.T) {
	console := &stubConsole{
		members: map[int64][]Member{2: {{ID: 9, Email: "ops@globex.test", Role: "STAFF"}}},
	}
	router := newAdminRouter(console)

	rec := adminServe(router, rbac.RolePlatformAdmin, "/admin/tenants/2/members")
	require.Equal(t, http.StatusOK, rec.Code)

	var members []Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)
	require.Equal(t, "ops@globex.test", members[0].Email)

	rec = adminServe(router, rbac.RolePlatformAdmin, "/admin/tenants/nope/members")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantRolesCannotReachConsole(t *testing.T) {
	router := newAdminRouter(&stubConsole{})

	for _, role := range []rbac.Role{rbac.RoleTenantOwner, rbac.RoleTenantAdmin, rbac.RoleStaff, rbac.RoleViewer} {
		rec := adminServe(router, role, "/admin/tenants")
		require.Equal(t, http.StatusSeeOther, rec.Code, role.String())
		require.Equal(t, "/app", rec.Header().Get("Location"), role.String())
	}
}
