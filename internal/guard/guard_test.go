package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	_ "github.com/ledgerdesk/ledgerdesk/testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func serve(t *testing.T, mw func(http.Handler) http.Handler, snap *session.Snapshot) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if snap != nil {
		req = req.WithContext(session.ContextWithSnapshot(req.Context(), *snap))
	}
	res := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(res, req)
	return res
}

func authedAs(role rbac.Role) *session.Snapshot {
	return &session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &session.Identity{ID: 1, Email: "user@acme.test", TenantID: 2, Role: role},
	}
}

func anonymous() *session.Snapshot {
	snap := session.Anonymous()
	return &snap
}

func TestRoleGateRedirectsUnauthenticatedToLogin(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	res := serve(t, g.RequirePlatformAdmin(), anonymous())
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestRoleGateDeniesTenantRoleOnAdminArea(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	res := serve(t, g.RequirePlatformAdmin(), authedAs(rbac.RoleStaff))
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/app", res.Header().Get("Location"), "staff is sent to the tenant dashboard")
}

func TestRoleGateDeniesPlatformAdminOnTenantArea(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	res := serve(t, g.RequireTenantUser(), authedAs(rbac.RolePlatformAdmin))
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/admin", res.Header().Get("Location"))
}

func TestRoleGateAdmitsMatchingRole(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	require.Equal(t, http.StatusOK, serve(t, g.RequirePlatformAdmin(), authedAs(rbac.RolePlatformAdmin)).Code)
	require.Equal(t, http.StatusOK, serve(t, g.RequireTenantUser(), authedAs(rbac.RoleViewer)).Code)
}

func TestRoleGateAllowList(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	gate := g.RequireRoles(rbac.RoleTenantOwner, rbac.RoleTenantAdmin)
	require.Equal(t, http.StatusOK, serve(t, gate, authedAs(rbac.RoleTenantAdmin)).Code)

	res := serve(t, gate, authedAs(rbac.RoleStaff))
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/app", res.Header().Get("Location"))
}

func TestResourceGateViewAdmitsManageDenies(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	viewer := authedAs(rbac.RoleViewer)

	view := serve(t, g.RequirePermission(rbac.ResourceInventory, rbac.ActionView, ""), viewer)
	require.Equal(t, http.StatusOK, view.Code)

	manage := serve(t, g.RequirePermission(rbac.ResourceInventory, rbac.ActionManage, ""), viewer)
	require.Equal(t, http.StatusSeeOther, manage.Code)
	require.Equal(t, "/app", manage.Header().Get("Location"))
}

func TestResourceGateHonoursRedirectTarget(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	res := serve(t, g.RequirePermission(rbac.ResourceTeam, rbac.ActionManage, "/app/settings"), authedAs(rbac.RoleTenantAdmin))
	require.Equal(t, http.StatusSeeOther, res.Code)
	require.Equal(t, "/app/settings", res.Header().Get("Location"))
}

func TestInlineGateAnswersProblemInsteadOfRedirect(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)

	denied := serve(t, g.RequirePermissionInline(rbac.ResourceInventory, rbac.ActionManage), authedAs(rbac.RoleStaff))
	require.Equal(t, http.StatusForbidden, denied.Code)
	require.Contains(t, denied.Body.String(), "Access Denied")

	anon := serve(t, g.RequirePermissionInline(rbac.ResourceInventory, rbac.ActionView), anonymous())
	require.Equal(t, http.StatusUnauthorized, anon.Code)
}

func TestGuardsRefuseToDecideOnUnresolvedSession(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	for name, mw := range map[string]func(http.Handler) http.Handler{
		"role":     g.RequireTenantUser(),
		"resource": g.RequirePermission(rbac.ResourceSales, rbac.ActionView, ""),
		"inline":   g.RequirePermissionInline(rbac.ResourceSales, rbac.ActionView),
	} {
		res := serve(t, mw, nil)
		require.Equal(t, http.StatusServiceUnavailable, res.Code, "%s gate must not decide while loading", name)
		require.Empty(t, res.Header().Get("Location"), "%s gate must not redirect while loading", name)
	}
}

func TestGuardDecisionIdempotent(t *testing.T) {
	g := guard.New(guard.DefaultPaths(), nil, nil)
	gate := g.RequirePermission(rbac.ResourceSales, rbac.ActionManage, "")
	staff := authedAs(rbac.RoleStaff)
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, serve(t, gate, staff).Code)
	}
}

func TestHomeForRoutesByRole(t *testing.T) {
	p := guard.DefaultPaths()
	require.Equal(t, "/admin", p.HomeFor(rbac.RolePlatformAdmin))
	require.Equal(t, "/app", p.HomeFor(rbac.RoleTenantAdmin))
	require.Equal(t, "/app", p.HomeFor(rbac.RoleUnknown))
}
