package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
)

func TestFailClosedForUnknownRole(t *testing.T) {
	for _, res := range rbac.Resources() {
		for _, action := range []rbac.Action{rbac.ActionView, rbac.ActionManage} {
			require.False(t, rbac.Can(rbac.RoleUnknown, action, res),
				"unknown role must hold no permission on %s", res)
			require.False(t, rbac.Can(rbac.Role(99), action, res),
				"out-of-range role must hold no permission on %s", res)
		}
	}
}

func TestFailClosedForUnknownResource(t *testing.T) {
	require.False(t, rbac.CanView(rbac.RoleTenantOwner, rbac.ResourceUnknown))
	require.False(t, rbac.CanManage(rbac.RoleTenantOwner, rbac.ResourceUnknown))
	require.False(t, rbac.Can(rbac.RoleTenantOwner, rbac.Action(0), rbac.ResourceSales))
}

func TestDashboardPartition(t *testing.T) {
	tenantRoles := []rbac.Role{rbac.RoleTenantOwner, rbac.RoleTenantAdmin, rbac.RoleStaff, rbac.RoleViewer}
	for _, role := range tenantRoles {
		require.True(t, rbac.CanView(role, rbac.ResourceDashboard), "role %s", role)
	}
	// Platform admin is gated separately and holds no tenant permission, but
	// querying the table must not panic.
	require.False(t, rbac.CanView(rbac.RolePlatformAdmin, rbac.ResourceDashboard))
}

func TestStaffAsymmetry(t *testing.T) {
	require.False(t, rbac.CanManage(rbac.RoleStaff, rbac.ResourceInventory))
	require.True(t, rbac.CanView(rbac.RoleStaff, rbac.ResourceInventory))
	require.True(t, rbac.CanManage(rbac.RoleStaff, rbac.ResourceSales))
	require.True(t, rbac.CanManage(rbac.RoleStaff, rbac.ResourceInvoices))
	require.True(t, rbac.CanManage(rbac.RoleStaff, rbac.ResourceCustomers))
	require.False(t, rbac.CanManage(rbac.RoleStaff, rbac.ResourceTeam))
	require.False(t, rbac.CanView(rbac.RoleStaff, rbac.ResourceTeam))
	require.False(t, rbac.CanView(rbac.RoleStaff, rbac.ResourceBranding))
}

func TestTenantAdminDeniedAdministrativeManage(t *testing.T) {
	require.True(t, rbac.CanView(rbac.RoleTenantAdmin, rbac.ResourceTeam))
	require.False(t, rbac.CanManage(rbac.RoleTenantAdmin, rbac.ResourceTeam))
	require.False(t, rbac.CanView(rbac.RoleTenantAdmin, rbac.ResourceBranding))
	require.False(t, rbac.CanManage(rbac.RoleTenantAdmin, rbac.ResourceBranding))
	require.True(t, rbac.CanManage(rbac.RoleTenantAdmin, rbac.ResourceInventory))
}

func TestViewerReadOnly(t *testing.T) {
	viewable := []rbac.Resource{
		rbac.ResourceDashboard,
		rbac.ResourceInventory,
		rbac.ResourceSales,
		rbac.ResourceInvoices,
		rbac.ResourceCustomers,
		rbac.ResourceProfile,
	}
	for _, res := range viewable {
		require.True(t, rbac.CanView(rbac.RoleViewer, res), "viewer should view %s", res)
	}
	for _, res := range rbac.Resources() {
		require.False(t, rbac.CanManage(rbac.RoleViewer, res), "viewer must not manage %s", res)
	}
	require.False(t, rbac.CanView(rbac.RoleViewer, rbac.ResourceTeam))
	require.False(t, rbac.CanView(rbac.RoleViewer, rbac.ResourceBranding))
}

func TestOwnerSuperset(t *testing.T) {
	for _, res := range rbac.Resources() {
		require.True(t, rbac.CanView(rbac.RoleTenantOwner, res), "owner should view %s", res)
	}
	managed := []rbac.Resource{
		rbac.ResourceInventory,
		rbac.ResourceSales,
		rbac.ResourceCustomers,
		rbac.ResourceTeam,
		rbac.ResourceBranding,
	}
	for _, res := range managed {
		require.True(t, rbac.CanManage(rbac.RoleTenantOwner, res), "owner should manage %s", res)
	}
}

func TestHasPermissionIdempotent(t *testing.T) {
	perm := rbac.Manage(rbac.ResourceSales)
	first := rbac.HasPermission(rbac.RoleStaff, perm)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, rbac.HasPermission(rbac.RoleStaff, perm))
	}
}

func TestParseRoleBoundary(t *testing.T) {
	role, ok := rbac.ParseRole(" tenant_owner ")
	require.True(t, ok)
	require.Equal(t, rbac.RoleTenantOwner, role)

	role, ok = rbac.ParseRole("superuser")
	require.False(t, ok)
	require.Equal(t, rbac.RoleUnknown, role)
	require.False(t, role.Valid())
}

func TestParseResourceBoundary(t *testing.T) {
	res, ok := rbac.ParseResource("Invoices")
	require.True(t, ok)
	require.Equal(t, rbac.ResourceInvoices, res)

	res, ok = rbac.ParseResource("payments")
	require.False(t, ok)
	require.Equal(t, rbac.ResourceUnknown, res)
}

func TestGrantsMirrorTable(t *testing.T) {
	for _, role := range []rbac.Role{rbac.RoleTenantOwner, rbac.RoleTenantAdmin, rbac.RoleStaff, rbac.RoleViewer} {
		for _, perm := range rbac.Grants(role) {
			require.True(t, rbac.HasPermission(role, perm))
		}
	}
	require.Empty(t, rbac.Grants(rbac.RolePlatformAdmin))
	require.Empty(t, rbac.Grants(rbac.RoleUnknown))
}
