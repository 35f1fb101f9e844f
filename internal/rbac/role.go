package rbac

import "strings"

// Role identifies the authority class of an authenticated principal.
// A user holds exactly one role per session; role changes require
// re-authentication.
type Role int

const (
	// RoleUnknown is the zero value and grants nothing.
	RoleUnknown Role = iota
	// RolePlatformAdmin operates the platform console. It has no
	// tenant-scoped permissions and is gated separately from tenant roles.
	RolePlatformAdmin
	// RoleTenantOwner has every permission within its tenant.
	RoleTenantOwner
	// RoleTenantAdmin manages day-to-day operations but not team or branding.
	RoleTenantAdmin
	// RoleStaff handles sales, invoices and customers.
	RoleStaff
	// RoleViewer has read-only access.
	RoleViewer
)

var roleNames = map[Role]string{
	RolePlatformAdmin: "PLATFORM_ADMIN",
	RoleTenantOwner:   "TENANT_OWNER",
	RoleTenantAdmin:   "TENANT_ADMIN",
	RoleStaff:         "STAFF",
	RoleViewer:        "VIEWER",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsPlatformAdmin reports whether the role belongs to the platform console.
func (r Role) IsPlatformAdmin() bool {
	return r == RolePlatformAdmin
}

// IsTenantRole reports whether the role is scoped to a tenant.
func (r Role) IsTenantRole() bool {
	switch r {
	case RoleTenantOwner, RoleTenantAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole maps an untrusted string (token claim, database column) to a
// Role. Unknown input yields RoleUnknown and ok=false; callers that ignore
// ok still fail closed because RoleUnknown holds no permissions.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PLATFORM_ADMIN":
		return RolePlatformAdmin, true
	case "TENANT_OWNER":
		return RoleTenantOwner, true
	case "TENANT_ADMIN":
		return RoleTenantAdmin, true
	case "STAFF":
		return RoleStaff, true
	case "VIEWER":
		return RoleViewer, true
	}
	return RoleUnknown, false
}
