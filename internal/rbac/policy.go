package rbac

// Action is the permission level requested on a resource.
type Action int

const (
	ActionView Action = iota + 1
	ActionManage
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionManage:
		return "manage"
	}
	return "unknown"
}

// Permission pairs an action with a resource, e.g. manage inventory.
type Permission struct {
	Action   Action
	Resource Resource
}

// View builds a view permission for the resource.
func View(res Resource) Permission { return Permission{Action: ActionView, Resource: res} }

// Manage builds a manage permission for the resource.
func Manage(res Resource) Permission { return Permission{Action: ActionManage, Resource: res} }

// String returns the wire name of the permission, e.g. "manage_inventory".
func (p Permission) String() string {
	return p.Action.String() + "_" + p.Resource.String()
}

// policy is the authoritative role to permission mapping. Each role carries
// an explicit set rather than inheriting from a lower role: STAFF manages
// sales, invoices and customers but not inventory, and TENANT_ADMIN views but
// does not manage team, so no strict inheritance chain represents the policy.
// The asymmetries are intentional (operational versus administrative split)
// and must be preserved as-is.
var policy = map[Role]map[Permission]struct{}{
	RoleTenantOwner: permSet(
		View(ResourceDashboard),
		View(ResourceInventory), Manage(ResourceInventory),
		View(ResourceSales), Manage(ResourceSales),
		View(ResourceInvoices), Manage(ResourceInvoices),
		View(ResourceCustomers), Manage(ResourceCustomers),
		View(ResourceTeam), Manage(ResourceTeam),
		View(ResourceBranding), Manage(ResourceBranding),
		View(ResourceProfile), Manage(ResourceProfile),
	),
	RoleTenantAdmin: permSet(
		View(ResourceDashboard),
		View(ResourceInventory), Manage(ResourceInventory),
		View(ResourceSales), Manage(ResourceSales),
		View(ResourceInvoices), Manage(ResourceInvoices),
		View(ResourceCustomers), Manage(ResourceCustomers),
		View(ResourceTeam),
		View(ResourceProfile), Manage(ResourceProfile),
	),
	RoleStaff: permSet(
		View(ResourceDashboard),
		View(ResourceInventory),
		View(ResourceSales), Manage(ResourceSales),
		View(ResourceInvoices), Manage(ResourceInvoices),
		View(ResourceCustomers), Manage(ResourceCustomers),
		View(ResourceProfile), Manage(ResourceProfile),
	),
	RoleViewer: permSet(
		View(ResourceDashboard),
		View(ResourceInventory),
		View(ResourceSales),
		View(ResourceInvoices),
		View(ResourceCustomers),
		View(ResourceProfile),
	),
	// RolePlatformAdmin holds no tenant permissions; it is admitted by the
	// role gate, never by this table.
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// HasPermission reports whether the role holds the permission. It is a pure
// total function: unknown roles, resources or actions answer false rather
// than panicking, since permission checks sit on request hot paths.
func HasPermission(role Role, perm Permission) bool {
	set, ok := policy[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// CanView reports whether the role may read the resource.
func CanView(role Role, res Resource) bool {
	return HasPermission(role, View(res))
}

// CanManage reports whether the role may create, update or delete within the
// resource.
func CanManage(role Role, res Resource) bool {
	return HasPermission(role, Manage(res))
}

// Can dispatches on the requested action. Unknown actions answer false.
func Can(role Role, action Action, res Resource) bool {
	switch action {
	case ActionView:
		return CanView(role, res)
	case ActionManage:
		return CanManage(role, res)
	}
	return false
}

// Grants returns every permission held by the role, in resource order. Used
// by the permissions endpoint so clients can mirror server-side decisions.
func Grants(role Role) []Permission {
	set, ok := policy[role]
	if !ok {
		return nil
	}
	grants := make([]Permission, 0, len(set))
	for _, res := range Resources() {
		for _, action := range []Action{ActionView, ActionManage} {
			p := Permission{Action: action, Resource: res}
			if _, held := set[p]; held {
				grants = append(grants, p)
			}
		}
	}
	return grants
}
