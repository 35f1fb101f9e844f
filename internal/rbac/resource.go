package rbac

import "strings"

// Resource names a protected area of the product surface.
type Resource int

const (
	// ResourceUnknown is the zero value; no permission applies to it.
	ResourceUnknown Resource = iota
	ResourceDashboard
	ResourceInventory
	ResourceSales
	ResourceInvoices
	ResourceCustomers
	ResourceTeam
	ResourceBranding
	ResourceProfile
)

var resourceNames = map[Resource]string{
	ResourceDashboard: "dashboard",
	ResourceInventory: "inventory",
	ResourceSales:     "sales",
	ResourceInvoices:  "invoices",
	ResourceCustomers: "customers",
	ResourceTeam:      "team",
	ResourceBranding:  "branding",
	ResourceProfile:   "profile",
}

// Resources lists every known resource in display order.
func Resources() []Resource {
	return []Resource{
		ResourceDashboard,
		ResourceInventory,
		ResourceSales,
		ResourceInvoices,
		ResourceCustomers,
		ResourceTeam,
		ResourceBranding,
		ResourceProfile,
	}
}

// String returns the wire name of the resource.
func (res Resource) String() string {
	if name, ok := resourceNames[res]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the resource is one of the known variants.
func (res Resource) Valid() bool {
	_, ok := resourceNames[res]
	return ok
}

// ParseResource maps an untrusted string to a Resource. Unknown input yields
// ResourceUnknown and ok=false.
func ParseResource(s string) (Resource, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dashboard":
		return ResourceDashboard, true
	case "inventory":
		return ResourceInventory, true
	case "sales":
		return ResourceSales, true
	case "invoices":
		return ResourceInvoices, true
	case "customers":
		return ResourceCustomers, true
	case "team":
		return ResourceTeam, true
	case "branding":
		return ResourceBranding, true
	case "profile":
		return ResourceProfile, true
	}
	return ResourceUnknown, false
}
