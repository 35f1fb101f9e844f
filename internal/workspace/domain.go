package workspace

import "time"

// Summary is the dashboard headline for a tenant.
type Summary struct {
	Items     int64 `json:"items"`
	Sales     int64 `json:"sales"`
	Invoices  int64 `json:"invoices"`
	Customers int64 `json:"customers"`
}

// Item is a stocked product.
type Item struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Sale is a recorded sales order.
type Sale struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Total      int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// Invoice is a billing document generated from a sale.
type Invoice struct {
	ID        int64     `json:"id"`
	SaleID    int64     `json:"sale_id"`
	Number    string    `json:"number"`
	Total     int64     `json:"total_cents"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer is a tenant's customer record.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Branding holds the tenant's visual identity settings.
type Branding struct {
	BrandColor string `json:"brand_color"`
	LogoURL    string `json:"logo_url"`
}

// Profile is the caller's own account surface.
type Profile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
