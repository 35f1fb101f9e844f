package auth

import "time"

// User represents an authenticated user account. TenantID is nil for
// platform admins.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	TenantID     *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
