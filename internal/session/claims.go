package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Claims is the strongly typed partial identity embedded in an access token.
// It backs the degraded-identity fallback when the directory is unreachable;
// callers never see whether an identity came from claims or a full lookup.
type Claims struct {
	UserID   int64
	Email    string
	Name     string
	TenantID int64
	Role     rbac.Role
}

// Identity converts the claims into a session identity.
func (c Claims) Identity() *Identity {
	return &Identity{
		ID:       c.UserID,
		Email:    c.Email,
		Name:     c.Name,
		TenantID: c.TenantID,
		Role:     c.Role,
	}
}

type accessClaims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

const tokenIssuer = "ledgerdesk"

func signAccessToken(secret []byte, ident *Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := accessClaims{
		Email:    ident.Email,
		Name:     ident.Name,
		Role:     ident.Role.String(),
		TenantID: ident.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(ident.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseClaims verifies the token signature and expiry and extracts the typed
// claims. A role claim that does not map to a known role is kept as
// RoleUnknown, which holds no permissions.
func parseClaims(secret []byte, token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	raw, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return Claims{}, shared.ErrInvalidToken
	}
	userID, err := strconv.ParseInt(raw.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, fmt.Errorf("%w: bad subject", shared.ErrInvalidToken)
	}
	role, _ := rbac.ParseRole(raw.Role)
	return Claims{
		UserID:   userID,
		Email:    raw.Email,
		Name:     raw.Name,
		TenantID: raw.TenantID,
		Role:     role,
	}, nil
}
