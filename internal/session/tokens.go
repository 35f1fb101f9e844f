package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

const (
	// AccessCookie carries the signed access token for browser clients.
	AccessCookie = "ledgerdesk_token"
	// RefreshCookie carries the opaque refresh token.
	RefreshCookie = "ledgerdesk_refresh"
)

// Pair bundles the tokens issued on login or refresh-token exchange.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// TokenStore issues, reads and revokes tokens. Access tokens are signed JWTs
// carrying the identity claims; refresh tokens are opaque ids persisted in
// Redis with a TTL so revocation is immediate.
type TokenStore struct {
	client     *redis.Client
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, secret string, accessTTL, refreshTTL time.Duration, secure bool) *TokenStore {
	return &TokenStore{
		client:     client,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		secure:     secure,
	}
}

// Token extracts the access token from the request: Authorization bearer
// header for API clients, cookie for browsers. Empty when absent.
func (ts *TokenStore) Token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RefreshToken extracts the refresh token from the request.
func (ts *TokenStore) RefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// IsAuthenticated reports token presence only; validity is decided by
// ParseClaims during session resolution.
func (ts *TokenStore) IsAuthenticated(r *http.Request) bool {
	return ts.Token(r) != ""
}

// Issue signs an access token for the identity, persists a fresh refresh
// token and writes both cookies.
func (ts *TokenStore) Issue(ctx context.Context, w http.ResponseWriter, ident *Identity) (Pair, error) {
	now := time.Now()
	access, err := signAccessToken(ts.secret, ident, ts.accessTTL, now)
	if err != nil {
		return Pair{}, fmt.Errorf("session: sign access token: %w", err)
	}
	refresh := uuid.NewString()
	if err := ts.client.Set(ctx, refreshKey(refresh), strconv.FormatInt(ident.ID, 10), ts.refreshTTL).Err(); err != nil {
		return Pair{}, fmt.Errorf("session: persist refresh token: %w", err)
	}
	ts.writeCookie(w, AccessCookie, access, ts.accessTTL)
	ts.writeCookie(w, RefreshCookie, refresh, ts.refreshTTL)
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Redeem consumes a refresh token and returns the user it belongs to. The
// token is rotated: a redeemed token cannot be replayed.
func (ts *TokenStore) Redeem(ctx context.Context, refreshToken string) (int64, error) {
	if refreshToken == "" {
		return 0, shared.ErrInvalidToken
	}
	raw, err := ts.client.GetDel(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.ErrInvalidToken
		}
		return 0, fmt.Errorf("session: redeem refresh token: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, shared.ErrInvalidToken
	}
	return userID, nil
}

// Clear revokes the refresh token and expires both cookies. Redis errors are
// returned for logging but the cookies are always cleared.
func (ts *TokenStore) Clear(ctx context.Context, w http.ResponseWriter, refreshToken string) error {
	var err error
	if refreshToken != "" {
		err = ts.client.Del(ctx, refreshKey(refreshToken)).Err()
	}
	ts.ExpireCookies(w)
	return err
}

// ExpireCookies unconditionally drops the token cookies on the client.
func (ts *TokenStore) ExpireCookies(w http.ResponseWriter) {
	ts.writeCookie(w, AccessCookie, "", -time.Second)
	ts.writeCookie(w, RefreshCookie, "", -time.Second)
}

// RefreshTTL exposes the configured refresh-token lifetime.
func (ts *TokenStore) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

// ParseClaims verifies the access token and extracts its claims.
func (ts *TokenStore) ParseClaims(token string) (Claims, error) {
	return parseClaims(ts.secret, token)
}

func (ts *TokenStore) writeCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   ts.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, cookie)
}

func refreshKey(token string) string {
	return "refresh:" + token
}
