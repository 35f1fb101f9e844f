package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	_ "github.com/ledgerdesk/ledgerdesk/testing"
)

type staticResolver struct {
	ident *session.Identity
}

func (s *staticResolver) Resolve(ctx context.Context, userID int64) (*session.Identity, error) {
	return s.ident, nil
}

func (s *staticResolver) RevokeSession(ctx context.Context, refreshToken string) error {
	return nil
}

func newTestStack(t *testing.T, inner http.HandlerFunc) (http.Handler, *session.Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := session.NewTokenStore(client, "test-secret", time.Hour, 24*time.Hour, false)
	resolver := &staticResolver{ident: &session.Identity{
		ID:       7,
		Email:    "owner@acme.local",
		Name:     "Owner",
		TenantID: 1,
		Role:     rbac.RoleTenantOwner,
	}}
	mgr := session.NewManager(resolver, resolver, tokens, nil)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionManager: mgr,
		CSRFManager:    shared.NewCSRFManager("csrf-secret"),
	}) {
		r.Use(mw)
	}
	r.Get("/", inner)
	return r, mgr
}

func expiredCookies(res *httptest.ResponseRecorder) map[string]bool {
	out := make(map[string]bool)
	for _, c := range res.Result().Cookies() {
		if c.MaxAge < 0 {
			out[c.Name] = true
		}
	}
	return out
}

func TestSessionMiddlewareDiscardsUndecodableToken(t *testing.T) {
	var seen session.Snapshot
	handler, _ := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		seen = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: "garbage.token.value"})
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "stale-refresh"})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, session.StateUnauthenticated, seen.State)
	require.Nil(t, seen.Identity)

	expired := expiredCookies(res)
	require.True(t, expired[session.AccessCookie], "access cookie should be expired")
	require.True(t, expired[session.RefreshCookie], "refresh cookie should be expired")
}

func TestSessionMiddlewareResolvesBeforeHandlers(t *testing.T) {
	var seen session.Snapshot
	handler, mgr := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		seen = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	issued := httptest.NewRecorder()
	pair, err := mgr.Establish(context.Background(), issued, &session.Identity{
		ID:       7,
		Email:    "owner@acme.local",
		TenantID: 1,
		Role:     rbac.RoleTenantOwner,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: pair.AccessToken})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, session.StateAuthenticated, seen.State)
	require.NotNil(t, seen.Identity)
	require.Equal(t, int64(7), seen.Identity.ID)
	require.Empty(t, expiredCookies(res), "valid session must not lose its cookies")
	require.NotEmpty(t, res.Header().Get(shared.CSRFHeader), "reads advertise the csrf token")
}

func TestAnonymousRequestCarriesNoSessionAndNoCSRFHeader(t *testing.T) {
	var seen session.Snapshot
	handler, _ := newTestStack(t, func(w http.ResponseWriter, r *http.Request) {
		seen = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, session.StateUnauthenticated, seen.State)
	require.Empty(t, expiredCookies(res))
	require.Empty(t, res.Header().Get(shared.CSRFHeader))
}
