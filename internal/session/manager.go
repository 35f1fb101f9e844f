package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// State is the session lifecycle phase observed by guards and handlers.
type State int

const (
	// StateLoading means the session has not been resolved yet. Guards must
	// not make an admit/deny decision against it.
	StateLoading State = iota
	// StateAuthenticated means a non-nil identity is present.
	StateAuthenticated
	// StateUnauthenticated means no valid identity exists.
	StateUnauthenticated
)

// Identity represents the authenticated principal. TenantID is zero for
// platform admins; Name is optional.
type Identity struct {
	ID       int64
	Email    string
	Name     string
	TenantID int64
	Role     rbac.Role
}

// Snapshot is an immutable view of the session at resolution time. Only the
// session middleware produces snapshots; everything downstream reads.
type Snapshot struct {
	State    State
	Identity *Identity
}

// Authenticated reports whether the snapshot carries an identity.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// Role returns the principal's role, or RoleUnknown when unauthenticated, so
// permission checks against an absent session fail closed.
func (s Snapshot) Role() rbac.Role {
	if !s.Authenticated() {
		return rbac.RoleUnknown
	}
	return s.Identity.Role
}

// Anonymous is the resolved empty session.
func Anonymous() Snapshot {
	return Snapshot{State: StateUnauthenticated}
}

// IdentityResolver looks up the full identity for a user id. Implemented by
// the directory service; shared.ErrNotFound means the account is gone rather
// than the lookup failing.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID int64) (*Identity, error)
}

// Revoker invalidates the server-side session record on logout. The call is
// best effort: an error never blocks local teardown.
type Revoker interface {
	RevokeSession(ctx context.Context, refreshToken string) error
}

// Manager owns the authenticated-identity lifecycle: it resolves tokens into
// snapshots, establishes sessions after login and tears them down on logout.
type Manager struct {
	resolver IdentityResolver
	revoker  Revoker
	tokens   *TokenStore
	logger   *slog.Logger
	group    singleflight.Group
}

// NewManager constructs a Manager.
func NewManager(resolver IdentityResolver, revoker Revoker, tokens *TokenStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{resolver: resolver, revoker: revoker, tokens: tokens, logger: logger}
}

// Tokens exposes the underlying token store.
func (m *Manager) Tokens() *TokenStore {
	return m.tokens
}

// Refresh resolves the access token into a session snapshot. It always
// terminates in StateAuthenticated or StateUnauthenticated, never
// StateLoading. If the directory lookup fails while the token still
// verifies, the claims-derived identity is used instead; this keeps the
// session usable across transient outages and grants nothing beyond what the
// token already asserts. A token that does not parse is discarded.
// Concurrent refreshes for the same token collapse into a single lookup.
func (m *Manager) Refresh(ctx context.Context, token string) Snapshot {
	if token == "" {
		return Anonymous()
	}
	claims, err := m.tokens.ParseClaims(token)
	if err != nil {
		m.logger.Debug("session: discarding unparseable token", slog.Any("error", err))
		return Anonymous()
	}

	result, err, _ := m.group.Do(token, func() (any, error) {
		return m.resolver.Resolve(ctx, claims.UserID)
	})
	if err == nil {
		if ident, ok := result.(*Identity); ok && ident != nil {
			return Snapshot{State: StateAuthenticated, Identity: ident}
		}
		return Anonymous()
	}
	if errors.Is(err, shared.ErrNotFound) {
		// Account removed or deactivated: a real denial, not an outage.
		return Anonymous()
	}
	m.logger.Warn("session: identity lookup failed, using token claims",
		slog.Int64("user_id", claims.UserID), slog.Any("error", err))
	return Snapshot{State: StateAuthenticated, Identity: claims.Identity()}
}

// Establish issues tokens for a freshly authenticated identity. Called by the
// login and OTP flows after the credentials collaborator has vouched for the
// identity. On error no session state has been changed.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, ident *Identity) (Pair, error) {
	return m.tokens.Issue(ctx, w, ident)
}

// Exchange redeems a refresh token for a new token pair.
func (m *Manager) Exchange(ctx context.Context, w http.ResponseWriter, refreshToken string) (Pair, error) {
	userID, err := m.tokens.Redeem(ctx, refreshToken)
	if err != nil {
		return Pair{}, err
	}
	ident, err := m.resolver.Resolve(ctx, userID)
	if err != nil {
		return Pair{}, err
	}
	return m.tokens.Issue(ctx, w, ident)
}

// Logout tears the session down. The remote revocation is best effort;
// failures are logged and local state is cleared regardless.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	refresh := m.tokens.RefreshToken(r)
	if m.revoker != nil && refresh != "" {
		if err := m.revoker.RevokeSession(ctx, refresh); err != nil {
			m.logger.Warn("session: remote revoke failed", slog.Any("error", err))
		}
	}
	if err := m.tokens.Clear(ctx, w, refresh); err != nil {
		m.logger.Warn("session: clear tokens", slog.Any("error", err))
	}
}
