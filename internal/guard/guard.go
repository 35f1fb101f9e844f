// Package guard composes the session snapshot with the access policy to gate
// protected routes. Guards never propagate errors: the outcome of a denied
// request is a redirect for browser surfaces or a problem response for API
// surfaces.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
)

// Paths names the navigation targets produced by guards.
type Paths struct {
	Login      string
	TenantHome string
	AdminHome  string
}

// DefaultPaths returns the standard navigation targets.
func DefaultPaths() Paths {
	return Paths{Login: "/auth/login", TenantHome: "/app", AdminHome: "/admin"}
}

// HomeFor returns the post-login destination for a role.
func (p Paths) HomeFor(role rbac.Role) string {
	if role.IsPlatformAdmin() {
		return p.AdminHome
	}
	return p.TenantHome
}

// Guard builds route-guard middleware over the resolved session. Decisions
// are pure over (snapshot, requirement): re-evaluating with the same inputs
// always yields the same admit or deny.
type Guard struct {
	Paths   Paths
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// New constructs a Guard. Metrics may be nil.
func New(paths Paths, logger *slog.Logger, metrics *observability.Metrics) Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return Guard{Paths: paths, Logger: logger, Metrics: metrics}
}

// RequirePlatformAdmin admits only the platform console role. Tenant users
// are sent to their own home rather than shown an error.
func (g Guard) RequirePlatformAdmin() func(http.Handler) http.Handler {
	return g.requireRole(func(role rbac.Role) bool { return role.IsPlatformAdmin() })
}

// RequireTenantUser admits any tenant role and bounces platform admins to the
// admin console.
func (g Guard) RequireTenantUser() func(http.Handler) http.Handler {
	return g.requireRole(rbac.Role.IsTenantRole)
}

// RequireRoles admits only the listed roles.
func (g Guard) RequireRoles(roles ...rbac.Role) func(http.Handler) http.Handler {
	allowed := make(map[rbac.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return g.requireRole(func(role rbac.Role) bool {
		_, ok := allowed[role]
		return ok
	})
}

func (g Guard) requireRole(pass func(rbac.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := session.FromContext(r.Context())
			if snap.State == session.StateLoading {
				g.unresolved(w, r)
				return
			}
			if !snap.Authenticated() {
				http.Redirect(w, r, g.Paths.Login, http.StatusSeeOther)
				return
			}
			if !pass(snap.Role()) {
				g.Logger.Info("guard: role denied",
					slog.String("role", snap.Role().String()),
					slog.String("path", r.URL.Path))
				http.Redirect(w, r, g.Paths.HomeFor(snap.Role()), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission gates a route on a resource permission. Denied requests
// are redirected to redirectTarget; an empty target falls back to the tenant
// home.
func (g Guard) RequirePermission(res rbac.Resource, action rbac.Action, redirectTarget string) func(http.Handler) http.Handler {
	if redirectTarget == "" {
		redirectTarget = g.Paths.TenantHome
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := session.FromContext(r.Context())
			if snap.State == session.StateLoading {
				g.unresolved(w, r)
				return
			}
			if !snap.Authenticated() {
				http.Redirect(w, r, g.Paths.Login, http.StatusSeeOther)
				return
			}
			if !rbac.Can(snap.Role(), action, res) {
				g.denied(snap, res, action, r)
				http.Redirect(w, r, redirectTarget, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermissionInline is the API variant of RequirePermission: instead of
// navigating away it answers 401/403 problem responses, for call sites that
// render an access-denied state in place.
func (g Guard) RequirePermissionInline(res rbac.Resource, action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := session.FromContext(r.Context())
			if snap.State == session.StateLoading {
				g.unresolved(w, r)
				return
			}
			if !snap.Authenticated() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
				return
			}
			if !rbac.Can(snap.Role(), action, res) {
				g.denied(snap, res, action, r)
				httpx.Problem(w, http.StatusForbidden, "Access Denied",
					"missing "+action.String()+" permission on "+res.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) denied(snap session.Snapshot, res rbac.Resource, action rbac.Action, r *http.Request) {
	g.Metrics.ObserveDenied(res.String(), action.String())
	g.Logger.Info("guard: permission denied",
		slog.String("role", snap.Role().String()),
		slog.String("resource", res.String()),
		slog.String("action", action.String()),
		slog.String("path", r.URL.Path))
}

// unresolved answers requests that reached a guard before the session
// middleware ran. This is a wiring fault, not a denial, so no redirect is
// issued.
func (g Guard) unresolved(w http.ResponseWriter, r *http.Request) {
	g.Logger.Error("guard: session not resolved", slog.String("path", r.URL.Path))
	httpx.Problem(w, http.StatusServiceUnavailable, "Session Unresolved", "")
}
