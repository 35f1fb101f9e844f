package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerdesk/ledgerdesk/internal/auth"
	"github.com/ledgerdesk/ledgerdesk/internal/directory"
	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	"github.com/ledgerdesk/ledgerdesk/internal/workspace"
	"github.com/ledgerdesk/ledgerdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *session.Manager
	CSRFManager      *shared.CSRFManager
	Paths            guard.Paths
	AuthHandler      *auth.Handler
	WorkspaceHandler *workspace.Handler
	AdminHandler     *directory.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with LedgerDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Signed-in users landing on the root go straight to their home area.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		snap := session.FromContext(r.Context())
		if !snap.Authenticated() {
			http.Redirect(w, r, params.Paths.Login, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, params.Paths.HomeFor(snap.Role()), http.StatusSeeOther)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimiter(params.Config))
		params.AuthHandler.MountRoutes(r)
	})
	r.Route(params.Paths.TenantHome, params.WorkspaceHandler.MountRoutes)
	r.Route(params.Paths.AdminHome, params.AdminHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
