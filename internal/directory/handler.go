package directory

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Console is the query surface the admin handler reads from.
type Console interface {
	ListTenants(ctx context.Context, page, perPage int) ([]Tenant, shared.Pagination, error)
	ListMembers(ctx context.Context, tenantID int64) ([]Member, error)
}

// Handler is the platform-admin console: tenant oversight across the whole
// installation. Mounted behind the platform-admin gate.
type Handler struct {
	logger  *slog.Logger
	service Console
	guard   guard.Guard
}

func NewHandler(logger *slog.Logger, service Console, g guard.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: g}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequirePlatformAdmin())

	r.Get("/", h.index)
	r.Get("/tenants", h.listTenants)
	r.Get("/tenants/{tenantID}/members", h.listMembers)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"area": "admin"})
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	tenants, pagination, err := h.service.ListTenants(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list tenants", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tenants":     tenants,
		"page":        pagination.Page,
		"per_page":    pagination.PerPage,
		"total":       pagination.Total,
		"total_pages": pagination.TotalPages,
	})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "tenantID must be numeric")
		return
	}
	members, err := h.service.ListMembers(r.Context(), tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, members)
}
