package workspace

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerdesk/ledgerdesk/internal/directory"
	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// TeamDirectory lists the member roster shown on the team page.
type TeamDirectory interface {
	ListMembers(ctx context.Context, tenantID int64) ([]directory.Member, error)
}

// Handler serves the tenant workspace: one thin endpoint group per resource
// area, each mounted behind the matching permission gate. The handlers are
// deliberately small; the interesting part is the gate in front of them.
type Handler struct {
	logger    *slog.Logger
	store     Store
	dir       TeamDirectory
	guard     guard.Guard
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store Store, dir TeamDirectory, g guard.Guard, audit *shared.AuditLogger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, dir: dir, guard: g, audit: audit, validator: validator.New()}
}

// MountRoutes registers the workspace under the tenant role gate. Within the
// gate every resource group carries its own permission requirement.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireTenantUser())

	r.Get("/", h.home)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceDashboard, rbac.ActionView))
		r.Get("/dashboard", h.dashboard)
	})

	h.resource(r, "/inventory", rbac.ResourceInventory, h.listItems, h.createItem)
	h.resource(r, "/sales", rbac.ResourceSales, h.listSales, h.createSale)
	h.resource(r, "/invoices", rbac.ResourceInvoices, h.listInvoices, h.createInvoice)
	h.resource(r, "/customers", rbac.ResourceCustomers, h.listCustomers, h.createCustomer)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceTeam, rbac.ActionView))
		r.Get("/team", h.listTeam)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceBranding, rbac.ActionView))
		r.Get("/branding", h.getBranding)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceBranding, rbac.ActionManage))
		r.Put("/branding", h.updateBranding)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceProfile, rbac.ActionView))
		r.Get("/profile", h.getProfile)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(rbac.ResourceProfile, rbac.ActionManage))
		r.Put("/profile", h.updateProfile)
	})
}

// resource mounts the standard view/manage split for a resource area.
func (h *Handler) resource(r chi.Router, pattern string, res rbac.Resource, list, create http.HandlerFunc) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(res, rbac.ActionView))
		r.Get(pattern, list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermissionInline(res, rbac.ActionManage))
		r.Post(pattern, create)
	})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	snap := session.FromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"email": snap.Identity.Email,
		"role":  snap.Role().String(),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.DashboardSummary(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "dashboard summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type createItemRequest struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.store.CreateItem(r.Context(), h.tenantID(r), req.SKU, req.Name, req.Quantity)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.fail(w, "create item", err)
		return
	}
	h.recordWrite(r, "inventory.create", "item", item.SKU)
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.store.ListSales(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

type createSaleRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
	Total      int64 `json:"total_cents" validate:"required,gt=0"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	sale, err := h.store.CreateSale(r.Context(), h.tenantID(r), req.CustomerID, req.Total)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordWrite(r, "sales.create", "sale", strconv.FormatInt(sale.ID, 10))
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

type createInvoiceRequest struct {
	SaleID int64 `json:"sale_id" validate:"required,gt=0"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	invoice, err := h.store.CreateInvoice(r.Context(), h.tenantID(r), req.SaleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordWrite(r, "invoices.generate", "invoice", invoice.Number)
	httpx.JSON(w, http.StatusCreated, invoice)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

type createCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}
	customer, err := h.store.CreateCustomer(r.Context(), h.tenantID(r), req.Name, req.Email)
	if err != nil {
		h.fail(w, "create customer", err)
		return
	}
	h.recordWrite(r, "customers.create", "customer", customer.Email)
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) listTeam(w http.ResponseWriter, r *http.Request) {
	members, err := h.dir.ListMembers(r.Context(), h.tenantID(r))
	if err != nil {
		h.fail(w, "list team", err)
		return
	}
	httpx.JSON(w, http.StatusOK, members)
}

func (h *Handler) getBranding(w http.ResponseWriter, r *http.Request) {
	branding, err := h.store.GetBranding(r.Context(), h.tenantID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, branding)
}

type updateBrandingRequest struct {
	BrandColor string `json:"brand_color" validate:"omitempty,hexcolor"`
	LogoURL    string `json:"logo_url" validate:"omitempty,url"`
}

func (h *Handler) updateBranding(w http.ResponseWriter, r *http.Request) {
	var req updateBrandingRequest
	if !h.decode(w, r, &req) {
		return
	}
	branding := Branding{BrandColor: req.BrandColor, LogoURL: req.LogoURL}
	if err := h.store.UpdateBranding(r.Context(), h.tenantID(r), branding); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordWrite(r, "branding.update", "tenant", "")
	httpx.JSON(w, http.StatusOK, branding)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	snap := session.FromContext(r.Context())
	httpx.JSON(w, http.StatusOK, Profile{
		ID:    snap.Identity.ID,
		Email: snap.Identity.Email,
		Name:  snap.Identity.Name,
		Role:  snap.Role().String(),
	})
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap := session.FromContext(r.Context())
	if err := h.store.UpdateProfileName(r.Context(), snap.Identity.ID, req.Name); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"name": req.Name})
}

func (h *Handler) tenantID(r *http.Request) int64 {
	return session.FromContext(r.Context()).Identity.TenantID
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func (h *Handler) recordWrite(r *http.Request, action, entity, entityID string) {
	if h.audit == nil {
		return
	}
	snap := session.FromContext(r.Context())
	if !snap.Authenticated() {
		return
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  snap.Identity.ID,
		TenantID: snap.Identity.TenantID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	})
	if err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
