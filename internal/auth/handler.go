package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// CodeSender delivers one-time login codes out of band. Implemented by the
// jobs mail client; tests stub it.
type CodeSender interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	otp       *OTPManager
	sessions  *session.Manager
	paths     guard.Paths
	audit     *shared.AuditLogger
	metrics   *observability.Metrics
	sender    CodeSender
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, otp *OTPManager, sessions *session.Manager, paths guard.Paths, audit *shared.AuditLogger, metrics *observability.Metrics, sender CodeSender) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		otp:       otp,
		sessions:  sessions,
		paths:     paths,
		audit:     audit,
		metrics:   metrics,
		sender:    sender,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/otp/request", h.handleOTPRequest)
	r.Post("/otp/verify", h.handleOTPVerify)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type identityPayload struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	TenantID int64  `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	User        identityPayload `json:"user"`
	Permissions []string        `json:"permissions"`
	Redirect    string          `json:"redirect"`
	AccessToken string          `json:"access_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if detail, ok := h.validate(req); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}

	ident, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.ObserveLogin("failure")
		httpx.Problem(w, http.StatusUnauthorized, "Authentication Failed", "email or password is incorrect")
		return
	}
	h.establish(w, r, ident, "auth.login")
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if detail, ok := h.validate(req); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}

	// Always answer 202: whether the account exists is not disclosed.
	if _, err := h.service.Lookup(r.Context(), req.Email); err == nil {
		code, err := h.otp.Issue(r.Context(), req.Email)
		if err != nil {
			h.logger.Error("issue otp", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if h.sender != nil {
			if err := h.sender.SendLoginCode(r.Context(), req.Email, code); err != nil {
				h.logger.Error("send login code", slog.Any("error", err))
			}
		}
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

type otpVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if detail, ok := h.validate(req); !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}

	if err := h.otp.Verify(r.Context(), req.Email, req.Code); err != nil {
		h.metrics.ObserveLogin("failure")
		httpx.RespondError(w, err)
		return
	}
	ident, err := h.service.Lookup(r.Context(), req.Email)
	if err != nil {
		h.metrics.ObserveLogin("failure")
		httpx.Problem(w, http.StatusUnauthorized, "Authentication Failed", "account unavailable")
		return
	}
	h.establish(w, r, ident, "auth.otp_verify")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresh := h.sessions.Tokens().RefreshToken(r)
	pair, err := h.sessions.Exchange(r.Context(), w, refresh)
	if err != nil {
		h.sessions.Tokens().ExpireCookies(w)
		httpx.RespondError(w, err)
		return
	}
	snap := h.sessions.Refresh(r.Context(), pair.AccessToken)
	if !snap.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Invalid Token", "")
		return
	}
	httpx.JSON(w, http.StatusOK, h.sessionBody(snap.Identity, pair))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	snap := session.FromContext(r.Context())
	h.sessions.Logout(r.Context(), w, r)
	if snap.Authenticated() {
		h.recordAudit(r, snap.Identity, "auth.logout")
	}
	http.Redirect(w, r, h.paths.Login, http.StatusSeeOther)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	snap := session.FromContext(r.Context())
	if !snap.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":        identityBody(snap.Identity),
		"permissions": permissionNames(snap.Role()),
	})
}

// establish issues tokens, registers the server-side session and answers
// with the role-dependent post-login destination.
func (h *Handler) establish(w http.ResponseWriter, r *http.Request, ident *session.Identity, action string) {
	pair, err := h.sessions.Establish(r.Context(), w, ident)
	if err != nil {
		h.logger.Error("establish session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	expiresAt := time.Now().Add(h.sessions.Tokens().RefreshTTL())
	if err := h.service.RegisterSession(r.Context(), pair.RefreshToken, ident.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.metrics.ObserveLogin("success")
	h.recordAudit(r, ident, action)
	httpx.JSON(w, http.StatusOK, h.sessionBody(ident, pair))
}

func (h *Handler) sessionBody(ident *session.Identity, pair session.Pair) sessionResponse {
	return sessionResponse{
		User:        identityBody(ident),
		Permissions: permissionNames(ident.Role),
		Redirect:    h.paths.HomeFor(ident.Role),
		AccessToken: pair.AccessToken,
	}
}

func identityBody(ident *session.Identity) identityPayload {
	return identityPayload{
		ID:       ident.ID,
		Email:    ident.Email,
		Name:     ident.Name,
		TenantID: ident.TenantID,
		Role:     ident.Role.String(),
	}
}

func permissionNames(role rbac.Role) []string {
	grants := rbac.Grants(role)
	names := make([]string, 0, len(grants))
	for _, g := range grants {
		names = append(names, g.String())
	}
	return names
}

func (h *Handler) validate(v any) (string, bool) {
	if err := h.validator.Struct(v); err != nil {
		var fields []string
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range errs {
				fields = append(fields, strings.ToLower(fieldErr.Field())+" is invalid")
			}
		}
		if len(fields) == 0 {
			return "request is invalid", false
		}
		return strings.Join(fields, "; "), false
	}
	return "", true
}

func (h *Handler) recordAudit(r *http.Request, ident *session.Identity, action string) {
	if h.audit == nil {
		return
	}
	err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  ident.ID,
		TenantID: ident.TenantID,
		Action:   action,
		Entity:   "user",
		EntityID: ident.Email,
		Meta:     map[string]any{"ip": r.RemoteAddr, "role": ident.Role.String()},
	})
	if err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
