package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/directory"
	"github.com/ledgerdesk/ledgerdesk/internal/guard"
	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
)

type stubStore struct {
	items     []Item
	createdAs []string
	saleIDs   []int64
}

func (s *stubStore) DashboardSummary(ctx context.Context, tenantID int64) (Summary, error) {
	return Summary{Items: 3, Sales: 2, Invoices: 1, Customers: 4}, nil
}

func (s *stubStore) ListItems(ctx context.Context, tenantID int64) ([]Item, error) {
	return s.items, nil
}

func (s *stubStore) CreateItem(ctx context.Context, tenantID int64, sku, name string, quantity int64) (Item, error) {
	for _, existing := range s.createdAs {
		if existing == sku {
			return Item{}, ErrDuplicate
		}
	}
	s.createdAs = append(s.createdAs, sku)
	return Item{ID: int64(len(s.createdAs)), SKU: sku, Name: name, Quantity: quantity, CreatedAt: time.Now()}, nil
}

func (s *stubStore) ListSales(ctx context.Context, tenantID int64) ([]Sale, error) {
	return nil, nil
}

func (s *stubStore) CreateSale(ctx context.Context, tenantID, customerID, total int64) (Sale, error) {
	s.saleIDs = append(s.saleIDs, customerID)
	return Sale{ID: int64(len(s.saleIDs)), CustomerID: customerID, Total: total, CreatedAt: time.Now()}, nil
}

func (s *stubStore) ListInvoices(ctx context.Context, tenantID int64) ([]Invoice, error) {
	return nil, nil
}

func (s *stubStore) CreateInvoice(ctx context.Context, tenantID, saleID int64) (Invoice, error) {
	return Invoice{ID: 1, SaleID: saleID, Number: "INV-1-000001", Total: 5000, CreatedAt: time.Now()}, nil
}

func (s *stubStore) ListCustomers(ctx context.Context, tenantID int64) ([]Customer, error) {
	return nil, nil
}

func (s *stubStore) CreateCustomer(ctx context.Context, tenantID int64, name, email string) (Customer, error) {
	return Customer{ID: 1, Name: name, Email: email, CreatedAt: time.Now()}, nil
}

func (s *stubStore) GetBranding(ctx context.Context, tenantID int64) (Branding, error) {
	return Branding{BrandColor: "#112233"}, nil
}

func (s *stubStore) UpdateBranding(ctx context.Context, tenantID int64, branding Branding) error {
	return nil
}

func (s *stubStore) UpdateProfileName(ctx context.Context, userID int64, name string) error {
	return nil
}

type stubDirectory struct {
	members []directory.Member
}

func (d *stubDirectory) ListMembers(ctx context.Context, tenantID int64) ([]directory.Member, error) {
	return d.members, nil
}

func snapshotFor(role rbac.Role) session.Snapshot {
	ident := &session.Identity{ID: 7, Email: "user@acme.test", Name: "Test User", Role: role}
	if role.IsTenantRole() {
		ident.TenantID = 1
	}
	return session.Snapshot{State: session.StateAuthenticated, Identity: ident}
}

func newWorkspaceRouter(t *testing.T, store Store) http.Handler {
	t.Helper()
	handler := NewHandler(nil, store, &stubDirectory{}, guard.New(guard.DefaultPaths(), nil, nil), nil)
	r := chi.NewRouter()
	r.Route("/app", handler.MountRoutes)
	return r
}

func serveAs(t *testing.T, h http.Handler, snap session.Snapshot, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(session.ContextWithSnapshot(req.Context(), snap))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStaffCanRecordSalesButNotTouchInventory(t *testing.T) {
	store := &stubStore{}
	router := newWorkspaceRouter(t, store)
	staff := snapshotFor(rbac.RoleStaff)

	rec := serveAs(t, router, staff, http.MethodPost, "/app/sales",
		`{"customer_id":12,"total_cents":9900}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.saleIDs, 1)

	rec = serveAs(t, router, staff, http.MethodPost, "/app/inventory",
		`{"sku":"SKU-1","name":"Widget","quantity":5}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	require.Empty(t, store.createdAs, "denied request must not reach the store")

	rec = serveAs(t, router, staff, http.MethodGet, "/app/inventory", "")
	require.Equal(t, http.StatusOK, rec.Code, "staff may still view inventory")
}

func TestViewerIsReadOnlyEverywhere(t *testing.T) {
	store := &stubStore{items: []Item{{ID: 1, SKU: "SKU-1", Name: "Widget"}}}
	router := newWorkspaceRouter(t, store)
	viewer := snapshotFor(rbac.RoleViewer)

	for _, target := range []string{
		"/app/dashboard", "/app/inventory", "/app/sales",
		"/app/invoices", "/app/customers", "/app/profile",
	} {
		rec := serveAs(t, router, viewer, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
	}

	rec := serveAs(t, router, viewer, http.MethodGet, "/app/branding", "")
	require.Equal(t, http.StatusForbidden, rec.Code, "branding is owner territory")

	writes := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/app/inventory", `{"sku":"S","name":"N","quantity":1}`},
		{http.MethodPost, "/app/sales", `{"customer_id":1,"total_cents":100}`},
		{http.MethodPost, "/app/invoices", `{"sale_id":1}`},
		{http.MethodPost, "/app/customers", `{"name":"A","email":"a@b.test"}`},
		{http.MethodPut, "/app/branding", `{"brand_color":"#ffffff"}`},
		{http.MethodPut, "/app/profile", `{"name":"New Name"}`},
	}
	for _, write := range writes {
		rec := serveAs(t, router, viewer, write.method, write.target, write.body)
		require.Equal(t, http.StatusForbidden, rec.Code, write.target)
	}
}

func TestViewerCannotSeeTeamRoster(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	rec := serveAs(t, router, snapshotFor(rbac.RoleViewer), http.MethodGet, "/app/team", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serveAs(t, router, snapshotFor(rbac.RoleTenantAdmin), http.MethodGet, "/app/team", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantAdminBrandingIsOwnerOnly(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	rec := serveAs(t, router, snapshotFor(rbac.RoleTenantAdmin), http.MethodPut,
		"/app/branding", `{"brand_color":"#123456"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serveAs(t, router, snapshotFor(rbac.RoleTenantOwner), http.MethodPut,
		"/app/branding", `{"brand_color":"#123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPlatformAdminIsBouncedToConsole(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	rec := serveAs(t, router, snapshotFor(rbac.RolePlatformAdmin), http.MethodGet, "/app/dashboard", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	rec := serveAs(t, router, session.Anonymous(), http.MethodGet, "/app/dashboard", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestUnresolvedSessionAnswersServiceUnavailable(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/app/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDuplicateSKUAnswersConflict(t *testing.T) {
	store := &stubStore{}
	router := newWorkspaceRouter(t, store)
	owner := snapshotFor(rbac.RoleTenantOwner)

	body := `{"sku":"SKU-9","name":"Widget","quantity":3}`
	rec := serveAs(t, router, owner, http.MethodPost, "/app/inventory", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serveAs(t, router, owner, http.MethodPost, "/app/inventory", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateItemValidation(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})
	owner := snapshotFor(rbac.RoleTenantOwner)

	rec := serveAs(t, router, owner, http.MethodPost, "/app/inventory",
		`{"name":"Widget","quantity":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardSummaryShape(t *testing.T) {
	router := newWorkspaceRouter(t, &stubStore{})

	rec := serveAs(t, router, snapshotFor(rbac.RoleStaff), http.MethodGet, "/app/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, int64(3), summary.Items)
	require.Equal(t, int64(4), summary.Customers)
}
