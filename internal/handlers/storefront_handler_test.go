package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/backend/backendtest"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/controller"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/view"
	"github.com/Lixing-Zhang/kart-challenge/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type testApp struct {
	backend *backendtest.Server
	ctrl    *controller.Controller
	router  http.Handler
}

func newTestApp(t *testing.T, diagnostics bool) *testApp {
	t.Helper()

	log := logger.New("error")
	srv := backendtest.New(t, backendtest.WithPrefix("/api"))
	client, err := backend.NewClient(srv.URL, "/api", time.Second, backend.WithLogger(log))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctrl := controller.New(client, nil, controller.Options{
		StatusTTL:          time.Minute,
		Refresher:          controller.DelayRefresher{Delay: time.Hour},
		Logger:             log,
		DiagnosticsEnabled: diagnostics,
	})
	t.Cleanup(ctrl.Close)

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	r := chi.NewRouter()
	NewStorefrontHandler(ctrl, renderer, diagnostics, log).Routes(r)

	return &testApp{backend: srv, ctrl: ctrl, router: r}
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Errorf("expected status %d, got %d", want, w.Code)
	}
}

func assertBodyContains(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("expected body to contain %q", want)
	}
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, false)
	app.backend.Store.AddProduct(models.Product{ID: "p1", Name: "Widget", Description: "A widget"})

	w := app.get("/")

	assertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("expected HTML content type, got %q", ct)
	}
	assertBodyContains(t, w, `<option value="">-- Please select --</option>`)
	assertBodyContains(t, w, `<option value="p1">Widget (A widget)</option>`)
	assertBodyContains(t, w, "Inventory is empty.")

	if calls := app.backend.Calls(backendtest.RouteListInventory); calls != 1 {
		t.Errorf("expected 1 inventory load, got %d", calls)
	}
}

func TestIndex_BackendDown(t *testing.T) {
	app := newTestApp(t, false)
	app.backend.FailWith(backendtest.RouteListProducts, http.StatusInternalServerError)

	w := app.get("/")

	assertStatus(t, w, http.StatusBadGateway)
	assertBodyContains(t, w, "Error: service unavailable")
	if calls := app.backend.Calls(backendtest.RouteListInventory); calls != 0 {
		t.Errorf("expected no inventory load, got %d", calls)
	}
}

func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name        string
		form        url.Values
		wantStatus  int
		wantBody    string
		wantCreates int
	}{
		{
			name:        "missing name",
			form:        url.Values{"name": {""}, "description": {"A widget"}},
			wantStatus:  http.StatusUnprocessableEntity,
			wantBody:    `<div class="alert" role="alertdialog">Name is required!</div>`,
			wantCreates: 0,
		},
		{
			name:        "created",
			form:        url.Values{"name": {"Widget"}, "description": {"A widget"}},
			wantStatus:  http.StatusOK,
			wantBody:    "✔ Product created!",
			wantCreates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, false)

			w := app.post("/products", tt.form)

			assertStatus(t, w, tt.wantStatus)
			assertBodyContains(t, w, tt.wantBody)
			if calls := app.backend.Calls(backendtest.RouteCreateProduct); calls != tt.wantCreates {
				t.Errorf("expected %d create calls, got %d", tt.wantCreates, calls)
			}
		})
	}
}

func TestCreateProduct_BackendError(t *testing.T) {
	app := newTestApp(t, false)
	app.backend.FailWith(backendtest.RouteCreateProduct, http.StatusInternalServerError)

	w := app.post("/products", url.Values{"name": {"Widget"}})

	assertStatus(t, w, http.StatusBadGateway)
	assertBodyContains(t, w, "Error while saving.")
	assertBodyContains(t, w, `value="Widget"`)
}

func TestRefreshProducts(t *testing.T) {
	app := newTestApp(t, false)
	app.backend.Store.AddProduct(models.Product{ID: "p9", Name: "Gizmo", Description: "Shiny"})

	w := app.post("/products/refresh", nil)

	assertStatus(t, w, http.StatusOK)
	assertBodyContains(t, w, "Gizmo (Shiny)")
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
		wantOrders int
	}{
		{
			name:       "no product selected",
			form:       url.Values{"productId": {""}, "quantity": {"2"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Please select a product!",
			wantOrders: 0,
		},
		{
			name:       "accepted",
			form:       url.Values{"productId": {"p1"}, "quantity": {"2"}},
			wantStatus: http.StatusOK,
			wantBody:   "✔ Order sent!",
			wantOrders: 1,
		},
		{
			name:       "quantity without digits",
			form:       url.Values{"productId": {"p1"}, "quantity": {"lots"}},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Order failed.",
			wantOrders: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, false)

			w := app.post("/orders", tt.form)

			assertStatus(t, w, tt.wantStatus)
			assertBodyContains(t, w, tt.wantBody)
			if orders := len(app.backend.Store.Orders()); orders != tt.wantOrders {
				t.Errorf("expected %d orders, got %d", tt.wantOrders, orders)
			}
		})
	}
}

func TestRefreshInventory(t *testing.T) {
	app := newTestApp(t, false)
	app.backend.Store.SetStock("p1", 5)

	w := app.post("/inventory/refresh", nil)

	assertStatus(t, w, http.StatusOK)
	assertBodyContains(t, w, "5 units")
	assertBodyContains(t, w, "Unknown product")
}

func TestConfirmDelete(t *testing.T) {
	app := newTestApp(t, false)

	w := app.get("/inventory/a%2Fb/delete")

	assertStatus(t, w, http.StatusOK)
	assertBodyContains(t, w, "Really delete this item?")
	assertBodyContains(t, w, `action="/inventory/a%2Fb/delete"`)
	assertBodyContains(t, w, `<small>a/b</small>`)
	if calls := app.backend.Calls(backendtest.RouteDeleteItem); calls != 0 {
		t.Errorf("expected no delete calls, got %d", calls)
	}
}

func TestDeleteItem(t *testing.T) {
	tests := []struct {
		name          string
		confirm       string
		fail          bool
		wantStatus    int
		wantDeletes   int
		wantReloads   int
		wantRemaining int
	}{
		{name: "declined", confirm: "no", wantStatus: http.StatusOK, wantDeletes: 0, wantReloads: 0, wantRemaining: 2},
		{name: "confirmed", confirm: "yes", wantStatus: http.StatusOK, wantDeletes: 1, wantReloads: 1, wantRemaining: 1},
		{name: "backend error", confirm: "yes", fail: true, wantStatus: http.StatusBadGateway, wantDeletes: 1, wantReloads: 1, wantRemaining: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, false)
			app.backend.Store.SetStock("a/b", 3)
			app.backend.Store.SetStock("p2", 1)
			if tt.fail {
				app.backend.FailWith(backendtest.RouteDeleteItem, http.StatusInternalServerError)
			}

			w := app.post("/inventory/a%2Fb/delete", url.Values{"confirm": {tt.confirm}})

			assertStatus(t, w, tt.wantStatus)
			if tt.fail {
				assertBodyContains(t, w, "Delete failed")
			}
			if calls := app.backend.Calls(backendtest.RouteDeleteItem); calls != tt.wantDeletes {
				t.Errorf("expected %d delete calls, got %d", tt.wantDeletes, calls)
			}
			if calls := app.backend.Calls(backendtest.RouteListInventory); calls != tt.wantReloads {
				t.Errorf("expected %d inventory loads, got %d", tt.wantReloads, calls)
			}
			if remaining := len(app.backend.Store.Inventory()); remaining != tt.wantRemaining {
				t.Errorf("expected %d inventory records, got %d", tt.wantRemaining, remaining)
			}
		})
	}
}

func TestTriggerTestError(t *testing.T) {
	app := newTestApp(t, true)

	w := app.post("/diagnostics/test-error?type=404", nil)

	assertStatus(t, w, http.StatusOK)
	assertBodyContains(t, w, "404 Not Found triggered at")

	w = app.post("/diagnostics/test-error", nil)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestTriggerTestError_Disabled(t *testing.T) {
	app := newTestApp(t, false)

	w := app.post("/diagnostics/test-error?type=500", nil)

	assertStatus(t, w, http.StatusNotFound)
	if calls := app.backend.Calls(backendtest.RouteTestError); calls != 0 {
		t.Errorf("expected no backend calls, got %d", calls)
	}
}

func TestState(t *testing.T) {
	app := newTestApp(t, true)
	app.backend.Store.AddProduct(models.Product{ID: "p1", Name: "Widget", Description: "A widget"})
	app.get("/")
	before := app.backend.Calls(backendtest.RouteListProducts)

	w := app.get("/state")

	assertStatus(t, w, http.StatusOK)
	var page view.Page
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(page.Products.Options) != 2 || page.Products.Options[1].Value != "p1" {
		t.Errorf("unexpected product options: %+v", page.Products.Options)
	}
	if !page.DiagnosticsEnabled {
		t.Error("expected diagnostics to be enabled")
	}
	if after := app.backend.Calls(backendtest.RouteListProducts); after != before {
		t.Errorf("expected /state not to call the backend, got %d extra calls", after-before)
	}
}
