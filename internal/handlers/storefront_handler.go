package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/catalog"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/controller"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/view"
	"github.com/go-chi/chi/v5"
)

// Storefront is the controller behind the page.
type Storefront interface {
	LoadProducts(ctx context.Context) error
	CreateProduct(ctx context.Context, name, description string) error
	PlaceOrder(ctx context.Context, productID, quantityInput string) error
	LoadInventory(ctx context.Context) error
	DeleteItem(ctx context.Context, productID string, confirmer controller.Confirmer) error
	TriggerTestError(ctx context.Context, code string) error
	Page() view.Page
	Names() *catalog.NameCache
}

// StorefrontHandler serves the storefront page and its form actions
type StorefrontHandler struct {
	store       Storefront
	renderer    *view.Renderer
	logger      *slog.Logger
	diagnostics bool
}

// NewStorefrontHandler creates a new storefront handler.
// The diagnostics routes are only registered when diagnostics is true.
func NewStorefrontHandler(store Storefront, renderer *view.Renderer, diagnostics bool, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		store:       store,
		renderer:    renderer,
		logger:      logger,
		diagnostics: diagnostics,
	}
}

// Routes registers the page and form routes on r
func (h *StorefrontHandler) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/state", h.State)

	r.Post("/products", h.CreateProduct)
	r.Post("/products/refresh", h.RefreshProducts)
	r.Post("/orders", h.PlaceOrder)
	r.Post("/inventory/refresh", h.RefreshInventory)
	r.Get("/inventory/{productId}/delete", h.ConfirmDelete)
	r.Post("/inventory/{productId}/delete", h.DeleteItem)

	if h.diagnostics {
		r.Post("/diagnostics/test-error", h.TriggerTestError)
	}
}

// Index handles GET /
// Every page view reloads the products, which cascades to the inventory.
func (h *StorefrontHandler) Index(w http.ResponseWriter, r *http.Request) {
	err := h.store.LoadProducts(r.Context())
	h.respond(w, r, err)
}

// State handles GET /state
// Returns the current page view model as JSON without touching the backend.
func (h *StorefrontHandler) State(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.store.Page(), h.logger)
}

// respond renders the page after an action. Validation alerts answer 422,
// failed backend calls 502; the page itself shows what went wrong.
func (h *StorefrontHandler) respond(w http.ResponseWriter, _ *http.Request, err error) {
	page := h.store.Page()
	status := http.StatusOK

	if err != nil {
		status = http.StatusBadGateway
		if alert, ok := controller.AsAlert(err); ok {
			page.Alert = alert.Message
			if alert.IsValidation() {
				status = http.StatusUnprocessableEntity
			}
		}
	}

	h.renderPage(w, status, page)
}

func (h *StorefrontHandler) renderPage(w http.ResponseWriter, status int, page view.Page) {
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, page); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	WriteHTML(w, status, buf.Bytes(), h.logger)
}

// parseForm reads the posted form, answering 400 when it is malformed
func (h *StorefrontHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("invalid form submission", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}
