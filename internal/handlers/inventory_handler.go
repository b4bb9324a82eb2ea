package handlers

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/controller"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/view"
	"github.com/go-chi/chi/v5"
)

// RefreshInventory handles POST /inventory/refresh
func (h *StorefrontHandler) RefreshInventory(w http.ResponseWriter, r *http.Request) {
	err := h.store.LoadInventory(r.Context())
	h.respond(w, r, err)
}

// ConfirmDelete handles GET /inventory/{productId}/delete
// Renders the confirmation prompt; nothing is sent to the backend.
func (h *StorefrontHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := h.renderer.Confirm(&buf, view.ConfirmPage{
		ProductID:   productID,
		ProductName: h.store.Names().Name(productID),
		Prompt:      view.DeletePrompt,
	})
	if err != nil {
		h.logger.Error("failed to render confirmation", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	WriteHTML(w, http.StatusOK, buf.Bytes(), h.logger)
}

// DeleteItem handles POST /inventory/{productId}/delete
// The item is only deleted when the form carries confirm=yes.
func (h *StorefrontHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok || !h.parseForm(w, r) {
		return
	}

	confirmed := r.PostForm.Get("confirm") == "yes"
	err := h.store.DeleteItem(r.Context(), productID, controller.Answer(confirmed))
	h.respond(w, r, err)
}

// productID extracts the decoded {productId} path parameter
func (h *StorefrontHandler) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	productID := chi.URLParam(r, "productId")

	// chi matches on the raw path when the URL carries escapes such as %2F.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(productID)
		if err != nil {
			h.logger.Warn("invalid product ID", "productId", productID, "error", err)
			http.Error(w, "Invalid ID supplied", http.StatusBadRequest)
			return "", false
		}
		productID = unescaped
	}

	if productID == "" {
		http.Error(w, "Invalid ID supplied", http.StatusBadRequest)
		return "", false
	}
	return productID, true
}
