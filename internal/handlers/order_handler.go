package handlers

import (
	"net/http"
)

// PlaceOrder handles POST /orders
// Form fields: productId (required), quantity (leading integer, otherwise sent as null).
func (h *StorefrontHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	err := h.store.PlaceOrder(r.Context(), r.PostForm.Get("productId"), r.PostForm.Get("quantity"))
	if err == nil {
		h.logger.Info("order submitted", "product_id", r.PostForm.Get("productId"))
	}
	h.respond(w, r, err)
}

// TriggerTestError handles POST /diagnostics/test-error?type={code}
// The backend answering with an error status is the expected outcome and
// renders with 200; only an unreachable backend answers 502.
func (h *StorefrontHandler) TriggerTestError(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("type")
	if code == "" {
		http.Error(w, "type is required", http.StatusBadRequest)
		return
	}

	err := h.store.TriggerTestError(r.Context(), code)
	h.respond(w, r, err)
}
