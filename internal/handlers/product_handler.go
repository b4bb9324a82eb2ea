package handlers

import (
	"net/http"
)

// CreateProduct handles POST /products
// Form fields: name (required), description (optional).
func (h *StorefrontHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	err := h.store.CreateProduct(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("description"))
	h.respond(w, r, err)
}

// RefreshProducts handles POST /products/refresh
func (h *StorefrontHandler) RefreshProducts(w http.ResponseWriter, r *http.Request) {
	err := h.store.LoadProducts(r.Context())
	h.respond(w, r, err)
}
