package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/catalog"
)

// HealthHandler provides health check endpoint
type HealthHandler struct {
	names  *catalog.NameCache
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(names *catalog.NameCache, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		names:  names,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	CatalogLoaded  bool      `json:"catalogLoaded"`
	CachedProducts int       `json:"cachedProducts"`
}

// ServeHTTP handles health check requests
// The storefront stays healthy while the backend is down; catalogLoaded
// only reports whether a product load has succeeded yet.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		Version:        "1.0.0",
		CatalogLoaded:  h.names.Ready(),
		CachedProducts: h.names.Len(),
	}

	WriteJSON(w, http.StatusOK, response, h.logger)
}
