// Package backendtest runs an in-memory stand-in for the catalog, inventory
// and order REST API, with call counters and failure injection for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
	"github.com/go-chi/chi/v5"
)

// Route keys accepted by Calls, FailWith, Disconnect and Hold.
const (
	RouteListProducts  = "GET /products"
	RouteCreateProduct = "POST /products"
	RouteListInventory = "GET /inventory"
	RouteDeleteItem    = "DELETE /inventory/{productId}"
	RoutePlaceOrder    = "POST /orders"
	RouteTestError     = "POST /orders/test-error"
)

// Server is a running fake backend.
type Server struct {
	*httptest.Server
	Store *Store

	prefix     string
	stockDelay time.Duration

	mu          sync.Mutex
	calls       map[string]int
	statuses    map[string]int
	disconnects map[string]bool
	holds       map[string]chan struct{}
	timers      []*time.Timer
}

// Option configures a Server.
type Option func(*Server)

// WithPrefix mounts the API under prefix, e.g. "/api".
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = prefix }
}

// WithStockDelay applies accepted orders to inventory after d instead of
// before the POST /orders response.
func WithStockDelay(d time.Duration) Option {
	return func(s *Server) { s.stockDelay = d }
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		Store:       NewStore(),
		calls:       make(map[string]int),
		statuses:    make(map[string]int),
		disconnects: make(map[string]bool),
		holds:       make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	api := chi.NewRouter()
	api.Get("/products", s.track(RouteListProducts, s.listProducts))
	api.Post("/products", s.track(RouteCreateProduct, s.createProduct))
	api.Get("/inventory", s.track(RouteListInventory, s.listInventory))
	api.Delete("/inventory/{productId}", s.track(RouteDeleteItem, s.deleteItem))
	api.Post("/orders", s.track(RoutePlaceOrder, s.placeOrder))
	api.Post("/orders/test-error", s.track(RouteTestError, s.testError))

	if s.prefix == "" {
		return api
	}
	r := chi.NewRouter()
	r.Mount(s.prefix, api)
	return r
}

// Close stops pending stock updates and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	for _, timer := range s.timers {
		timer.Stop()
	}
	for route, ch := range s.holds {
		close(ch)
		delete(s.holds, route)
	}
	s.mu.Unlock()

	s.Server.Close()
}

// Calls reports how many requests hit route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailWith makes route answer with status until Recover is called.
func (s *Server) FailWith(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[route] = status
}

// Disconnect makes route drop the connection without answering.
func (s *Server) Disconnect(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects[route] = true
}

// Recover clears any failure injected for route.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, route)
	delete(s.disconnects, route)
}

// Hold parks requests to route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[route] == ch {
				delete(s.holds, route)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

// track counts calls and applies injected failures before invoking next.
func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		status := s.statuses[route]
		disconnect := s.disconnects[route]
		hold := s.holds[route]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if disconnect {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			status = http.StatusBadGateway
		}

		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Products())
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	p := s.Store.AddProduct(models.Product{Name: req.Name, Description: req.Description})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Inventory())
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(productID); err == nil {
			productID = unescaped
		}
	}
	s.Store.DeleteStock(productID)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == "" || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "productId and quantity are required")
		return
	}

	s.Store.RecordOrder(req)
	apply := func() { s.Store.AdjustStock(req.ProductID, *req.Quantity) }

	if s.stockDelay <= 0 {
		apply()
	} else {
		s.mu.Lock()
		s.timers = append(s.timers, time.AfterFunc(s.stockDelay, apply))
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"productId": req.ProductID,
		"quantity":  *req.Quantity,
		"status":    "CREATED",
	})
}

func (s *Server) testError(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("type") {
	case "400":
		writeError(w, http.StatusBadRequest, "Forced 400 for demo")
	case "404":
		writeError(w, http.StatusNotFound, "Forced 404 for demo")
	case "500":
		writeError(w, http.StatusInternalServerError, "Forced 500 for demo")
	default:
		writeError(w, http.StatusNotImplemented, http.StatusText(http.StatusNotImplemented))
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
