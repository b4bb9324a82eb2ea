// Package backend is the HTTP client for the catalog, inventory and order REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Operation names, used as metric labels and log fields.
const (
	OpListProducts   = "list_products"
	OpCreateProduct  = "create_product"
	OpListInventory  = "list_inventory"
	OpPlaceOrder     = "place_order"
	OpDeleteItem     = "delete_inventory_item"
	OpTriggerTestErr = "trigger_test_error"
)

// Outcomes of a backend call.
const (
	OutcomeSuccess   = "success"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
)

// maxErrorBody caps how much of a failed response is kept in HTTPError.
const maxErrorBody = 4 << 10

// Recorder observes every backend call.
type Recorder interface {
	ObserveBackendRequest(operation, outcome string, duration time.Duration)
}

// Client talks to the backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	prefix     string
	recorder   Recorder
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the API at baseURL. Every path is joined
// under prefix (e.g. "/api"); an empty prefix addresses the root.
func NewClient(baseURL, prefix string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q must be absolute", baseURL)
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     strings.TrimRight(prefix, "/"),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiURL joins path under the base URL and API prefix.
func (c *Client) apiURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := c.baseURL + c.prefix + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// ListProducts fetches the whole product collection.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	body, _, err := c.do(ctx, OpListProducts, http.MethodGet, "/products", nil, nil)
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := decodeJSON(body, &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

// CreateProduct submits a new product. The response body is ignored.
func (c *Client) CreateProduct(ctx context.Context, req models.CreateProductRequest) error {
	_, _, err := c.do(ctx, OpCreateProduct, http.MethodPost, "/products", nil, req)
	return err
}

// ListInventory fetches the whole inventory collection.
func (c *Client) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	body, _, err := c.do(ctx, OpListInventory, http.MethodGet, "/inventory", nil, nil)
	if err != nil {
		return nil, err
	}

	items := []models.InventoryItem{}
	if err := decodeJSON(body, &items); err != nil {
		return nil, fmt.Errorf("decoding inventory: %w", err)
	}
	return items, nil
}

// PlaceOrder submits an order. The backend applies it to inventory asynchronously.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) error {
	_, _, err := c.do(ctx, OpPlaceOrder, http.MethodPost, "/orders", nil, req)
	return err
}

// DeleteInventoryItem removes the inventory record of productID.
func (c *Client) DeleteInventoryItem(ctx context.Context, productID string) error {
	_, _, err := c.do(ctx, OpDeleteItem, http.MethodDelete, "/inventory/"+url.PathEscape(productID), nil, nil)
	return err
}

// TriggerTestError asks the order service to answer with the status named by code
// and returns the status of a 2xx answer. A non-2xx answer is the expected
// result and comes back as *HTTPError.
func (c *Client) TriggerTestError(ctx context.Context, code string) (int, error) {
	query := url.Values{"type": []string{code}}
	_, status, err := c.do(ctx, OpTriggerTestErr, http.MethodPost, "/orders/test-error", query, nil)
	return status, err
}

// do executes one request and returns the body and status of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, int, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL(path, query), bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(chimiddleware.RequestIDHeader, requestID(ctx))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, OutcomeTransport, start)
		c.log.WarnContext(ctx, "backend request failed", "operation", op, "method", method, "path", path, "error", err)
		return nil, 0, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(op, OutcomeHTTPError, start)
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     reasonPhrase(resp),
			Body:       strings.TrimSpace(string(text)),
		}
		c.log.WarnContext(ctx, "backend returned error status", "operation", op, "status", resp.StatusCode)
		return nil, resp.StatusCode, httpErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(op, OutcomeTransport, start)
		return nil, resp.StatusCode, fmt.Errorf("%w: reading %s %s response: %w", ErrUnavailable, method, path, err)
	}

	c.observe(op, OutcomeSuccess, start)
	c.log.DebugContext(ctx, "backend request", "operation", op, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return body, resp.StatusCode, nil
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveBackendRequest(op, outcome, time.Since(start))
	}
}

// decodeJSON treats an empty body or a JSON null as an empty collection.
func decodeJSON(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}

// reasonPhrase strips the numeric code from resp.Status ("404 Not Found" -> "Not Found").
func reasonPhrase(resp *http.Response) string {
	phrase := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if phrase == "" {
		phrase = http.StatusText(resp.StatusCode)
	}
	return phrase
}

// requestID forwards the id of the inbound UI request, or mints a fresh one.
func requestID(ctx context.Context) string {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
