// Package controller keeps the storefront page in sync with the catalog,
// inventory and order services.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/catalog"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/view"
	"github.com/go-playground/validator/v10"
)

// Status texts shown next to the forms.
const (
	StatusProductCreated     = "✔ Product created!"
	StatusProductSaveFailed  = "Error while saving."
	StatusProductUnreachable = "Service not reachable."
	StatusOrderSent          = "✔ Order sent!"
	StatusOrderFailed        = "Order failed."
	StatusOrderUnreachable   = "Order service offline?"
	StatusDiagnosticsPending = "Request pending..."
	StatusDiagnosticsNetwork = "Network Error: Is the backend running?"
)

// Operation names reported to the Recorder.
const (
	OpLoadProducts     = "load_products"
	OpCreateProduct    = "create_product"
	OpPlaceOrder       = "place_order"
	OpLoadInventory    = "load_inventory"
	OpDeleteItem       = "delete_item"
	OpTriggerTestError = "trigger_test_error"
)

// Operation results reported to the Recorder.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
	ResultDeclined = "declined"
	ResultStale    = "stale"
)

const clockFormat = "15:04:05"

// Backend is the subset of the REST API the controller drives.
type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) error
	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) error
	DeleteInventoryItem(ctx context.Context, productID string) error
	TriggerTestError(ctx context.Context, code string) (int, error)
}

// Recorder counts operation results.
type Recorder interface {
	ObserveOperation(operation, result string)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Answer is a Confirmer whose decision is already known, e.g. from a submitted form.
func Answer(yes bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return yes })
}

// Options tune a Controller. Zero values fall back to sensible defaults.
type Options struct {
	// StatusTTL is how long status messages stay visible; 0 keeps them until overwritten.
	StatusTTL          time.Duration
	Refresher          InventoryRefresher
	Recorder           Recorder
	Logger             *slog.Logger
	DiagnosticsEnabled bool
	Now                func() time.Time
}

// Controller owns the name cache and the page state. All methods are safe
// for concurrent use; loads that finish out of order never overwrite the
// result of a load that started later.
type Controller struct {
	backend   Backend
	names     *catalog.NameCache
	validate  *validator.Validate
	refresher InventoryRefresher
	recorder  Recorder
	log       *slog.Logger
	now       func() time.Time
	statusTTL time.Duration

	productGen   atomic.Uint64
	inventoryGen atomic.Uint64

	mu               sync.Mutex
	page             view.Page
	productsApplied  uint64
	inventoryApplied uint64
	inventory        []models.InventoryItem
	inventoryLoaded  bool

	bgCtx  context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a controller. names may be shared with other readers; it is
// only written by LoadProducts.
func New(b Backend, names *catalog.NameCache, opts Options) *Controller {
	if names == nil {
		names = catalog.NewNameCache()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Refresher == nil {
		opts.Refresher = DelayRefresher{Delay: 500 * time.Millisecond}
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:   b,
		names:     names,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		refresher: opts.Refresher,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		now:       opts.Now,
		statusTTL: opts.StatusTTL,
		bgCtx:     bgCtx,
		cancel:    cancel,
	}
	c.page = view.Page{
		Products:           view.ProductOptions(nil),
		Inventory:          view.InventoryEmptyTable(),
		DiagnosticsEnabled: opts.DiagnosticsEnabled,
	}
	return c
}

// Names returns the name cache.
func (c *Controller) Names() *catalog.NameCache {
	return c.names
}

// LoadProducts reads the product collection, rebuilds the selection list and
// the name cache, then reloads the inventory. On failure the list shows a
// single error entry, the cache keeps its previous contents and the
// inventory is left alone.
func (c *Controller) LoadProducts(ctx context.Context) error {
	gen := c.productGen.Add(1)

	products, err := c.backend.ListProducts(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "failed to load products", "error", err)
		if !c.applyProducts(gen, view.ProductsError(), nil, false) {
			c.observe(OpLoadProducts, ResultStale)
			return nil
		}
		c.observe(OpLoadProducts, ResultFailure)
		return fmt.Errorf("loading products: %w", err)
	}

	if !c.applyProducts(gen, view.ProductOptions(products), products, true) {
		c.observe(OpLoadProducts, ResultStale)
		return nil
	}
	c.observe(OpLoadProducts, ResultSuccess)
	c.log.DebugContext(ctx, "products loaded", "count", len(products))

	// Inventory failures are rendered in the inventory view.
	_ = c.LoadInventory(ctx)
	return nil
}

// applyProducts installs a product load result unless a later load already
// did. Failed loads (ok false) leave the cache untouched.
func (c *Controller) applyProducts(gen uint64, sel view.ProductSelect, products []models.Product, ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen < c.productsApplied {
		return false
	}
	c.productsApplied = gen
	c.page.Products = sel
	if ok {
		c.names.Replace(products)
	}
	return true
}

// LoadInventory reads the inventory and renders one row per item, the
// empty-state row, or the error row.
func (c *Controller) LoadInventory(ctx context.Context) error {
	_, err := c.loadInventory(ctx)
	return err
}

// loadInventory returns the loaded items so the post-order refresh can
// compare them with its baseline.
func (c *Controller) loadInventory(ctx context.Context) ([]models.InventoryItem, error) {
	gen := c.inventoryGen.Add(1)

	items, err := c.backend.ListInventory(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "failed to load inventory", "error", err)
		if c.applyInventory(gen, nil, false) {
			c.observe(OpLoadInventory, ResultFailure)
		} else {
			c.observe(OpLoadInventory, ResultStale)
		}
		return nil, fmt.Errorf("loading inventory: %w", err)
	}

	if c.applyInventory(gen, items, true) {
		c.observe(OpLoadInventory, ResultSuccess)
	} else {
		c.observe(OpLoadInventory, ResultStale)
	}
	return items, nil
}

func (c *Controller) applyInventory(gen uint64, items []models.InventoryItem, ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen < c.inventoryApplied {
		return false
	}
	c.inventoryApplied = gen
	if !ok {
		c.page.Inventory = view.InventoryErrorTable()
		return true
	}
	c.inventory = items
	c.inventoryLoaded = true
	c.page.Inventory = view.InventoryRows(items, c.names)
	return true
}

// CreateProduct submits a new product. An empty name is rejected with an
// alert before any request is made. On success the name input is cleared and
// the products are reloaded.
func (c *Controller) CreateProduct(ctx context.Context, name, description string) error {
	req := models.CreateProductRequest{Name: name, Description: description}
	if err := c.validate.StructCtx(ctx, req); err != nil {
		c.observe(OpCreateProduct, ResultRejected)
		c.setInputs(name, description)
		return &AlertError{Message: AlertNameRequired}
	}

	if err := c.backend.CreateProduct(ctx, req); err != nil {
		c.log.ErrorContext(ctx, "failed to create product", "name", name, "error", err)
		text := StatusProductSaveFailed
		if backend.IsUnavailable(err) {
			text = StatusProductUnreachable
		}
		c.setStatus(&c.page.ProductStatus, view.StatusError, text, c.statusTTL)
		c.setInputs(name, description)
		c.observe(OpCreateProduct, ResultFailure)
		return fmt.Errorf("creating product: %w", err)
	}

	// Only the name is cleared; the description stays for the next product.
	c.setInputs("", description)
	c.setStatus(&c.page.ProductStatus, view.StatusSuccess, StatusProductCreated, c.statusTTL)
	c.observe(OpCreateProduct, ResultSuccess)
	c.log.InfoContext(ctx, "product created", "name", name)

	// The selection list renders its own error entry.
	_ = c.LoadProducts(ctx)
	return nil
}

// PlaceOrder submits an order for productID. quantityInput is read like a
// form field: its leading integer is sent, or null when there is none. An
// accepted order schedules an inventory refresh in the background.
func (c *Controller) PlaceOrder(ctx context.Context, productID, quantityInput string) error {
	req := models.OrderRequest{ProductID: productID, Quantity: ParseQuantity(quantityInput)}
	if err := c.validate.StructCtx(ctx, req); err != nil {
		c.observe(OpPlaceOrder, ResultRejected)
		return &AlertError{Message: AlertSelectProduct}
	}

	if err := c.backend.PlaceOrder(ctx, req); err != nil {
		c.log.ErrorContext(ctx, "failed to place order", "product_id", productID, "error", err)
		text := StatusOrderFailed
		if backend.IsUnavailable(err) {
			text = StatusOrderUnreachable
		}
		c.setStatus(&c.page.OrderStatus, view.StatusError, text, c.statusTTL)
		c.observe(OpPlaceOrder, ResultFailure)
		return fmt.Errorf("placing order: %w", err)
	}

	c.setStatus(&c.page.OrderStatus, view.StatusSuccess, StatusOrderSent, c.statusTTL)
	c.observe(OpPlaceOrder, ResultSuccess)
	c.log.InfoContext(ctx, "order placed", "product_id", productID)

	baseline, hasBaseline := c.inventoryBaseline()
	c.goBackground(ctx, func(ctx context.Context) {
		c.refresher.Refresh(ctx, func(ctx context.Context) (bool, error) {
			items, err := c.loadInventory(ctx)
			if err != nil {
				return false, err
			}
			return !hasBaseline || !maps.Equal(baseline, quantities(items)), nil
		})
	})
	return nil
}

// inventoryBaseline captures the inventory currently on screen.
func (c *Controller) inventoryBaseline() (map[string]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inventoryLoaded {
		return nil, false
	}
	return quantities(c.inventory), true
}

func quantities(items []models.InventoryItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

// DeleteItem removes the inventory record of productID once confirmer
// approves. A confirmed delete is followed by exactly one inventory reload,
// whether or not the delete succeeded; a failed delete also returns a
// "Delete failed" alert.
func (c *Controller) DeleteItem(ctx context.Context, productID string, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(ctx, view.DeletePrompt) {
		c.observe(OpDeleteItem, ResultDeclined)
		return nil
	}

	deleteErr := c.backend.DeleteInventoryItem(ctx, productID)
	if deleteErr != nil {
		c.log.ErrorContext(ctx, "failed to delete inventory item", "product_id", productID, "error", deleteErr)
		c.observe(OpDeleteItem, ResultFailure)
	} else {
		c.observe(OpDeleteItem, ResultSuccess)
		c.log.InfoContext(ctx, "inventory item deleted", "product_id", productID)
	}

	_ = c.LoadInventory(ctx)

	if deleteErr != nil {
		return &AlertError{Message: AlertDeleteFailed, Err: deleteErr}
	}
	return nil
}

// TriggerTestError asks the order service to fail with the status named by
// code and shows what came back. An error status is the expected outcome, so
// only transport failures are returned.
func (c *Controller) TriggerTestError(ctx context.Context, code string) error {
	c.setStatus(&c.page.DiagnosticsStatus, view.StatusPending, StatusDiagnosticsPending, 0)

	status, err := c.backend.TriggerTestError(ctx, code)
	at := c.now().Format(clockFormat)

	var httpErr *backend.HTTPError
	switch {
	case err == nil:
		c.setStatus(&c.page.DiagnosticsStatus, view.StatusSuccess, fmt.Sprintf("%d (OK) - %s", status, at), 0)
		c.observe(OpTriggerTestError, ResultSuccess)
		return nil
	case errors.As(err, &httpErr):
		c.setStatus(&c.page.DiagnosticsStatus, view.StatusError,
			fmt.Sprintf("%d %s triggered at %s", httpErr.StatusCode, statusText(httpErr), at), 0)
		c.observe(OpTriggerTestError, ResultSuccess)
		c.log.InfoContext(ctx, "test error triggered", "code", code, "status", httpErr.StatusCode)
		return nil
	default:
		c.setStatus(&c.page.DiagnosticsStatus, view.StatusError, StatusDiagnosticsNetwork, 0)
		c.observe(OpTriggerTestError, ResultFailure)
		c.log.ErrorContext(ctx, "test error request failed", "code", code, "error", err)
		return fmt.Errorf("triggering test error: %w", err)
	}
}

func statusText(e *backend.HTTPError) string {
	if e.Status != "" {
		return e.Status
	}
	return http.StatusText(e.StatusCode)
}

// Page returns a snapshot of the page with expired status messages removed.
func (c *Controller) Page() view.Page {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.page
	p.ProductStatus = p.ProductStatus.At(now)
	p.OrderStatus = p.OrderStatus.At(now)
	p.DiagnosticsStatus = p.DiagnosticsStatus.At(now)
	return p
}

// Close cancels pending inventory refreshes and waits for them to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// goBackground runs fn after the current request has returned. fn keeps the
// request's values (request id, logger fields) but not its cancellation,
// and stops when the controller is closed.
func (c *Controller) goBackground(reqCtx context.Context, fn func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithoutCancel(reqCtx))
	stop := context.AfterFunc(c.bgCtx, cancel)

	go func() {
		defer c.wg.Done()
		defer stop()
		defer cancel()
		fn(ctx)
	}()
}

func (c *Controller) setStatus(s *view.Status, kind view.StatusKind, text string, ttl time.Duration) {
	status := view.NewStatus(kind, text, c.now(), ttl)
	c.mu.Lock()
	*s = status
	c.mu.Unlock()
}

func (c *Controller) setInputs(name, description string) {
	c.mu.Lock()
	c.page.ProductNameInput = name
	c.page.ProductDescInput = description
	c.mu.Unlock()
}

func (c *Controller) observe(op, result string) {
	if c.recorder != nil {
		c.recorder.ObserveOperation(op, result)
	}
}
