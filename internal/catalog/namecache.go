// Package catalog holds the process-local product name cache.
package catalog

import (
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
)

// UnknownProduct is shown for inventory rows whose product id is not cached.
const UnknownProduct = "Unknown product"

// NameCache maps product ids to names. It is only ever replaced wholesale,
// so readers observe either the previous or the next generation.
type NameCache struct {
	mu    sync.RWMutex
	names map[string]string
	ready bool
}

// NewNameCache creates an empty cache.
func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]string)}
}

// Replace discards all entries and caches one name per product.
// When ids repeat, the last product wins.
func (c *NameCache) Replace(products []models.Product) {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = names
	c.ready = true
}

// Lookup returns the cached name of id.
func (c *NameCache) Lookup(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[id]
	return name, ok
}

// Name returns the cached name of id, or UnknownProduct.
func (c *NameCache) Name(id string) string {
	if name, ok := c.Lookup(id); ok {
		return name
	}
	return UnknownProduct
}

// Len returns the number of cached names.
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Ready reports whether at least one product load has succeeded.
func (c *NameCache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Snapshot returns a copy of the current mapping.
func (c *NameCache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.names))
	for id, name := range c.names {
		out[id] = name
	}
	return out
}
