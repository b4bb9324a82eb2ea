package backendtest

import (
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
	"github.com/google/uuid"
)

// Store is the in-memory state behind Server: products in insertion order
// and inventory keyed by product id.
type Store struct {
	mu        sync.RWMutex
	products  []models.Product
	inventory map[string]int
	invOrder  []string
	orders    []models.OrderRequest
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		inventory: make(map[string]int),
	}
}

// AddProduct stores p, assigning a UUID when p.ID is empty.
func (s *Store) AddProduct(p models.Product) models.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
	return p
}

// Products returns a copy of all products
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

// SetStock sets the on-hand quantity of productID.
func (s *Store) SetStock(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStockLocked(productID, quantity)
}

// AdjustStock adds delta to productID, creating the record when missing.
func (s *Store) AdjustStock(productID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStockLocked(productID, s.inventory[productID]+delta)
}

func (s *Store) setStockLocked(productID string, quantity int) {
	if _, exists := s.inventory[productID]; !exists {
		s.invOrder = append(s.invOrder, productID)
	}
	s.inventory[productID] = quantity
}

// Inventory returns all inventory records in creation order
func (s *Store) Inventory() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.InventoryItem, 0, len(s.invOrder))
	for _, id := range s.invOrder {
		items = append(items, models.InventoryItem{ProductID: id, Quantity: s.inventory[id]})
	}
	return items
}

// DeleteStock removes the record of productID; missing ids are ignored.
func (s *Store) DeleteStock(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inventory[productID]; !exists {
		return
	}
	delete(s.inventory, productID)
	for i, id := range s.invOrder {
		if id == productID {
			s.invOrder = append(s.invOrder[:i], s.invOrder[i+1:]...)
			break
		}
	}
}

// RecordOrder keeps req for later inspection
func (s *Store) RecordOrder(req models.OrderRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, req)
}

// Orders returns every accepted order
func (s *Store) Orders() []models.OrderRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OrderRequest(nil), s.orders...)
}
