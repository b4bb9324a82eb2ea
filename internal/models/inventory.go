package models

// InventoryItem links a product id to its on-hand quantity
type InventoryItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
