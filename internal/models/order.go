package models

// OrderRequest is the body of POST /orders
// Quantity is nil when the user input held no leading integer; it is then
// sent as JSON null and left for the backend to reject.
type OrderRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}
