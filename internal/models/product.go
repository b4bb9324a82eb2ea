package models

// Product is a catalog entry as served by GET /products
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateProductRequest is the body of POST /products
// Only the name is required; the description may be empty.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
