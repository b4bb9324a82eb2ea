// Package view turns catalog and inventory data into view models and renders
// them as HTML. Nothing here performs I/O beyond writing the rendered page.
package view

import (
	"fmt"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/models"
)

// Fixed UI labels.
const (
	PlaceholderLabel     = "-- Please select --"
	ProductsUnavailable  = "Error: service unavailable"
	InventoryEmpty       = "Inventory is empty."
	InventoryUnavailable = "Error: Could not load inventory."
	DeletePrompt         = "Really delete this item?"
)

// Option is one entry of the product selection list.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// ProductSelect is the product selection list of the order form.
type ProductSelect struct {
	Options []Option `json:"options"`
}

// ProductOptions builds the placeholder entry followed by one "name (description)" entry per product.
func ProductOptions(products []models.Product) ProductSelect {
	opts := make([]Option, 0, len(products)+1)
	opts = append(opts, Option{Value: "", Label: PlaceholderLabel})
	for _, p := range products {
		opts = append(opts, Option{Value: p.ID, Label: fmt.Sprintf("%s (%s)", p.Name, p.Description)})
	}
	return ProductSelect{Options: opts}
}

// ProductsError is the list shown when products could not be loaded.
func ProductsError() ProductSelect {
	return ProductSelect{Options: []Option{{Label: ProductsUnavailable, Disabled: true}}}
}

// RowKind distinguishes item rows from placeholder rows.
type RowKind string

const (
	RowItem  RowKind = "item"
	RowEmpty RowKind = "empty"
	RowError RowKind = "error"
)

// InventoryRow is one row of the inventory table.
type InventoryRow struct {
	Kind        RowKind `json:"kind"`
	ProductName string  `json:"productName,omitempty"`
	ProductID   string  `json:"productId,omitempty"`
	Quantity    int     `json:"quantity,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// Units renders the quantity column.
func (r InventoryRow) Units() string {
	return fmt.Sprintf("%d units", r.Quantity)
}

// Deletable reports whether the row carries a delete action.
func (r InventoryRow) Deletable() bool {
	return r.Kind == RowItem
}

// InventoryTable is the body of the inventory view.
type InventoryTable struct {
	Rows []InventoryRow `json:"rows"`
}

// NameResolver resolves product ids to display names.
type NameResolver interface {
	Name(id string) string
}

// InventoryRows builds one row per item, or the empty-state row.
func InventoryRows(items []models.InventoryItem, names NameResolver) InventoryTable {
	if len(items) == 0 {
		return InventoryEmptyTable()
	}

	rows := make([]InventoryRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, InventoryRow{
			Kind:        RowItem,
			ProductName: names.Name(item.ProductID),
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
		})
	}
	return InventoryTable{Rows: rows}
}

// InventoryEmptyTable is the single empty-state row.
func InventoryEmptyTable() InventoryTable {
	return InventoryTable{Rows: []InventoryRow{{Kind: RowEmpty, Message: InventoryEmpty}}}
}

// InventoryErrorTable is the single error row.
func InventoryErrorTable() InventoryTable {
	return InventoryTable{Rows: []InventoryRow{{Kind: RowError, Message: InventoryUnavailable}}}
}

// StatusKind selects the styling of a status message.
type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
	StatusPending StatusKind = "pending"
)

// Status is a transient message shown next to a form.
// A zero ExpiresAt keeps the message until it is overwritten.
type Status struct {
	Kind      StatusKind `json:"kind,omitempty"`
	Text      string     `json:"text,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt,omitzero"`
}

// NewStatus creates a status that expires ttl after now; ttl <= 0 never expires.
func NewStatus(kind StatusKind, text string, now time.Time, ttl time.Duration) Status {
	s := Status{Kind: kind, Text: text}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// At returns s as seen at now: empty once expired.
func (s Status) At(now time.Time) Status {
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return Status{}
	}
	return s
}

// Empty reports whether there is nothing to show.
func (s Status) Empty() bool {
	return s.Text == ""
}

// Page is everything the storefront page shows.
type Page struct {
	Products           ProductSelect  `json:"products"`
	Inventory          InventoryTable `json:"inventory"`
	ProductStatus      Status         `json:"productStatus"`
	OrderStatus        Status         `json:"orderStatus"`
	DiagnosticsStatus  Status         `json:"diagnosticsStatus"`
	ProductNameInput   string         `json:"productNameInput"`
	ProductDescInput   string         `json:"productDescriptionInput"`
	Alert              string         `json:"alert,omitempty"`
	DiagnosticsEnabled bool           `json:"diagnosticsEnabled"`
}

// ConfirmPage asks before an inventory item is deleted.
type ConfirmPage struct {
	ProductID   string
	ProductName string
	Prompt      string
}
