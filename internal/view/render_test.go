package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, p Page) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, p))
	return buf.String()
}

func TestRenderer_Page(t *testing.T) {
	now := time.Now()
	html := render(t, Page{
		Products: ProductSelect{Options: []Option{
			{Value: "", Label: PlaceholderLabel},
			{Value: "p1", Label: "Widget (A widget)"},
		}},
		Inventory: InventoryTable{Rows: []InventoryRow{
			{Kind: RowItem, ProductName: "Widget", ProductID: "p1", Quantity: 3},
		}},
		ProductStatus: NewStatus(StatusSuccess, "✔ Product created!", now, time.Minute),
	})

	assert.Contains(t, html, `<option value="">-- Please select --</option>`)
	assert.Contains(t, html, `<option value="p1">Widget (A widget)</option>`)
	assert.Contains(t, html, `<strong>Widget</strong>`)
	assert.Contains(t, html, `3 units`)
	assert.Contains(t, html, `href="/inventory/p1/delete"`)
	assert.Contains(t, html, `<span class="text-success">✔ Product created!</span>`)
	assert.NotContains(t, html, `role="alertdialog"`)
	assert.NotContains(t, html, `id="diagnostics"`)
}

func TestRenderer_PlaceholderRows(t *testing.T) {
	html := render(t, Page{Products: ProductsError(), Inventory: InventoryErrorTable()})
	assert.Contains(t, html, `<option value="" disabled>Error: service unavailable</option>`)
	assert.Contains(t, html, `<td colspan="4" class="text-error">Error: Could not load inventory.</td>`)

	html = render(t, Page{Inventory: InventoryEmptyTable()})
	assert.Contains(t, html, `Inventory is empty.`)
	assert.NotContains(t, html, `btn-delete" href`)
}

func TestRenderer_EscapesBackendText(t *testing.T) {
	html := render(t, Page{
		Inventory: InventoryTable{Rows: []InventoryRow{
			{Kind: RowItem, ProductName: "<script>alert(1)</script>", ProductID: "a/b", Quantity: 1},
		}},
		Alert: "Name is required!",
	})

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `href="/inventory/a%2Fb/delete"`)
	assert.Contains(t, html, `<div class="alert" role="alertdialog">Name is required!</div>`)
}

func TestRenderer_Diagnostics(t *testing.T) {
	html := render(t, Page{
		DiagnosticsEnabled: true,
		DiagnosticsStatus:  Status{Kind: StatusError, Text: "500 Internal Server Error triggered at 12:00:00"},
	})
	for _, code := range DiagnosticCodes {
		assert.True(t, strings.Contains(html, "test-error?type="+code), "missing form for %s", code)
	}
	assert.Contains(t, html, "triggered at 12:00:00")
}

func TestRenderer_Confirm(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Confirm(&buf, ConfirmPage{ProductID: "p1", ProductName: "Widget", Prompt: DeletePrompt}))
	assert.Contains(t, buf.String(), "Really delete this item?")
	assert.Contains(t, buf.String(), `action="/inventory/p1/delete"`)
	assert.Contains(t, buf.String(), `name="confirm" value="yes"`)
}
