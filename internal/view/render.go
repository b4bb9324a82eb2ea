package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
)

//go:embed templates/*.html
var templateFS embed.FS

// DiagnosticCodes are the statuses offered by the error lab.
var DiagnosticCodes = []string{"400", "404", "500"}

// Renderer renders pages from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("storefront").Funcs(template.FuncMap{
		"pathEscape": url.PathEscape,
		"errorCodes": func() []string { return DiagnosticCodes },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the storefront page.
func (r *Renderer) Page(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

// Confirm renders the delete confirmation page.
func (r *Renderer) Confirm(w io.Writer, p ConfirmPage) error {
	return r.tmpl.ExecuteTemplate(w, "confirm", p)
}
