// Package render assembles the self-contained HTML documents the pipeline
// persists: extracted articles and the error pages saved in their place when
// extraction fails.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/jonesrussell/goread/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders article and error documents from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Article renders the complete document for one extracted article: header
// metadata, main image, and content blocks in document order.
func (r *Renderer) Article(data *domain.ArticleData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "article.html", data); err != nil {
		return "", fmt.Errorf("render article: %w", err)
	}
	return buf.String(), nil
}

type errorData struct {
	Title   string
	Message string
}

// ErrorDocument renders a document describing a failed extraction. It never
// returns an empty string; if template execution itself fails, a minimal
// hardcoded page is returned instead.
func (r *Renderer) ErrorDocument(title, message string) string {
	if title == "" {
		title = "Extraction failed"
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "error.html", errorData{Title: title, Message: message}); err != nil {
		return fmt.Sprintf(
			`<!DOCTYPE html><html><head><title>%s</title></head><body><div class="error-message">%s</div></body></html>`,
			template.HTMLEscapeString(title),
			template.HTMLEscapeString(message),
		)
	}
	return buf.String()
}
