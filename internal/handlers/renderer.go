package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"

	"github.com/liamwears/popular/internal/listing"
)

//go:embed templates/*
var templatesFS embed.FS

// Renderer handles template rendering
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
	logger    *log.Logger
}

// NewRenderer parses every page and fragment template up front
func NewRenderer(posters listing.Config, logger *log.Logger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"posterURL":   posters.PosterURL,
		"releaseDate": listing.FormatReleaseDate,
	}

	fragments, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/partials.html")
	if err != nil {
		return nil, err
	}

	// Each page gets its own set so pages can define the same blocks
	pages := make(map[string]*template.Template)
	for _, name := range []string{"home.html"} {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}

	return &Renderer{
		pages:     pages,
		fragments: fragments,
		logger:    logger,
	}, nil
}

// Render renders a full page with the layout
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("page %s is not registered", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

// RenderPage renders a page template and handles errors
func (r *Renderer) RenderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := r.Render(w, name, data); err != nil {
		r.logger.Printf("Failed to render template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RenderFragment renders a partial template without the layout
func (r *Renderer) RenderFragment(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := r.fragments.ExecuteTemplate(w, name, data); err != nil {
		r.logger.Printf("Failed to render fragment %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
