// Package web serves the embedded Leaflet map page and its static assets.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	applog "github.com/isocronas-quito/api/internal/logger"
	"github.com/isocronas-quito/api/internal/selection"
	"github.com/isocronas-quito/api/internal/ui"
)

//go:embed templates/index.html static/*
var content embed.FS

var indexTemplate = template.Must(template.ParseFS(content, "templates/index.html"))

// OptionSource lists the dropdown entries with the current one marked
type OptionSource interface {
	Options() []selection.Option
}

// pageConfig is handed to the page script as a JS object
type pageConfig struct {
	MapURL       string              `json:"mapUrl"`
	OverlayURL   string              `json:"overlayUrl"`
	SelectionURL string              `json:"selectionUrl"`
	Marker       ui.MarkerAppearance `json:"marker"`
	Polygon      ui.PolygonStyle     `json:"polygon"`
	Labels       ui.Labels           `json:"labels"`
}

type pageData struct {
	Lang      string
	Labels    ui.Labels
	Options   []selection.Option
	PublicURL string
	Config    pageConfig
}

// Page renders the map page for one presentation
type Page struct {
	presentation ui.Presentation
	options      OptionSource
	logger       *slog.Logger
}

// NewPage creates the page handler
func NewPage(p ui.Presentation, options OptionSource, logger *slog.Logger) *Page {
	if logger == nil {
		logger = applog.L()
	}
	return &Page{presentation: p, options: options, logger: logger}
}

// ServeHTTP handles GET /
func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	labels := p.presentation.Labels()
	data := pageData{
		Lang:      string(p.presentation.Language),
		Labels:    labels,
		Options:   p.options.Options(),
		PublicURL: p.presentation.PublicURL,
		Config: pageConfig{
			MapURL:       "/api/map",
			OverlayURL:   "/api/overlay",
			SelectionURL: "/api/selection",
			Marker:       p.presentation.Marker(),
			Polygon:      p.presentation.Polygon,
			Labels:       labels,
		},
	}

	// Render into a buffer so a template error can still produce a 500
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		p.logger.Error("page_render_failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.Debug("page_write_failed", "error", err)
	}
}

// Static serves the embedded static directory. Mount it under PUBLIC_URL with
// the prefix stripped.
func Static() http.Handler {
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(staticFS))
}
