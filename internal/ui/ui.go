// Package ui holds the presentation parameters of the map page: UI language,
// marker style and the polygon style used for isochrone overlays.
package ui

import (
	"fmt"
	"strings"

	"github.com/isocronas-quito/api/models"
)

// Language selects the label set of the page
type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
)

// MarkerStyle selects how station markers are drawn
type MarkerStyle string

const (
	MarkerIcon   MarkerStyle = "icon"
	MarkerCircle MarkerStyle = "circle"
)

// Labels are the user-facing strings of the page
type Labels struct {
	Title        string `json:"title"`
	SelectLabel  string `json:"selectLabel"`
	OptionFormat string `json:"-"`
	InfoHeading  string `json:"infoHeading"`
	InfoText     string `json:"infoText"`
	LoadFailed   string `json:"loadFailed"`
}

var labels = map[Language]Labels{
	LanguageSpanish: {
		Title:        "Estaciones del Metro de Quito: áreas caminables",
		SelectLabel:  "Selecciona el tiempo en minutos:",
		OptionFormat: "%d minutos",
		InfoHeading:  "Información",
		InfoText: "Este mapa muestra las áreas a las que se puede llegar caminando desde cada estación " +
			"del metro de Quito en un tiempo determinado. Selecciona el tiempo de caminata en el menú " +
			"desplegable y observa cómo cambia el área alrededor de cada estación. Esto te puede ayudar " +
			"a planificar mejor tus viajes y conocer qué tan lejos puedes llegar a pie desde cada estación.",
		LoadFailed: "No se pudo cargar el área",
	},
	LanguageEnglish: {
		Title:        "Quito Metro Stations Walking Isochrones",
		SelectLabel:  "Select walking time in minutes:",
		OptionFormat: "%d minutes",
		InfoHeading:  "Information",
		InfoText: "This map shows the areas that can be reached on foot from each Quito metro station " +
			"within a given time. Pick a walking time from the dropdown and watch how the area around " +
			"each station changes. It can help you plan trips and see how far you can walk from each station.",
		LoadFailed: "Could not load the area",
	},
}

// PolygonStyle is the Leaflet path style applied to isochrone polygons
type PolygonStyle struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// DefaultPolygonStyle is the style of the original map
var DefaultPolygonStyle = PolygonStyle{
	Color:       "blue",
	Weight:      2,
	Opacity:     0.6,
	FillColor:   "#30f",
	FillOpacity: 0.2,
}

// MarkerAppearance describes how the page draws a station marker
type MarkerAppearance struct {
	Style      MarkerStyle `json:"style"`
	IconURL    string      `json:"iconUrl,omitempty"`
	IconSize   [2]int      `json:"iconSize,omitempty"`
	IconAnchor [2]int      `json:"iconAnchor,omitempty"`
	Radius     int         `json:"radius,omitempty"`
	Color      string      `json:"color,omitempty"`
}

// Presentation is the single parameter set that replaces per-language and
// per-marker-style copies of the map page
type Presentation struct {
	Language    Language
	MarkerStyle MarkerStyle
	PublicURL   string
	Polygon     PolygonStyle
}

// New builds a presentation, rejecting unknown languages and marker styles
func New(language, markerStyle, publicURL string) (Presentation, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(language)))
	if _, ok := labels[lang]; !ok {
		return Presentation{}, fmt.Errorf("unsupported language %q", language)
	}

	style := MarkerStyle(strings.ToLower(strings.TrimSpace(markerStyle)))
	switch style {
	case MarkerIcon, MarkerCircle:
	default:
		return Presentation{}, fmt.Errorf("unsupported marker style %q", markerStyle)
	}

	return Presentation{
		Language:    lang,
		MarkerStyle: style,
		PublicURL:   strings.TrimRight(publicURL, "/"),
		Polygon:     DefaultPolygonStyle,
	}, nil
}

// Labels returns the label set of the presentation language
func (p Presentation) Labels() Labels {
	return labels[p.Language]
}

// OptionLabel formats the dropdown label of a walking time
func (p Presentation) OptionLabel(t models.TimeSelection) string {
	return fmt.Sprintf(p.Labels().OptionFormat, int(t))
}

// Marker returns the marker appearance for the configured style
func (p Presentation) Marker() MarkerAppearance {
	if p.MarkerStyle == MarkerCircle {
		return MarkerAppearance{
			Style:  MarkerCircle,
			Radius: 6,
			Color:  "#e4002b",
		}
	}
	return MarkerAppearance{
		Style:      MarkerIcon,
		IconURL:    p.PublicURL + "/metro-icon.svg",
		IconSize:   [2]int{24, 24},
		IconAnchor: [2]int{12, 12},
	}
}
