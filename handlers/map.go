package handlers

import (
	"net/http"

	"github.com/isocronas-quito/api/internal/mapsurface"
	"github.com/isocronas-quito/api/internal/selection"
	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/models"
)

// SurfaceReader exposes the read side of the map surface
type SurfaceReader interface {
	Snapshot() mapsurface.Snapshot
}

// StationLister returns the registry in order
type StationLister interface {
	Stations() []models.Station
}

// SelectionReader exposes the dropdown state
type SelectionReader interface {
	Current() models.TimeSelection
	Options() []selection.Option
}

// MapHandler serves the map description the page is built from
type MapHandler struct {
	surface      SurfaceReader
	stations     StationLister
	selection    SelectionReader
	presentation ui.Presentation
}

// NewMapHandler creates a new MapHandler
func NewMapHandler(surface SurfaceReader, stations StationLister, sel SelectionReader, p ui.Presentation) *MapHandler {
	return &MapHandler{surface: surface, stations: stations, selection: sel, presentation: p}
}

// MapResponse is the JSON response for GET /api/map
type MapResponse struct {
	mapsurface.Snapshot
	Marker   ui.MarkerAppearance  `json:"marker"`
	Polygon  ui.PolygonStyle      `json:"polygon"`
	Labels   ui.Labels            `json:"labels"`
	Language ui.Language          `json:"language"`
	Options  []selection.Option   `json:"options"`
	Current  models.TimeSelection `json:"current"`
}

// StationsResponse is the JSON response for GET /api/stations
type StationsResponse struct {
	Stations []models.Station `json:"stations"`
	Count    int              `json:"count"`
}

// TimesResponse is the JSON response for GET /api/times
type TimesResponse struct {
	Options []selection.Option   `json:"options"`
	Current models.TimeSelection `json:"current"`
	Default models.TimeSelection `json:"default"`
}

// GetMap handles GET /api/map
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	snap := h.surface.Snapshot()
	if snap.Closed {
		writeError(w, http.StatusServiceUnavailable, "Map surface has been torn down", nil)
		return
	}

	writeJSON(w, http.StatusOK, MapResponse{
		Snapshot: snap,
		Marker:   h.presentation.Marker(),
		Polygon:  h.presentation.Polygon,
		Labels:   h.presentation.Labels(),
		Language: h.presentation.Language,
		Options:  h.selection.Options(),
		Current:  h.selection.Current(),
	})
}

// GetStations handles GET /api/stations
func (h *MapHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	stations := h.stations.Stations()
	writeJSON(w, http.StatusOK, StationsResponse{Stations: stations, Count: len(stations)})
}

// GetTimes handles GET /api/times
func (h *MapHandler) GetTimes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TimesResponse{
		Options: h.selection.Options(),
		Current: h.selection.Current(),
		Default: models.DefaultTimeSelection,
	})
}
