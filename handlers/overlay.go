package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/isocronas-quito/api/internal/overlay"
	"github.com/isocronas-quito/api/internal/refresh"
)

// OverlaySource returns the layer attached to the surface, or nil
type OverlaySource interface {
	Overlay() *overlay.Layer
}

// RefreshStatus exposes the controller's state
type RefreshStatus interface {
	State() refresh.State
	Last() (refresh.Result, bool)
	Mode() refresh.SwapMode
}

// OverlayHandler serves the live overlay and the refresh status
type OverlayHandler struct {
	surface    OverlaySource
	controller RefreshStatus
}

// NewOverlayHandler creates a new OverlayHandler
func NewOverlayHandler(surface OverlaySource, controller RefreshStatus) *OverlayHandler {
	return &OverlayHandler{surface: surface, controller: controller}
}

// RefreshStatusResponse is the JSON response for GET /api/refresh/status
type RefreshStatusResponse struct {
	State refresh.State    `json:"state"`
	Mode  refresh.SwapMode `json:"mode"`
	Last  *refresh.Result  `json:"last,omitempty"`
}

// GetOverlay handles GET /api/overlay
// Returns the attached layer as a FeatureCollection; an empty collection when
// nothing is attached. The layer id travels in X-Overlay-Id.
func (h *OverlayHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	layer := h.surface.Overlay()
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	if layer != nil {
		fc = layer.FeatureCollection()
		w.Header().Set("X-Overlay-Id", layer.ID().String())
		w.Header().Set("X-Overlay-Minutes", strconv.Itoa(int(layer.Minutes())))
	}

	body, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode overlay", nil)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GetRefreshStatus handles GET /api/refresh/status
func (h *OverlayHandler) GetRefreshStatus(w http.ResponseWriter, r *http.Request) {
	resp := RefreshStatusResponse{
		State: h.controller.State(),
		Mode:  h.controller.Mode(),
	}
	if last, ok := h.controller.Last(); ok {
		resp.Last = &last
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}
