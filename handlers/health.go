package handlers

import (
	"net/http"
	"time"

	"github.com/isocronas-quito/api/internal/refresh"
)

// HealthHandler reports liveness of the map service
type HealthHandler struct {
	surface    SurfaceReader
	stations   StationLister
	controller RefreshStatus
	started    time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(surface SurfaceReader, stations StationLister, controller RefreshStatus) *HealthHandler {
	return &HealthHandler{
		surface:    surface,
		stations:   stations,
		controller: controller,
		started:    time.Now().UTC(),
	}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status         string        `json:"status"`
	Stations       int           `json:"stations"`
	Markers        int           `json:"markers"`
	OverlayMinutes int           `json:"overlayMinutes,omitempty"`
	OverlayItems   int           `json:"overlayItems"`
	OverlayAgeSec  *int64        `json:"overlayAgeSeconds,omitempty"`
	RefreshState   refresh.State `json:"refreshState"`
	UptimeSeconds  int64         `json:"uptimeSeconds"`
	Timestamp      time.Time     `json:"timestamp"`
}

// GetHealth handles GET /health
// Returns 503 once the surface has been torn down
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.surface.Snapshot()
	now := time.Now().UTC()

	resp := HealthResponse{
		Status:         "ok",
		Stations:       len(h.stations.Stations()),
		Markers:        len(snap.Markers),
		OverlayMinutes: snap.OverlayMinutes,
		OverlayItems:   snap.OverlayItems,
		RefreshState:   h.controller.State(),
		UptimeSeconds:  int64(now.Sub(h.started).Seconds()),
		Timestamp:      now,
	}

	if snap.OverlayCreatedAt != nil {
		age := int64(now.Sub(*snap.OverlayCreatedAt).Seconds())
		resp.OverlayAgeSec = &age
	}

	status := http.StatusOK
	if snap.Closed {
		resp.Status = "closed"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetHealthz handles GET /healthz
func (h *HealthHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
