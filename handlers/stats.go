package handlers

import (
	"net/http"
	"time"

	"github.com/isocronas-quito/api/internal/metrics"
)

// StationStatsSource returns per-station load statistics
type StationStatsSource interface {
	Snapshot() []metrics.StationStat
}

// StatsHandler serves isochrone load statistics per station
type StatsHandler struct {
	stats StationStatsSource
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StationStatsSource) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// StationStatsResponse is the JSON response for GET /api/stations/stats
type StationStatsResponse struct {
	Stations    []metrics.StationStat `json:"stations"`
	LastChecked time.Time             `json:"lastChecked"`
}

// GetStationStats handles GET /api/stations/stats
func (h *StatsHandler) GetStationStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, StationStatsResponse{
		Stations:    h.stats.Snapshot(),
		LastChecked: time.Now().UTC(),
	})
}
