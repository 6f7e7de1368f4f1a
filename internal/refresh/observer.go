package refresh

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/isocronas-quito/api/internal/isochrone"
	"github.com/isocronas-quito/api/models"
)

// Observer receives refresh lifecycle events at the loader/controller boundary
type Observer interface {
	RefreshStarted(layerID uuid.UUID, minutes models.TimeSelection, stations int)
	StationLoaded(minutes models.TimeSelection, station string, elapsed time.Duration)
	StationFailed(minutes models.TimeSelection, station string, err error)
	StationDiscarded(minutes models.TimeSelection, station string)
	RefreshSettled(result Result)
}

// Observers fans events out to several observers
type Observers []Observer

func (o Observers) RefreshStarted(layerID uuid.UUID, minutes models.TimeSelection, stations int) {
	for _, obs := range o {
		obs.RefreshStarted(layerID, minutes, stations)
	}
}

func (o Observers) StationLoaded(minutes models.TimeSelection, station string, elapsed time.Duration) {
	for _, obs := range o {
		obs.StationLoaded(minutes, station, elapsed)
	}
}

func (o Observers) StationFailed(minutes models.TimeSelection, station string, err error) {
	for _, obs := range o {
		obs.StationFailed(minutes, station, err)
	}
}

func (o Observers) StationDiscarded(minutes models.TimeSelection, station string) {
	for _, obs := range o {
		obs.StationDiscarded(minutes, station)
	}
}

func (o Observers) RefreshSettled(result Result) {
	for _, obs := range o {
		obs.RefreshSettled(result)
	}
}

// LogObserver writes refresh events to a structured logger
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer logging to l, or to slog.Default when l is nil
func NewLogObserver(l *slog.Logger) *LogObserver {
	if l == nil {
		l = slog.Default()
	}
	return &LogObserver{Logger: l}
}

func (o *LogObserver) RefreshStarted(layerID uuid.UUID, minutes models.TimeSelection, stations int) {
	o.Logger.Info("refresh_started", "layer", layerID, "minutes", int(minutes), "stations", stations)
}

func (o *LogObserver) StationLoaded(minutes models.TimeSelection, station string, elapsed time.Duration) {
	o.Logger.Debug("isochrone_loaded", "station", station, "minutes", int(minutes), "duration_ms", elapsed.Milliseconds())
}

func (o *LogObserver) StationFailed(minutes models.TimeSelection, station string, err error) {
	o.Logger.Warn("isochrone_failed",
		"station", station,
		"minutes", int(minutes),
		"kind", isochrone.ErrorKind(err),
		"error", err,
	)
}

func (o *LogObserver) StationDiscarded(minutes models.TimeSelection, station string) {
	o.Logger.Debug("isochrone_discarded", "station", station, "minutes", int(minutes))
}

func (o *LogObserver) RefreshSettled(r Result) {
	o.Logger.Info("refresh_settled",
		"layer", r.LayerID,
		"minutes", int(r.Minutes),
		"loaded", r.Loaded,
		"failed", r.Failed,
		"discarded", r.Discarded,
		"superseded", r.Superseded,
		"duration_ms", r.Duration.Milliseconds(),
	)
}

type nopObserver struct{}

func (nopObserver) RefreshStarted(uuid.UUID, models.TimeSelection, int)        {}
func (nopObserver) StationLoaded(models.TimeSelection, string, time.Duration) {}
func (nopObserver) StationFailed(models.TimeSelection, string, error)         {}
func (nopObserver) StationDiscarded(models.TimeSelection, string)             {}
func (nopObserver) RefreshSettled(Result)                                     {}
