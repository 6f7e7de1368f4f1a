// Package metrics exposes refresh and isochrone load metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isocronas-quito/api/internal/isochrone"
	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/models"
)

var durationBuckets = []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}

// Metrics holds the collectors and the registry they are registered on.
// It implements refresh.Observer.
type Metrics struct {
	registry *prometheus.Registry

	RefreshesTotal    *prometheus.CounterVec
	RefreshDurationMs prometheus.Histogram
	SupersededTotal   prometheus.Counter
	StationLoadsTotal *prometheus.CounterVec
	StationFailures   *prometheus.CounterVec
	DiscardedTotal    prometheus.Counter
	LoadDurationMs    prometheus.Histogram
	OverlayMinutes    prometheus.Gauge
	OverlayFeatures   prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "isochrones_refreshes_total",
			Help: "Total overlay refreshes by selected minutes",
		}, []string{"minutes"}),
		RefreshDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "isochrones_refresh_duration_ms",
			Help:    "Time from refresh start until every station settled, in milliseconds",
			Buckets: durationBuckets,
		}),
		SupersededTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isochrones_refreshes_superseded_total",
			Help: "Refreshes overtaken by a newer selection before settling",
		}),
		StationLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "isochrones_station_loads_total",
			Help: "Per-station isochrone loads by outcome",
		}, []string{"outcome"}),
		StationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "isochrones_station_failures_total",
			Help: "Per-station isochrone failures by error kind",
		}, []string{"kind"}),
		DiscardedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "isochrones_station_discarded_total",
			Help: "Isochrone completions dropped because their refresh was superseded",
		}),
		LoadDurationMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "isochrones_station_load_duration_ms",
			Help:    "Successful isochrone fetch duration in milliseconds",
			Buckets: durationBuckets,
		}),
		OverlayMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isochrones_overlay_minutes",
			Help: "Minutes of the last settled overlay",
		}),
		OverlayFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "isochrones_overlay_features",
			Help: "Polygons rendered in the last settled overlay",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RefreshesTotal,
		m.RefreshDurationMs,
		m.SupersededTotal,
		m.StationLoadsTotal,
		m.StationFailures,
		m.DiscardedTotal,
		m.LoadDurationMs,
		m.OverlayMinutes,
		m.OverlayFeatures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RefreshStarted(_ uuid.UUID, minutes models.TimeSelection, _ int) {
	m.RefreshesTotal.WithLabelValues(minutes.String()).Inc()
}

func (m *Metrics) StationLoaded(_ models.TimeSelection, _ string, elapsed time.Duration) {
	m.StationLoadsTotal.WithLabelValues("loaded").Inc()
	m.LoadDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) StationFailed(_ models.TimeSelection, _ string, err error) {
	m.StationLoadsTotal.WithLabelValues("failed").Inc()
	m.StationFailures.WithLabelValues(isochrone.ErrorKind(err)).Inc()
}

func (m *Metrics) StationDiscarded(models.TimeSelection, string) {
	m.StationLoadsTotal.WithLabelValues("discarded").Inc()
	m.DiscardedTotal.Inc()
}

func (m *Metrics) RefreshSettled(r refresh.Result) {
	m.RefreshDurationMs.Observe(float64(r.Duration.Milliseconds()))
	if r.Superseded {
		m.SupersededTotal.Inc()
		return
	}
	m.OverlayMinutes.Set(float64(r.Minutes))
	m.OverlayFeatures.Set(float64(r.Loaded))
}

var _ refresh.Observer = (*Metrics)(nil)
