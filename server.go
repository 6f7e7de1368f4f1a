package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isocronas-quito/api/handlers"
	"github.com/isocronas-quito/api/internal/logger"
	"github.com/isocronas-quito/api/internal/mapsurface"
	"github.com/isocronas-quito/api/internal/metrics"
	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/internal/registry"
	"github.com/isocronas-quito/api/internal/selection"
	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/web"
)

// app holds the wired components behind the HTTP routes
type app struct {
	surface        *mapsurface.Surface
	registry       *registry.Registry
	controller     *refresh.Controller
	selection      *selection.Control
	presentation   ui.Presentation
	metrics        *metrics.Metrics
	stationStats   *metrics.StationStats
	isochroneDir   string
	allowedOrigins []string
	refreshTimeout time.Duration
	logger         *slog.Logger
}

func (a *app) routes() http.Handler {
	mapHandler := handlers.NewMapHandler(a.surface, a.registry, a.selection, a.presentation)
	selectionHandler := handlers.NewSelectionHandler(a.selection, a.refreshTimeout, a.logger)
	overlayHandler := handlers.NewOverlayHandler(a.surface, a.controller)
	healthHandler := handlers.NewHealthHandler(a.surface, a.registry, a.controller)
	statsHandler := handlers.NewStatsHandler(a.stationStats)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(logger.AccessMiddleware(a.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.allowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Overlay-Id", "X-Overlay-Minutes"},
		AllowCredentials: true,
	}))

	// Health
	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", healthHandler.GetHealthz)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}

	// Page and assets
	r.Get("/", web.NewPage(a.presentation, a.selection, a.logger).ServeHTTP)
	publicURL := a.presentation.PublicURL
	if publicURL == "" {
		publicURL = "/static"
	}
	r.Handle(publicURL+"/*", http.StripPrefix(publicURL, web.Static()))
	r.Handle("/isochrones/*", http.StripPrefix("/isochrones", handlers.IsochroneFiles(a.isochroneDir)))

	// Map API
	r.Route("/api", func(r chi.Router) {
		r.Get("/map", mapHandler.GetMap)
		r.Get("/stations", mapHandler.GetStations)
		r.Get("/stations/stats", statsHandler.GetStationStats)
		r.Get("/times", mapHandler.GetTimes)
		r.Put("/selection", selectionHandler.PutSelection)
		r.Post("/selection", selectionHandler.PutSelection)
		r.Get("/overlay", overlayHandler.GetOverlay)
		r.Get("/refresh/status", overlayHandler.GetRefreshStatus)
	})

	return r
}
