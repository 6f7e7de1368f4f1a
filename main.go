package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/isocronas-quito/api/internal/config"
	"github.com/isocronas-quito/api/internal/isochrone"
	"github.com/isocronas-quito/api/internal/logger"
	"github.com/isocronas-quito/api/internal/mapsurface"
	"github.com/isocronas-quito/api/internal/metrics"
	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/internal/registry"
	"github.com/isocronas-quito/api/internal/selection"
	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/models"
	"github.com/isocronas-quito/api/repository"
)

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	log := logger.Setup()

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("config_loaded",
		"port", cfg.Port,
		"station_source", cfg.StationSource,
		"isochrone_base_url", cfg.IsochroneBaseURL,
		"swap_mode", cfg.OverlaySwapMode,
		"language", cfg.UILanguage,
		"marker_style", cfg.MarkerStyle,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Station registry
	source, closeSource, err := repository.Open(ctx, cfg.StationSource, cfg.SQLitePath, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	stations, err := source.ListStations(ctx)
	closeSource()
	if err != nil {
		return err
	}
	reg, err := registry.New(stations)
	if err != nil {
		return err
	}
	log.Info("stations_loaded", "source", cfg.StationSource, "count", reg.Len())

	// Presentation and surface
	presentation, err := ui.New(cfg.UILanguage, cfg.MarkerStyle, cfg.PublicURL)
	if err != nil {
		return err
	}
	surface := mapsurface.Initialize(
		mapsurface.Viewport{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng, Zoom: cfg.MapZoom},
		mapsurface.TileLayer{URL: cfg.TileURL, Attribution: cfg.TileAttribution},
		reg.Stations(),
	)

	// Loader and controller
	loader, err := isochrone.NewLoader(cfg.IsochroneBaseURL,
		isochrone.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		isochrone.WithMaxBytes(cfg.IsochroneMaxBytes),
		isochrone.WithLogger(log),
	)
	if err != nil {
		return err
	}
	mode, err := refresh.ParseSwapMode(cfg.OverlaySwapMode)
	if err != nil {
		return err
	}
	m := metrics.New()
	stats := metrics.NewStationStats()
	controller := refresh.New(surface, reg, loader,
		refresh.WithSwapMode(mode),
		refresh.WithConcurrency(cfg.RefreshConcurrency),
		refresh.WithPolygonStyle(presentation.Polygon),
		refresh.WithLogger(log),
		refresh.WithObserver(refresh.Observers{refresh.NewLogObserver(log), m, stats}),
	)
	control := selection.NewControl(controller, presentation)

	a := &app{
		surface:        surface,
		registry:       reg,
		controller:     controller,
		selection:      control,
		presentation:   presentation,
		metrics:        m,
		stationStats:   stats,
		isochroneDir:   cfg.IsochroneDir,
		allowedOrigins: cfg.CORSAllowedOrigins,
		refreshTimeout: cfg.RefreshTimeout,
		logger:         log,
	}

	// Listen before the first refresh so the loader can reach our own /isochrones
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server_started", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	go initialRefresh(ctx, log, control, cfg.RefreshTimeout)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server_shutdown_failed", "error", err)
	}
	controller.Close()
	log.Info("goodbye")
	return nil
}

// initialRefresh shows the default walking time once the server is up
func initialRefresh(ctx context.Context, log *slog.Logger, control *selection.Control, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := control.Select(ctx, models.DefaultTimeSelection); err != nil && !errors.Is(err, refresh.ErrClosed) {
		log.Warn("initial_refresh_failed", "error", err)
	}
}
