// Package refresh loads every station's isochrone for a walking time into a
// new overlay layer and swaps it onto the map surface.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/isocronas-quito/api/internal/isochrone"
	"github.com/isocronas-quito/api/internal/overlay"
	"github.com/isocronas-quito/api/internal/registry"
	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/models"
)

var (
	// ErrClosed is returned by Refresh after Close
	ErrClosed = errors.New("refresh controller is closed")
	// ErrInvalidMinutes is returned for walking times outside the selectable set
	ErrInvalidMinutes = errors.New("invalid walking time")
)

// Loader fetches one station's isochrone
type Loader interface {
	Load(ctx context.Context, station models.Station, minutes models.TimeSelection) (*isochrone.Polygon, error)
}

// Surface is the part of the map surface the controller drives
type Surface interface {
	AttachOverlay(layer *overlay.Layer) error
	DetachOverlay(layer *overlay.Layer)
	Overlay() *overlay.Layer
	RaiseMarker(station string) error
	Teardown()
}

// SwapMode controls when a new layer replaces the live one
type SwapMode string

const (
	// SwapImmediate detaches the live layer and attaches the new, still empty
	// layer as soon as a refresh starts. The map is briefly blank while loading.
	SwapImmediate SwapMode = "immediate"
	// SwapDeferred keeps the live layer until the new one has settled
	SwapDeferred SwapMode = "deferred"
)

// ParseSwapMode validates a swap mode name
func ParseSwapMode(s string) (SwapMode, error) {
	switch SwapMode(s) {
	case SwapImmediate, SwapDeferred:
		return SwapMode(s), nil
	}
	return "", fmt.Errorf("unknown overlay swap mode %q", s)
}

// State is the controller's refresh state
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSettled State = "settled"
)

// StationFailure describes why a station has no polygon in a layer
type StationFailure struct {
	Station string `json:"station"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

// Result summarises one settled refresh
type Result struct {
	LayerID    uuid.UUID            `json:"layerId"`
	Minutes    models.TimeSelection `json:"minutes"`
	Stations   int                  `json:"stations"`
	Loaded     int                  `json:"loaded"`
	Failed     int                  `json:"failed"`
	Discarded  int                  `json:"discarded"`
	Superseded bool                 `json:"superseded"`
	Failures   []StationFailure     `json:"failures,omitempty"`
	StartedAt  time.Time            `json:"startedAt"`
	Duration   time.Duration        `json:"durationNs"`
}

// Controller runs refreshes. Each Refresh call owns exactly one layer; results
// arriving after a newer refresh started are dropped.
type Controller struct {
	surface     Surface
	stations    []models.Station
	loader      Loader
	style       ui.PolygonStyle
	mode        SwapMode
	concurrency int
	observer    Observer
	logger      *slog.Logger

	mu      sync.Mutex
	current *overlay.Layer
	state   State
	last    *Result
	closed  bool
}

// Option configures a Controller
type Option func(*Controller)

// WithSwapMode sets the swap mode (default SwapImmediate)
func WithSwapMode(m SwapMode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithConcurrency limits concurrent fetches per refresh; 0 means unlimited
func WithConcurrency(n int) Option {
	return func(c *Controller) { c.concurrency = n }
}

// WithObserver sets the event observer
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger for surface errors that do not fail a station
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPolygonStyle sets the style of new layers
func WithPolygonStyle(s ui.PolygonStyle) Option {
	return func(c *Controller) { c.style = s }
}

// New creates a controller over the registry's stations
func New(surface Surface, reg *registry.Registry, loader Loader, opts ...Option) *Controller {
	c := &Controller{
		surface:  surface,
		stations: reg.Stations(),
		loader:   loader,
		style:    ui.DefaultPolygonStyle,
		mode:     SwapImmediate,
		observer: nopObserver{},
		logger:   slog.Default(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh loads all stations' isochrones for minutes into a new layer.
// It returns once every station attempt has resolved. Station failures are
// reported to the observer and counted in the result, never returned.
func (c *Controller) Refresh(ctx context.Context, minutes models.TimeSelection) (Result, error) {
	if !minutes.Valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidMinutes, int(minutes))
	}

	layer := overlay.NewLayer(minutes, c.style)
	res := Result{
		LayerID:   layer.ID(),
		Minutes:   minutes,
		Stations:  len(c.stations),
		StartedAt: time.Now().UTC(),
	}

	if err := c.begin(layer); err != nil {
		return Result{}, err
	}
	c.observer.RefreshStarted(layer.ID(), minutes, len(c.stations))

	var resMu sync.Mutex
	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for _, st := range c.stations {
		st := st
		g.Go(func() error {
			c.loadStation(ctx, layer, st, &res, &resMu)
			return nil
		})
	}
	g.Wait()

	res.Superseded = !c.settle(layer)
	res.Duration = time.Since(res.StartedAt)

	if !res.Superseded {
		c.mu.Lock()
		last := res
		c.last = &last
		c.mu.Unlock()
	}

	c.observer.RefreshSettled(res)
	return res, nil
}

// begin makes layer the current one and, in immediate mode, swaps it onto the surface
func (c *Controller) begin(layer *overlay.Layer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.mode == SwapImmediate {
		c.surface.DetachOverlay(c.surface.Overlay())
		if err := c.surface.AttachOverlay(layer); err != nil {
			return fmt.Errorf("attach overlay: %w", err)
		}
	}

	c.current = layer
	c.state = StateLoading
	return nil
}

// loadStation fetches and renders one station into layer
func (c *Controller) loadStation(ctx context.Context, layer *overlay.Layer, st models.Station, res *Result, resMu *sync.Mutex) {
	start := time.Now()
	minutes := layer.Minutes()

	fail := func(err error) {
		resMu.Lock()
		res.Failed++
		res.Failures = append(res.Failures, StationFailure{
			Station: st.Name,
			Kind:    isochrone.ErrorKind(err),
			Error:   err.Error(),
		})
		resMu.Unlock()
		c.observer.StationFailed(minutes, st.Name, err)
	}

	p, err := c.loader.Load(ctx, st, minutes)
	if err != nil {
		fail(err)
		return
	}

	discarded, err := c.render(layer, st.Name, p)
	switch {
	case discarded:
		resMu.Lock()
		res.Discarded++
		resMu.Unlock()
		c.observer.StationDiscarded(minutes, st.Name)
	case err != nil:
		fail(err)
	default:
		resMu.Lock()
		res.Loaded++
		resMu.Unlock()
		c.observer.StationLoaded(minutes, st.Name, time.Since(start))
	}
}

// render draws p into layer unless layer has been superseded
func (c *Controller) render(layer *overlay.Layer, station string, p *isochrone.Polygon) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != layer {
		return true, nil
	}
	if _, err := layer.Render(station, p.Geometry); err != nil {
		return false, err
	}
	if c.mode == SwapImmediate {
		// Polygons are drawn after markers and would otherwise cover them.
		// The polygon stays rendered even if the marker cannot be raised.
		c.raiseMarker(layer, station)
	}
	return false, nil
}

// settle marks layer's refresh as done. In deferred mode it swaps layer in.
// It reports false when layer was superseded.
func (c *Controller) settle(layer *overlay.Layer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.current != layer {
		return false
	}

	if c.mode == SwapDeferred {
		c.surface.DetachOverlay(c.surface.Overlay())
		if err := c.surface.AttachOverlay(layer); err == nil {
			for _, it := range layer.Items() {
				c.raiseMarker(layer, it.Station)
			}
		}
	}

	c.state = StateSettled
	return true
}

// raiseMarker lifts station's marker above layer, logging a failure. Callers hold c.mu.
func (c *Controller) raiseMarker(layer *overlay.Layer, station string) {
	if err := c.surface.RaiseMarker(station); err != nil {
		c.logger.Debug("marker_raise_failed",
			"layer", layer.ID(),
			"minutes", int(layer.Minutes()),
			"station", station,
			"error", err,
		)
	}
}

// State returns the state of the latest refresh
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the layer owned by the latest refresh, or nil
func (c *Controller) Current() *overlay.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CurrentMinutes returns the walking time of the latest refresh to start.
// That refresh's layer is, or will become, the live one. It reports false
// before the first refresh and after Close.
func (c *Controller) CurrentMinutes() (models.TimeSelection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return 0, false
	}
	return c.current.Minutes(), true
}

// Last returns the result of the most recent refresh that was not superseded
func (c *Controller) Last() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// Mode returns the swap mode
func (c *Controller) Mode() SwapMode {
	return c.mode
}

// Close tears the surface down. In-flight refreshes finish without touching it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.current = nil
	c.surface.Teardown()
}
