// Package mapsurface models the map the page draws: viewport, base tiles,
// one marker per station and a single overlay slot.
package mapsurface

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/isocronas-quito/api/internal/overlay"
	"github.com/isocronas-quito/api/models"
)

var (
	// ErrSurfaceClosed is returned by operations on a torn-down surface
	ErrSurfaceClosed = errors.New("map surface is torn down")
	// ErrOverlayOccupied is returned when attaching while another overlay is attached
	ErrOverlayOccupied = errors.New("another overlay is already attached")
	// ErrUnknownMarker is returned for stations without a marker
	ErrUnknownMarker = errors.New("no marker for station")
)

// Viewport is the initial map view
type Viewport struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

// DefaultViewport frames Quito's Line 1
var DefaultViewport = Viewport{Lat: -0.22, Lng: -78.52, Zoom: 12}

// TileLayer is the base map provider
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// DefaultTileLayer is OpenStreetMap
var DefaultTileLayer = TileLayer{
	URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
}

// Marker is the handle of a station marker. Markers are not interactive.
type Marker struct {
	Station string  `json:"station"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Order   int64   `json:"order"`
}

// Surface owns the viewport, the markers and the overlay slot.
// It is safe for concurrent use.
type Surface struct {
	mu       sync.RWMutex
	viewport Viewport
	base     TileLayer
	order    []string
	markers  map[string]*Marker
	overlay  *overlay.Layer
	seq      atomic.Int64
	closed   bool
}

// Initialize creates the surface with one marker per station, in station order
func Initialize(viewport Viewport, base TileLayer, stations []models.Station) *Surface {
	s := &Surface{
		viewport: viewport,
		base:     base,
		order:    make([]string, 0, len(stations)),
		markers:  make(map[string]*Marker, len(stations)),
	}
	for _, st := range stations {
		s.order = append(s.order, st.Name)
		s.markers[st.Name] = &Marker{
			Station: st.Name,
			Lat:     st.Lat,
			Lng:     st.Lng,
			Order:   s.next(),
		}
	}
	return s
}

// AttachOverlay puts layer into the overlay slot.
// Attaching the layer that is already attached is a no-op.
func (s *Surface) AttachOverlay(layer *overlay.Layer) error {
	if layer == nil {
		return errors.New("nil overlay layer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	if s.overlay == layer {
		return nil
	}
	if s.overlay != nil {
		return ErrOverlayOccupied
	}

	s.overlay = layer
	layer.Bind(s.next)
	return nil
}

// DetachOverlay removes layer if it is the attached one; otherwise it does nothing
func (s *Surface) DetachOverlay(layer *overlay.Layer) {
	if layer == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overlay != layer {
		return
	}
	s.overlay = nil
	layer.Unbind()
}

// RaiseMarker draws a station's marker above everything drawn so far
func (s *Surface) RaiseMarker(station string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}
	m, ok := s.markers[station]
	if !ok {
		return ErrUnknownMarker
	}
	m.Order = s.next()
	return nil
}

// Overlay returns the attached layer, or nil
func (s *Surface) Overlay() *overlay.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlay
}

// Marker returns a copy of a station's marker
func (s *Surface) Marker(station string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markers[station]
	if !ok {
		return Marker{}, false
	}
	return *m, true
}

// Teardown releases the markers and the overlay. It is idempotent.
// After teardown AttachOverlay and RaiseMarker return ErrSurfaceClosed,
// DetachOverlay does nothing and Snapshot reports Closed.
func (s *Surface) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.overlay != nil {
		s.overlay.Unbind()
		s.overlay = nil
	}
	s.markers = nil
	s.order = nil
	s.closed = true
}

// Closed reports whether the surface was torn down
func (s *Surface) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Snapshot is a read-only view of the surface
type Snapshot struct {
	Viewport         Viewport   `json:"viewport"`
	Base             TileLayer  `json:"base"`
	Markers          []Marker   `json:"markers"`
	OverlayID        *uuid.UUID `json:"overlayId,omitempty"`
	OverlayMinutes   int        `json:"overlayMinutes,omitempty"`
	OverlayItems     int        `json:"overlayItems"`
	OverlayCreatedAt *time.Time `json:"overlayCreatedAt,omitempty"`
	Closed           bool       `json:"closed"`
}

// Snapshot returns the current state of the surface
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Viewport: s.viewport,
		Base:     s.base,
		Markers:  make([]Marker, 0, len(s.order)),
		Closed:   s.closed,
	}
	for _, name := range s.order {
		snap.Markers = append(snap.Markers, *s.markers[name])
	}
	if s.overlay != nil {
		id := s.overlay.ID()
		snap.OverlayID = &id
		snap.OverlayMinutes = int(s.overlay.Minutes())
		snap.OverlayItems = s.overlay.Len()
		created := s.overlay.CreatedAt()
		snap.OverlayCreatedAt = &created
	}
	return snap
}

// next hands out drawing orders to markers and bound layers
func (s *Surface) next() int64 {
	return s.seq.Add(1)
}
