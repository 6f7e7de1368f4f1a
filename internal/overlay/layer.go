// Package overlay groups the isochrone renderings of one walking time into a layer.
package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/isocronas-quito/api/internal/ui"
	"github.com/isocronas-quito/api/models"
)

// ErrUnsupportedGeometry is returned for geometries that are not polygons
var ErrUnsupportedGeometry = errors.New("geometry is not a Polygon or MultiPolygon")

// RenderError is returned when a station's geometry cannot be drawn
type RenderError struct {
	Station string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render isochrone for %s: %v", e.Station, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Kind returns the error kind
func (e *RenderError) Kind() string { return "render" }

// Item is one station's rendered isochrone
type Item struct {
	Station  string
	Geometry geom.T
	Bounds   *geom.Bounds
	Order    int64
}

// Layer is a group of isochrone renderings for a single walking time
type Layer struct {
	id        uuid.UUID
	minutes   models.TimeSelection
	style     ui.PolygonStyle
	createdAt time.Time

	mu    sync.RWMutex
	items []Item
	next  func() int64
	local int64
}

// NewLayer creates an empty layer
func NewLayer(minutes models.TimeSelection, style ui.PolygonStyle) *Layer {
	return &Layer{
		id:        uuid.New(),
		minutes:   minutes,
		style:     style,
		createdAt: time.Now().UTC(),
	}
}

// ID returns the layer identity
func (l *Layer) ID() uuid.UUID { return l.id }

// Minutes returns the walking time this layer was built for
func (l *Layer) Minutes() models.TimeSelection { return l.minutes }

// CreatedAt returns when the layer was created
func (l *Layer) CreatedAt() time.Time { return l.createdAt }

// Len returns the number of rendered stations
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Items returns a copy of the rendered items in drawing order
func (l *Layer) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Item, len(l.items))
	copy(result, l.items)
	return result
}

// Item returns the rendering of a station
func (l *Layer) Item(station string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, it := range l.items {
		if it.Station == station {
			return it, true
		}
	}
	return Item{}, false
}

// Render decodes a GeoJSON geometry, Feature or FeatureCollection and adds it to the layer.
// Only Polygon and MultiPolygon geometries are drawn.
func (l *Layer) Render(station string, raw json.RawMessage) (Item, error) {
	g, err := decodeGeometry(raw)
	if err != nil {
		return Item{}, &RenderError{Station: station, Err: err}
	}

	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	default:
		return Item{}, &RenderError{Station: station, Err: ErrUnsupportedGeometry}
	}

	bounds := g.Bounds()
	if bounds.IsEmpty() {
		return Item{}, &RenderError{Station: station, Err: errors.New("geometry has no coordinates")}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it := Item{
		Station:  station,
		Geometry: g,
		Bounds:   bounds,
		Order:    l.stampLocked(),
	}
	l.items = append(l.items, it)
	return it, nil
}

// Bind makes the layer draw with orders from next and re-stamps existing items.
// Called by the map surface on attach.
func (l *Layer) Bind(next func() int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next = next
	for i := range l.items {
		l.items[i].Order = next()
	}
}

// Unbind detaches the layer from its surface's drawing order
func (l *Layer) Unbind() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next = nil
}

// MaxOrder returns the highest drawing order among the items, or 0 for an empty layer
func (l *Layer) MaxOrder() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var highest int64
	for _, it := range l.items {
		if it.Order > highest {
			highest = it.Order
		}
	}
	return highest
}

// Bounds returns the combined extent of all items, or nil for an empty layer
func (l *Layer) Bounds() *geom.Bounds {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.items) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, it := range l.items {
		b.Extend(it.Geometry)
	}
	return b
}

// FeatureCollection returns the layer as GeoJSON, one feature per station
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(l.items)),
	}
	for _, it := range l.items {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       it.Station,
			Geometry: it.Geometry,
			Properties: map[string]interface{}{
				"station":     it.Station,
				"minutes":     int(l.minutes),
				"order":       it.Order,
				"color":       l.style.Color,
				"weight":      l.style.Weight,
				"opacity":     l.style.Opacity,
				"fillColor":   l.style.FillColor,
				"fillOpacity": l.style.FillOpacity,
			},
		})
	}
	if len(l.items) > 0 {
		b := geom.NewBounds(geom.XY)
		for _, it := range l.items {
			b.Extend(it.Geometry)
		}
		fc.BBox = b
	}
	return fc
}

func (l *Layer) stampLocked() int64 {
	if l.next != nil {
		return l.next()
	}
	l.local++
	return l.local
}

// decodeGeometry accepts a bare geometry, a Feature, or a FeatureCollection
// whose polygon members are merged into one MultiPolygon.
func decodeGeometry(raw json.RawMessage) (geom.T, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		if f.Geometry == nil {
			return nil, errors.New("feature has no geometry")
		}
		return f.Geometry, nil
	case "FeatureCollection":
		var fc struct {
			Features []*geojson.Feature `json:"features"`
		}
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, err
		}
		return mergePolygons(fc.Features)
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.New("null geometry")
	}
	return g, nil
}

func mergePolygons(features []*geojson.Feature) (geom.T, error) {
	var polys []*geom.Polygon
	for _, f := range features {
		if f == nil {
			continue
		}
		switch g := f.Geometry.(type) {
		case *geom.Polygon:
			polys = append(polys, g)
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				polys = append(polys, g.Polygon(i))
			}
		}
	}

	switch len(polys) {
	case 0:
		return nil, ErrUnsupportedGeometry
	case 1:
		return polys[0], nil
	}

	mp := geom.NewMultiPolygon(polys[0].Layout())
	for _, p := range polys {
		if err := mp.Push(p); err != nil {
			return nil, fmt.Errorf("merge feature collection: %w", err)
		}
	}
	return mp, nil
}
