package overlay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/isocronas-quito/api/internal/ui"
)

const (
	polygonJSON      = `{"type":"Polygon","coordinates":[[[-78.49,-0.16],[-78.48,-0.16],[-78.48,-0.15],[-78.49,-0.15],[-78.49,-0.16]]]}`
	multiPolygonJSON = `{"type":"MultiPolygon","coordinates":[[[[-78.56,-0.30],[-78.55,-0.30],[-78.55,-0.29],[-78.56,-0.30]]],[[[-78.54,-0.28],[-78.53,-0.28],[-78.53,-0.27],[-78.54,-0.28]]]]}`
	featureJSON      = `{"type":"Feature","properties":{"time":15},"geometry":` + polygonJSON + `}`
	pointJSON        = `{"type":"Point","coordinates":[-78.49,-0.16]}`
	collectionJSON   = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":` + polygonJSON + `}]}`
)

func TestRenderAcceptsPolygons(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"polygon", polygonJSON},
		{"multipolygon", multiPolygonJSON},
		{"feature", featureJSON},
		{"feature collection", collectionJSON},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLayer(15, ui.DefaultPolygonStyle)
			it, err := l.Render("El Labrador", json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if it.Bounds == nil || it.Bounds.IsEmpty() {
				t.Error("expected non-empty bounds")
			}
			if l.Len() != 1 {
				t.Errorf("Len = %d, expected 1", l.Len())
			}
		})
	}
}

func TestRenderRejectsOtherGeometries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"point", pointJSON},
		{"unknown type", `{"type":"Nonsense","coordinates":42}`},
		{"empty polygon", `{"type":"Polygon","coordinates":[]}`},
		{"feature without geometry", `{"type":"Feature","properties":{},"geometry":null}`},
		{"array", `[1,2,3]`},
		{"collection of points", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":` + pointJSON + `}]}`},
		{"empty collection", `{"type":"FeatureCollection","features":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLayer(10, ui.DefaultPolygonStyle)
			_, err := l.Render("Solanda", json.RawMessage(tc.raw))
			var rerr *RenderError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if rerr.Station != "Solanda" {
				t.Errorf("RenderError.Station = %q", rerr.Station)
			}
			if l.Len() != 0 {
				t.Errorf("failed render must not add an item, Len = %d", l.Len())
			}
		})
	}
}

func TestRenderMergesCollectionPolygons(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{},"geometry":` + polygonJSON + `},` +
		`{"type":"Feature","properties":{},"geometry":` + pointJSON + `},` +
		`{"type":"Feature","properties":{},"geometry":` + multiPolygonJSON + `}]}`

	g, err := decodeGeometry(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeGeometry failed: %v", err)
	}
	mp, ok := g.(*geom.MultiPolygon)
	if !ok {
		t.Fatalf("expected *geom.MultiPolygon, got %T", g)
	}
	if mp.NumPolygons() != 3 {
		t.Errorf("NumPolygons = %d, expected 3", mp.NumPolygons())
	}

	l := NewLayer(25, ui.DefaultPolygonStyle)
	it, err := l.Render("Quitumbe", json.RawMessage(raw))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if it.Bounds.Min(0) > -78.56 || it.Bounds.Max(0) < -78.48 {
		t.Errorf("bounds do not cover every member: %v", it.Bounds)
	}
}

func TestBindRestampsItems(t *testing.T) {
	l := NewLayer(20, ui.DefaultPolygonStyle)
	l.Render("A", json.RawMessage(polygonJSON))
	l.Render("B", json.RawMessage(polygonJSON))

	var seq int64 = 100
	l.Bind(func() int64 { seq++; return seq })

	items := l.Items()
	if items[0].Order != 101 || items[1].Order != 102 {
		t.Errorf("unexpected orders after bind: %d, %d", items[0].Order, items[1].Order)
	}

	it, _ := l.Render("C", json.RawMessage(polygonJSON))
	if it.Order != 103 {
		t.Errorf("order of item rendered after bind = %d, expected 103", it.Order)
	}
	if l.MaxOrder() != 103 {
		t.Errorf("MaxOrder = %d", l.MaxOrder())
	}
}

func TestFeatureCollection(t *testing.T) {
	style := ui.DefaultPolygonStyle
	l := NewLayer(25, style)
	if fc := l.FeatureCollection(); len(fc.Features) != 0 || fc.BBox != nil {
		t.Errorf("empty layer should give an empty collection: %+v", fc)
	}
	if l.Bounds() != nil {
		t.Error("empty layer should have nil bounds")
	}

	l.Render("El Labrador", json.RawMessage(polygonJSON))
	l.Render("Quitumbe", json.RawMessage(multiPolygonJSON))

	fc := l.FeatureCollection()
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	if fc.Features[0].ID != "El Labrador" {
		t.Errorf("first feature id = %q", fc.Features[0].ID)
	}
	if fc.Features[1].Properties["minutes"] != 25 {
		t.Errorf("minutes property = %v", fc.Features[1].Properties["minutes"])
	}
	if fc.Features[0].Properties["fillColor"] != style.FillColor {
		t.Errorf("fillColor property = %v", fc.Features[0].Properties["fillColor"])
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Type != "FeatureCollection" || decoded.Features[1].Geometry.Type != "MultiPolygon" {
		t.Errorf("unexpected encoding: %s", data)
	}

	b := l.Bounds()
	if b.Min(0) != -78.56 || b.Max(1) != -0.15 {
		t.Errorf("unexpected bounds: min %v max %v", b.Min(0), b.Max(1))
	}
}

func TestLayersHaveDistinctIDs(t *testing.T) {
	a := NewLayer(5, ui.DefaultPolygonStyle)
	b := NewLayer(5, ui.DefaultPolygonStyle)
	if a.ID() == b.ID() {
		t.Error("layers must have distinct identities")
	}
}
