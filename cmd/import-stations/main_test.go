package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isocronas-quito/api/models"
	"github.com/isocronas-quito/api/repository"
)

func TestParseStations(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []models.Station
		wantErr bool
	}{
		{
			name: "points in file order",
			input: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{"name":"El Labrador"},"geometry":{"type":"Point","coordinates":[-78.4862017,-0.155488715]}},
				{"type":"Feature","properties":{"name":"Jipijapa"},"geometry":{"type":"Point","coordinates":[-78.48351848,-0.164250208]}}
			]}`,
			want: []models.Station{
				{Name: "El Labrador", Lat: -0.155488715, Lng: -78.4862017},
				{Name: "Jipijapa", Lat: -0.164250208, Lng: -78.48351848},
			},
		},
		{
			name:    "not a collection",
			input:   `{"type":"Feature","properties":{"name":"X"},"geometry":{"type":"Point","coordinates":[0,0]}}`,
			wantErr: true,
		},
		{
			name: "polygon feature",
			input: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{"name":"X"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
			]}`,
			wantErr: true,
		},
		{
			name: "missing name",
			input: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{"label":"X"},"geometry":{"type":"Point","coordinates":[0,0]}}
			]}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			input:   `{"type":`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseStations([]byte(tc.input), "name")
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseStations() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d stations, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("station %d = %+v, expected %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestImportSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stations.db")

	if err := importSQLite(ctx, path, models.QuitoMetroStations); err != nil {
		t.Fatalf("importSQLite: %v", err)
	}

	src, closeFn, err := repository.Open(ctx, repository.SourceSQLite, path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeFn()

	stations, err := src.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != len(models.QuitoMetroStations) || stations[0].Name != "El Labrador" {
		t.Errorf("unexpected stations after import: %d", len(stations))
	}
}
