// Command import-stations seeds the stations table read by STATION_SOURCE=sqlite
// (or postgres) from a GeoJSON FeatureCollection of Point features, or from the
// built-in Quito Metro list when no file is given.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/isocronas-quito/api/internal/logger"
	"github.com/isocronas-quito/api/internal/registry"
	"github.com/isocronas-quito/api/models"
	"github.com/isocronas-quito/api/repository"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	log := logger.Setup()

	// Command line flags
	dbPath := flag.String("db", envOr("SQLITE_DATABASE", "./data/stations.db"), "Path to SQLite database")
	geojsonPath := flag.String("geojson", "", "GeoJSON FeatureCollection of station points (default: built-in list)")
	nameProp := flag.String("name-property", "name", "Feature property holding the station name")
	postgres := flag.Bool("postgres", false, "Write to DATABASE_URL instead of the SQLite file")
	flag.Parse()

	ctx := context.Background()

	stations := models.QuitoMetroStations
	if *geojsonPath != "" {
		data, err := os.ReadFile(*geojsonPath)
		if err != nil {
			log.Error("read_failed", "path", *geojsonPath, "error", err)
			os.Exit(1)
		}
		stations, err = parseStations(data, *nameProp)
		if err != nil {
			log.Error("parse_failed", "path", *geojsonPath, "error", err)
			os.Exit(1)
		}
	}

	// Same checks the service applies at startup
	if _, err := registry.New(stations); err != nil {
		log.Error("invalid_stations", "error", err)
		os.Exit(1)
	}

	if *postgres {
		err := importPostgres(ctx, os.Getenv("DATABASE_URL"), stations)
		if err != nil {
			log.Error("import_failed", "target", "postgres", "error", err)
			os.Exit(1)
		}
		log.Info("import_done", "target", "postgres", "stations", len(stations))
		return
	}

	if err := importSQLite(ctx, *dbPath, stations); err != nil {
		log.Error("import_failed", "target", *dbPath, "error", err)
		os.Exit(1)
	}
	log.Info("import_done", "target", *dbPath, "stations", len(stations))
}

func importSQLite(ctx context.Context, path string, stations []models.Station) error {
	db, err := repository.NewSQLiteDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	return repository.NewSQLiteStationRepository(db.GetDB()).ReplaceStations(ctx, stations)
}

func importPostgres(ctx context.Context, databaseURL string, stations []models.Station) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	repo, err := repository.NewStationRepository(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.ReplaceStations(ctx, stations)
}

// parseStations reads Point features in file order. Features of other
// geometry types are rejected.
func parseStations(data []byte, nameProp string) ([]models.Station, error) {
	var fc struct {
		Type     string             `json:"type"`
		Features []*geojson.Feature `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}

	stations := make([]models.Station, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(*geom.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: geometry must be a Point, got %T", i, f.Geometry)
		}
		name, _ := f.Properties[nameProp].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("feature %d: missing %q property", i, nameProp)
		}
		stations = append(stations, models.Station{Name: name, Lat: pt.Y(), Lng: pt.X()})
	}
	return stations, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
