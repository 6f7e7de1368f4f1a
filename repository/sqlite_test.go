package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isocronas-quito/api/models"
)

func newTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "stations.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return db
}

func TestNewSQLiteDB_AppliesPragmas(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t).GetDB()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, expected wal", mode)
	}

	var timeout int
	if err := db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, expected 5000", timeout)
	}
}

func TestSQLiteStationRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteStationRepository(newTestSQLite(t).GetDB())

	stations, err := repo.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations on empty table: %v", err)
	}
	if len(stations) != 0 {
		t.Fatalf("expected empty table, got %d stations", len(stations))
	}

	if err := repo.ReplaceStations(ctx, models.QuitoMetroStations); err != nil {
		t.Fatalf("ReplaceStations: %v", err)
	}

	stations, err = repo.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != len(models.QuitoMetroStations) {
		t.Fatalf("expected %d stations, got %d", len(models.QuitoMetroStations), len(stations))
	}
	for i, s := range stations {
		if s != models.QuitoMetroStations[i] {
			t.Errorf("station %d = %+v, expected %+v", i, s, models.QuitoMetroStations[i])
		}
	}
}

func TestSQLiteStationRepository_ReplaceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteStationRepository(newTestSQLite(t).GetDB())

	if err := repo.ReplaceStations(ctx, models.QuitoMetroStations); err != nil {
		t.Fatalf("ReplaceStations: %v", err)
	}

	replacement := []models.Station{
		{Name: "Quitumbe", Lat: -0.295, Lng: -78.556},
		{Name: "El Labrador", Lat: -0.155, Lng: -78.486},
	}
	if err := repo.ReplaceStations(ctx, replacement); err != nil {
		t.Fatalf("ReplaceStations: %v", err)
	}

	stations, err := repo.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != 2 || stations[0].Name != "Quitumbe" || stations[1].Name != "El Labrador" {
		t.Errorf("unexpected stations after replace: %+v", stations)
	}
}

func TestSQLiteStationRepository_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteStationRepository(newTestSQLite(t).GetDB())

	if err := repo.ReplaceStations(ctx, models.QuitoMetroStations[:3]); err != nil {
		t.Fatalf("ReplaceStations: %v", err)
	}

	tests := []struct {
		name     string
		stations []models.Station
	}{
		{"blank name", []models.Station{{Name: " ", Lat: 0, Lng: 0}}},
		{"bad latitude", []models.Station{{Name: "X", Lat: 91, Lng: 0}}},
		{"duplicate name", []models.Station{
			{Name: "Solanda", Lat: -0.26, Lng: -78.54},
			{Name: "Solanda", Lat: -0.27, Lng: -78.55},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := repo.ReplaceStations(ctx, tc.stations); err == nil {
				t.Fatal("expected error, got nil")
			}
			stations, err := repo.ListStations(ctx)
			if err != nil {
				t.Fatalf("ListStations: %v", err)
			}
			if len(stations) != 3 {
				t.Errorf("failed replace should leave the table untouched, got %d stations", len(stations))
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	src, closeFn, err := Open(ctx, SourceBuiltin, "", "")
	if err != nil {
		t.Fatalf("Open(builtin): %v", err)
	}
	defer closeFn()
	stations, _ := src.ListStations(ctx)
	if len(stations) != len(models.QuitoMetroStations) {
		t.Errorf("builtin source returned %d stations", len(stations))
	}
	stations[0].Name = "mutated"
	if models.QuitoMetroStations[0].Name == "mutated" {
		t.Error("builtin source must return a copy")
	}

	path := filepath.Join(t.TempDir(), "open.db")
	seed, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	if err := seed.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := NewSQLiteStationRepository(seed.GetDB()).ReplaceStations(ctx, models.QuitoMetroStations[:4]); err != nil {
		t.Fatalf("ReplaceStations: %v", err)
	}
	seed.Close()

	src, closeSQLite, err := Open(ctx, SourceSQLite, path, "")
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer closeSQLite()
	stations, err = src.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if len(stations) != 4 {
		t.Errorf("sqlite source returned %d stations, expected 4", len(stations))
	}

	if _, _, err := Open(ctx, "redis", "", ""); err == nil {
		t.Error("expected error for unknown source")
	}
}
