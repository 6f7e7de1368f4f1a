package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/isocronas-quito/api/models"
)

// schemaSQL creates the stations table. It is valid for both SQLite and Postgres.
//
//go:embed schema.sql
var schemaSQL string

// Station source names accepted by STATION_SOURCE
const (
	SourceBuiltin  = "builtin"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// StationSource lists the stations the registry is built from, in registry order
type StationSource interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

// BuiltinSource serves the compiled-in Quito Metro station list
type BuiltinSource struct{}

// ListStations returns a copy of the built-in list
func (BuiltinSource) ListStations(context.Context) ([]models.Station, error) {
	out := make([]models.Station, len(models.QuitoMetroStations))
	copy(out, models.QuitoMetroStations)
	return out, nil
}

// Open returns the station source named by kind. The returned close function
// releases any connection and is never nil.
func Open(ctx context.Context, kind, sqlitePath, databaseURL string) (StationSource, func(), error) {
	switch kind {
	case "", SourceBuiltin:
		return BuiltinSource{}, func() {}, nil
	case SourceSQLite:
		db, err := NewSQLiteDB(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteStationRepository(db.GetDB()), func() { db.Close() }, nil
	case SourcePostgres:
		repo, err := NewStationRepository(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown station source %q", kind)
}
