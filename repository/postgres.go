package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isocronas-quito/api/models"
)

// StationRepository reads stations from a Postgres database
type StationRepository struct {
	pool *pgxpool.Pool
}

func NewStationRepository(ctx context.Context, databaseURL string) (*StationRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &StationRepository{pool: pool}, nil
}

func (r *StationRepository) Close() {
	r.pool.Close()
}

// EnsureSchema creates the stations table if it does not exist
func (r *StationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *StationRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, latitude, longitude
		FROM stations
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}

	stations, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Station])
	if err != nil {
		return nil, fmt.Errorf("failed to scan stations: %w", err)
	}
	return stations, nil
}

// ReplaceStations swaps the table contents for stations in one transaction
func (r *StationRepository) ReplaceStations(ctx context.Context, stations []models.Station) error {
	for i, s := range stations {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("station %d (%q): %w", i+1, s.Name, err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stations`); err != nil {
		return fmt.Errorf("failed to clear stations: %w", err)
	}

	batch := &pgx.Batch{}
	for i, s := range stations {
		batch.Queue(`INSERT INTO stations (position, name, latitude, longitude) VALUES ($1, $2, $3, $4)`,
			i+1, s.Name, s.Lat, s.Lng)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert stations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}
