package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/isocronas-quito/api/models"

	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLiteDB wraps a SQL database connection for SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the import tool is the only one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *SQLiteDB) GetDB() *sql.DB {
	return s.db
}

// EnsureSchema creates the stations table if it does not exist
func (s *SQLiteDB) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SQLiteStationRepository reads and seeds the stations table
type SQLiteStationRepository struct {
	db *sqlx.DB
}

// NewSQLiteStationRepository creates a new SQLiteStationRepository
func NewSQLiteStationRepository(db *sql.DB) *SQLiteStationRepository {
	return &SQLiteStationRepository{db: sqlx.NewDb(db, "sqlite")}
}

// stationRow is a stations table row
type stationRow struct {
	Position int `db:"position"`
	models.Station
}

// ListStations returns all stations ordered by position
func (r *SQLiteStationRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	err := r.db.SelectContext(ctx, &stations, `
		SELECT name, latitude, longitude
		FROM stations
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	return stations, nil
}

// ReplaceStations swaps the table contents for stations in one transaction.
// Positions follow slice order starting at 1.
func (r *SQLiteStationRepository) ReplaceStations(ctx context.Context, stations []models.Station) error {
	for i, s := range stations {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("station %d (%q): %w", i+1, s.Name, err)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return fmt.Errorf("failed to clear stations: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO stations (position, name, latitude, longitude)
		VALUES (:position, :name, :latitude, :longitude)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range stations {
		if _, err := stmt.ExecContext(ctx, stationRow{Position: i + 1, Station: s}); err != nil {
			return fmt.Errorf("failed to insert station %q: %w", s.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}
