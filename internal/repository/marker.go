package repository

import (
	"context"
	"errors"
	"fmt"

	"aqi-map-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MarkerRepository handles database operations for AQI markers
type MarkerRepository struct {
	db *pgxpool.Pool
}

// NewMarkerRepository creates a new marker repository
func NewMarkerRepository(db *pgxpool.Pool) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// Create inserts a marker and fills it with the stored row
func (r *MarkerRepository) Create(ctx context.Context, m *models.Marker) error {
	query := `
		INSERT INTO aqi_data (latitude, longitude, aqi, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id, latitude, longitude, aqi, timestamp
	`
	err := r.db.QueryRow(ctx, query, m.Latitude, m.Longitude, m.AQI, m.Timestamp).Scan(
		&m.ID, &m.Latitude, &m.Longitude, &m.AQI, &m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create marker: %w", err)
	}
	return nil
}

// List returns every marker in insertion order
func (r *MarkerRepository) List(ctx context.Context) ([]*models.Marker, error) {
	query := `
		SELECT id, latitude, longitude, aqi, timestamp
		FROM aqi_data
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get markers: %w", err)
	}
	defer rows.Close()

	markers := make([]*models.Marker, 0)
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.Latitude, &m.Longitude, &m.AQI, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", err)
		}
		markers = append(markers, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating markers: %w", err)
	}

	return markers, nil
}

// Latest returns the most recent reading
func (r *MarkerRepository) Latest(ctx context.Context) (*models.Marker, error) {
	query := `
		SELECT id, latitude, longitude, aqi, timestamp
		FROM aqi_data
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	var m models.Marker
	err := r.db.QueryRow(ctx, query).Scan(&m.ID, &m.Latitude, &m.Longitude, &m.AQI, &m.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("latest marker: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest marker: %w", err)
	}
	return &m, nil
}
