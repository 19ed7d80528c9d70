package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aqi-map-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PotholeRepository handles database operations for pothole markers
type PotholeRepository struct {
	db *pgxpool.Pool
}

// NewPotholeRepository creates a new pothole repository
func NewPotholeRepository(db *pgxpool.Pool) *PotholeRepository {
	return &PotholeRepository{db: db}
}

const potholeColumns = `id, name, lat, lng, size, threat, date_added, photo_url`

func scanPothole(row pgx.Row) (*models.Pothole, error) {
	var (
		p         models.Pothole
		dateAdded time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Lat, &p.Lng, &p.Size, &p.Threat, &dateAdded, &p.PhotoURL); err != nil {
		return nil, err
	}
	p.DateAdded = dateAdded.Format(models.DateLayout)
	return &p, nil
}

// Create inserts a pothole marker and fills in its ID
func (r *PotholeRepository) Create(ctx context.Context, p *models.Pothole) error {
	dateAdded, err := time.Parse(models.DateLayout, p.DateAdded)
	if err != nil {
		return fmt.Errorf("invalid date_added %q: %w", p.DateAdded, err)
	}

	query := `
		INSERT INTO markers (name, lat, lng, size, threat, date_added)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query, p.Name, p.Lat, p.Lng, p.Size, p.Threat, dateAdded).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create pothole: %w", err)
	}
	return nil
}

// GetByID retrieves a pothole marker by ID
func (r *PotholeRepository) GetByID(ctx context.Context, id int64) (*models.Pothole, error) {
	query := `SELECT ` + potholeColumns + ` FROM markers WHERE id = $1`
	p, err := scanPothole(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pothole %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pothole: %w", err)
	}
	return p, nil
}

// List returns every pothole marker in insertion order
func (r *PotholeRepository) List(ctx context.Context) ([]*models.Pothole, error) {
	query := `SELECT ` + potholeColumns + ` FROM markers ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get potholes: %w", err)
	}
	defer rows.Close()

	potholes := make([]*models.Pothole, 0)
	for rows.Next() {
		p, err := scanPothole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pothole: %w", err)
		}
		potholes = append(potholes, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating potholes: %w", err)
	}

	return potholes, nil
}

// UpdatePhotoURL records where the pothole photo is stored
func (r *PotholeRepository) UpdatePhotoURL(ctx context.Context, id int64, photoURL string) error {
	query := `UPDATE markers SET photo_url = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, photoURL, id)
	if err != nil {
		return fmt.Errorf("failed to update pothole photo_url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pothole %d: %w", id, ErrNotFound)
	}
	return nil
}
