package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"aqi-map-backend/internal/metrics"
	"aqi-map-backend/internal/models"
)

// MarkerStore persists AQI markers
type MarkerStore interface {
	Create(ctx context.Context, m *models.Marker) error
	List(ctx context.Context) ([]*models.Marker, error)
	Latest(ctx context.Context) (*models.Marker, error)
}

// MarkerService handles AQI marker business logic
type MarkerService struct {
	repo      MarkerStore
	publisher Publisher
	now       func() time.Time
}

// NewMarkerService creates a new marker service. publisher may be nil.
func NewMarkerService(repo MarkerStore, publisher Publisher) *MarkerService {
	return &MarkerService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateMarkerRequest represents a submitted AQI reading
type CreateMarkerRequest struct {
	Latitude  *float64   `json:"latitude" validate:"required"`
	Longitude *float64   `json:"longitude" validate:"required"`
	AQI       *float64   `json:"aqi" validate:"required"`
	Timestamp *Timestamp `json:"timestamp"`
}

// timestampLayouts are tried in order. Values without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// Timestamp is a reading time as sent by clients: RFC 3339 or the plain
// date/time forms PostgreSQL accepts for a timestamp column.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses any of the accepted layouts
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

// CreateMarker stores one reading. The timestamp defaults to now.
func (s *MarkerService) CreateMarker(ctx context.Context, req CreateMarkerRequest) (*models.Marker, error) {
	if err := checkInput(req); err != nil {
		return nil, err
	}

	timestamp := s.now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		timestamp = req.Timestamp.Time
	}

	marker := &models.Marker{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		AQI:       *req.AQI,
		Timestamp: timestamp,
	}

	if err := s.repo.Create(ctx, marker); err != nil {
		metrics.MarkerInsertErrors.WithLabelValues("aqi").Inc()
		return nil, err
	}
	metrics.MarkersCreated.WithLabelValues("aqi").Inc()

	if s.publisher != nil {
		s.publisher.Broadcast(MessageMarkerCreated, marker)
	}

	return marker, nil
}

// ListMarkers returns every stored reading
func (s *MarkerService) ListMarkers(ctx context.Context) ([]*models.Marker, error) {
	return s.repo.List(ctx)
}

// CurrentAQI returns the most recent reading
func (s *MarkerService) CurrentAQI(ctx context.Context) (*models.Marker, error) {
	m, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current aqi: %w", err)
	}
	return m, nil
}
