package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"aqi-map-backend/internal/metrics"
	"aqi-map-backend/internal/models"

	"github.com/google/uuid"
)

const (
	defaultPotholeSize   = "M"
	defaultPotholeThreat = "Med"
	photoURLExpiry       = 5 * time.Minute
)

// PotholeStore persists pothole markers
type PotholeStore interface {
	Create(ctx context.Context, p *models.Pothole) error
	GetByID(ctx context.Context, id int64) (*models.Pothole, error)
	List(ctx context.Context) ([]*models.Pothole, error)
	UpdatePhotoURL(ctx context.Context, id int64, photoURL string) error
}

// ObjectStorage issues upload URLs for pothole photos
type ObjectStorage interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	ObjectURL(key string) string
}

// PotholeService handles pothole marker business logic
type PotholeService struct {
	repo      PotholeStore
	storage   ObjectStorage
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
}

// NewPotholeService creates a new pothole service. storage and publisher may be nil.
func NewPotholeService(repo PotholeStore, storage ObjectStorage, publisher Publisher, loc *time.Location) *PotholeService {
	if loc == nil {
		loc = time.UTC
	}
	return &PotholeService{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// CreatePotholeRequest represents a pothole reported from the mobile app
type CreatePotholeRequest struct {
	Name      string   `json:"name" validate:"required"`
	Lat       *float64 `json:"lat" validate:"required"`
	Lng       *float64 `json:"lng" validate:"required"`
	Size      string   `json:"size" validate:"omitempty,oneof=L M S"`
	Threat    string   `json:"threat" validate:"omitempty,oneof=Low Med High"`
	DateAdded string   `json:"date_added" validate:"omitempty,datetime=2006-01-02"`
}

// CreatePothole stores one pothole marker
func (s *PotholeService) CreatePothole(ctx context.Context, req CreatePotholeRequest) (*models.Pothole, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := checkInput(req); err != nil {
		return nil, err
	}

	pothole := &models.Pothole{
		Name:      req.Name,
		Lat:       *req.Lat,
		Lng:       *req.Lng,
		Size:      req.Size,
		Threat:    req.Threat,
		DateAdded: req.DateAdded,
	}
	if pothole.Size == "" {
		pothole.Size = defaultPotholeSize
	}
	if pothole.Threat == "" {
		pothole.Threat = defaultPotholeThreat
	}
	if pothole.DateAdded == "" {
		pothole.DateAdded = s.now().In(s.loc).Format(models.DateLayout)
	}

	if err := s.repo.Create(ctx, pothole); err != nil {
		metrics.MarkerInsertErrors.WithLabelValues("pothole").Inc()
		return nil, err
	}
	metrics.MarkersCreated.WithLabelValues("pothole").Inc()

	if s.publisher != nil {
		s.publisher.Broadcast(MessagePotholeCreated, pothole)
	}

	return pothole, nil
}

// ListPotholes returns every stored pothole marker
func (s *PotholeService) ListPotholes(ctx context.Context) ([]*models.Pothole, error) {
	return s.repo.List(ctx)
}

// PhotoUploadRequest represents a request for a pothole photo upload URL
type PhotoUploadRequest struct {
	ContentType string `json:"content_type"`
}

// PhotoUploadResponse carries the pre-signed upload URL
type PhotoUploadResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignPhoto issues an upload URL for a pothole photo and records where it will live
func (s *PotholeService) PresignPhoto(ctx context.Context, id int64, contentType string) (*PhotoUploadResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	if contentType == "" {
		contentType = "image/jpeg"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: content_type must be an image type", ErrInvalidInput)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("potholes/%d/%s%s", id, uuid.New().String(), photoExtension(mediaType))

	uploadURL, err := s.storage.PresignPut(ctx, key, contentType, photoURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	photoURL := s.storage.ObjectURL(key)
	if err := s.repo.UpdatePhotoURL(ctx, id, photoURL); err != nil {
		return nil, err
	}

	return &PhotoUploadResponse{
		UploadURL: uploadURL,
		PhotoURL:  photoURL,
		ExpiresIn: int(photoURLExpiry.Seconds()),
	}, nil
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// photoExtension returns the object key suffix for an image media type, or ""
// when none is known.
func photoExtension(mediaType string) string {
	if ext, ok := photoExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
