// Package memory provides process-local stores with the same behaviour as the
// PostgreSQL repositories. It backs the "memory" database driver and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/repository"
)

// MarkerStore keeps AQI markers in memory
type MarkerStore struct {
	mu      sync.RWMutex
	nextID  int64
	markers []models.Marker

	// Err, when set, is returned by every call
	Err error
}

// NewMarkerStore creates an empty marker store
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{}
}

// Create stores a copy of m and assigns its ID
func (s *MarkerStore) Create(_ context.Context, m *models.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return fmt.Errorf("failed to create marker: %w", s.Err)
	}

	s.nextID++
	m.ID = s.nextID
	s.markers = append(s.markers, *m)
	return nil
}

// List returns every marker in insertion order
func (s *MarkerStore) List(_ context.Context) ([]*models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, fmt.Errorf("failed to get markers: %w", s.Err)
	}

	out := make([]*models.Marker, 0, len(s.markers))
	for i := range s.markers {
		m := s.markers[i]
		out = append(out, &m)
	}
	return out, nil
}

// Latest returns the marker with the newest timestamp
func (s *MarkerStore) Latest(_ context.Context) (*models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, fmt.Errorf("failed to get latest marker: %w", s.Err)
	}
	if len(s.markers) == 0 {
		return nil, fmt.Errorf("latest marker: %w", repository.ErrNotFound)
	}

	latest := s.markers[0]
	for _, m := range s.markers[1:] {
		if !m.Timestamp.Before(latest.Timestamp) {
			latest = m
		}
	}
	return &latest, nil
}

// PotholeStore keeps pothole markers in memory
type PotholeStore struct {
	mu       sync.RWMutex
	nextID   int64
	potholes map[int64]models.Pothole

	Err error
}

// NewPotholeStore creates an empty pothole store
func NewPotholeStore() *PotholeStore {
	return &PotholeStore{potholes: make(map[int64]models.Pothole)}
}

// Create stores a copy of p and assigns its ID
func (s *PotholeStore) Create(_ context.Context, p *models.Pothole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return fmt.Errorf("failed to create pothole: %w", s.Err)
	}

	s.nextID++
	p.ID = s.nextID
	s.potholes[p.ID] = *p
	return nil
}

// GetByID returns the pothole with the given ID
func (s *PotholeStore) GetByID(_ context.Context, id int64) (*models.Pothole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, fmt.Errorf("failed to get pothole: %w", s.Err)
	}

	p, ok := s.potholes[id]
	if !ok {
		return nil, fmt.Errorf("pothole %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

// List returns every pothole in insertion order
func (s *PotholeStore) List(_ context.Context) ([]*models.Pothole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, fmt.Errorf("failed to get potholes: %w", s.Err)
	}

	out := make([]*models.Pothole, 0, len(s.potholes))
	for _, p := range s.potholes {
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdatePhotoURL records the photo location of a pothole
func (s *PotholeStore) UpdatePhotoURL(_ context.Context, id int64, photoURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return fmt.Errorf("failed to update pothole photo_url: %w", s.Err)
	}

	p, ok := s.potholes[id]
	if !ok {
		return fmt.Errorf("pothole %d: %w", id, repository.ErrNotFound)
	}
	p.PhotoURL = &photoURL
	s.potholes[id] = p
	return nil
}

// UserStore keeps users in memory. Update holds the store lock for the whole
// transition, matching the row lock of the PostgreSQL repository.
type UserStore struct {
	mu    sync.Mutex
	users map[string]models.User

	Err error
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

// Create stores a copy of user
func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return fmt.Errorf("failed to create user: %w", s.Err)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: duplicate id %s", user.ID)
	}

	stored := cloneUser(*user)
	stored.Token = ""
	s.users[user.ID] = stored
	return nil
}

// GetByID returns a copy of the stored user
func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, fmt.Errorf("failed to get user: %w", s.Err)
	}

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	user = cloneUser(user)
	return &user, nil
}

// Update applies fn to a copy of the user and stores it when fn succeeds
func (s *UserStore) Update(_ context.Context, id string, fn func(user *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return fmt.Errorf("failed to get user: %w", s.Err)
	}

	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	user = cloneUser(user)

	if err := fn(&user); err != nil {
		return err
	}
	s.users[id] = cloneUser(user)
	return nil
}

func cloneUser(u models.User) models.User {
	vouchers := make([]string, len(u.Vouchers))
	copy(vouchers, u.Vouchers)
	u.Vouchers = vouchers
	if u.LastContribution != nil {
		day := *u.LastContribution
		u.LastContribution = &day
	}
	return u
}
