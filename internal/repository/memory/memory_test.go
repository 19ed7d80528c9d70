package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/repository"
)

func TestMarkerStoreConcurrentCreatesGetDistinctIDs(t *testing.T) {
	store := NewMarkerStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := &models.Marker{Latitude: float64(i), Longitude: 77.5, AQI: 100}
			if err := store.Create(ctx, m); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	markers, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(markers) != n {
		t.Fatalf("len(List()) = %d, want %d", len(markers), n)
	}

	seen := make(map[int64]bool)
	for _, m := range markers {
		if seen[m.ID] {
			t.Errorf("duplicate ID %d", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestMarkerStoreLatest(t *testing.T) {
	store := NewMarkerStore()
	ctx := context.Background()

	if _, err := store.Latest(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Latest() on empty store error = %v, want ErrNotFound", err)
	}

	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i, aqi := range []float64{80, 160, 120} {
		m := &models.Marker{AQI: aqi, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if i == 1 {
			m.Timestamp = base.Add(5 * time.Hour)
		}
		if err := store.Create(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.AQI != 160 {
		t.Errorf("Latest().AQI = %v, want 160", latest.AQI)
	}
}

func TestPotholeStorePhotoURL(t *testing.T) {
	store := NewPotholeStore()
	ctx := context.Background()

	p := &models.Pothole{Name: "Outer ring road", Lat: 12.9, Lng: 77.6, Size: "L", Threat: "High", DateAdded: "2025-03-10"}
	if err := store.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := store.UpdatePhotoURL(ctx, p.ID, "https://cdn/p.jpg"); err != nil {
		t.Fatalf("UpdatePhotoURL() error = %v", err)
	}
	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PhotoURL == nil || *got.PhotoURL != "https://cdn/p.jpg" {
		t.Errorf("PhotoURL = %v", got.PhotoURL)
	}

	if err := store.UpdatePhotoURL(ctx, 999, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdatePhotoURL() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestUserStoreUpdateRollsBackOnError(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if err := store.Create(ctx, &models.User{ID: "u1", Name: "Alex", Points: 15, Token: "secret"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := store.Update(ctx, "u1", func(u *models.User) error {
		u.Points = 1000
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	err = store.Update(ctx, "u1", func(u *models.User) error {
		u.Points += 5
		u.Vouchers = append(u.Vouchers, "5% Discount")
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.GetByID(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != 20 {
		t.Errorf("Points = %d, want 20", got.Points)
	}
	if len(got.Vouchers) != 1 {
		t.Errorf("Vouchers = %v, want one voucher", got.Vouchers)
	}
	if got.Token != "" {
		t.Errorf("Token persisted: %q", got.Token)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID() missing error = %v, want ErrNotFound", err)
	}
}

func TestPotholeStoreListReturnsDistinctRowsByID(t *testing.T) {
	store := NewPotholeStore()
	ctx := context.Background()

	names := []string{"Silk board", "Hebbal flyover", "KR puram"}
	for _, name := range names {
		if err := store.Create(ctx, &models.Pothole{Name: name, Size: "M", Threat: "Medium", DateAdded: "2025-03-10"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("List() returned %d potholes, want %d", len(got), len(names))
	}
	for i, p := range got {
		if p.ID != int64(i+1) || p.Name != names[i] {
			t.Errorf("List()[%d] = {ID: %d, Name: %q}, want {ID: %d, Name: %q}", i, p.ID, p.Name, i+1, names[i])
		}
	}

	got[0].Name = "edited"
	again, err := store.GetByID(ctx, got[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != names[0] {
		t.Errorf("stored name = %q after editing the listed copy, want %q", again.Name, names[0])
	}
}
