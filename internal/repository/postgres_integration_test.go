//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/repository"
	"aqi-map-backend/internal/rewards"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresPort     = "5432/tcp"
	postgresPassword = "postgres"
	postgresDB       = "hackathon"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres runs a throwaway PostgreSQL container and returns a pool on a
// freshly created schema.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	skipIfNoDocker(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(postgresPort),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("postgres://postgres:%s@%s:%s/%s?sslmode=disable",
		postgresPassword, host, port.Port(), postgresDB)

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := repository.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	// applying the schema twice must be harmless
	if err := repository.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}
	return db
}

func TestPostgresRepositories(t *testing.T) {
	db := startPostgres(t)

	t.Run("markers", func(t *testing.T) { testMarkerRepository(t, db) })
	t.Run("potholes", func(t *testing.T) { testPotholeRepository(t, db) })
	t.Run("users", func(t *testing.T) { testUserRepository(t, db) })
}

func testMarkerRepository(t *testing.T, db *pgxpool.Pool) {
	ctx := context.Background()
	repo := repository.NewMarkerRepository(db)

	if _, err := repo.Latest(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Latest() on empty table error = %v, want ErrNotFound", err)
	}
	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("List() on empty table = %#v, want empty slice", empty)
	}

	base := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	inputs := []models.Marker{
		{Latitude: 12.9716, Longitude: 77.5946, AQI: 142.5, Timestamp: base},
		{Latitude: 0, Longitude: 0, AQI: 0, Timestamp: base.Add(2 * time.Hour)},
		{Latitude: 28.6139, Longitude: 77.209, AQI: 301, Timestamp: base.Add(time.Hour)},
	}

	created := make([]models.Marker, 0, len(inputs))
	for _, in := range inputs {
		m := in
		if err := repo.Create(ctx, &m); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if m.ID == 0 {
			t.Fatal("Create() did not fill ID from RETURNING")
		}
		if m.Latitude != in.Latitude || m.Longitude != in.Longitude || m.AQI != in.AQI || !m.Timestamp.Equal(in.Timestamp) {
			t.Errorf("RETURNING row = %+v, want %+v", m, in)
		}
		created = append(created, m)
	}

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != len(created) {
		t.Fatalf("len(List()) = %d, want %d", len(listed), len(created))
	}
	for i := range created {
		got, want := *listed[i], created[i]
		if got.ID != want.ID || got.AQI != want.AQI || got.Latitude != want.Latitude || !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("List()[%d] = %+v, want %+v", i, got, want)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != created[1].ID {
		t.Errorf("Latest() = %+v, want id %d", latest, created[1].ID)
	}

	const n = 50
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := &models.Marker{Latitude: float64(i), Longitude: 77.5, AQI: 100, Timestamp: base}
			if err := repo.Create(ctx, m); err != nil {
				t.Errorf("concurrent Create() error = %v", err)
				return
			}
			mu.Lock()
			ids[m.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("distinct ids = %d, want %d", len(ids), n)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(created)+n {
		t.Errorf("len(List()) = %d, want %d", len(all), len(created)+n)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("List() not ordered by id at %d: %d then %d", i, all[i-1].ID, all[i].ID)
		}
	}
}

func testPotholeRepository(t *testing.T, db *pgxpool.Pool) {
	ctx := context.Background()
	repo := repository.NewPotholeRepository(db)

	p := &models.Pothole{Name: "Outer ring road", Lat: 12.93, Lng: 77.62, Size: "L", Threat: "High", DateAdded: "2025-03-11"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DateAdded != "2025-03-11" || got.Size != "L" || got.Threat != "High" || got.PhotoURL != nil {
		t.Errorf("GetByID() = %+v", got)
	}

	if err := repo.UpdatePhotoURL(ctx, p.ID, "https://cdn.example/potholes/1/a.png"); err != nil {
		t.Fatal(err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].PhotoURL == nil || *list[0].PhotoURL != "https://cdn.example/potholes/1/a.png" {
		t.Errorf("List() = %+v", list)
	}

	if _, err := repo.GetByID(ctx, p.ID+1000); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID() unknown error = %v, want ErrNotFound", err)
	}
	if err := repo.UpdatePhotoURL(ctx, p.ID+1000, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdatePhotoURL() unknown error = %v, want ErrNotFound", err)
	}
}

func contribute(repo *repository.UserRepository, id string, today time.Time) func(context.Context) error {
	return func(ctx context.Context) error {
		return repo.Update(ctx, id, func(u *models.User) error {
			next, _, err := rewards.Contribute(*u, today)
			if err != nil {
				return err
			}
			*u = next
			return nil
		})
	}
}

func testUserRepository(t *testing.T, db *pgxpool.Pool) {
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	user := &models.User{ID: uuid.New().String(), Name: "Asha", Vouchers: []string{}, CreatedAt: time.Now()}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 00:30 IST on the 10th is still the 9th in UTC
	day1 := rewards.Day(time.Date(2025, time.March, 9, 19, 0, 0, 0, time.UTC), ist)
	day2 := day1.AddDate(0, 0, 1)

	if err := contribute(repo, user.ID, day1)(ctx); err != nil {
		t.Fatalf("day 1 contribute error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastContribution == nil {
		t.Fatal("last_contribution not stored")
	}
	if y, m, d := got.LastContribution.Date(); y != 2025 || m != time.March || d != 10 {
		t.Errorf("last_contribution = %v, want 2025-03-10", got.LastContribution)
	}

	if err := contribute(repo, user.ID, day2)(ctx); err != nil {
		t.Fatalf("day 2 contribute error = %v", err)
	}
	if err := contribute(repo, user.ID, day2)(ctx); !errors.Is(err, rewards.ErrAlreadyContributed) {
		t.Fatalf("same-day contribute error = %v, want ErrAlreadyContributed", err)
	}

	got, err = repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	// 12 on day one, 14 on day two
	if got.Streak != 2 || got.Points != 26 {
		t.Errorf("streak=%d points=%d, want 2/26", got.Streak, got.Points)
	}

	err = repo.Update(ctx, user.ID, func(u *models.User) error {
		next, _, err := rewards.Redeem(*u, models.Voucher{Name: "5% Discount", PointsRequired: 20})
		if err != nil {
			return err
		}
		*u = next
		return nil
	})
	if err != nil {
		t.Fatalf("redeem error = %v", err)
	}
	got, _ = repo.GetByID(ctx, user.ID)
	if got.Points != 6 || len(got.Vouchers) != 1 || got.Vouchers[0] != "5% Discount" {
		t.Errorf("after redeem = %+v", got)
	}

	// row lock: many same-day attempts award once
	racer := &models.User{ID: uuid.New().String(), Name: "Sam", Vouchers: []string{}, CreatedAt: time.Now()}
	if err := repo.Create(ctx, racer); err != nil {
		t.Fatal(err)
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := contribute(repo, racer.ID, day1)(ctx)
			switch {
			case err == nil:
				mu.Lock()
				accepted++
				mu.Unlock()
			case !errors.Is(err, rewards.ErrAlreadyContributed):
				t.Errorf("concurrent contribute error = %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted contributions = %d, want 1", accepted)
	}
	got, _ = repo.GetByID(ctx, racer.ID)
	if got.Points != 12 || got.Streak != 1 {
		t.Errorf("racer points=%d streak=%d, want 12/1", got.Points, got.Streak)
	}

	if _, err := repo.GetByID(ctx, uuid.New().String()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID() unknown error = %v, want ErrNotFound", err)
	}
	if err := contribute(repo, uuid.New().String(), day1)(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update() unknown error = %v, want ErrNotFound", err)
	}
}
