package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqi-map-backend/internal/config"
	"aqi-map-backend/internal/handlers"
	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/repository"
	"aqi-map-backend/internal/repository/memory"
	"aqi-map-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "config.yaml"

// stores are the persistence backends selected by database.driver
type stores struct {
	markers  services.MarkerStore
	potholes services.PotholeStore
	users    services.UserStore
	pinger   handlers.Pinger
	close    func()
}

func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	// Connect to database
	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer st.close()

	// Photo storage is optional
	var storage services.ObjectStorage
	if cfg.AWS.S3Bucket != "" {
		s3Storage, err := services.NewS3Storage(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create photo storage")
		}
		storage = s3Storage
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Photo storage enabled")
	} else {
		log.Warn().Msg("aws.s3_bucket not set, pothole photo uploads disabled")
	}

	wsHub := services.NewWSHub()

	handler, err := buildHandler(cfg, st, storage, wsHub)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build handlers")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("markers_kind", cfg.Markers.Kind).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.Close()

	// Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// buildHandler wires services and handlers into the HTTP router
func buildHandler(cfg *config.Config, st *stores, storage services.ObjectStorage, wsHub *services.WSHub) (http.Handler, error) {
	loc, err := cfg.Rewards.Location()
	if err != nil {
		return nil, err
	}

	// Initialize services
	markerService := services.NewMarkerService(st.markers, wsHub)
	potholeService := services.NewPotholeService(st.potholes, storage, wsHub, loc)
	userService := services.NewUserService(st.users, cfg.JWT.Secret, voucherCatalog(cfg.Rewards), loc)
	hotspotService := services.NewHotspotService(st.markers, cfg.Hotspots)
	predictService := services.NewPredictService(stationModels(cfg.Stations))

	// Initialize handlers
	return newRouter(cfg, routes{
		markers:   handlers.NewMarkerHandler(markerService),
		potholes:  handlers.NewPotholeHandler(potholeService),
		users:     handlers.NewUserHandler(userService),
		hotspots:  handlers.NewHotspotHandler(hotspotService),
		predict:   handlers.NewPredictHandler(predictService),
		websocket: handlers.NewWebSocketHandler(wsHub),
		health:    handlers.NewHealthHandler(st.pinger),
		auth:      userService,
	}), nil
}

// openStores connects the configured persistence backend
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return &stores{
			markers:  memory.NewMarkerStore(),
			potholes: memory.NewPotholeStore(),
			users:    memory.NewUserStore(),
			close:    func() {},
		}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if err := repository.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &stores{
		markers:  repository.NewMarkerRepository(db),
		potholes: repository.NewPotholeRepository(db),
		users:    repository.NewUserRepository(db),
		pinger:   db,
		close:    db.Close,
	}, nil
}

func voucherCatalog(cfg config.RewardsConfig) []models.Voucher {
	vouchers := make([]models.Voucher, 0, len(cfg.Vouchers))
	for _, v := range cfg.Vouchers {
		vouchers = append(vouchers, models.Voucher{
			Name:           v.Name,
			PointsRequired: v.PointsRequired,
			Description:    v.Description,
			Icon:           v.Icon,
		})
	}
	return vouchers
}

func stationModels(cfg []config.StationConfig) []models.Station {
	stations := make([]models.Station, 0, len(cfg))
	for _, s := range cfg {
		stations = append(stations, models.Station{
			Name:      s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Slope:     s.Slope,
			Intercept: s.Intercept,
		})
	}
	return stations
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
