package cmd

import (
	"net/http"

	"aqi-map-backend/internal/config"
	"aqi-map-backend/internal/handlers"
	"aqi-map-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes bundles the handlers mounted on the router
type routes struct {
	markers   *handlers.MarkerHandler
	potholes  *handlers.PotholeHandler
	users     *handlers.UserHandler
	hotspots  *handlers.HotspotHandler
	predict   *handlers.PredictHandler
	websocket *handlers.WebSocketHandler
	health    *handlers.HealthHandler
	auth      middleware.TokenValidator
}

func newRouter(cfg *config.Config, h routes) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.CORS(cfg.CORS))

	limit := middleware.RateLimitByIP(cfg.RateLimit)

	r.Route("/api", func(r chi.Router) {
		// AQI mapping
		r.Route("/aqi", func(r chi.Router) {
			mountMarkers(r, h, config.KindAQI, limit)
		})

		// Pothole mapping
		r.Route("/potholes", func(r chi.Router) {
			mountMarkers(r, h, config.KindPothole, limit)
		})

		// Deployment mapping
		r.Route("/markers", func(r chi.Router) {
			mountMarkers(r, h, cfg.Markers.Kind, limit)
		})

		r.Get("/hotspots", h.hotspots.ListHotspots)
		r.With(limit).Post("/predict_aqi", h.predict.PredictAQI)
		r.Get("/vouchers", h.users.ListVouchers)

		// Users
		r.With(limit).Post("/users", h.users.CreateUser)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(h.auth))
			r.Get("/users/me", h.users.GetMe)
			r.With(limit).Post("/users/me/contributions", h.users.Contribute)
			r.With(limit).Post("/users/me/redemptions", h.users.Redeem)
		})
	})

	// WebSocket route
	r.Get("/ws", h.websocket.HandleWebSocket)

	r.Get("/test", h.health.Test)
	r.Get("/healthz", h.health.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func mountMarkers(r chi.Router, h routes, kind string, limit func(http.Handler) http.Handler) {
	switch kind {
	case config.KindPothole:
		r.Get("/", h.potholes.ListPotholes)
		r.With(limit).Post("/", h.potholes.CreatePothole)
		r.With(limit).Post("/{id}/photo", h.potholes.PresignPhoto)
	default:
		r.Get("/", h.markers.ListMarkers)
		r.With(limit).Post("/", h.markers.CreateMarker)
		r.Get("/curr_aqi", h.markers.CurrentAQI)
	}
}
