package handlers

import (
	"errors"
	"net/http"
	"time"

	"aqi-map-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// MarkerHandler handles AQI marker HTTP requests
type MarkerHandler struct {
	markerService *services.MarkerService
}

// NewMarkerHandler creates a new marker handler
func NewMarkerHandler(markerService *services.MarkerService) *MarkerHandler {
	return &MarkerHandler{
		markerService: markerService,
	}
}

// CurrentAQIResponse is the most recent reading
type CurrentAQIResponse struct {
	AQI       float64   `json:"aqi"`
	Timestamp time.Time `json:"timestamp"`
}

// ListMarkers handles GET /api/aqi
func (h *MarkerHandler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.markerService.ListMarkers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list markers")
		respondError(w, dbMessage(err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, markers, http.StatusOK)
}

// CreateMarker handles POST /api/aqi
func (h *MarkerHandler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMarkerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	marker, err := h.markerService.CreateMarker(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondError(w, msgMissingFields, http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidInput):
			respondError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Failed to create marker")
			respondError(w, dbMessage(err), http.StatusInternalServerError)
		}
		return
	}

	log.Info().
		Int64("marker_id", marker.ID).
		Float64("aqi", marker.AQI).
		Msg("Marker created")

	respondJSON(w, marker, http.StatusCreated)
}

// CurrentAQI handles GET /api/aqi/curr_aqi
func (h *MarkerHandler) CurrentAQI(w http.ResponseWriter, r *http.Request) {
	marker, err := h.markerService.CurrentAQI(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, "No data available", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("Failed to get current AQI")
		respondError(w, dbMessage(err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, CurrentAQIResponse{AQI: marker.AQI, Timestamp: marker.Timestamp}, http.StatusOK)
}
