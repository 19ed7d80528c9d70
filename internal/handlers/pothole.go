package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"aqi-map-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PotholeHandler handles pothole marker HTTP requests
type PotholeHandler struct {
	potholeService *services.PotholeService
}

// NewPotholeHandler creates a new pothole handler
func NewPotholeHandler(potholeService *services.PotholeService) *PotholeHandler {
	return &PotholeHandler{
		potholeService: potholeService,
	}
}

// ListPotholes handles GET /api/potholes
func (h *PotholeHandler) ListPotholes(w http.ResponseWriter, r *http.Request) {
	potholes, err := h.potholeService.ListPotholes(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list potholes")
		respondError(w, dbMessage(err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, potholes, http.StatusOK)
}

// CreatePothole handles POST /api/potholes
func (h *PotholeHandler) CreatePothole(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePotholeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	pothole, err := h.potholeService.CreatePothole(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondError(w, msgMissingFields, http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidInput):
			respondError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Failed to create pothole")
			respondError(w, dbMessage(err), http.StatusInternalServerError)
		}
		return
	}

	log.Info().
		Int64("pothole_id", pothole.ID).
		Str("threat", pothole.Threat).
		Msg("Pothole created")

	respondJSON(w, pothole, http.StatusCreated)
}

// PresignPhoto handles POST /api/potholes/{id}/photo
func (h *PotholeHandler) PresignPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, "Invalid pothole id", http.StatusBadRequest)
		return
	}

	var req services.PhotoUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	resp, err := h.potholeService.PresignPhoto(r.Context(), id, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStorageDisabled):
			respondError(w, "Photo storage is not configured", http.StatusServiceUnavailable)
		case errors.Is(err, services.ErrNotFound):
			respondError(w, "Pothole not found", http.StatusNotFound)
		case errors.Is(err, services.ErrInvalidInput):
			respondError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Int64("pothole_id", id).Msg("Failed to generate upload URL")
			respondError(w, "Failed to generate upload URL", http.StatusInternalServerError)
		}
		return
	}

	log.Info().
		Int64("pothole_id", id).
		Str("photo_url", resp.PhotoURL).
		Msg("Pothole photo upload URL generated")

	respondJSON(w, resp, http.StatusOK)
}
