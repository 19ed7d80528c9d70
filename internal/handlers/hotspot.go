package handlers

import (
	"net/http"

	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// HotspotHandler serves clustered high-AQI areas
type HotspotHandler struct {
	hotspotService *services.HotspotService
}

// NewHotspotHandler creates a new hotspot handler
func NewHotspotHandler(hotspotService *services.HotspotService) *HotspotHandler {
	return &HotspotHandler{hotspotService: hotspotService}
}

// HotspotsResponse wraps the hotspot list
type HotspotsResponse struct {
	Hotspots []models.Hotspot `json:"hotspots"`
}

// ListHotspots handles GET /api/hotspots
func (h *HotspotHandler) ListHotspots(w http.ResponseWriter, r *http.Request) {
	hotspots, err := h.hotspotService.Hotspots(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute hotspots")
		respondError(w, dbMessage(err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, HotspotsResponse{Hotspots: hotspots}, http.StatusOK)
}
