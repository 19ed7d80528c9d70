package handlers

import (
	"errors"
	"net/http"

	"aqi-map-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PredictHandler serves AQI estimates from PM2.5 readings
type PredictHandler struct {
	predictService *services.PredictService
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(predictService *services.PredictService) *PredictHandler {
	return &PredictHandler{predictService: predictService}
}

// PredictAQI handles POST /api/predict_aqi
func (h *PredictHandler) PredictAQI(w http.ResponseWriter, r *http.Request) {
	var req services.PredictRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	prediction, err := h.predictService.Predict(req)
	if err != nil {
		var modelErr *services.StationModelError
		switch {
		case errors.Is(err, services.ErrMissingFields):
			respondError(w, msgMissingFields, http.StatusBadRequest)
		case errors.Is(err, services.ErrNoStations):
			respondError(w, "No nearby location found.", http.StatusNotFound)
		case errors.As(err, &modelErr):
			respondError(w, "Model for "+modelErr.Station+" not found.", http.StatusNotFound)
		default:
			log.Error().Err(err).Msg("Failed to predict AQI")
			respondError(w, msgInternalServer, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, prediction, http.StatusOK)
}
