package services

import (
	"errors"
	"fmt"
	"math"

	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/spatial"
)

// ErrStationModelMissing is matched by StationModelError
var ErrStationModelMissing = errors.New("station model not found")

// StationModelError is returned when the nearest station has no fitted model
type StationModelError struct {
	Station string
}

func (e *StationModelError) Error() string {
	return fmt.Sprintf("model for %s not found", e.Station)
}

// Is reports whether target is ErrStationModelMissing
func (e *StationModelError) Is(target error) bool {
	return target == ErrStationModelMissing
}

// PredictService estimates AQI from a PM2.5 reading
type PredictService struct {
	stations []models.Station
}

// NewPredictService creates a prediction service over the configured stations
func NewPredictService(stations []models.Station) *PredictService {
	return &PredictService{stations: stations}
}

// PredictRequest represents a PM2.5 reading at a location
type PredictRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	PM        *float64 `json:"pm" validate:"required"`
}

// Predict applies the linear model of the station nearest to the reading
func (s *PredictService) Predict(req PredictRequest) (*models.Prediction, error) {
	if err := checkInput(req); err != nil {
		return nil, err
	}

	station, ok := s.nearest(*req.Latitude, *req.Longitude)
	if !ok {
		return nil, ErrNoStations
	}
	if station.Slope == nil || station.Intercept == nil {
		return nil, &StationModelError{Station: station.Name}
	}

	aqi := *station.Slope**req.PM + *station.Intercept

	return &models.Prediction{
		Location:     station.Name,
		PM25:         *req.PM,
		PredictedAQI: round2(aqi),
	}, nil
}

func (s *PredictService) nearest(lat, lng float64) (models.Station, bool) {
	var (
		best     models.Station
		bestDist = math.Inf(1)
		found    bool
	)
	for _, st := range s.stations {
		d := spatial.HaversineDistance(lat, lng, st.Latitude, st.Longitude)
		if d < bestDist {
			best, bestDist, found = st, d, true
		}
	}
	return best, found
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
