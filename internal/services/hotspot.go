package services

import (
	"context"
	"sort"

	"aqi-map-backend/internal/config"
	"aqi-map-backend/internal/models"
	"aqi-map-backend/internal/spatial"
)

// MarkerLister reads every stored AQI marker
type MarkerLister interface {
	List(ctx context.Context) ([]*models.Marker, error)
}

// HotspotService clusters high-AQI readings for the drone dashboard
type HotspotService struct {
	markers   MarkerLister
	threshold float64
	cellLevel int
	limit     int
}

// NewHotspotService creates a new hotspot service
func NewHotspotService(markers MarkerLister, cfg config.HotspotsConfig) *HotspotService {
	return &HotspotService{
		markers:   markers,
		threshold: cfg.Threshold,
		cellLevel: cfg.CellLevel,
		limit:     cfg.Limit,
	}
}

type hotspotAcc struct {
	sumLat, sumLng, sumAQI float64
	maxAQI                 float64
	count                  int
}

// Hotspots groups markers at or above the threshold by S2 cell, worst first
func (s *HotspotService) Hotspots(ctx context.Context) ([]models.Hotspot, error) {
	markers, err := s.markers.List(ctx)
	if err != nil {
		return nil, err
	}

	cells := make(map[string]*hotspotAcc)
	for _, m := range markers {
		if m.AQI < s.threshold {
			continue
		}
		token := spatial.CellToken(m.Latitude, m.Longitude, s.cellLevel)
		acc, ok := cells[token]
		if !ok {
			acc = &hotspotAcc{maxAQI: m.AQI}
			cells[token] = acc
		}
		acc.sumLat += m.Latitude
		acc.sumLng += m.Longitude
		acc.sumAQI += m.AQI
		acc.count++
		if m.AQI > acc.maxAQI {
			acc.maxAQI = m.AQI
		}
	}

	hotspots := make([]models.Hotspot, 0, len(cells))
	for token, acc := range cells {
		n := float64(acc.count)
		hotspots = append(hotspots, models.Hotspot{
			Latitude:  acc.sumLat / n,
			Longitude: acc.sumLng / n,
			AQI:       acc.sumAQI / n,
			MaxAQI:    acc.maxAQI,
			Count:     acc.count,
			Cell:      token,
		})
	}

	sort.Slice(hotspots, func(i, j int) bool {
		a, b := hotspots[i], hotspots[j]
		if a.AQI != b.AQI {
			return a.AQI > b.AQI
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Cell < b.Cell
	})

	if s.limit > 0 && len(hotspots) > s.limit {
		hotspots = hotspots[:s.limit]
	}
	return hotspots, nil
}
