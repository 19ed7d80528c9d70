// Package spatial wraps the S2 geometry helpers used for hotspot clustering
// and nearest-station lookup.
package spatial

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// CellID returns the S2 cell containing the point at the given level (0-30)
func CellID(lat, lng float64, level int) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(level)
}

// CellToken returns the compact string form of the cell containing the point
func CellToken(lat, lng float64, level int) string {
	return CellID(lat, lng, level).ToToken()
}
