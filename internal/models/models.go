package models

import "time"

// DateLayout is the wire format of pothole date_added values
const DateLayout = "2006-01-02"

// Marker is a geotagged AQI reading
type Marker struct {
	ID        int64     `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AQI       float64   `json:"aqi"`
	Timestamp time.Time `json:"timestamp"`
}

// Pothole is a road hazard marker reported from the mobile app
type Pothole struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Size      string  `json:"size"`
	Threat    string  `json:"threat"`
	DateAdded string  `json:"date_added"`
	PhotoURL  *string `json:"photo_url,omitempty"`
}

// User is a contributor collecting points for daily submissions
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Points           int        `json:"points"`
	Streak           int        `json:"streak"`
	LastContribution *time.Time `json:"last_contribution,omitempty"`
	Vouchers         []string   `json:"vouchers"`
	Token            string     `json:"token,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Voucher is a reward users can redeem points for
type Voucher struct {
	Name           string `json:"name"`
	PointsRequired int    `json:"points_required"`
	Description    string `json:"description"`
	Icon           string `json:"icon"`
}

// Hotspot is a cluster of high-AQI markers
type Hotspot struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AQI       float64 `json:"aqi"`
	MaxAQI    float64 `json:"max_aqi"`
	Count     int     `json:"count"`
	Cell      string  `json:"cell"`
}

// Station is a monitoring site with a linear PM2.5 to AQI model
type Station struct {
	Name      string
	Latitude  float64
	Longitude float64
	Slope     *float64
	Intercept *float64
}

// Prediction is the AQI estimate for a PM2.5 reading at the nearest station
type Prediction struct {
	Location     string  `json:"location"`
	PM25         float64 `json:"PM2.5"`
	PredictedAQI float64 `json:"Predicted AQI"`
}
