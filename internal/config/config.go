package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Marker deployment kinds served at /api/markers
const (
	KindAQI     = "aqi"
	KindPothole = "pothole"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Markers   MarkersConfig   `yaml:"markers"`
	AWS       AWSConfig       `yaml:"aws"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Rewards   RewardsConfig   `yaml:"rewards"`
	Hotspots  HotspotsConfig  `yaml:"hotspots"`
	Stations  []StationConfig `yaml:"stations"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// MarkersConfig selects which marker mapping /api/markers serves
type MarkersConfig struct {
	Kind string `yaml:"kind"`
}

// AWSConfig holds object storage configuration for pothole photos.
// An empty bucket disables photo uploads.
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig limits write requests per client IP
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	Disabled bool          `yaml:"disabled"`
}

// RewardsConfig holds contribution rewards configuration
type RewardsConfig struct {
	Timezone string          `yaml:"timezone"`
	Vouchers []VoucherConfig `yaml:"vouchers"`
}

// VoucherConfig is a redeemable catalog entry
type VoucherConfig struct {
	Name           string `yaml:"name"`
	PointsRequired int    `yaml:"points_required"`
	Description    string `yaml:"description"`
	Icon           string `yaml:"icon"`
}

// HotspotsConfig controls hotspot clustering
type HotspotsConfig struct {
	Threshold float64 `yaml:"threshold"`
	CellLevel int     `yaml:"cell_level"`
	Limit     int     `yaml:"limit"`
}

// StationConfig is a monitoring site with an optional linear PM2.5 -> AQI model
type StationConfig struct {
	Name      string   `yaml:"name"`
	Latitude  float64  `yaml:"latitude"`
	Longitude float64  `yaml:"longitude"`
	Slope     *float64 `yaml:"slope"`
	Intercept *float64 `yaml:"intercept"`
}

// Default returns the configuration used when a field is not set in the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000},
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			DBName:   "hackathon",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Markers: MarkersConfig{Kind: KindAQI},
		AWS:     AWSConfig{Region: "us-east-1"},
		Log:     LogConfig{Level: "info", Format: "console"},
		CORS:    CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
		Rewards: RewardsConfig{
			Timezone: "UTC",
			Vouchers: []VoucherConfig{
				{Name: "5% Discount", PointsRequired: 50, Description: "Get 5% off your next purchase", Icon: "pricetag"},
				{Name: "10% Discount", PointsRequired: 100, Description: "Get 10% off your next purchase", Icon: "cart"},
				{Name: "Free Shipping", PointsRequired: 75, Description: "Free shipping on your next order", Icon: "airplane"},
				{Name: "Premium Feature", PointsRequired: 150, Description: "Access premium features for a month", Icon: "star"},
			},
		},
		Hotspots: HotspotsConfig{Threshold: 150, CellLevel: 13, Limit: 10},
		Stations: []StationConfig{
			{Name: "bapujinagar", Latitude: 12.95686, Longitude: 77.53930},
			{Name: "hebbal", Latitude: 13.03529, Longitude: 77.59937},
			{Name: "hsr_layout", Latitude: 12.91439, Longitude: 77.64589},
			{Name: "jayanagar", Latitude: 12.93182, Longitude: 77.58060},
			{Name: "kengeri", Latitude: 12.89948, Longitude: 77.48245},
			{Name: "nimhans", Latitude: 12.93966, Longitude: 77.59436},
			{Name: "peenya", Latitude: 13.03379, Longitude: 77.53768},
		},
	}
}

// Load reads configuration from a YAML file on top of Default, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok && v != "" {
		c.JWT.Secret = v
	}
}

// Validate checks values that would otherwise fail late at request time
func (c *Config) Validate() error {
	switch c.Markers.Kind {
	case KindAQI, KindPothole:
	default:
		return fmt.Errorf("invalid markers.kind %q: must be %q or %q", c.Markers.Kind, KindAQI, KindPothole)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("invalid database.driver %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}

	if _, err := c.Rewards.Location(); err != nil {
		return err
	}

	if c.Hotspots.CellLevel < 0 || c.Hotspots.CellLevel > 30 {
		return fmt.Errorf("hotspots.cell_level must be between 0 and 30")
	}

	for _, v := range c.Rewards.Vouchers {
		if v.Name == "" || v.PointsRequired <= 0 {
			return fmt.Errorf("voucher %q must have a name and positive points_required", v.Name)
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Location resolves the time zone contribution days are counted in
func (c *RewardsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid rewards.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
