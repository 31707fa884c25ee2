package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/civicworks/presence/internal/domain"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Face matching
	MatcherType    string  `envconfig:"MATCHER_TYPE" default:"embedded"`
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.5"`

	// AWS Rekognition (matcher_type=rekognition)
	AWSRegion     string  `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSCollection string  `envconfig:"AWS_COLLECTION" default:"presence-employees"`
	MinSimilarity float64 `envconfig:"MIN_SIMILARITY" default:"80"`

	// ML verdict service
	MLServiceURL string `envconfig:"ML_SERVICE_URL" default:"http://localhost:8001"`

	// Office geofence
	OfficeLat      float64 `envconfig:"OFFICE_LAT" required:"true"`
	OfficeLng      float64 `envconfig:"OFFICE_LNG" required:"true"`
	OfficeRadiusKm float64 `envconfig:"OFFICE_RADIUS_KM" default:"0.5"`

	// Attendance window, hours in local time
	WindowOpenHour  int `envconfig:"WINDOW_OPEN_HOUR" default:"7"`
	WindowCloseHour int `envconfig:"WINDOW_CLOSE_HOUR" default:"17"`

	// Flagged-attempt alert webhook, disabled when URL is empty
	AlertWebhookURL    string `envconfig:"ALERT_WEBHOOK_URL"`
	AlertWebhookSecret string `envconfig:"ALERT_WEBHOOK_SECRET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.WindowOpenHour >= cfg.WindowCloseHour {
		return nil, fmt.Errorf("invalid attendance window: open %d >= close %d", cfg.WindowOpenHour, cfg.WindowCloseHour)
	}
	return &cfg, nil
}

// Office returns the configured geofence center and radius.
func (c *Config) Office() domain.Office {
	return domain.Office{
		Latitude:  c.OfficeLat,
		Longitude: c.OfficeLng,
		RadiusKm:  c.OfficeRadiusKm,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
