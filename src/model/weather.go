package model

import "time"

// WeatherConfig holds the weather data and geolocation collaborators' settings
type WeatherConfig struct {
	APIKey   string        `envconfig:"WEATHER_API_KEY" required:"true"`
	BaseURL  string        `envconfig:"WEATHER_BASE_URL" default:"https://api.weatherapi.com/v1"`
	Timeout  time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
	GeoIPURL string        `envconfig:"GEO_IP_URL" default:"https://api.ipify.org?format=json"`
}

// PipelineConfig holds per-turn settings
type PipelineConfig struct {
	ConfigFile  string        `envconfig:"PIPELINE_CONFIG" default:"config.yaml"`
	TurnTimeout time.Duration `envconfig:"TURN_TIMEOUT" default:"30s"`
	MetricsAddr string        `envconfig:"METRICS_ADDR"`
}
