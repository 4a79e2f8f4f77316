package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"weather_nlu/pkg"

	"gopkg.in/yaml.v3"
)

// PipelineConfig represents the structure of config.yaml
type PipelineConfig struct {
	Intents      []string        `yaml:"intents"`
	Location     LocationSection `yaml:"location"`
	Fallback     FallbackSection `yaml:"fallback"`
	RegistryFile string          `yaml:"registry_file"`
}

type LocationSection struct {
	AllowedCities   []string `yaml:"allowed_cities"`
	StrictMode      bool     `yaml:"strict_mode"`
	DefaultCity     string   `yaml:"default_city"`
	IncludeMetadata bool     `yaml:"include_metadata"`
}

// FallbackSection decides what happens when no valid location is resolved
type FallbackSection struct {
	UseIP    bool   `yaml:"use_ip"`
	Location string `yaml:"location"`
}

// Default returns the configuration used when no config file exists
func Default() *PipelineConfig {
	return &PipelineConfig{
		Intents: append([]string(nil), pkg.DefaultIntents...),
		Location: LocationSection{
			DefaultCity: pkg.DefaultCity,
		},
	}
}

// LoadConfig loads configuration from config.yaml. A missing file yields Default().
func LoadConfig(filepath string) (*PipelineConfig, error) {
	data, err := os.ReadFile(filepath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML and fills in documented defaults
func ParseConfig(data []byte) (*PipelineConfig, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	config.Intents = cleanList(config.Intents)
	if len(config.Intents) == 0 {
		config.Intents = append([]string(nil), pkg.DefaultIntents...)
	}
	config.Location.AllowedCities = cleanList(config.Location.AllowedCities)
	if strings.TrimSpace(config.Location.DefaultCity) == "" {
		config.Location.DefaultCity = pkg.DefaultCity
	}
	config.Fallback.Location = strings.TrimSpace(config.Fallback.Location)

	for _, intent := range config.Intents {
		if strings.EqualFold(intent, pkg.IntentUndefined) {
			return nil, fmt.Errorf("intent %q is reserved", pkg.IntentUndefined)
		}
	}
	return config, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
