package src

import (
	"fmt"
	"strings"
	"weather_nlu/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig          model.LogConfig          `envconfig:""`
	LLMConfig          model.LLMConfig          `envconfig:""`
	ConversationConfig model.ConversationConfig `envconfig:""`
	WeatherConfig      model.WeatherConfig      `envconfig:""`
	PipelineConfig     model.PipelineConfig     `envconfig:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field requirements envconfig cannot express
func (c *Config) Validate() error {
	if c.LLMConfig.RequiresAPIKey() && c.LLMConfig.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for provider %q", c.LLMConfig.Provider)
	}
	if strings.TrimSpace(c.WeatherConfig.APIKey) == "" {
		return fmt.Errorf("WEATHER_API_KEY is required")
	}
	if c.ConversationConfig.MaxTurns <= 0 {
		return fmt.Errorf("CONVERSATION_MAX_TURNS must be positive, got %d", c.ConversationConfig.MaxTurns)
	}
	if c.PipelineConfig.TurnTimeout <= 0 {
		return fmt.Errorf("TURN_TIMEOUT must be positive, got %s", c.PipelineConfig.TurnTimeout)
	}
	return nil
}
