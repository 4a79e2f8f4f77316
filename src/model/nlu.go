package model

import (
	"strings"
	"time"
)

// ----------------------------------------------------
// ================ Config ================
// LLMConfig holds configuration for the chat model behind the extractors
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	Model       string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string        `envconfig:"LLM_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"512"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`
}

// RequiresAPIKey reports whether the configured provider needs a credential
func (c LLMConfig) RequiresAPIKey() bool {
	return !strings.EqualFold(strings.TrimSpace(c.Provider), "ollama")
}
