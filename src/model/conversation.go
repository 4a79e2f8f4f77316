package model

import "time"

// ConversationConfig controls where conversation context lives and how much of it is replayed
type ConversationConfig struct {
	RedisURL string        `envconfig:"REDIS_URL"`
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"1h"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}
