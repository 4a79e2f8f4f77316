package core

import (
	"context"
	"errors"
	"time"
	"weather_nlu/internal/services"
	"weather_nlu/pkg"
	"weather_nlu/src/conversation"

	"github.com/cloudwego/eino/schema"
)

var (
	ErrEmptyMessage          = errors.New("message text cannot be empty")
	ErrWeatherUnavailable    = errors.New("weather data unavailable")
	ErrNoReply               = errors.New("pipeline finished without a reply")
	ErrMissingConversationID = conversation.ErrMissingConversationID
)

// Node represents a single processing stage in the turn pipeline
type Node interface {
	Execute(ctx context.Context, state *TurnState) (NodeOutput, error)
	GetName() string
	GetType() NodeType
}

// NodeType defines the different kinds of stages in the pipeline
type NodeType string

const (
	NodeTypeContext  NodeType = "context"
	NodeTypeNLU      NodeType = "nlu"
	NodeTypeWeather  NodeType = "weather"
	NodeTypeResponse NodeType = "response"
)

// NodeOutput tells the processor how to continue after a stage
type NodeOutput struct {
	Error    error // non-fatal, recorded in the response metadata
	Complete bool
}

// TurnState is the typed state passed by reference through every stage of one turn
type TurnState struct {
	Request        pkg.TurnRequest
	Conversation   *conversation.Context
	History        []*schema.Message
	Intent         pkg.IntentResult
	Location       pkg.ExtractionResult
	LookupLocation string
	Forecast       *services.Forecast
	Reply          *pkg.Reply
	Metadata       map[string]any
}

// Outcome labels the way a turn ended
func (s *TurnState) Outcome() string {
	switch {
	case s.Reply == nil:
		return OutcomeAborted
	case s.Forecast == nil:
		return OutcomeNoLocation
	default:
		return OutcomeReplied
	}
}

// Turn outcomes
const (
	OutcomeReplied    = "replied"
	OutcomeNoLocation = "no_location"
	OutcomeAborted    = "aborted"
)

// Config holds the processor settings
type Config struct {
	TurnTimeout time.Duration
}
