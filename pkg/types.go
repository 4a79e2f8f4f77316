package pkg

import (
	"time"
)

// Weather NLU Core Types

// Intent labels understood by the weather pipeline
const (
	IntentToday         = "today"
	IntentUpcomingWeek  = "upcoming_week"
	IntentUpcomingMonth = "upcoming_month"
	IntentUndefined     = "undefined"
)

// DefaultCity is the location reported when nothing valid could be resolved
const DefaultCity = "City not found"

// DefaultIntents is the vocabulary used when a caller supplies no allowed intents
var DefaultIntents = []string{IntentToday, IntentUpcomingWeek, IntentUpcomingMonth}

// FailureReason explains why an extraction fell back to its default value
type FailureReason string

const (
	FailureNone            FailureReason = "none"
	FailureEmptyInput      FailureReason = "empty_input"
	FailureInvalidInput    FailureReason = "invalid_input"
	FailureTransport       FailureReason = "transport"
	FailureMalformed       FailureReason = "malformed"
	FailureNoCandidate     FailureReason = "no_candidate"
	FailureUnknownLocation FailureReason = "unknown_location"
)

// IntentResult is the validated output of intent classification
type IntentResult struct {
	Intent      string        `json:"intent"`
	Confidence  float64       `json:"confidence"`
	Reasoning   string        `json:"reasoning,omitempty"`
	Raw         string        `json:"raw,omitempty"`
	Error       string        `json:"error,omitempty"`
	Failure     FailureReason `json:"failure"`
	ExtractedAt time.Time     `json:"extracted_at"`
}

// Defined reports whether the classifier produced a label from the vocabulary
func (r IntentResult) Defined() bool {
	return r.Intent != "" && r.Intent != IntentUndefined
}

// ExtractionResult is the validated output of location extraction
type ExtractionResult struct {
	Value      string        `json:"value"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning,omitempty"`
	Raw        string        `json:"raw,omitempty"`
	Valid      bool          `json:"valid"`
	IsCountry  bool          `json:"is_country"`
	Country    string        `json:"country,omitempty"` // matched country when IsCountry
	Error      string        `json:"error,omitempty"`
	Failure    FailureReason `json:"failure"`
}

// ConversationMessage represents a message in conversation history
type ConversationMessage struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Card is the structured visual reply sourced from the composed response
type Card struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Icon    string `json:"icon,omitempty"`
}

// ReplyKind selects how the transport renders a reply
type ReplyKind string

const (
	ReplyText ReplyKind = "text"
	ReplyCard ReplyKind = "card"
)

// Reply is what the pipeline hands back to the inbound transport
type Reply struct {
	Kind ReplyKind `json:"kind"`
	Text string    `json:"text,omitempty"`
	Card *Card     `json:"card,omitempty"`
}

// TurnRequest is one inbound user message
type TurnRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// TurnResponse contains the reply plus the structured signals behind it
type TurnResponse struct {
	Reply          Reply            `json:"reply"`
	Intent         IntentResult     `json:"intent"`
	Location       ExtractionResult `json:"location"`
	LookupLocation string           `json:"lookup_location,omitempty"`
	ExecutionPath  []string         `json:"execution_path"`
	ProcessingTime int64            `json:"processing_time_ms"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
}
