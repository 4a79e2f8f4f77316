package nlu

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
	"weather_nlu/pkg"

	"github.com/bytedance/sonic"
)

// Constants for parsing configuration
const (
	MaxTextLength      = 10000
	MaxCompletionChars = 5000
	MaxObjectFields    = 20
	DefaultConfidence  = 0.5
)

var (
	ErrEmptyText      = errors.New("input text cannot be empty")
	ErrMalformedJSON  = errors.New("completion is not a JSON object")
	ErrCompletionSize = errors.New("completion too long")
)

// ValidateText checks user text before it is sent to the completion collaborator
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextLength {
		return fmt.Errorf("input text too long: %d characters (max: %d)", len(text), MaxTextLength)
	}
	if !utf8.ValidString(text) {
		return errors.New("input text contains invalid UTF-8 characters")
	}
	return nil
}

// ParseObject extracts the JSON object from a completion and decodes it.
// Markdown code fences and leading or trailing prose are tolerated.
func ParseObject(content string) (map[string]any, error) {
	if len(content) > MaxCompletionChars {
		return nil, fmt.Errorf("%w: %d characters (max: %d)", ErrCompletionSize, len(content), MaxCompletionChars)
	}

	body := strings.TrimSpace(content)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, ErrMalformedJSON
	}
	body = body[start : end+1]

	var parsed map[string]any
	if err := sonic.UnmarshalString(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if parsed == nil {
		return nil, ErrMalformedJSON
	}
	if len(parsed) > MaxObjectFields {
		return nil, fmt.Errorf("too many fields in completion: %d (max: %d)", len(parsed), MaxObjectFields)
	}
	return parsed, nil
}

// StringField returns the trimmed string value for key, or "" when absent or not a string
func StringField(obj map[string]any, key string) string {
	value, ok := obj[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// NormalizeConfidence accepts a JSON number in [0,1]; anything else becomes DefaultConfidence
func NormalizeConfidence(value any) float64 {
	f, ok := value.(float64)
	if !ok || math.IsNaN(f) || f < 0 || f > 1 {
		return DefaultConfidence
	}
	return f
}

// Clamp01 bounds a score to [0,1]
func Clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// NormalizeIntent maps a raw label onto the allowed vocabulary; anything unknown is undefined
func NormalizeIntent(value any, allowed []string) string {
	label, ok := value.(string)
	if !ok {
		return pkg.IntentUndefined
	}
	label = strings.TrimSpace(label)
	for _, intent := range allowed {
		if strings.EqualFold(label, intent) {
			return intent
		}
	}
	return pkg.IntentUndefined
}
