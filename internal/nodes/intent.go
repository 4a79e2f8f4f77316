package nodes

import (
	"context"
	"errors"
	"strings"
	"time"
	"weather_nlu/internal/metrics"
	"weather_nlu/pkg"
	"weather_nlu/src/llm/nlu"
	"weather_nlu/src/logger"
)

// IntentClassifier validates the classifier completion into a label from the allowed vocabulary
type IntentClassifier struct {
	completer      Completer
	defaultIntents []string
	now            func() time.Time
}

// NewIntentClassifier uses defaultIntents whenever a caller passes no vocabulary
func NewIntentClassifier(completer Completer, defaultIntents []string) *IntentClassifier {
	if len(defaultIntents) == 0 {
		defaultIntents = pkg.DefaultIntents
	}
	return &IntentClassifier{
		completer:      completer,
		defaultIntents: defaultIntents,
		now:            time.Now,
	}
}

// ExtractIntent never fails: any problem yields undefined with the failure recorded
func (c *IntentClassifier) ExtractIntent(ctx context.Context, text string, allowed []string) pkg.IntentResult {
	if len(allowed) == 0 {
		allowed = c.defaultIntents
	}

	result := c.extract(ctx, text, allowed)
	result.ExtractedAt = c.now()
	result.Confidence = nlu.Clamp01(result.Confidence)

	metrics.IntentsClassified.WithLabelValues(result.Intent, string(result.Failure)).Inc()
	if result.Failure != pkg.FailureNone {
		logger.Warn().
			Str("failure", string(result.Failure)).
			Str("error", result.Error).
			Msg("Intent classification fell back to undefined")
	}
	return result
}

// Classify returns only the label
func (c *IntentClassifier) Classify(ctx context.Context, text string, allowed []string) string {
	return c.ExtractIntent(ctx, text, allowed).Intent
}

func (c *IntentClassifier) extract(ctx context.Context, text string, allowed []string) pkg.IntentResult {
	if err := nlu.ValidateText(text); err != nil {
		failure := pkg.FailureInvalidInput
		if errors.Is(err, nlu.ErrEmptyText) {
			failure = pkg.FailureEmptyInput
		}
		return undefinedIntent(failure, err, "")
	}

	raw, err := c.completer.Complete(ctx, map[string]any{
		nlu.VarIntents: nlu.FormatIntents(allowed),
		nlu.VarText:    text,
	})
	if err != nil {
		return undefinedIntent(pkg.FailureTransport, err, "")
	}

	obj, err := nlu.ParseObject(raw)
	if err != nil {
		return undefinedIntent(pkg.FailureMalformed, err, raw)
	}

	result := pkg.IntentResult{
		Intent:     nlu.NormalizeIntent(obj["intent"], allowed),
		Confidence: nlu.NormalizeConfidence(obj["confidence"]),
		Reasoning:  nlu.StringField(obj, "reasoning"),
		Raw:        raw,
		Failure:    pkg.FailureNone,
	}

	if label := nlu.StringField(obj, "intent"); result.Intent == pkg.IntentUndefined && label != "" &&
		!strings.EqualFold(label, pkg.IntentUndefined) {
		logger.Debug().Str("label", label).Msg("Out-of-vocabulary intent forced to undefined")
	}
	return result
}

func undefinedIntent(failure pkg.FailureReason, err error, raw string) pkg.IntentResult {
	return pkg.IntentResult{
		Intent:     pkg.IntentUndefined,
		Confidence: 0,
		Raw:        raw,
		Error:      err.Error(),
		Failure:    failure,
	}
}
