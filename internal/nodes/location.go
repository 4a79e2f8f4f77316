package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"weather_nlu/internal/metrics"
	"weather_nlu/internal/registry"
	"weather_nlu/pkg"
	"weather_nlu/src/llm/nlu"
	"weather_nlu/src/logger"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	errNoCandidate     = errors.New("no location mentioned")
	errUnknownLocation = errors.New("location is not a known city")
)

// EntityRegistry is the lookup surface the resolver needs from the known-entity registry
type EntityRegistry interface {
	MatchCity(candidate string, strict bool) registry.Match
	MatchCountry(candidate string) registry.Match
	CapitalOf(country string) string
}

// LocationOptions controls how an extracted candidate is validated
type LocationOptions struct {
	AllowedCities   []string // when set, replaces the registry for city validation (exact only)
	StrictMode      bool     // registry city matching uses the exact tier only
	DefaultCity     string
	IncludeMetadata bool
}

func (o LocationOptions) defaultCity() string {
	if strings.TrimSpace(o.DefaultCity) == "" {
		return pkg.DefaultCity
	}
	return o.DefaultCity
}

// LocationResolver turns free text into a city usable by the weather lookup
type LocationResolver struct {
	completer Completer
	registry  EntityRegistry
}

func NewLocationResolver(completer Completer, reg EntityRegistry) *LocationResolver {
	return &LocationResolver{completer: completer, registry: reg}
}

// ResolveLocation returns only the resolved name, or the default city
func (r *LocationResolver) ResolveLocation(ctx context.Context, text string, opts LocationOptions) string {
	return r.ExtractLocation(ctx, text, opts).Value
}

// ExtractLocation never fails: anything that cannot be validated yields the default city with Valid=false.
// A country mention always wins over city validation and resolves to its capital.
func (r *LocationResolver) ExtractLocation(ctx context.Context, text string, opts LocationOptions) pkg.ExtractionResult {
	result := r.extract(ctx, text, opts)
	result.Confidence = nlu.Clamp01(result.Confidence)

	outcome := metrics.OutcomeCity
	switch {
	case !result.Valid:
		outcome = metrics.OutcomeDefault
		logger.Warn().
			Str("failure", string(result.Failure)).
			Str("error", result.Error).
			Msg("Location resolution fell back to default city")
	case result.IsCountry:
		outcome = metrics.OutcomeCountry
	}
	metrics.LocationsResolved.WithLabelValues(outcome, string(result.Failure)).Inc()

	if !opts.IncludeMetadata {
		result.Raw = ""
		result.Reasoning = ""
		result.Error = ""
	}
	return result
}

func (r *LocationResolver) extract(ctx context.Context, text string, opts LocationOptions) pkg.ExtractionResult {
	fallback := func(failure pkg.FailureReason, err error) pkg.ExtractionResult {
		return pkg.ExtractionResult{
			Value:   opts.defaultCity(),
			Valid:   false,
			Error:   err.Error(),
			Failure: failure,
		}
	}

	if strings.TrimSpace(text) == "" {
		return fallback(pkg.FailureEmptyInput, nlu.ErrEmptyText)
	}

	raw, err := r.completer.Complete(ctx, map[string]any{nlu.VarText: text})
	if err != nil {
		return fallback(pkg.FailureTransport, err)
	}

	obj, err := nlu.ParseObject(raw)
	if err != nil {
		result := fallback(pkg.FailureMalformed, err)
		result.Raw = raw
		return result
	}

	candidate := nlu.StringField(obj, "city")
	base := pkg.ExtractionResult{
		Confidence: nlu.NormalizeConfidence(obj["confidence"]),
		Reasoning:  nlu.StringField(obj, "reasoning"),
		Raw:        raw,
		Failure:    pkg.FailureNone,
	}

	if isNoLocation(candidate) {
		result := fallback(pkg.FailureNoCandidate, errNoCandidate)
		result.Reasoning, result.Raw = base.Reasoning, raw
		return result
	}

	if match := r.registry.MatchCountry(candidate); match.Found() {
		base.Value = r.registry.CapitalOf(match.Entry)
		base.Valid = true
		base.IsCountry = true
		base.Country = TitleCase(match.Entry)
		return base
	}

	if !r.validCity(candidate, opts) {
		result := fallback(pkg.FailureUnknownLocation, fmt.Errorf("%w: %q", errUnknownLocation, candidate))
		result.Reasoning, result.Raw = base.Reasoning, raw
		return result
	}

	base.Value = TitleCase(candidate)
	base.Valid = true
	return base
}

func (r *LocationResolver) validCity(candidate string, opts LocationOptions) bool {
	if len(opts.AllowedCities) > 0 {
		key := strings.ToLower(strings.TrimSpace(candidate))
		for _, city := range opts.AllowedCities {
			if strings.ToLower(strings.TrimSpace(city)) == key {
				return true
			}
		}
		return false
	}
	return r.registry.MatchCity(candidate, opts.StrictMode).Found()
}

func isNoLocation(candidate string) bool {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	switch normalized {
	case "", "null", "none", "no location found", strings.ToLower(nlu.NoLocationFound):
		return true
	}
	return false
}

// TitleCase capitalizes the first letter of each word and lowercases the rest
func TitleCase(name string) string {
	name = strings.Trim(name, " \t\n.,;:!?\"")
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}
