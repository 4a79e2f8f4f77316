package nodes

import (
	"context"
	"fmt"
	"strings"
	"weather_nlu/internal/core"
	"weather_nlu/internal/services"
	"weather_nlu/pkg"
	"weather_nlu/src/conversation"
	"weather_nlu/src/logger"
)

// Stage names, in pipeline order
const (
	StageContext  = "context"
	StageIntent   = "intent"
	StageLocation = "location"
	StageWeather  = "weather"
	StageResponse = "response"
)

// NoSuchLocationReply is sent when no location could be resolved and no fallback applies
const NoSuchLocationReply = "Sorry, I couldn't find that location. Which city should I check the weather for?"

// WeatherFetcher fetches the forecast for a resolved location
type WeatherFetcher interface {
	Forecast(ctx context.Context, location string, days int) (*services.Forecast, error)
}

// IPLookup returns the caller's public IP address
type IPLookup interface {
	PublicIP(ctx context.Context) (string, error)
}

// ForecastDays maps an intent onto the number of forecast days to fetch
func ForecastDays(intent string) int {
	switch intent {
	case pkg.IntentUpcomingWeek:
		return 7
	case pkg.IntentUpcomingMonth:
		return 14
	default:
		return 1
	}
}

// ContextNode loads the prior turns, then appends the message to its conversation
type ContextNode struct {
	conversations *conversation.Service
}

func NewContextNode(conversations *conversation.Service) *ContextNode {
	return &ContextNode{conversations: conversations}
}

func (n *ContextNode) Execute(ctx context.Context, state *core.TurnState) (core.NodeOutput, error) {
	id := state.Request.ConversationID
	// history holds earlier turns only; the current text reaches the prompts separately
	history, err := n.conversations.History(ctx, id)
	if err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to load history: %w", err)
	}
	if err := n.conversations.Append(ctx, id, state.Request.Text); err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to append message: %w", err)
	}

	snapshot, err := n.conversations.Context(ctx, id)
	if err != nil {
		return core.NodeOutput{}, fmt.Errorf("failed to load conversation: %w", err)
	}

	state.Conversation = snapshot
	state.History = history
	state.Metadata["context_messages"] = len(snapshot.Messages)
	return core.NodeOutput{}, nil
}

func (n *ContextNode) GetName() string { return StageContext }

func (n *ContextNode) GetType() core.NodeType { return core.NodeTypeContext }

// IntentNode classifies the message against the configured vocabulary
type IntentNode struct {
	classifier *IntentClassifier
	intents    []string
}

func NewIntentNode(classifier *IntentClassifier, intents []string) *IntentNode {
	return &IntentNode{classifier: classifier, intents: intents}
}

func (n *IntentNode) Execute(ctx context.Context, state *core.TurnState) (core.NodeOutput, error) {
	state.Intent = n.classifier.ExtractIntent(ctx, state.Request.Text, n.intents)
	if state.Intent.Failure != pkg.FailureNone {
		return core.NodeOutput{Error: fmt.Errorf("intent %s: %s", state.Intent.Failure, state.Intent.Error)}, nil
	}
	return core.NodeOutput{}, nil
}

func (n *IntentNode) GetName() string { return StageIntent }

func (n *IntentNode) GetType() core.NodeType { return core.NodeTypeNLU }

// Fallback decides where to look up the weather when no location was resolved
type Fallback struct {
	Location string // used as-is when set
	UseIP    bool   // otherwise ask the geolocation service for the caller's public IP
}

// LocationNode resolves the location and applies the fallback policy
type LocationNode struct {
	resolver *LocationResolver
	options  LocationOptions
	fallback Fallback
	geo      IPLookup
}

func NewLocationNode(resolver *LocationResolver, options LocationOptions, fallback Fallback, geo IPLookup) *LocationNode {
	return &LocationNode{resolver: resolver, options: options, fallback: fallback, geo: geo}
}

func (n *LocationNode) Execute(ctx context.Context, state *core.TurnState) (core.NodeOutput, error) {
	state.Location = n.resolver.ExtractLocation(ctx, state.Request.Text, n.options)
	if state.Location.Valid {
		state.LookupLocation = state.Location.Value
		return core.NodeOutput{}, nil
	}

	if lookup, source := n.fallbackLocation(ctx); lookup != "" {
		state.LookupLocation = lookup
		state.Metadata["location_fallback"] = source
		return core.NodeOutput{}, nil
	}

	state.Reply = &pkg.Reply{Kind: pkg.ReplyText, Text: NoSuchLocationReply}
	return core.NodeOutput{Complete: true}, nil
}

func (n *LocationNode) fallbackLocation(ctx context.Context) (location, source string) {
	if configured := strings.TrimSpace(n.fallback.Location); configured != "" {
		return configured, "configured"
	}
	if !n.fallback.UseIP || n.geo == nil {
		return "", ""
	}
	ip, err := n.geo.PublicIP(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("IP geolocation fallback failed")
		return "", ""
	}
	return ip, "ip"
}

func (n *LocationNode) GetName() string { return StageLocation }

func (n *LocationNode) GetType() core.NodeType { return core.NodeTypeNLU }

// WeatherNode fetches the forecast; a failure aborts the turn
type WeatherNode struct {
	weather WeatherFetcher
}

func NewWeatherNode(weather WeatherFetcher) *WeatherNode {
	return &WeatherNode{weather: weather}
}

func (n *WeatherNode) Execute(ctx context.Context, state *core.TurnState) (core.NodeOutput, error) {
	forecast, err := n.weather.Forecast(ctx, state.LookupLocation, ForecastDays(state.Intent.Intent))
	if err != nil {
		return core.NodeOutput{}, fmt.Errorf("%w: %v", core.ErrWeatherUnavailable, err)
	}
	state.Forecast = forecast
	return core.NodeOutput{}, nil
}

func (n *WeatherNode) GetName() string { return StageWeather }

func (n *WeatherNode) GetType() core.NodeType { return core.NodeTypeWeather }

// ResponseNode composes the reply card and records it in the conversation
type ResponseNode struct {
	composer      *ResponseComposer
	conversations *conversation.Service
}

func NewResponseNode(composer *ResponseComposer, conversations *conversation.Service) *ResponseNode {
	return &ResponseNode{composer: composer, conversations: conversations}
}

func (n *ResponseNode) Execute(ctx context.Context, state *core.TurnState) (core.NodeOutput, error) {
	location := state.LookupLocation
	if state.Forecast != nil && state.Forecast.Location != "" {
		location = state.Forecast.Location
	}

	var output core.NodeOutput
	card, err := n.composer.Compose(ctx, ComposeInput{
		Text:     state.Request.Text,
		Intent:   state.Intent.Intent,
		Location: location,
		Forecast: state.Forecast,
		History:  state.History,
	})
	if err != nil {
		output.Error = fmt.Errorf("response composition failed: %w", err)
		state.Reply = &pkg.Reply{Kind: pkg.ReplyText, Text: FallbackText(location, state.Forecast)}
	} else {
		state.Reply = &pkg.Reply{Kind: pkg.ReplyCard, Card: card}
	}

	saved := state.Reply.Text
	if card != nil {
		saved = card.Message
	}
	if err := n.conversations.SaveResponse(ctx, state.Request.ConversationID, saved); err != nil {
		logger.Warn().Err(err).Msg("Failed to save response to conversation")
	}

	output.Complete = true
	return output, nil
}

func (n *ResponseNode) GetName() string { return StageResponse }

func (n *ResponseNode) GetType() core.NodeType { return core.NodeTypeResponse }
