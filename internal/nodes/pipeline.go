package nodes

import (
	"context"
	"fmt"
	"weather_nlu/internal/config"
	"weather_nlu/internal/core"
	"weather_nlu/src/conversation"
	"weather_nlu/src/llm/nlu"

	"github.com/cloudwego/eino/components/model"
)

// Completers groups the three completion seams of the pipeline
type Completers struct {
	Intent   Completer
	Location Completer
	Response Completer
}

// NewCompleters compiles one chain per prompt over the shared chat model
func NewCompleters(ctx context.Context, cm model.BaseChatModel) (Completers, error) {
	intent, err := NewChainCompleter(ctx, nlu.CreateIntentTemplate(), cm)
	if err != nil {
		return Completers{}, fmt.Errorf("intent chain: %w", err)
	}
	location, err := NewChainCompleter(ctx, nlu.CreateLocationTemplate(), cm)
	if err != nil {
		return Completers{}, fmt.Errorf("location chain: %w", err)
	}
	response, err := NewChainCompleter(ctx, nlu.CreateResponseTemplate(), cm)
	if err != nil {
		return Completers{}, fmt.Errorf("response chain: %w", err)
	}
	return Completers{Intent: intent, Location: location, Response: response}, nil
}

// Dependencies are the collaborators the pipeline stages are built from
type Dependencies struct {
	Completers    Completers
	Registry      EntityRegistry
	Conversations *conversation.Service
	Weather       WeatherFetcher
	Geo           IPLookup
}

// LocationOptionsFrom maps the YAML location section onto resolver options
func LocationOptionsFrom(section config.LocationSection) LocationOptions {
	return LocationOptions{
		AllowedCities:   section.AllowedCities,
		StrictMode:      section.StrictMode,
		DefaultCity:     section.DefaultCity,
		IncludeMetadata: section.IncludeMetadata,
	}
}

// BuildProcessor wires context → intent → location → weather → response
func BuildProcessor(deps Dependencies, pipeline *config.PipelineConfig, processorConfig core.Config) (*core.Processor, error) {
	if deps.Conversations == nil || deps.Weather == nil || deps.Registry == nil {
		return nil, fmt.Errorf("conversations, weather and registry are required")
	}
	if pipeline == nil {
		pipeline = config.Default()
	}

	stages := []core.Node{
		NewContextNode(deps.Conversations),
		NewIntentNode(NewIntentClassifier(deps.Completers.Intent, pipeline.Intents), pipeline.Intents),
		NewLocationNode(
			NewLocationResolver(deps.Completers.Location, deps.Registry),
			LocationOptionsFrom(pipeline.Location),
			Fallback{Location: pipeline.Fallback.Location, UseIP: pipeline.Fallback.UseIP},
			deps.Geo,
		),
		NewWeatherNode(deps.Weather),
		NewResponseNode(NewResponseComposer(deps.Completers.Response), deps.Conversations),
	}

	processor := core.NewProcessor(processorConfig)
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		if err := processor.AddNode(stage); err != nil {
			return nil, err
		}
		names = append(names, stage.GetName())
	}
	if err := processor.SetFlow(core.LinearFlow(names...)); err != nil {
		return nil, err
	}
	return processor, nil
}
