package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"weather_nlu/internal/config"
	"weather_nlu/internal/core"
	"weather_nlu/internal/metrics"
	"weather_nlu/internal/nodes"
	"weather_nlu/internal/registry"
	"weather_nlu/internal/services"
	"weather_nlu/pkg"
	"weather_nlu/src"
	"weather_nlu/src/conversation"
	"weather_nlu/src/llm"
	"weather_nlu/src/logger"
	"weather_nlu/src/storage"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	cmdReset = "/reset"
	cmdNew   = "/new"
	cmdQuit  = "/quit"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conversations, processor, err := setup(ctx, cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to set up pipeline")
	}

	if cfg.PipelineConfig.MetricsAddr != "" {
		go serveMetrics(cfg.PipelineConfig.MetricsAddr)
	}

	run(ctx, conversations, processor)
}

func setup(ctx context.Context, cfg *src.Config) (*conversation.Service, *core.Processor, error) {
	pipeline, err := config.LoadConfig(cfg.PipelineConfig.ConfigFile)
	if err != nil {
		return nil, nil, err
	}

	reg, err := loadRegistry(pipeline.RegistryFile)
	if err != nil {
		return nil, nil, err
	}
	cities, countries := reg.Size()
	logger.Info().Int("cities", cities).Int("countries", countries).Msg("Registry loaded")

	cm, err := llm.NewChatModel(ctx, cfg.LLMConfig)
	if err != nil {
		return nil, nil, err
	}
	completers, err := nodes.NewCompleters(ctx, cm)
	if err != nil {
		return nil, nil, err
	}

	repo, err := newRepository(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	conversations := conversation.NewService(repo, conversation.NewRecentTurnsStrategy(cfg.ConversationConfig.MaxTurns))

	processor, err := nodes.BuildProcessor(nodes.Dependencies{
		Completers:    completers,
		Registry:      reg,
		Conversations: conversations,
		Weather:       services.NewWeatherClient(cfg.WeatherConfig.BaseURL, cfg.WeatherConfig.APIKey, cfg.WeatherConfig.Timeout),
		Geo:           services.NewIPLocator(cfg.WeatherConfig.GeoIPURL, cfg.WeatherConfig.Timeout),
	}, pipeline, core.Config{TurnTimeout: cfg.PipelineConfig.TurnTimeout})
	if err != nil {
		return nil, nil, err
	}

	logger.Info().
		Str("provider", cfg.LLMConfig.Provider).
		Str("model", cfg.LLMConfig.Model).
		Strs("intents", pipeline.Intents).
		Msg("Pipeline ready")
	return conversations, processor, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.Load(path)
}

func newRepository(ctx context.Context, cfg *src.Config) (conversation.Repository, error) {
	if cfg.ConversationConfig.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, keeping conversations in memory")
		return conversation.NewMemoryRepository(cfg.ConversationConfig.TTL), nil
	}
	client, err := storage.NewRedisClient(ctx, cfg.ConversationConfig.RedisURL)
	if err != nil {
		return nil, err
	}
	return conversation.NewRedisRepository(client, cfg.ConversationConfig.TTL), nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("Metrics server stopped")
	}
}

// run reads one message per line from stdin and prints each reply as JSON
func run(ctx context.Context, conversations *conversation.Service, processor *core.Processor) {
	conversationID := uuid.NewString()
	fmt.Printf("Conversation %s. Commands: %s, %s, %s\n", conversationID, cmdReset, cmdNew, cmdQuit)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())

		switch text {
		case "":
			continue
		case cmdQuit:
			return
		case cmdNew:
			conversationID = uuid.NewString()
			fmt.Printf("Conversation %s\n", conversationID)
			continue
		case cmdReset:
			if err := conversations.Reset(ctx, conversationID); err != nil {
				fmt.Printf("Error resetting conversation: %v\n", err)
			}
			continue
		}

		response, err := processor.Execute(ctx, pkg.TurnRequest{ConversationID: conversationID, Text: text})
		switch {
		case core.IsWeatherUnavailable(err):
			fmt.Println("Weather data is unavailable right now, please try again later.")
			continue
		case err != nil:
			fmt.Printf("Error processing message: %v\n", err)
			continue
		}

		output, err := sonic.MarshalIndent(response, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling response: %v\n", err)
			continue
		}
		fmt.Println(string(output))

		if ctx.Err() != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to read input")
	}
}
