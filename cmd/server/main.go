package main

import (
	"github.com/xaenox/feature-scout/internal/assistant"
	"github.com/xaenox/feature-scout/internal/extractor"
	"github.com/xaenox/feature-scout/internal/scoring"
	"github.com/xaenox/feature-scout/internal/server"
	"github.com/xaenox/feature-scout/internal/storage"
	"github.com/xaenox/feature-scout/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Fatal("OPENAI_API_KEY is not set")
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the assistant with a dedicated response log
	sink := assistant.NewLogSink(logger.Named("llm_responses"))
	as := assistant.New(assistant.Config{
		APIKey:        cfg.OpenAI.APIKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.Model,
		FallbackModel: cfg.OpenAI.FallbackModel,
		MaxTokens:     cfg.OpenAI.MaxTokens,
		Temperature:   cfg.OpenAI.Temperature,
	}, sink, logger)

	// Initialize scoring
	scorerConfig := scoring.Config{
		TutorialInitialStatus:   cfg.Scoring.TutorialInitialStatus,
		AutomationInitialStatus: cfg.Scoring.AutomationInitialStatus,
		FullyLearnedThreshold:   cfg.Scoring.FullyLearnedThreshold,
	}
	scorer := scoring.NewScorer(store, scorerConfig, logger)
	aggregator := scoring.NewAggregator(store, scorerConfig.FullyLearnedThreshold)

	// Initialize the HTTP server
	srv := server.New(store, extractor.New(logger), as, scorer, aggregator, logger)
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
