package main

import (
	"context"
	"fmt"
	"os"

	"raven-trader/internal/broker/brokerobs"
	"raven-trader/internal/broker/paper"
	"raven-trader/internal/broker/robinhood"
	"raven-trader/internal/engine"
	"raven-trader/internal/engine/engineobs"
	"raven-trader/internal/interfaces"
	"raven-trader/internal/llm/grok"
	"raven-trader/internal/llm/llmobs"
	"raven-trader/internal/llm/noop"
	"raven-trader/internal/logger"
	"raven-trader/internal/marketdata/coingecko"
	"raven-trader/internal/news"
	"raven-trader/internal/signal"
	"raven-trader/internal/store"
	"raven-trader/internal/trace"
	"raven-trader/internal/tradelog"

	"github.com/joho/godotenv"
)

func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

func initializeBrokerage(ctx context.Context, cfg *store.Config) (interfaces.Brokerage, error) {
	if cfg.Mode != "LIVE" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	apiKey := os.Getenv("ROBINHOOD_API_KEY")
	privateKey := os.Getenv("ROBINHOOD_PRIVATE_KEY")
	if apiKey == "" || privateKey == "" {
		if cfg.Mode == "LIVE" {
			return nil, fmt.Errorf("LIVE mode requires ROBINHOOD_API_KEY and ROBINHOOD_PRIVATE_KEY")
		}
		logger.Warn(ctx, "Brokerage credentials not set - using in-memory paper broker")
		return brokerobs.Wrap(paper.New(paper.DefaultBuyingPower)), nil
	}

	brk, err := robinhood.New(robinhood.Params{
		Mode:          cfg.Mode,
		APIKey:        apiKey,
		PrivateKeyB64: privateKey,
	})
	if err != nil {
		return nil, err
	}
	return brokerobs.Wrap(brk), nil
}

func initializeSentiment(ctx context.Context, cfg *store.Config) interfaces.Sentiment {
	var llm interfaces.Sentiment
	if os.Getenv("XAI_API_KEY") != "" {
		llm = grok.New(cfg)
	} else {
		llm = noop.New()
		logger.Warn(ctx, "XAI_API_KEY not set - using noop sentiment (no trades will be proposed)")
	}
	return llmobs.Wrap(llm)
}

func initializeHeadlines(cfg *store.Config) interfaces.Headlines {
	if !cfg.News.Enabled {
		return nil
	}
	svcCfg := news.DefaultServiceConfig()
	if cfg.News.CacheTTL > 0 {
		svcCfg.CacheTTL = cfg.News.CacheTTL.Std()
	}
	if cfg.News.MaxHeadlines > 0 {
		svcCfg.MaxPerSource = cfg.News.MaxHeadlines
	}
	return news.NewService(svcCfg)
}

func buildEngine(ctx context.Context, cfg *store.Config) (interfaces.Engine, error) {
	brk, err := initializeBrokerage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llm := initializeSentiment(ctx, cfg)
	technicals := signal.New(coingecko.New(), cfg)
	headlines := initializeHeadlines(cfg)
	log := tradelog.NewStore(cfg.DataDir)

	eng := engine.New(cfg, brk, llm, technicals, headlines, log)
	return engineobs.Wrap(eng), nil
}
