package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/pkg/backtest"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	eventsPath := flag.String("events", "", "CSV of historical index changes (date,ticker,action)")
	outputPath := flag.String("output", "", "Optional path for the JSON result")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	if *eventsPath == "" {
		log.Fatal().Msg("-events is required")
	}

	events, err := backtest.LoadEventsCSV(*eventsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load events")
	}
	log.Info().Int("events", len(events)).Msg("Loaded historical index changes")

	ctx := context.Background()

	// Historical fetches are heavy, so the Redis cache matters here
	var provider marketdata.Provider = marketdata.NewYahooProvider(cfg.MarketData)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, replaying without cache")
	} else {
		provider = marketdata.NewCachedProvider(provider, redisClient, cfg.MarketData.CacheTTL)
	}

	scorer := risk.NewScorer(provider, cfg.Risk)
	aggregator := risk.NewAggregator(scorer, cfg.Risk.TrendLookbackDays)

	engine := backtest.NewEngine(
		backtest.Config{
			InitialCapital: cfg.Trading.StartingCapital,
			SlippageBps:    cfg.Trading.SlippageBps,
			CommissionBps:  cfg.Trading.CommissionBps,
		},
		provider,
		aggregator,
		sizing.NewSizer(cfg.Trading),
		sizing.NewHedgeEngine(cfg.Hedge),
	)

	result, err := engine.Run(ctx, events)
	if err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}

	fmt.Print(backtest.GenerateReport(result.Metrics))

	if *outputPath != "" {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
		if err := os.WriteFile(*outputPath, payload, 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
		log.Info().Str("path", *outputPath).Msg("Result written")
	}
}
