package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	dateArg := flag.String("date", "", "Assessment date as 2006-01-02 (default today)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	date := time.Now().UTC()
	if *dateArg != "" {
		date, err = time.Parse("2006-01-02", *dateArg)
		if err != nil {
			log.Fatal().Err(err).Str("date", *dateArg).Msg("Invalid date")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var provider marketdata.Provider = marketdata.NewYahooProvider(cfg.MarketData)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, running without market data cache")
	} else {
		provider = marketdata.NewCachedProvider(provider, redisClient, cfg.MarketData.CacheTTL)
	}

	scorer := risk.NewScorer(provider, cfg.Risk)
	aggregator := risk.NewAggregator(scorer, cfg.Risk.TrendLookbackDays)

	assessment, err := aggregator.Assess(ctx, date)
	if err != nil {
		log.Fatal().Err(err).Msg("Assessment failed")
	}

	fmt.Printf("Systemic risk assessment for %s\n", date.Format("2006-01-02"))
	fmt.Printf("  Composite score: %.4f\n", assessment.Score)
	fmt.Printf("  Risk level:      %s\n", assessment.Level)
	for _, factor := range []string{risk.FactorCorrelation, risk.FactorLeverage, risk.FactorLiquidity, risk.FactorRegulatory} {
		if score, ok := assessment.Components[factor]; ok {
			fmt.Printf("    %-20s %.4f\n", factor, score)
		} else {
			fmt.Printf("    %-20s unavailable\n", factor)
		}
	}
	if assessment.Degraded {
		fmt.Printf("  DEGRADED: no factor could be computed (missing: %s)\n",
			strings.Join(assessment.Missing, ", "))
	}

	trend := risk.Trend("")
	comparison, err := aggregator.CompareTrend(ctx, date)
	switch {
	case errors.Is(err, risk.ErrTrendUnavailable):
		fmt.Printf("  Trend:           unavailable\n")
	case err != nil:
		log.Warn().Err(err).Msg("Trend comparison failed")
		fmt.Printf("  Trend:           unavailable\n")
	default:
		trend = comparison.Trend
		fmt.Printf("  Trend:           %s (delta %+.4f over %d days)\n",
			comparison.Trend, comparison.Delta, cfg.Risk.TrendLookbackDays)
	}

	band := sizing.BandFor(assessment.Level)
	hedger := sizing.NewHedgeEngine(cfg.Hedge)
	hedge := hedger.DecideHedge(assessment.Score, band, trend, cfg.Trading.StartingCapital)
	if hedge.Recommended {
		fmt.Printf("  Hedge:           YES (%s) %s $%.2f at %.1fx for %d days\n",
			hedge.Reason, hedge.Symbol, hedge.PositionValue, hedge.Leverage, hedge.HoldDays)
	} else {
		fmt.Printf("  Hedge:           no (%s)\n", hedge.Reason)
	}
}
