package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/alerts"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/broker"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/engine"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/metrics"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/news"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting S&P 500 index-change trading bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Market data: Yahoo behind a Redis read-through cache
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

	// Position persistence is optional; the paper broker works in memory
	var store *broker.Store
	pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Warn().Err(err).Msg("Invalid database configuration, positions will not be persisted")
	} else if err := pool.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Postgres unreachable, positions will not be persisted")
		pool.Close()
	} else {
		store = broker.NewStore(pool)
		defer pool.Close()
	}

	// Alerting
	alerters := []alerts.Alerter{alerts.NewLogAlerter()}
	if cfg.Telegram.Enabled {
		telegram, err := alerts.NewTelegramAlerter(cfg.Telegram)
		if err != nil {
			log.Error().Err(err).Msg("Telegram alerter unavailable")
		} else {
			alerters = append(alerters, telegram)
		}
	}
	alerts.SetDefaultManager(alerts.NewManager(alerters...))

	// Core pipeline
	scorer := risk.NewScorer(provider, cfg.Risk)
	aggregator := risk.NewAggregator(scorer, cfg.Risk.TrendLookbackDays)
	paperBroker := broker.NewPaperBroker(cfg.Trading, store)
	decisionEngine := engine.New(
		aggregator,
		sizing.NewSizer(cfg.Trading),
		sizing.NewHedgeEngine(cfg.Hedge),
		paperBroker,
		provider,
	)

	// News detection
	feeds, err := news.LoadFeeds(cfg.News.FeedsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.News.FeedsFile).Msg("Failed to load feeds")
	}
	detector := news.NewDetector(cfg.News, feeds)

	var publisher *news.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = news.NewPublisher(cfg.NATS)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unreachable, events will not be published")
		} else {
			defer publisher.Close()
		}
	}

	// Metrics
	if cfg.Monitoring.EnableMetrics {
		metricsServer := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger)
		if err := metricsServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start metrics server")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Metrics server shutdown failed")
				}
			}()
		}
		go metrics.NewUpdater(paperBroker, 30*time.Second).Start(ctx)
	}

	detected := make(chan news.Event, 16)
	decisions := make(chan news.Event, 16)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(detected)
		return detector.Run(gctx, detected)
	})
	group.Go(func() error {
		defer close(decisions)
		for {
			select {
			case event, ok := <-detected:
				if !ok {
					return nil
				}
				if publisher != nil {
					if err := publisher.Publish(event); err != nil {
						log.Warn().Err(err).Str("event_id", event.ID).Msg("Event publish failed")
					}
				}
				select {
				case decisions <- event:
				case <-gctx.Done():
					return gctx.Err()
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})
	group.Go(func() error {
		return decisionEngine.Run(gctx, decisions)
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Bot terminated with error")
	}
	log.Info().Msg("Shutdown complete")
}
