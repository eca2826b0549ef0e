// Package engine runs the decision cycle: detected index events are turned
// into risk-sized positions and hedge recommendations.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/alerts"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/broker"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/metrics"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/news"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

const (
	// priceWindow is how far back to look for the latest close when
	// filling an order
	priceWindow = 7 * 24 * time.Hour

	// sweepInterval is how often expired positions are closed
	sweepInterval = time.Hour

	// minEventConfidence filters out low-quality feed matches
	minEventConfidence = 0.5
)

// Engine wires risk assessment, sizing and execution together
type Engine struct {
	aggregator *risk.Aggregator
	sizer      *sizing.Sizer
	hedger     *sizing.HedgeEngine
	broker     broker.Broker
	provider   marketdata.Provider
	logger     zerolog.Logger
	now        func() time.Time

	lastLevel risk.Level
}

// New builds an engine from its collaborators
func New(
	aggregator *risk.Aggregator,
	sizer *sizing.Sizer,
	hedger *sizing.HedgeEngine,
	b broker.Broker,
	provider marketdata.Provider,
) *Engine {
	return &Engine{
		aggregator: aggregator,
		sizer:      sizer,
		hedger:     hedger,
		broker:     b,
		provider:   provider,
		logger:     config.NewLogger("engine"),
		now:        time.Now,
	}
}

// Run consumes events until the context is cancelled, sweeping expired
// positions in between
func (e *Engine) Run(ctx context.Context, events <-chan news.Event) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	e.logger.Info().Msg("Decision engine started")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := e.HandleEvent(ctx, event); err != nil {
				e.logger.Error().Err(err).
					Str("event_id", event.ID).
					Msg("Event handling failed")
				alerts.AlertSystemError(ctx, "engine", err)
			}
		case <-ticker.C:
			e.CloseExpired(ctx)
		case <-ctx.Done():
			e.logger.Info().Msg("Decision engine stopped")
			return ctx.Err()
		}
	}
}

// HandleEvent runs one full decision cycle for a detected index change
func (e *Engine) HandleEvent(ctx context.Context, event news.Event) error {
	if event.Confidence < minEventConfidence {
		e.logger.Info().
			Str("event_id", event.ID).
			Float64("confidence", event.Confidence).
			Msg("Event below confidence threshold, ignoring")
		return nil
	}

	metrics.EventsDetected.WithLabelValues(event.Source).Inc()
	alerts.AlertIndexEvent(ctx, event.Source, event.Added, event.Removed, event.Confidence)

	equity, err := e.broker.Equity(ctx)
	if err != nil {
		return fmt.Errorf("failed to read equity: %w", err)
	}

	assessment, trend, err := e.assess(ctx)
	if err != nil {
		return err
	}

	band := sizing.BandFor(assessment.Level)

	e.logger.Info().
		Str("event_id", event.ID).
		Float64("score", assessment.Score).
		Str("level", string(assessment.Level)).
		Str("band", string(band)).
		Str("trend", string(trend)).
		Float64("equity", equity).
		Msg("Risk assessed for event")

	for _, ticker := range event.Added {
		e.execute(ctx, e.sizer.SizePosition(ticker, band, sizing.SideLong, equity, trend))
	}
	for _, ticker := range event.Removed {
		e.execute(ctx, e.sizer.SizePosition(ticker, band, sizing.SideShort, equity, trend))
	}

	e.maybeHedge(ctx, assessment, band, trend, equity)
	return nil
}

// assess computes the current assessment plus the trend when the level is
// elevated enough to matter for sizing or hedging
func (e *Engine) assess(ctx context.Context) (*risk.Assessment, risk.Trend, error) {
	start := e.now()
	assessment, err := e.aggregator.Assess(ctx, start)
	if err != nil {
		return nil, "", fmt.Errorf("risk assessment failed: %w", err)
	}
	metrics.AssessmentDuration.Observe(e.now().Sub(start).Seconds())

	metrics.RiskScore.Set(assessment.Score)
	metrics.SetRiskLevel(string(assessment.Level))
	for factor, score := range assessment.Components {
		metrics.FactorScore.WithLabelValues(factor).Set(score)
	}
	if assessment.Degraded {
		metrics.DegradedAssessments.Inc()
	}

	if e.lastLevel != "" && e.lastLevel != assessment.Level {
		alerts.AlertRiskLevelChanged(ctx, string(e.lastLevel), string(assessment.Level), assessment.Score)
	}
	e.lastLevel = assessment.Level

	var trend risk.Trend
	if assessment.Level == risk.LevelMedium || assessment.Level == risk.LevelHigh {
		comparison, err := e.aggregator.CompareTrend(ctx, start)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Trend unavailable, sizing without it")
		} else {
			trend = comparison.Trend
			metrics.TrendDelta.Set(comparison.Delta)
		}
	}
	return assessment, trend, nil
}

// execute opens a position for a sizing decision, skipping zero-size ones
func (e *Engine) execute(ctx context.Context, decision sizing.Decision) {
	metrics.Decisions.WithLabelValues(
		string(decision.RiskBand), string(decision.Side), string(decision.SizingType),
	).Inc()

	if decision.Skip() {
		metrics.DecisionsSkipped.Inc()
		e.logger.Info().
			Str("ticker", decision.Ticker).
			Str("side", string(decision.Side)).
			Str("band", string(decision.RiskBand)).
			Msg("Decision carries no size, skipping")
		return
	}

	price, err := e.latestPrice(ctx, decision.Ticker)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("yahoo", metrics.NormalizeProviderError(err)).Inc()
		alerts.AlertOrderFailed(ctx, decision.Ticker, string(decision.Side), decision.PositionValue, err)
		return
	}

	if _, err := e.broker.OpenPosition(ctx, decision, price); err != nil {
		alerts.AlertOrderFailed(ctx, decision.Ticker, string(decision.Side), decision.PositionValue, err)
	}
}

// maybeHedge opens a hedge when the decision engine recommends one and no
// hedge position is already open
func (e *Engine) maybeHedge(ctx context.Context, assessment *risk.Assessment, band sizing.Band, trend risk.Trend, equity float64) {
	decision := e.hedger.DecideHedge(assessment.Score, band, trend, equity)
	if !decision.Recommended {
		e.logger.Debug().Str("reason", decision.Reason).Msg("No hedge")
		return
	}

	open, err := e.broker.OpenPositions(ctx)
	if err == nil {
		for _, position := range open {
			if position.Ticker == decision.Symbol {
				e.logger.Info().
					Str("symbol", decision.Symbol).
					Msg("Hedge already open, not adding")
				return
			}
		}
	}

	metrics.HedgesRecommended.Inc()
	alerts.AlertHedgeRecommended(ctx, decision.Symbol, decision.PositionValue, decision.Reason)

	price, err := e.latestPrice(ctx, decision.Symbol)
	if err != nil {
		alerts.AlertOrderFailed(ctx, decision.Symbol, string(sizing.SideLong), decision.PositionValue, err)
		return
	}

	hedge := sizing.Decision{
		Ticker:        decision.Symbol,
		Side:          sizing.SideLong,
		RiskBand:      band,
		SizingType:    sizing.SizingRiskBased,
		PositionValue: decision.PositionValue,
		EquityPct:     decision.EquityPct,
		Leverage:      decision.Leverage,
		HoldDays:      decision.HoldDays,
	}
	if _, err := e.broker.OpenPosition(ctx, hedge, price); err != nil {
		alerts.AlertOrderFailed(ctx, decision.Symbol, string(sizing.SideLong), decision.PositionValue, err)
	}
}

// CloseExpired exits every open position past its hold window
func (e *Engine) CloseExpired(ctx context.Context) {
	open, err := e.broker.OpenPositions(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to list open positions")
		return
	}

	now := e.now()
	for _, position := range open {
		if !position.Expired(now) {
			continue
		}
		price, err := e.latestPrice(ctx, position.Ticker)
		if err != nil {
			e.logger.Warn().Err(err).
				Str("ticker", position.Ticker).
				Msg("Cannot price expired position, will retry next sweep")
			continue
		}
		closed, err := e.broker.ClosePosition(ctx, position.ID, price)
		if err != nil {
			e.logger.Error().Err(err).
				Str("position_id", position.ID).
				Msg("Failed to close expired position")
			continue
		}
		metrics.RecordRealizedPnL(closed.PnL)
	}
}

// latestPrice returns the most recent close for a ticker
func (e *Engine) latestPrice(ctx context.Context, ticker string) (float64, error) {
	end := e.now()
	bars, err := e.provider.PriceHistory(ctx, ticker, end.Add(-priceWindow), end)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no recent bars for %s", ticker)
	}
	return bars[len(bars)-1].Close, nil
}
