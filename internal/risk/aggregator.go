package risk

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
)

// FactorSource computes the four factor scores for an analysis date. The
// production implementation is Scorer; tests inject precomputed results.
type FactorSource interface {
	ScoreCorrelation(ctx context.Context, date time.Time) FactorResult
	ScoreLeverage(ctx context.Context, date time.Time) FactorResult
	ScoreLiquidity(ctx context.Context, date time.Time) FactorResult
	ScoreRegulatory(ctx context.Context, date time.Time) FactorResult
}

// Aggregator combines factor scores into a composite systemic risk
// assessment and compares assessments across time
type Aggregator struct {
	source            FactorSource
	trendLookbackDays int
	logger            zerolog.Logger
}

// NewAggregator creates a risk aggregator over a factor source
func NewAggregator(source FactorSource, trendLookbackDays int) *Aggregator {
	if trendLookbackDays <= 0 {
		trendLookbackDays = 60
	}
	return &Aggregator{
		source:            source,
		trendLookbackDays: trendLookbackDays,
		logger:            config.NewLogger("risk_aggregator"),
	}
}

// Assess computes the systemic risk assessment for an analysis date. Factors
// run concurrently; missing factors are excluded from the weighted sum
// without renormalizing the remaining weights. When every factor is missing
// the result is degraded with level forced to LOW. Never fails on missing
// data; the only error is context cancellation.
func (a *Aggregator) Assess(ctx context.Context, date time.Time) (*Assessment, error) {
	results := make([]FactorResult, 4)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results[0] = a.source.ScoreCorrelation(gctx, date)
		return gctx.Err()
	})
	g.Go(func() error {
		results[1] = a.source.ScoreLeverage(gctx, date)
		return gctx.Err()
	})
	g.Go(func() error {
		results[2] = a.source.ScoreLiquidity(gctx, date)
		return gctx.Err()
	})
	g.Go(func() error {
		results[3] = a.source.ScoreRegulatory(gctx, date)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return a.aggregate(date, results), nil
}

// AssessFromResults builds an assessment from already-computed factor
// results. Used by backtests that replay recorded factor scores.
func (a *Aggregator) AssessFromResults(date time.Time, results []FactorResult) *Assessment {
	return a.aggregate(date, results)
}

func (a *Aggregator) aggregate(date time.Time, results []FactorResult) *Assessment {
	score := 0.0
	components := make(map[string]float64, len(results))
	var missingFactors []string

	for _, r := range results {
		if !r.Present() {
			missingFactors = append(missingFactors, r.Factor)
			continue
		}
		weight := factorWeights[r.Factor]
		score += weight * r.Reading.Score
		components[r.Factor] = r.Reading.Score
	}

	if len(components) == 0 {
		a.logger.Warn().
			Time("analysis_date", date).
			Strs("missing", missingFactors).
			Msg("All risk factors unavailable, substituting conservative default")
		return &Assessment{
			Score:        0,
			Level:        LevelLow,
			Components:   components,
			AnalysisDate: date,
			Degraded:     true,
			Missing:      missingFactors,
		}
	}

	assessment := &Assessment{
		Score:        score,
		Level:        LevelForScore(score),
		Components:   components,
		AnalysisDate: date,
		Missing:      missingFactors,
	}

	a.logger.Info().
		Time("analysis_date", date).
		Float64("score", score).
		Str("level", string(assessment.Level)).
		Int("factors_present", len(components)).
		Strs("missing", missingFactors).
		Msg("Systemic risk assessed")

	return assessment
}

// CompareTrend assesses risk now and at date minus the trend lookback, and
// classifies the delta. Returns ErrTrendUnavailable when either assessment
// is degraded; callers must treat an unavailable trend as absent.
func (a *Aggregator) CompareTrend(ctx context.Context, date time.Time) (*TrendComparison, error) {
	historicalDate := date.AddDate(0, 0, -a.trendLookbackDays)

	var current, historical *Assessment

	// The two assessments are independent; order does not matter
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = a.Assess(gctx, date)
		return err
	})
	g.Go(func() error {
		var err error
		historical, err = a.Assess(gctx, historicalDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if current.Degraded || historical.Degraded {
		return nil, ErrTrendUnavailable
	}

	delta := current.Score - historical.Score
	comparison := &TrendComparison{
		Current:    current,
		Historical: historical,
		Delta:      delta,
		Trend:      classifyTrend(delta),
	}

	a.logger.Info().
		Time("analysis_date", date).
		Float64("current_score", current.Score).
		Float64("historical_score", historical.Score).
		Float64("delta", delta).
		Str("trend", string(comparison.Trend)).
		Msg("Risk trend compared")

	return comparison, nil
}
