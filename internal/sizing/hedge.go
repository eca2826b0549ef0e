package sizing

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
)

// HedgeEngine decides whether to open an offsetting position in the hedge
// instrument, and how large it should be
type HedgeEngine struct {
	symbol string
	logger zerolog.Logger
}

// NewHedgeEngine creates a hedge decision engine for the configured
// instrument
func NewHedgeEngine(cfg config.HedgeConfig) *HedgeEngine {
	return &HedgeEngine{
		symbol: cfg.Symbol,
		logger: config.NewLogger("hedge_engine"),
	}
}

// DecideHedge evaluates the hedging rules in strict order, first match wins:
//
//  1. score below 0.41: never hedge.
//  2. score at or above 0.48: always hedge.
//  3. score in [0.41, 0.48): hedge on MEDIUM risk with a deteriorating
//     trend, or HIGH risk with a deteriorating or unchanged trend. An
//     absent trend (empty string) satisfies neither branch.
//  4. EXTREME band fallback: hedge.
//  5. Otherwise: no hedge.
//
// When hedging is recommended the position value is the band's equity
// percentage of current equity at fixed leverage and hold period.
func (e *HedgeEngine) DecideHedge(score float64, band Band, trend risk.Trend, equity float64) HedgeDecision {
	decision := HedgeDecision{
		Leverage: hedgeLeverage,
		HoldDays: hedgeHoldDays,
		Symbol:   e.symbol,
	}

	switch {
	case score < hedgeMinThreshold:
		decision.Reason = fmt.Sprintf("risk score %.3f below %.2f threshold", score, hedgeMinThreshold)

	case score >= hedgeAutoThreshold:
		decision.Recommended = true
		decision.Reason = fmt.Sprintf("risk score %.3f at or above %.2f, automatic hedging", score, hedgeAutoThreshold)

	case score >= hedgeMinThreshold:
		switch {
		case band == BandMedium && trend == risk.TrendDeteriorating:
			decision.Recommended = true
			decision.Reason = "MEDIUM risk with deteriorating trend"
		case band == BandHigh && (trend == risk.TrendDeteriorating || trend == risk.TrendSame):
			decision.Recommended = true
			decision.Reason = "HIGH risk with deteriorating or unchanged trend"
		default:
			decision.Reason = fmt.Sprintf("risk score %.3f in trend-based range but trend conditions not met", score)
		}

	// Reachable only when the score comparisons all failed, e.g. NaN
	case band == BandExtreme:
		decision.Recommended = true
		decision.Reason = "EXTREME risk level, automatic hedging"

	default:
		decision.Reason = fmt.Sprintf("risk band %s does not meet hedging criteria", band)
	}

	if decision.Recommended {
		equityPct, ok := hedgeEquityPct[band]
		if !ok {
			equityPct = hedgeDefaultEquityPct
		}
		decision.EquityPct = equityPct
		decision.PositionValue = equityPct * equity
	}

	event := e.logger.Info()
	if !decision.Recommended {
		event = e.logger.Debug()
	}
	event.
		Bool("recommended", decision.Recommended).
		Str("reason", decision.Reason).
		Float64("score", score).
		Str("risk_band", string(band)).
		Str("trend", string(trend)).
		Float64("position_value", decision.PositionValue).
		Str("symbol", e.symbol).
		Msg("Hedge decision")

	return decision
}
