package sizing

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
)

// Sizer resolves position sizes from the risk band, trade side and trend
type Sizer struct {
	baseRiskPerTrade float64
	baseLeverage     float64
	logger           zerolog.Logger
}

// NewSizer creates a position sizer from the trading configuration
func NewSizer(cfg config.TradingConfig) *Sizer {
	return &Sizer{
		baseRiskPerTrade: cfg.BaseRiskPerTrade,
		baseLeverage:     cfg.BaseLeverage,
		logger:           config.NewLogger("position_sizer"),
	}
}

// SizePosition computes the position size for one trade candidate. The
// trend is optional; pass the empty string when no trend is available.
//
// Precedence: an improving trend at MEDIUM or HIGH risk uses the trend
// override; everything else uses the static table row for (band, side).
// The position value is the minimum of the equity-percentage value and the
// multiplier-adjusted base-risk value. A zero value means skip the trade.
func (s *Sizer) SizePosition(ticker string, band Band, side Side, equity float64, trend risk.Trend) Decision {
	rule, sizingType := s.resolveRule(band, side, trend)

	equityValue := rule.EquityPct * equity
	multiplierValue := s.baseRiskPerTrade * equity * rule.Multiplier
	positionValue := math.Min(equityValue, multiplierValue)

	leverage := rule.Leverage
	if leverage == 0 && positionValue > 0 {
		leverage = s.baseLeverage
	}

	decision := Decision{
		Ticker:        ticker,
		Side:          side,
		RiskBand:      band,
		SizingType:    sizingType,
		PositionValue: positionValue,
		EquityPct:     rule.EquityPct,
		Multiplier:    rule.Multiplier,
		Leverage:      leverage,
		HoldDays:      rule.HoldDays,
	}

	event := s.logger.Info()
	if decision.Skip() {
		event = s.logger.Warn()
	}
	event.
		Str("ticker", ticker).
		Str("side", string(side)).
		Str("risk_band", string(band)).
		Str("sizing_type", string(sizingType)).
		Float64("position_value", positionValue).
		Float64("equity_pct", rule.EquityPct).
		Float64("leverage", decision.Leverage).
		Int("hold_days", rule.HoldDays).
		Msg("Position sized")

	return decision
}

// resolveRule applies the override-then-table precedence
func (s *Sizer) resolveRule(band Band, side Side, trend risk.Trend) (Rule, SizingType) {
	if trend == risk.TrendImproving && (band == BandMedium || band == BandHigh) {
		return trendOverride[side], SizingTrendBased
	}

	rules, ok := sizingTable[band]
	if !ok {
		s.logger.Warn().Str("band", string(band)).
			Msg("Unknown risk band, substituting LOW")
		rules = sizingTable[BandLow]
	}
	return rules[side], SizingRiskBased
}
