package sizing

import (
	"github.com/rs/zerolog/log"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
)

// Side is the direction of a candidate trade
type Side string

// Trade sides. Index additions are traded long, removals short.
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Band is the risk classification used by the sizing and hedging tables.
// It mirrors the assessment levels except that the top band is named
// EXTREME rather than CRITICAL.
type Band string

// Sizing bands ordered from lowest to highest risk
const (
	BandMinimal Band = "MINIMAL"
	BandLow     Band = "LOW"
	BandMedium  Band = "MEDIUM"
	BandHigh    Band = "HIGH"
	BandExtreme Band = "EXTREME"
)

// BandFor maps an assessment level onto a sizing band. CRITICAL maps to
// EXTREME; the other levels map by name.
func BandFor(level risk.Level) Band {
	switch level {
	case risk.LevelMinimal:
		return BandMinimal
	case risk.LevelLow:
		return BandLow
	case risk.LevelMedium:
		return BandMedium
	case risk.LevelHigh:
		return BandHigh
	case risk.LevelCritical:
		return BandExtreme
	default:
		log.Warn().Str("level", string(level)).
			Msg("Unknown risk level, substituting LOW")
		return BandLow
	}
}

// ParseBand parses a band name, substituting LOW for unrecognized input
func ParseBand(s string) Band {
	switch Band(s) {
	case BandMinimal, BandLow, BandMedium, BandHigh, BandExtreme:
		return Band(s)
	default:
		log.Warn().Str("band", s).Msg("Unknown risk band, substituting LOW")
		return BandLow
	}
}

// SizingType records which rule family produced a decision
type SizingType string

// Sizing types
const (
	SizingRiskBased  SizingType = "RISK_BASED"
	SizingTrendBased SizingType = "TREND_BASED"
)

// Rule is one row of the sizing table for a single (band, side)
type Rule struct {
	EquityPct  float64
	Multiplier float64
	Leverage   float64
	HoldDays   int
}

// Decision is a fully resolved position size for one trade candidate.
// A zero PositionValue means the trade should be skipped.
type Decision struct {
	Ticker        string
	Side          Side
	RiskBand      Band
	SizingType    SizingType
	PositionValue float64
	EquityPct     float64
	Multiplier    float64
	Leverage      float64
	HoldDays      int
}

// Skip reports whether the decision rules out taking the position
func (d Decision) Skip() bool {
	return d.PositionValue <= 0
}

// HedgeDecision is the outcome of the hedging rules for one assessment
type HedgeDecision struct {
	Recommended   bool
	Reason        string
	PositionValue float64
	EquityPct     float64
	Leverage      float64
	HoldDays      int
	Symbol        string
}
