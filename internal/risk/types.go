package risk

import "time"

// Level is a discrete systemic risk classification
type Level string

// Risk levels ordered from lowest to highest
const (
	LevelMinimal  Level = "MINIMAL"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Classification thresholds, evaluated high to low. The bands partition
// [0, inf) without gaps or overlaps.
const (
	thresholdCritical = 0.50
	thresholdHigh     = 0.42
	thresholdMedium   = 0.37
	thresholdLow      = 0.20
)

// LevelForScore classifies a composite score into a risk level
func LevelForScore(score float64) Level {
	switch {
	case score > thresholdCritical:
		return LevelCritical
	case score > thresholdHigh:
		return LevelHigh
	case score > thresholdMedium:
		return LevelMedium
	case score > thresholdLow:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// Factor names used as component keys in assessments
const (
	FactorCorrelation = "correlation_network"
	FactorLeverage    = "leverage"
	FactorLiquidity   = "liquidity"
	FactorRegulatory  = "regulatory"
)

// Factor weights. They sum to 1.0; absent factors contribute zero and the
// remaining weights are not renormalized, so incomplete data biases the
// composite toward lower risk.
var factorWeights = map[string]float64{
	FactorCorrelation: 0.30,
	FactorLeverage:    0.25,
	FactorLiquidity:   0.25,
	FactorRegulatory:  0.20,
}

// FactorReading is one computed factor score with its raw inputs
type FactorReading struct {
	Factor  string
	Score   float64 // normalized to [0, 1]
	Metrics map[string]float64
}

// FactorResult is the outcome of a single factor computation. Reading is nil
// when the factor could not be computed; Reason says why.
type FactorResult struct {
	Factor  string
	Reading *FactorReading
	Reason  string
}

// Present reports whether the factor was computed
func (r FactorResult) Present() bool {
	return r.Reading != nil
}

// Assessment is an immutable point-in-time systemic risk assessment
type Assessment struct {
	Score        float64
	Level        Level
	Components   map[string]float64 // factor name -> normalized score, present factors only
	AnalysisDate time.Time
	Degraded     bool     // true when no factor could be computed
	Missing      []string // factors excluded from the composite
}

// Trend classifies the direction of risk over the trend lookback window
type Trend string

// Trend values
const (
	TrendImproving     Trend = "IMPROVING"
	TrendDeteriorating Trend = "DETERIORATING"
	TrendSame          Trend = "SAME"
)

// trendEpsilon is the dead band below which a score delta counts as SAME
const trendEpsilon = 0.05

// TrendComparison compares a current assessment against one taken
// trend_lookback_days earlier
type TrendComparison struct {
	Current    *Assessment
	Historical *Assessment
	Delta      float64 // current score minus historical score
	Trend      Trend
}

// classifyTrend maps a score delta to a trend. Lower scores mean lower risk,
// so a negative delta is an improvement.
func classifyTrend(delta float64) Trend {
	if delta < trendEpsilon && delta > -trendEpsilon {
		return TrendSame
	}
	if delta < 0 {
		return TrendImproving
	}
	return TrendDeteriorating
}
