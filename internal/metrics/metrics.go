package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels.
// These ensure metrics don't have unbounded label values which can cause memory issues.
const (
	// Market data provider error categories (bounded set)
	ProviderErrorTimeout     = "timeout"
	ProviderErrorRateLimit   = "rate_limit"
	ProviderErrorNetwork     = "network"
	ProviderErrorBreakerOpen = "breaker_open"
	ProviderErrorInvalidReq  = "invalid_request"
	ProviderErrorServerError = "server_error"
	ProviderErrorOther       = "other"
)

// NormalizeProviderError maps arbitrary provider errors to a bounded set
func NormalizeProviderError(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ProviderErrorTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "429"):
		return ProviderErrorRateLimit
	case strings.Contains(errStr, "circuit breaker"):
		return ProviderErrorBreakerOpen
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return ProviderErrorNetwork
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "invalid"):
		return ProviderErrorInvalidReq
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") || strings.Contains(errStr, "503"):
		return ProviderErrorServerError
	default:
		return ProviderErrorOther
	}
}

// Risk Assessment Metrics
var (
	// Composite systemic risk score (0.0 to 1.0)
	RiskScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spxbot_risk_score",
		Help: "Composite systemic risk score (0.0 to 1.0)",
	})

	// Individual factor scores
	FactorScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spxbot_factor_score",
		Help: "Individual risk factor score (0.0 to 1.0)",
	}, []string{"factor"})

	// Risk level as a one-hot gauge per level
	RiskLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spxbot_risk_level",
		Help: "Current risk level (1 for the active level, 0 for the rest)",
	}, []string{"level"})

	// Degraded assessments (factors missing)
	DegradedAssessments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spxbot_degraded_assessments_total",
		Help: "Assessments completed with every factor unavailable",
	})

	// Trend delta between current and historical composite score
	TrendDelta = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spxbot_trend_delta",
		Help: "Composite score delta versus the trend lookback window",
	})

	// Assessment latency
	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spxbot_assessment_duration_seconds",
		Help:    "Time to compute a full risk assessment",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

// Event and Decision Metrics
var (
	// Detected index-change events by source feed
	EventsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spxbot_events_detected_total",
		Help: "Index membership change events detected, by source feed",
	}, []string{"source"})

	// Sizing decisions by band, side and rule family
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spxbot_decisions_total",
		Help: "Position sizing decisions, by risk band, side and sizing type",
	}, []string{"band", "side", "sizing_type"})

	// Decisions that produced no position
	DecisionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spxbot_decisions_skipped_total",
		Help: "Sizing decisions that resulted in no position",
	})

	// Hedge recommendations
	HedgesRecommended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spxbot_hedges_recommended_total",
		Help: "Hedge recommendations issued",
	})
)

// Execution Metrics
var (
	// Open positions
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spxbot_open_positions",
		Help: "Number of currently open positions",
	})

	// Account equity
	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spxbot_equity",
		Help: "Current account equity in USD",
	})

	// Realized P&L of closed positions
	RealizedPnL = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spxbot_realized_pnl_total",
		Help: "Absolute realized P&L in USD, by outcome",
	}, []string{"outcome"}) // "win" or "loss"
)

// Infrastructure Metrics
var (
	// Market data provider errors by provider and category
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spxbot_provider_errors_total",
		Help: "Market data provider errors, by provider and error category",
	}, []string{"provider", "category"})

	// Correlation matrix cache hits and misses
	MatrixCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spxbot_matrix_cache_lookups_total",
		Help: "Correlation matrix cache lookups, by result",
	}, []string{"result"}) // "hit" or "miss"
)

// riskLevels covers every level the aggregator can emit
var riskLevels = []string{"MINIMAL", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

// SetRiskLevel records the active risk level as a one-hot gauge set
func SetRiskLevel(level string) {
	for _, l := range riskLevels {
		value := 0.0
		if l == level {
			value = 1.0
		}
		RiskLevel.WithLabelValues(l).Set(value)
	}
}

// RecordRealizedPnL splits realized P&L into win and loss counters
func RecordRealizedPnL(pnl float64) {
	if pnl >= 0 {
		RealizedPnL.WithLabelValues("win").Add(pnl)
	} else {
		RealizedPnL.WithLabelValues("loss").Add(-pnl)
	}
}
