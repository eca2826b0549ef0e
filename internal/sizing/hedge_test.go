package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
)

func testHedgeEngine() *HedgeEngine {
	return NewHedgeEngine(config.HedgeConfig{Symbol: "GC=F"})
}

// TestDecideHedgeBranches exercises the ordered decision rules
func TestDecideHedgeBranches(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		band  Band
		trend risk.Trend
		want  bool
	}{
		{"low score never hedges", 0.30, BandLow, risk.TrendDeteriorating, false},
		{"just below min threshold", 0.4099, BandMedium, risk.TrendDeteriorating, false},
		{"auto threshold fires", 0.48, BandHigh, risk.TrendImproving, true},
		{"above auto threshold", 0.62, BandExtreme, "", true},
		{"medium deteriorating in range", 0.44, BandMedium, risk.TrendDeteriorating, true},
		{"medium same in range", 0.44, BandMedium, risk.TrendSame, false},
		{"medium improving in range", 0.44, BandMedium, risk.TrendImproving, false},
		{"high deteriorating in range", 0.45, BandHigh, risk.TrendDeteriorating, true},
		{"high same in range", 0.45, BandHigh, risk.TrendSame, true},
		{"high improving in range", 0.45, BandHigh, risk.TrendImproving, false},
		{"absent trend satisfies nothing", 0.45, BandHigh, "", false},
		{"low band in range", 0.44, BandLow, risk.TrendDeteriorating, false},
	}

	e := testHedgeEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.DecideHedge(tt.score, tt.band, tt.trend, 100000)
			assert.Equal(t, tt.want, d.Recommended, "reason: %s", d.Reason)
		})
	}
}

// TestDecideHedgeBoundaries verifies the exact threshold semantics: 0.41
// falls through to the trend-based range; 0.48 fires automatic hedging
func TestDecideHedgeBoundaries(t *testing.T) {
	e := testHedgeEngine()

	// Exactly 0.41 is not below the minimum, so trend rules apply
	atMin := e.DecideHedge(0.41, BandMedium, risk.TrendDeteriorating, 100000)
	assert.True(t, atMin.Recommended)

	atMinNoTrend := e.DecideHedge(0.41, BandMedium, "", 100000)
	assert.False(t, atMinNoTrend.Recommended)
	assert.Contains(t, atMinNoTrend.Reason, "trend conditions not met")

	// Exactly 0.48 hedges regardless of trend
	atAuto := e.DecideHedge(0.48, BandLow, "", 100000)
	assert.True(t, atAuto.Recommended)
	assert.Contains(t, atAuto.Reason, "automatic")
}

// TestDecideHedgeHighSameScenario verifies the documented scenario: score
// 0.465, HIGH band, SAME trend at $100k hedges $42,000 of gold
func TestDecideHedgeHighSameScenario(t *testing.T) {
	d := testHedgeEngine().DecideHedge(0.465, BandHigh, risk.TrendSame, 100000)

	assert.True(t, d.Recommended)
	assert.Equal(t, 0.42, d.EquityPct)
	assert.InDelta(t, 42000, d.PositionValue, 1e-9)
	assert.Equal(t, 3.2, d.Leverage)
	assert.Equal(t, 20, d.HoldDays)
	assert.Equal(t, "GC=F", d.Symbol)
	t.Logf("hedge: %.2f of equity -> $%.2f %s", d.EquityPct, d.PositionValue, d.Symbol)
}

// TestDecideHedgeEquityPercentages verifies the per-band allocation with
// the 40% default
func TestDecideHedgeEquityPercentages(t *testing.T) {
	e := testHedgeEngine()

	tests := []struct {
		band    Band
		wantPct float64
	}{
		{BandExtreme, 0.50},
		{BandHigh, 0.42},
		{BandMedium, 0.40},
		{BandLow, 0.40},
		{BandMinimal, 0.40},
	}

	for _, tt := range tests {
		// Score above the auto threshold so every band hedges
		d := e.DecideHedge(0.55, tt.band, "", 200000)
		assert.Equal(t, tt.wantPct, d.EquityPct, "band %s", tt.band)
		assert.InDelta(t, tt.wantPct*200000, d.PositionValue, 1e-9)
	}
}

// TestDecideHedgeNotRecommendedHasNoSize verifies a declined hedge carries
// no position value
func TestDecideHedgeNotRecommendedHasNoSize(t *testing.T) {
	d := testHedgeEngine().DecideHedge(0.30, BandLow, "", 100000)

	assert.False(t, d.Recommended)
	assert.Equal(t, 0.0, d.PositionValue)
	assert.Equal(t, 0.0, d.EquityPct)
	assert.NotEmpty(t, d.Reason)
}

// TestDecideHedgeExtremeFallback verifies the EXTREME fallback when the
// score comparisons cannot classify, e.g. NaN from a degraded upstream
func TestDecideHedgeExtremeFallback(t *testing.T) {
	e := testHedgeEngine()

	d := e.DecideHedge(math.NaN(), BandExtreme, "", 100000)
	assert.True(t, d.Recommended)
	assert.Equal(t, 0.50, d.EquityPct)

	other := e.DecideHedge(math.NaN(), BandHigh, risk.TrendSame, 100000)
	assert.False(t, other.Recommended)
}
