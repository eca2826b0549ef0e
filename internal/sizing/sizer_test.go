package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
)

func testSizer() *Sizer {
	return NewSizer(config.TradingConfig{
		BaseRiskPerTrade: 0.40,
		BaseLeverage:     4.0,
	})
}

// TestSizePositionTable walks the full static table at $100k equity and
// verifies the min(equity-pct, multiplier-adjusted) rule per (band, side)
func TestSizePositionTable(t *testing.T) {
	const equity = 100000.0

	tests := []struct {
		band      Band
		side      Side
		wantValue float64
		wantLev   float64
		wantDays  int
	}{
		// Long: equity-pct value vs 0.40 x equity x multiplier
		{BandMinimal, SideLong, 54000, 4.0, 10}, // min(54000, 54000)
		{BandLow, SideLong, 44000, 4.0, 10},     // min(44000, 44000)
		{BandMedium, SideLong, 14000, 2.5, 6},   // min(14000, 14000)
		{BandHigh, SideLong, 8000, 1.5, 4},      // min(8000, 8000)
		{BandExtreme, SideLong, 0, 0.0, 0},

		{BandMinimal, SideShort, 10000, 4.0, 3}, // min(10000, 10000)
		{BandLow, SideShort, 20000, 4.0, 3},
		{BandMedium, SideShort, 46000, 4.0, 5},
		{BandHigh, SideShort, 50000, 4.0, 6},
		{BandExtreme, SideShort, 50000, 4.0, 6},
	}

	s := testSizer()
	for _, tt := range tests {
		t.Run(string(tt.band)+"_"+string(tt.side), func(t *testing.T) {
			d := s.SizePosition("AAPL", tt.band, tt.side, equity, "")

			assert.Equal(t, SizingRiskBased, d.SizingType)
			assert.InDelta(t, tt.wantValue, d.PositionValue, 1e-9)
			assert.Equal(t, tt.wantLev, d.Leverage)
			assert.Equal(t, tt.wantDays, d.HoldDays)
			assert.Equal(t, tt.band, d.RiskBand)
			assert.Equal(t, tt.side, d.Side)
		})
	}
}

// TestSizePositionHighLong verifies the documented HIGH/LONG example at
// $100k: both sizing paths give $8,000 and leverage is 1.5x
func TestSizePositionHighLong(t *testing.T) {
	d := testSizer().SizePosition("AAPL", BandHigh, SideLong, 100000, risk.TrendSame)

	assert.InDelta(t, 8000, d.PositionValue, 1e-9)
	assert.Equal(t, 1.5, d.Leverage)
	assert.Equal(t, SizingRiskBased, d.SizingType, "SAME trend must not trigger the override")
	assert.False(t, d.Skip())
	t.Logf("HIGH/LONG at $100k: value=%.2f leverage=%.1f hold=%d", d.PositionValue, d.Leverage, d.HoldDays)
}

// TestSizePositionExtremeLongSkips verifies EXTREME rules out long trades
func TestSizePositionExtremeLongSkips(t *testing.T) {
	d := testSizer().SizePosition("AAPL", BandExtreme, SideLong, 100000, "")

	assert.Equal(t, 0.0, d.PositionValue)
	assert.Equal(t, 0.0, d.Leverage)
	assert.True(t, d.Skip())
}

// TestSizePositionTrendOverride verifies the improving-trend override for
// MEDIUM and HIGH bands, with leverage falling back to the base leverage
func TestSizePositionTrendOverride(t *testing.T) {
	const equity = 100000.0
	s := testSizer()

	for _, band := range []Band{BandMedium, BandHigh} {
		t.Run(string(band)+"_long", func(t *testing.T) {
			d := s.SizePosition("AAPL", band, SideLong, equity, risk.TrendImproving)

			assert.Equal(t, SizingTrendBased, d.SizingType)
			// min(0.50 x 100000, 0.40 x 100000 x 1.25) = min(50000, 50000)
			assert.InDelta(t, 50000, d.PositionValue, 1e-9)
			assert.Equal(t, 4.0, d.Leverage)
			assert.Equal(t, 10, d.HoldDays)
		})
		t.Run(string(band)+"_short", func(t *testing.T) {
			d := s.SizePosition("AAPL", band, SideShort, equity, risk.TrendImproving)

			assert.Equal(t, SizingTrendBased, d.SizingType)
			// min(0.20 x 100000, 0.40 x 100000 x 0.50) = min(20000, 20000)
			assert.InDelta(t, 20000, d.PositionValue, 1e-9)
			assert.Equal(t, 3, d.HoldDays)
		})
	}
}

// TestSizePositionOverrideScope verifies the override never applies outside
// MEDIUM/HIGH or without an improving trend
func TestSizePositionOverrideScope(t *testing.T) {
	s := testSizer()

	tests := []struct {
		name  string
		band  Band
		trend risk.Trend
	}{
		{"minimal improving", BandMinimal, risk.TrendImproving},
		{"low improving", BandLow, risk.TrendImproving},
		{"extreme improving", BandExtreme, risk.TrendImproving},
		{"medium deteriorating", BandMedium, risk.TrendDeteriorating},
		{"high same", BandHigh, risk.TrendSame},
		{"medium no trend", BandMedium, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.SizePosition("AAPL", tt.band, SideLong, 100000, tt.trend)
			assert.Equal(t, SizingRiskBased, d.SizingType)
		})
	}
}

// TestSizePositionIdempotent verifies identical inputs give identical
// decisions
func TestSizePositionIdempotent(t *testing.T) {
	s := testSizer()
	first := s.SizePosition("MSFT", BandMedium, SideShort, 87500, risk.TrendDeteriorating)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.SizePosition("MSFT", BandMedium, SideShort, 87500, risk.TrendDeteriorating))
	}
}

// TestSizePositionMinimumRule verifies the two sizing paths diverge under a
// different base risk and the smaller one wins
func TestSizePositionMinimumRule(t *testing.T) {
	s := NewSizer(config.TradingConfig{BaseRiskPerTrade: 0.10, BaseLeverage: 4.0})

	// LOW/LONG: equity path 0.44 x 100000 = 44000;
	// multiplier path 0.10 x 100000 x 1.10 = 11000
	d := s.SizePosition("AAPL", BandLow, SideLong, 100000, "")
	assert.InDelta(t, 11000, d.PositionValue, 1e-9)
}

// TestSizePositionUnknownBand verifies the LOW fallback for an
// unrecognized band
func TestSizePositionUnknownBand(t *testing.T) {
	d := testSizer().SizePosition("AAPL", Band("SEVERE"), SideLong, 100000, "")

	assert.InDelta(t, 44000, d.PositionValue, 1e-9, "should size as LOW")
	assert.Equal(t, 4.0, d.Leverage)
}

// TestBandFor verifies the assessment-level to sizing-band mapping,
// including CRITICAL onto EXTREME
func TestBandFor(t *testing.T) {
	tests := []struct {
		level risk.Level
		want  Band
	}{
		{risk.LevelMinimal, BandMinimal},
		{risk.LevelLow, BandLow},
		{risk.LevelMedium, BandMedium},
		{risk.LevelHigh, BandHigh},
		{risk.LevelCritical, BandExtreme},
		{risk.Level("BOGUS"), BandLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.level), "level %s", tt.level)
	}
}

// TestParseBand verifies band parsing with the LOW fallback
func TestParseBand(t *testing.T) {
	assert.Equal(t, BandExtreme, ParseBand("EXTREME"))
	assert.Equal(t, BandMinimal, ParseBand("MINIMAL"))
	assert.Equal(t, BandLow, ParseBand("severe"))
	assert.Equal(t, BandLow, ParseBand(""))
}
