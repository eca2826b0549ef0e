package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

// stubAssessor returns a fixed score regardless of date
type stubAssessor struct {
	score    float64
	trend    risk.Trend
	trendErr error
}

func (s *stubAssessor) Assess(ctx context.Context, date time.Time) (*risk.Assessment, error) {
	return &risk.Assessment{
		Score:        s.score,
		Level:        risk.LevelForScore(s.score),
		AnalysisDate: date,
	}, nil
}

func (s *stubAssessor) CompareTrend(ctx context.Context, date time.Time) (*risk.TrendComparison, error) {
	if s.trendErr != nil {
		return nil, s.trendErr
	}
	return &risk.TrendComparison{Trend: s.trend}, nil
}

// fakeProvider serves the same bar series for every ticker
type fakeProvider struct {
	bars map[string][]marketdata.Bar
	err  error
}

func (f *fakeProvider) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]marketdata.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[ticker]
	if !ok {
		return nil, errors.New("no data for " + ticker)
	}
	return bars, nil
}

func (f *fakeProvider) Fundamentals(ctx context.Context, ticker string) (map[string]float64, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) IndexSeries(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.Point, error) {
	return nil, errors.New("not implemented")
}

var replayStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// trendingBars generates daily bars whose open walks from base by step
func trendingBars(start time.Time, n int, base, step float64) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	for i := range bars {
		open := base + float64(i)*step
		bars[i] = marketdata.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   open + 1,
			Low:    open - 1,
			Close:  open,
			Volume: 1_000_000,
		}
	}
	return bars
}

func testReplayEngine(assessor Assessor, provider marketdata.Provider) *Engine {
	tradingCfg := config.TradingConfig{
		StartingCapital:  100000,
		BaseRiskPerTrade: 0.40,
		BaseLeverage:     4.0,
	}
	return NewEngine(
		Config{InitialCapital: 100000},
		provider,
		assessor,
		sizing.NewSizer(tradingCfg),
		sizing.NewHedgeEngine(config.HedgeConfig{Symbol: "GC=F"}),
	)
}

func TestRunLongAdditionRally(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"TSLA": trendingBars(replayStart, 40, 100, 1),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.25}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, sizing.SideLong, trade.Side)
	assert.Equal(t, sizing.BandLow, trade.Band)

	// LOW long commits 0.44 of equity at 4x. Entry is the next day's
	// open (101), exit the open 10 trading days later (111).
	assert.InDelta(t, 44000, trade.Committed, 1e-9)
	assert.InDelta(t, 101, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 111, trade.ExitPrice, 1e-9)

	expectedPnL := 44000 * 4.0 * (111.0 - 101.0) / 101.0
	assert.InDelta(t, expectedPnL, trade.PnL, 1e-6)
	assert.False(t, trade.Liquidated)
	assert.InDelta(t, 100000+expectedPnL, result.Metrics.FinalEquity, 1e-6)
	assert.Equal(t, 1, result.Metrics.WinningTrades)
}

func TestRunShortRemovalProfit(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"DXC": trendingBars(replayStart, 40, 100, -0.5),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.25}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "DXC", Action: ActionRemoved},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.Equal(t, sizing.SideShort, trade.Side)
	assert.Greater(t, trade.PnL, 0.0, "short profits from the decline")
	// LOW short holds for 3 trading days
	assert.Equal(t, 3*24*time.Hour, trade.HoldingTime)
}

func TestRunLiquidation(t *testing.T) {
	bars := trendingBars(replayStart, 40, 100, 1)
	// Crash two days after entry: a 30% intraday drop breaches the 25%
	// liquidation move at 4x leverage
	bars[3].Low = bars[1].Open * 0.69
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{"TSLA": bars}}
	engine := testReplayEngine(&stubAssessor{score: 0.25}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.True(t, trade.Liquidated)
	assert.InDelta(t, -44000, trade.PnL, 1e-9, "liquidation wipes the committed capital")
	assert.Equal(t, bars[3].Date, trade.ExitDate)
	assert.Equal(t, 1, result.Metrics.Liquidations)
	assert.InDelta(t, 56000, result.Metrics.FinalEquity, 1e-9)
}

func TestRunHighRiskAddsHedge(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"TSLA": trendingBars(replayStart, 40, 100, 1),
		"GC=F": trendingBars(replayStart, 40, 2000, 2),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.46, trend: risk.TrendSame}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	var hedge *Trade
	for _, trade := range result.Trades {
		if trade.IsHedge {
			hedge = trade
		}
	}
	require.NotNil(t, hedge, "HIGH risk with flat trend hedges into gold")
	assert.Equal(t, "GC=F", hedge.Ticker)
	assert.InDelta(t, 42000, hedge.Committed, 1e-9)
	assert.InDelta(t, 3.2, hedge.Leverage, 1e-9)
	assert.Equal(t, 1, result.Metrics.HedgeTrades)
}

func TestRunCriticalSkipsLongButHedges(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"GC=F": trendingBars(replayStart, 40, 2000, 2),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.8}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped, "EXTREME band produces no long position")
	require.Len(t, result.Trades, 1)
	assert.True(t, result.Trades[0].IsHedge)
	assert.InDelta(t, 50000, result.Trades[0].Committed, 1e-9)
}

func TestRunCompoundsEquityAcrossEvents(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"AAA": trendingBars(replayStart, 40, 100, 1),
		"BBB": trendingBars(replayStart.AddDate(0, 0, 60), 40, 100, 1),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.25}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart.AddDate(0, 0, 60), Ticker: "BBB", Action: ActionAdded},
		{Date: replayStart, Ticker: "AAA", Action: ActionAdded},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, "AAA", result.Trades[0].Ticker, "events replay in date order")
	assert.Greater(t, result.Trades[1].Committed, result.Trades[0].Committed,
		"second position sizes off the grown equity")
}

func TestRunSkipsEventsWithoutData(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"TSLA": trendingBars(replayStart, 40, 100, 1),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.25}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
		{Date: replayStart, Ticker: "NODATA", Action: ActionAdded},
	})
	require.NoError(t, err)
	assert.Len(t, result.Trades, 1)
}

func TestRunNoEvents(t *testing.T) {
	engine := testReplayEngine(&stubAssessor{score: 0.25}, &fakeProvider{})
	_, err := engine.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunTrendUnavailableFallsBackToRiskSizing(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]marketdata.Bar{
		"TSLA": trendingBars(replayStart, 40, 100, 1),
	}}
	engine := testReplayEngine(&stubAssessor{score: 0.40, trendErr: risk.ErrTrendUnavailable}, provider)

	result, err := engine.Run(context.Background(), []IndexEvent{
		{Date: replayStart, Ticker: "TSLA", Action: ActionAdded},
	})
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, sizing.SizingRiskBased, result.Trades[0].SizingType)
	assert.Equal(t, sizing.BandMedium, result.Trades[0].Band)
}
