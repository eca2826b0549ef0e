package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		StartingCapital: 100000,
		SlippageBps:     5,
		CommissionBps:   1,
	}
}

func longDecision(value float64) sizing.Decision {
	return sizing.Decision{
		Ticker:        "TSLA",
		Side:          sizing.SideLong,
		RiskBand:      sizing.BandLow,
		SizingType:    sizing.SizingRiskBased,
		PositionValue: value,
		Leverage:      4.0,
		HoldDays:      10,
	}
}

func shortDecision(value float64) sizing.Decision {
	d := longDecision(value)
	d.Ticker = "DXC"
	d.Side = sizing.SideShort
	d.HoldDays = 3
	return d
}

func TestOpenPositionLongAppliesSlippage(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	ctx := context.Background()

	position, err := broker.OpenPosition(ctx, longDecision(44000), 200.0)
	require.NoError(t, err)

	// 5 bps slippage means a long pays 200 * 1.0005
	assert.InDelta(t, 200.10, position.EntryPrice, 1e-9)
	assert.InDelta(t, 44000/200.10, position.Shares, 1e-9)
	assert.InDelta(t, 44000*0.0001, position.Commission, 1e-9)
	assert.Equal(t, PositionStatusOpen, position.Status)

	equity, err := broker.Equity(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100000-4.40, equity, 1e-9, "entry commission comes out of equity")
}

func TestOpenPositionShortSellsBelowMid(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)

	position, err := broker.OpenPosition(context.Background(), shortDecision(20000), 100.0)
	require.NoError(t, err)
	assert.InDelta(t, 99.95, position.EntryPrice, 1e-9)
}

func TestClosePositionLongProfit(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	ctx := context.Background()

	position, err := broker.OpenPosition(ctx, longDecision(44000), 200.0)
	require.NoError(t, err)

	closed, err := broker.ClosePosition(ctx, position.ID, 220.0)
	require.NoError(t, err)

	// exit fill is 220 * 0.9995
	exitFill := 220 * 0.9995
	grossPnL := position.Shares * (exitFill - position.EntryPrice)
	exitCommission := position.Shares * exitFill * 0.0001

	assert.Equal(t, PositionStatusClosed, closed.Status)
	assert.InDelta(t, grossPnL-exitCommission, closed.PnL, 1e-6)
	require.NotNil(t, closed.ClosedAt)

	equity, err := broker.Equity(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 100000-4.40+closed.PnL, equity, 1e-6)
}

func TestClosePositionShortProfitsFromDecline(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	ctx := context.Background()

	position, err := broker.OpenPosition(ctx, shortDecision(20000), 100.0)
	require.NoError(t, err)

	closed, err := broker.ClosePosition(ctx, position.ID, 80.0)
	require.NoError(t, err)
	assert.Greater(t, closed.PnL, 0.0)

	// shorts buy back above mid
	assert.InDelta(t, 80*1.0005, closed.ExitPrice, 1e-9)
}

func TestClosePositionErrors(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	ctx := context.Background()

	_, err := broker.ClosePosition(ctx, "no-such-id", 100.0)
	assert.Error(t, err)

	position, err := broker.OpenPosition(ctx, longDecision(10000), 100.0)
	require.NoError(t, err)
	_, err = broker.ClosePosition(ctx, position.ID, 110.0)
	require.NoError(t, err)

	_, err = broker.ClosePosition(ctx, position.ID, 120.0)
	assert.Error(t, err, "double close should fail")
}

func TestOpenPositionRejectsZeroSize(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)

	decision := longDecision(0)
	_, err := broker.OpenPosition(context.Background(), decision, 100.0)
	assert.Error(t, err)
}

func TestOpenPositionRejectsBadPrice(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)

	_, err := broker.OpenPosition(context.Background(), longDecision(10000), 0)
	assert.Error(t, err)
}

func TestOpenPositionSizeLimits(t *testing.T) {
	cfg := testTradingConfig()
	cfg.MaxPositionSize = 30000
	cfg.MinPositionSize = 1000
	broker := NewPaperBroker(cfg, nil)
	ctx := context.Background()

	position, err := broker.OpenPosition(ctx, longDecision(44000), 200.0)
	require.NoError(t, err)
	assert.InDelta(t, 30000, position.Notional, 1e-9, "oversized notional is capped")

	_, err = broker.OpenPosition(ctx, longDecision(500), 200.0)
	assert.Error(t, err, "undersized notional is rejected")
}

func TestOpenPositionsListsOnlyOpen(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	ctx := context.Background()

	first, err := broker.OpenPosition(ctx, longDecision(10000), 100.0)
	require.NoError(t, err)
	_, err = broker.OpenPosition(ctx, shortDecision(5000), 50.0)
	require.NoError(t, err)

	_, err = broker.ClosePosition(ctx, first.ID, 105.0)
	require.NoError(t, err)

	open, err := broker.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "DXC", open[0].Ticker)
}

func TestPositionHoldWindow(t *testing.T) {
	broker := NewPaperBroker(testTradingConfig(), nil)
	opened := time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC)
	broker.now = func() time.Time { return opened }

	position, err := broker.OpenPosition(context.Background(), longDecision(10000), 100.0)
	require.NoError(t, err)

	assert.Equal(t, opened.AddDate(0, 0, 10), position.HoldUntil)
	assert.False(t, position.Expired(opened.AddDate(0, 0, 9)))
	assert.True(t, position.Expired(opened.AddDate(0, 0, 10)))
}
