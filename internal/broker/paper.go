package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

const bpsDenominator = 10000.0

// PaperBroker simulates execution with configurable slippage and commission.
// Fills are immediate; equity tracks starting capital plus realized PnL.
type PaperBroker struct {
	mu        sync.RWMutex
	positions map[string]*Position
	equity    float64

	slippage   float64 // fraction, from bps config
	commission float64 // fraction, from bps config
	maxSize    float64
	minSize    float64

	store  *Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewPaperBroker builds a paper broker from trading config. The store is
// optional; without it positions live only in memory.
func NewPaperBroker(cfg config.TradingConfig, store *Store) *PaperBroker {
	logger := config.NewLogger("broker")
	logger.Info().
		Float64("starting_capital", cfg.StartingCapital).
		Int("slippage_bps", cfg.SlippageBps).
		Int("commission_bps", cfg.CommissionBps).
		Msg("Paper broker initialized")

	return &PaperBroker{
		positions:  make(map[string]*Position),
		equity:     cfg.StartingCapital,
		slippage:   float64(cfg.SlippageBps) / bpsDenominator,
		commission: float64(cfg.CommissionBps) / bpsDenominator,
		maxSize:    cfg.MaxPositionSize,
		minSize:    cfg.MinPositionSize,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// OpenPosition fills a sizing decision at the given market price
func (b *PaperBroker) OpenPosition(ctx context.Context, decision sizing.Decision, price float64) (*Position, error) {
	if decision.Skip() {
		return nil, fmt.Errorf("decision for %s has no size", decision.Ticker)
	}
	if price <= 0 {
		return nil, fmt.Errorf("invalid price %.4f for %s", price, decision.Ticker)
	}

	notional := decision.PositionValue
	if b.maxSize > 0 && notional > b.maxSize {
		notional = b.maxSize
	}
	if b.minSize > 0 && notional < b.minSize {
		return nil, fmt.Errorf("position value %.2f for %s below minimum %.2f",
			notional, decision.Ticker, b.minSize)
	}

	fillPrice := b.entryFill(decision.Side, price)
	shares := notional / fillPrice
	commission := notional * b.commission
	openedAt := b.now().UTC()

	position := &Position{
		ID:         uuid.NewString(),
		Ticker:     decision.Ticker,
		Side:       decision.Side,
		SizingType: decision.SizingType,
		Shares:     shares,
		EntryPrice: fillPrice,
		Notional:   notional,
		Leverage:   decision.Leverage,
		Commission: commission,
		Status:     PositionStatusOpen,
		OpenedAt:   openedAt,
		HoldUntil:  openedAt.AddDate(0, 0, decision.HoldDays),
	}

	b.mu.Lock()
	b.positions[position.ID] = position
	b.equity -= commission
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.SavePosition(ctx, position); err != nil {
			b.logger.Error().Err(err).
				Str("position_id", position.ID).
				Msg("Failed to persist position")
		}
	}

	b.logger.Info().
		Str("position_id", position.ID).
		Str("ticker", position.Ticker).
		Str("side", string(position.Side)).
		Float64("shares", shares).
		Float64("fill_price", fillPrice).
		Float64("notional", notional).
		Float64("leverage", position.Leverage).
		Time("hold_until", position.HoldUntil).
		Msg("Position opened")

	return position, nil
}

// ClosePosition exits an open position at the given market price
func (b *PaperBroker) ClosePosition(ctx context.Context, positionID string, price float64) (*Position, error) {
	if price <= 0 {
		return nil, fmt.Errorf("invalid price %.4f", price)
	}

	b.mu.Lock()
	position, exists := b.positions[positionID]
	if !exists {
		b.mu.Unlock()
		return nil, fmt.Errorf("position not found: %s", positionID)
	}
	if position.Status != PositionStatusOpen {
		b.mu.Unlock()
		return nil, fmt.Errorf("position %s already closed", positionID)
	}

	fillPrice := b.exitFill(position.Side, price)
	commission := position.Shares * fillPrice * b.commission

	var pnl float64
	if position.Side == sizing.SideLong {
		pnl = position.Shares * (fillPrice - position.EntryPrice)
	} else {
		pnl = position.Shares * (position.EntryPrice - fillPrice)
	}
	pnl -= commission

	closedAt := b.now().UTC()
	position.Status = PositionStatusClosed
	position.ClosedAt = &closedAt
	position.ExitPrice = fillPrice
	position.PnL = pnl
	position.Commission += commission
	b.equity += pnl
	equity := b.equity
	b.mu.Unlock()

	if b.store != nil {
		if err := b.store.ClosePosition(ctx, position); err != nil {
			b.logger.Error().Err(err).
				Str("position_id", positionID).
				Msg("Failed to persist position close")
		}
	}

	b.logger.Info().
		Str("position_id", positionID).
		Str("ticker", position.Ticker).
		Float64("exit_price", fillPrice).
		Float64("pnl", pnl).
		Float64("equity", equity).
		Msg("Position closed")

	return position, nil
}

// OpenPositions lists positions that have not been closed yet
func (b *PaperBroker) OpenPositions(ctx context.Context) ([]*Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var open []*Position
	for _, position := range b.positions {
		if position.Status == PositionStatusOpen {
			open = append(open, position)
		}
	}
	return open, nil
}

// OpenPositionCount reports how many positions are currently open
func (b *PaperBroker) OpenPositionCount(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, position := range b.positions {
		if position.Status == PositionStatusOpen {
			count++
		}
	}
	return count, nil
}

// Equity returns current account equity
func (b *PaperBroker) Equity(ctx context.Context) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.equity, nil
}

// entryFill applies slippage against the trader on entry. Longs buy above
// mid, shorts sell below mid.
func (b *PaperBroker) entryFill(side sizing.Side, price float64) float64 {
	if side == sizing.SideLong {
		return price * (1 + b.slippage)
	}
	return price * (1 - b.slippage)
}

// exitFill applies slippage against the trader on exit. Longs sell below
// mid, shorts buy back above mid.
func (b *PaperBroker) exitFill(side sizing.Side, price float64) float64 {
	if side == sizing.SideLong {
		return price * (1 - b.slippage)
	}
	return price * (1 + b.slippage)
}
