// Package backtest replays historical index membership changes through the
// risk and sizing pipeline against stored price data.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/risk"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

// ============================================================================
// DATA STRUCTURES
// ============================================================================

const bpsDenominator = 10000.0

// priceFetchBuffer pads the bar window past the hold period so the exit bar
// is always covered, weekends and holidays included
const priceFetchBuffer = 30

// Trade is one completed round trip in the replay
type Trade struct {
	Ticker      string            `json:"ticker"`
	Side        sizing.Side       `json:"side"`
	Band        sizing.Band       `json:"band"`
	SizingType  sizing.SizingType `json:"sizing_type"`
	Committed   float64           `json:"committed"` // capital at risk
	Leverage    float64           `json:"leverage"`
	EntryDate   time.Time         `json:"entry_date"`
	EntryPrice  float64           `json:"entry_price"`
	ExitDate    time.Time         `json:"exit_date"`
	ExitPrice   float64           `json:"exit_price"`
	PnL         float64           `json:"pnl"`
	ReturnPct   float64           `json:"return_pct"` // on committed capital
	Liquidated  bool              `json:"liquidated"`
	IsHedge     bool              `json:"is_hedge"`
	HoldingTime time.Duration     `json:"holding_time"`
}

// EquityPoint is portfolio equity after a trade settles
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Result bundles everything a replay produced
type Result struct {
	Trades      []*Trade       `json:"trades"`
	EquityCurve []EquityPoint  `json:"equity_curve"`
	Metrics     *Metrics       `json:"metrics"`
	Skipped     int            `json:"skipped"` // decisions that carried no size
}

// Assessor scores systemic risk for a historical date
type Assessor interface {
	Assess(ctx context.Context, date time.Time) (*risk.Assessment, error)
	CompareTrend(ctx context.Context, date time.Time) (*risk.TrendComparison, error)
}

// Config holds replay parameters
type Config struct {
	InitialCapital float64
	SlippageBps    int
	CommissionBps  int
}

// Engine replays index events in date order, entering at the next trading
// day's open and exiting after the hold period
type Engine struct {
	cfg      Config
	provider marketdata.Provider
	assessor Assessor
	sizer    *sizing.Sizer
	hedger   *sizing.HedgeEngine

	equity float64
	trades []*Trade
	curve  []EquityPoint
}

// NewEngine creates a replay engine
func NewEngine(cfg Config, provider marketdata.Provider, assessor Assessor, sizer *sizing.Sizer, hedger *sizing.HedgeEngine) *Engine {
	return &Engine{
		cfg:      cfg,
		provider: provider,
		assessor: assessor,
		sizer:    sizer,
		hedger:   hedger,
		equity:   cfg.InitialCapital,
	}
}

// ============================================================================
// REPLAY
// ============================================================================

// Run replays all events and computes performance metrics
func (e *Engine) Run(ctx context.Context, events []IndexEvent) (*Result, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to replay")
	}

	sorted := append([]IndexEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	result := &Result{}
	e.curve = append(e.curve, EquityPoint{Date: sorted[0].Date, Equity: e.equity})

	for _, event := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.replayEvent(ctx, event, result); err != nil {
			log.Warn().Err(err).
				Str("ticker", event.Ticker).
				Time("date", event.Date).
				Msg("Skipping unreplayable event")
		}
	}

	if len(e.trades) == 0 {
		return nil, fmt.Errorf("no trades could be simulated")
	}

	result.Trades = e.trades
	result.EquityCurve = e.curve
	result.Metrics = CalculateMetrics(e.cfg.InitialCapital, e.equity, e.trades, e.curve)
	return result, nil
}

func (e *Engine) replayEvent(ctx context.Context, event IndexEvent, result *Result) error {
	assessment, err := e.assessor.Assess(ctx, event.Date)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	band := sizing.BandFor(assessment.Level)
	trend := e.trendFor(ctx, event.Date, assessment.Level)

	side := sizing.SideLong
	if event.Action == ActionRemoved {
		side = sizing.SideShort
	}

	// Both decisions size off the equity as of the event date; the primary
	// trade settles days later and must not fund the hedge
	equityAtEvent := e.equity

	decision := e.sizer.SizePosition(event.Ticker, band, side, equityAtEvent, trend)
	if decision.Skip() {
		result.Skipped++
	} else if err := e.simulateTrade(ctx, event.Date, decision, false); err != nil {
		return err
	}

	hedge := e.hedger.DecideHedge(assessment.Score, band, trend, equityAtEvent)
	if hedge.Recommended {
		hedgeDecision := sizing.Decision{
			Ticker:        hedge.Symbol,
			Side:          sizing.SideLong,
			RiskBand:      band,
			SizingType:    sizing.SizingRiskBased,
			PositionValue: hedge.PositionValue,
			EquityPct:     hedge.EquityPct,
			Leverage:      hedge.Leverage,
			HoldDays:      hedge.HoldDays,
		}
		if err := e.simulateTrade(ctx, event.Date, hedgeDecision, true); err != nil {
			log.Warn().Err(err).Str("symbol", hedge.Symbol).Msg("Hedge could not be simulated")
		}
	}
	return nil
}

// trendFor computes the trend only for the elevated levels where sizing and
// hedging consult it
func (e *Engine) trendFor(ctx context.Context, date time.Time, level risk.Level) risk.Trend {
	if level != risk.LevelMedium && level != risk.LevelHigh {
		return ""
	}
	comparison, err := e.assessor.CompareTrend(ctx, date)
	if err != nil {
		if !errors.Is(err, risk.ErrTrendUnavailable) {
			log.Warn().Err(err).Time("date", date).Msg("Trend comparison failed")
		}
		return ""
	}
	return comparison.Trend
}

// simulateTrade enters at the next trading day's open and exits at the open
// after the hold period, checking for liquidation along the way
func (e *Engine) simulateTrade(ctx context.Context, eventDate time.Time, decision sizing.Decision, isHedge bool) error {
	end := eventDate.AddDate(0, 0, decision.HoldDays+priceFetchBuffer)
	bars, err := e.provider.PriceHistory(ctx, decision.Ticker, eventDate, end)
	if err != nil {
		return fmt.Errorf("no price data for %s: %w", decision.Ticker, err)
	}

	entryIdx := -1
	for i, bar := range bars {
		if bar.Date.After(eventDate) {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return fmt.Errorf("no trading day after %s for %s", eventDate.Format("2006-01-02"), decision.Ticker)
	}

	exitIdx := entryIdx + decision.HoldDays
	if exitIdx >= len(bars) {
		exitIdx = len(bars) - 1
	}
	if exitIdx <= entryIdx {
		return fmt.Errorf("not enough bars to exit %s", decision.Ticker)
	}

	slippage := float64(e.cfg.SlippageBps) / bpsDenominator
	commissionRate := float64(e.cfg.CommissionBps) / bpsDenominator

	entryPrice := fillPrice(bars[entryIdx].Open, decision.Side, slippage, true)
	committed := decision.PositionValue
	leverage := decision.Leverage
	if leverage <= 0 {
		leverage = 1.0
	}

	// Walk the hold period looking for a liquidating move. Exposure is
	// committed capital times leverage, so an adverse move of 1/leverage
	// wipes the committed capital.
	liquidationMove := 1.0 / leverage
	liquidated := false
	liqIdx := exitIdx
	for i := entryIdx; i <= exitIdx && !liquidated; i++ {
		var adverse float64
		if decision.Side == sizing.SideLong {
			adverse = (entryPrice - bars[i].Low) / entryPrice
		} else {
			adverse = (bars[i].High - entryPrice) / entryPrice
		}
		if adverse >= liquidationMove {
			liquidated = true
			liqIdx = i
		}
	}

	var exitPrice, pnl float64
	exitBar := bars[exitIdx]
	if liquidated {
		exitBar = bars[liqIdx]
		if decision.Side == sizing.SideLong {
			exitPrice = entryPrice * (1 - liquidationMove)
		} else {
			exitPrice = entryPrice * (1 + liquidationMove)
		}
		pnl = -committed
	} else {
		exitPrice = fillPrice(exitBar.Open, decision.Side, slippage, false)
		var priceReturn float64
		if decision.Side == sizing.SideLong {
			priceReturn = (exitPrice - entryPrice) / entryPrice
		} else {
			priceReturn = (entryPrice - exitPrice) / entryPrice
		}
		pnl = committed * leverage * priceReturn
	}
	pnl -= 2 * committed * commissionRate

	e.equity += pnl
	trade := &Trade{
		Ticker:      decision.Ticker,
		Side:        decision.Side,
		Band:        decision.RiskBand,
		SizingType:  decision.SizingType,
		Committed:   committed,
		Leverage:    leverage,
		EntryDate:   bars[entryIdx].Date,
		EntryPrice:  entryPrice,
		ExitDate:    exitBar.Date,
		ExitPrice:   exitPrice,
		PnL:         pnl,
		ReturnPct:   pnl / committed * 100.0,
		Liquidated:  liquidated,
		IsHedge:     isHedge,
		HoldingTime: exitBar.Date.Sub(bars[entryIdx].Date),
	}
	e.trades = append(e.trades, trade)
	e.curve = append(e.curve, EquityPoint{Date: trade.ExitDate, Equity: e.equity})

	log.Debug().
		Str("ticker", trade.Ticker).
		Str("side", string(trade.Side)).
		Float64("pnl", trade.PnL).
		Bool("liquidated", trade.Liquidated).
		Float64("equity", e.equity).
		Msg("Trade simulated")
	return nil
}

// fillPrice applies slippage against the trader on both legs
func fillPrice(price float64, side sizing.Side, slippage float64, entry bool) float64 {
	buying := (side == sizing.SideLong) == entry
	if buying {
		return price * (1 + slippage)
	}
	return price * (1 - slippage)
}
