// Performance metrics for event replays
package backtest

import (
	"fmt"
	"math"
	"time"
)

// ============================================================================
// PERFORMANCE METRICS
// ============================================================================

const (
	riskFreeRatePct     = 3.0
	tradingDaysPerYear  = 252.0
	annualizationFactor = 100.0
)

// Metrics holds the performance summary of a replay
type Metrics struct {
	// Returns
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGR           float64 `json:"cagr"`

	// Risk
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`

	// Trades
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	Liquidations  int     `json:"liquidations"`
	HedgeTrades   int     `json:"hedge_trades"`
	WinRate       float64 `json:"win_rate"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	Expectancy    float64 `json:"expectancy"`

	// Time
	AverageHoldingTime time.Duration `json:"average_holding_time"`
	StartDate          time.Time     `json:"start_date"`
	EndDate            time.Time     `json:"end_date"`

	// Portfolio
	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	PeakEquity     float64 `json:"peak_equity"`
	EquityLow      float64 `json:"equity_low"`
}

// CalculateMetrics computes the performance summary from completed trades
// and the settled equity curve
func CalculateMetrics(initialCapital, finalEquity float64, trades []*Trade, curve []EquityPoint) *Metrics {
	metrics := &Metrics{
		InitialCapital: initialCapital,
		FinalEquity:    finalEquity,
		TotalTrades:    len(trades),
	}

	metrics.TotalReturn = finalEquity - initialCapital
	if initialCapital > 0 {
		metrics.TotalReturnPct = metrics.TotalReturn / initialCapital * 100.0
	}

	if len(curve) > 0 {
		metrics.StartDate = curve[0].Date
		metrics.EndDate = curve[len(curve)-1].Date

		years := metrics.EndDate.Sub(metrics.StartDate).Hours() / 24.0 / 365.25
		if years > 0 && initialCapital > 0 && finalEquity > 0 {
			metrics.CAGR = (math.Pow(finalEquity/initialCapital, 1.0/years) - 1.0) * 100.0
		}
	}

	calculateTradeStatistics(metrics, trades)
	calculateEquityStatistics(metrics, curve)

	if metrics.Volatility > 0 {
		metrics.SharpeRatio = (metrics.CAGR - riskFreeRatePct) / metrics.Volatility
	}

	return metrics
}

func calculateTradeStatistics(metrics *Metrics, trades []*Trade) {
	var totalWin, totalLoss float64
	var totalHolding time.Duration

	for _, trade := range trades {
		totalHolding += trade.HoldingTime
		if trade.Liquidated {
			metrics.Liquidations++
		}
		if trade.IsHedge {
			metrics.HedgeTrades++
		}

		if trade.PnL > 0 {
			metrics.WinningTrades++
			totalWin += trade.PnL
			if trade.PnL > metrics.LargestWin {
				metrics.LargestWin = trade.PnL
			}
		} else {
			metrics.LosingTrades++
			totalLoss += trade.PnL
			if trade.PnL < metrics.LargestLoss {
				metrics.LargestLoss = trade.PnL
			}
		}
	}

	if metrics.TotalTrades > 0 {
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100.0
		metrics.AverageHoldingTime = totalHolding / time.Duration(metrics.TotalTrades)
	}
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = totalWin / float64(metrics.WinningTrades)
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = totalLoss / float64(metrics.LosingTrades)
	}
	if totalLoss != 0 {
		metrics.ProfitFactor = totalWin / math.Abs(totalLoss)
	}
	if metrics.TotalTrades > 0 {
		winProb := float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
		lossProb := float64(metrics.LosingTrades) / float64(metrics.TotalTrades)
		metrics.Expectancy = winProb*metrics.AverageWin + lossProb*metrics.AverageLoss
	}
}

func calculateEquityStatistics(metrics *Metrics, curve []EquityPoint) {
	if len(curve) == 0 {
		return
	}

	peak := curve[0].Equity
	low := curve[0].Equity
	var maxDrawdown, maxDrawdownPct float64

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if point.Equity < low {
			low = point.Equity
		}
		drawdown := peak - point.Equity
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
			if peak > 0 {
				maxDrawdownPct = drawdown / peak * 100.0
			}
		}
	}

	metrics.PeakEquity = peak
	metrics.EquityLow = low
	metrics.MaxDrawdown = maxDrawdown
	metrics.MaxDrawdownPct = maxDrawdownPct

	// Per-settlement returns, annualized on a trading day basis
	if len(curve) < 2 {
		return
	}
	var returns []float64
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity > 0 {
			returns = append(returns, (curve[i].Equity-curve[i-1].Equity)/curve[i-1].Equity)
		}
	}
	if len(returns) == 0 {
		return
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sumSquared float64
	for _, r := range returns {
		diff := r - mean
		sumSquared += diff * diff
	}
	metrics.Volatility = math.Sqrt(sumSquared/float64(len(returns))) * math.Sqrt(tradingDaysPerYear) * annualizationFactor

	var sumSquaredNeg float64
	negatives := 0
	for _, r := range returns {
		if r < 0 {
			sumSquaredNeg += r * r
			negatives++
		}
	}
	if negatives > 0 {
		downside := math.Sqrt(sumSquaredNeg/float64(negatives)) * math.Sqrt(tradingDaysPerYear) * annualizationFactor
		if downside > 0 {
			metrics.SortinoRatio = (metrics.CAGR - riskFreeRatePct) / downside
		}
	}
}

// ============================================================================
// REPORT GENERATION
// ============================================================================

// GenerateReport renders a human-readable performance report
func GenerateReport(metrics *Metrics) string {
	return fmt.Sprintf(`
================================================================================
INDEX EVENT REPLAY REPORT
================================================================================

OVERVIEW
--------
Period:           %s to %s
Initial Capital:  $%.2f
Final Equity:     $%.2f
Peak Equity:      $%.2f
Equity Low:       $%.2f

RETURNS
-------
Total Return:     $%.2f (%.2f%%)
CAGR:             %.2f%%

RISK METRICS
------------
Max Drawdown:     $%.2f (%.2f%%)
Volatility:       %.2f%%
Sharpe Ratio:     %.2f
Sortino Ratio:    %.2f

TRADE STATISTICS
----------------
Total Trades:     %d (%d hedges, %d liquidations)
Winning Trades:   %d
Losing Trades:    %d
Win Rate:         %.2f%%

Average Win:      $%.2f
Average Loss:     $%.2f
Largest Win:      $%.2f
Largest Loss:     $%.2f

Profit Factor:    %.2f
Expectancy:       $%.2f per trade
Average Hold:     %s

================================================================================
`,
		metrics.StartDate.Format("2006-01-02"),
		metrics.EndDate.Format("2006-01-02"),
		metrics.InitialCapital,
		metrics.FinalEquity,
		metrics.PeakEquity,
		metrics.EquityLow,
		metrics.TotalReturn,
		metrics.TotalReturnPct,
		metrics.CAGR,
		metrics.MaxDrawdown,
		metrics.MaxDrawdownPct,
		metrics.Volatility,
		metrics.SharpeRatio,
		metrics.SortinoRatio,
		metrics.TotalTrades,
		metrics.HedgeTrades,
		metrics.Liquidations,
		metrics.WinningTrades,
		metrics.LosingTrades,
		metrics.WinRate,
		metrics.AverageWin,
		metrics.AverageLoss,
		metrics.LargestWin,
		metrics.LargestLoss,
		metrics.ProfitFactor,
		metrics.Expectancy,
		formatDuration(metrics.AverageHoldingTime),
	)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}
