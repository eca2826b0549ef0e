package marketdata

import (
	"context"
	"time"
)

// Bar is a single daily OHLCV observation
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Point is a single (date, value) observation from an index or yield series
type Point struct {
	Date  time.Time
	Value float64
}

// Fundamental metric keys returned by Fundamentals
const (
	MetricDebtToEquity     = "debt_to_equity"
	MetricDebtToAssets     = "debt_to_assets"
	MetricInterestCoverage = "interest_coverage"
	MetricCurrentRatio     = "current_ratio"
)

// Provider supplies historical market and fundamental data.
// Implementations must honour the context deadline and return an error on
// fetch failure; callers decide whether a failure is fatal.
type Provider interface {
	// PriceHistory returns daily bars for a ticker, ordered by date ascending.
	PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)

	// Fundamentals returns the latest balance-sheet ratios for a ticker,
	// keyed by the Metric* constants. Missing ratios are omitted from the map.
	Fundamentals(ctx context.Context, ticker string) (map[string]float64, error)

	// IndexSeries returns daily values for an index, yield or ETF symbol,
	// ordered by date ascending.
	IndexSeries(ctx context.Context, symbol string, start, end time.Time) ([]Point, error)
}

// DailyReturns converts an ordered close series into simple daily returns
func DailyReturns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			returns = append(returns, (bars[i].Close-bars[i-1].Close)/bars[i-1].Close)
		}
	}
	return returns
}

// PointValues extracts the value column from a series
func PointValues(points []Point) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}
