package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
)

// Yahoo circuit breaker settings
const (
	yahooMinRequests     = 5                // Minimum requests before tripping
	yahooFailureRatio    = 0.6              // Failure ratio threshold (60%)
	yahooOpenTimeout     = 30 * time.Second // How long circuit stays open
	yahooHalfOpenMaxReqs = 3                // Max requests in half-open state
	yahooCountInterval   = 10 * time.Second // Window for counting failures
)

// YahooProvider fetches prices, index series and fundamentals from Yahoo
// Finance. Requests are rate limited and run through a circuit breaker so a
// Yahoo outage degrades factor scores instead of hammering the endpoint.
type YahooProvider struct {
	fundamentals *fundamentalsClient
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	timeout      time.Duration
	logger       zerolog.Logger
}

// NewYahooProvider creates a Yahoo Finance backed provider
func NewYahooProvider(cfg config.MarketDataConfig) *YahooProvider {
	logger := config.NewFeedLogger("yahoo")

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: yahooHalfOpenMaxReqs,
		Interval:    yahooCountInterval,
		Timeout:     yahooOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= yahooMinRequests && failureRatio >= yahooFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &YahooProvider{
		fundamentals: newFundamentalsClient(timeout),
		limiter:      rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker:      breaker,
		timeout:      timeout,
		logger:       logger,
	}
}

// PriceHistory returns daily bars for a ticker via the Yahoo chart API
func (p *YahooProvider) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	bars, err := p.fetchChart(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}
	return bars, nil
}

// IndexSeries returns daily closes for an index, yield or ETF symbol. The
// chart API serves these through the same endpoint as equities.
func (p *YahooProvider) IndexSeries(ctx context.Context, symbol string, start, end time.Time) ([]Point, error) {
	bars, err := p.fetchChart(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no series data for %s", symbol)
	}

	points := make([]Point, len(bars))
	for i, b := range bars {
		points[i] = Point{Date: b.Date, Value: b.Close}
	}
	return points, nil
}

// Fundamentals returns balance-sheet ratios from the quote summary endpoint
func (p *YahooProvider) Fundamentals(ctx context.Context, ticker string) (map[string]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fundamentals.Fetch(ctx, ticker)
	})
	if err != nil {
		return nil, fmt.Errorf("fundamentals fetch for %s: %w", ticker, err)
	}
	return result.(map[string]float64), nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		bars := make([]Bar, 0, 64)
		for iter.Next() {
			b := iter.Bar()
			open, _ := b.Open.Float64()
			high, _ := b.High.Float64()
			low, _ := b.Low.Float64()
			closePx, _ := b.AdjClose.Float64()
			bars = append(bars, Bar{
				Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
				Open:   open,
				High:   high,
				Low:    low,
				Close:  closePx,
				Volume: int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("chart fetch for %s: %w", symbol, err)
		}
		return bars, nil
	})
	if err != nil {
		return nil, err
	}

	bars := result.([]Bar)
	p.logger.Debug().
		Str("symbol", symbol).
		Time("start", start).
		Time("end", end).
		Int("bars", len(bars)).
		Msg("Chart data fetched")

	return bars, nil
}
