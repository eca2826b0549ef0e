package risk

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/marketdata"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/metrics"
)

const (
	// minValidTickers is the smallest basket for which a correlation network
	// is meaningful
	minValidTickers = 5

	// minObservations is the minimum return observations per ticker to be
	// included in the correlation matrix
	minObservations = 50

	// fetchConcurrency bounds parallel provider requests per factor
	fetchConcurrency = 8

	// tradingDaysPerYear is used to annualize daily volatility
	tradingDaysPerYear = 252
)

// defaultRegulatoryProxies are coarse [0, 1] indicators averaged into the
// regulatory factor: capital adequacy, political risk, and regulatory-change
// risk. Static placeholders until a real regulatory data source is wired in;
// replaceable via SetRegulatoryProxies.
var defaultRegulatoryProxies = map[string]float64{
	"capital_adequacy_risk": 0.3,
	"political_risk":        0.4,
	"regulatory_changes":    0.2,
}

// Scorer computes the four normalized factor scores from provider data
type Scorer struct {
	provider marketdata.Provider
	cfg      config.RiskConfig
	matrices *matrixCache
	proxies  map[string]float64
	logger   zerolog.Logger
}

// NewScorer creates a factor scorer backed by a market data provider
func NewScorer(provider marketdata.Provider, cfg config.RiskConfig) *Scorer {
	return &Scorer{
		provider: provider,
		cfg:      cfg,
		matrices: newMatrixCache(cfg.MatrixCacheSize),
		proxies:  defaultRegulatoryProxies,
		logger:   config.NewLogger("risk_scorer"),
	}
}

// SetRegulatoryProxies replaces the static regulatory indicators. Values must
// be in [0, 1].
func (s *Scorer) SetRegulatoryProxies(proxies map[string]float64) {
	s.proxies = proxies
}

// missing builds a FactorResult for an unavailable factor
func missing(factor, reason string) FactorResult {
	return FactorResult{Factor: factor, Reason: reason}
}

// present builds a FactorResult for a computed factor
func present(factor string, score float64, metrics map[string]float64) FactorResult {
	return FactorResult{
		Factor:  factor,
		Reading: &FactorReading{Factor: factor, Score: score, Metrics: metrics},
	}
}

// ============================================================================
// CORRELATION / NETWORK FACTOR
// ============================================================================

// ScoreCorrelation computes the correlation-network factor: pairwise return
// correlations across the financial basket, thresholded into an adjacency
// graph whose density and centralization measure systemic interconnectedness
func (s *Scorer) ScoreCorrelation(ctx context.Context, date time.Time) FactorResult {
	matrix := s.matrices.Get(date)
	if matrix == nil {
		metrics.MatrixCacheLookups.WithLabelValues("miss").Inc()
		var err error
		matrix, err = s.buildMatrix(ctx, date)
		if err != nil {
			s.logger.Warn().Err(err).Time("analysis_date", date).
				Msg("Correlation matrix unavailable")
			return missing(FactorCorrelation, err.Error())
		}
		s.matrices.Put(date, matrix)
	} else {
		metrics.MatrixCacheLookups.WithLabelValues("hit").Inc()
	}

	stats := matrix.Stats()

	score := 0.0
	switch {
	case stats.AvgCorrelation > 0.8:
		score += 0.4
	case stats.AvgCorrelation > 0.6:
		score += 0.3
	case stats.AvgCorrelation > 0.4:
		score += 0.2
	}
	switch {
	case stats.Density > 0.7:
		score += 0.3
	case stats.Density > 0.5:
		score += 0.2
	}
	switch {
	case stats.Centralization > 0.8:
		score += 0.3
	case stats.Centralization > 0.6:
		score += 0.2
	}
	score = math.Min(score, 1.0)

	s.logger.Debug().
		Time("analysis_date", date).
		Int("basket_size", len(matrix.Tickers)).
		Float64("avg_correlation", stats.AvgCorrelation).
		Float64("density", stats.Density).
		Float64("centralization", stats.Centralization).
		Float64("score", score).
		Msg("Correlation network factor computed")

	return present(FactorCorrelation, score, map[string]float64{
		"avg_correlation": stats.AvgCorrelation,
		"density":         stats.Density,
		"avg_clustering":  stats.AvgClustering,
		"centralization":  stats.Centralization,
		"basket_size":     float64(len(matrix.Tickers)),
	})
}

// buildMatrix fetches return histories for the basket and computes the
// pairwise correlation matrix over tickers with enough observations
func (s *Scorer) buildMatrix(ctx context.Context, date time.Time) (*CorrelationMatrix, error) {
	// Calendar window sized so the lookback in trading days fits inside it
	start := date.AddDate(0, 0, -(s.cfg.CorrelationLookback*3/2 + 7))

	var mu sync.Mutex
	returns := make(map[string][]float64, len(s.cfg.Basket))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, ticker := range s.cfg.Basket {
		g.Go(func() error {
			bars, err := s.provider.PriceHistory(gctx, ticker, start, date)
			if err != nil {
				// Individual ticker failures shrink the basket, they do
				// not fail the factor
				s.logger.Debug().Err(err).Str("ticker", ticker).
					Msg("Price history unavailable, excluding from basket")
				return nil
			}
			rets := marketdata.DailyReturns(bars)
			if len(rets) < minObservations {
				return nil
			}
			mu.Lock()
			returns[ticker] = rets
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(returns) < minValidTickers {
		return nil, &InsufficientBasketError{Valid: len(returns), Required: minValidTickers}
	}

	// Preserve configured basket order for a deterministic matrix
	tickers := make([]string, 0, len(returns))
	for _, t := range s.cfg.Basket {
		if _, ok := returns[t]; ok {
			tickers = append(tickers, t)
		}
	}

	return NewCorrelationMatrix(tickers, returns), nil
}

// ============================================================================
// LEVERAGE FACTOR
// ============================================================================

// ScoreLeverage computes the leverage factor from balance-sheet ratios of the
// leading basket members: average debt burden, interest coverage, and counts
// of highly levered or poorly covered institutions
func (s *Scorer) ScoreLeverage(ctx context.Context, date time.Time) FactorResult {
	basket := s.cfg.Basket
	if len(basket) > s.cfg.FundamentalsBasket {
		basket = basket[:s.cfg.FundamentalsBasket]
	}

	var mu sync.Mutex
	fundamentals := make(map[string]map[string]float64, len(basket))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, ticker := range basket {
		g.Go(func() error {
			ratios, err := s.provider.Fundamentals(gctx, ticker)
			if err != nil {
				s.logger.Debug().Err(err).Str("ticker", ticker).
					Msg("Fundamentals unavailable, excluding from basket")
				return nil
			}
			mu.Lock()
			fundamentals[ticker] = ratios
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return missing(FactorLeverage, err.Error())
	}

	if len(fundamentals) == 0 {
		s.logger.Warn().Time("analysis_date", date).
			Msg("No fundamentals available for leverage factor")
		return missing(FactorLeverage, "no fundamentals available")
	}

	var deSum, icSum float64
	var deCount, icCount int
	highLeverage := 0
	lowCoverage := 0
	for _, ratios := range fundamentals {
		if de, ok := ratios[marketdata.MetricDebtToEquity]; ok {
			deSum += de
			deCount++
			if de > 2.0 {
				highLeverage++
			}
		}
		if ic, ok := ratios[marketdata.MetricInterestCoverage]; ok {
			icSum += ic
			icCount++
			if ic < 2.5 {
				lowCoverage++
			}
		}
	}

	score := 0.0
	metrics := map[string]float64{
		"high_leverage_count": float64(highLeverage),
		"low_coverage_count":  float64(lowCoverage),
		"basket_size":         float64(len(fundamentals)),
	}

	if deCount > 0 {
		avgDE := deSum / float64(deCount)
		metrics["avg_debt_to_equity"] = avgDE
		switch {
		case avgDE > 3.0:
			score += 0.3
		case avgDE > 2.0:
			score += 0.2
		}
	}
	if icCount > 0 {
		avgIC := icSum / float64(icCount)
		metrics["avg_interest_coverage"] = avgIC
		switch {
		case avgIC < 2.0:
			score += 0.3
		case avgIC < 3.0:
			score += 0.2
		}
	}
	switch {
	case highLeverage > 5:
		score += 0.2
	case highLeverage > 3:
		score += 0.1
	}
	switch {
	case lowCoverage > 5:
		score += 0.2
	case lowCoverage > 3:
		score += 0.1
	}
	score = math.Min(score, 1.0)

	s.logger.Debug().
		Time("analysis_date", date).
		Int("basket_size", len(fundamentals)).
		Int("high_leverage", highLeverage).
		Int("low_coverage", lowCoverage).
		Float64("score", score).
		Msg("Leverage factor computed")

	return present(FactorLeverage, score, metrics)
}

// ============================================================================
// LIQUIDITY FACTOR
// ============================================================================

// ScoreLiquidity computes the liquidity factor from the volatility index,
// the 10-year-minus-3-month yield spread, and financial-sector volatility
// and drawdown over the liquidity lookback window
func (s *Scorer) ScoreLiquidity(ctx context.Context, date time.Time) FactorResult {
	start := date.AddDate(0, 0, -(s.cfg.LiquidityLookback*3/2 + 7))

	var vix, yield10y, yield3m, sector []marketdata.Point

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(symbol string, dst *[]marketdata.Point) {
		g.Go(func() error {
			series, err := s.provider.IndexSeries(gctx, symbol, start, date)
			if err != nil {
				return err
			}
			*dst = series
			return nil
		})
	}
	fetch(s.cfg.VolatilityIndex, &vix)
	fetch(s.cfg.YieldSymbol10Y, &yield10y)
	fetch(s.cfg.YieldSymbol3M, &yield3m)
	fetch(s.cfg.SectorIndex, &sector)
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Time("analysis_date", date).
			Msg("Index series unavailable for liquidity factor")
		return missing(FactorLiquidity, err.Error())
	}
	if len(vix) == 0 || len(sector) < 2 {
		return missing(FactorLiquidity, "insufficient index observations")
	}

	vixValues := marketdata.PointValues(vix)
	vixMean := meanOf(vixValues)
	vixStd := stdDev(vixValues)

	minSpread, spreadOK := minYieldSpread(yield10y, yield3m)
	inverted := spreadOK && minSpread < 0

	sectorReturns := pointReturns(sector)
	sectorVol := stdDev(sectorReturns) * math.Sqrt(tradingDaysPerYear)
	sectorDD := maxDrawdown(marketdata.PointValues(sector))

	score := 0.0
	switch {
	case vixMean > 30:
		score += 0.3
	case vixMean > 20:
		score += 0.2
	}
	if inverted {
		score += 0.3
	}
	switch {
	case sectorVol > 0.4:
		score += 0.2
	case sectorVol > 0.3:
		score += 0.1
	}
	switch {
	case sectorDD < -0.2:
		score += 0.2
	case sectorDD < -0.1:
		score += 0.1
	}
	score = math.Min(score, 1.0)

	metrics := map[string]float64{
		"vix_mean":          vixMean,
		"vix_std":           vixStd,
		"sector_volatility": sectorVol,
		"sector_drawdown":   sectorDD,
	}
	if spreadOK {
		metrics["min_yield_spread"] = minSpread
	}
	if inverted {
		metrics["curve_inverted"] = 1
	} else {
		metrics["curve_inverted"] = 0
	}

	s.logger.Debug().
		Time("analysis_date", date).
		Float64("vix_mean", vixMean).
		Bool("curve_inverted", inverted).
		Float64("sector_volatility", sectorVol).
		Float64("sector_drawdown", sectorDD).
		Float64("score", score).
		Msg("Liquidity factor computed")

	return present(FactorLiquidity, score, metrics)
}

// ============================================================================
// REGULATORY FACTOR
// ============================================================================

// ScoreRegulatory computes the regulatory factor as the mean of the proxy
// indicators. Deliberately coarse; the proxies are pluggable.
func (s *Scorer) ScoreRegulatory(_ context.Context, date time.Time) FactorResult {
	if len(s.proxies) == 0 {
		return missing(FactorRegulatory, "no regulatory proxies configured")
	}

	var sum float64
	metrics := make(map[string]float64, len(s.proxies))
	for name, value := range s.proxies {
		sum += value
		metrics[name] = value
	}
	score := math.Min(sum/float64(len(s.proxies)), 1.0)

	s.logger.Debug().
		Time("analysis_date", date).
		Float64("score", score).
		Msg("Regulatory factor computed")

	return present(FactorRegulatory, score, metrics)
}

// ============================================================================
// SERIES HELPERS
// ============================================================================

// minYieldSpread computes the minimum 10y-minus-3m spread over dates present
// in both series. The second return is false when the series never overlap.
func minYieldSpread(long, short []marketdata.Point) (float64, bool) {
	shortByDate := make(map[string]float64, len(short))
	for _, p := range short {
		shortByDate[p.Date.Format("2006-01-02")] = p.Value
	}

	minSpread := math.Inf(1)
	found := false
	for _, p := range long {
		sv, ok := shortByDate[p.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		spread := p.Value - sv
		if spread < minSpread {
			minSpread = spread
		}
		found = true
	}
	return minSpread, found
}

// pointReturns converts an ordered value series into simple daily returns
func pointReturns(points []marketdata.Point) []float64 {
	if len(points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		if points[i-1].Value > 0 {
			returns = append(returns, (points[i].Value-points[i-1].Value)/points[i-1].Value)
		}
	}
	return returns
}

// maxDrawdown computes the worst peak-to-trough decline as a negative fraction
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// meanOf computes the arithmetic mean of a slice
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev computes the sample standard deviation with Bessel's correction
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := meanOf(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	if len(values) > 1 {
		variance /= float64(len(values) - 1)
	} else {
		variance /= float64(len(values))
	}

	return math.Sqrt(variance)
}
