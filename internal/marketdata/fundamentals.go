package marketdata

import (
	"context"
	"fmt"

	"time"

	"github.com/go-resty/resty/v2"
)

const (
	quoteSummaryBaseURL = "https://query1.finance.yahoo.com"
	quoteSummaryPath    = "/v10/finance/quoteSummary/{ticker}"
)

// rawValue is Yahoo's number envelope: {"raw": 1.23, "fmt": "1.23"}
type rawValue struct {
	Raw *float64 `json:"raw"`
}

// quoteSummaryResponse mirrors the subset of the quote summary payload the
// leverage factor needs
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				DebtToEquity     rawValue `json:"debtToEquity"`
				CurrentRatio     rawValue `json:"currentRatio"`
				TotalDebt        rawValue `json:"totalDebt"`
				EBITDA           rawValue `json:"ebitda"`
				InterestCoverage rawValue `json:"interestCoverage"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				TotalAssets rawValue `json:"totalAssets"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// fundamentalsClient fetches balance-sheet ratios from the Yahoo quote
// summary endpoint, which the chart-oriented client library does not cover
type fundamentalsClient struct {
	http *resty.Client
}

func newFundamentalsClient(timeout time.Duration) *fundamentalsClient {
	client := resty.New().
		SetBaseURL(quoteSummaryBaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; spx-riskbot)")

	return &fundamentalsClient{http: client}
}

// Fetch returns the available ratios for a ticker keyed by the Metric*
// constants. Ratios Yahoo does not report are omitted.
func (c *fundamentalsClient) Fetch(ctx context.Context, ticker string) (map[string]float64, error) {
	var payload quoteSummaryResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParam("modules", "financialData,defaultKeyStatistics").
		SetResult(&payload).
		Get(quoteSummaryPath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote summary returned %s for %s", resp.Status(), ticker)
	}
	if apiErr := payload.QuoteSummary.Error; apiErr != nil {
		return nil, fmt.Errorf("quote summary error for %s: %s", ticker, apiErr.Description)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no quote summary result for %s", ticker)
	}

	fin := payload.QuoteSummary.Result[0].FinancialData
	ratios := make(map[string]float64, 4)

	if fin.DebtToEquity.Raw != nil {
		// Yahoo reports debt/equity in percent
		ratios[MetricDebtToEquity] = *fin.DebtToEquity.Raw / 100
	}
	if fin.CurrentRatio.Raw != nil {
		ratios[MetricCurrentRatio] = *fin.CurrentRatio.Raw
	}
	if fin.InterestCoverage.Raw != nil {
		ratios[MetricInterestCoverage] = *fin.InterestCoverage.Raw
	}
	if fin.TotalDebt.Raw != nil {
		if assets := payload.QuoteSummary.Result[0].DefaultKeyStatistics.TotalAssets.Raw; assets != nil && *assets > 0 {
			ratios[MetricDebtToAssets] = *fin.TotalDebt.Raw / *assets
		}
	}

	if len(ratios) == 0 {
		return nil, fmt.Errorf("no usable ratios for %s", ticker)
	}
	return ratios, nil
}

// SetBaseURL redirects requests, used by tests to point at a stub server
func (c *fundamentalsClient) SetBaseURL(url string) {
	c.http.SetBaseURL(url)
}
