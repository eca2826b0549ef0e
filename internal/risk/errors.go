package risk

import (
	"errors"
	"fmt"
)

// ErrTrendUnavailable is returned by CompareTrend when either sub-assessment
// is degraded. Callers must treat the trend as absent, not as SAME.
var ErrTrendUnavailable = errors.New("risk trend unavailable: degraded assessment")

// InsufficientBasketError reports that too few basket members had usable
// price history for the correlation network
type InsufficientBasketError struct {
	Valid    int
	Required int
}

func (e *InsufficientBasketError) Error() string {
	return fmt.Sprintf("insufficient basket: %d valid tickers, need %d", e.Valid, e.Required)
}
