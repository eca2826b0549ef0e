package broker

import (
	"context"
	"time"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

// PositionStatus tracks a position through its lifecycle
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// Position is an open or closed trade resulting from a sizing decision
type Position struct {
	ID         string            `json:"id"`
	Ticker     string            `json:"ticker"`
	Side       sizing.Side       `json:"side"`
	SizingType sizing.SizingType `json:"sizing_type"`
	Shares     float64           `json:"shares"`
	EntryPrice float64           `json:"entry_price"`
	Notional   float64           `json:"notional"`
	Leverage   float64           `json:"leverage"`
	Commission float64           `json:"commission"`
	Status     PositionStatus    `json:"status"`
	OpenedAt   time.Time         `json:"opened_at"`
	HoldUntil  time.Time         `json:"hold_until"`
	ClosedAt   *time.Time        `json:"closed_at,omitempty"`
	ExitPrice  float64           `json:"exit_price,omitempty"`
	PnL        float64           `json:"pnl,omitempty"`
}

// Expired reports whether the position has outlived its hold period
func (p *Position) Expired(now time.Time) bool {
	return p.Status == PositionStatusOpen && !now.Before(p.HoldUntil)
}

// Broker executes sizing decisions. The paper implementation simulates
// fills; a live implementation would route to a real execution venue.
type Broker interface {
	// OpenPosition fills a sizing decision at the given market price
	OpenPosition(ctx context.Context, decision sizing.Decision, price float64) (*Position, error)

	// ClosePosition exits an open position at the given market price
	ClosePosition(ctx context.Context, positionID string, price float64) (*Position, error)

	// OpenPositions lists positions that have not been closed yet
	OpenPositions(ctx context.Context) ([]*Position, error)

	// Equity returns current account equity
	Equity(ctx context.Context) (float64, error)
}
