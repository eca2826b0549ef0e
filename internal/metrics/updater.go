package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PositionBook is the slice of the broker the updater reads. Declared here
// so execution packages can import metrics without a cycle.
type PositionBook interface {
	Equity(ctx context.Context) (float64, error)
	OpenPositionCount(ctx context.Context) (int, error)
}

// Updater periodically refreshes execution gauges from the broker
type Updater struct {
	book     PositionBook
	interval time.Duration
	stopCh   chan struct{}
}

// NewUpdater creates a new metrics updater
func NewUpdater(book PositionBook, interval time.Duration) *Updater {
	return &Updater{
		book:     book,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the update loop. It refreshes once immediately, then on
// every tick until stopped or the context is cancelled.
func (u *Updater) Start(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.update(ctx)

	for {
		select {
		case <-ticker.C:
			u.update(ctx)
		case <-u.stopCh:
			log.Info().Msg("Metrics updater stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Metrics updater context cancelled")
			return
		}
	}
}

// Stop halts the update loop
func (u *Updater) Stop() {
	close(u.stopCh)
}

func (u *Updater) update(ctx context.Context) {
	equity, err := u.book.Equity(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read equity for metrics")
	} else {
		Equity.Set(equity)
	}

	open, err := u.book.OpenPositionCount(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count open positions for metrics")
		return
	}
	OpenPositions.Set(float64(open))
}
