package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PoolInterface defines the database pool operations the store needs
type PoolInterface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store persists daily bars in PostgreSQL. It doubles as an offline Provider
// for backtests: once a window has been ingested, PriceHistory and
// IndexSeries serve it without network access. Fundamentals are not stored.
type Store struct {
	pool PoolInterface
}

// NewStore creates a bar store over a database pool
func NewStore(pool PoolInterface) *Store {
	return &Store{pool: pool}
}

// NewStoreWithPool creates a bar store over a pgxpool.Pool
func NewStoreWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveBars upserts daily bars for a symbol
func (s *Store) SaveBars(ctx context.Context, symbol string, bars []Bar) error {
	if s.pool == nil {
		return fmt.Errorf("no database pool available")
	}

	query := `
		INSERT INTO daily_bars (symbol, bar_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, bar_date) DO UPDATE
		SET open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, bar := range bars {
		if _, err := s.pool.Exec(ctx, query,
			symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			return fmt.Errorf("failed to save bar for %s at %s: %w",
				symbol, bar.Date.Format("2006-01-02"), err)
		}
	}

	log.Debug().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Msg("Daily bars saved")

	return nil
}

// PriceHistory loads daily bars for a symbol within a window, ordered by date
func (s *Store) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("no database pool available")
	}

	query := `
		SELECT bar_date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = $1
			AND bar_date >= $2
			AND bar_date <= $3
		ORDER BY bar_date ASC
	`

	rows, err := s.pool.Query(ctx, query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var bar Bar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar row: %w", err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bar rows: %w", err)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no stored bars for %s", ticker)
	}

	return bars, nil
}

// IndexSeries loads daily closes for a symbol within a window
func (s *Store) IndexSeries(ctx context.Context, symbol string, start, end time.Time) ([]Point, error) {
	bars, err := s.PriceHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(bars))
	for i, b := range bars {
		points[i] = Point{Date: b.Date, Value: b.Close}
	}
	return points, nil
}

// Fundamentals is unsupported by the offline store
func (s *Store) Fundamentals(_ context.Context, ticker string) (map[string]float64, error) {
	return nil, fmt.Errorf("fundamentals not stored for %s", ticker)
}

// LatestClose returns the most recent stored close for a symbol
func (s *Store) LatestClose(ctx context.Context, symbol string) (float64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("no database pool available")
	}

	query := `
		SELECT close
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY bar_date DESC
		LIMIT 1
	`

	var price float64
	err := s.pool.QueryRow(ctx, query, symbol).Scan(&price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, fmt.Errorf("no stored bars for symbol %s", symbol)
		}
		return 0, fmt.Errorf("failed to get latest close: %w", err)
	}

	return price, nil
}
