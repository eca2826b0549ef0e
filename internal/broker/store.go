package broker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/config"
	"github.com/aqibchou/S-P-Inclusion-Exclusion-Trading-Bot/internal/sizing"
)

// PoolInterface abstracts the pgx pool so tests can substitute pgxmock
type PoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists positions to the positions table
type Store struct {
	pool   PoolInterface
	logger zerolog.Logger
}

// NewStore creates a position store backed by the given pool
func NewStore(pool PoolInterface) *Store {
	return &Store{
		pool:   pool,
		logger: config.NewLogger("broker"),
	}
}

// SavePosition inserts a newly opened position
func (s *Store) SavePosition(ctx context.Context, position *Position) error {
	if s.pool == nil {
		return fmt.Errorf("no database pool configured")
	}

	query := `
		INSERT INTO positions (
			id, ticker, side, sizing_type, shares, entry_price, notional,
			leverage, commission, status, opened_at, hold_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		position.ID, position.Ticker, string(position.Side), string(position.SizingType),
		position.Shares, position.EntryPrice, position.Notional,
		position.Leverage, position.Commission, string(position.Status),
		position.OpenedAt, position.HoldUntil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", position.ID, err)
	}
	return nil
}

// ClosePosition records the exit fields of a closed position
func (s *Store) ClosePosition(ctx context.Context, position *Position) error {
	if s.pool == nil {
		return fmt.Errorf("no database pool configured")
	}

	query := `
		UPDATE positions
		SET status = $2, closed_at = $3, exit_price = $4, pnl = $5, commission = $6
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		position.ID, string(position.Status), position.ClosedAt,
		position.ExitPrice, position.PnL, position.Commission,
	)
	if err != nil {
		return fmt.Errorf("failed to update position %s: %w", position.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %s not found", position.ID)
	}
	return nil
}

// OpenPositions loads every position still marked OPEN, oldest first
func (s *Store) OpenPositions(ctx context.Context) ([]*Position, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("no database pool configured")
	}

	query := `
		SELECT id, ticker, side, sizing_type, shares, entry_price, notional,
		       leverage, commission, opened_at, hold_until
		FROM positions
		WHERE status = 'OPEN'
		ORDER BY opened_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []*Position
	for rows.Next() {
		var p Position
		var side, sizingType string
		if err := rows.Scan(
			&p.ID, &p.Ticker, &side, &sizingType, &p.Shares, &p.EntryPrice,
			&p.Notional, &p.Leverage, &p.Commission, &p.OpenedAt, &p.HoldUntil,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		p.Side = sizing.Side(side)
		p.SizingType = sizing.SizingType(sizingType)
		p.Status = PositionStatusOpen
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read position rows: %w", err)
	}
	return positions, nil
}
