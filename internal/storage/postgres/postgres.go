package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trade-edge-lab/internal/storage"
)

// Pool wraps pgxpool.Pool so stores can be built from one shared pool.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects and pings. maxConns <= 0 keeps the pgxpool default.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

var pgCodeErrors = map[string]error{
	"23505": storage.ErrDuplicateKey, // unique_violation
	"23514": storage.ErrInvalidInput, // check_violation
}

// translateError maps driver errors onto storage sentinels and wraps
// anything else with op.
func translateError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgCodeErrors[pgErr.Code]; ok {
			if sentinel == storage.ErrDuplicateKey {
				return sentinel
			}
			return fmt.Errorf("%w: %s", sentinel, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
