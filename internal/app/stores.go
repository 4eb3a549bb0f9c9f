package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trade-edge-lab/internal/config"
	"trade-edge-lab/internal/storage"
	chstore "trade-edge-lab/internal/storage/clickhouse"
	"trade-edge-lab/internal/storage/memory"
	"trade-edge-lab/internal/storage/migrations"
	pgstore "trade-edge-lab/internal/storage/postgres"
)

// ErrNoTradeStore is returned when neither in-memory mode nor a PostgreSQL DSN is set.
var ErrNoTradeStore = errors.New("postgres_dsn is required unless in-memory storage is used")

const postgresMaxConns = 4

// Stores bundles the trade and run stores a command works against.
type Stores struct {
	Trades storage.TradeRecordStore
	Runs   storage.AnalysisRunStore // nil when runs are not persisted
	closer []func()
}

// StoreOptions selects the storage backends.
type StoreOptions struct {
	InMemory bool // memory stores regardless of DSNs
	Runs     bool // open a run store too
}

// OpenStores connects to the configured databases and applies migrations.
// In-memory mode never touches the network.
func OpenStores(ctx context.Context, cfg *config.Config, opts StoreOptions, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.InMemory {
		s := &Stores{Trades: memory.NewTradeRecordStore()}
		if opts.Runs {
			s.Runs = memory.NewAnalysisRunStore()
		}
		logger.Info("using in-memory storage")
		return s, nil
	}

	if cfg.PostgresDSN == "" {
		return nil, ErrNoTradeStore
	}

	s := &Stores{}
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, postgresMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s.closer = append(s.closer, pool.Close)

	if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
		s.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	s.Trades = pgstore.NewTradeRecordStore(pool)

	if opts.Runs && cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closer = append(s.closer, func() { closeConn(conn, logger) })
		s.Runs = chstore.NewAnalysisRunStore(conn)
	} else if opts.Runs {
		logger.Info("clickhouse_dsn not set, analysis runs will not be persisted")
	}

	return s, nil
}

// Close releases database connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
	s.closer = nil
}

func closeConn(conn *chstore.Conn, logger *zap.Logger) {
	if err := conn.Close(); err != nil {
		logger.Warn("close clickhouse connection", zap.Error(err))
	}
}
