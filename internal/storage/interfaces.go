package storage

import (
	"context"
	"time"

	"trade-edge-lab/internal/domain"
)

// TradeRecordStore provides access to trade_records storage.
// List methods return trades ordered by open_time ASC, trade_id ASC.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves trades opened within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TradeRecord, error)

	// GetAll retrieves all trades.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)
}

// AnalysisRunStore provides access to analysis_runs storage.
type AnalysisRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.AnalysisRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
	GetAll(ctx context.Context) ([]*domain.AnalysisRun, error)
}
