package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/observability"
	"trade-edge-lab/internal/storage"
)

// Result describes one ingest run.
type Result struct {
	Stats           LoadStats
	Stored          int
	AlreadyPresent  int
	DurationSeconds float64
}

// Ingestor loads a trade log and stores its validated trades.
// Re-ingesting the same log stores nothing new since trade IDs are
// deterministic.
type Ingestor struct {
	loader  *Loader
	store   storage.TradeRecordStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewIngestor creates an ingestor. metrics may be nil.
func NewIngestor(loader *Loader, store storage.TradeRecordStore, metrics *observability.Metrics, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		loader:  loader,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Run reads path, normalizes it with riskPerTrade and inserts new trades in
// one batch.
func (i *Ingestor) Run(ctx context.Context, path string, riskPerTrade float64) (*Result, error) {
	start := time.Now()

	rows, err := i.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	trades, stats, err := Normalize(rows, riskPerTrade)
	if err != nil {
		i.record(stats, 0)
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}

	fresh, err := i.filterExisting(ctx, trades)
	if err != nil {
		return nil, err
	}

	if err := i.store.InsertBulk(ctx, fresh); err != nil {
		return nil, fmt.Errorf("store trades: %w", err)
	}

	i.record(stats, len(fresh))
	if i.metrics != nil {
		i.metrics.LastSuccessfulLoad.SetToCurrentTime()
	}

	result := &Result{
		Stats:           stats,
		Stored:          len(fresh),
		AlreadyPresent:  len(trades) - len(fresh),
		DurationSeconds: time.Since(start).Seconds(),
	}

	i.logger.Info("trade log ingested",
		zap.String("path", path),
		zap.Int("read", stats.Read),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped_volume", stats.DroppedVolume),
		zap.Int("dropped_profit", stats.DroppedProfit),
		zap.Int("dropped_time", stats.DroppedTime),
		zap.Int("stored", result.Stored),
		zap.Int("already_present", result.AlreadyPresent),
	)

	return result, nil
}

func (i *Ingestor) filterExisting(ctx context.Context, trades []*domain.TradeRecord) ([]*domain.TradeRecord, error) {
	existing, err := i.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing trades: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.TradeID] = struct{}{}
	}

	fresh := make([]*domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.TradeID]; !ok {
			fresh = append(fresh, t)
		}
	}
	return fresh, nil
}

func (i *Ingestor) record(stats LoadStats, stored int) {
	if i.metrics == nil {
		return
	}
	i.metrics.RecordIngest(stats.Read, stored, stats.Dropped())
}
