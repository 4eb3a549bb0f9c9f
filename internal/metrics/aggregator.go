package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/storage"
)

// TradeFilter narrows the trades an analysis runs over.
// Zero value selects every stored trade.
type TradeFilter struct {
	Symbols []string
	From    optional.Option[time.Time] // inclusive, on OpenTime
	To      optional.Option[time.Time] // inclusive, on OpenTime
}

// Analysis is the historical part of a report: metrics and groupings.
type Analysis struct {
	Trades      []*domain.TradeRecord // OpenTime ASC, TradeID ASC
	Performance *domain.PerformanceMetrics
	Hourly      []domain.HourStats
	Symbols     []domain.SymbolStats
}

// Aggregator computes historical trade statistics from stored trade records.
type Aggregator struct {
	tradeRecordStore storage.TradeRecordStore
	logger           *zap.Logger
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(tradeStore storage.TradeRecordStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		tradeRecordStore: tradeStore,
		logger:           logger,
	}
}

// LoadTrades loads trades matching the filter in deterministic order.
// Returns ErrNoTrades if nothing matches.
func (a *Aggregator) LoadTrades(ctx context.Context, filter TradeFilter) ([]*domain.TradeRecord, error) {
	var (
		trades []*domain.TradeRecord
		err    error
	)
	if filter.From.IsSome() || filter.To.IsSome() {
		from := time.Time{}
		to := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
		if filter.From.IsSome() {
			from = filter.From.Unwrap()
		}
		if filter.To.IsSome() {
			to = filter.To.Unwrap()
		}
		trades, err = a.tradeRecordStore.GetByTimeRange(ctx, from, to)
	} else {
		trades, err = a.tradeRecordStore.GetAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	if len(filter.Symbols) > 0 {
		allowed := make(map[string]struct{}, len(filter.Symbols))
		for _, s := range filter.Symbols {
			allowed[s] = struct{}{}
		}
		filtered := trades[:0]
		for _, t := range trades {
			if _, ok := allowed[t.Symbol]; ok {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return SortTrades(trades), nil
}

// Analyze loads trades and computes metrics and groupings over them.
func (a *Aggregator) Analyze(ctx context.Context, filter TradeFilter) (*Analysis, error) {
	trades, err := a.LoadTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeTrades(trades)
}

// AnalyzeTrades computes metrics and groupings over already loaded trades.
func (a *Aggregator) AnalyzeTrades(trades []*domain.TradeRecord) (*Analysis, error) {
	perf, err := ComputePerformance(trades)
	if err != nil {
		return nil, err
	}

	if len(perf.DegenerateReasons) > 0 {
		a.logger.Warn("some metrics are undefined",
			zap.Int("trades", perf.TotalTrades),
			zap.Strings("reasons", perf.DegenerateReasons),
		)
	}

	a.logger.Debug("computed performance metrics",
		zap.Int("trades", perf.TotalTrades),
		zap.Float64("win_rate", perf.WinRate),
		zap.Float64("total_profit", perf.TotalProfit),
	)

	return &Analysis{
		Trades:      SortTrades(trades),
		Performance: perf,
		Hourly:      GroupByHour(trades),
		Symbols:     GroupBySymbol(trades),
	}, nil
}
