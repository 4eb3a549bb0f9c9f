package clickhouse

import (
	"context"
	"fmt"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using ClickHouse.
type AnalysisRunStore struct {
	conn *Conn
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(conn *Conn) *AnalysisRunStore {
	return &AnalysisRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

const analysisRunColumns = `
	run_id, created_at_ms, total_trades, risk_per_trade,
	expectancy, expectancy_score, edge_ratio,
	win_rate, total_profit, max_drawdown,
	simulations, n_trades, seed, partial,
	outcome_median, outcome_min, outcome_max, outcome_p5, outcome_p95,
	outcome_mean, outcome_stddev, loss_probability,
	filter_symbols, filter_from_ms, filter_to_ms
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(ctx context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would replace, but runs are append-only
	exists, err := s.exists(ctx, r.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO analysis_runs (` + analysisRunColumns + `) VALUES (
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		r.RunID, r.CreatedAtMs, int64(r.TotalTrades), r.RiskPerTrade,
		r.Expectancy, r.ExpectancyScore, r.EdgeRatio,
		r.WinRate, r.TotalProfit, r.MaxDrawdown,
		int64(r.Simulations), int64(r.NTrades), r.Seed, r.Partial,
		r.OutcomeMedian, r.OutcomeMin, r.OutcomeMax, r.OutcomeP5, r.OutcomeP95,
		r.OutcomeMean, r.OutcomeStddev, r.LossProbability,
		filterSymbols(r.FilterSymbols), r.FilterFromMs, r.FilterToMs,
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	query := `
		SELECT ` + analysisRunColumns + `
		FROM analysis_runs FINAL
		WHERE run_id = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query analysis run: %w", err)
	}
	defer rows.Close()

	runs, err := scanAnalysisRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
func (s *AnalysisRunStore) GetAll(ctx context.Context) ([]*domain.AnalysisRun, error) {
	query := `
		SELECT ` + analysisRunColumns + `
		FROM analysis_runs FINAL
		ORDER BY created_at_ms ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanAnalysisRuns(rows)
}

// exists checks if a run with the given ID exists.
func (s *AnalysisRunStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM analysis_runs FINAL WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanAnalysisRuns scans multiple rows into a slice.
func scanAnalysisRuns(rows chRows) ([]*domain.AnalysisRun, error) {
	var runs []*domain.AnalysisRun

	for rows.Next() {
		var (
			r                                domain.AnalysisRun
			totalTrades, simulations, nTrade int64
		)
		err := rows.Scan(
			&r.RunID, &r.CreatedAtMs, &totalTrades, &r.RiskPerTrade,
			&r.Expectancy, &r.ExpectancyScore, &r.EdgeRatio,
			&r.WinRate, &r.TotalProfit, &r.MaxDrawdown,
			&simulations, &nTrade, &r.Seed, &r.Partial,
			&r.OutcomeMedian, &r.OutcomeMin, &r.OutcomeMax, &r.OutcomeP5, &r.OutcomeP95,
			&r.OutcomeMean, &r.OutcomeStddev, &r.LossProbability,
			&r.FilterSymbols, &r.FilterFromMs, &r.FilterToMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		r.TotalTrades = int(totalTrades)
		r.Simulations = int(simulations)
		r.NTrades = int(nTrade)
		if len(r.FilterSymbols) == 0 {
			r.FilterSymbols = nil
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis runs: %w", err)
	}

	return runs, nil
}

// Array columns are not nullable
func filterSymbols(symbols []string) []string {
	if symbols == nil {
		return []string{}
	}
	return symbols
}
