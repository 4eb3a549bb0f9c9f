// Package verification re-runs stored analysis runs and checks that the
// recomputed metrics and outcome distribution match what was persisted.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/metrics"
	"trade-edge-lab/internal/montecarlo"
	"trade-edge-lab/internal/pipeline"
	"trade-edge-lab/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// ErrRunNotFound is returned when a run ID doesn't exist.
var ErrRunNotFound = errors.New("analysis run not found")

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string
	Expected any // stored value
	Actual   any // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string
	Match          bool
	Divergences    []FieldDivergence
	StoredMedian   float64
	ReplayedMedian float64
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []VerificationResult
}

// RunVerifier replays stored runs against the current trade store.
type RunVerifier struct {
	runStore   storage.AnalysisRunStore
	aggregator *metrics.Aggregator
	resampler  *montecarlo.Resampler
	workers    int
	logger     *zap.Logger
}

// NewRunVerifier creates a verifier. workers only affects speed; seeded
// trials are identical for any worker count.
func NewRunVerifier(runStore storage.AnalysisRunStore, tradeStore storage.TradeRecordStore, workers int, logger *zap.Logger) *RunVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunVerifier{
		runStore:   runStore,
		aggregator: metrics.NewAggregator(tradeStore, logger),
		resampler:  montecarlo.NewResampler(logger),
		workers:    workers,
		logger:     logger,
	}
}

// VerifyRun loads a stored run, recomputes it over the trades selected by
// the run's own filter, and compares every persisted field.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	replayed, err := v.replay(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	divergences := CompareRuns(stored, replayed)
	if len(divergences) > 0 {
		v.logger.Warn("analysis run diverged",
			zap.String("run_id", runID),
			zap.Int("divergences", len(divergences)),
		)
	}

	return &VerificationResult{
		RunID:          runID,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredMedian:   stored.OutcomeMedian,
		ReplayedMedian: replayed.OutcomeMedian,
	}, nil
}

// VerifyAll verifies every stored run.
// A run that cannot be replayed is reported as divergent.
func (v *RunVerifier) VerifyAll(ctx context.Context) (*VerificationReport, error) {
	runs, err := v.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalRuns: len(runs),
		Results:   make([]VerificationResult, 0, len(runs)),
	}

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				RunID:        run.RunID,
				StoredMedian: run.OutcomeMedian,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentRuns++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
	}

	return report, nil
}

// replay recomputes a run with its recorded seed, trial count and draws per trial.
func (v *RunVerifier) replay(ctx context.Context, stored *domain.AnalysisRun) (*domain.AnalysisRun, error) {
	filter := pipeline.RunFilter(stored)
	analysis, err := v.aggregator.Analyze(ctx, filter)
	if err != nil {
		return nil, err
	}

	ensemble, err := v.resampler.Simulate(ctx, domain.ProfitSample(analysis.Trades), montecarlo.Options{
		Simulations: stored.Simulations,
		Trades:      stored.NTrades,
		Seed:        optional.Some(stored.Seed),
		Workers:     v.workers,
	})
	if err != nil {
		return nil, err
	}

	outcomes, err := montecarlo.Summarize(ensemble)
	if err != nil {
		return nil, err
	}

	return pipeline.BuildRun(analysis, filter, ensemble, outcomes, stored.RiskPerTrade, time.UnixMilli(stored.CreatedAtMs)), nil
}

// CompareRuns compares a stored run with its replay and returns divergences.
// The run ID and partial flag are only compared for complete runs, since a
// replay of an interrupted run requests exactly the trials that completed.
func CompareRuns(stored, replayed *domain.AnalysisRun) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual any) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if !stored.Partial && stored.RunID != replayed.RunID {
		add("RunID", stored.RunID, replayed.RunID)
	}

	// Input
	if !slices.Equal(stored.FilterSymbols, replayed.FilterSymbols) {
		add("FilterSymbols", stored.FilterSymbols, replayed.FilterSymbols)
	}
	if !int64PtrEquals(stored.FilterFromMs, replayed.FilterFromMs) {
		add("FilterFromMs", derefInt(stored.FilterFromMs), derefInt(replayed.FilterFromMs))
	}
	if !int64PtrEquals(stored.FilterToMs, replayed.FilterToMs) {
		add("FilterToMs", derefInt(stored.FilterToMs), derefInt(replayed.FilterToMs))
	}
	if stored.TotalTrades != replayed.TotalTrades {
		add("TotalTrades", stored.TotalTrades, replayed.TotalTrades)
	}
	if !floatEquals(stored.RiskPerTrade, replayed.RiskPerTrade) {
		add("RiskPerTrade", stored.RiskPerTrade, replayed.RiskPerTrade)
	}

	// Metrics
	if !floatPtrEquals(stored.Expectancy, replayed.Expectancy) {
		add("Expectancy", deref(stored.Expectancy), deref(replayed.Expectancy))
	}
	if !floatPtrEquals(stored.ExpectancyScore, replayed.ExpectancyScore) {
		add("ExpectancyScore", deref(stored.ExpectancyScore), deref(replayed.ExpectancyScore))
	}
	if !floatPtrEquals(stored.EdgeRatio, replayed.EdgeRatio) {
		add("EdgeRatio", deref(stored.EdgeRatio), deref(replayed.EdgeRatio))
	}
	if !floatEquals(stored.WinRate, replayed.WinRate) {
		add("WinRate", stored.WinRate, replayed.WinRate)
	}
	if !floatEquals(stored.TotalProfit, replayed.TotalProfit) {
		add("TotalProfit", stored.TotalProfit, replayed.TotalProfit)
	}
	if !floatEquals(stored.MaxDrawdown, replayed.MaxDrawdown) {
		add("MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown)
	}

	// Simulation
	if stored.Simulations != replayed.Simulations {
		add("Simulations", stored.Simulations, replayed.Simulations)
	}
	if stored.NTrades != replayed.NTrades {
		add("NTrades", stored.NTrades, replayed.NTrades)
	}
	if stored.Seed != replayed.Seed {
		add("Seed", stored.Seed, replayed.Seed)
	}

	// Terminal outcome distribution
	outcomes := []struct {
		field            string
		stored, replayed float64
	}{
		{"OutcomeMedian", stored.OutcomeMedian, replayed.OutcomeMedian},
		{"OutcomeMin", stored.OutcomeMin, replayed.OutcomeMin},
		{"OutcomeMax", stored.OutcomeMax, replayed.OutcomeMax},
		{"OutcomeP5", stored.OutcomeP5, replayed.OutcomeP5},
		{"OutcomeP95", stored.OutcomeP95, replayed.OutcomeP95},
		{"OutcomeMean", stored.OutcomeMean, replayed.OutcomeMean},
		{"OutcomeStddev", stored.OutcomeStddev, replayed.OutcomeStddev},
		{"LossProbability", stored.LossProbability, replayed.LossProbability},
	}
	for _, o := range outcomes {
		if !floatEquals(o.stored, o.replayed) {
			add(o.field, o.stored, o.replayed)
		}
	}

	return divergences
}

// deref keeps undefined metrics printable as <nil>.
func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals is true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}

func derefInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func int64PtrEquals(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
