package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/idhash"
	"trade-edge-lab/internal/metrics"
	"trade-edge-lab/internal/montecarlo"
	"trade-edge-lab/internal/observability"
	"trade-edge-lab/internal/reporting"
	"trade-edge-lab/internal/storage"
)

// Output file names
const (
	ReportFile      = "ANALYSIS_REPORT.md"
	HourlyFile      = "HOURLY.csv"
	SymbolsFile     = "SYMBOLS.csv"
	EquityPathsFile = "EQUITY_PATHS.csv"
)

// ErrInterrupted is returned when the simulation was cancelled after some
// trials completed. The result is still written and returned.
var ErrInterrupted = errors.New("analysis interrupted")

// Options controls one analysis run.
type Options struct {
	Filter        metrics.TradeFilter
	RiskPerTrade  float64 // recorded on the run; R is fixed at ingest
	Simulation    montecarlo.Options
	PathsToExport int
	StrictMetrics bool // fail on undefined expectancy, score or edge ratio
}

// Result is the outcome of a completed (or interrupted) run.
type Result struct {
	Report   *reporting.Report
	Run      *domain.AnalysisRun
	Ensemble *domain.SimulationEnsemble
	Files    []string
}

// Analysis orchestrates load -> metrics -> simulate -> summarize -> persist -> render.
type Analysis struct {
	aggregator *metrics.Aggregator
	resampler  *montecarlo.Resampler
	reportGen  *reporting.Generator
	checker    *SufficiencyChecker
	runStore   storage.AnalysisRunStore // optional
	metrics    *observability.Metrics   // optional
	outputDir  string
	clock      func() time.Time
	logger     *zap.Logger
}

// NewAnalysis creates a new analysis pipeline reading trades from tradeStore.
func NewAnalysis(tradeStore storage.TradeRecordStore, outputDir string, logger *zap.Logger) *Analysis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analysis{
		aggregator: metrics.NewAggregator(tradeStore, logger),
		resampler:  montecarlo.NewResampler(logger),
		reportGen:  reporting.NewGenerator(),
		checker:    NewSufficiencyChecker(),
		outputDir:  outputDir,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Analysis) WithClock(clock func() time.Time) *Analysis {
	a.clock = clock
	a.reportGen = a.reportGen.WithClock(clock)
	return a
}

// WithSufficiencyChecker replaces the default sufficiency checker.
func (a *Analysis) WithSufficiencyChecker(c *SufficiencyChecker) *Analysis {
	a.checker = c
	return a
}

// WithRunStore persists every run summary to store.
func (a *Analysis) WithRunStore(store storage.AnalysisRunStore) *Analysis {
	a.runStore = store
	return a
}

// WithMetrics records Prometheus metrics for every run.
func (a *Analysis) WithMetrics(m *observability.Metrics) *Analysis {
	a.metrics = m
	return a
}

// Run executes the full pipeline and writes:
// - ANALYSIS_REPORT.md
// - HOURLY.csv
// - SYMBOLS.csv
// - EQUITY_PATHS.csv (first PathsToExport paths)
//
// If ctx is cancelled during simulation and at least one trial completed,
// the partial result is still written and returned with ErrInterrupted.
func (a *Analysis) Run(ctx context.Context, opts Options) (*Result, error) {
	start := a.clock()

	// 1. Historical statistics
	analysis, err := a.aggregator.Analyze(ctx, opts.Filter)
	if err != nil {
		a.recordPhase("load", err, start)
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordDegenerate(analysis.Performance.DegenerateReasons)
	}
	if opts.StrictMetrics {
		if err := metrics.RequireDefined(analysis.Performance); err != nil {
			a.recordPhase("metrics", err, start)
			return nil, err
		}
	}

	// 2. Monte Carlo
	simStart := time.Now()
	simOpts := opts.Simulation
	if a.metrics != nil {
		onTrial := simOpts.OnTrial
		simOpts.OnTrial = func() {
			a.metrics.RecordTrial()
			if onTrial != nil {
				onTrial()
			}
		}
	}

	profits := domain.ProfitSample(analysis.Trades)
	ensemble, simErr := a.resampler.Simulate(ctx, profits, simOpts)
	if simErr != nil && (ensemble == nil || ensemble.Len() == 0) {
		a.recordPhase("simulate", simErr, start)
		return nil, fmt.Errorf("simulate: %w", simErr)
	}

	outcomes, err := montecarlo.Summarize(ensemble)
	if err != nil {
		a.recordPhase("simulate", err, start)
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordSimulation(time.Since(simStart).Seconds(), outcomes.Median)
	}

	// 3. Persist run summary. Uses a context detached from cancellation so an
	// interrupted run is still recorded.
	createdAt := a.clock()
	run := BuildRun(analysis, opts.Filter, ensemble, outcomes, opts.RiskPerTrade, createdAt)
	if a.runStore != nil {
		if err := a.runStore.Insert(context.WithoutCancel(ctx), run); err != nil {
			a.recordPhase("persist", err, start)
			return nil, fmt.Errorf("store analysis run: %w", err)
		}
	}

	// 4. Render
	report := a.reportGen.Generate(run.RunID, opts.RiskPerTrade, analysis, ensemble, outcomes)
	report.DataQuality = convertToDataQuality(a.checker.Check(analysis, ensemble))
	if !report.DataQuality.AllChecksPassed {
		a.logger.Warn("data sufficiency checks failed", zap.String("run_id", run.RunID))
	}
	files, err := a.writeOutputs(report, ensemble.Prefix(opts.PathsToExport))
	if err != nil {
		a.recordPhase("render", err, start)
		return nil, err
	}

	result := &Result{Report: report, Run: run, Ensemble: ensemble, Files: files}

	a.logger.Info("analysis complete",
		zap.String("run_id", run.RunID),
		zap.Int("trades", run.TotalTrades),
		zap.Int("simulations", run.Simulations),
		zap.Int("trades_per_simulation", run.NTrades),
		zap.Uint64("seed", run.Seed),
		zap.Float64("median", outcomes.Median),
		zap.Float64("p5", outcomes.P5),
		zap.Float64("p95", outcomes.P95),
		zap.Bool("partial", run.Partial),
	)

	if simErr != nil {
		a.recordPhase("simulate", simErr, start)
		return result, fmt.Errorf("%w after %d of %d trials: %w",
			ErrInterrupted, ensemble.Len(), ensemble.Requested, simErr)
	}

	a.recordPhase("run", nil, start)
	if a.metrics != nil {
		a.metrics.LastSuccessfulRun.SetToCurrentTime()
	}
	return result, nil
}

// writeOutputs writes the report files and returns their paths.
func (a *Analysis) writeOutputs(report *reporting.Report, paths []domain.EquityPath) ([]string, error) {
	if err := os.MkdirAll(a.outputDir, 0755); err != nil {
		return nil, err
	}

	hourlyCSV, err := reporting.RenderHourlyCSV(report.Hourly)
	if err != nil {
		return nil, err
	}
	symbolsCSV, err := reporting.RenderSymbolsCSV(report.Symbols)
	if err != nil {
		return nil, err
	}
	pathsCSV, err := reporting.RenderEquityPathsCSV(paths)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		name    string
		content string
	}{
		{ReportFile, reporting.RenderMarkdown(report)},
		{HourlyFile, hourlyCSV},
		{SymbolsFile, symbolsCSV},
		{EquityPathsFile, pathsCSV},
	}

	files := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path := filepath.Join(a.outputDir, o.name)
		if err := os.WriteFile(path, []byte(o.content), 0644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	if a.metrics != nil {
		a.metrics.ReportsGenerated.Inc()
	}
	return files, nil
}

func (a *Analysis) recordPhase(phase string, err error, start time.Time) {
	if a.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordRun(phase, status, a.clock().Sub(start).Seconds())
}

// convertToDataQuality converts SufficiencyResult to reporting.DataQualitySection.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}

// BuildRun converts analysis results into the persisted run summary.
func BuildRun(
	analysis *metrics.Analysis,
	filter metrics.TradeFilter,
	ensemble *domain.SimulationEnsemble,
	outcomes domain.OutcomeSummary,
	riskPerTrade float64,
	createdAt time.Time,
) *domain.AnalysisRun {
	tradeIDs := make([]string, len(analysis.Trades))
	for i, t := range analysis.Trades {
		tradeIDs[i] = t.TradeID
	}
	p := analysis.Performance

	return &domain.AnalysisRun{
		RunID: idhash.ComputeRunID(tradeIDs, riskPerTrade, ensemble.Requested,
			ensemble.NTrades, ensemble.Seed, createdAt.UnixMilli()),
		CreatedAtMs:  createdAt.UnixMilli(),
		TotalTrades:  p.TotalTrades,
		RiskPerTrade: riskPerTrade,

		FilterSymbols: append([]string(nil), filter.Symbols...),
		FilterFromMs:  timeMsPtr(filter.From),
		FilterToMs:    timeMsPtr(filter.To),

		Expectancy:      optionPtr(p.Expectancy),
		ExpectancyScore: optionPtr(p.ExpectancyScore),
		EdgeRatio:       optionPtr(p.EdgeRatio),
		WinRate:         p.WinRate,
		TotalProfit:     p.TotalProfit,
		MaxDrawdown:     p.MaxDrawdown,

		Simulations: ensemble.Len(),
		NTrades:     ensemble.NTrades,
		Seed:        ensemble.Seed,
		Partial:     ensemble.Partial(),

		OutcomeMedian:   outcomes.Median,
		OutcomeMin:      outcomes.Min,
		OutcomeMax:      outcomes.Max,
		OutcomeP5:       outcomes.P5,
		OutcomeP95:      outcomes.P95,
		OutcomeMean:     outcomes.Mean,
		OutcomeStddev:   outcomes.StdDev,
		LossProbability: outcomes.LossProbability,
	}
}

func optionPtr(o optional.Option[float64]) *float64 {
	if o.IsNone() {
		return nil
	}
	v := o.Unwrap()
	return &v
}

func timeMsPtr(o optional.Option[time.Time]) *int64 {
	if o.IsNone() {
		return nil
	}
	ms := o.Unwrap().UnixMilli()
	return &ms
}

// RunFilter rebuilds the trade filter a stored run was computed over.
func RunFilter(run *domain.AnalysisRun) metrics.TradeFilter {
	filter := metrics.TradeFilter{Symbols: append([]string(nil), run.FilterSymbols...)}
	if run.FilterFromMs != nil {
		filter.From = optional.Some(time.UnixMilli(*run.FilterFromMs).UTC())
	}
	if run.FilterToMs != nil {
		filter.To = optional.Some(time.UnixMilli(*run.FilterToMs).UTC())
	}
	return filter
}
