package reporting

import (
	"time"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/metrics"
)

// Generator assembles reports from analysis results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from historical analysis and a summarized ensemble.
func (g *Generator) Generate(
	runID string,
	riskPerTrade float64,
	analysis *metrics.Analysis,
	ensemble *domain.SimulationEnsemble,
	outcomes domain.OutcomeSummary,
) *Report {
	return &Report{
		GeneratedAt:  g.now(),
		RunID:        runID,
		RiskPerTrade: riskPerTrade,
		DataSummary:  summarizeData(analysis.Trades),
		Performance:  analysis.Performance,
		Hourly:       analysis.Hourly,
		Symbols:      analysis.Symbols,
		Simulation: SimulationSection{
			Requested: ensemble.Requested,
			Completed: ensemble.Len(),
			NTrades:   ensemble.NTrades,
			Seed:      ensemble.Seed,
			Partial:   ensemble.Partial(),
			Outcomes:  outcomes,
		},
	}
}

// summarizeData computes counts and the open-time range.
func summarizeData(trades []*domain.TradeRecord) DataSummary {
	s := DataSummary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	symbols := make(map[string]struct{})
	s.FirstOpen = trades[0].OpenTime
	s.LastOpen = trades[0].OpenTime
	for _, t := range trades {
		symbols[t.Symbol] = struct{}{}
		if t.OpenTime.Before(s.FirstOpen) {
			s.FirstOpen = t.OpenTime
		}
		if t.OpenTime.After(s.LastOpen) {
			s.LastOpen = t.OpenTime
		}
	}
	s.SymbolCount = len(symbols)
	return s
}
