package reporting

import (
	"time"

	"trade-edge-lab/internal/domain"
)

// Report is the complete analysis report for one run.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	RunID        string
	RiskPerTrade float64

	DataSummary DataSummary

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Historical statistics
	Performance *domain.PerformanceMetrics
	Hourly      []domain.HourStats   // hour ASC
	Symbols     []domain.SymbolStats // sum DESC

	Simulation SimulationSection
}

// DataSummary describes the trade collection the run used.
type DataSummary struct {
	TotalTrades int
	SymbolCount int
	FirstOpen   time.Time
	LastOpen    time.Time
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SimulationSection describes the Monte Carlo ensemble and its outcomes.
type SimulationSection struct {
	Requested int
	Completed int
	NTrades   int
	Seed      uint64
	Partial   bool
	Outcomes  domain.OutcomeSummary
}
