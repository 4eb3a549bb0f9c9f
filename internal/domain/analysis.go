package domain

// AnalysisRun is the persisted result of one analysis run.
// Corresponds to the analysis_runs table.
type AnalysisRun struct {
	RunID       string
	CreatedAtMs int64

	// Input
	TotalTrades  int
	RiskPerTrade float64

	// Trade filter (empty symbols and nil bounds select every trade)
	FilterSymbols []string
	FilterFromMs  *int64 // inclusive, on open time
	FilterToMs    *int64 // inclusive, on open time

	// Metrics (nil when undefined)
	Expectancy      *float64
	ExpectancyScore *float64
	EdgeRatio       *float64
	WinRate         float64
	TotalProfit     float64
	MaxDrawdown     float64

	// Simulation
	Simulations int // completed trials
	NTrades     int
	Seed        uint64
	Partial     bool

	// Terminal outcome distribution
	OutcomeMedian   float64
	OutcomeMin      float64
	OutcomeMax      float64
	OutcomeP5       float64
	OutcomeP95      float64
	OutcomeMean     float64
	OutcomeStddev   float64
	LossProbability float64
}
