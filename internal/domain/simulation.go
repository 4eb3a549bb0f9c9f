package domain

// EquityPath is the running cumulative profit of one simulated trade sequence.
type EquityPath []float64

// Terminal returns the final cumulative value of the path.
func (p EquityPath) Terminal() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// SimulationTrial is one resampled trade sequence and its equity path.
// Draws is only populated when the resampler records draws.
type SimulationTrial struct {
	Index  int
	Draws  []float64
	Equity EquityPath
}

// SimulationEnsemble holds every completed trial of a Monte Carlo run.
// Trials are kept in trial order. All equity paths have length NTrades.
type SimulationEnsemble struct {
	Trials    []SimulationTrial
	Requested int    // number of trials asked for
	NTrades   int    // draws per trial
	Seed      uint64 // seed every per-trial generator was derived from
}

// Len returns the number of completed trials.
func (e *SimulationEnsemble) Len() int {
	return len(e.Trials)
}

// Partial reports whether fewer trials completed than were requested.
func (e *SimulationEnsemble) Partial() bool {
	return len(e.Trials) < e.Requested
}

// Paths returns the equity paths in trial order.
func (e *SimulationEnsemble) Paths() []EquityPath {
	paths := make([]EquityPath, len(e.Trials))
	for i, t := range e.Trials {
		paths[i] = t.Equity
	}
	return paths
}

// Prefix returns at most n equity paths, used for rendering.
func (e *SimulationEnsemble) Prefix(n int) []EquityPath {
	if n < 0 {
		n = 0
	}
	if n > len(e.Trials) {
		n = len(e.Trials)
	}
	paths := make([]EquityPath, n)
	for i := 0; i < n; i++ {
		paths[i] = e.Trials[i].Equity
	}
	return paths
}

// TerminalOutcomes returns the last value of every equity path.
func (e *SimulationEnsemble) TerminalOutcomes() []float64 {
	out := make([]float64, len(e.Trials))
	for i, t := range e.Trials {
		out[i] = t.Equity.Terminal()
	}
	return out
}

// OutcomeSummary describes the distribution of terminal outcomes.
// Percentiles use linear interpolation between order statistics.
type OutcomeSummary struct {
	Count  int
	Median float64
	Min    float64
	Max    float64
	P5     float64
	P95    float64

	Mean            float64
	StdDev          float64 // sample stddev (n-1)
	LossProbability float64 // share of terminal outcomes below zero
}
