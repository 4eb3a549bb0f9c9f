package montecarlo

import (
	"sort"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/metrics"
)

// Summarize reduces the terminal outcomes of an ensemble.
// Returns ErrEmptyEnsemble if no trial completed.
func Summarize(ensemble *domain.SimulationEnsemble) (domain.OutcomeSummary, error) {
	if ensemble == nil || ensemble.Len() == 0 {
		return domain.OutcomeSummary{}, ErrEmptyEnsemble
	}
	return SummarizeOutcomes(ensemble.TerminalOutcomes())
}

// SummarizeOutcomes computes the outcome summary of a set of terminal values.
// Percentiles interpolate linearly between order statistics at index p*(n-1);
// the median is the 50th percentile under the same rule.
func SummarizeOutcomes(outcomes []float64) (domain.OutcomeSummary, error) {
	n := len(outcomes)
	if n == 0 {
		return domain.OutcomeSummary{}, ErrEmptyEnsemble
	}

	sorted := make([]float64, n)
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	losses := 0
	for _, v := range sorted {
		if v < 0 {
			losses++
		}
	}

	return domain.OutcomeSummary{
		Count:  n,
		Median: metrics.Percentile(sorted, 0.50),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P5:     metrics.Percentile(sorted, 0.05),
		P95:    metrics.Percentile(sorted, 0.95),

		Mean:            metrics.Mean(sorted),
		StdDev:          metrics.StdDev(sorted),
		LossProbability: float64(losses) / float64(n),
	}, nil
}
