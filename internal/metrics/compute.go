package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/moznion/go-optional"

	"trade-edge-lab/internal/domain"
)

var (
	// ErrNoTrades is returned when no trades are available for computation.
	ErrNoTrades = errors.New("no trades available for computation")

	// ErrDegenerateStatistics is returned by RequireDefined when a metric is
	// undefined (no winners, no losers or zero profit variance).
	ErrDegenerateStatistics = errors.New("degenerate statistics")
)

// Degenerate reasons
const (
	ReasonNoWinners      = "no winning trades"
	ReasonNoLosers       = "no losing trades"
	ReasonZeroVariance   = "zero profit standard deviation"
	ReasonTooFewTrades   = "fewer than two trades for standard deviation"
	ReasonNoFavorableR   = "no trades with positive R"
	ReasonNoAdverseR     = "no trades with negative R"
	ReasonZeroAdverseAvg = "average adverse excursion is zero"
)

// ExpectancyResult holds expectancy and the terms it was built from.
type ExpectancyResult struct {
	WinRate         float64
	AvgWin          optional.Option[float64]
	AvgLoss         optional.Option[float64] // absolute value
	Expectancy      optional.Option[float64]
	ExpectancyScore optional.Option[float64]
	Reasons         []string
}

// Expectancy computes expectancy and expectancy score from raw profits.
//
//	expectancy       = win_rate*avg_win - (1-win_rate)*avg_loss
//	expectancy_score = expectancy / stddev(profit)
//
// With zero winners or zero losers the expectancy is None. With fewer than
// two trades or zero variance the score is None.
func Expectancy(trades []*domain.TradeRecord) (ExpectancyResult, error) {
	n := len(trades)
	if n == 0 {
		return ExpectancyResult{}, ErrNoTrades
	}

	var wins, losses []float64
	profits := make([]float64, n)
	for i, t := range trades {
		profits[i] = t.Profit
		if t.IsWin() {
			wins = append(wins, t.Profit)
		} else if t.IsLoss() {
			losses = append(losses, math.Abs(t.Profit))
		}
	}

	res := ExpectancyResult{
		WinRate:         computeWinRate(len(wins), n),
		AvgWin:          optional.None[float64](),
		AvgLoss:         optional.None[float64](),
		Expectancy:      optional.None[float64](),
		ExpectancyScore: optional.None[float64](),
	}

	if len(wins) > 0 {
		res.AvgWin = optional.Some(computeMean(wins))
	} else {
		res.Reasons = append(res.Reasons, ReasonNoWinners)
	}
	if len(losses) > 0 {
		res.AvgLoss = optional.Some(computeMean(losses))
	} else {
		res.Reasons = append(res.Reasons, ReasonNoLosers)
	}

	if res.AvgWin.IsNone() || res.AvgLoss.IsNone() {
		return res, nil
	}

	expectancy := res.WinRate*res.AvgWin.Unwrap() - (1-res.WinRate)*res.AvgLoss.Unwrap()
	res.Expectancy = optional.Some(expectancy)

	stddev, ok := computeStddev(profits, computeMean(profits))
	switch {
	case !ok:
		res.Reasons = append(res.Reasons, ReasonTooFewTrades)
	case stddev == 0:
		res.Reasons = append(res.Reasons, ReasonZeroVariance)
	default:
		res.ExpectancyScore = optional.Some(expectancy / stddev)
	}

	return res, nil
}

// EdgeResult holds the edge ratio and its excursion terms in R-multiples.
type EdgeResult struct {
	AvgFavorableR optional.Option[float64]
	AvgAdverseR   optional.Option[float64] // absolute value
	EdgeRatio     optional.Option[float64]
	Reasons       []string
}

// EdgeRatio computes mean(R | R>0) / mean(|R| | R<0).
// Returns None instead of dividing by zero when there are no losing trades.
func EdgeRatio(trades []*domain.TradeRecord) EdgeResult {
	var favorable, adverse []float64
	for _, t := range trades {
		if t.R > 0 {
			favorable = append(favorable, t.R)
		} else if t.R < 0 {
			adverse = append(adverse, math.Abs(t.R))
		}
	}

	res := EdgeResult{
		AvgFavorableR: optional.None[float64](),
		AvgAdverseR:   optional.None[float64](),
		EdgeRatio:     optional.None[float64](),
	}

	if len(favorable) > 0 {
		res.AvgFavorableR = optional.Some(computeMean(favorable))
	} else {
		res.Reasons = append(res.Reasons, ReasonNoFavorableR)
	}
	if len(adverse) > 0 {
		res.AvgAdverseR = optional.Some(computeMean(adverse))
	} else {
		res.Reasons = append(res.Reasons, ReasonNoAdverseR)
	}

	if res.AvgFavorableR.IsNone() || res.AvgAdverseR.IsNone() {
		return res
	}

	aae := res.AvgAdverseR.Unwrap()
	if aae == 0 {
		res.Reasons = append(res.Reasons, ReasonZeroAdverseAvg)
		return res
	}
	res.EdgeRatio = optional.Some(res.AvgFavorableR.Unwrap() / aae)
	return res
}

// ComputePerformance computes all historical metrics for a trade collection.
// Trades are sorted by OpenTime ASC, TradeID ASC before computing
// order-dependent metrics (MaxDrawdown, MaxConsecutiveLosses).
func ComputePerformance(trades []*domain.TradeRecord) (*domain.PerformanceMetrics, error) {
	exp, err := Expectancy(trades)
	if err != nil {
		return nil, err
	}
	edge := EdgeRatio(trades)

	sorted := SortTrades(trades)
	profits := domain.ProfitSample(sorted)
	stddev, _ := computeStddev(profits, computeMean(profits))

	wins, losses := 0, 0
	total := 0.0
	for _, p := range profits {
		total += p
		if p > 0 {
			wins++
		} else if p < 0 {
			losses++
		}
	}

	m := &domain.PerformanceMetrics{
		TotalTrades: len(trades),
		Wins:        wins,
		Losses:      losses,
		WinRate:     exp.WinRate,

		AvgWin:          exp.AvgWin,
		AvgLoss:         exp.AvgLoss,
		Expectancy:      exp.Expectancy,
		ExpectancyScore: exp.ExpectancyScore,

		AvgFavorableR: edge.AvgFavorableR,
		AvgAdverseR:   edge.AvgAdverseR,
		EdgeRatio:     edge.EdgeRatio,

		TotalProfit:          total,
		ProfitStddev:         stddev,
		MaxDrawdown:          computeMaxDrawdown(profits),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(profits),
	}
	m.DegenerateReasons = append(m.DegenerateReasons, exp.Reasons...)
	m.DegenerateReasons = append(m.DegenerateReasons, edge.Reasons...)

	return m, nil
}

// RequireDefined returns ErrDegenerateStatistics if any headline metric
// (expectancy, expectancy score, edge ratio) is undefined.
func RequireDefined(m *domain.PerformanceMetrics) error {
	if m.Expectancy.IsSome() && m.ExpectancyScore.IsSome() && m.EdgeRatio.IsSome() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDegenerateStatistics, strings.Join(m.DegenerateReasons, "; "))
}

// SortTrades returns a copy sorted by OpenTime ASC, TradeID ASC.
func SortTrades(trades []*domain.TradeRecord) []*domain.TradeRecord {
	sorted := make([]*domain.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].OpenTime.Equal(sorted[j].OpenTime) {
			return sorted[i].OpenTime.Before(sorted[j].OpenTime)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})
	return sorted
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Returns false when fewer than two values are given.
func computeStddev(values []float64, mean float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1)), true
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	return computeMean(values)
}

// StdDev returns the sample standard deviation, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	s, _ := computeStddev(values, computeMean(values))
	return s
}

// Percentile uses linear interpolation between order statistics.
// sorted must be pre-sorted ASC.
// p is percentile (0.05 = 5th percentile). Index is p*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative profits.
// Profits must be in chronological order.
func computeMaxDrawdown(profits []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, p := range profits {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds longest streak of profit < 0.
func computeMaxConsecutiveLosses(profits []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, p := range profits {
		if p < 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
