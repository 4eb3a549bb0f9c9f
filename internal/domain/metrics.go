package domain

import "github.com/moznion/go-optional"

// PerformanceMetrics holds historical trade statistics.
// Values that can be undefined on degenerate input are options;
// None means the metric could not be computed, never zero.
type PerformanceMetrics struct {
	// Counts
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	// Expectancy (currency units)
	AvgWin          optional.Option[float64]
	AvgLoss         optional.Option[float64] // absolute value
	Expectancy      optional.Option[float64]
	ExpectancyScore optional.Option[float64] // expectancy / stddev(profit)

	// Edge ratio (R-multiples)
	AvgFavorableR optional.Option[float64]
	AvgAdverseR   optional.Option[float64] // absolute value
	EdgeRatio     optional.Option[float64]

	// Historical curve
	TotalProfit          float64
	ProfitStddev         float64
	MaxDrawdown          float64
	MaxConsecutiveLosses int

	// DegenerateReasons lists why undefined metrics are undefined.
	DegenerateReasons []string
}

// GroupStats is the count/sum/mean of profit for one group.
type GroupStats struct {
	Count int
	Sum   float64
	Mean  float64
}

// HourStats aggregates trades opened within one hour of day.
type HourStats struct {
	Hour int // 0..23
	GroupStats
}

// SymbolStats aggregates trades of one symbol.
type SymbolStats struct {
	Symbol string
	GroupStats
}
