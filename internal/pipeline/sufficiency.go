package pipeline

import (
	"fmt"
	"sort"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/metrics"
)

// Default sufficiency thresholds
const (
	DefaultMinTrades      = 30
	DefaultMinTradingDays = 5
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains every check and any integrity errors.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// SufficiencyChecker judges whether a trade history supports the analysis.
// Failing checks do not stop a run; they are reported next to the results.
type SufficiencyChecker struct {
	minTrades      int
	minTradingDays int
}

// NewSufficiencyChecker creates a checker with default thresholds.
func NewSufficiencyChecker() *SufficiencyChecker {
	return &SufficiencyChecker{
		minTrades:      DefaultMinTrades,
		minTradingDays: DefaultMinTradingDays,
	}
}

// WithThresholds overrides the minimum trade count and trading days.
func (c *SufficiencyChecker) WithThresholds(minTrades, minTradingDays int) *SufficiencyChecker {
	c.minTrades = minTrades
	c.minTradingDays = minTradingDays
	return c
}

// Check runs all checks against the analysed history and its ensemble.
func (c *SufficiencyChecker) Check(analysis *metrics.Analysis, ensemble *domain.SimulationEnsemble) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 6),
		AllPass: true,
		Errors:  []string{},
	}

	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	p := analysis.Performance

	// Check 1: enough trades for the bootstrap to approximate the distribution
	add(SufficiencyCheck{
		Name:      "Trade count",
		Threshold: fmt.Sprintf(">= %d", c.minTrades),
		Actual:    fmt.Sprintf("%d", p.TotalTrades),
		Pass:      p.TotalTrades >= c.minTrades,
	})

	// Check 2 and 3: both outcome classes present
	add(SufficiencyCheck{
		Name:      "Winning trades",
		Threshold: ">= 1",
		Actual:    fmt.Sprintf("%d", p.Wins),
		Pass:      p.Wins >= 1,
	})
	add(SufficiencyCheck{
		Name:      "Losing trades",
		Threshold: ">= 1",
		Actual:    fmt.Sprintf("%d", p.Losses),
		Pass:      p.Losses >= 1,
	})

	// Check 4: distinct trading days
	add(c.checkTradingDays(analysis.Trades))

	// Check 5: duplicate trade_id count == 0
	dupCheck, dupErrors := checkDuplicateTrades(analysis.Trades)
	add(dupCheck)
	result.Errors = append(result.Errors, dupErrors...)

	// Check 6: every requested trial completed
	if ensemble != nil {
		add(SufficiencyCheck{
			Name:      "Completed trials",
			Threshold: fmt.Sprintf("== %d", ensemble.Requested),
			Actual:    fmt.Sprintf("%d", ensemble.Len()),
			Pass:      !ensemble.Partial(),
		})
	}

	return result
}

// checkTradingDays counts calendar days (in the provider's zone) with at
// least one opened trade.
func (c *SufficiencyChecker) checkTradingDays(trades []*domain.TradeRecord) SufficiencyCheck {
	days := make(map[string]struct{})
	for _, t := range trades {
		days[t.OpenTime.Format("2006-01-02")] = struct{}{}
	}
	return SufficiencyCheck{
		Name:      "Trading days",
		Threshold: fmt.Sprintf(">= %d", c.minTradingDays),
		Actual:    fmt.Sprintf("%d", len(days)),
		Pass:      len(days) >= c.minTradingDays,
	}
}

// checkDuplicateTrades: duplicate trade_id count == 0.
func checkDuplicateTrades(trades []*domain.TradeRecord) (SufficiencyCheck, []string) {
	counts := make(map[string]int)
	for _, t := range trades {
		counts[t.TradeID]++
	}

	var errs []string
	duplicates := 0
	for id, n := range counts {
		if n > 1 {
			duplicates++
			errs = append(errs, fmt.Sprintf("duplicate trade_id %s (%d occurrences)", id, n))
		}
	}
	sort.Strings(errs)

	return SufficiencyCheck{
		Name:      "Duplicate trade_id",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", duplicates),
		Pass:      duplicates == 0,
	}, errs
}
