package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	p := r.Performance

	// Header
	sb.WriteString("# Trade Edge Analysis\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Risk per trade: %s\n\n", r.RunID, FormatCurrency(r.RiskPerTrade)))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.DataSummary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Symbols | %d |\n", r.DataSummary.SymbolCount))
	if r.DataSummary.TotalTrades > 0 {
		sb.WriteString(fmt.Sprintf("| First Open | %s |\n", r.DataSummary.FirstOpen.Format(time.DateTime)))
		sb.WriteString(fmt.Sprintf("| Last Open | %s |\n", r.DataSummary.LastOpen.Format(time.DateTime)))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat the results below with caution.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, e := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	// Performance
	sb.WriteString("## Performance Metrics\n\n")
	if p != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", p.Wins, p.Losses))
		sb.WriteString(fmt.Sprintf("| Win Rate | %s |\n", FormatPercent(p.WinRate)))
		sb.WriteString(fmt.Sprintf("| Average Win | %s |\n", FormatOptionalCurrency(p.AvgWin)))
		sb.WriteString(fmt.Sprintf("| Average Loss | %s |\n", FormatOptionalCurrency(p.AvgLoss)))
		sb.WriteString(fmt.Sprintf("| Expectancy | %s |\n", FormatOptionalCurrency(p.Expectancy)))
		sb.WriteString(fmt.Sprintf("| Expectancy Score | %s |\n", FormatOptionalRatio(p.ExpectancyScore)))
		sb.WriteString(fmt.Sprintf("| Avg Favorable R | %s |\n", FormatOptionalRatio(p.AvgFavorableR)))
		sb.WriteString(fmt.Sprintf("| Avg Adverse R | %s |\n", FormatOptionalRatio(p.AvgAdverseR)))
		sb.WriteString(fmt.Sprintf("| Edge Ratio | %s |\n", FormatOptionalRatio(p.EdgeRatio)))
		sb.WriteString(fmt.Sprintf("| Total Profit | %s |\n", FormatCurrency(p.TotalProfit)))
		sb.WriteString(fmt.Sprintf("| Profit Std Dev | %s |\n", FormatCurrency(p.ProfitStddev)))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", FormatCurrency(p.MaxDrawdown)))
		sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", p.MaxConsecutiveLosses))
		sb.WriteString("\n")

		if len(p.DegenerateReasons) > 0 {
			sb.WriteString("### Undefined Metrics\n\n")
			for _, reason := range p.DegenerateReasons {
				sb.WriteString(fmt.Sprintf("- %s\n", reason))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No performance metrics available.\n\n")
	}

	// Hourly
	sb.WriteString("## Profit by Hour\n\n")
	if len(r.Hourly) > 0 {
		sb.WriteString("| Hour | Count | Sum | Mean |\n")
		sb.WriteString("|------|-------|-----|------|\n")
		for _, h := range r.Hourly {
			sb.WriteString(fmt.Sprintf("| %02d | %d | %s | %s |\n",
				h.Hour, h.Count, FormatCurrency(h.Sum), FormatCurrency(h.Mean)))
		}
	} else {
		sb.WriteString("No hourly data available.\n")
	}
	sb.WriteString("\n")

	// Symbols
	sb.WriteString("## Profit by Symbol\n\n")
	if len(r.Symbols) > 0 {
		sb.WriteString("| Symbol | Count | Sum | Mean |\n")
		sb.WriteString("|--------|-------|-----|------|\n")
		for _, s := range r.Symbols {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
				s.Symbol, s.Count, FormatCurrency(s.Sum), FormatCurrency(s.Mean)))
		}
	} else {
		sb.WriteString("No symbol data available.\n")
	}
	sb.WriteString("\n")

	// Monte Carlo
	sim := r.Simulation
	o := sim.Outcomes
	sb.WriteString("## Monte Carlo Simulation\n\n")
	sb.WriteString(fmt.Sprintf("Trials: %d of %d | Trades per trial: %d | Seed: %d\n\n",
		sim.Completed, sim.Requested, sim.NTrades, sim.Seed))
	if sim.Partial {
		sb.WriteString("**Simulation was interrupted.** Outcomes cover completed trials only.\n\n")
	}
	if o.Count > 0 {
		sb.WriteString("| Statistic | Terminal Equity |\n")
		sb.WriteString("|-----------|-----------------|\n")
		sb.WriteString(fmt.Sprintf("| Median | %s |\n", FormatCurrency(o.Median)))
		sb.WriteString(fmt.Sprintf("| Min | %s |\n", FormatCurrency(o.Min)))
		sb.WriteString(fmt.Sprintf("| Max | %s |\n", FormatCurrency(o.Max)))
		sb.WriteString(fmt.Sprintf("| 5th Percentile | %s |\n", FormatCurrency(o.P5)))
		sb.WriteString(fmt.Sprintf("| 95th Percentile | %s |\n", FormatCurrency(o.P95)))
		sb.WriteString(fmt.Sprintf("| Mean | %s |\n", FormatCurrency(o.Mean)))
		sb.WriteString(fmt.Sprintf("| Std Dev | %s |\n", FormatCurrency(o.StdDev)))
		sb.WriteString(fmt.Sprintf("| Probability of Loss | %s |\n", FormatPercent(o.LossProbability)))
	} else {
		sb.WriteString("No simulation outcomes available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Resampling treats trades as independent draws; serial correlation and regime changes in the history are not modeled.\n")

	return sb.String()
}
