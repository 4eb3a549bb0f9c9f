package reporting

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(24)

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
)

// RenderTerminal renders a short colored summary for the console.
func RenderTerminal(r *Report) string {
	var perf, sim []string
	p := r.Performance

	if p != nil {
		perf = append(perf,
			line("Trades", fmt.Sprintf("%d (%d W / %d L)", p.TotalTrades, p.Wins, p.Losses)),
			line("Win rate", FormatPercent(p.WinRate)),
			line("Expectancy", signed(FormatOptionalCurrency(p.Expectancy), p.Expectancy.IsSome() && p.Expectancy.Unwrap() < 0)),
			line("Expectancy score", signed(FormatOptionalRatio(p.ExpectancyScore), p.ExpectancyScore.IsSome() && p.ExpectancyScore.Unwrap() < 0)),
			line("Edge ratio", signed(FormatOptionalRatio(p.EdgeRatio), p.EdgeRatio.IsSome() && p.EdgeRatio.Unwrap() < 1)),
			line("Total profit", signed(FormatCurrency(p.TotalProfit), p.TotalProfit < 0)),
			line("Max drawdown", FormatCurrency(p.MaxDrawdown)),
		)
	}

	o := r.Simulation.Outcomes
	sim = append(sim,
		line("Trials", fmt.Sprintf("%d x %d trades", r.Simulation.Completed, r.Simulation.NTrades)),
		line("Seed", fmt.Sprintf("%d", r.Simulation.Seed)),
	)
	if o.Count > 0 {
		sim = append(sim,
			line("Median outcome", signed(FormatCurrency(o.Median), o.Median < 0)),
			line("5th / 95th pct", fmt.Sprintf("%s / %s", FormatCurrency(o.P5), FormatCurrency(o.P95))),
			line("Min / Max", fmt.Sprintf("%s / %s", FormatCurrency(o.Min), FormatCurrency(o.Max))),
			line("P(loss)", FormatPercent(o.LossProbability)),
		)
	}
	if r.Simulation.Partial {
		sim = append(sim, warnStyle.Render(fmt.Sprintf("interrupted after %d of %d trials",
			r.Simulation.Completed, r.Simulation.Requested)))
	}

	blocks := []string{titleStyle.Render("Trade Edge Analysis " + mutedStyle.Render(r.RunID))}
	if len(perf) > 0 {
		blocks = append(blocks, sectionStyle.Render(strings.Join(perf, "\n")))
	}
	blocks = append(blocks, sectionStyle.Render(strings.Join(sim, "\n")))

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func line(label, value string) string {
	return labelStyle.Render(label) + value
}

func signed(value string, negative bool) string {
	switch {
	case value == NotAvailable:
		return mutedStyle.Render(value)
	case negative:
		return negativeStyle.Render(value)
	default:
		return positiveStyle.Render(value)
	}
}
