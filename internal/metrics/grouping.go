package metrics

import (
	"sort"

	"trade-edge-lab/internal/domain"
)

// GroupByHour aggregates profit by the hour of day the trade was opened.
// The hour is read in whatever location the provider attached to OpenTime.
// Only hours with at least one trade are returned, ordered by hour ASC.
func GroupByHour(trades []*domain.TradeRecord) []domain.HourStats {
	groups := make(map[int]*domain.GroupStats)
	for _, t := range trades {
		h := t.OpenTime.Hour()
		g, ok := groups[h]
		if !ok {
			g = &domain.GroupStats{}
			groups[h] = g
		}
		g.Count++
		g.Sum += t.Profit
	}

	result := make([]domain.HourStats, 0, len(groups))
	for h, g := range groups {
		g.Mean = g.Sum / float64(g.Count)
		result = append(result, domain.HourStats{Hour: h, GroupStats: *g})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Hour < result[j].Hour
	})
	return result
}

// GroupBySymbol aggregates profit by symbol, ordered by Sum DESC.
// Ties are broken by Symbol ASC for deterministic output.
func GroupBySymbol(trades []*domain.TradeRecord) []domain.SymbolStats {
	groups := make(map[string]*domain.GroupStats)
	for _, t := range trades {
		g, ok := groups[t.Symbol]
		if !ok {
			g = &domain.GroupStats{}
			groups[t.Symbol] = g
		}
		g.Count++
		g.Sum += t.Profit
	}

	result := make([]domain.SymbolStats, 0, len(groups))
	for s, g := range groups {
		g.Mean = g.Sum / float64(g.Count)
		result = append(result, domain.SymbolStats{Symbol: s, GroupStats: *g})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Sum != result[j].Sum {
			return result[i].Sum > result[j].Sum
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result
}
