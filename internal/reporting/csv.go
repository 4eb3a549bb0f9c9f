package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"trade-edge-lab/internal/domain"
)

// RenderHourlyCSV renders hour-of-day aggregates as CSV string.
func RenderHourlyCSV(rows []domain.HourStats) (string, error) {
	records := [][]string{{"hour", "count", "sum", "mean"}}
	for _, h := range rows {
		records = append(records, []string{
			strconv.Itoa(h.Hour),
			strconv.Itoa(h.Count),
			formatFloat(h.Sum),
			formatFloat(h.Mean),
		})
	}
	return writeCSV(records)
}

// RenderSymbolsCSV renders per-symbol aggregates as CSV string.
func RenderSymbolsCSV(rows []domain.SymbolStats) (string, error) {
	records := [][]string{{"symbol", "count", "sum", "mean"}}
	for _, s := range rows {
		records = append(records, []string{
			s.Symbol,
			strconv.Itoa(s.Count),
			formatFloat(s.Sum),
			formatFloat(s.Mean),
		})
	}
	return writeCSV(records)
}

// RenderEquityPathsCSV renders paths in long format: one row per
// (path, trade) with the cumulative equity after that trade.
// path and trade are 1-based.
func RenderEquityPathsCSV(paths []domain.EquityPath) (string, error) {
	records := [][]string{{"path", "trade", "equity"}}
	for i, path := range paths {
		for j, v := range path {
			records = append(records, []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(j + 1),
				formatFloat(v),
			})
		}
	}
	return writeCSV(records)
}

func writeCSV(records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
