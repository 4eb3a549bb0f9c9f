package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/idhash"
)

var (
	// ErrNoValidTrades is returned when every row was dropped.
	ErrNoValidTrades = errors.New("no valid trades in trade log")

	// ErrInvalidRisk is returned for a non-positive risk per trade.
	ErrInvalidRisk = errors.New("risk per trade must be positive")
)

// Drop reasons, also used as metric labels.
const (
	DropVolume = "volume"
	DropProfit = "profit"
	DropTime   = "time"
)

// timeLayouts are tried in order. Layouts without a zone yield UTC wall
// clock; layouts with an offset keep it.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05-07:00",
	"2006.01.02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadStats counts what Normalize kept and dropped.
type LoadStats struct {
	Read          int
	Kept          int
	DroppedVolume int
	DroppedProfit int
	DroppedTime   int
}

// Dropped returns drop counts keyed by reason.
func (s LoadStats) Dropped() map[string]int {
	return map[string]int{
		DropVolume: s.DroppedVolume,
		DropProfit: s.DroppedProfit,
		DropTime:   s.DroppedTime,
	}
}

// Normalize validates raw rows and converts them to trade records.
// Rows with missing or non-positive volume, missing profit or unparseable
// timestamps are dropped. R is profit / riskPerTrade. Order is preserved.
func Normalize(rows []RawTrade, riskPerTrade float64) ([]*domain.TradeRecord, LoadStats, error) {
	stats := LoadStats{Read: len(rows)}
	if riskPerTrade <= 0 || math.IsNaN(riskPerTrade) || math.IsInf(riskPerTrade, 0) {
		return nil, stats, fmt.Errorf("%w: %v", ErrInvalidRisk, riskPerTrade)
	}

	occurrences := make(map[string]int)
	trades := make([]*domain.TradeRecord, 0, len(rows))

	for _, row := range rows {
		if row.Volume.IsNone() || !(row.Volume.Unwrap() > 0) {
			stats.DroppedVolume++
			continue
		}
		if row.Profit.IsNone() || math.IsNaN(row.Profit.Unwrap()) || math.IsInf(row.Profit.Unwrap(), 0) {
			stats.DroppedProfit++
			continue
		}

		openTime, err := ParseTime(row.OpenTime)
		if err != nil {
			stats.DroppedTime++
			continue
		}
		closeTime, err := ParseTime(row.CloseTime)
		if err != nil {
			stats.DroppedTime++
			continue
		}

		volume := row.Volume.Unwrap()
		profit := row.Profit.Unwrap()
		orderType := row.OrderType

		key := fmt.Sprintf("%s|%s|%d|%d|%v|%v", row.Symbol, orderType,
			openTime.UnixMilli(), closeTime.UnixMilli(), volume, profit)
		occurrence := occurrences[key]
		occurrences[key]++

		trades = append(trades, &domain.TradeRecord{
			TradeID: idhash.ComputeTradeID(row.Symbol, orderType,
				openTime.UnixMilli(), closeTime.UnixMilli(), volume, profit, occurrence),
			Symbol:    row.Symbol,
			OpenTime:  openTime,
			CloseTime: closeTime,
			OrderType: orderType,
			Profit:    profit,
			Volume:    volume,
			R:         profit / riskPerTrade,
		})
	}

	stats.Kept = len(trades)
	if stats.Kept == 0 {
		return nil, stats, ErrNoValidTrades
	}
	return trades, stats, nil
}

// ParseTime reads a trade log timestamp using the accepted layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
