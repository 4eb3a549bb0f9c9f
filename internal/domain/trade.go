package domain

import "time"

// TradeRecord represents one realized trade from the backtest log.
// Records are validated by the provider and never mutated afterwards.
type TradeRecord struct {
	TradeID string // deterministic hash, see idhash.ComputeTradeID
	Symbol  string // traded pair or instrument

	OpenTime  time.Time // wall clock in the provider's zone
	CloseTime time.Time
	OrderType string // BUY | SELL, other provider values kept verbatim

	Profit float64 // realized profit in account currency
	Volume float64 // always > 0
	R      float64 // Profit / risk per trade
}

// Order type constants
const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"
)

// IsWin reports whether the trade closed with positive profit.
func (t *TradeRecord) IsWin() bool {
	return t.Profit > 0
}

// IsLoss reports whether the trade closed with negative profit.
// Break-even trades are neither wins nor losses.
func (t *TradeRecord) IsLoss() bool {
	return t.Profit < 0
}

// ProfitSample extracts profits in the order of the given trades.
func ProfitSample(trades []*TradeRecord) []float64 {
	profits := make([]float64, len(trades))
	for i, t := range trades {
		profits[i] = t.Profit
	}
	return profits
}
