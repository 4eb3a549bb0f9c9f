package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"

	"trade-edge-lab/internal/ingest"
	"trade-edge-lab/internal/storage"
)

// FixtureTradeCount is the number of trades LoadFixtureTrades inserts.
const FixtureTradeCount = 60

var (
	fixtureSymbols = []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD"}
	fixtureProfits = []float64{180, -95, 240, -120, -60, 310, -250, 90, -40, 150}
	fixtureStart   = time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
)

// LoadFixtureTrades populates store with a deterministic demo trade log.
// Trades go through the same normalization as ingested logs.
func LoadFixtureTrades(ctx context.Context, store storage.TradeRecordStore, riskPerTrade float64) error {
	rows := make([]ingest.RawTrade, FixtureTradeCount)
	for i := range rows {
		open := fixtureStart.Add(time.Duration(i)*5*time.Hour + time.Duration(i%3)*17*time.Minute)
		orderType := "BUY"
		if i%2 == 1 {
			orderType = "SELL"
		}
		rows[i] = ingest.RawTrade{
			Row:       i + 1,
			Symbol:    fixtureSymbols[i%len(fixtureSymbols)],
			OpenTime:  open.Format(time.DateTime),
			CloseTime: open.Add(time.Duration(45+i%4*30) * time.Minute).Format(time.DateTime),
			OrderType: orderType,
			Profit:    optional.Some(fixtureProfits[i%len(fixtureProfits)] * (1 + float64(i%5)/10)),
			Volume:    optional.Some(0.1 * float64(1+i%3)),
		}
	}

	trades, _, err := ingest.Normalize(rows, riskPerTrade)
	if err != nil {
		return fmt.Errorf("normalize fixtures: %w", err)
	}
	return store.InsertBulk(ctx, trades)
}
