package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/storage"
)

func tradeAt(id, symbol string, open time.Time, profit float64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:   id,
		Symbol:    symbol,
		OpenTime:  open,
		CloseTime: open.Add(time.Hour),
		OrderType: domain.OrderTypeBuy,
		Profit:    profit,
		Volume:    1,
		R:         profit / 250,
	}
}

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := tradeAt("trade1", "EURUSD", time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), 125.5)

	err := store.Insert(ctx, trade)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Profit != 125.5 {
		t.Errorf("Profit mismatch: got %f, want %f", got.Profit, 125.5)
	}

	// Returned record is a copy
	got.Profit = 0
	again, _ := store.GetByID(ctx, "trade1")
	if again.Profit != 125.5 {
		t.Errorf("store was mutated through returned record")
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := tradeAt("trade1", "EURUSD", time.Unix(0, 0), 10)

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestTradeRecordStore_NotFound(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeRecordStore_InsertBulkAtomic(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	if err := store.Insert(ctx, tradeAt("t2", "EURUSD", base, 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Batch contains an existing key: nothing from it may be stored
	err := store.InsertBulk(ctx, []*domain.TradeRecord{
		tradeAt("t1", "EURUSD", base, 1),
		tradeAt("t2", "EURUSD", base, 1),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("partial batch was stored")
	}

	// Intra-batch duplicate
	err = store.InsertBulk(ctx, []*domain.TradeRecord{
		tradeAt("t3", "EURUSD", base, 1),
		tradeAt("t3", "EURUSD", base, 1),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestTradeRecordStore_Ordering(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	trades := []*domain.TradeRecord{
		tradeAt("c", "EURUSD", base.Add(2*time.Hour), 1),
		tradeAt("b", "GBPUSD", base, 2),
		tradeAt("a", "EURUSD", base, 3),
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(all) != len(want) {
		t.Fatalf("expected %d trades, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].TradeID != id {
			t.Errorf("position %d: got %s, want %s", i, all[i].TradeID, id)
		}
	}

	eur, err := store.GetBySymbol(ctx, "EURUSD")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(eur) != 2 || eur[0].TradeID != "a" || eur[1].TradeID != "c" {
		t.Errorf("unexpected GetBySymbol result: %+v", eur)
	}

	ranged, err := store.GetByTimeRange(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 trades in range, got %d", len(ranged))
	}
}
