package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"trade-edge-lab/internal/domain"
)

const testRisk = 250.0

func makeTrades(profits ...float64) []*domain.TradeRecord {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	trades := make([]*domain.TradeRecord, len(profits))
	for i, p := range profits {
		open := base.Add(time.Duration(i) * time.Hour)
		trades[i] = &domain.TradeRecord{
			TradeID:   string(rune('a' + i)),
			Symbol:    "EURUSD",
			OpenTime:  open,
			CloseTime: open.Add(30 * time.Minute),
			OrderType: domain.OrderTypeBuy,
			Profit:    p,
			Volume:    1,
			R:         p / testRisk,
		}
	}
	return trades
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExpectancy_Fixture(t *testing.T) {
	// win_rate = 2/3, avg_win = 100, avg_loss = 50
	// expectancy = 2/3*100 - 1/3*50 = 50
	res, err := Expectancy(makeTrades(100, 100, -50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !approxEqual(res.WinRate, 2.0/3.0) {
		t.Errorf("expected win rate 0.6667, got %f", res.WinRate)
	}
	if res.Expectancy.IsNone() || !approxEqual(res.Expectancy.Unwrap(), 50.0) {
		t.Fatalf("expected expectancy 50, got %v", res.Expectancy)
	}

	// stddev(100, 100, -50) with n-1 = sqrt(7500)
	want := 50.0 / math.Sqrt(7500)
	if res.ExpectancyScore.IsNone() || !approxEqual(res.ExpectancyScore.Unwrap(), want) {
		t.Errorf("expected expectancy score %f, got %v", want, res.ExpectancyScore)
	}
	if len(res.Reasons) != 0 {
		t.Errorf("expected no degenerate reasons, got %v", res.Reasons)
	}
}

func TestExpectancy_NoTrades(t *testing.T) {
	_, err := Expectancy(nil)
	if !errors.Is(err, ErrNoTrades) {
		t.Errorf("expected ErrNoTrades, got %v", err)
	}
}

func TestExpectancy_AllWinners(t *testing.T) {
	res, err := Expectancy(makeTrades(10, 20, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.WinRate != 1.0 {
		t.Errorf("expected win rate 1.0, got %f", res.WinRate)
	}
	if res.Expectancy.IsSome() {
		t.Errorf("expected undefined expectancy, got %v", res.Expectancy.Unwrap())
	}
	if res.ExpectancyScore.IsSome() {
		t.Errorf("expected undefined score, got %v", res.ExpectancyScore.Unwrap())
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != ReasonNoLosers {
		t.Errorf("expected reason %q, got %v", ReasonNoLosers, res.Reasons)
	}
}

func TestExpectancy_AllLosers(t *testing.T) {
	res, err := Expectancy(makeTrades(-10, -20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.WinRate != 0 {
		t.Errorf("expected win rate 0, got %f", res.WinRate)
	}
	if res.Expectancy.IsSome() {
		t.Errorf("expected undefined expectancy")
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != ReasonNoWinners {
		t.Errorf("expected reason %q, got %v", ReasonNoWinners, res.Reasons)
	}
}

func TestExpectancy_SymmetricWinLoss(t *testing.T) {
	res, err := Expectancy(makeTrades(50, -50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Expectancy.IsNone() || !approxEqual(res.Expectancy.Unwrap(), 0) {
		t.Errorf("expected expectancy 0, got %v", res.Expectancy)
	}
	if res.ExpectancyScore.IsNone() || !approxEqual(res.ExpectancyScore.Unwrap(), 0) {
		t.Errorf("expected score 0, got %v", res.ExpectancyScore)
	}
}

func TestExpectancy_BreakevenCountsAsNeither(t *testing.T) {
	res, err := Expectancy(makeTrades(100, 0, -50, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(res.WinRate, 0.25) {
		t.Errorf("expected win rate 0.25, got %f", res.WinRate)
	}
	// 0.25*100 - 0.75*50 = -12.5
	if res.Expectancy.IsNone() || !approxEqual(res.Expectancy.Unwrap(), -12.5) {
		t.Errorf("expected expectancy -12.5, got %v", res.Expectancy)
	}
}

func TestEdgeRatio_Fixture(t *testing.T) {
	// R = 0.4, 0.4, -0.2 -> 0.4 / 0.2
	res := EdgeRatio(makeTrades(100, 100, -50))

	if res.EdgeRatio.IsNone() || !approxEqual(res.EdgeRatio.Unwrap(), 2.0) {
		t.Errorf("expected edge ratio 2.0, got %v", res.EdgeRatio)
	}
	if res.AvgFavorableR.IsNone() || !approxEqual(res.AvgFavorableR.Unwrap(), 0.4) {
		t.Errorf("expected avg favorable R 0.4, got %v", res.AvgFavorableR)
	}
	if res.AvgAdverseR.IsNone() || !approxEqual(res.AvgAdverseR.Unwrap(), 0.2) {
		t.Errorf("expected avg adverse R 0.2, got %v", res.AvgAdverseR)
	}
}

func TestEdgeRatio_AllWinnersUndefined(t *testing.T) {
	res := EdgeRatio(makeTrades(100, 200, 50))

	if res.EdgeRatio.IsSome() {
		v := res.EdgeRatio.Unwrap()
		t.Fatalf("expected undefined edge ratio, got %v", v)
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != ReasonNoAdverseR {
		t.Errorf("expected reason %q, got %v", ReasonNoAdverseR, res.Reasons)
	}
}

func TestEdgeRatio_Empty(t *testing.T) {
	res := EdgeRatio(nil)
	if res.EdgeRatio.IsSome() {
		t.Errorf("expected undefined edge ratio for empty input")
	}
}

func TestComputePerformance(t *testing.T) {
	// cumulative: 100, 50, 150, 100, 20, 120 -> peak 150, trough 20
	m, err := ComputePerformance(makeTrades(100, -50, 100, -50, -80, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.TotalTrades != 6 || m.Wins != 3 || m.Losses != 3 {
		t.Errorf("unexpected counts: total=%d wins=%d losses=%d", m.TotalTrades, m.Wins, m.Losses)
	}
	if !approxEqual(m.TotalProfit, 120) {
		t.Errorf("expected total profit 120, got %f", m.TotalProfit)
	}
	if !approxEqual(m.MaxDrawdown, 130) {
		t.Errorf("expected max drawdown 130, got %f", m.MaxDrawdown)
	}
	if m.MaxConsecutiveLosses != 2 {
		t.Errorf("expected 2 consecutive losses, got %d", m.MaxConsecutiveLosses)
	}
	if m.ProfitStddev <= 0 {
		t.Errorf("expected positive stddev, got %f", m.ProfitStddev)
	}
	if err := RequireDefined(m); err != nil {
		t.Errorf("expected all metrics defined, got %v", err)
	}
}

func TestComputePerformance_OrderIndependent(t *testing.T) {
	trades := makeTrades(100, -50, 100, -50, -80, 100)
	reversed := make([]*domain.TradeRecord, len(trades))
	for i, tr := range trades {
		reversed[len(trades)-1-i] = tr
	}

	a, err := ComputePerformance(trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ComputePerformance(reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.MaxDrawdown != b.MaxDrawdown || a.MaxConsecutiveLosses != b.MaxConsecutiveLosses {
		t.Errorf("order-dependent metrics differ: %v/%d vs %v/%d",
			a.MaxDrawdown, a.MaxConsecutiveLosses, b.MaxDrawdown, b.MaxConsecutiveLosses)
	}
}

func TestRequireDefined_Degenerate(t *testing.T) {
	m, err := ComputePerformance(makeTrades(10, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = RequireDefined(m)
	if !errors.Is(err, ErrDegenerateStatistics) {
		t.Errorf("expected ErrDegenerateStatistics, got %v", err)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.05, 1.15},
		{0.5, 2.5},
		{0.95, 3.85},
		{1, 4},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); !approxEqual(got, tt.want) {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{5}); got != 0 {
		t.Errorf("expected 0 for a single value, got %v", got)
	}
	// mean 5, squared deviations 9+1+1+9 = 20, /3
	if got := StdDev([]float64{2, 4, 6, 8}); !approxEqual(got, math.Sqrt(20.0/3.0)) {
		t.Errorf("unexpected stddev %v", got)
	}
}
