package pipeline

import (
	"testing"
	"time"

	"trade-edge-lab/internal/domain"
	"trade-edge-lab/internal/metrics"
)

func analyze(t *testing.T, trades []*domain.TradeRecord) *metrics.Analysis {
	t.Helper()
	a, err := metrics.NewAggregator(nil, nil).AnalyzeTrades(trades)
	if err != nil {
		t.Fatalf("AnalyzeTrades failed: %v", err)
	}
	return a
}

func dailyTrades(n int, profits ...float64) []*domain.TradeRecord {
	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	trades := make([]*domain.TradeRecord, n)
	for i := range trades {
		trades[i] = &domain.TradeRecord{
			TradeID:  string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Symbol:   "EURUSD",
			OpenTime: start.AddDate(0, 0, i),
			Profit:   profits[i%len(profits)],
			Volume:   1,
		}
	}
	return trades
}

func findCheck(t *testing.T, r *SufficiencyResult, name string) SufficiencyCheck {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return SufficiencyCheck{}
}

func TestSufficiencyChecker_AllPass(t *testing.T) {
	a := analyze(t, dailyTrades(40, 100, -50))
	ensemble := &domain.SimulationEnsemble{Requested: 1, Trials: []domain.SimulationTrial{{}}}

	result := NewSufficiencyChecker().Check(a, ensemble)

	if !result.AllPass {
		t.Errorf("expected all checks to pass: %+v", result.Checks)
	}
	if len(result.Checks) != 6 {
		t.Errorf("expected 6 checks, got %d", len(result.Checks))
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no integrity errors, got %v", result.Errors)
	}
}

func TestSufficiencyChecker_SmallHistory(t *testing.T) {
	a := analyze(t, dailyTrades(3, 100, 20))

	result := NewSufficiencyChecker().Check(a, nil)

	if result.AllPass {
		t.Fatal("expected failure for small all-winning history")
	}
	if c := findCheck(t, result, "Trade count"); c.Pass || c.Actual != "3" {
		t.Errorf("unexpected trade count check: %+v", c)
	}
	if c := findCheck(t, result, "Losing trades"); c.Pass {
		t.Errorf("expected losing trades check to fail")
	}
	if c := findCheck(t, result, "Trading days"); c.Pass || c.Actual != "3" {
		t.Errorf("unexpected trading days check: %+v", c)
	}
	if len(result.Checks) != 5 {
		t.Errorf("expected trials check to be skipped without ensemble, got %d checks", len(result.Checks))
	}
}

func TestSufficiencyChecker_CustomThresholds(t *testing.T) {
	a := analyze(t, dailyTrades(3, 100, -20))

	result := NewSufficiencyChecker().WithThresholds(3, 3).Check(a, nil)
	if !result.AllPass {
		t.Errorf("expected pass with lowered thresholds: %+v", result.Checks)
	}
}

func TestSufficiencyChecker_DuplicatesAndPartial(t *testing.T) {
	trades := dailyTrades(40, 100, -50)
	trades[1].TradeID = trades[0].TradeID
	a := analyze(t, trades)
	ensemble := &domain.SimulationEnsemble{Requested: 10, Trials: make([]domain.SimulationTrial, 4)}

	result := NewSufficiencyChecker().Check(a, ensemble)

	if c := findCheck(t, result, "Duplicate trade_id"); c.Pass || c.Actual != "1" {
		t.Errorf("unexpected duplicate check: %+v", c)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected one integrity error, got %v", result.Errors)
	}
	if c := findCheck(t, result, "Completed trials"); c.Pass || c.Actual != "4" {
		t.Errorf("unexpected trials check: %+v", c)
	}
}
