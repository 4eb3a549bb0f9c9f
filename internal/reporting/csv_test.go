package reporting

import (
	"strings"
	"testing"

	"trade-edge-lab/internal/domain"
)

func TestRenderHourlyCSV(t *testing.T) {
	out, err := RenderHourlyCSV([]domain.HourStats{
		{Hour: 9, GroupStats: domain.GroupStats{Count: 2, Sum: 150, Mean: 75}},
		{Hour: 14, GroupStats: domain.GroupStats{Count: 1, Sum: -20, Mean: -20}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "hour,count,sum,mean\n9,2,150.000000,75.000000\n14,1,-20.000000,-20.000000\n"
	if out != want {
		t.Errorf("unexpected CSV:\n%s", out)
	}
}

func TestRenderSymbolsCSV_QuotesFields(t *testing.T) {
	out, err := RenderSymbolsCSV([]domain.SymbolStats{
		{Symbol: "ODD,NAME", GroupStats: domain.GroupStats{Count: 1, Sum: 10, Mean: 10}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"ODD,NAME",1,10.000000,10.000000`) {
		t.Errorf("expected quoted symbol, got:\n%s", out)
	}
}

func TestRenderEquityPathsCSV(t *testing.T) {
	out, err := RenderEquityPathsCSV([]domain.EquityPath{{100, 50}, {-10, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(lines))
	}
	if lines[0] != "path,trade,equity" || lines[2] != "1,2,50.000000" || lines[3] != "2,1,-10.000000" {
		t.Errorf("unexpected rows: %v", lines)
	}
}
