package tradelog

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"raven-trader/internal/types"
)

func TestAppendAndReplay(t *testing.T) {
	s := NewStore(t.TempDir())

	r1 := types.TradeRecord{
		Timestamp: "2026-09-01T12:00:00Z", Symbol: "DOGE-USD", Side: types.SideBuy,
		Quantity: 100, Price: 0.25, Value: 25, Reasoning: "test buy", Confidence: 70, OrderID: "o-1",
	}
	r2 := types.TradeRecord{
		Timestamp: "2026-09-01T13:00:00Z", Symbol: "DOGE-USD", Side: types.SideSell,
		Quantity: 50, Price: 0.30, Value: 15, Reasoning: "test sell", Confidence: 65, OrderID: "o-2",
	}
	if err := s.Append(r1); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(r2); err != nil {
		t.Fatal(err)
	}

	records, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("replayed %d records, want 2", len(records))
	}
	if records[0].OrderID != "o-1" || records[1].OrderID != "o-2" {
		t.Error("ledger order not preserved")
	}

	// Markdown log got a line per fill.
	md, err := os.ReadFile(filepath.Join(s.dir, "log.md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(md) == 0 {
		t.Error("expected markdown log lines")
	}
}

func TestAllMissingLedger(t *testing.T) {
	s := NewStore(t.TempDir())
	records, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())

	st, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if st.DailyPnL != 0 || st.LastTradeDate != "" {
		t.Errorf("expected zero state for missing file, got %+v", st)
	}

	st = types.EngineState{DailyPnL: -42.5, LastTradeDate: "2026-09-01", TotalPnL: 110.25}
	if err := s.SaveState(st); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if got != st {
		t.Errorf("state round trip: got %+v, want %+v", got, st)
	}
}

func TestCostBasisProportionalReduction(t *testing.T) {
	records := []types.TradeRecord{
		{Symbol: "SOL-USD", Side: types.SideBuy, Quantity: 10, Value: 100},
		{Symbol: "SOL-USD", Side: types.SideSell, Quantity: 5, Value: 80},
	}
	basis, ok := CostBasis(records, "SOL")
	if !ok {
		t.Fatal("expected a basis")
	}
	// Selling half the position halves the basis, regardless of sale price.
	if math.Abs(basis-50) > 1e-9 {
		t.Errorf("basis = %v, want 50", basis)
	}
}

func TestCostBasisNoBuys(t *testing.T) {
	records := []types.TradeRecord{
		{Symbol: "XRP-USD", Side: types.SideSell, Quantity: 5, Value: 10},
	}
	if _, ok := CostBasis(records, "XRP"); ok {
		t.Error("expected no basis with no prior buys")
	}
	if _, ok := CostBasis(nil, "XRP"); ok {
		t.Error("expected no basis for empty ledger")
	}
}

func TestCostBasisFullySold(t *testing.T) {
	records := []types.TradeRecord{
		{Symbol: "PEPE-USD", Side: types.SideBuy, Quantity: 1000, Value: 20},
		{Symbol: "PEPE-USD", Side: types.SideSell, Quantity: 1000, Value: 30},
	}
	if _, ok := CostBasis(records, "PEPE"); ok {
		t.Error("expected no basis after position fully sold")
	}
}

func TestCostBasisIgnoresOtherAssets(t *testing.T) {
	records := []types.TradeRecord{
		{Symbol: "BTC-USD", Side: types.SideBuy, Quantity: 1, Value: 60000},
		{Symbol: "BONK-USD", Side: types.SideBuy, Quantity: 100, Value: 2},
	}
	basis, ok := CostBasis(records, "BTC")
	if !ok || basis != 60000 {
		t.Errorf("basis = %v ok=%v, want 60000", basis, ok)
	}
}

func TestRealizedPnL(t *testing.T) {
	records := []types.TradeRecord{
		{Symbol: "SOL-USD", Side: types.SideBuy, Quantity: 10, Value: 100},
	}
	// Selling half for $80 against a $50 basis slice.
	pnl := RealizedPnL(records, "SOL", 5, 10, 80)
	if math.Abs(pnl-30) > 1e-9 {
		t.Errorf("pnl = %v, want 30", pnl)
	}
}
