package paper

import (
	"context"
	"testing"

	"raven-trader/internal/types"
)

func TestAccountReportsConfiguredBuyingPower(t *testing.T) {
	acct, err := New(2500).Account(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.BuyingPower != 2500 {
		t.Errorf("buying power = %v, want 2500", acct.BuyingPower)
	}
}

func TestZeroBuyingPowerFallsBackToDefault(t *testing.T) {
	acct, err := New(0).Account(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.BuyingPower != DefaultBuyingPower {
		t.Errorf("buying power = %v, want %v", acct.BuyingPower, DefaultBuyingPower)
	}
}

func TestEmptyPortfolio(t *testing.T) {
	b := New(1000)
	holdings, err := b.Portfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 0 {
		t.Errorf("got %d holdings, want 0", len(holdings))
	}
}

func TestOrdersAreSimulatedWithUniqueIDs(t *testing.T) {
	b := New(1000)
	first, err := b.PlaceOrder(context.Background(), types.OrderReq{Symbol: "SOL-USD", Side: types.SideBuy, Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.PlaceOrder(context.Background(), types.OrderReq{Symbol: "SOL-USD", Side: types.SideSell, Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != "simulated" || second.Status != "simulated" {
		t.Errorf("statuses = %q, %q; want simulated", first.Status, second.Status)
	}
	if first.OrderID == "" || first.OrderID == second.OrderID {
		t.Errorf("order ids %q and %q must be distinct and non-empty", first.OrderID, second.OrderID)
	}
}
