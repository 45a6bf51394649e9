package tradelog

import (
	"strings"

	"raven-trader/internal/types"
)

// CostBasis replays the ledger for one asset and returns its weighted-average
// cost basis in dollars. A BUY adds the trade value and quantity; a SELL
// reduces the cumulative spend proportionally to the fraction of the held
// quantity sold, then subtracts the quantity. This is deliberately not
// FIFO/LIFO lot tracking.
//
// ok is false when no basis exists: no prior buys, or the position was
// already sold down to nothing.
func CostBasis(records []types.TradeRecord, asset string) (basis float64, ok bool) {
	var spent, qty float64
	prefix := asset + "-"
	for _, r := range records {
		if r.Symbol != asset && !strings.HasPrefix(r.Symbol, prefix) {
			continue
		}
		switch r.Side {
		case types.SideBuy:
			spent += r.Value
			qty += r.Quantity
		case types.SideSell:
			if qty > 0 {
				spent -= spent * (r.Quantity / qty)
			}
			qty -= r.Quantity
		}
	}
	if spent <= 0 {
		return 0, false
	}
	return spent, true
}

// RealizedPnL computes the profit of selling soldQty out of a position whose
// remaining basis is known, given the sale proceeds.
func RealizedPnL(records []types.TradeRecord, asset string, soldQty, heldQty, proceeds float64) float64 {
	basis, ok := CostBasis(records, asset)
	if !ok || heldQty <= 0 {
		return 0
	}
	return proceeds - basis*(soldQty/heldQty)
}
