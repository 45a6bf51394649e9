package engine

import (
	"context"
	"sort"
	"time"

	"raven-trader/internal/logger"
	"raven-trader/internal/tradelog"
	"raven-trader/internal/types"
)

// execute ranks candidates by confidence and places at most MaxTradesPerRun
// orders, re-checking buying power and concentration per order. Failed orders
// do not count against the per-run cap.
func (e *Engine) execute(
	ctx context.Context,
	candidates []types.CandidateAction,
	records []types.TradeRecord,
	buyingPower, totalValue float64,
	st *types.EngineState,
) int {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	executed := 0
	for _, c := range candidates {
		if executed >= e.cfg.Rules.MaxTradesPerRun {
			logger.Risk(ctx, c.Asset, "TRADE_CAP_REACHED", "max_trades_per_run", e.cfg.Rules.MaxTradesPerRun)
			break
		}

		amount := c.AmountUSD
		if amount > e.cfg.Rules.MaxSingleTrade {
			amount = e.cfg.Rules.MaxSingleTrade
		}
		if amount < e.cfg.Rules.DustUSD {
			logger.Risk(ctx, c.Asset, "DUST_AMOUNT_SKIP", "amount_usd", amount)
			continue
		}

		var qty float64
		switch c.Action {
		case types.SideBuy:
			if amount > buyingPower {
				logger.Risk(ctx, c.Asset, "INSUFFICIENT_BUYING_POWER", "amount_usd", amount, "buying_power", buyingPower)
				continue
			}
			if totalValue > 0 && (c.CurrentValue+amount)/totalValue > e.cfg.Rules.MaxPositionPct {
				logger.Risk(ctx, c.Asset, "CONCENTRATION_LIMIT",
					"position_value", c.CurrentValue,
					"amount_usd", amount,
					"total_value", totalValue,
					"max_position_pct", e.cfg.Rules.MaxPositionPct,
				)
				continue
			}
			qty = e.cfg.RoundQuantity(amount/c.CurrentPrice, c.CurrentPrice)
		case types.SideSell:
			frac := amount / c.CurrentValue
			if frac > 1 {
				frac = 1
			}
			qty = e.cfg.RoundQuantity(frac*c.CurrentQty, c.CurrentPrice)
		default:
			continue
		}
		if qty <= 0 {
			logger.Risk(ctx, c.Asset, "QUANTITY_ROUNDED_TO_ZERO", "amount_usd", amount, "price", c.CurrentPrice)
			continue
		}

		resp, err := e.brk.PlaceOrder(ctx, types.OrderReq{
			Symbol:   c.Symbol,
			Side:     c.Action,
			Quantity: qty,
		})
		if err != nil {
			logger.ErrorWithErr(ctx, "Order placement failed", err,
				"symbol", c.Symbol,
				"side", string(c.Action),
				"quantity", qty,
			)
			continue
		}

		value := qty * c.CurrentPrice
		rec := types.TradeRecord{
			Timestamp:  e.now().UTC().Format(time.RFC3339),
			Symbol:     c.Symbol,
			Side:       c.Action,
			Quantity:   qty,
			Price:      c.CurrentPrice,
			Value:      value,
			Reasoning:  c.Reasoning,
			Confidence: c.Confidence,
			OrderID:    resp.OrderID,
		}
		if err := e.log.Append(rec); err != nil {
			logger.ErrorWithErr(ctx, "Ledger append failed", err, "symbol", c.Symbol, "order_id", resp.OrderID)
		}

		switch c.Action {
		case types.SideBuy:
			buyingPower -= value
		case types.SideSell:
			pnl := tradelog.RealizedPnL(records, c.Asset, qty, c.CurrentQty, value)
			st.DailyPnL += pnl
			st.TotalPnL += pnl
		}

		logger.Trade(ctx, c.Symbol, string(c.Action), qty, c.CurrentPrice, resp.OrderID)
		executed++
	}
	return executed
}
