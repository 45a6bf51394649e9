package brokerobs

import (
	"context"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/trace"
	"raven-trader/internal/types"
)

// observableBrokerage wraps a Brokerage with logging & tracing.
type observableBrokerage struct {
	brk interfaces.Brokerage
}

var _ interfaces.Brokerage = (*observableBrokerage)(nil)

func Wrap(brk interfaces.Brokerage) interfaces.Brokerage {
	return &observableBrokerage{
		brk: brk,
	}
}

func (ob *observableBrokerage) Account(ctx context.Context) (types.Account, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Account")
	defer span.End()

	// Skip(1) so log call sites point at the actual caller, not this wrapper.
	logger.DebugSkip(ctx, 1, "Fetching account")

	acct, err := ob.brk.Account(ctx)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch account", err)
		return types.Account{}, err
	}

	logger.DebugSkip(ctx, 1, "Account fetched", "buying_power", acct.BuyingPower)
	return acct, nil
}

func (ob *observableBrokerage) Holdings(ctx context.Context) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Holdings")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching holdings")

	holdings, err := ob.brk.Holdings(ctx)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Holdings fetched", "count", len(holdings))
	return holdings, nil
}

func (ob *observableBrokerage) BestPrices(ctx context.Context, symbols ...string) (map[string]float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.BestPrices")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching quotes", "symbols", len(symbols))

	prices, err := ob.brk.BestPrices(ctx, symbols...)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch quotes", err, "symbols", len(symbols))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Quotes fetched", "count", len(prices))
	return prices, nil
}

func (ob *observableBrokerage) Portfolio(ctx context.Context) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Portfolio")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching portfolio")

	portfolio, err := ob.brk.Portfolio(ctx)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch portfolio", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Portfolio fetched", "positions", len(portfolio))
	return portfolio, nil
}

func (ob *observableBrokerage) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"quantity", req.Quantity,
	)

	resp, err := ob.brk.PlaceOrder(ctx, req)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", string(req.Side),
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}
