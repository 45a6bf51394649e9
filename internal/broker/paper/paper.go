// Package paper provides an in-memory brokerage stand-in, used when no
// Robinhood credentials are configured and the engine runs in dry-run mode.
// It holds no positions and accepts every order as simulated, so a keyless
// cycle completes end to end without touching the network.
package paper

import (
	"context"
	"fmt"
	"sync/atomic"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/types"
)

const DefaultBuyingPower = 10000

type Broker struct {
	buyingPower float64
	seq         atomic.Int64
}

var _ interfaces.Brokerage = (*Broker)(nil)

func New(buyingPower float64) *Broker {
	if buyingPower <= 0 {
		buyingPower = DefaultBuyingPower
	}
	return &Broker{buyingPower: buyingPower}
}

func (b *Broker) Account(ctx context.Context) (types.Account, error) {
	return types.Account{BuyingPower: b.buyingPower}, nil
}

func (b *Broker) Holdings(ctx context.Context) ([]types.Holding, error) {
	return nil, nil
}

func (b *Broker) BestPrices(ctx context.Context, symbols ...string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func (b *Broker) Portfolio(ctx context.Context) ([]types.Holding, error) {
	return nil, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	id := fmt.Sprintf("PAPER-%d", b.seq.Add(1))
	logger.Info(ctx, "Paper order",
		"symbol", req.Symbol,
		"side", string(req.Side),
		"quantity", req.Quantity,
		"order_id", id,
	)
	return types.OrderResp{OrderID: id, Status: "simulated"}, nil
}
