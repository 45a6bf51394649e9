package interfaces

import (
	"context"

	"raven-trader/internal/types"
)

// Brokerage is the order-execution collaborator. Implementations must return
// an error for any order the exchange did not accept; the engine only records
// a ledger entry after a successful creation response.
type Brokerage interface {
	Account(ctx context.Context) (types.Account, error)
	Holdings(ctx context.Context) ([]types.Holding, error)
	BestPrices(ctx context.Context, symbols ...string) (map[string]float64, error)
	Portfolio(ctx context.Context) ([]types.Holding, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
