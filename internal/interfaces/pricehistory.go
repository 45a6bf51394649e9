package interfaces

import (
	"context"

	"raven-trader/internal/types"
)

// PriceHistory returns chronological daily closes for an asset. An empty
// slice (no error) means the provider had nothing usable for that asset.
type PriceHistory interface {
	DailyPrices(ctx context.Context, asset string, days int) ([]types.PricePoint, error)
}

// Technicals produces per-asset technical signals for one cycle. Assets whose
// history could not be analyzed are simply absent from the result.
type Technicals interface {
	AnalyzeAll(ctx context.Context, assets []string) map[string]*types.TechnicalSignal
}
