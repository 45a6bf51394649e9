package interfaces

import (
	"context"

	"raven-trader/internal/types"
)

// Sentiment is the LLM collaborator. The model's reply is free text; parsed is
// nil when no structured block could be extracted, with raw carrying the reply
// for diagnostics. A nil parsed result is "no signal", not an error.
type Sentiment interface {
	MarketSentiment(ctx context.Context, assets []string, headlines []string) (parsed *types.MarketSentiment, raw string, err error)
	TradeSetup(ctx context.Context, symbol string, price, holdings, buyingPower float64) (parsed *types.TradeSetup, raw string, err error)
}
