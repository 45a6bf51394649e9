package noop

import (
	"context"

	"raven-trader/internal/types"
)

// Sentiment is the keyless stand-in: an empty but well-formed market read and
// no trade setups. Lets dry runs complete a full cycle without an API key.
type Sentiment struct{}

func New() *Sentiment { return &Sentiment{} }

func (*Sentiment) MarketSentiment(context.Context, []string, []string) (*types.MarketSentiment, string, error) {
	return &types.MarketSentiment{Coins: map[string]types.AssetSentiment{}}, "", nil
}

func (*Sentiment) TradeSetup(context.Context, string, float64, float64, float64) (*types.TradeSetup, string, error) {
	return nil, "", nil
}
