package llmobs

import (
	"context"
	"time"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/trace"
	"raven-trader/internal/types"
)

// observableSentiment wraps a Sentiment collaborator with logging & tracing.
type observableSentiment struct {
	llm interfaces.Sentiment
}

var _ interfaces.Sentiment = (*observableSentiment)(nil)

func Wrap(llm interfaces.Sentiment) interfaces.Sentiment {
	return &observableSentiment{
		llm: llm,
	}
}

func (os *observableSentiment) MarketSentiment(ctx context.Context, assets []string, headlines []string) (*types.MarketSentiment, string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.MarketSentiment")
	defer span.End()

	start := time.Now()

	// Skip(1) so log call sites point at the actual caller, not this wrapper.
	logger.DebugSkip(ctx, 1, "Requesting market sentiment",
		"assets", len(assets),
		"headlines", len(headlines),
	)

	parsed, raw, err := os.llm.MarketSentiment(ctx, assets, headlines)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Market sentiment request failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}

	if parsed == nil {
		logger.WarnSkip(ctx, 1, "Market sentiment reply unparsable",
			"raw_len", len(raw),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, nil
	}

	logger.InfoSkip(ctx, 1, "Market sentiment received",
		"overall", parsed.Overall.Value,
		"coins", len(parsed.Coins),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return parsed, raw, nil
}

func (os *observableSentiment) TradeSetup(ctx context.Context, symbol string, price, holdings, buyingPower float64) (*types.TradeSetup, string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.TradeSetup")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Requesting trade setup",
		"symbol", symbol,
		"price", price,
	)

	parsed, raw, err := os.llm.TradeSetup(ctx, symbol, price, holdings, buyingPower)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErrSkip(ctx, 1, "Trade setup request failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}

	if parsed == nil {
		logger.WarnSkip(ctx, 1, "Trade setup reply unparsable",
			"symbol", symbol,
			"raw_len", len(raw),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, nil
	}

	logger.InfoSkip(ctx, 1, "Trade setup received",
		"symbol", symbol,
		"action", parsed.Action,
		"confidence", parsed.Confidence,
		"amount_usd", parsed.AmountUSD,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return parsed, raw, nil
}
