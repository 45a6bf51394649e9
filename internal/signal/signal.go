package signal

import (
	"context"
	"fmt"
	"math"
	"time"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/store"
	"raven-trader/internal/ta"
	"raven-trader/internal/types"
)

// Analyzer turns daily price history into a BUY/SELL/HOLD technical signal
// with a confidence score and the reasons that produced it.
type Analyzer struct {
	prices interfaces.PriceHistory
	cfg    *store.Config
	// sleep is replaceable in tests to skip the inter-request delay.
	sleep func(time.Duration)
}

var _ interfaces.Technicals = (*Analyzer)(nil)

func New(prices interfaces.PriceHistory, cfg *store.Config) *Analyzer {
	return &Analyzer{prices: prices, cfg: cfg, sleep: time.Sleep}
}

// Analyze computes the signal for a single asset. Too little history is an
// explicit error, not a HOLD.
func (a *Analyzer) Analyze(ctx context.Context, asset string) (*types.TechnicalSignal, error) {
	history, err := a.prices.DailyPrices(ctx, asset, a.cfg.TA.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("fetch price history for %s: %w", asset, err)
	}
	if len(history) < a.cfg.TA.MinPoints {
		return nil, fmt.Errorf("not enough price data for %s: %d points, need %d",
			asset, len(history), a.cfg.TA.MinPoints)
	}

	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Price
	}
	price := closes[len(closes)-1]

	inds := types.Indicators{
		SMA9:   ta.SMA(closes, a.cfg.TA.SMAShort),
		EMA20:  ta.EMA(closes, a.cfg.TA.EMAMid),
		SMA180: ta.SMA(closes, a.cfg.TA.SMALong),
		SMA200: ta.SMA(closes, a.cfg.TA.SMAFilter),
		RSI:    ta.RSI(closes, a.cfg.TA.RSIPeriod),
	}
	inds.MAAlignment = ta.Alignment(inds.SMA9, inds.EMA20, inds.SMA180)

	sig := decide(price, inds)
	sig.Asset = asset
	sig.CurrentPrice = price
	return sig, nil
}

// decide applies the signal rule over the indicators, in strict precedence:
// close above EMA20 and SMA9 with the 200-day filter passing is a BUY; close
// below EMA20 is a SELL that discards any BUY reasoning; anything else HOLDs.
// A missing SMA200 passes the 200-day filter; that is policy, not an accident.
func decide(price float64, inds types.Indicators) *types.TechnicalSignal {
	aboveFilter := math.IsNaN(inds.SMA200) || price > inds.SMA200
	overbought := !math.IsNaN(inds.RSI) && inds.RSI > 70
	oversold := !math.IsNaN(inds.RSI) && inds.RSI < 30

	signal := types.ActionHold
	confidence := 0
	var reasons []string

	switch {
	case price > inds.EMA20 && price > inds.SMA9 && aboveFilter:
		signal = types.ActionBuy
		confidence = 50
		reasons = append(reasons, "price closed above SMA(9) and EMA(20)")
		if inds.MAAlignment == types.AlignBullish {
			confidence += 20
			reasons = append(reasons, "MA alignment bullish (9>20>180)")
		}
		if !overbought {
			confidence += 10
			reasons = append(reasons, "RSI not overbought")
		} else {
			confidence -= 15
			reasons = append(reasons, "RSI overbought (>70), risky entry")
		}
	case price < inds.EMA20:
		signal = types.ActionSell
		confidence = 50
		reasons = []string{"price closed below EMA(20)"}
		if inds.MAAlignment == types.AlignBearish {
			confidence += 20
			reasons = append(reasons, "MA alignment bearish (180>20>9)")
		}
		if !math.IsNaN(inds.SMA200) && price < inds.SMA200 {
			confidence += 10
			reasons = append(reasons, "below 200-day average, bearish trend")
		}
	default:
		reasons = append(reasons, "no clear signal, between SMA(9) and EMA(20)")
		if !math.IsNaN(inds.SMA200) && price < inds.SMA200 {
			reasons = append(reasons, "below 200-day average, caution")
		}
		if oversold {
			reasons = append(reasons, "RSI oversold, potential bounce")
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return &types.TechnicalSignal{
		Signal:     signal,
		Confidence: confidence,
		Indicators: inds,
		Reasons:    reasons,
	}
}

// AnalyzeAll runs Analyze sequentially over the assets with a fixed delay
// between fetches to stay under the history provider's rate limit. Assets
// that fail are logged and left out of the result.
func (a *Analyzer) AnalyzeAll(ctx context.Context, assets []string) map[string]*types.TechnicalSignal {
	out := make(map[string]*types.TechnicalSignal, len(assets))
	for i, asset := range assets {
		if i > 0 {
			a.sleep(a.cfg.TA.FetchDelay.Std())
		}
		sig, err := a.Analyze(ctx, asset)
		if err != nil {
			logger.Warn(ctx, "Technical analysis skipped", "asset", asset, "error", err)
			continue
		}
		logger.Debug(ctx, "Technical signal",
			"asset", asset,
			"signal", sig.Signal,
			"confidence", sig.Confidence,
			"alignment", sig.Indicators.MAAlignment,
		)
		out[asset] = sig
	}
	return out
}
