package fusion

import (
	"context"
	"fmt"
	"strings"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/store"
	"raven-trader/internal/types"
)

// Decision is the immutable per-asset record the override rules operate on.
// Rules never mutate it; each returns a possibly-updated copy, so precedence
// stays auditable and each rule is testable on its own.
type Decision struct {
	Asset     string
	Sentiment types.AssetSentiment
	Technical *types.TechnicalSignal // nil when analysis was unavailable
	Holding   types.Holding          // zero-value when the asset is not held

	Action types.Action // the effective action so far
	Note   string       // why the last rule changed it, for logging
}

func (d Decision) technicalAction() types.Action {
	if d.Technical == nil {
		return ""
	}
	return d.Technical.Signal
}

type rule struct {
	name  string
	apply func(Decision) Decision
}

// The override pipeline, in spec precedence. Order is load-bearing.
var rules = []rule{
	{"negative_sentiment_guard", func(d Decision) Decision {
		if d.Sentiment.Sentiment.Valid && d.Sentiment.Sentiment.Value < 0 && d.Action == types.ActionBuy {
			d.Action = types.ActionHold
			d.Note = fmt.Sprintf("sentiment negative (%d) but action was BUY", d.Sentiment.Sentiment.Value)
		}
		return d
	}},
	{"technical_buy_veto", func(d Decision) Decision {
		if d.technicalAction() == types.ActionSell && d.Action == types.ActionBuy {
			d.Action = types.ActionHold
			d.Note = "technical SELL blocks BUY"
		}
		return d
	}},
	{"technical_exit_escalation", func(d Decision) Decision {
		if d.technicalAction() == types.ActionSell && d.Action == types.ActionHold && d.Holding.Quantity > 0 {
			d.Action = types.ActionSell
			d.Note = "technical SELL on held asset escalates HOLD"
		}
		return d
	}},
}

// EffectiveAction runs the override pipeline over the sentiment's stated
// action and returns the final decision record.
func EffectiveAction(d Decision) Decision {
	d.Action = normalizeAction(d.Sentiment.Action)
	for _, r := range rules {
		d = r.apply(d)
	}
	return d
}

func normalizeAction(s string) types.Action {
	switch types.Action(strings.ToUpper(strings.TrimSpace(s))) {
	case types.ActionBuy:
		return types.ActionBuy
	case types.ActionSell:
		return types.ActionSell
	default:
		return types.ActionHold
	}
}

// BasisFunc resolves the weighted-average cost basis for an asset.
type BasisFunc func(asset string) (float64, bool)

// Policy fuses sentiment, technical signals, and portfolio state into at most
// one candidate action per asset.
type Policy struct {
	rules store.Rules
	llm   interfaces.Sentiment
	basis BasisFunc
}

func NewPolicy(rules store.Rules, llm interfaces.Sentiment, basis BasisFunc) *Policy {
	return &Policy{rules: rules, llm: llm, basis: basis}
}

// Plan walks the configured tradable assets in order and emits candidates
// for those with a sentiment entry. Ranking is the planner's job, but the
// walk order is fixed so confidence ties rank the same way every cycle.
func (p *Policy) Plan(
	ctx context.Context,
	market *types.MarketSentiment,
	technicals map[string]*types.TechnicalSignal,
	holdings map[string]types.Holding,
	buyingPower float64,
) []types.CandidateAction {
	var candidates []types.CandidateAction
	for _, asset := range p.rules.TradableAssets() {
		senti, ok := market.Coins[asset]
		if !ok {
			continue
		}

		d := EffectiveAction(Decision{
			Asset:     asset,
			Sentiment: senti,
			Technical: technicals[asset],
			Holding:   holdings[asset],
		})
		if d.Note != "" {
			logger.Decision(ctx, asset, string(d.Action), 0, d.Note)
		}

		switch d.Action {
		case types.ActionSell:
			if c, ok := p.sellCandidate(ctx, d); ok {
				candidates = append(candidates, c)
			}
		case types.ActionBuy:
			if c, ok := p.buyCandidate(ctx, d, buyingPower); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

// sellCandidate applies the sell-side policy: protected assets are never
// sold; profitable positions are trimmed by half; losing positions are only
// cut (by a quarter) under extreme bearish sentiment.
func (p *Policy) sellCandidate(ctx context.Context, d Decision) (types.CandidateAction, bool) {
	if p.rules.Protected(d.Asset) {
		logger.Risk(ctx, d.Asset, "PROTECTED_ASSET_SKIP", "note", "long-term hold, sell suppressed")
		return types.CandidateAction{}, false
	}
	h := d.Holding
	if h.Quantity <= 0 || h.Value <= p.rules.MinPositionValue {
		return types.CandidateAction{}, false
	}

	confidence := 70
	if d.Sentiment.Sentiment.Valid && d.Sentiment.Sentiment.Value != 0 {
		confidence = abs(d.Sentiment.Sentiment.Value)
	}

	basis, hasBasis := p.basis(d.Asset)
	inProfit := hasBasis && h.Value > basis
	extremelyBearish := d.Sentiment.Sentiment.Valid && d.Sentiment.Sentiment.Value <= p.rules.ExtremeBearish

	switch {
	case inProfit:
		logger.Info(ctx, "Profit-take sell", "asset", d.Asset, "value", h.Value, "basis", basis)
		return types.CandidateAction{
			Asset: d.Asset, Symbol: d.Asset + "-USD", Action: types.SideSell,
			Confidence: confidence, AmountUSD: h.Value * 0.5,
			CurrentPrice: h.Price, CurrentQty: h.Quantity, CurrentValue: h.Value,
			Reasoning: truncate(fmt.Sprintf("PROFIT TAKE (%d): %s", d.Sentiment.Sentiment.Value, d.Sentiment.Catalysts), 200),
		}, true
	case extremelyBearish:
		logger.Info(ctx, "Loss-cut sell", "asset", d.Asset, "sentiment", d.Sentiment.Sentiment.Value)
		// Deliberately smaller than a profit take.
		return types.CandidateAction{
			Asset: d.Asset, Symbol: d.Asset + "-USD", Action: types.SideSell,
			Confidence: confidence, AmountUSD: h.Value * 0.25,
			CurrentPrice: h.Price, CurrentQty: h.Quantity, CurrentValue: h.Value,
			Reasoning: truncate(fmt.Sprintf("LOSS CUT, extreme bearish (%d): %s", d.Sentiment.Sentiment.Value, d.Sentiment.Catalysts), 200),
		}, true
	default:
		logger.Info(ctx, "Refusing to sell at a loss", "asset", d.Asset, "value", h.Value, "basis", basis)
		return types.CandidateAction{}, false
	}
}

// buyCandidate asks the sentiment collaborator for a concrete trade setup and
// adjusts its confidence by how much the technical signal agrees.
func (p *Policy) buyCandidate(ctx context.Context, d Decision, buyingPower float64) (types.CandidateAction, bool) {
	h := d.Holding
	if h.Price <= 0 {
		return types.CandidateAction{}, false
	}
	symbol := d.Asset + "-USD"

	setup, _, err := p.llm.TradeSetup(ctx, symbol, h.Price, h.Quantity, buyingPower)
	if err != nil {
		logger.ErrorWithErr(ctx, "Trade setup request failed", err, "asset", d.Asset)
		return types.CandidateAction{}, false
	}
	if setup == nil || normalizeAction(setup.Action) != types.ActionBuy {
		logger.Debug(ctx, "Trade setup did not confirm BUY", "asset", d.Asset)
		return types.CandidateAction{}, false
	}

	confidence := setup.Confidence
	switch d.technicalAction() {
	case types.ActionBuy:
		confidence += 15
	case types.ActionHold:
		confidence -= 10
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < p.rules.MinConfidence {
		logger.Risk(ctx, d.Asset, "CONFIDENCE_TOO_LOW", "confidence", confidence, "min", p.rules.MinConfidence)
		return types.CandidateAction{}, false
	}

	return types.CandidateAction{
		Asset: d.Asset, Symbol: symbol, Action: types.SideBuy,
		Confidence: confidence, AmountUSD: setup.AmountUSD,
		CurrentPrice: h.Price, CurrentQty: h.Quantity, CurrentValue: h.Value,
		Reasoning: truncate("[sentiment+technical] "+setup.Reasoning, 200),
	}, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
