package engine

import (
	"context"
	"time"

	"raven-trader/internal/fusion"
	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/store"
	"raven-trader/internal/tradelog"
	"raven-trader/internal/types"
)

// Engine runs one full decision cycle: portfolio snapshot, sentiment,
// technical analysis, fusion, risk-gated planning, execution, bookkeeping.
type Engine struct {
	cfg        *store.Config
	brk        interfaces.Brokerage
	llm        interfaces.Sentiment
	technicals interfaces.Technicals
	news       interfaces.Headlines // nil disables the headline context
	log        *tradelog.Store
	now        func() time.Time
}

func New(
	cfg *store.Config,
	brk interfaces.Brokerage,
	llm interfaces.Sentiment,
	technicals interfaces.Technicals,
	news interfaces.Headlines,
	log *tradelog.Store,
) *Engine {
	return &Engine{
		cfg:        cfg,
		brk:        brk,
		llm:        llm,
		technicals: technicals,
		news:       news,
		log:        log,
		now:        time.Now,
	}
}

const maxHeadlines = 10

// Run executes a single cycle. The circuit breaker is checked before any
// collaborator is contacted, so a tripped breaker costs no API calls.
func (e *Engine) Run(ctx context.Context) (*types.CycleResult, error) {
	st, err := e.log.LoadState()
	if err != nil {
		return nil, err
	}

	today := e.now().UTC().Format("2006-01-02")
	if st.LastTradeDate != today {
		if st.LastTradeDate != "" {
			logger.Info(ctx, "New trading day, resetting daily P&L", "previous", st.LastTradeDate, "daily_pnl", st.DailyPnL)
		}
		st.DailyPnL = 0
		st.LastTradeDate = today
	}

	if st.DailyPnL <= -e.cfg.Rules.MaxDailyLoss {
		logger.Risk(ctx, "*", "CIRCUIT_BREAKER",
			"daily_pnl", st.DailyPnL,
			"max_daily_loss", e.cfg.Rules.MaxDailyLoss,
		)
		if err := e.log.SaveState(st); err != nil {
			return nil, err
		}
		return &types.CycleResult{
			Status: types.StatusStopped,
			Reason: "daily loss limit reached",
		}, nil
	}

	acct, err := e.brk.Account(ctx)
	if err != nil {
		return nil, err
	}
	portfolio, err := e.brk.Portfolio(ctx)
	if err != nil {
		return nil, err
	}

	holdings := make(map[string]types.Holding, len(portfolio))
	totalValue := acct.BuyingPower
	for _, h := range portfolio {
		holdings[h.Asset] = h
		totalValue += h.Value
	}
	logger.Info(ctx, "Portfolio snapshot",
		"positions", len(portfolio),
		"buying_power", acct.BuyingPower,
		"total_value", totalValue,
	)

	assets := e.cfg.Rules.TradableAssets()

	var headlines []string
	if e.news != nil {
		headlines, err = e.news.Recent(ctx, assets, maxHeadlines)
		if err != nil {
			logger.Warn(ctx, "Headline fetch failed, continuing without", "error", err.Error())
			headlines = nil
		}
	}

	market, raw, err := e.llm.MarketSentiment(ctx, assets, headlines)
	if err != nil {
		return nil, err
	}
	if market == nil {
		logger.Error(ctx, "Sentiment response had no parsable payload", "raw_len", len(raw))
		if err := e.log.SaveState(st); err != nil {
			return nil, err
		}
		return &types.CycleResult{
			Status: types.StatusError,
			Reason: "sentiment parse failure",
		}, nil
	}

	technicals := e.technicals.AnalyzeAll(ctx, assets)

	records, err := e.log.All()
	if err != nil {
		logger.Warn(ctx, "Trade ledger unreadable, cost basis unavailable", "error", err.Error())
		records = nil
	}
	basis := func(asset string) (float64, bool) {
		return tradelog.CostBasis(records, asset)
	}

	policy := fusion.NewPolicy(e.cfg.Rules, e.llm, basis)
	candidates := policy.Plan(ctx, market, technicals, holdings, acct.BuyingPower)
	logger.Info(ctx, "Cycle candidates", "count", len(candidates))

	executed := e.execute(ctx, candidates, records, acct.BuyingPower, totalValue, &st)

	if err := e.log.SaveState(st); err != nil {
		return nil, err
	}
	return &types.CycleResult{
		Status:           types.StatusCompleted,
		TradesExecuted:   executed,
		OverallSentiment: market.Overall.Value,
	}, nil
}
