package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

type Alignment string

const (
	AlignBullish Alignment = "bullish"
	AlignBearish Alignment = "bearish"
	AlignMixed   Alignment = "mixed"
	AlignUnknown Alignment = "unknown"
)

// PricePoint is one daily close from the price-history provider.
type PricePoint struct {
	Ts    int64   `json:"timestamp"`
	Price float64 `json:"price"`
}

// Indicators uses NaN for any value the price history was too short to compute.
type Indicators struct {
	SMA9        float64   `json:"sma9"`
	EMA20       float64   `json:"ema20"`
	SMA180      float64   `json:"sma180"`
	SMA200      float64   `json:"sma200"`
	RSI         float64   `json:"rsi"`
	MAAlignment Alignment `json:"ma_alignment"`
}

// TechnicalSignal is produced fresh each cycle and never persisted.
type TechnicalSignal struct {
	Asset        string     `json:"asset"`
	CurrentPrice float64    `json:"current_price"`
	Signal       Action     `json:"signal"`
	Confidence   int        `json:"confidence"`
	Indicators   Indicators `json:"indicators"`
	Reasons      []string   `json:"reasons"`
}

// Score is a sentiment number from an LLM response. The response is untrusted:
// the field may be absent, null, a bare number, or a quoted number. Anything
// else leaves Valid false instead of failing the whole parse.
type Score struct {
	Value int
	Valid bool
}

func (s *Score) UnmarshalJSON(b []byte) error {
	s.Valid = false
	t := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if t == "" || t == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a usable score.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f < -100 {
		f = -100
	}
	if f > 100 {
		f = 100
	}
	s.Value = int(f)
	s.Valid = true
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// AssetSentiment is the per-asset slice of the LLM market read.
type AssetSentiment struct {
	Sentiment Score  `json:"sentiment"`
	Catalysts string `json:"catalysts"`
	Outlook   string `json:"outlook"`
	Action    string `json:"action"`
}

// MarketSentiment is the structured market read extracted from the LLM reply.
type MarketSentiment struct {
	Overall      Score                     `json:"overall_sentiment"`
	MacroFactors string                    `json:"macro_factors"`
	Coins        map[string]AssetSentiment `json:"coins"`
}

// TradeSetup is the detailed per-symbol proposal requested before a BUY.
type TradeSetup struct {
	Action        string  `json:"action"`
	Confidence    int     `json:"confidence"`
	AmountUSD     float64 `json:"amount_usd"`
	Reasoning     string  `json:"reasoning"`
	EntryPrice    float64 `json:"entry_price"`
	TargetPrice   float64 `json:"target_price"`
	StopLossPrice float64 `json:"stop_loss_price"`
}

// Holding is a read-only snapshot row of the portfolio for one cycle.
type Holding struct {
	Asset     string  `json:"asset"`
	Quantity  float64 `json:"quantity"`
	Available float64 `json:"available"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"`
}

type Account struct {
	BuyingPower float64 `json:"buying_power"`
}

// TradeRecord is one ledger entry. The ledger is append-only and is the sole
// source of truth for cost basis.
type TradeRecord struct {
	Timestamp  string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Side       Side    `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	Reasoning  string  `json:"reasoning"`
	Confidence int     `json:"confidence"`
	OrderID    string  `json:"order_id"`
}

// EngineState is loaded at cycle start and overwritten at cycle end.
// DailyPnL resets to zero when LastTradeDate differs from the current date.
type EngineState struct {
	DailyPnL      float64 `json:"daily_pnl"`
	LastTradeDate string  `json:"last_trade_date"`
	TotalPnL      float64 `json:"total_pnl"`
}

// CandidateAction lives only within a cycle, between fusion and planning.
type CandidateAction struct {
	Asset        string  `json:"asset"`
	Symbol       string  `json:"symbol"`
	Action       Side    `json:"action"`
	Confidence   int     `json:"confidence"`
	AmountUSD    float64 `json:"amount_usd"`
	CurrentPrice float64 `json:"current_price"`
	CurrentQty   float64 `json:"current_qty"`
	CurrentValue float64 `json:"current_value"`
	Reasoning    string  `json:"reasoning"`
}

type OrderReq struct {
	Symbol   string
	Side     Side
	Quantity float64
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CycleStatus string

const (
	StatusCompleted CycleStatus = "COMPLETED"
	StatusStopped   CycleStatus = "STOPPED"
	StatusError     CycleStatus = "ERROR"
)

// CycleResult is the summary returned by one engine run.
type CycleResult struct {
	Status           CycleStatus `json:"status"`
	Reason           string      `json:"reason,omitempty"`
	TradesExecuted   int         `json:"trades_executed"`
	OverallSentiment int         `json:"overall_sentiment"`
}
