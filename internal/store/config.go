package store

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules are the global trading constraints, passed into the engine as one
// immutable value at cycle start.
type Rules struct {
	MaxSingleTrade   float64  `yaml:"max_single_trade"`
	MaxDailyLoss     float64  `yaml:"max_daily_loss"`
	MinConfidence    int      `yaml:"min_confidence"`
	MaxTradesPerRun  int      `yaml:"max_trades_per_run"`
	MaxPositionPct   float64  `yaml:"max_position_pct"`
	DustUSD          float64  `yaml:"dust_usd"`
	MinPositionValue float64  `yaml:"min_position_value"`
	ExtremeBearish   int      `yaml:"extreme_bearish"`
	ProtectedAssets  []string `yaml:"protected_assets"`
	TradableSymbols  []string `yaml:"tradable_symbols"`
}

// Duration is a time.Duration that unmarshals from "2.5s" style YAML strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// PrecisionTier maps a price magnitude to an order-quantity decimal count.
// Tier boundaries encode brokerage lot-size rules and are deliberately
// configuration, not constants.
type PrecisionTier struct {
	MinPrice float64 `yaml:"min_price"`
	Decimals int     `yaml:"decimals"`
}

type Config struct {
	Mode    string `yaml:"mode"`
	DataDir string `yaml:"data_dir"`
	Rules   Rules  `yaml:"rules"`
	TA      struct {
		HistoryDays int      `yaml:"history_days"`
		MinPoints   int      `yaml:"min_points"`
		FetchDelay  Duration `yaml:"fetch_delay"`
		SMAShort    int      `yaml:"sma_short"`
		EMAMid      int      `yaml:"ema_mid"`
		SMALong     int      `yaml:"sma_long"`
		SMAFilter   int      `yaml:"sma_filter"`
		RSIPeriod   int      `yaml:"rsi_period"`
	} `yaml:"ta"`
	PrecisionTiers  []PrecisionTier `yaml:"precision_tiers"`
	DefaultDecimals int             `yaml:"default_decimals"`
	LLM             struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	News struct {
		Enabled      bool     `yaml:"enabled"`
		MaxHeadlines int      `yaml:"max_headlines"`
		CacheTTL     Duration `yaml:"cache_ttl"`
	} `yaml:"news"`
}

// Protected reports whether an asset is on the never-sell allow list.
func (r Rules) Protected(asset string) bool {
	for _, a := range r.ProtectedAssets {
		if strings.EqualFold(a, asset) {
			return true
		}
	}
	return false
}

// TradableAssets strips the quote suffix from the configured symbols.
func (r Rules) TradableAssets() []string {
	out := make([]string, 0, len(r.TradableSymbols))
	for _, s := range r.TradableSymbols {
		out = append(out, strings.TrimSuffix(s, "-USD"))
	}
	return out
}

// DecimalsFor picks the order-quantity precision for a price. Tiers are
// matched from the highest MinPrice down; prices under every tier get
// DefaultDecimals.
func (c *Config) DecimalsFor(price float64) int {
	for _, t := range c.PrecisionTiers {
		if price > t.MinPrice {
			return t.Decimals
		}
	}
	return c.DefaultDecimals
}

// RoundQuantity floors a raw quantity to the precision tier for the price, so
// the brokerage never sees a fraction it would reject.
func (c *Config) RoundQuantity(qty, price float64) float64 {
	p := math.Pow(10, float64(c.DecimalsFor(price)))
	return math.Floor(qty*p) / p
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Rules.TradableSymbols) == 0 {
		return fmt.Errorf("rules.tradable_symbols cannot be empty")
	}
	if c.Rules.MaxSingleTrade <= 0 {
		return fmt.Errorf("rules.max_single_trade must be positive, got %.2f", c.Rules.MaxSingleTrade)
	}
	if c.Rules.MaxDailyLoss <= 0 {
		return fmt.Errorf("rules.max_daily_loss must be positive, got %.2f", c.Rules.MaxDailyLoss)
	}
	if c.Rules.MaxPositionPct <= 0 || c.Rules.MaxPositionPct > 1 {
		return fmt.Errorf("rules.max_position_pct must be in (0,1], got %.2f", c.Rules.MaxPositionPct)
	}
	if c.Rules.MinConfidence < 0 || c.Rules.MinConfidence > 100 {
		return fmt.Errorf("rules.min_confidence must be in [0,100], got %d", c.Rules.MinConfidence)
	}
	if c.TA.MinPoints < c.TA.RSIPeriod+1 {
		return fmt.Errorf("ta.min_points %d is below rsi_period+1", c.TA.MinPoints)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Rules.MaxSingleTrade == 0 {
		c.Rules.MaxSingleTrade = 250
	}
	if c.Rules.MaxDailyLoss == 0 {
		c.Rules.MaxDailyLoss = 150
	}
	if c.Rules.MinConfidence == 0 {
		c.Rules.MinConfidence = 60
	}
	if c.Rules.MaxTradesPerRun == 0 {
		c.Rules.MaxTradesPerRun = 3
	}
	if c.Rules.MaxPositionPct == 0 {
		c.Rules.MaxPositionPct = 0.20
	}
	if c.Rules.DustUSD == 0 {
		c.Rules.DustUSD = 5
	}
	if c.Rules.MinPositionValue == 0 {
		c.Rules.MinPositionValue = 5
	}
	if c.Rules.ExtremeBearish == 0 {
		c.Rules.ExtremeBearish = -60
	}
	if c.TA.HistoryDays == 0 {
		c.TA.HistoryDays = 210
	}
	if c.TA.MinPoints == 0 {
		c.TA.MinPoints = 30
	}
	if c.TA.FetchDelay == 0 {
		c.TA.FetchDelay = Duration(2500 * time.Millisecond)
	}
	if c.TA.SMAShort == 0 {
		c.TA.SMAShort = 9
	}
	if c.TA.EMAMid == 0 {
		c.TA.EMAMid = 20
	}
	if c.TA.SMALong == 0 {
		c.TA.SMALong = 180
	}
	if c.TA.SMAFilter == 0 {
		c.TA.SMAFilter = 200
	}
	if c.TA.RSIPeriod == 0 {
		c.TA.RSIPeriod = 14
	}
	if len(c.PrecisionTiers) == 0 {
		c.PrecisionTiers = []PrecisionTier{
			{MinPrice: 10000, Decimals: 6},
			{MinPrice: 100, Decimals: 4},
			{MinPrice: 1, Decimals: 4},
			{MinPrice: 0.001, Decimals: 0},
		}
	}
	// Tiers must be checked highest first regardless of config order.
	sort.Slice(c.PrecisionTiers, func(i, j int) bool {
		return c.PrecisionTiers[i].MinPrice > c.PrecisionTiers[j].MinPrice
	})
	if c.LLM.Model == "" {
		c.LLM.Model = "grok-3-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 10
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = Duration(time.Hour)
	}
}
