package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/types"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// coinIDs maps trading symbols to CoinGecko coin ids. Unknown symbols yield
// no history, which downstream treats as "no technical signal".
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"DOGE":  "dogecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"TRUMP": "official-trump",
	"PEPE":  "pepe",
	"BONK":  "bonk",
	"ETH":   "ethereum",
}

// Client fetches daily close history from the free CoinGecko API.
type Client struct {
	base string
	http *http.Client
}

var _ interfaces.PriceHistory = (*Client)(nil)

func New() *Client {
	return &Client{
		base: defaultBaseURL,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// DailyPrices returns chronological daily points. An unknown asset or a
// malformed payload returns an empty slice, not an error; only transport
// failures are errors.
func (c *Client) DailyPrices(ctx context.Context, asset string, days int) ([]types.PricePoint, error) {
	id, ok := coinIDs[asset]
	if !ok {
		logger.Debug(ctx, "No CoinGecko id for asset", "asset", asset)
		return nil, nil
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily", c.base, id, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "RavenTrader/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coingecko %s: http %d", id, resp.StatusCode)
	}

	var raw struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		logger.Warn(ctx, "Malformed market chart payload", "asset", asset, "error", err.Error())
		return nil, nil
	}

	out := make([]types.PricePoint, 0, len(raw.Prices))
	for _, p := range raw.Prices {
		out = append(out, types.PricePoint{Ts: int64(p[0]), Price: p[1]})
	}
	return out, nil
}
