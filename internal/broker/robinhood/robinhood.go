package robinhood

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"raven-trader/internal/interfaces"
	"raven-trader/internal/logger"
	"raven-trader/internal/types"
)

const defaultBaseURL = "https://trading.robinhood.com"

type Params struct {
	Mode          string // "LIVE" places real orders, anything else simulates
	APIKey        string
	PrivateKeyB64 string // base64 ed25519 seed
	BaseURL       string
}

// Robinhood is the crypto trading API client. Requests are signed with an
// ed25519 key over apiKey+timestamp+path+method+body, per the API's scheme.
type Robinhood struct {
	p    Params
	key  ed25519.PrivateKey
	base string
	http *http.Client
	now  func() time.Time
}

var _ interfaces.Brokerage = (*Robinhood)(nil)

func New(p Params) (*Robinhood, error) {
	seed, err := base64.StdEncoding.DecodeString(p.PrivateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	base := p.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Robinhood{
		p:    p,
		key:  ed25519.NewKeyFromSeed(seed),
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
	}, nil
}

func (r *Robinhood) request(ctx context.Context, method, path string, body any, out any) error {
	var bodyStr string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyStr = string(b)
	}

	timestamp := strconv.FormatInt(r.now().Unix(), 10)
	message := r.p.APIKey + timestamp + path + method + bodyStr
	signature := base64.StdEncoding.EncodeToString(ed25519.Sign(r.key, []byte(message)))

	var rd io.Reader
	if bodyStr != "" {
		rd = strings.NewReader(bodyStr)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", r.p.APIKey)
	req.Header.Set("x-signature", signature)
	req.Header.Set("x-timestamp", timestamp)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("robinhood %s %s: http %d: %s", method, path, resp.StatusCode, truncateBody(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func truncateBody(b []byte) string {
	const max = 300
	s := string(bytes.TrimSpace(b))
	if len(s) > max {
		return s[:max]
	}
	return s
}

func (r *Robinhood) Account(ctx context.Context) (types.Account, error) {
	var raw struct {
		BuyingPower string `json:"buying_power"`
	}
	if err := r.request(ctx, http.MethodGet, "/api/v1/crypto/trading/accounts/", nil, &raw); err != nil {
		return types.Account{}, err
	}
	bp, err := strconv.ParseFloat(raw.BuyingPower, 64)
	if err != nil {
		return types.Account{}, fmt.Errorf("parse buying_power %q: %w", raw.BuyingPower, err)
	}
	return types.Account{BuyingPower: bp}, nil
}

type holdingRow struct {
	AssetCode          string `json:"asset_code"`
	TotalQuantity      string `json:"total_quantity"`
	QuantityForTrading string `json:"quantity_available_for_trading"`
}

func (r *Robinhood) Holdings(ctx context.Context) ([]types.Holding, error) {
	var raw struct {
		Results []holdingRow `json:"results"`
	}
	if err := r.request(ctx, http.MethodGet, "/api/v1/crypto/trading/holdings/", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]types.Holding, 0, len(raw.Results))
	for _, h := range raw.Results {
		qty, _ := strconv.ParseFloat(h.TotalQuantity, 64)
		avail, _ := strconv.ParseFloat(h.QuantityForTrading, 64)
		out = append(out, types.Holding{
			Asset:     h.AssetCode,
			Quantity:  qty,
			Available: avail,
		})
	}
	return out, nil
}

func (r *Robinhood) BestPrices(ctx context.Context, symbols ...string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	params := make([]string, 0, len(symbols))
	for _, s := range symbols {
		params = append(params, "symbol="+s)
	}
	var raw struct {
		Results []struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		} `json:"results"`
	}
	path := "/api/v1/crypto/marketdata/best_bid_ask/?" + strings.Join(params, "&")
	if err := r.request(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw.Results))
	for _, p := range raw.Results {
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			logger.Warn(ctx, "Unparsable quote skipped", "symbol", p.Symbol, "price", p.Price)
			continue
		}
		out[p.Symbol] = price
	}
	return out, nil
}

// Portfolio joins holdings with live quotes and returns positions sorted by
// value, largest first. Assets without a quote get a zero price rather than
// dropping out; the caller decides what to do with them.
func (r *Robinhood) Portfolio(ctx context.Context) ([]types.Holding, error) {
	holdings, err := r.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Asset+"-USD")
	}
	prices, err := r.BestPrices(ctx, symbols...)
	if err != nil {
		return nil, err
	}

	for i := range holdings {
		h := &holdings[i]
		h.Price = prices[h.Asset+"-USD"]
		h.Value = h.Quantity * h.Price
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Value > holdings[j].Value })
	return holdings, nil
}

func (r *Robinhood) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if r.p.Mode != "LIVE" {
		id := fmt.Sprintf("SIM-%d", r.now().UnixNano())
		logger.Info(ctx, "Simulated order",
			"symbol", req.Symbol,
			"side", string(req.Side),
			"quantity", req.Quantity,
			"order_id", id,
		)
		return types.OrderResp{OrderID: id, Status: "simulated"}, nil
	}

	body := map[string]any{
		"client_order_id": uuid.NewString(),
		"side":            strings.ToLower(string(req.Side)),
		"type":            "market",
		"symbol":          req.Symbol,
		"market_order_config": map[string]string{
			"asset_quantity": strconv.FormatFloat(req.Quantity, 'f', -1, 64),
		},
	}
	var raw struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := r.request(ctx, http.MethodPost, "/api/v1/crypto/trading/orders/", body, &raw); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: raw.ID, Status: raw.State}, nil
}

// PlaceLimitOrder submits a limit order. timeInForce defaults to "gtc" when
// empty. Not part of the Brokerage interface; the automated cycle only uses
// market orders.
func (r *Robinhood) PlaceLimitOrder(ctx context.Context, req types.OrderReq, limitPrice float64, timeInForce string) (types.OrderResp, error) {
	if timeInForce == "" {
		timeInForce = "gtc"
	}
	if r.p.Mode != "LIVE" {
		id := fmt.Sprintf("SIM-%d", r.now().UnixNano())
		logger.Info(ctx, "Simulated limit order",
			"symbol", req.Symbol,
			"side", string(req.Side),
			"quantity", req.Quantity,
			"limit_price", limitPrice,
			"order_id", id,
		)
		return types.OrderResp{OrderID: id, Status: "simulated"}, nil
	}

	body := map[string]any{
		"client_order_id": uuid.NewString(),
		"side":            strings.ToLower(string(req.Side)),
		"type":            "limit",
		"symbol":          req.Symbol,
		"limit_order_config": map[string]string{
			"asset_quantity": strconv.FormatFloat(req.Quantity, 'f', -1, 64),
			"limit_price":    strconv.FormatFloat(limitPrice, 'f', -1, 64),
			"time_in_force":  timeInForce,
		},
	}
	var raw struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := r.request(ctx, http.MethodPost, "/api/v1/crypto/trading/orders/", body, &raw); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: raw.ID, Status: raw.State}, nil
}

// Order fetches the current state of a previously placed order.
func (r *Robinhood) Order(ctx context.Context, orderID string) (types.OrderResp, error) {
	var raw struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := r.request(ctx, http.MethodGet, "/api/v1/crypto/trading/orders/"+orderID+"/", nil, &raw); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: raw.ID, Status: raw.State}, nil
}

// CancelOrder requests cancellation of an open order. The exchange may still
// fill it before the cancel lands.
func (r *Robinhood) CancelOrder(ctx context.Context, orderID string) error {
	return r.request(ctx, http.MethodPost, "/api/v1/crypto/trading/orders/"+orderID+"/cancel/", nil, nil)
}
