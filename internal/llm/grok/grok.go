package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"raven-trader/internal/logger"
	"raven-trader/internal/store"
	"raven-trader/internal/types"
)

const defaultEndpoint = "https://api.x.ai/v1/chat/completions"

// Client calls the xAI chat completions API. The model's reply is free text;
// callers get back both the extracted struct (nil when nothing parsable was
// found) and the raw reply for diagnostics.
type Client struct {
	cfg      *store.Config
	endpoint string
	http     *http.Client
}

func New(cfg *store.Config) *Client {
	endpoint := defaultEndpoint
	if ep := os.Getenv("XAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) MarketSentiment(ctx context.Context, assets []string, headlines []string) (*types.MarketSentiment, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze current crypto market sentiment for these assets: %s.\n", strings.Join(assets, ", "))
	if len(headlines) > 0 {
		b.WriteString("Recent headlines for context:\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString(`Respond ONLY with compact JSON:
{"overall_sentiment": <-100..100>, "macro_factors": "<one line>", "coins": {"<ASSET>": {"sentiment": <-100..100>, "catalysts": "<one line>", "outlook": "<one line>", "action": "BUY|SELL|HOLD"}}}
Include every listed asset under "coins".`)

	raw, err := c.complete(ctx, "You are a crypto market analyst. Be specific and numeric. Output strict JSON only.", b.String())
	if err != nil {
		return nil, raw, err
	}

	payload := extractJSON(raw)
	if payload == "" {
		logger.Warn(ctx, "Sentiment reply contained no JSON object", "raw_len", len(raw))
		return nil, raw, nil
	}
	var out types.MarketSentiment
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		logger.Warn(ctx, "Sentiment JSON did not unmarshal", "error", err.Error())
		return nil, raw, nil
	}
	return &out, raw, nil
}

func (c *Client) TradeSetup(ctx context.Context, symbol string, price, holdings, buyingPower float64) (*types.TradeSetup, string, error) {
	user := fmt.Sprintf(`Propose a trade for %s.
Current price: %.6f USD. Currently held: %.6f units. Cash available: %.2f USD.
Respond ONLY with compact JSON:
{"action": "BUY|HOLD", "confidence": <0..100>, "amount_usd": <number>, "reasoning": "<one line>", "entry_price": <number>, "target_price": <number>, "stop_loss_price": <number>}`,
		symbol, price, holdings, buyingPower)

	raw, err := c.complete(ctx, "You are a disciplined crypto trader. Size positions conservatively. Output strict JSON only.", user)
	if err != nil {
		return nil, raw, err
	}

	payload := extractJSON(raw)
	if payload == "" {
		logger.Warn(ctx, "Trade setup reply contained no JSON object", "symbol", symbol, "raw_len", len(raw))
		return nil, raw, nil
	}
	var out types.TradeSetup
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		logger.Warn(ctx, "Trade setup JSON did not unmarshal", "symbol", symbol, "error", err.Error())
		return nil, raw, nil
	}
	return &out, raw, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	apiKey := os.Getenv("XAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("XAI_API_KEY missing")
	}

	body := map[string]any{
		"model": c.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": c.cfg.LLM.Temperature,
		"max_tokens":  c.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("xai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}

// extractJSON returns the outermost {...} block of s, tolerating markdown
// fences and prose around it. Empty when no braces are present.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
