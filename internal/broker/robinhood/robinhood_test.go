package robinhood

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"raven-trader/internal/types"
)

var testSeed = make([]byte, ed25519.SeedSize)

func testParams(baseURL string) Params {
	return Params{
		Mode:          "LIVE",
		APIKey:        "rh-key",
		PrivateKeyB64: base64.StdEncoding.EncodeToString(testSeed),
		BaseURL:       baseURL,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Robinhood, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	rh, err := New(testParams(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	rh.now = func() time.Time { return time.Unix(1700000000, 0) }
	return rh, srv
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New(Params{PrivateKeyB64: "not base64!!"}); err == nil {
		t.Error("want error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := New(Params{PrivateKeyB64: short}); err == nil {
		t.Error("want error for wrong seed length")
	}
}

func TestRequestSigning(t *testing.T) {
	pub := ed25519.NewKeyFromSeed(testSeed).Public().(ed25519.PublicKey)

	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "rh-key" {
			t.Errorf("x-api-key = %q", got)
		}
		ts := r.Header.Get("x-timestamp")
		if ts != "1700000000" {
			t.Errorf("x-timestamp = %q", ts)
		}
		sig, err := base64.StdEncoding.DecodeString(r.Header.Get("x-signature"))
		if err != nil {
			t.Fatalf("signature not base64: %v", err)
		}
		message := "rh-key" + ts + "/api/v1/crypto/trading/accounts/" + "GET"
		if !ed25519.Verify(pub, []byte(message), sig) {
			t.Error("signature does not verify over apiKey+timestamp+path+method+body")
		}
		io.WriteString(w, `{"buying_power": "123.45"}`)
	}))

	acct, err := rh.Account(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if acct.BuyingPower != 123.45 {
		t.Errorf("buying power = %v, want 123.45", acct.BuyingPower)
	}
}

func TestPortfolioJoinsQuotesAndSorts(t *testing.T) {
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/crypto/trading/holdings/":
			io.WriteString(w, `{"results": [
				{"asset_code": "DOGE", "total_quantity": "1000", "quantity_available_for_trading": "1000"},
				{"asset_code": "BTC", "total_quantity": "0.5", "quantity_available_for_trading": "0.5"}
			]}`)
		case "/api/v1/crypto/marketdata/best_bid_ask/":
			io.WriteString(w, `{"results": [
				{"symbol": "DOGE-USD", "price": "0.30"},
				{"symbol": "BTC-USD", "price": "60000"}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	got, err := rh.Portfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2", len(got))
	}
	if got[0].Asset != "BTC" || got[0].Value != 30000 {
		t.Errorf("largest position = %+v, want BTC worth 30000", got[0])
	}
	if got[1].Asset != "DOGE" || got[1].Value != 300 {
		t.Errorf("second position = %+v, want DOGE worth 300", got[1])
	}
}

func TestPortfolioEmptyHoldingsSkipsQuotes(t *testing.T) {
	quoteCalls := 0
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/crypto/marketdata/best_bid_ask/" {
			quoteCalls++
		}
		io.WriteString(w, `{"results": []}`)
	}))

	got, err := rh.Portfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 || quoteCalls != 0 {
		t.Errorf("got %d positions, %d quote calls; want 0, 0", len(got), quoteCalls)
	}
}

func TestDryRunOrderIsSimulated(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := testParams(srv.URL)
	p.Mode = "DRY_RUN"
	rh, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := rh.PlaceOrder(context.Background(), types.OrderReq{
		Symbol: "SOL-USD", Side: types.SideBuy, Quantity: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "simulated" || resp.OrderID == "" {
		t.Errorf("resp = %+v, want simulated with an id", resp)
	}
	if called {
		t.Error("dry run must not hit the API")
	}
}

func TestLiveOrderPayload(t *testing.T) {
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/crypto/trading/orders/" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{
			`"side":"sell"`, `"type":"market"`, `"symbol":"SOL-USD"`, `"asset_quantity":"1.5"`, `"client_order_id"`,
		} {
			if !strings.Contains(string(body), want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
		io.WriteString(w, `{"id": "abc-123", "state": "open"}`)
	}))

	resp, err := rh.PlaceOrder(context.Background(), types.OrderReq{
		Symbol: "SOL-USD", Side: types.SideSell, Quantity: 1.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.OrderID != "abc-123" || resp.Status != "open" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLimitOrderPayload(t *testing.T) {
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{
			`"side":"buy"`, `"type":"limit"`, `"limit_price":"95.5"`, `"time_in_force":"gtc"`, `"asset_quantity":"2"`,
		} {
			if !strings.Contains(string(body), want) {
				t.Errorf("body missing %s: %s", want, body)
			}
		}
		io.WriteString(w, `{"id": "lim-1", "state": "open"}`)
	}))

	resp, err := rh.PlaceLimitOrder(context.Background(), types.OrderReq{
		Symbol: "SOL-USD", Side: types.SideBuy, Quantity: 2,
	}, 95.5, "")
	if err != nil {
		t.Fatal(err)
	}
	if resp.OrderID != "lim-1" || resp.Status != "open" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOrderQueryAndCancel(t *testing.T) {
	var cancelled bool
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/crypto/trading/orders/abc-123/":
			io.WriteString(w, `{"id": "abc-123", "state": "filled"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/crypto/trading/orders/abc-123/cancel/":
			cancelled = true
			io.WriteString(w, `{}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))

	got, err := rh.Order(context.Background(), "abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if got.OrderID != "abc-123" || got.Status != "filled" {
		t.Errorf("order = %+v", got)
	}
	if err := rh.CancelOrder(context.Background(), "abc-123"); err != nil {
		t.Fatal(err)
	}
	if !cancelled {
		t.Error("cancel endpoint not hit")
	}
}

func TestHTTPErrorSurfaces(t *testing.T) {
	rh, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "forbidden"}`, http.StatusForbidden)
	}))
	if _, err := rh.Account(context.Background()); err == nil {
		t.Fatal("want error for http 403")
	}
}
