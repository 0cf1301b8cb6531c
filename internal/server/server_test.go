package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/smartsave/internal/analysis"
	"github.com/hongminglow/smartsave/internal/auth"
	"github.com/hongminglow/smartsave/internal/config"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models/dto"
	"github.com/hongminglow/smartsave/internal/payment"
	"github.com/hongminglow/smartsave/internal/storage/memory"
)

type stubCards struct{}

func (stubCards) CreateSession(ctx context.Context, req payment.CheckoutRequest) (string, error) {
	return "https://checkout.test/" + req.UserID, nil
}

func (stubCards) ConfirmSession(ctx context.Context, id string) (payment.SessionStatus, error) {
	return payment.SessionStatus{ID: id, Paid: true}, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig(analysisURL string) config.Config {
	return config.Config{
		Port:        "0",
		JWTSecret:   "secret",
		JWTIssuer:   "smartsave",
		JWTTTL:      time.Hour,
		CORSOrigins: []string{"*"},
		Gateway: config.GatewayConfig{
			MerchantID:  "M1",
			ClientID:    "C1",
			RequestKey:  "req-key",
			ResponseKey: "resp-key",
			BaseURL:     "https://gateway.test",
			Currency:    "INR",
		},
		AnalysisBaseURL:    analysisURL,
		UpstreamTimeout:    time.Second,
		DefaultLockDays:    90,
		CardSavingsPercent: decimal.NewFromInt(5),
	}
}

func TestEndToEnd_CallbackThenWithdraw(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	clk := &clock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	store := memory.New()
	ts := httptest.NewServer(NewHandler(cfg, Deps{
		Store:    store,
		Logger:   logging.Discard(),
		Cards:    stubCards{},
		Analysis: analysis.NewClient(upstream.URL, time.Second),
		Now:      clk.Now,
	}))
	defer ts.Close()

	token, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL).Generate("user-123")
	require.NoError(t, err)

	gateway := payment.NewGateway(cfg.Gateway)
	cb := payment.Callback{
		MerchantID:        "M1",
		ClientID:          "C1",
		OrderID:           payment.NewOrderID(clk.Now()),
		TransactionAmount: "150.40",
		Status:            payment.StatusSuccess,
		UserID:            "user-123",
	}
	form := url.Values{
		"merchantId":        {cb.MerchantID},
		"clientId":          {cb.ClientID},
		"orderId":           {cb.OrderID},
		"transactionAmount": {cb.TransactionAmount},
		"status":            {cb.Status},
		"userDefinedField1": {cb.UserID},
		"checksum":          {gateway.SignCallback(cb)},
	}
	resp, err := http.PostForm(ts.URL+"/api/callback", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	call := func(method, path, body string) (*http.Response, []byte) {
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		return resp, raw
	}

	_, raw := call(http.MethodGet, "/api/savings?userId=user-123", "")
	var list dto.SavingsResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, "0.60", list.TotalSaved)
	require.Len(t, list.Entries, 1)
	sv := list.Entries[0]
	assert.Equal(t, "0.60", sv.Amount)
	assert.Equal(t, clk.Now().Add(90*24*time.Hour), sv.LockedUntil)

	body := `{"userId":"user-123","savingId":"` + sv.ID + `"}`
	resp, _ = call(http.MethodPost, "/api/savings/withdraw", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	clk.Advance(90*24*time.Hour + time.Minute)
	resp, _ = call(http.MethodPost, "/api/savings/withdraw", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(http.MethodPost, "/api/savings/withdraw", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = call(http.MethodPost, "/api/stripe/checkout-session", `{"userId":"user-123","amount":"20"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"url":"https://checkout.test/user-123"}`, string(raw))

	resp, _ = call(http.MethodPost, "/api/stripe/save-payment", `{"userId":"user-123","amount":"100000.00"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_CORSAndIdentity(t *testing.T) {
	ts := httptest.NewServer(NewHandler(testConfig("http://127.0.0.1:1"), Deps{
		Store: memory.New(),
		Cards: stubCards{},
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/savings", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(ts.URL + "/api/savings?userId=user-123")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/seed-user")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
