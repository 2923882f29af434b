package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinview/internal"
)

type fakeUpstream struct {
	price    float64
	logo     string
	points   []internal.PricePoint
	priceErr error
	chartErr error

	gotCoin, gotCurrency, gotDays string
}

func (f *fakeUpstream) SimplePrice(_ context.Context, coin, currency string) (float64, error) {
	f.gotCoin, f.gotCurrency = coin, currency
	return f.price, f.priceErr
}

func (f *fakeUpstream) Logo(context.Context, string) (string, error) {
	return f.logo, nil
}

func (f *fakeUpstream) MarketChart(_ context.Context, _, _, days string) ([]internal.PricePoint, error) {
	f.gotDays = days
	return f.points, f.chartErr
}

func post(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/coin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHandleCoin_Success(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	up := &fakeUpstream{
		price: 65000,
		logo:  "https://x/btc.png",
		points: []internal.PricePoint{
			{Timestamp: day, Price: 60000},
			{Timestamp: day.AddDate(0, 0, 1), Price: 61000.5},
		},
	}
	s := New(":0", up)

	rec, out := post(t, s, `{"coin":" Bitcoin","currency":"USD","days":"7"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "bitcoin", up.gotCoin)
	assert.Equal(t, "usd", up.gotCurrency)
	assert.Equal(t, "7", up.gotDays)

	assert.Equal(t, 65000.0, out["price"])
	assert.Equal(t, "https://x/btc.png", out["logo_url"])
	assert.Equal(t, []any{"01.03.2024", "02.03.2024"}, out["labels"])
	assert.Equal(t, []any{60000.0, 61000.5}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestHandleCoin_IntradayLabels(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s := New(":0", &fakeUpstream{points: []internal.PricePoint{{Timestamp: at, Price: 1}}})

	_, out := post(t, s, `{"coin":"btc","currency":"usd","days":"1"}`)
	assert.Equal(t, []any{"09:30"}, out["labels"])
}

func TestHandleCoin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		up     *fakeUpstream
		status int
		msg    string
	}{
		{name: "bad json", body: `{`, up: &fakeUpstream{}, status: http.StatusBadRequest, msg: msgBadBody},
		{name: "empty coin", body: `{"coin":"","currency":"usd","days":"7"}`, up: &fakeUpstream{}, status: http.StatusBadRequest, msg: msgNoCoin},
		{name: "empty currency", body: `{"coin":"btc","currency":"","days":"7"}`, up: &fakeUpstream{}, status: http.StatusBadRequest, msg: msgNoCurrency},
		{name: "bad days", body: `{"coin":"btc","currency":"usd","days":"3"}`, up: &fakeUpstream{}, status: http.StatusBadRequest, msg: msgBadDays},
		{name: "unknown coin", body: `{"coin":"nope","currency":"usd","days":"7"}`, up: &fakeUpstream{priceErr: ErrCoinNotFound}, status: http.StatusNotFound, msg: "coin not found"},
		{
			name: "no data", body: `{"coin":"btc","currency":"usd","days":"max"}`,
			up:     &fakeUpstream{chartErr: ErrNoPriceData},
			status: http.StatusNotFound, msg: "No price data available for btc for the last max days.",
		},
		{name: "rate limited", body: `{"coin":"btc","currency":"usd","days":"7"}`, up: &fakeUpstream{priceErr: ErrRateLimited}, status: http.StatusServiceUnavailable, msg: msgRateLimited},
		{name: "timeout", body: `{"coin":"btc","currency":"usd","days":"7"}`, up: &fakeUpstream{priceErr: context.DeadlineExceeded}, status: http.StatusGatewayTimeout, msg: msgTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := post(t, New(":0", tt.up), tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, out["error"])
		})
	}
}

func TestHandleCoin_OversizedBody(t *testing.T) {
	up := &fakeUpstream{price: 1}
	body := `{"coin":"` + strings.Repeat("a", maxBodyBytes) + `","currency":"usd","days":"7"}`

	rec, out := post(t, New(":0", up), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgBadBody, out["error"])
	assert.Empty(t, up.gotCoin)
}

func TestHealth(t *testing.T) {
	s := New(":0", &fakeUpstream{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	s := New(":0", &fakeUpstream{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

// The client and the API agree on the wire format.
func TestPriceClientAgainstServer(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	up := &fakeUpstream{price: 0.5, logo: "l.png", points: []internal.PricePoint{{Timestamp: day, Price: 0.4}}}
	srv := httptest.NewServer(New(":0", up).Handler())
	defer srv.Close()

	c := internal.NewPriceClient(internal.ClientOptions{BaseURL: srv.URL})
	resp, err := c.FetchPrice(context.Background(), internal.QueryInput{Coin: "eth", Currency: "try", Days: "7"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, resp.Price)
	assert.Equal(t, []string{"01.03.2024"}, resp.Labels)
	assert.Equal(t, "ETH Fiyatı: 0.5 TRY", internal.FormatPriceText(internal.QueryInput{Coin: "eth", Currency: "try"}, resp.Price))

	_, err = c.FetchPrice(context.Background(), internal.QueryInput{Coin: "eth", Currency: "try", Days: "2"})
	var perr *internal.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, internal.KindBackend, perr.Kind)
	assert.Equal(t, msgBadDays, perr.Message)
}
