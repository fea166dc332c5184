package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
)

// countingLimiter は待機した呼び出しの回数を記録します。
type countingLimiter struct {
	calls int
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls++
	return l.err
}

// newTestMarket は毎回 body を返すテストサーバーに向けたクライアントを生成します。
func newTestMarket(t *testing.T, status int, body string, check func(r *http.Request)) (*FMPMarket, *countingLimiter) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	limiter := &countingLimiter{}
	cfg := Config{APIKey: "test-key", BaseURL: server.URL}
	return NewFMPMarket(cfg, server.Client(), limiter), limiter
}

func TestNewFMPMarket_Defaults(t *testing.T) {
	t.Parallel()

	market := NewFMPMarket(Config{APIKey: "k", RateLimit: 5}, &http.Client{}, nil)

	assert.Equal(t, DefaultBaseURL, market.client.BaseURL)
	assert.NotNil(t, market.limiter)
}

func TestFMPMarket_GetCompanyProfile(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		market, limiter := newTestMarket(t, http.StatusOK,
			`[{"symbol":"AAPL","companyName":"Apple Inc.","sector":"Technology","industry":"Consumer Electronics"}]`,
			func(r *http.Request) {
				assert.Equal(t, "/profile", r.URL.Path)
				assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
				assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
			})

		p, err := market.GetCompanyProfile(context.Background(), "AAPL")

		require.NoError(t, err)
		assert.Equal(t, "Apple Inc.", p.CompanyName)
		assert.Equal(t, "Technology", p.Sector)
		assert.Equal(t, "Consumer Electronics", p.Industry)
		assert.Equal(t, 1, limiter.calls)
	})

	t.Run("missing classification defaults to Unknown", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[{"symbol":"SPY","companyName":"SPDR","sector":"","industry":null}]`, nil)

		p, err := market.GetCompanyProfile(context.Background(), "SPY")

		require.NoError(t, err)
		assert.Equal(t, "Unknown", p.Sector)
		assert.Equal(t, "Unknown", p.Industry)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[]`, nil)

		_, err := market.GetCompanyProfile(context.Background(), "BAD")

		assert.EqualError(t, err, "No profile data found for BAD")
	})
}

func TestFMPMarket_GetHistoricalEOD(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 12, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[
			{"symbol":"AAPL","date":"2025-01-08","open":242.1,"high":243.7,"low":240.05,"close":242.7,"volume":3.7628940e7,"change":0.6,"changePercent":0.25},
			{"symbol":"AAPL","date":"2025-01-07","open":242.98,"high":245.55,"low":241.35,"close":242.21,"volume":40855960}
		]`, func(r *http.Request) {
			assert.Equal(t, "/historical-price-eod/full", r.URL.Path)
			assert.Equal(t, "2024-12-08", r.URL.Query().Get("from"))
			assert.Equal(t, "2025-01-08", r.URL.Query().Get("to"))
		})

		bars, err := market.GetHistoricalEOD(context.Background(), "AAPL", from, to)

		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, entity.HistoricalPrice{
			Symbol: "AAPL", Date: to, Open: 242.1, High: 243.7, Low: 240.05, Close: 242.7,
			Volume: 37628940, Change: 0.6, ChangePercent: 0.25,
		}, bars[0])
		assert.Zero(t, bars[1].Change, "missing change defaults to zero")
		assert.Zero(t, bars[1].ChangePercent)
	})

	t.Run("empty payload is not an error", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[]`, nil)

		bars, err := market.GetHistoricalEOD(context.Background(), "AAPL", from, to)

		require.NoError(t, err)
		assert.Empty(t, bars)
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[{"date":"08/01/2025","open":1,"high":1,"low":1,"close":1}]`, nil)

		_, err := market.GetHistoricalEOD(context.Background(), "AAPL", from, to)

		assert.ErrorContains(t, err, "parse date")
	})
}

func TestFMPMarket_GetBatchQuote(t *testing.T) {
	t.Parallel()

	market, _ := newTestMarket(t, http.StatusOK, `[
		{"symbol":"AAPL","open":241,"dayHigh":244,"dayLow":240,"price":243.5,"volume":1200,"change":1.5,"changesPercentage":0.62,"timestamp":1736370000},
		{"symbol":"MSFT","open":420,"dayHigh":425,"dayLow":418,"price":424,"volume":900}
	]`, func(r *http.Request) {
		assert.Equal(t, "/batch-quote", r.URL.Path)
		assert.Equal(t, "AAPL,MSFT", r.URL.Query().Get("symbols"))
	})

	quotes, err := market.GetBatchQuote(context.Background(), []string{"AAPL", "MSFT"})

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 244.0, quotes[0].High)
	assert.Equal(t, 240.0, quotes[0].Low)
	assert.Equal(t, 243.5, quotes[0].Price)
	assert.Equal(t, 0.62, quotes[0].ChangePercent)
	assert.Equal(t, time.Unix(1736370000, 0).UTC(), quotes[0].Timestamp)
	assert.True(t, quotes[1].Timestamp.IsZero())
}

func TestFMPMarket_GetQuote(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[{"symbol":"TSLA","open":400,"dayHigh":410,"dayLow":395,"price":405,"volume":5000}]`,
			func(r *http.Request) { assert.Equal(t, "/quote", r.URL.Path) })

		q, err := market.GetQuote(context.Background(), "TSLA")

		require.NoError(t, err)
		assert.Equal(t, 405.0, q.Price)
		assert.Equal(t, int64(5000), q.Volume)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		market, _ := newTestMarket(t, http.StatusOK, `[]`, nil)

		_, err := market.GetQuote(context.Background(), "TSLA")

		assert.EqualError(t, err, "No quote data found for TSLA")
	})
}

func TestFMPMarket_HTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"Error Message":"Invalid API KEY."}`, "FMP API Error: 401 Unauthorized: Invalid API KEY."},
		{"too many requests", http.StatusTooManyRequests, ``, "FMP API Error: 429 Too Many Requests"},
		{"internal server error", http.StatusInternalServerError, `oops`, "FMP API Error: 500 Internal Server Error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			market, _ := newTestMarket(t, tt.statusCode, tt.body, nil)

			_, err := market.GetBatchQuote(context.Background(), []string{"AAPL"})

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestFMPMarket_ErrorMessageWithOKStatus(t *testing.T) {
	t.Parallel()

	market, _ := newTestMarket(t, http.StatusOK, `{"Error Message":"Limit Reach"}`, nil)

	_, err := market.GetCompanyProfile(context.Background(), "AAPL")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Limit Reach", apiErr.Message)
}

func TestFMPMarket_InvalidJSON(t *testing.T) {
	t.Parallel()

	market, _ := newTestMarket(t, http.StatusOK, `[{invalid json`, nil)

	_, err := market.GetBatchQuote(context.Background(), []string{"AAPL"})

	assert.ErrorContains(t, err, "decode fmp /batch-quote response")
}

func TestFMPMarket_RateLimiterError(t *testing.T) {
	t.Parallel()

	market, limiter := newTestMarket(t, http.StatusOK, `[]`, func(r *http.Request) {
		t.Error("request must not be sent when the limiter fails")
	})
	limiter.err = context.Canceled

	_, err := market.GetQuote(context.Background(), "AAPL")

	assert.True(t, errors.Is(err, context.Canceled))
}
