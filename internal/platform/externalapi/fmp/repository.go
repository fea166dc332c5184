package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
	"stock_dashboard/internal/feature/marketsync/usecase"
	stockentity "stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/platform/externalapi/fmp/dto"
	"stock_dashboard/internal/shared/markettime"
	"stock_dashboard/internal/shared/ratelimiter"
)

// unknownClassification は sector/industry が空の銘柄に使う値です。
const unknownClassification = "Unknown"

// APIError はFMPが2xx以外のステータスを返したことを表します。
type APIError struct {
	StatusCode int
	Status     string
	Message    string // FMPが返したエラーメッセージ（あれば）
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("FMP API Error: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("FMP API Error: %d %s", e.StatusCode, e.Status)
}

// FMPMarket はFMP外部APIから株価データを取得するMarketRepository実装です。
type FMPMarket struct {
	cfg     Config
	client  *resty.Client
	limiter ratelimiter.Waiter
}

// FMPMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*FMPMarket)(nil)

// NewFMPMarket は指定された設定とHTTPクライアントでFMPMarketの新しいインスタンスを生成します。
// limiter が nil の場合は cfg.RateLimit からレートリミッターを作成します。
func NewFMPMarket(cfg Config, httpClient *http.Client, limiter ratelimiter.Waiter) *FMPMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter("fmp", cfg.RateLimit, cfg.RateBurst)
	}
	client := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	return &FMPMarket{cfg: cfg, client: client, limiter: limiter}
}

// get はレート制限を待ってからGETを実行し、レスポンスボディをoutにデコードします。
func (f *FMPMarket) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("fmp rate limiter: %w", err)
	}

	// APIキーはすべてのリクエストに付与
	params["apikey"] = f.cfg.APIKey

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("fmp %s: %w", path, err)
	}

	body := bytes.TrimSpace(resp.Body())
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Status: http.StatusText(resp.StatusCode())}
		var e dto.ErrorResponse
		if json.Unmarshal(body, &e) == nil {
			apiErr.Message = e.ErrorMessage
		}
		slog.Error("FMP API error", "path", path, "status", resp.StatusCode())
		return apiErr
	}

	// 拒否されたリクエストは200で {"Error Message": "..."} を返すことがある
	if len(body) > 0 && body[0] == '{' {
		var e dto.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.ErrorMessage != "" {
			return &APIError{StatusCode: resp.StatusCode(), Status: http.StatusText(resp.StatusCode()), Message: e.ErrorMessage}
		}
	}

	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode fmp %s response: %w", path, err)
	}
	return nil
}

// GetCompanyProfile は銘柄の会社名・セクター・業種を取得します。
func (f *FMPMarket) GetCompanyProfile(ctx context.Context, symbol string) (*stockentity.CompanyProfile, error) {
	var body []dto.ProfileResponse
	if err := f.get(ctx, "/profile", map[string]string{"symbol": symbol}, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("No profile data found for %s", symbol)
	}

	p := body[0]
	return &stockentity.CompanyProfile{
		Symbol:      p.Symbol,
		CompanyName: p.CompanyName,
		Sector:      orUnknown(p.Sector),
		Industry:    orUnknown(p.Industry),
	}, nil
}

// GetHistoricalEOD は [from, to] の確定済み日足を取得します。データがなければ空スライスを返します。
func (f *FMPMarket) GetHistoricalEOD(ctx context.Context, symbol string, from, to time.Time) ([]entity.HistoricalPrice, error) {
	params := map[string]string{
		"symbol": symbol,
		"from":   markettime.FormatDate(from),
		"to":     markettime.FormatDate(to),
	}
	var body []dto.HistoricalBarResponse
	if err := f.get(ctx, "/historical-price-eod/full", params, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		slog.Warn("no historical data found", "symbol", symbol)
		return []entity.HistoricalPrice{}, nil
	}

	out := make([]entity.HistoricalPrice, 0, len(body))
	for _, b := range body {
		// 日付をパース
		d, err := time.Parse(time.DateOnly, b.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", b.Date, err)
		}
		out = append(out, entity.HistoricalPrice{
			Symbol:        symbol,
			Date:          d,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        toVolume(b.Volume),
			Change:        b.Change,
			ChangePercent: b.ChangePercent,
		})
	}
	slog.Info("fetched historical data", "symbol", symbol, "records", len(out))
	return out, nil
}

// GetBatchQuote は複数銘柄の現在値を1回のリクエストで取得します。
func (f *FMPMarket) GetBatchQuote(ctx context.Context, symbols []string) ([]entity.Quote, error) {
	var body []dto.QuoteResponse
	if err := f.get(ctx, "/batch-quote", map[string]string{"symbols": strings.Join(symbols, ",")}, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		slog.Warn("no quote data returned", "symbols", len(symbols))
		return []entity.Quote{}, nil
	}

	out := make([]entity.Quote, 0, len(body))
	for _, q := range body {
		out = append(out, toQuote(q))
	}
	return out, nil
}

// GetQuote は1銘柄の現在値を取得します。
func (f *FMPMarket) GetQuote(ctx context.Context, symbol string) (*entity.Quote, error) {
	var body []dto.QuoteResponse
	if err := f.get(ctx, "/quote", map[string]string{"symbol": symbol}, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("No quote data found for %s", symbol)
	}
	q := toQuote(body[0])
	return &q, nil
}

func toQuote(q dto.QuoteResponse) entity.Quote {
	var ts time.Time
	if q.Timestamp > 0 {
		ts = time.Unix(q.Timestamp, 0).UTC()
	}
	return entity.Quote{
		Symbol:        q.Symbol,
		Open:          q.Open,
		High:          q.DayHigh,
		Low:           q.DayLow,
		Price:         q.Price,
		Volume:        toVolume(q.Volume),
		Change:        q.Change,
		ChangePercent: q.ChangesPercentage,
		Timestamp:     ts,
	}
}

// toVolume はJSONの数値を出来高に変換します。FMPは指数表記を返すことがある。
func toVolume(v float64) int64 {
	return int64(math.Round(v))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownClassification
	}
	return s
}
