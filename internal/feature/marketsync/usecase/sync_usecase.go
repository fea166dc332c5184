// Package usecase は外部プロバイダから市場データを取得し、
// stocks テーブルに反映する同期処理を実装します。
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
	stockentity "stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/shared/markettime"
)

const (
	// DefaultHistoryMonths は初回同期で遡る月数です。
	DefaultHistoryMonths = 1

	noQuoteDataMessage = "No quote data available from API"
)

// MarketRepository は外部の市場データプロバイダからデータを取得します。
// Goの慣習に従い、インターフェースは提供側（adapters）ではなく利用側（usecase）で定義します。
type MarketRepository interface {
	GetCompanyProfile(ctx context.Context, symbol string) (*stockentity.CompanyProfile, error)
	GetHistoricalEOD(ctx context.Context, symbol string, from, to time.Time) ([]entity.HistoricalPrice, error)
	GetBatchQuote(ctx context.Context, symbols []string) ([]entity.Quote, error)
	GetQuote(ctx context.Context, symbol string) (*entity.Quote, error)
}

// StockWriter は同期処理が使う株価ストアの操作です。
type StockWriter interface {
	Upsert(ctx context.Context, s stockentity.Stock) error
	Count(ctx context.Context) (int64, error)
	// FindBySymbol は保存済みの行を新しい順に返します。
	FindBySymbol(ctx context.Context, symbol string) ([]stockentity.Stock, error)
}

// cacheInvalidator は書き込みの後でまとめて集計キャッシュを破棄できるストアです。
type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Config は同期で取得する対象を指定します。
type Config struct {
	Symbols       []string
	HistoryMonths int
}

// SyncUsecase は初回同期と通常同期を実行します。実行間で状態は持ちません。
type SyncUsecase struct {
	market  MarketRepository
	stocks  StockWriter
	logs    SyncLogRepository
	clock   *markettime.Clock
	symbols []string
	months  int
}

// NewSyncUsecase は SyncUsecase を生成します。
func NewSyncUsecase(market MarketRepository, stocks StockWriter, logs SyncLogRepository, clock *markettime.Clock, cfg Config) *SyncUsecase {
	months := cfg.HistoryMonths
	if months <= 0 {
		months = DefaultHistoryMonths
	}
	return &SyncUsecase{
		market:  market,
		stocks:  stocks,
		logs:    logs,
		clock:   clock,
		symbols: cfg.Symbols,
		months:  months,
	}
}

// Symbols は同期対象の銘柄一覧を返します。
func (u *SyncUsecase) Symbols() []string {
	return u.symbols
}

// NeedsInitialSync は stocks テーブルが空かどうかを返します。
func (u *SyncUsecase) NeedsInitialSync(ctx context.Context) (bool, error) {
	n, err := u.stocks.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count stocks: %w", err)
	}
	return n == 0, nil
}

// Trigger はストアが空なら初回同期、そうでなければ通常同期を実行します。
func (u *SyncUsecase) Trigger(ctx context.Context) (*entity.SyncResult, error) {
	needsInitial, err := u.NeedsInitialSync(ctx)
	if err != nil {
		return nil, err
	}
	if needsInitial {
		slog.Info("stock table is empty, running initial sync")
		return u.InitialSync(ctx)
	}
	return u.SyncStocks(ctx)
}

// InitialSync は全銘柄について HistoryMonths 分の確定済み日足を取り込みます。
// 銘柄は順番に処理し、失敗した銘柄は記録して飛ばします。
// 1銘柄でも失敗すれば partial としてログに残します。
func (u *SyncUsecase) InitialSync(ctx context.Context) (*entity.SyncResult, error) {
	start := u.clock.Now()
	today := u.clock.DateOf(start)
	from := markettime.SubtractMonths(today, u.months)

	slog.Info("initial sync started", "symbols", len(u.symbols),
		"from", markettime.FormatDate(from), "to", markettime.FormatDate(today))

	total := 0
	defer func() { u.invalidateCache(ctx, total) }()
	var symbolErrs []entity.SymbolError
	for _, symbol := range u.symbols {
		if err := ctx.Err(); err != nil {
			u.recordFailure(ctx, entity.SyncTypeInitial, total, err)
			return nil, fmt.Errorf("initial sync aborted: %w", err)
		}

		n, err := u.syncHistory(ctx, symbol, from, today)
		total += n
		if err != nil {
			slog.Error("failed to sync symbol", "symbol", symbol, "error", err)
			symbolErrs = append(symbolErrs, entity.SymbolError{Symbol: symbol, Error: err.Error()})
			continue
		}
		slog.Info("symbol synced", "symbol", symbol, "records", n)
	}

	entry := &entity.SyncLog{
		SyncType:      entity.SyncTypeInitial,
		RecordsSynced: total,
		Status:        entity.StatusSuccess,
	}
	if len(symbolErrs) > 0 {
		entry.Status = entity.StatusPartial
		msg, err := json.Marshal(symbolErrs)
		if err != nil {
			return nil, fmt.Errorf("encode symbol errors: %w", err)
		}
		s := string(msg)
		entry.ErrorMessage = &s
	}
	if err := u.logs.Create(ctx, entry); err != nil {
		u.recordFailure(ctx, entity.SyncTypeInitial, total, err)
		return nil, fmt.Errorf("write sync log: %w", err)
	}

	end := u.clock.Now()
	elapsed := end.Sub(start)
	slog.Info("initial sync completed", "records", total, "failed_symbols", len(symbolErrs), "duration", elapsed)

	return &entity.SyncResult{
		Mode:         entity.SyncTypeInitial,
		Success:      true,
		Message:      fmt.Sprintf("Initial sync completed in %s", formatSeconds(elapsed)),
		TotalRecords: total,
		Duration:     elapsed,
		LastSyncTime: end,
		Errors:       symbolErrs,
	}, nil
}

// syncHistory は1銘柄の日足を書き込み、エラーまでに書けた件数を返します。
func (u *SyncUsecase) syncHistory(ctx context.Context, symbol string, from, to time.Time) (int, error) {
	profile, err := u.market.GetCompanyProfile(ctx, symbol)
	if err != nil {
		return 0, err
	}
	bars, err := u.market.GetHistoricalEOD(ctx, symbol, from, to)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, bar := range bars {
		s := stockentity.Stock{
			Symbol:        symbol,
			CompanyName:   profile.CompanyName,
			Sector:        profile.Sector,
			Industry:      profile.Industry,
			OpenPrice:     bar.Open,
			HighPrice:     bar.High,
			LowPrice:      bar.Low,
			ClosePrice:    bar.Close,
			Volume:        bar.Volume,
			Change:        bar.Change,
			ChangePercent: bar.ChangePercent,
			Date:          bar.Date,
			IsFinal:       true,
		}
		if err := u.stocks.Upsert(ctx, s); err != nil {
			return written, fmt.Errorf("upsert %s %s: %w", symbol, markettime.FormatDate(bar.Date), err)
		}
		written++
	}
	return written, nil
}

// SyncStocks は1回のバッチ取得で全銘柄の当日行を更新します。
// 銘柄単位の失敗はログに残して飛ばし、実行自体は success として記録します。
// failed になるのはバッチ取得が失敗したときだけです。
func (u *SyncUsecase) SyncStocks(ctx context.Context) (*entity.SyncResult, error) {
	start := u.clock.Now()
	today := u.clock.DateOf(start)
	isFinal := u.clock.IsDataFinal(start)

	slog.Info("regular sync started", "symbols", len(u.symbols), "date", markettime.FormatDate(today), "is_final", isFinal)

	quotes, err := u.market.GetBatchQuote(ctx, u.symbols)
	if err != nil {
		u.recordFailure(ctx, entity.SyncTypeManual, 0, err)
		return nil, fmt.Errorf("fetch batch quote: %w", err)
	}
	if len(quotes) == 0 {
		slog.Warn("no quote data available")
		return &entity.SyncResult{
			Mode:    entity.SyncTypeManual,
			Success: false,
			Message: noQuoteDataMessage,
		}, nil
	}

	profiles := make(map[string]stockentity.CompanyProfile, len(quotes))
	total := 0
	defer func() { u.invalidateCache(ctx, total) }()
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			u.recordFailure(ctx, entity.SyncTypeManual, total, err)
			return nil, fmt.Errorf("sync aborted: %w", err)
		}
		if err := u.upsertQuote(ctx, q, today, isFinal, profiles); err != nil {
			slog.Error("failed to sync symbol", "symbol", q.Symbol, "error", err)
			continue
		}
		total++
	}

	entry := &entity.SyncLog{
		SyncType:      entity.SyncTypeManual,
		RecordsSynced: total,
		Status:        entity.StatusSuccess,
	}
	if err := u.logs.Create(ctx, entry); err != nil {
		u.recordFailure(ctx, entity.SyncTypeManual, total, err)
		return nil, fmt.Errorf("write sync log: %w", err)
	}

	end := u.clock.Now()
	elapsed := end.Sub(start)
	label := "(real-time)"
	if isFinal {
		label = "(final)"
	}
	slog.Info("regular sync completed", "records", total, "is_final", isFinal, "duration", elapsed)

	return &entity.SyncResult{
		Mode:         entity.SyncTypeManual,
		Success:      true,
		Message:      fmt.Sprintf("Synced %d stocks %s", total, label),
		TotalRecords: total,
		IsFinal:      isFinal,
		Duration:     elapsed,
		LastSyncTime: end,
	}, nil
}

// RefreshSymbol は1銘柄の当日行を quote エンドポイントから更新します。
func (u *SyncUsecase) RefreshSymbol(ctx context.Context, symbol string) (*entity.SyncResult, error) {
	start := u.clock.Now()
	today := u.clock.DateOf(start)
	isFinal := u.clock.IsDataFinal(start)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q, err := u.market.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	if err := u.upsertQuote(ctx, *q, today, isFinal, map[string]stockentity.CompanyProfile{}); err != nil {
		return nil, err
	}
	u.invalidateCache(ctx, 1)

	end := u.clock.Now()
	return &entity.SyncResult{
		Mode:         entity.SyncTypeManual,
		Success:      true,
		Message:      fmt.Sprintf("Synced %s", symbol),
		TotalRecords: 1,
		IsFinal:      isFinal,
		Duration:     end.Sub(start),
		LastSyncTime: end,
	}, nil
}

// invalidateCache は1回の同期で書いた行を集計キャッシュに反映させます。
// 中断された同期でも書けた分は反映するため、キャンセルされない context で破棄します。
func (u *SyncUsecase) invalidateCache(ctx context.Context, written int) {
	if written == 0 {
		return
	}
	if c, ok := u.stocks.(cacheInvalidator); ok {
		c.Invalidate(context.WithoutCancel(ctx))
	}
}

func (u *SyncUsecase) upsertQuote(ctx context.Context, q entity.Quote, date time.Time, isFinal bool, profiles map[string]stockentity.CompanyProfile) error {
	profile, err := u.profileFor(ctx, q.Symbol, profiles)
	if err != nil {
		return err
	}
	return u.stocks.Upsert(ctx, stockentity.Stock{
		Symbol:        q.Symbol,
		CompanyName:   profile.CompanyName,
		Sector:        profile.Sector,
		Industry:      profile.Industry,
		OpenPrice:     q.Open,
		HighPrice:     q.High,
		LowPrice:      q.Low,
		ClosePrice:    q.Price,
		Volume:        q.Volume,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Date:          date,
		IsFinal:       isFinal,
	})
}

// profileFor は銘柄の企業情報を返します。実行中のキャッシュ、保存済みの行、
// プロバイダの順に参照します。
func (u *SyncUsecase) profileFor(ctx context.Context, symbol string, cache map[string]stockentity.CompanyProfile) (stockentity.CompanyProfile, error) {
	if p, ok := cache[symbol]; ok {
		return p, nil
	}

	existing, err := u.stocks.FindBySymbol(ctx, symbol)
	if err != nil {
		return stockentity.CompanyProfile{}, fmt.Errorf("load stored profile: %w", err)
	}
	var p stockentity.CompanyProfile
	if len(existing) > 0 {
		latest := existing[0]
		p = stockentity.CompanyProfile{
			Symbol:      symbol,
			CompanyName: latest.CompanyName,
			Sector:      latest.Sector,
			Industry:    latest.Industry,
		}
	} else {
		fetched, err := u.market.GetCompanyProfile(ctx, symbol)
		if err != nil {
			return stockentity.CompanyProfile{}, err
		}
		p = *fetched
	}
	cache[symbol] = p
	return p, nil
}

// recordFailure は完了できなかった実行を failed として記録します。
// ctx がキャンセル済みでも書き込みます。
func (u *SyncUsecase) recordFailure(ctx context.Context, syncType entity.SyncType, records int, cause error) {
	msg := cause.Error()
	entry := &entity.SyncLog{
		SyncType:      syncType,
		RecordsSynced: records,
		Status:        entity.StatusFailed,
		ErrorMessage:  &msg,
	}
	if err := u.logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		slog.Error("failed to record sync failure", "sync_type", syncType, "cause", cause, "error", err)
	}
}

// formatSeconds は d を小数2桁の秒で表します（例: "12.34s"）。
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
