// Package usecase は株価データの参照と管理操作を実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/shared/pagination"
)

const (
	// DefaultSortBy は許可されていないソート列が指定されたときに使う列です。
	DefaultSortBy = "updated_at"
	// DefaultSortOrder は並び順が asc/desc 以外のときに使う向きです。
	DefaultSortOrder = "desc"
)

// SortColumns はソート可能な列の許可リストです。ここに無い入力は
// ORDER BY 句に渡りません。
var SortColumns = map[string]struct{}{
	"date":           {},
	"symbol":         {},
	"close_price":    {},
	"volume":         {},
	"change_percent": {},
	"updated_at":     {},
}

// StockRepository は株価行と集計の永続化を抽象化します。
// Goの慣習に従い、インターフェースは利用側（usecase）で定義します。
type StockRepository interface {
	// List は q に一致する1ページ分の行と総件数を返します。
	List(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error)
	// FindByID は行が無ければ nil, nil を返します。
	FindByID(ctx context.Context, id uint) (*entity.Stock, error)
	// FindBySymbol は銘柄の全行を日付の新しい順に返します。
	FindBySymbol(ctx context.Context, symbol string) ([]entity.Stock, error)
	// LastDateForSymbol は銘柄の行が無ければ nil を返します。
	LastDateForSymbol(ctx context.Context, symbol string) (*time.Time, error)
	// Create は行を追加します。(symbol, date) が重複すると ErrStockAlreadyExists を返します。
	Create(ctx context.Context, s *entity.Stock) error
	// Update は既存行の更新可能な列を上書きします。
	Update(ctx context.Context, s *entity.Stock) error
	// Delete は行を削除し、存在したかどうかを返します。
	Delete(ctx context.Context, id uint) (bool, error)
	// Upsert は (symbol, date) の行をアトミックに追加または更新します。
	Upsert(ctx context.Context, s entity.Stock) error
	// Count は全行数を返します。
	Count(ctx context.Context) (int64, error)

	SectorDistribution(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error)
	PriceTimeline(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error)
	DashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}

// ListInput は transport 層から届いたままの一覧リクエストです。
type ListInput struct {
	Page      string
	Limit     string
	Symbol    string
	Sector    string
	Search    string
	SortBy    string
	SortOrder string
	Dates     entity.DateRange
}

type stockUsecase struct {
	stocks StockRepository
}

// NewStockUsecase は stockUsecase を生成します。
func NewStockUsecase(stocks StockRepository) *stockUsecase {
	return &stockUsecase{stocks: stocks}
}

// NormalizeSort は任意の入力を許可された列と向きに変換します。
func NormalizeSort(sortBy, sortOrder string) (string, string) {
	column := DefaultSortBy
	if _, ok := SortColumns[sortBy]; ok {
		column = sortBy
	}
	order := strings.ToLower(strings.TrimSpace(sortOrder))
	if order != "asc" && order != "desc" {
		order = DefaultSortOrder
	}
	return column, order
}

// BuildListQuery は一覧リクエストのページングとソートを正規化します。
func BuildListQuery(in ListInput) entity.ListQuery {
	sortBy, sortOrder := NormalizeSort(in.SortBy, in.SortOrder)
	return entity.ListQuery{
		Symbol:    in.Symbol,
		Sector:    in.Sector,
		Search:    in.Search,
		Dates:     in.Dates,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      pagination.Normalize(in.Page, in.Limit),
	}
}

// List は絞り込み・ソート済みの株価を1ページ分返します。
func (u *stockUsecase) List(ctx context.Context, in ListInput) (*entity.StockPage, error) {
	q := BuildListQuery(in)
	items, total, err := u.stocks.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	return &entity.StockPage{Items: items, Pagination: pagination.NewMeta(q.Page, total)}, nil
}

// GetByID は株価が無ければ nil, nil を返します。
func (u *stockUsecase) GetByID(ctx context.Context, id uint) (*entity.Stock, error) {
	return u.stocks.FindByID(ctx, id)
}

// Create は入力を検証し、新しい行として追加します。
func (u *stockUsecase) Create(ctx context.Context, in CreateStockInput) (*entity.Stock, error) {
	if problems := ValidateStockData(in); len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	date, _ := time.Parse(time.DateOnly, in.Date)
	s := &entity.Stock{
		Symbol:        in.Symbol,
		CompanyName:   in.CompanyName,
		Sector:        in.Sector,
		Industry:      in.Industry,
		OpenPrice:     *in.OpenPrice,
		HighPrice:     *in.HighPrice,
		LowPrice:      *in.LowPrice,
		ClosePrice:    *in.ClosePrice,
		Volume:        int64(*in.Volume),
		Change:        valueOr(in.Change, 0),
		ChangePercent: valueOr(in.ChangePercent, 0),
		Date:          date,
		IsFinal:       in.IsFinal,
	}
	if err := u.stocks.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update は指定されたフィールドを既存行に反映します。再検証するのは高値と安値の
// 関係だけで、それ以外はそのまま受け入れます。
func (u *stockUsecase) Update(ctx context.Context, id uint, in UpdateStockInput) (*entity.Stock, error) {
	s, err := u.stocks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrStockNotFound
	}

	s.OpenPrice = valueOr(in.OpenPrice, s.OpenPrice)
	s.HighPrice = valueOr(in.HighPrice, s.HighPrice)
	s.LowPrice = valueOr(in.LowPrice, s.LowPrice)
	s.ClosePrice = valueOr(in.ClosePrice, s.ClosePrice)
	s.Volume = valueOr(in.Volume, s.Volume)
	s.Change = valueOr(in.Change, s.Change)
	s.ChangePercent = valueOr(in.ChangePercent, s.ChangePercent)
	s.IsFinal = valueOr(in.IsFinal, s.IsFinal)

	if s.HighPrice < s.LowPrice {
		return nil, ErrInvalidPriceRange
	}

	if err := u.stocks.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete は行を削除します。存在しなければ ErrStockNotFound を返します。
func (u *stockUsecase) Delete(ctx context.Context, id uint) error {
	existing, err := u.stocks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrStockNotFound
	}
	if _, err := u.stocks.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// SectorDistribution は期間内の行をセクターごとに集計します。
func (u *stockUsecase) SectorDistribution(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error) {
	return u.stocks.SectorDistribution(ctx, r)
}

// PriceTimeline は行を日付ごとに集計します。銘柄で絞り込むこともできます。
func (u *stockUsecase) PriceTimeline(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error) {
	return u.stocks.PriceTimeline(ctx, symbol, r)
}

// DashboardStats はダッシュボードの主要な件数を返します。
func (u *stockUsecase) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	return u.stocks.DashboardStats(ctx)
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
