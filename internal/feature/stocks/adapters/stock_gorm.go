// Package adapters は gorm を使って株価リポジトリを実装します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/feature/stocks/usecase"
)

// pgUniqueViolation は unique_violation の SQLSTATE です。
const pgUniqueViolation = "23505"

type stockGorm struct {
	db *gorm.DB
}

var _ usecase.StockRepository = (*stockGorm)(nil)

// NewStockRepository は gorm による StockRepository を生成します。
func NewStockRepository(db *gorm.DB) *stockGorm {
	return &stockGorm{db: db}
}

// StockModel は entity.Stock の永続化用モデルです。
type StockModel struct {
	ID            uint      `gorm:"primaryKey"`
	Symbol        string    `gorm:"size:10;not null;uniqueIndex:stocks_symbol_date,priority:1"`
	CompanyName   string    `gorm:"size:255"`
	Sector        string    `gorm:"size:100;index"`
	Industry      string    `gorm:"size:255"`
	OpenPrice     float64   `gorm:"not null"`
	HighPrice     float64   `gorm:"not null"`
	LowPrice      float64   `gorm:"not null"`
	ClosePrice    float64   `gorm:"not null"`
	Volume        int64     `gorm:"not null;default:0"`
	Change        float64   `gorm:"not null;default:0"`
	ChangePercent float64   `gorm:"not null;default:0"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:stocks_symbol_date,priority:2;index"`
	IsFinal       bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (StockModel) TableName() string {
	return "stocks"
}

// upsertColumns は (symbol, date) の行が既にあるときに上書きする列です。
// 企業情報の列と created_at は最初の値を保ちます。
var upsertColumns = []string{
	"open_price", "high_price", "low_price", "close_price", "volume",
	"change", "change_percent", "is_final", "updated_at",
}

func toModel(e entity.Stock) StockModel {
	return StockModel{
		ID:            e.ID,
		Symbol:        e.Symbol,
		CompanyName:   e.CompanyName,
		Sector:        e.Sector,
		Industry:      e.Industry,
		OpenPrice:     e.OpenPrice,
		HighPrice:     e.HighPrice,
		LowPrice:      e.LowPrice,
		ClosePrice:    e.ClosePrice,
		Volume:        e.Volume,
		Change:        e.Change,
		ChangePercent: e.ChangePercent,
		Date:          dateOnly(e.Date),
		IsFinal:       e.IsFinal,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toEntity(m StockModel) entity.Stock {
	return entity.Stock{
		ID:            m.ID,
		Symbol:        m.Symbol,
		CompanyName:   m.CompanyName,
		Sector:        m.Sector,
		Industry:      m.Industry,
		OpenPrice:     m.OpenPrice,
		HighPrice:     m.HighPrice,
		LowPrice:      m.LowPrice,
		ClosePrice:    m.ClosePrice,
		Volume:        m.Volume,
		Change:        m.Change,
		ChangePercent: m.ChangePercent,
		Date:          dateOnly(m.Date),
		IsFinal:       m.IsFinal,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toEntities(rows []StockModel) []entity.Stock {
	out := make([]entity.Stock, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out
}

// dateOnly は時刻部分を落とし、日付を UTC の0時として返します。
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDuplicateKey は err が一意制約違反かどうかを返します。
// 方言がエラーを変換したかどうかは問いません。
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func applyDateRange(q *gorm.DB, r entity.DateRange) *gorm.DB {
	if r.From != nil {
		q = q.Where("date >= ?", dateOnly(*r.From))
	}
	if r.To != nil {
		q = q.Where("date <= ?", dateOnly(*r.To))
	}
	return q
}

func (r *stockGorm) filtered(ctx context.Context, q entity.ListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&StockModel{})
	if q.Symbol != "" {
		tx = tx.Where("symbol = ?", q.Symbol)
	}
	if q.Sector != "" {
		tx = tx.Where("sector = ?", q.Sector)
	}
	tx = applyDateRange(tx, q.Dates)
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("(LOWER(symbol) LIKE ? OR LOWER(company_name) LIKE ?)", pattern, pattern)
	}
	return tx
}

// List は1ページ分の行と一致した総件数を返します。
// SortBy と SortOrder は許可リストで正規化済みである必要があります。
func (r *stockGorm) List(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count stocks: %w", err)
	}

	var rows []StockModel
	err := r.filtered(ctx, q).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortBy}, Desc: q.SortOrder == "desc"}).
		Order("id").
		Limit(q.Page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list stocks: %w", err)
	}
	return toEntities(rows), total, nil
}

func (r *stockGorm) FindByID(ctx context.Context, id uint) (*entity.Stock, error) {
	var m StockModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := toEntity(m)
	return &s, nil
}

func (r *stockGorm) FindBySymbol(ctx context.Context, symbol string) ([]entity.Stock, error) {
	var rows []StockModel
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).Order("date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *stockGorm) LastDateForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	var d sqlDate
	row := r.db.WithContext(ctx).Model(&StockModel{}).Select("MAX(date)").Where("symbol = ?", symbol).Row()
	if err := row.Scan(&d); err != nil {
		return nil, err
	}
	return d.Time, nil
}

func (r *stockGorm) Create(ctx context.Context, s *entity.Stock) error {
	m := toModel(*s)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if IsDuplicateKey(err) {
			return usecase.ErrStockAlreadyExists
		}
		return err
	}
	*s = toEntity(m)
	return nil
}

// Update は s の更新可能な列を行に書き戻します。
func (r *stockGorm) Update(ctx context.Context, s *entity.Stock) error {
	m := toModel(*s)
	res := r.db.WithContext(ctx).Model(&StockModel{ID: s.ID}).
		Select(upsertColumns).
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrStockNotFound
	}

	var fresh StockModel
	if err := r.db.WithContext(ctx).First(&fresh, s.ID).Error; err != nil {
		return err
	}
	*s = toEntity(fresh)
	return nil
}

func (r *stockGorm) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&StockModel{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Upsert は s を追加します。同じ (symbol, date) の行があれば
// 同じ文の中で価格の列を上書きします。
func (r *stockGorm) Upsert(ctx context.Context, s entity.Stock) error {
	m := toModel(s)
	m.ID = 0
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&m).Error
}

func (r *stockGorm) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&StockModel{}).Count(&n).Error
	return n, err
}

type sectorRow struct {
	Sector      string
	StockCount  int64
	AvgPrice    decimal.Decimal
	TotalVolume int64
}

func (r *stockGorm) SectorDistribution(ctx context.Context, dr entity.DateRange) ([]entity.SectorStat, error) {
	var rows []sectorRow
	q := applyDateRange(r.db.WithContext(ctx).Model(&StockModel{}), dr).
		Select("sector, COUNT(DISTINCT symbol) AS stock_count, AVG(close_price) AS avg_price, SUM(volume) AS total_volume").
		Group("sector").
		Order("stock_count DESC").
		Order("sector")
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sector distribution: %w", err)
	}

	out := make([]entity.SectorStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.SectorStat{
			Sector:      row.Sector,
			StockCount:  row.StockCount,
			AvgPrice:    row.AvgPrice.Round(2),
			TotalVolume: row.TotalVolume,
		})
	}
	return out, nil
}

func (r *stockGorm) PriceTimeline(ctx context.Context, symbol string, dr entity.DateRange) ([]entity.TimelinePoint, error) {
	q := r.db.WithContext(ctx).Model(&StockModel{})
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	rows, err := applyDateRange(q, dr).
		Select("date, AVG(close_price) AS avg_close, SUM(volume) AS total_volume, COUNT(DISTINCT symbol) AS stock_count").
		Group("date").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("price timeline: %w", err)
	}
	defer rows.Close()

	out := []entity.TimelinePoint{}
	for rows.Next() {
		var (
			d   sqlDate
			avg decimal.Decimal
			p   entity.TimelinePoint
		)
		if err := rows.Scan(&d, &avg, &p.TotalVolume, &p.StockCount); err != nil {
			return nil, fmt.Errorf("scan price timeline: %w", err)
		}
		if d.Time != nil {
			p.Date = *d.Time
		}
		p.AvgClose = avg.Round(2)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DashboardStats は4つの集計クエリを並行して実行します。
func (r *stockGorm) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	var stats entity.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&StockModel{}).Distinct("symbol").Count(&stats.TotalStocks).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&StockModel{}).Count(&stats.TotalRecords).Error
	})
	g.Go(func() error {
		var d sqlDate
		if err := r.db.WithContext(gctx).Model(&StockModel{}).Select("MAX(date)").Row().Scan(&d); err != nil {
			return err
		}
		stats.LatestDate = d.Time
		return nil
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&StockModel{}).Distinct("sector").Count(&stats.TotalSectors).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
