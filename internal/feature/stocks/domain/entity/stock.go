// Package entity は株価機能のドメインモデルを定義します。
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_dashboard/internal/shared/pagination"
)

// Stock は1銘柄1日分の株価データです。(Symbol, Date) が自然キーです。
type Stock struct {
	ID            uint
	Symbol        string // ティッカー。英大文字1〜5文字（例: "AAPL"）
	CompanyName   string
	Sector        string
	Industry      string
	OpenPrice     float64
	HighPrice     float64
	LowPrice      float64
	ClosePrice    float64
	Volume        int64
	Change        float64
	ChangePercent float64
	Date          time.Time // 取引日（UTC の0時）
	IsFinal       bool      // 終値が確定したら true
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CompanyProfile は株価行のうち企業情報の部分です。
type CompanyProfile struct {
	Symbol      string
	CompanyName string
	Sector      string
	Industry    string
}

// DateRange は取引日の範囲です。両端を含み、片側を省略できます。
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ListQuery は正規化済みの一覧リクエストです。
type ListQuery struct {
	Symbol    string
	Sector    string
	Search    string
	Dates     DateRange
	SortBy    string // SortColumns のいずれか
	SortOrder string // "asc" か "desc"
	Page      pagination.Params
}

// StockPage は1ページ分の株価とページ情報です。
type StockPage struct {
	Items      []Stock
	Pagination pagination.Meta
}

// SectorStat はセクター分布の1要素です。
type SectorStat struct {
	Sector      string
	StockCount  int64
	AvgPrice    decimal.Decimal
	TotalVolume int64
}

// TimelinePoint は1取引日の該当行をまとめた値です。
type TimelinePoint struct {
	Date        time.Time
	AvgClose    decimal.Decimal
	TotalVolume int64
	StockCount  int64
}

// DashboardStats はダッシュボードの主要な件数です。
type DashboardStats struct {
	TotalStocks  int64
	TotalRecords int64
	LatestDate   *time.Time
	TotalSectors int64
}
