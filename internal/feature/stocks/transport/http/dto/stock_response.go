package dto

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	"stock_dashboard/internal/api"
	"stock_dashboard/internal/feature/stocks/domain/entity"
)

// StockResponse は株価1行のレスポンスDTOです。
type StockResponse struct {
	ID            uint               `json:"id"`
	Symbol        string             `json:"symbol"`         // 銘柄コード
	CompanyName   string             `json:"company_name"`   // 会社名
	Sector        string             `json:"sector"`         // セクター
	Industry      string             `json:"industry"`       // 業種
	OpenPrice     float64            `json:"open_price"`     // 始値
	HighPrice     float64            `json:"high_price"`     // 高値
	LowPrice      float64            `json:"low_price"`      // 安値
	ClosePrice    float64            `json:"close_price"`    // 終値
	Volume        int64              `json:"volume"`         // 出来高
	Change        float64            `json:"change"`         // 前日比
	ChangePercent float64            `json:"change_percent"` // 前日比（%）
	Date          openapi_types.Date `json:"date"`           // 取引日
	IsFinal       bool               `json:"is_final"`       // 終値確定済みか
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SectorStatResponse は円グラフ用のセクター別集計です。
type SectorStatResponse struct {
	Sector      string          `json:"sector"`
	StockCount  int64           `json:"stock_count"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	TotalVolume int64           `json:"total_volume"`
}

// TimelinePointResponse は棒グラフ用の日別集計です。
type TimelinePointResponse struct {
	Date        openapi_types.Date `json:"date"`
	AvgClose    decimal.Decimal    `json:"avg_close"`
	TotalVolume int64              `json:"total_volume"`
	StockCount  int64              `json:"stock_count"`
}

// DashboardStatsResponse はダッシュボードの集計値です。
type DashboardStatsResponse struct {
	TotalStocks  int64               `json:"totalStocks"`
	TotalRecords int64               `json:"totalRecords"`
	LatestDate   *openapi_types.Date `json:"latestDate"`
	TotalSectors int64               `json:"totalSectors"`
}

// NewStockResponse はエンティティをレスポンスに変換します。
func NewStockResponse(s entity.Stock) StockResponse {
	return StockResponse{
		ID:            s.ID,
		Symbol:        s.Symbol,
		CompanyName:   s.CompanyName,
		Sector:        s.Sector,
		Industry:      s.Industry,
		OpenPrice:     s.OpenPrice,
		HighPrice:     s.HighPrice,
		LowPrice:      s.LowPrice,
		ClosePrice:    s.ClosePrice,
		Volume:        s.Volume,
		Change:        s.Change,
		ChangePercent: s.ChangePercent,
		Date:          api.NewDate(s.Date),
		IsFinal:       s.IsFinal,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// NewStockResponses はスライスを変換します。結果は常に非nilです。
func NewStockResponses(items []entity.Stock) []StockResponse {
	out := make([]StockResponse, 0, len(items))
	for _, s := range items {
		out = append(out, NewStockResponse(s))
	}
	return out
}

func NewSectorStatResponses(items []entity.SectorStat) []SectorStatResponse {
	out := make([]SectorStatResponse, 0, len(items))
	for _, s := range items {
		out = append(out, SectorStatResponse{
			Sector:      s.Sector,
			StockCount:  s.StockCount,
			AvgPrice:    s.AvgPrice,
			TotalVolume: s.TotalVolume,
		})
	}
	return out
}

func NewTimelineResponses(items []entity.TimelinePoint) []TimelinePointResponse {
	out := make([]TimelinePointResponse, 0, len(items))
	for _, p := range items {
		out = append(out, TimelinePointResponse{
			Date:        api.NewDate(p.Date),
			AvgClose:    p.AvgClose,
			TotalVolume: p.TotalVolume,
			StockCount:  p.StockCount,
		})
	}
	return out
}

func NewDashboardStatsResponse(s entity.DashboardStats) DashboardStatsResponse {
	return DashboardStatsResponse{
		TotalStocks:  s.TotalStocks,
		TotalRecords: s.TotalRecords,
		LatestDate:   api.DatePtr(s.LatestDate),
		TotalSectors: s.TotalSectors,
	}
}
