// Package dto はstocksフィーチャーのリクエスト/レスポンスDTOを定義します。
package dto

import "stock_dashboard/internal/feature/stocks/usecase"

// CreateStockRequest は POST /api/stocks のリクエストボディです。
// 数値は欠落と0を区別するためポインタで受け取ります。
type CreateStockRequest struct {
	Symbol        string   `json:"symbol"`
	CompanyName   string   `json:"company_name"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	OpenPrice     *float64 `json:"open_price"`
	HighPrice     *float64 `json:"high_price"`
	LowPrice      *float64 `json:"low_price"`
	ClosePrice    *float64 `json:"close_price"`
	Volume        *float64 `json:"volume"` // 整数チェックは検証側で行う
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
	Date          string   `json:"date"` // YYYY-MM-DD
	IsFinal       bool     `json:"is_final"`
}

// ToInput はusecaseの入力に変換します。
func (r CreateStockRequest) ToInput() usecase.CreateStockInput {
	return usecase.CreateStockInput{
		Symbol:        r.Symbol,
		CompanyName:   r.CompanyName,
		Sector:        r.Sector,
		Industry:      r.Industry,
		OpenPrice:     r.OpenPrice,
		HighPrice:     r.HighPrice,
		LowPrice:      r.LowPrice,
		ClosePrice:    r.ClosePrice,
		Volume:        r.Volume,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		Date:          r.Date,
		IsFinal:       r.IsFinal,
	}
}

// UpdateStockRequest は PUT /api/stocks/:id のリクエストボディです。
// 銘柄・日付・会社情報は受け付けますが更新対象ではありません。
type UpdateStockRequest struct {
	Symbol        *string  `json:"symbol"`
	CompanyName   *string  `json:"company_name"`
	Sector        *string  `json:"sector"`
	Industry      *string  `json:"industry"`
	Date          *string  `json:"date"`
	OpenPrice     *float64 `json:"open_price"`
	HighPrice     *float64 `json:"high_price"`
	LowPrice      *float64 `json:"low_price"`
	ClosePrice    *float64 `json:"close_price"`
	Volume        *int64   `json:"volume"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
	IsFinal       *bool    `json:"is_final"`
}

// ToInput は更新可能なフィールドだけをusecaseの入力に変換します。
func (r UpdateStockRequest) ToInput() usecase.UpdateStockInput {
	return usecase.UpdateStockInput{
		OpenPrice:     r.OpenPrice,
		HighPrice:     r.HighPrice,
		LowPrice:      r.LowPrice,
		ClosePrice:    r.ClosePrice,
		Volume:        r.Volume,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		IsFinal:       r.IsFinal,
	}
}
