// Package dto は FMP API レスポンスのデータ転送オブジェクトを定義します。
package dto

// ProfileResponse は /profile 配列の1要素です。
type ProfileResponse struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Exchange    string `json:"exchange"`
	Currency    string `json:"currency"`
}

// HistoricalBarResponse は /historical-price-eod/full 配列の1要素です。
type HistoricalBarResponse struct {
	Symbol        string  `json:"symbol"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// QuoteResponse は /quote と /batch-quote 配列の1要素です。
type QuoteResponse struct {
	Symbol            string  `json:"symbol"`
	Open              float64 `json:"open"`
	DayHigh           float64 `json:"dayHigh"`
	DayLow            float64 `json:"dayLow"`
	Price             float64 `json:"price"`
	Volume            float64 `json:"volume"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Timestamp         int64   `json:"timestamp"` // UNIX 秒
}

// ErrorResponse はリクエストが拒否されたときに配列の代わりに返るオブジェクトです。
type ErrorResponse struct {
	ErrorMessage string `json:"Error Message"`
}
