package entity

import "time"

// Quote は1銘柄の当日セッションの価格スナップショットです。
type Quote struct {
	Symbol        string
	Open          float64
	High          float64
	Low           float64
	Price         float64 // 直近の約定価格。終値として保存する
	Volume        int64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// HistoricalPrice は確定済みの日足1本です。
type HistoricalPrice struct {
	Symbol        string
	Date          time.Time // UTC の0時
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	Change        float64
	ChangePercent float64
}
