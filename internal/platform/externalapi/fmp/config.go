// Package fmp は Financial Modeling Prep の stable API クライアントを提供します。
package fmp

import "time"

// DefaultBaseURL は FMP stable API のルートです。
const DefaultBaseURL = "https://financialmodelingprep.com/stable"

// Config は FMP API クライアントの設定です。
type Config struct {
	APIKey    string        // 認証用の API キー
	BaseURL   string        // API のベースURL（例: "https://financialmodelingprep.com/stable"）
	Timeout   time.Duration // HTTP リクエストのタイムアウト
	RateLimit float64       // 1秒あたりのリクエスト数。0 なら制限しない
	RateBurst int           // トークンバケットのサイズ
}
