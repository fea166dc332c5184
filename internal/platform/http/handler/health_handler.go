// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceName はヘルスチェックで返すサービス名です。
const ServiceName = "stock-dashboard-backend"

// HealthResponse は /health のレスポンスボディです。
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC3339（ミリ秒, UTC）
	Service   string `json:"service"`
}

// Health はサービスヘルスチェック用の /health エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "OK",
			Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Service:   ServiceName,
		})
	}
}
