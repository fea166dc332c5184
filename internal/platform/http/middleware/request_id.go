// Package middleware は全ルート共通の gin ミドルウェアを提供します。
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを送受信するヘッダーです。
const RequestIDHeader = "X-Request-ID"

// RequestIDKey はリクエストIDを保存する gin コンテキストのキーです。
const RequestIDKey = "request_id"

// RequestID は受け取った X-Request-ID を使うか新しい UUID を生成し、
// レスポンスにも付与します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID は RequestID が保存したリクエストIDを返します。無ければ "" です。
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
