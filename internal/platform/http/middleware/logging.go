package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SlowRequestThreshold はこれを超えたリクエストを遅いとしてログに残す時間です。
const SlowRequestThreshold = time.Second

// Logging はリクエストごとにアクセスログを1行出力します。成功は INFO、
// 4xx は WARN、5xx は ERROR です。skip のパスはログに残しません。
func Logging(skip ...string) gin.HandlerFunc {
	skipMap := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipMap[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipMap[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		attrs := []any{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("request completed", attrs...)
		case status >= 400:
			slog.Warn("request completed", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}

		if duration > SlowRequestThreshold {
			slog.Warn("slow request", "request_id", GetRequestID(c), "path", path, "duration_ms", duration.Milliseconds())
		}
	}
}
