// Package logger はプロセス全体の slog ロガーを設定します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel は debug/info/warn/error を slog のレベルに変換します。不明な値は info です。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は w に出力するロガーを生成します。format が "json" なら JSON ハンドラ、
// それ以外はテキストハンドラを使います。
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", "stock-dashboard-backend")
}

// Setup は stderr へのロガーを slog のデフォルトに設定して返します。
func Setup(level, format string) *slog.Logger {
	l := New(os.Stderr, level, format)
	slog.SetDefault(l)
	return l
}
