// Package http は外部API呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// maxIdleConnsPerHost はFMPへの連続リクエストで保持するアイドル接続数です。
const maxIdleConnsPerHost = 10

// NewHTTPClient は市場データAPI呼び出し用のHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: HTTP_PROXY などの環境変数に従う
//   - Dialer.Timeout: TCP接続は5秒で打ち切る
//   - MaxIdleConnsPerHost: 同一ホストへの連続リクエストで接続を再利用する
//   - ResponseHeaderTimeout: ヘッダーが返らないまま待ち続けない
//   - Client.Timeout: リクエスト全体のタイムアウト（FMP_TIMEOUT）
//
// timeout が0以下の場合は30秒を使います。http.DefaultClient にはタイムアウトがないため使用しません。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxIdleConnsPerHost,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
