// Package di はアプリケーションの構成要素を組み立てるファクトリーを提供します。
package di

import (
	"stock_dashboard/internal/platform/externalapi/fmp"
	infrahttp "stock_dashboard/internal/platform/http"
)

// NewMarket はHTTPクライアントとレートリミッターを設定済みのFMPMarketを生成します。
func NewMarket(cfg fmp.Config) *fmp.FMPMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return fmp.NewFMPMarket(cfg, httpClient, nil)
}
