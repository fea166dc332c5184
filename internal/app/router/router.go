// Package router はHTTPルーティングを組み立てます。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	synchandler "stock_dashboard/internal/feature/marketsync/transport/handler"
	stockhandler "stock_dashboard/internal/feature/stocks/transport/handler"
	"stock_dashboard/internal/api"
	"stock_dashboard/internal/platform/http/handler"
	"stock_dashboard/internal/platform/http/middleware"
)

// healthPath はアクセスログから除外するヘルスチェックのパスです。
const healthPath = "/health"

func NewRouter(allowedOrigins []string, stocks *stockhandler.StockHandler, sync *synchandler.SyncHandler) *gin.Engine {
	api.EnableStrictJSON()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(healthPath),
		middleware.Recovery(),
		middleware.CORS(allowedOrigins),
	)

	// 導通確認用
	r.GET(healthPath, handler.Health)
	r.HEAD(healthPath, handler.Health)

	apiGroup := r.Group("/api")

	// 株価データ
	// dashboard 系の静的パスは :id より優先して解決される
	st := apiGroup.Group("/stocks")
	{
		st.GET("", stocks.List)
		st.POST("", stocks.Create)
		st.GET("/dashboard/stats", stocks.DashboardStats)
		st.GET("/dashboard/sector-distribution", stocks.SectorDistribution)
		st.GET("/dashboard/price-timeline", stocks.PriceTimeline)
		st.GET("/:id", stocks.Get)
		st.PUT("/:id", stocks.Update)
		st.DELETE("/:id", stocks.Delete)
	}

	// 同期
	sy := apiGroup.Group("/sync")
	{
		sy.POST("", sync.Trigger)
		sy.GET("", sync.MethodNotAllowed)
		sy.POST("/initial", sync.Initial)
		sy.GET("/logs", sync.Logs)
		sy.GET("/last", sync.LastSync)
		sy.GET("/stats", sync.Stats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.RouteErrorResponse{Error: "Route not found"})
	})

	return r
}
