// Package handler はmarketsyncフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_dashboard/internal/api"
	"stock_dashboard/internal/feature/marketsync/domain/entity"
	"stock_dashboard/internal/feature/marketsync/transport/http/dto"
	"stock_dashboard/internal/platform/http/middleware"
)

// SyncRunner は同期を実行するユースケースです。
type SyncRunner interface {
	Trigger(ctx context.Context) (*entity.SyncResult, error)
	InitialSync(ctx context.Context) (*entity.SyncResult, error)
}

// SyncLogReader は同期履歴を参照するユースケースです。
type SyncLogReader interface {
	List(ctx context.Context, rawPage, rawLimit string) (*entity.SyncLogPage, error)
	LastSyncTime(ctx context.Context) (*time.Time, error)
	Stats(ctx context.Context) (*entity.SyncStats, error)
}

// SyncHandler は同期のトリガーと履歴参照を処理します。
type SyncHandler struct {
	runner SyncRunner
	logs   SyncLogReader
}

func NewSyncHandler(runner SyncRunner, logs SyncLogReader) *SyncHandler {
	return &SyncHandler{runner: runner, logs: logs}
}

// Trigger はテーブルが空なら初回同期、そうでなければ通常同期を実行します。
//
// エンドポイント: POST /api/sync
func (h *SyncHandler) Trigger(c *gin.Context) {
	slog.Info("manual sync triggered", "request_id", middleware.GetRequestID(c))

	res, err := h.runner.Trigger(c.Request.Context())
	if err != nil {
		slog.Error("sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Success: false, Error: "Sync failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewSyncResultResponse(*res))
}

// Initial は保存済みデータの有無に関わらず初回同期を実行します。
//
// エンドポイント: POST /api/sync/initial
func (h *SyncHandler) Initial(c *gin.Context) {
	res, err := h.runner.InitialSync(c.Request.Context())
	if err != nil {
		slog.Error("initial sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Success: false, Error: "Initial sync failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewSyncResultResponse(*res))
}

// MethodNotAllowed は GET /api/sync に対して405を返します。
func (h *SyncHandler) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, api.RouteErrorResponse{Error: "Method Not Allowed. Use POST to trigger sync."})
}

// Logs は同期履歴を新しい順にページングして返します。
//
// エンドポイント例: GET /api/sync/logs?page=1&limit=50
func (h *SyncHandler) Logs(c *gin.Context) {
	page, err := h.logs.List(c.Request.Context(), c.Query("page"), c.Query("limit"))
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PageResponse[dto.SyncLogResponse]{
		Success:    true,
		Data:       dto.NewSyncLogResponses(page.Items),
		Pagination: page.Pagination,
	})
}

// LastSync は最後に成功した同期の時刻を返します。未実行なら null です。
func (h *SyncHandler) LastSync(c *gin.Context) {
	last, err := h.logs.LastSyncTime(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LastSyncResponse{Success: true, LastSyncTime: last})
}

// Stats は同期履歴の集計値を返します。
func (h *SyncHandler) Stats(c *gin.Context) {
	stats, err := h.logs.Stats(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewData(dto.NewSyncStatsResponse(*stats)))
}

func (h *SyncHandler) internal(c *gin.Context, err error) {
	slog.Error("sync log request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, api.NewError("Internal server error"))
}
