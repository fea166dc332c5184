// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_dashboard/internal/api"
	"stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/feature/stocks/transport/http/dto"
	"stock_dashboard/internal/feature/stocks/usecase"
)

// StockUsecase は株価データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StockUsecase interface {
	List(ctx context.Context, in usecase.ListInput) (*entity.StockPage, error)
	GetByID(ctx context.Context, id uint) (*entity.Stock, error)
	Create(ctx context.Context, in usecase.CreateStockInput) (*entity.Stock, error)
	Update(ctx context.Context, id uint, in usecase.UpdateStockInput) (*entity.Stock, error)
	Delete(ctx context.Context, id uint) error
	SectorDistribution(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error)
	PriceTimeline(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error)
	DashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}

// StockHandler は株価データのHTTPリクエストを処理します。
type StockHandler struct {
	uc StockUsecase
}

// NewStockHandler は指定されたusecaseでStockHandlerの新しいインスタンスを生成します。
func NewStockHandler(uc StockUsecase) *StockHandler {
	return &StockHandler{uc: uc}
}

const (
	msgStockNotFound = "Stock not found"
	msgInvalidID     = "Invalid stock id"
	msgInternal      = "Internal server error"
)

// List はフィルタ・ソート・ページングした株価一覧を返します。
//
// エンドポイント例:
// GET /api/stocks?page=1&limit=50&symbol=AAPL&sector=Technology&dateFrom=2025-01-01&dateTo=2025-01-31&sortBy=date&sortOrder=asc&search=app
func (h *StockHandler) List(c *gin.Context) {
	dates, ok := bindDateRange(c)
	if !ok {
		return
	}

	page, err := h.uc.List(c.Request.Context(), usecase.ListInput{
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
		Symbol:    c.Query("symbol"),
		Sector:    c.Query("sector"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Dates:     dates,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PageResponse[dto.StockResponse]{
		Success:    true,
		Data:       dto.NewStockResponses(page.Items),
		Pagination: page.Pagination,
	})
}

// Get はIDで1行を返します。
func (h *StockHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	s, err := h.uc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, api.NewError(msgStockNotFound))
		return
	}

	c.JSON(http.StatusOK, api.NewData(dto.NewStockResponse(*s)))
}

// Create は検証済みの株価行を新規作成します。
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if err := api.BindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Success: false, Errors: []string{err.Error()}})
		return
	}

	s, err := h.uc.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.DataResponse[dto.StockResponse]{
		Success: true,
		Message: "Stock created successfully",
		Data:    dto.NewStockResponse(*s),
	})
}

// Update は既存行の価格・出来高・確定フラグを更新します。
func (h *StockHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateStockRequest
	if err := api.BindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(err.Error()))
		return
	}

	s, err := h.uc.Update(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DataResponse[dto.StockResponse]{
		Success: true,
		Message: "Stock updated successfully",
		Data:    dto.NewStockResponse(*s),
	})
}

// Delete は1行を削除します。
func (h *StockHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.uc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: "Stock deleted successfully"})
}

// DashboardStats はダッシュボードの集計値を返します。
func (h *StockHandler) DashboardStats(c *gin.Context) {
	stats, err := h.uc.DashboardStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewData(dto.NewDashboardStatsResponse(*stats)))
}

// SectorDistribution は期間内のセクター別集計を返します。
func (h *StockHandler) SectorDistribution(c *gin.Context) {
	dates, ok := bindDateRange(c)
	if !ok {
		return
	}

	stats, err := h.uc.SectorDistribution(c.Request.Context(), dates)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewData(dto.NewSectorStatResponses(stats)))
}

// PriceTimeline は日別の平均終値と出来高を返します。
func (h *StockHandler) PriceTimeline(c *gin.Context) {
	dates, ok := bindDateRange(c)
	if !ok {
		return
	}

	points, err := h.uc.PriceTimeline(c.Request.Context(), c.Query("symbol"), dates)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewData(dto.NewTimelineResponses(points)))
}

// fail はusecaseのエラーをHTTPステータスに変換します。想定外のエラーの詳細はログにのみ出力します。
func (h *StockHandler) fail(c *gin.Context, err error) {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, api.ValidationErrorResponse{Success: false, Errors: verr.Errors})
	case errors.Is(err, usecase.ErrStockNotFound):
		c.JSON(http.StatusNotFound, api.NewError(msgStockNotFound))
	case errors.Is(err, usecase.ErrStockAlreadyExists):
		c.JSON(http.StatusConflict, api.NewError("Stock record already exists for this symbol and date"))
	case errors.Is(err, usecase.ErrInvalidPriceRange):
		c.JSON(http.StatusBadRequest, api.NewError(err.Error()))
	default:
		slog.Error("stock request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, api.NewError(msgInternal))
	}
}

// parseID は :id を正の整数として読み取ります。失敗時は400を書き込み false を返します。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, api.NewError(msgInvalidID))
		return 0, false
	}
	return uint(id), true
}

// bindDateRange は dateFrom/dateTo を読み取ります。失敗時は400を書き込み false を返します。
func bindDateRange(c *gin.Context) (entity.DateRange, bool) {
	from, err := api.QueryDate(c, "dateFrom")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(err.Error()))
		return entity.DateRange{}, false
	}
	to, err := api.QueryDate(c, "dateTo")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(err.Error()))
		return entity.DateRange{}, false
	}
	return entity.DateRange{From: from, To: to}, true
}
