// Package api はHTTP APIで共通に使うレスポンスのエンベロープとクエリの読み取りを提供します。
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"stock_dashboard/internal/shared/pagination"
)

// ErrorResponse はエラー時のレスポンスです。Message は詳細がある場合のみ出力します。
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse は入力検証エラーのレスポンスです。違反したルールをすべて返します。
type ValidationErrorResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// RouteErrorResponse は 404/405 のような経路エラーのレスポンスです。
type RouteErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は本文のない成功レスポンスです。
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse は data を1つ持つ成功レスポンスです。
type DataResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// PageResponse は一覧とページ情報を持つ成功レスポンスです。
type PageResponse[T any] struct {
	Success    bool            `json:"success"`
	Data       []T             `json:"data"`
	Pagination pagination.Meta `json:"pagination"`
}

// NewError はエラーレスポンスを生成します。
func NewError(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// NewData は成功レスポンスを生成します。
func NewData[T any](data T) DataResponse[T] {
	return DataResponse[T]{Success: true, Data: data}
}

// NewDate は暦日をOpenAPIのdate型に変換します。
func NewDate(t time.Time) openapi_types.Date {
	return openapi_types.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// DatePtr はnil許容の暦日を変換します。
func DatePtr(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}

// QueryDate はクエリパラメータ name を YYYY-MM-DD として読み取ります。
// 未指定または空の場合は nil を返します。戻り値はUTCの0時です。
func QueryDate(c *gin.Context, name string) (*time.Time, error) {
	if c.Query(name) == "" {
		return nil, nil
	}

	var d openapi_types.Date
	if err := runtime.BindQueryParameter("form", true, true, name, c.Request.URL.Query(), &d); err != nil {
		return nil, fmt.Errorf("invalid %s: expected YYYY-MM-DD", name)
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &t, nil
}
