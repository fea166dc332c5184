// Package dto はmarketsyncフィーチャーのレスポンスDTOを定義します。
package dto

import (
	"fmt"
	"time"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
)

// SyncResultResponse は同期実行結果のレスポンスです。
// 初回同期は isFinal/duration/lastSyncTime を含みません。
type SyncResultResponse struct {
	Success      bool                 `json:"success"`
	Message      string               `json:"message"`
	TotalRecords *int                 `json:"totalRecords,omitempty"`
	IsFinal      *bool                `json:"isFinal,omitempty"`
	Duration     string               `json:"duration,omitempty"` // 例: "1.23s"
	LastSyncTime *time.Time           `json:"lastSyncTime,omitempty"`
	Errors       []entity.SymbolError `json:"errors,omitempty"`
}

// NewSyncResultResponse は実行モードに応じたフィールドだけを設定します。
func NewSyncResultResponse(r entity.SyncResult) SyncResultResponse {
	resp := SyncResultResponse{Success: r.Success, Message: r.Message}
	if !r.Success {
		// データなしの場合は件数を返さない
		return resp
	}

	total := r.TotalRecords
	resp.TotalRecords = &total
	if r.Mode == entity.SyncTypeInitial {
		if len(r.Errors) > 0 {
			resp.Errors = r.Errors
		}
		return resp
	}

	isFinal := r.IsFinal
	last := r.LastSyncTime
	resp.IsFinal = &isFinal
	resp.Duration = fmt.Sprintf("%.2fs", r.Duration.Seconds())
	resp.LastSyncTime = &last
	return resp
}

// SyncLogResponse は同期履歴1件のレスポンスです。
type SyncLogResponse struct {
	ID            uint      `json:"id"`
	SyncType      string    `json:"sync_type"`
	RecordsSynced int       `json:"records_synced"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message"`
	SyncedAt      time.Time `json:"synced_at"`
}

func NewSyncLogResponses(items []entity.SyncLog) []SyncLogResponse {
	out := make([]SyncLogResponse, 0, len(items))
	for _, l := range items {
		out = append(out, SyncLogResponse{
			ID:            l.ID,
			SyncType:      string(l.SyncType),
			RecordsSynced: l.RecordsSynced,
			Status:        string(l.Status),
			ErrorMessage:  l.ErrorMessage,
			SyncedAt:      l.SyncedAt,
		})
	}
	return out
}

// LastSyncResponse は最後に成功した同期時刻のレスポンスです。
type LastSyncResponse struct {
	Success      bool       `json:"success"`
	LastSyncTime *time.Time `json:"lastSyncTime"`
}

// SyncStatsResponse は同期履歴の集計値です。
type SyncStatsResponse struct {
	TotalSyncs         int64      `json:"totalSyncs"`
	SuccessfulSyncs    int64      `json:"successfulSyncs"`
	FailedSyncs        int64      `json:"failedSyncs"`
	TotalRecordsSynced int64      `json:"totalRecordsSynced"`
	LastSyncTime       *time.Time `json:"lastSyncTime"`
}

func NewSyncStatsResponse(s entity.SyncStats) SyncStatsResponse {
	return SyncStatsResponse{
		TotalSyncs:         s.TotalSyncs,
		SuccessfulSyncs:    s.SuccessfulSyncs,
		FailedSyncs:        s.FailedSyncs,
		TotalRecordsSynced: s.TotalRecordsSynced,
		LastSyncTime:       s.LastSyncTime,
	}
}
