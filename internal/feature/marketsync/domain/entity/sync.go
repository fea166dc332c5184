// Package entity は市場データ同期のドメインモデルを定義します。
package entity

import (
	"time"

	"stock_dashboard/internal/shared/pagination"
)

// SyncType はログを記録した同期の種類です。
type SyncType string

const (
	SyncTypeInitial SyncType = "initial"
	SyncTypeManual  SyncType = "manual"
)

// SyncStatus は同期実行の結果です。
type SyncStatus string

const (
	StatusSuccess SyncStatus = "success"
	StatusPartial SyncStatus = "partial"
	StatusFailed  SyncStatus = "failed"
)

// SyncLog は同期実行1回分の変更されない記録です。
type SyncLog struct {
	ID            uint
	SyncType      SyncType
	RecordsSynced int
	Status        SyncStatus
	ErrorMessage  *string // partial な初回同期では SymbolError の JSON 配列
	SyncedAt      time.Time
}

// SymbolError は1銘柄を同期できなかった理由です。
type SymbolError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// SyncResult は完了した実行の要約です。
type SyncResult struct {
	Mode         SyncType
	Success      bool
	Message      string
	TotalRecords int
	IsFinal      bool
	Duration     time.Duration
	LastSyncTime time.Time
	Errors       []SymbolError
}

// SyncStats は同期履歴の集計です。
type SyncStats struct {
	TotalSyncs         int64
	SuccessfulSyncs    int64
	FailedSyncs        int64
	TotalRecordsSynced int64
	LastSyncTime       *time.Time // ステータスを問わない最新のエントリ
}

// SyncLogPage は新しい順に並んだ同期履歴の1ページです。
type SyncLogPage struct {
	Items      []SyncLog
	Pagination pagination.Meta
}
