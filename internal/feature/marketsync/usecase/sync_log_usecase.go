package usecase

import (
	"context"
	"fmt"
	"time"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
	"stock_dashboard/internal/shared/pagination"
)

// SyncLogRepository は同期履歴を永続化します。
type SyncLogRepository interface {
	// Create はエントリを追加します。SyncedAt がゼロなら現在時刻を使います。
	Create(ctx context.Context, e *entity.SyncLog) error
	// List は新しい順に1ページ分のエントリと総件数を返します。
	List(ctx context.Context, p pagination.Params) ([]entity.SyncLog, int64, error)
	// LastSuccessfulSync は成功した実行が無ければ nil を返します。
	LastSuccessfulSync(ctx context.Context) (*time.Time, error)
	Stats(ctx context.Context) (*entity.SyncStats, error)
}

// SyncLogUsecase は過去の同期実行について問い合わせに答えます。
type SyncLogUsecase struct {
	logs SyncLogRepository
}

// NewSyncLogUsecase は SyncLogUsecase を生成します。
func NewSyncLogUsecase(logs SyncLogRepository) *SyncLogUsecase {
	return &SyncLogUsecase{logs: logs}
}

// List は同期履歴を1ページ分返します。page/limit は株価一覧と同じ規則で正規化します。
func (u *SyncLogUsecase) List(ctx context.Context, rawPage, rawLimit string) (*entity.SyncLogPage, error) {
	p := pagination.Normalize(rawPage, rawLimit)
	items, total, err := u.logs.List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	return &entity.SyncLogPage{Items: items, Pagination: pagination.NewMeta(p, total)}, nil
}

// Recent は新しい順に最大 n 件を返します。
func (u *SyncLogUsecase) Recent(ctx context.Context, n int) ([]entity.SyncLog, error) {
	p := pagination.NormalizeWithDefault("1", "", n)
	items, _, err := u.logs.List(ctx, p)
	return items, err
}

// LastSyncTime は最新の成功した実行の時刻を返します。無ければ nil です。
func (u *SyncLogUsecase) LastSyncTime(ctx context.Context) (*time.Time, error) {
	return u.logs.LastSuccessfulSync(ctx)
}

// Stats は履歴全体を集計します。
func (u *SyncLogUsecase) Stats(ctx context.Context) (*entity.SyncStats, error) {
	return u.logs.Stats(ctx)
}
