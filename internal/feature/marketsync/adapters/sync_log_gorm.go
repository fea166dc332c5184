// Package adapters は gorm を使って同期履歴リポジトリを実装します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"stock_dashboard/internal/feature/marketsync/domain/entity"
	"stock_dashboard/internal/feature/marketsync/usecase"
	"stock_dashboard/internal/shared/pagination"
)

type syncLogGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.SyncLogRepository = (*syncLogGorm)(nil)

// NewSyncLogRepository は gorm による SyncLogRepository を生成します。
func NewSyncLogRepository(db *gorm.DB) *syncLogGorm {
	return &syncLogGorm{db: db, now: time.Now}
}

// SyncLogModel は entity.SyncLog の永続化用モデルです。
type SyncLogModel struct {
	ID            uint      `gorm:"primaryKey"`
	SyncType      string    `gorm:"size:20;not null"`
	RecordsSynced int       `gorm:"not null;default:0"`
	Status        string    `gorm:"size:20;not null;index"`
	ErrorMessage  *string   `gorm:"type:text"`
	SyncedAt      time.Time `gorm:"not null;index"`
}

func (SyncLogModel) TableName() string {
	return "sync_logs"
}

func toEntity(m SyncLogModel) entity.SyncLog {
	return entity.SyncLog{
		ID:            m.ID,
		SyncType:      entity.SyncType(m.SyncType),
		RecordsSynced: m.RecordsSynced,
		Status:        entity.SyncStatus(m.Status),
		ErrorMessage:  m.ErrorMessage,
		SyncedAt:      m.SyncedAt,
	}
}

func (r *syncLogGorm) Create(ctx context.Context, e *entity.SyncLog) error {
	syncedAt := e.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = r.now()
	}
	m := SyncLogModel{
		SyncType:      string(e.SyncType),
		RecordsSynced: e.RecordsSynced,
		Status:        string(e.Status),
		ErrorMessage:  e.ErrorMessage,
		SyncedAt:      syncedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create sync log: %w", err)
	}
	*e = toEntity(m)
	return nil
}

func (r *syncLogGorm) List(ctx context.Context, p pagination.Params) ([]entity.SyncLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&SyncLogModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sync logs: %w", err)
	}

	var rows []SyncLogModel
	err := r.db.WithContext(ctx).
		Order("synced_at DESC").
		Order("id DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list sync logs: %w", err)
	}

	out := make([]entity.SyncLog, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, total, nil
}

// latest は最新の synced_at を返します。ステータスで絞り込むこともできます。
func (r *syncLogGorm) latest(ctx context.Context, status entity.SyncStatus) (*time.Time, error) {
	q := r.db.WithContext(ctx).Model(&SyncLogModel{})
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var m SyncLogModel
	err := q.Order("synced_at DESC").Order("id DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m.SyncedAt, nil
}

func (r *syncLogGorm) LastSuccessfulSync(ctx context.Context) (*time.Time, error) {
	return r.latest(ctx, entity.StatusSuccess)
}

// Stats は5つの集計クエリを並行して実行します。TotalRecordsSynced は成功した実行だけを
// 数え、LastSyncTime はすべてのステータスを対象にします。
func (r *syncLogGorm) Stats(ctx context.Context) (*entity.SyncStats, error) {
	var stats entity.SyncStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&SyncLogModel{}).Count(&stats.TotalSyncs).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&SyncLogModel{}).
			Where("status = ?", string(entity.StatusSuccess)).Count(&stats.SuccessfulSyncs).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&SyncLogModel{}).
			Where("status = ?", string(entity.StatusFailed)).Count(&stats.FailedSyncs).Error
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&SyncLogModel{}).
			Where("status = ?", string(entity.StatusSuccess)).
			Select("COALESCE(SUM(records_synced), 0)").
			Row().Scan(&stats.TotalRecordsSynced)
	})
	g.Go(func() error {
		last, err := r.latest(gctx, "")
		stats.LastSyncTime = last
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sync stats: %w", err)
	}
	return &stats, nil
}
