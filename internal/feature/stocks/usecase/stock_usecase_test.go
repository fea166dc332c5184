package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_dashboard/internal/feature/stocks/domain/entity"
)

var ErrDB = errors.New("database error")

// mockStockRepository は StockRepository のモック実装です。
type mockStockRepository struct {
	ListFunc               func(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error)
	FindByIDFunc           func(ctx context.Context, id uint) (*entity.Stock, error)
	CreateFunc             func(ctx context.Context, s *entity.Stock) error
	UpdateFunc             func(ctx context.Context, s *entity.Stock) error
	DeleteFunc             func(ctx context.Context, id uint) (bool, error)
	SectorDistributionFunc func(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error)
	PriceTimelineFunc      func(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error)
	DashboardStatsFunc     func(ctx context.Context) (*entity.DashboardStats, error)

	DeleteCalls int
	UpdateCalls int
}

func (m *mockStockRepository) List(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error) {
	return m.ListFunc(ctx, q)
}

func (m *mockStockRepository) FindByID(ctx context.Context, id uint) (*entity.Stock, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockStockRepository) FindBySymbol(ctx context.Context, symbol string) ([]entity.Stock, error) {
	return nil, nil
}

func (m *mockStockRepository) LastDateForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	return nil, nil
}

func (m *mockStockRepository) Create(ctx context.Context, s *entity.Stock) error {
	return m.CreateFunc(ctx, s)
}

func (m *mockStockRepository) Update(ctx context.Context, s *entity.Stock) error {
	m.UpdateCalls++
	return m.UpdateFunc(ctx, s)
}

func (m *mockStockRepository) Delete(ctx context.Context, id uint) (bool, error) {
	m.DeleteCalls++
	return m.DeleteFunc(ctx, id)
}

func (m *mockStockRepository) Upsert(ctx context.Context, s entity.Stock) error { return nil }

func (m *mockStockRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockStockRepository) SectorDistribution(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error) {
	return m.SectorDistributionFunc(ctx, r)
}

func (m *mockStockRepository) PriceTimeline(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error) {
	return m.PriceTimelineFunc(ctx, symbol, r)
}

func (m *mockStockRepository) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	return m.DashboardStatsFunc(ctx)
}

func TestNormalizeSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sortBy, sortOrder   string
		wantCol, wantOrder string
	}{
		{"close_price", "asc", "close_price", "asc"},
		{"date", "DESC", "date", "desc"},
		{"symbol", "Asc", "symbol", "asc"},
		{"volume", "", "volume", "desc"},
		{"change_percent", "sideways", "change_percent", "desc"},
		{"updated_at", "desc", "updated_at", "desc"},
		{"company_name", "asc", "updated_at", "asc"},
		{"id; DROP TABLE stocks", "asc", "updated_at", "asc"},
		{"", "", "updated_at", "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+"/"+tt.sortOrder, func(t *testing.T) {
			col, order := NormalizeSort(tt.sortBy, tt.sortOrder)
			assert.Equal(t, tt.wantCol, col)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestStockUsecase_List(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var captured entity.ListQuery
	repo := &mockStockRepository{
		ListFunc: func(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error) {
			captured = q
			return []entity.Stock{{ID: 1, Symbol: "AAPL"}}, 120, nil
		},
	}
	uc := NewStockUsecase(repo)

	page, err := uc.List(context.Background(), ListInput{
		Page:      "2",
		Limit:     "500",
		Symbol:    "AAPL",
		Search:    "app",
		SortBy:    "bogus",
		SortOrder: "ASC",
		Dates:     entity.DateRange{From: &from},
	})

	require.NoError(t, err)
	assert.Equal(t, "updated_at", captured.SortBy)
	assert.Equal(t, "asc", captured.SortOrder)
	assert.Equal(t, 2, captured.Page.Page)
	assert.Equal(t, 100, captured.Page.Limit)
	assert.Equal(t, "AAPL", captured.Symbol)
	assert.Equal(t, &from, captured.Dates.From)

	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
}

func TestStockUsecase_List_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := &mockStockRepository{
		ListFunc: func(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error) {
			return nil, 0, ErrDB
		},
	}

	_, err := NewStockUsecase(repo).List(context.Background(), ListInput{})
	assert.ErrorIs(t, err, ErrDB)
}

func TestStockUsecase_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      CreateStockInput
		createFunc func(ctx context.Context, s *entity.Stock) error
		wantErr    error
		wantValErr bool
		wantMsg    string
	}{
		{
			name:  "success: valid payload is inserted",
			input: validInput(),
			createFunc: func(ctx context.Context, s *entity.Stock) error {
				assert.Equal(t, "AAPL", s.Symbol)
				assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), s.Date)
				assert.Equal(t, int64(1000), s.Volume)
				s.ID = 7
				return nil
			},
		},
		{
			name: "error: invalid payload never reaches the repository",
			input: func() CreateStockInput {
				in := validInput()
				in.HighPrice = ptr(140.0)
				return in
			}(),
			createFunc: func(ctx context.Context, s *entity.Stock) error {
				t.Error("Create should not be called")
				return nil
			},
			wantValErr: true,
			wantMsg:    "high_price must be greater than or equal to low_price",
		},
		{
			name: "error: volume that overflows int64 is rejected",
			input: func() CreateStockInput {
				in := validInput()
				in.Volume = ptr(1e20)
				return in
			}(),
			createFunc: func(ctx context.Context, s *entity.Stock) error {
				t.Errorf("Create should not be called, volume=%d", s.Volume)
				return nil
			},
			wantValErr: true,
			wantMsg:    "Invalid volume: must be non-negative integer",
		},
		{
			name:  "error: duplicate symbol/date",
			input: validInput(),
			createFunc: func(ctx context.Context, s *entity.Stock) error {
				return ErrStockAlreadyExists
			},
			wantErr: ErrStockAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewStockUsecase(&mockStockRepository{CreateFunc: tt.createFunc})

			s, err := uc.Create(context.Background(), tt.input)

			switch {
			case tt.wantValErr:
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Errors, tt.wantMsg)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, uint(7), s.ID)
			}
		})
	}
}

func TestStockUsecase_Update(t *testing.T) {
	t.Parallel()

	existing := func() *entity.Stock {
		return &entity.Stock{ID: 1, Symbol: "AAPL", OpenPrice: 150, HighPrice: 155, LowPrice: 148, ClosePrice: 152, Volume: 1000}
	}

	t.Run("success: only provided fields change", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return existing(), nil },
			UpdateFunc:   func(ctx context.Context, s *entity.Stock) error { return nil },
		}
		s, err := NewStockUsecase(repo).Update(context.Background(), 1, UpdateStockInput{
			ClosePrice: ptr(160.0),
			HighPrice:  ptr(161.0),
			IsFinal:    ptr(true),
		})

		require.NoError(t, err)
		assert.Equal(t, 160.0, s.ClosePrice)
		assert.Equal(t, 161.0, s.HighPrice)
		assert.Equal(t, 150.0, s.OpenPrice)
		assert.True(t, s.IsFinal)
		assert.Equal(t, 1, repo.UpdateCalls)
	})

	t.Run("error: not found", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return nil, nil },
		}
		_, err := NewStockUsecase(repo).Update(context.Background(), 99, UpdateStockInput{})

		assert.ErrorIs(t, err, ErrStockNotFound)
		assert.Equal(t, 0, repo.UpdateCalls)
	})

	t.Run("error: high below low", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return existing(), nil },
		}
		_, err := NewStockUsecase(repo).Update(context.Background(), 1, UpdateStockInput{HighPrice: ptr(100.0)})

		assert.ErrorIs(t, err, ErrInvalidPriceRange)
		assert.Equal(t, 0, repo.UpdateCalls)
	})

	t.Run("only the price relation is re-checked", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return existing(), nil },
			UpdateFunc:   func(ctx context.Context, s *entity.Stock) error { return nil },
		}
		// 負の出来高は作成時の検証では弾かれるが、更新では受け入れる
		s, err := NewStockUsecase(repo).Update(context.Background(), 1, UpdateStockInput{Volume: ptr(int64(-5))})

		require.NoError(t, err)
		assert.Equal(t, int64(-5), s.Volume)
	})
}

func TestStockUsecase_Delete(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return &entity.Stock{ID: id}, nil },
			DeleteFunc:   func(ctx context.Context, id uint) (bool, error) { return true, nil },
		}
		assert.NoError(t, NewStockUsecase(repo).Delete(context.Background(), 3))
		assert.Equal(t, 1, repo.DeleteCalls)
	})

	t.Run("error: not found", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return nil, nil },
		}
		assert.ErrorIs(t, NewStockUsecase(repo).Delete(context.Background(), 3), ErrStockNotFound)
		assert.Equal(t, 0, repo.DeleteCalls)
	})

	t.Run("error: lookup fails", func(t *testing.T) {
		repo := &mockStockRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return nil, ErrDB },
		}
		assert.ErrorIs(t, NewStockUsecase(repo).Delete(context.Background(), 3), ErrDB)
	})
}

func TestStockUsecase_GetByID_AbsentIsNotAnError(t *testing.T) {
	t.Parallel()

	repo := &mockStockRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*entity.Stock, error) { return nil, nil },
	}

	s, err := NewStockUsecase(repo).GetByID(context.Background(), 42)

	assert.NoError(t, err)
	assert.Nil(t, s)
}
