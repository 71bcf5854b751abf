package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Search(ctx context.Context, q catalog.Query) (catalog.SearchResult, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(catalog.SearchResult), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) UpsertBatch(ctx context.Context, products []catalog.Product) (int64, error) {
	args := m.Called(ctx, products)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) DeactivateMissing(ctx context.Context, keep []string) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

type pagedLister struct {
	pages [][]sige.ProductRecord
	err   error
	calls []int
}

func (l *pagedLister) ListProducts(ctx context.Context, page, pageSize int) ([]sige.ProductRecord, error) {
	l.calls = append(l.calls, page)
	if l.err != nil {
		return nil, l.err
	}
	if page > len(l.pages) {
		return nil, nil
	}
	return l.pages[page-1], nil
}

func record(code, title string, active bool) sige.ProductRecord {
	return sige.ProductRecord{
		Codigo:    code,
		Descricao: title,
		Categoria: "Freios",
		Marca:     "Fras-le",
		Preco:     decimal.RequireFromString("59.90"),
		Ativo:     active,
	}
}

func TestSyncService_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("pages until a short page and deactivates missing", func(t *testing.T) {
		lister := &pagedLister{pages: [][]sige.ProductRecord{
			{record("A1", "Pastilha", true), record("A2", "Disco", true)},
			{record("A3", "Lona", true), record("A4", "Inativo", false)},
			{record("A5", "", true)},
		}}
		repo := new(MockProductRepository)
		repo.On("UpsertBatch", ctx, mock.MatchedBy(func(ps []catalog.Product) bool {
			return len(ps) == 2 && ps[0].SKU == "A1" && ps[0].CategorySlug == "freios" && ps[0].BrandSlug == "fras-le"
		})).Return(int64(2), nil).Once()
		repo.On("UpsertBatch", ctx, mock.MatchedBy(func(ps []catalog.Product) bool {
			return len(ps) == 1 && ps[0].SKU == "A3"
		})).Return(int64(1), nil).Once()
		repo.On("DeactivateMissing", ctx, []string{"A1", "A2", "A3"}).Return(int64(4), nil)

		svc := NewSyncService(lister, repo, 2, zap.NewNop())
		res, err := svc.Sync(ctx)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 2, 3}, lister.calls)
		assert.Equal(t, 3, res.Pages)
		assert.Equal(t, int64(3), res.Upserted)
		assert.Equal(t, int64(4), res.Deactivated)
		assert.Equal(t, 1, res.Skipped)
		repo.AssertExpectations(t)
	})

	t.Run("listing failure aborts without deactivating", func(t *testing.T) {
		lister := &pagedLister{err: shared.ErrUpstream}
		repo := new(MockProductRepository)

		svc := NewSyncService(lister, repo, 50, zap.NewNop())
		_, err := svc.Sync(ctx)
		assert.ErrorIs(t, err, shared.ErrUpstream)
		repo.AssertNotCalled(t, "DeactivateMissing", mock.Anything, mock.Anything)
	})

	t.Run("upsert failure is returned", func(t *testing.T) {
		lister := &pagedLister{pages: [][]sige.ProductRecord{{record("B1", "Filtro", true)}}}
		repo := new(MockProductRepository)
		repo.On("UpsertBatch", ctx, mock.Anything).Return(int64(0), errors.New("deadlock"))

		svc := NewSyncService(lister, repo, 50, zap.NewNop())
		_, err := svc.Sync(ctx)
		assert.EqualError(t, err, "deadlock")
	})

	t.Run("default page size", func(t *testing.T) {
		svc := NewSyncService(&pagedLister{}, new(MockProductRepository), 0, zap.NewNop())
		assert.Equal(t, DefaultSyncPageSize, svc.pageSize)
	})
}
