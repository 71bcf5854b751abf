package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const productUpsertBatchSize = 200

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Search returns one page of active product stubs and the total for the unpaged query
func (r *GormProductRepository) Search(ctx context.Context, q catalog.Query) (catalog.SearchResult, error) {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	query := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("ativo = ?", true)
	if q.CategorySlug != "" {
		query = query.Where("category_slug = ?", q.CategorySlug)
	}
	if search != "" {
		like := "%" + escapeLike(search) + "%"
		query = query.Where(`(LOWER(titulo) LIKE ? ESCAPE '\' OR LOWER(sku) LIKE ? ESCAPE '\')`, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return catalog.SearchResult{}, err
	}

	items := make([]catalog.ProductStub, 0, q.PageSize)
	if total > 0 {
		offset := 0
		if q.Page > 1 {
			offset = (q.Page - 1) * q.PageSize
		}
		if err := query.
			Select("sku", "titulo").
			Clauses(catalogOrder(q.Sort, search)).
			Offset(offset).
			Limit(q.PageSize).
			Find(&items).Error; err != nil {
			return catalog.SearchResult{}, err
		}
	}

	return catalog.SearchResult{Items: items, Total: total}, nil
}

// FindBySKU finds an active product by SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Where("sku = ? AND ativo = ?", sku, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// UpsertBatch inserts new SKUs and refreshes the mirrored columns of existing ones
func (r *GormProductRepository) UpsertBatch(ctx context.Context, products []catalog.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"titulo", "category_slug", "brand_slug", "preco", "ativo", "synced_at", "updated_at",
			}),
		}).
		CreateInBatches(products, productUpsertBatchSize)
	return result.RowsAffected, result.Error
}

// DeactivateMissing hides products that disappeared from the ERP.
// An empty keep list is a no-op so a failed listing never empties the catalog.
func (r *GormProductRepository) DeactivateMissing(ctx context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("ativo = ? AND sku NOT IN ?", true, keep).
		Update("ativo", false)
	return result.RowsAffected, result.Error
}

// GormReviewRepository implements catalog.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

type reviewSummaryRow struct {
	SKU     string
	Average float64
	Count   int64
}

// Summaries aggregates approved reviews per SKU. SKUs without reviews are absent from the map.
func (r *GormReviewRepository) Summaries(ctx context.Context, skus []string) (map[string]catalog.ReviewSummary, error) {
	summaries := make(map[string]catalog.ReviewSummary, len(skus))
	if len(skus) == 0 {
		return summaries, nil
	}

	var rows []reviewSummaryRow
	if err := r.db.WithContext(ctx).
		Model(&catalog.Review{}).
		Select("sku, AVG(rating) AS average, COUNT(*) AS count").
		Where("approved = ? AND sku IN ?", true, skus).
		Group("sku").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		summaries[row.SKU] = catalog.ReviewSummary{SKU: row.SKU, Average: row.Average, Count: row.Count}
	}
	return summaries, nil
}
