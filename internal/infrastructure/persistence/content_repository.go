package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// applyContentFilter applies the active flag and search term of a list filter
func applyContentFilter(query *gorm.DB, filter shared.Filter, searchColumn string) *gorm.DB {
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		query = query.Where("LOWER("+searchColumn+`) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(strings.TrimSpace(filter.Search)))+"%")
	}
	return query
}

// pageContentQuery applies ordering and pagination; position sorts ascending unless asked otherwise
func pageContentQuery(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, allowed, "position")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if orderBy == "position" && filter.OrderDir == "" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir).Order("created_at DESC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// GormMessageRepository implements content.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// FindByID finds a message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Message, error) {
	var msg content.Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// FindAll returns one page of messages and the unpaged total
func (r *GormMessageRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.Message, int64, error) {
	query := applyContentFilter(r.db.WithContext(ctx).Model(&content.Message{}), filter, "title").
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []content.Message
	if err := pageContentQuery(query, filter, MessageSortFields).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// FindVisible returns active messages whose display window contains at
func (r *GormMessageRepository) FindVisible(ctx context.Context, at time.Time) ([]content.Message, error) {
	var messages []content.Message
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("(starts_at IS NULL OR starts_at <= ?)", at).
		Where("(ends_at IS NULL OR ends_at > ?)", at).
		Order("position ASC").
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Save creates or updates a message
func (r *GormMessageRepository) Save(ctx context.Context, msg *content.Message) error {
	return r.db.WithContext(ctx).Save(msg).Error
}

// Delete deletes a message
func (r *GormMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&content.Message{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormBrandRepository implements content.BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindByID finds a brand by ID
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Brand, error) {
	var brand content.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &brand, nil
}

// FindBySlug finds a brand by slug
func (r *GormBrandRepository) FindBySlug(ctx context.Context, slug string) (*content.Brand, error) {
	var brand content.Brand
	if err := r.db.WithContext(ctx).First(&brand, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &brand, nil
}

// FindAll returns one page of brands and the unpaged total
func (r *GormBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.Brand, int64, error) {
	query := applyContentFilter(r.db.WithContext(ctx).Model(&content.Brand{}), filter, "name").
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var brands []content.Brand
	if err := pageContentQuery(query, filter, BrandSortFields).Find(&brands).Error; err != nil {
		return nil, 0, err
	}
	return brands, total, nil
}

// Save creates or updates a brand
func (r *GormBrandRepository) Save(ctx context.Context, brand *content.Brand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

// Delete deletes a brand
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&content.Brand{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
