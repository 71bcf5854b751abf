package persistence

import (
	"context"
	"errors"

	"github.com/autopecas/backend/internal/domain/identity"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdminUserRepository implements identity.AdminUserRepository using GORM
type GormAdminUserRepository struct {
	db *gorm.DB
}

// NewGormAdminUserRepository creates a new GormAdminUserRepository
func NewGormAdminUserRepository(db *gorm.DB) *GormAdminUserRepository {
	return &GormAdminUserRepository{db: db}
}

// FindByID finds an admin by ID
func (r *GormAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	var user identity.AdminUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds an admin by normalized email
func (r *GormAdminUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	var user identity.AdminUser
	if err := r.db.WithContext(ctx).First(&user, "email = ?", identity.NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Count returns the number of admin accounts
func (r *GormAdminUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&identity.AdminUser{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an admin
func (r *GormAdminUserRepository) Save(ctx context.Context, user *identity.AdminUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}
