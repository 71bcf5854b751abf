package persistence

import (
	"context"
	"errors"

	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSigeConnectionRepository implements sige.ConnectionRepository using GORM
type GormSigeConnectionRepository struct {
	db *gorm.DB
}

// NewGormSigeConnectionRepository creates a new GormSigeConnectionRepository
func NewGormSigeConnectionRepository(db *gorm.DB) *GormSigeConnectionRepository {
	return &GormSigeConnectionRepository{db: db}
}

// Get returns the stored connection
func (r *GormSigeConnectionRepository) Get(ctx context.Context) (*sige.Connection, error) {
	var conn sige.Connection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", sige.ConnectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// Save creates or replaces the connection row
func (r *GormSigeConnectionRepository) Save(ctx context.Context, conn *sige.Connection) error {
	conn.ID = sige.ConnectionID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(conn).Error
}

// Delete removes the connection row
func (r *GormSigeConnectionRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).Delete(&sige.Connection{}, "id = ?", sige.ConnectionID).Error
}

// GormMercadoPagoCredentialRepository implements payment.CredentialRepository using GORM
type GormMercadoPagoCredentialRepository struct {
	db *gorm.DB
}

// NewGormMercadoPagoCredentialRepository creates a new GormMercadoPagoCredentialRepository
func NewGormMercadoPagoCredentialRepository(db *gorm.DB) *GormMercadoPagoCredentialRepository {
	return &GormMercadoPagoCredentialRepository{db: db}
}

// Get returns the stored credentials
func (r *GormMercadoPagoCredentialRepository) Get(ctx context.Context) (*payment.Credentials, error) {
	var creds payment.Credentials
	if err := r.db.WithContext(ctx).First(&creds, "id = ?", payment.CredentialsID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &creds, nil
}

// Save creates or replaces the credentials row
func (r *GormMercadoPagoCredentialRepository) Save(ctx context.Context, creds *payment.Credentials) error {
	creds.ID = payment.CredentialsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(creds).Error
}

// Delete removes the credentials row
func (r *GormMercadoPagoCredentialRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).Delete(&payment.Credentials{}, "id = ?", payment.CredentialsID).Error
}
