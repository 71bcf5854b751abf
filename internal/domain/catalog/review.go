package catalog

import (
	"strings"

	"github.com/autopecas/backend/internal/domain/shared"
)

// Review is a customer review of a product
type Review struct {
	shared.BaseEntity
	SKU      string `gorm:"column:sku;type:varchar(60);not null;index"`
	Rating   int    `gorm:"not null"`
	Comment  string `gorm:"type:text"`
	Author   string `gorm:"type:varchar(120);not null"`
	Approved bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "product_reviews"
}

// NewReview creates a pending review
func NewReview(sku, author string, rating int, comment string) (*Review, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("SKU é obrigatório")
	}
	if rating < 1 || rating > 5 {
		return nil, shared.ErrInvalidInput.WithMessage("Nota deve estar entre 1 e 5")
	}
	if strings.TrimSpace(author) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Autor é obrigatório")
	}
	return &Review{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        strings.TrimSpace(sku),
		Rating:     rating,
		Comment:    comment,
		Author:     strings.TrimSpace(author),
	}, nil
}
