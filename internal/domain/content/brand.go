package content

import (
	"context"
	"strings"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Brand is a manufacturer shown in the storefront brand carousel
type Brand struct {
	shared.BaseEntity
	Name     string `gorm:"type:varchar(120);not null"`
	Slug     string `gorm:"type:varchar(120);not null;uniqueIndex"`
	LogoURL  string `gorm:"type:varchar(500)"`
	LogoKey  string `gorm:"type:varchar(300)"`
	Active   bool   `gorm:"not null"`
	Position int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Brand) TableName() string {
	return "brands"
}

// BrandInput carries the editable fields of a brand
type BrandInput struct {
	Name     string
	Slug     string
	Active   bool
	Position int
}

// NewBrand creates a brand; the slug is derived from the name when empty
func NewBrand(in BrandInput) (*Brand, error) {
	b := &Brand{BaseEntity: shared.NewBaseEntity()}
	if err := b.Apply(in); err != nil {
		return nil, err
	}
	return b, nil
}

// Apply replaces the editable fields
func (b *Brand) Apply(in BrandInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Nome da marca é obrigatório")
	}
	slug := shared.Slugify(in.Slug)
	if slug == "" {
		slug = shared.Slugify(name)
	}
	if slug == "" {
		return shared.ErrInvalidInput.WithMessage("Não foi possível gerar o slug da marca")
	}

	b.Name = name
	b.Slug = slug
	b.Active = in.Active
	b.Position = in.Position
	b.Touch()
	return nil
}

// SetLogo records the stored logo object
func (b *Brand) SetLogo(key, url string) {
	b.LogoKey = key
	b.LogoURL = url
	b.Touch()
}

// BrandRepository persists brands
type BrandRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)
	FindBySlug(ctx context.Context, slug string) (*Brand, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Brand, int64, error)
	Save(ctx context.Context, b *Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
}
