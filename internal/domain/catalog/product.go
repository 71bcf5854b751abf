package catalog

import (
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the local mirror of a SIGE product used by the storefront search.
// Balances and live prices stay in the ERP; Preco is only the sort key.
type Product struct {
	shared.BaseEntity
	SKU          string          `gorm:"column:sku;type:varchar(60);not null;uniqueIndex"`
	Titulo       string          `gorm:"column:titulo;type:varchar(255);not null"`
	CategorySlug string          `gorm:"column:category_slug;type:varchar(120);index"`
	BrandSlug    string          `gorm:"column:brand_slug;type:varchar(120);index"`
	Preco        decimal.Decimal `gorm:"column:preco;type:numeric(14,2);not null;default:0"`
	Ativo        bool            `gorm:"column:ativo;not null"`
	SyncedAt     time.Time       `gorm:"column:synced_at;not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product mirror entry
func NewProduct(sku, titulo, categorySlug string, preco decimal.Decimal) (*Product, error) {
	sku = strings.TrimSpace(sku)
	titulo = strings.TrimSpace(titulo)
	if sku == "" {
		return nil, shared.ErrInvalidInput.WithMessage("SKU é obrigatório")
	}
	if titulo == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Título é obrigatório")
	}
	if preco.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("Preço não pode ser negativo")
	}

	p := &Product{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          sku,
		Titulo:       titulo,
		CategorySlug: shared.Slugify(categorySlug),
		Preco:        preco,
		Ativo:        true,
	}
	p.SyncedAt = p.CreatedAt
	return p, nil
}

// Stub returns the search-result projection of the product
func (p *Product) Stub() ProductStub {
	return ProductStub{SKU: p.SKU, Titulo: p.Titulo}
}

// ProductStub is the minimal product row returned by the catalog search
type ProductStub struct {
	SKU    string `json:"sku"`
	Titulo string `json:"titulo"`
}
