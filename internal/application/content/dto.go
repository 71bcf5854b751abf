package content

import (
	"time"

	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListQuery filters an admin listing
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Active   *bool
	OrderBy  string
	OrderDir string
}

func (q ListQuery) filter() shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	f.Search = q.Search
	f.OrderBy = q.OrderBy
	f.OrderDir = q.OrderDir
	f.Active = q.Active
	return f
}

// MessageDTO is the API view of a storefront message
type MessageDTO struct {
	ID        uuid.UUID           `json:"id"`
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	Kind      content.MessageKind `json:"kind"`
	Active    bool                `json:"active"`
	StartsAt  *time.Time          `json:"starts_at,omitempty"`
	EndsAt    *time.Time          `json:"ends_at,omitempty"`
	Position  int                 `json:"position"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ToMessageDTO converts a message to its API view
func ToMessageDTO(m *content.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		Title:     m.Title,
		Body:      m.Body,
		Kind:      m.Kind,
		Active:    m.Active,
		StartsAt:  m.StartsAt,
		EndsAt:    m.EndsAt,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// BrandDTO is the API view of a brand
type BrandDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   string    `json:"logo_url,omitempty"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToBrandDTO converts a brand to its API view
func ToBrandDTO(b *content.Brand) BrandDTO {
	return BrandDTO{
		ID:        b.ID,
		Name:      b.Name,
		Slug:      b.Slug,
		LogoURL:   b.LogoURL,
		Active:    b.Active,
		Position:  b.Position,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
