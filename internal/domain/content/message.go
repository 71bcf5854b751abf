package content

import (
	"context"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MessageKind is the visual style of a storefront notice
type MessageKind string

const (
	MessageKindInfo    MessageKind = "info"
	MessageKindWarning MessageKind = "warning"
	MessageKindPromo   MessageKind = "promo"
)

// IsValid returns true if the kind is known
func (k MessageKind) IsValid() bool {
	switch k {
	case MessageKindInfo, MessageKindWarning, MessageKindPromo:
		return true
	}
	return false
}

// Message is a notice shown on the storefront
type Message struct {
	shared.BaseEntity
	Title    string      `gorm:"type:varchar(160);not null"`
	Body     string      `gorm:"type:text;not null"`
	Kind     MessageKind `gorm:"type:varchar(20);not null;default:'info'"`
	Active   bool        `gorm:"not null"`
	StartsAt *time.Time  `gorm:"column:starts_at"`
	EndsAt   *time.Time  `gorm:"column:ends_at"`
	Position int         `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "admin_messages"
}

// MessageInput carries the editable fields of a message
type MessageInput struct {
	Title    string
	Body     string
	Kind     MessageKind
	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
	Position int
}

// NewMessage creates a message from validated input
func NewMessage(in MessageInput) (*Message, error) {
	m := &Message{BaseEntity: shared.NewBaseEntity()}
	if err := m.Apply(in); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply replaces the editable fields
func (m *Message) Apply(in MessageInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return shared.ErrInvalidInput.WithMessage("Título é obrigatório")
	}
	if strings.TrimSpace(in.Body) == "" {
		return shared.ErrInvalidInput.WithMessage("Mensagem é obrigatória")
	}
	if in.Kind == "" {
		in.Kind = MessageKindInfo
	}
	if !in.Kind.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Tipo de mensagem inválido")
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return shared.ErrInvalidInput.WithMessage("Data final anterior à data inicial")
	}

	m.Title = in.Title
	m.Body = in.Body
	m.Kind = in.Kind
	m.Active = in.Active
	m.StartsAt = in.StartsAt
	m.EndsAt = in.EndsAt
	m.Position = in.Position
	m.Touch()
	return nil
}

// VisibleAt reports whether the message should be displayed at t
func (m *Message) VisibleAt(t time.Time) bool {
	if !m.Active {
		return false
	}
	if m.StartsAt != nil && t.Before(*m.StartsAt) {
		return false
	}
	if m.EndsAt != nil && !t.Before(*m.EndsAt) {
		return false
	}
	return true
}

// MessageRepository persists storefront messages
type MessageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Message, int64, error)
	FindVisible(ctx context.Context, at time.Time) ([]Message, error)
	Save(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id uuid.UUID) error
}
