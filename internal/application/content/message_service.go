package content

import (
	"context"
	"time"

	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageService manages storefront messages
type MessageService struct {
	repo   content.MessageRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(repo content.MessageRepository, logger *zap.Logger) *MessageService {
	return &MessageService{repo: repo, logger: logger, now: time.Now}
}

// List returns a page of messages ordered by position
func (s *MessageService) List(ctx context.Context, q ListQuery) (shared.Paginated[MessageDTO], error) {
	filter := q.filter()
	if filter.OrderBy == "created_at" && q.OrderBy == "" {
		filter.OrderBy = "position"
		filter.OrderDir = "asc"
	}
	messages, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[MessageDTO]{}, err
	}
	items := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		items = append(items, ToMessageDTO(&messages[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns one message
func (s *MessageService) Get(ctx context.Context, id uuid.UUID) (*MessageDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToMessageDTO(m)
	return &dto, nil
}

// Create adds a message
func (s *MessageService) Create(ctx context.Context, in content.MessageInput) (*MessageDTO, error) {
	m, err := content.NewMessage(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("Message created", zap.String("message_id", m.ID.String()))
	dto := ToMessageDTO(m)
	return &dto, nil
}

// Update replaces the editable fields of a message
func (s *MessageService) Update(ctx context.Context, id uuid.UUID, in content.MessageInput) (*MessageDTO, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(in); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	dto := ToMessageDTO(m)
	return &dto, nil
}

// Delete removes a message
func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Message deleted", zap.String("message_id", id.String()))
	return nil
}

// Visible returns the active messages whose window contains now
func (s *MessageService) Visible(ctx context.Context) ([]MessageDTO, error) {
	messages, err := s.repo.FindVisible(ctx, s.now())
	if err != nil {
		return nil, err
	}
	items := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		items = append(items, ToMessageDTO(&messages[i]))
	}
	return items, nil
}
