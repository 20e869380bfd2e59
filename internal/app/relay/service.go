package relay

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// Service queues messages left with the concierge for avatars who are away
// and hands them over on their next check-in.
type Service struct {
	store domain.RelayStore
	now   func() time.Time
}

func NewService(store domain.RelayStore) *Service {
	return &Service{store: store, now: time.Now}
}

type QueueInput struct {
	FromKey  domain.AvatarKey
	FromName string
	ToKey    domain.AvatarKey
	Content  string
}

// Queue stores a message for later delivery and returns its id.
func (s *Service) Queue(ctx context.Context, in QueueInput) (domain.MessageID, error) {
	msg := &domain.RelayMessage{
		ID:        domain.MessageID(uuid.NewString()),
		FromKey:   in.FromKey,
		FromName:  in.FromName,
		ToKey:     in.ToKey,
		Content:   in.Content,
		CreatedAt: s.now(),
	}

	if err := s.store.QueueMessage(ctx, msg); err != nil {
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("relay message queued",
		"from", in.FromName, "to_key", in.ToKey)
	return msg.ID, nil
}

// Pending returns the undelivered messages for an avatar, oldest first.
func (s *Service) Pending(ctx context.Context, toKey domain.AvatarKey) ([]*domain.RelayMessage, error) {
	return s.store.PendingMessages(ctx, toKey)
}

// MarkDelivered records that the in-world agent handed the message over.
func (s *Service) MarkDelivered(ctx context.Context, id domain.MessageID) error {
	if err := s.store.MarkDelivered(ctx, id); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("relay message delivered", "message_id", id)
	return nil
}
