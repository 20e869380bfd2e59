package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
)

// RelayStore keeps queued relay messages in process memory.
type RelayStore struct {
	mu       sync.RWMutex
	messages map[domain.MessageID]*domain.RelayMessage
}

func NewRelayStore() *RelayStore {
	return &RelayStore{
		messages: make(map[domain.MessageID]*domain.RelayMessage),
	}
}

func (s *RelayStore) QueueMessage(_ context.Context, msg *domain.RelayMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *RelayStore) PendingMessages(_ context.Context, toKey domain.AvatarKey) ([]*domain.RelayMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RelayMessage
	for _, msg := range s.messages {
		if msg.ToKey == toKey && !msg.Delivered {
			copied := *msg
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (s *RelayStore) MarkDelivered(_ context.Context, id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return domain.ErrNotFound
	}

	now := time.Now()
	msg.Delivered = true
	msg.DeliveredAt = &now
	return nil
}

func (s *RelayStore) DeleteDeliveredBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, msg := range s.messages {
		if msg.Delivered && msg.DeliveredAt != nil && msg.DeliveredAt.Before(cutoff) {
			delete(s.messages, id)
			removed++
		}
	}
	return removed, nil
}
