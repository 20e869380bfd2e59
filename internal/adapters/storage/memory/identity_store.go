package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pixelharbor/concierge/internal/domain"
)

// IdentityStore is a simple in-memory implementation of domain.IdentityStore.
// It is NOT persistent and is only suitable for development / local mode.
type IdentityStore struct {
	mu      sync.RWMutex
	entries map[domain.AvatarKey]domain.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		entries: make(map[domain.AvatarKey]domain.Identity),
	}
}

func (s *IdentityStore) FindIdentity(_ context.Context, key domain.AvatarKey) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (s *IdentityStore) CreateIdentity(_ context.Context, entry *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.Key]; exists {
		return errors.New("identity already exists")
	}

	s.entries[entry.Key] = *entry
	return nil
}

func (s *IdentityStore) UpdateIdentity(_ context.Context, entry *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.Key]; !exists {
		return domain.ErrNotFound
	}

	s.entries[entry.Key] = *entry
	return nil
}

func (s *IdentityStore) ListIdentities(_ context.Context) ([]*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Identity, 0, len(s.entries))
	for key := range s.entries {
		entry := s.entries[key]
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}
