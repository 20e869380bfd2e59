package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
)

type historyKey struct {
	avatar  domain.AvatarKey
	session domain.SessionID
}

// ExchangeStore keeps conversation history in process memory.
type ExchangeStore struct {
	mu      sync.RWMutex
	history map[historyKey][]*domain.Exchange
}

func NewExchangeStore() *ExchangeStore {
	return &ExchangeStore{
		history: make(map[historyKey][]*domain.Exchange),
	}
}

func (s *ExchangeStore) AppendExchange(_ context.Context, rec *domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := historyKey{avatar: rec.AvatarKey, session: rec.SessionID}
	s.history[k] = append(s.history[k], rec)
	return nil
}

func (s *ExchangeStore) ListExchanges(_ context.Context, key domain.AvatarKey, sessionID domain.SessionID, limit int) ([]*domain.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.history[historyKey{avatar: key, session: sessionID}]

	// Ordering is by timestamp, not by append order; concurrent appends may
	// land out of arrival order.
	out := make([]*domain.Exchange, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *ExchangeStore) DeleteExchangesBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, recs := range s.history {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(s.history, k)
		} else {
			s.history[k] = kept
		}
	}
	return removed, nil
}
