package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pixelharbor/concierge/internal/domain"
)

// Store implements the identity, exchange and relay ports on Firestore.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) identitiesCol() *firestore.CollectionRef {
	return s.client.Collection("identities")
}

func (s *Store) identityDoc(key domain.AvatarKey) *firestore.DocumentRef {
	return s.identitiesCol().Doc(string(key))
}

func (s *Store) exchangesCol() *firestore.CollectionRef {
	return s.client.Collection("exchanges")
}

func (s *Store) relayCol() *firestore.CollectionRef {
	return s.client.Collection("relay_messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type identityDoc struct {
	DisplayName      string    `firestore:"display_name"`
	Role             string    `firestore:"role"`
	PersonalityNotes string    `firestore:"personality_notes"`
	FavoriteDrink    string    `firestore:"favorite_drink"`
	CreatedAt        time.Time `firestore:"created_at"`
	LastSeen         time.Time `firestore:"last_seen"`
}

type exchangeDoc struct {
	AvatarKey   string    `firestore:"avatar_key"`
	AvatarName  string    `firestore:"avatar_name"`
	RoleLabel   string    `firestore:"role_label"`
	MessageText string    `firestore:"message_text"`
	Reply       string    `firestore:"reply"`
	SessionID   string    `firestore:"session_id"`
	Timestamp   time.Time `firestore:"ts"`
}

type relayDoc struct {
	FromKey     string     `firestore:"from_key"`
	FromName    string     `firestore:"from_name"`
	ToKey       string     `firestore:"to_key"`
	Content     string     `firestore:"content"`
	Delivered   bool       `firestore:"delivered"`
	CreatedAt   time.Time  `firestore:"created_at"`
	DeliveredAt *time.Time `firestore:"delivered_at"`
}

// ─────────────────────────────────────────
// IdentityStore implementation
// ─────────────────────────────────────────

func (s *Store) FindIdentity(ctx context.Context, key domain.AvatarKey) (*domain.Identity, error) {
	snap, err := s.identityDoc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore FindIdentity: %w", err)
	}

	var doc identityDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode identityDoc: %w", err)
	}

	return &domain.Identity{
		Key:              key,
		DisplayName:      doc.DisplayName,
		Role:             domain.ParseRole(doc.Role),
		PersonalityNotes: doc.PersonalityNotes,
		FavoriteDrink:    doc.FavoriteDrink,
		CreatedAt:        doc.CreatedAt,
		LastSeen:         doc.LastSeen,
	}, nil
}

func (s *Store) CreateIdentity(ctx context.Context, entry *domain.Identity) error {
	_, err := s.identityDoc(entry.Key).Create(ctx, toIdentityDoc(entry))
	if err != nil {
		return fmt.Errorf("firestore CreateIdentity: %w", err)
	}
	return nil
}

// UpdateIdentity touches only the mutable fields; created_at is never
// rewritten. Update (unlike Set) fails on an absent document, keeping the
// not-found contract of the other backends.
func (s *Store) UpdateIdentity(ctx context.Context, entry *domain.Identity) error {
	_, err := s.identityDoc(entry.Key).Update(ctx, []firestore.Update{
		{Path: "display_name", Value: entry.DisplayName},
		{Path: "role", Value: string(entry.Role)},
		{Path: "personality_notes", Value: entry.PersonalityNotes},
		{Path: "favorite_drink", Value: entry.FavoriteDrink},
		{Path: "last_seen", Value: entry.LastSeen},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore UpdateIdentity: %w", err)
	}
	return nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]*domain.Identity, error) {
	iter := s.identitiesCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Identity
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListIdentities: %w", err)
		}

		var doc identityDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode identityDoc: %w", err)
		}

		out = append(out, &domain.Identity{
			Key:              domain.AvatarKey(snap.Ref.ID),
			DisplayName:      doc.DisplayName,
			Role:             domain.ParseRole(doc.Role),
			PersonalityNotes: doc.PersonalityNotes,
			FavoriteDrink:    doc.FavoriteDrink,
			CreatedAt:        doc.CreatedAt,
			LastSeen:         doc.LastSeen,
		})
	}
	return out, nil
}

func toIdentityDoc(entry *domain.Identity) identityDoc {
	return identityDoc{
		DisplayName:      entry.DisplayName,
		Role:             string(entry.Role),
		PersonalityNotes: entry.PersonalityNotes,
		FavoriteDrink:    entry.FavoriteDrink,
		CreatedAt:        entry.CreatedAt,
		LastSeen:         entry.LastSeen,
	}
}

// ─────────────────────────────────────────
// ExchangeStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendExchange(ctx context.Context, rec *domain.Exchange) error {
	doc := exchangeDoc{
		AvatarKey:   string(rec.AvatarKey),
		AvatarName:  rec.AvatarName,
		RoleLabel:   rec.RoleLabel,
		MessageText: rec.MessageText,
		Reply:       rec.Reply,
		SessionID:   string(rec.SessionID),
		Timestamp:   rec.Timestamp,
	}

	_, err := s.exchangesCol().Doc(string(rec.ID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendExchange: %w", err)
	}
	return nil
}

func (s *Store) ListExchanges(ctx context.Context, key domain.AvatarKey, sessionID domain.SessionID, limit int) ([]*domain.Exchange, error) {
	q := s.exchangesCol().
		Where("avatar_key", "==", string(key)).
		Where("session_id", "==", string(sessionID)).
		OrderBy("ts", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var newest []*domain.Exchange
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListExchanges: %w", err)
		}

		var doc exchangeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode exchangeDoc: %w", err)
		}

		newest = append(newest, &domain.Exchange{
			ID:          domain.MessageID(snap.Ref.ID),
			AvatarKey:   domain.AvatarKey(doc.AvatarKey),
			AvatarName:  doc.AvatarName,
			RoleLabel:   doc.RoleLabel,
			MessageText: doc.MessageText,
			Reply:       doc.Reply,
			SessionID:   domain.SessionID(doc.SessionID),
			Timestamp:   doc.Timestamp,
		})
	}

	// Query is newest-first to apply the window; callers want ascending.
	out := make([]*domain.Exchange, len(newest))
	for i, rec := range newest {
		out[len(newest)-1-i] = rec
	}
	return out, nil
}

func (s *Store) DeleteExchangesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	iter := s.exchangesCol().Where("ts", "<", cutoff).Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return removed, fmt.Errorf("firestore DeleteExchangesBefore: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return removed, fmt.Errorf("firestore delete exchange: %w", err)
		}
		removed++
	}
	return removed, nil
}

// ─────────────────────────────────────────
// RelayStore implementation
// ─────────────────────────────────────────

func (s *Store) QueueMessage(ctx context.Context, msg *domain.RelayMessage) error {
	doc := relayDoc{
		FromKey:     string(msg.FromKey),
		FromName:    msg.FromName,
		ToKey:       string(msg.ToKey),
		Content:     msg.Content,
		Delivered:   msg.Delivered,
		CreatedAt:   msg.CreatedAt,
		DeliveredAt: msg.DeliveredAt,
	}

	_, err := s.relayCol().Doc(string(msg.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore QueueMessage: %w", err)
	}
	return nil
}

func (s *Store) PendingMessages(ctx context.Context, toKey domain.AvatarKey) ([]*domain.RelayMessage, error) {
	iter := s.relayCol().
		Where("to_key", "==", string(toKey)).
		Where("delivered", "==", false).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []*domain.RelayMessage
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore PendingMessages: %w", err)
		}

		var doc relayDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode relayDoc: %w", err)
		}

		out = append(out, &domain.RelayMessage{
			ID:          domain.MessageID(snap.Ref.ID),
			FromKey:     domain.AvatarKey(doc.FromKey),
			FromName:    doc.FromName,
			ToKey:       domain.AvatarKey(doc.ToKey),
			Content:     doc.Content,
			Delivered:   doc.Delivered,
			CreatedAt:   doc.CreatedAt,
			DeliveredAt: doc.DeliveredAt,
		})
	}
	return out, nil
}

func (s *Store) MarkDelivered(ctx context.Context, id domain.MessageID) error {
	_, err := s.relayCol().Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "delivered", Value: true},
		{Path: "delivered_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore MarkDelivered: %w", err)
	}
	return nil
}

func (s *Store) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	iter := s.relayCol().
		Where("delivered", "==", true).
		Where("delivered_at", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return removed, fmt.Errorf("firestore DeleteDeliveredBefore: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return removed, fmt.Errorf("firestore delete relay message: %w", err)
		}
		removed++
	}
	return removed, nil
}
