package domain

import (
	"context"
	"time"
)

// LLMClient defines how the engine talks to the external text-generation
// service. Implementations report failures as errors; turning a failure into
// an in-character fallback is the caller's job.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// IdentityStore defines identity persistence.
type IdentityStore interface {
	FindIdentity(ctx context.Context, key AvatarKey) (*Identity, error)
	CreateIdentity(ctx context.Context, entry *Identity) error
	UpdateIdentity(ctx context.Context, entry *Identity) error
	ListIdentities(ctx context.Context) ([]*Identity, error)
}

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = notFoundError("record not found")

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

// ExchangeStore defines conversation-history persistence.
type ExchangeStore interface {
	// ListExchanges returns up to limit of the most recent exchanges for the
	// (key, session) pair, ordered oldest to newest.
	ListExchanges(ctx context.Context, key AvatarKey, sessionID SessionID, limit int) ([]*Exchange, error)
	AppendExchange(ctx context.Context, rec *Exchange) error
	DeleteExchangesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RelayStore defines persistence for messages left with the concierge.
type RelayStore interface {
	QueueMessage(ctx context.Context, msg *RelayMessage) error
	PendingMessages(ctx context.Context, toKey AvatarKey) ([]*RelayMessage, error)
	MarkDelivered(ctx context.Context, id MessageID) error
	DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int, error)
}
