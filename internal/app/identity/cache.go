package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// Resolver resolves an avatar key to its identity entry, fronting the
// IdentityStore with a TTL cache. Resolution never fails: if the store is
// unreachable the caller still receives a best-effort in-memory entry so the
// conversation can proceed.
type Resolver struct {
	store     domain.IdentityStore
	ttl       time.Duration
	ownerKeys map[domain.AvatarKey]struct{}
	now       func() time.Time

	mu    sync.RWMutex
	cache map[domain.AvatarKey]cacheEntry
}

type cacheEntry struct {
	identity domain.Identity
	storedAt time.Time
}

// NewResolver creates a Resolver. ownerKeys lists the avatar keys that are
// granted the privileged role on first contact.
func NewResolver(store domain.IdentityStore, ttl time.Duration, ownerKeys []string) *Resolver {
	keys := make(map[domain.AvatarKey]struct{}, len(ownerKeys))
	for _, k := range ownerKeys {
		keys[domain.AvatarKey(k)] = struct{}{}
	}

	return &Resolver{
		store:     store,
		ttl:       ttl,
		ownerKeys: keys,
		now:       time.Now,
		cache:     make(map[domain.AvatarKey]cacheEntry),
	}
}

// Resolve returns the identity for key, creating a default entry on first
// contact. Every contact bumps the entry's last-seen timestamp. The cache
// entry is invalidated after the bump is persisted rather than refreshed in
// place, so the next read repopulates from storage instead of serving a
// possibly stale write.
func (r *Resolver) Resolve(ctx context.Context, key domain.AvatarKey, displayName string) *domain.Identity {
	log := observability.LoggerFromContext(ctx).With("avatar_key", key)

	entry, err := r.lookup(ctx, key)
	if err == nil {
		entry.LastSeen = r.now()
		if uerr := r.store.UpdateIdentity(ctx, entry); uerr != nil {
			log.Error("failed to persist last-seen bump", "error", uerr)
		}
		r.Invalidate(key)
		return entry
	}

	if !errors.Is(err, domain.ErrNotFound) {
		log.Error("identity lookup failed, creating best-effort entry", "error", err)
	}

	role := domain.RoleGuest
	if _, ok := r.ownerKeys[key]; ok {
		role = domain.RolePrivileged
	}

	now := r.now()
	entry = &domain.Identity{
		Key:         key,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		LastSeen:    now,
	}

	if cerr := r.store.CreateIdentity(ctx, entry); cerr != nil {
		// Swallowed: the chat turn proceeds with the in-memory entry.
		log.Error("failed to create identity entry", "error", cerr)
	} else {
		log.Info("created identity entry", "avatar_name", displayName, "role", role)
	}

	return entry
}

// lookup serves from the cache when fresh, otherwise reads the store and
// repopulates the cache.
func (r *Resolver) lookup(ctx context.Context, key domain.AvatarKey) (*domain.Identity, error) {
	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()

	if ok && r.now().Sub(cached.storedAt) < r.ttl {
		observability.IdentityCacheLookupsTotal.WithLabelValues("hit").Inc()
		entry := cached.identity
		return &entry, nil
	}
	observability.IdentityCacheLookupsTotal.WithLabelValues("miss").Inc()

	entry, err := r.store.FindIdentity(ctx, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = cacheEntry{identity: *entry, storedAt: r.now()}
	r.mu.Unlock()

	return entry, nil
}

// Update overwrites an existing entry's mutable fields (name, role, notes,
// drink, last-seen) and invalidates its cache slot. Used by the admin path.
// The stored entry is loaded first so immutable fields like the created
// timestamp survive callers that only carry the mutable ones.
func (r *Resolver) Update(ctx context.Context, entry *domain.Identity) error {
	stored, err := r.store.FindIdentity(ctx, entry.Key)
	if err != nil {
		return err
	}

	stored.DisplayName = entry.DisplayName
	stored.Role = entry.Role
	stored.PersonalityNotes = entry.PersonalityNotes
	stored.FavoriteDrink = entry.FavoriteDrink
	stored.LastSeen = r.now()

	if err := r.store.UpdateIdentity(ctx, stored); err != nil {
		return err
	}
	r.Invalidate(entry.Key)

	*entry = *stored
	return nil
}

// Invalidate drops the cached entry for key. Must be called after any
// administrative create/update/delete performed outside the chat path.
func (r *Resolver) Invalidate(key domain.AvatarKey) {
	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()
}
