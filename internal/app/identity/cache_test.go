package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	memstore "github.com/pixelharbor/concierge/internal/adapters/storage/memory"
	"github.com/pixelharbor/concierge/internal/app/identity"
	"github.com/pixelharbor/concierge/internal/domain"
)

func TestResolveAssignsRoleFromAllowlist(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, []string{"owner-key"})

	owner := resolver.Resolve(ctx, "owner-key", "The Boss")
	if owner.Role != domain.RolePrivileged {
		t.Fatalf("expected privileged role for allowlisted key, got %s", owner.Role)
	}

	guest := resolver.Resolve(ctx, "guest-key", "Some Visitor")
	if guest.Role != domain.RoleGuest {
		t.Fatalf("expected guest role, got %s", guest.Role)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, nil)

	first := resolver.Resolve(ctx, "visitor", "Visitor One")
	second := resolver.Resolve(ctx, "visitor", "Visitor One")

	if first.Key != second.Key || second.Role != domain.RoleGuest {
		t.Fatalf("expected same guest entry on repeat resolve")
	}

	entries, err := store.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one stored identity, got %d", len(entries))
	}
}

func TestResolveBumpsLastSeen(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, nil)

	created := resolver.Resolve(ctx, "visitor", "Visitor One")

	time.Sleep(time.Millisecond)
	resolver.Resolve(ctx, "visitor", "Visitor One")

	stored, err := store.FindIdentity(ctx, "visitor")
	if err != nil {
		t.Fatalf("FindIdentity failed: %v", err)
	}
	if !stored.LastSeen.After(created.CreatedAt) {
		t.Fatalf("expected last-seen to be bumped on repeat contact")
	}
}

// failingStore rejects every write but reports reads as absent.
type failingStore struct{}

func (failingStore) FindIdentity(context.Context, domain.AvatarKey) (*domain.Identity, error) {
	return nil, domain.ErrNotFound
}

func (failingStore) CreateIdentity(context.Context, *domain.Identity) error {
	return errors.New("storage down")
}

func (failingStore) UpdateIdentity(context.Context, *domain.Identity) error {
	return errors.New("storage down")
}

func (failingStore) ListIdentities(context.Context) ([]*domain.Identity, error) {
	return nil, errors.New("storage down")
}

func TestResolveSurvivesCreateFailure(t *testing.T) {
	resolver := identity.NewResolver(failingStore{}, 5*time.Minute, []string{"owner-key"})

	entry := resolver.Resolve(context.Background(), "owner-key", "The Boss")
	if entry == nil {
		t.Fatalf("expected a best-effort in-memory entry")
	}
	if entry.Role != domain.RolePrivileged {
		t.Fatalf("expected privileged role, got %s", entry.Role)
	}
	if entry.DisplayName != "The Boss" {
		t.Fatalf("expected display name preserved, got %q", entry.DisplayName)
	}
}

func TestUpdateOverwritesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, nil)

	resolver.Resolve(ctx, "visitor", "Visitor One")

	err := resolver.Update(ctx, &domain.Identity{
		Key:              "visitor",
		DisplayName:      "Visitor One",
		Role:             domain.RolePrivileged,
		PersonalityNotes: "likes jazz",
		FavoriteDrink:    "Mocha",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	resolved := resolver.Resolve(ctx, "visitor", "Visitor One")
	if resolved.Role != domain.RolePrivileged {
		t.Fatalf("expected updated role to be visible, got %s", resolved.Role)
	}
	if resolved.FavoriteDrink != "Mocha" {
		t.Fatalf("expected updated drink, got %q", resolved.FavoriteDrink)
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, nil)

	created := resolver.Resolve(ctx, "visitor", "Visitor One")
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected a created timestamp on first contact")
	}

	// The admin path carries only the mutable fields; the created timestamp
	// must survive the update.
	update := &domain.Identity{
		Key:           "visitor",
		DisplayName:   "Visitor One",
		Role:          domain.RolePrivileged,
		FavoriteDrink: "Mocha",
	}
	if err := resolver.Update(ctx, update); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := store.FindIdentity(ctx, "visitor")
	if err != nil {
		t.Fatalf("FindIdentity failed: %v", err)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("update erased the created timestamp")
	}
	if !stored.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created %v to survive, got %v", created.CreatedAt, stored.CreatedAt)
	}
	if stored.Role != domain.RolePrivileged || stored.FavoriteDrink != "Mocha" {
		t.Fatalf("expected mutable fields applied, got %+v", stored)
	}

	// The caller's entry is refreshed with the merged record.
	if !update.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected merged entry reported back to the caller")
	}
}

func TestUpdateUnknownKeyFails(t *testing.T) {
	store := memstore.NewIdentityStore()
	resolver := identity.NewResolver(store, 5*time.Minute, nil)

	err := resolver.Update(context.Background(), &domain.Identity{Key: "nobody"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
