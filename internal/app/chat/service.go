package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pixelharbor/concierge/internal/app/generator"
	"github.com/pixelharbor/concierge/internal/app/identity"
	"github.com/pixelharbor/concierge/internal/app/menu"
	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// blockedDeflection is the static reply for blocked avatars. No generation
// call is made and nothing is written to history for them.
const blockedDeflection = "*looks away politely* I'm afraid I'm quite busy at the moment."

// Service orchestrates one chat turn: identity resolution, menu navigation,
// reply generation, post-processing and history persistence. Nothing in here
// is allowed to abort a turn; every sub-step has a degraded outcome.
type Service struct {
	resolver   *identity.Resolver
	navigator  *menu.Navigator
	generator  *generator.Generator
	exchanges  domain.ExchangeStore
	endearment string
	now        func() time.Time
}

func NewService(
	resolver *identity.Resolver,
	navigator *menu.Navigator,
	gen *generator.Generator,
	exchanges domain.ExchangeStore,
	endearment string,
) *Service {
	return &Service{
		resolver:   resolver,
		navigator:  navigator,
		generator:  gen,
		exchanges:  exchanges,
		endearment: endearment,
		now:        time.Now,
	}
}

type HandleMessageInput struct {
	AvatarKey  domain.AvatarKey
	AvatarName string
	Location   string
	SessionID  domain.SessionID
	Message    string
	Transcript string
}

type HandleMessageOutput struct {
	Reply              string
	Actions            []domain.Action
	SuggestedAnimation string
	ShouldNotifyOwners bool
}

// HandleMessage processes one inbound chat message.
func (s *Service) HandleMessage(ctx context.Context, in HandleMessageInput) *HandleMessageOutput {
	log := observability.LoggerFromContext(ctx).With(
		"avatar_key", in.AvatarKey,
		"session_id", in.SessionID,
	)

	entry := s.resolver.Resolve(ctx, in.AvatarKey, in.AvatarName)

	if entry.Role == domain.RoleBlocked {
		log.Warn("blocked avatar attempted to chat")
		observability.ChatRequestsTotal.WithLabelValues("blocked").Inc()
		return &HandleMessageOutput{Reply: blockedDeflection}
	}

	// Menu-directed messages are answered without touching the generator.
	if result := s.navigator.Navigate(in.Message, in.SessionID); result.Type != menu.NoMatch {
		observability.ChatRequestsTotal.WithLabelValues("menu").Inc()

		out := &HandleMessageOutput{
			Reply:              result.Message,
			SuggestedAnimation: SuggestAnimation(result.Message, entry.Role, s.endearment),
		}
		if result.Type == menu.FinalItem {
			out.Actions = []domain.Action{{Type: "give", Target: result.SelectedItem}}
		}
		return out
	}

	reply := s.generator.Generate(ctx, generator.GenerateInput{
		Message:          in.Message,
		AvatarKey:        in.AvatarKey,
		AvatarName:       entry.DisplayName,
		Role:             entry.Role,
		PersonalityNotes: entry.PersonalityNotes,
		FavoriteDrink:    entry.FavoriteDrink,
		SessionID:        in.SessionID,
		Transcript:       in.Transcript,
	})

	// The raw reply, action tags included, is what gets persisted.
	s.appendExchange(ctx, entry, in.SessionID, in.Message, reply)

	clean, actions := ExtractActions(reply)
	observability.ChatRequestsTotal.WithLabelValues("generated").Inc()

	return &HandleMessageOutput{
		Reply:              clean,
		Actions:            actions,
		SuggestedAnimation: SuggestAnimation(clean, entry.Role, s.endearment),
	}
}

type HandleArrivalInput struct {
	AvatarKey  domain.AvatarKey
	AvatarName string
	Location   string
}

type HandleArrivalOutput struct {
	Greeting           string
	Role               string
	ShouldNotifyOwners bool
	SessionID          domain.SessionID
}

// HandleArrival greets a newly arrived avatar and opens a fresh session.
func (s *Service) HandleArrival(ctx context.Context, in HandleArrivalInput) *HandleArrivalOutput {
	log := observability.LoggerFromContext(ctx).With("avatar_key", in.AvatarKey)

	entry := s.resolver.Resolve(ctx, in.AvatarKey, in.AvatarName)

	if entry.Role == domain.RoleBlocked {
		log.Warn("blocked avatar attempted arrival")
		return &HandleArrivalOutput{
			Role:      string(domain.RoleBlocked),
			SessionID: domain.SessionID(uuid.NewString()),
		}
	}

	sessionID := domain.SessionID(uuid.NewString())

	greeting := s.generator.Generate(ctx, generator.GenerateInput{
		Message:          fmt.Sprintf("Hello! I just arrived at %s.", in.Location),
		AvatarKey:        in.AvatarKey,
		AvatarName:       entry.DisplayName,
		Role:             entry.Role,
		PersonalityNotes: entry.PersonalityNotes,
		FavoriteDrink:    entry.FavoriteDrink,
		SessionID:        sessionID,
	})

	s.appendExchange(ctx, entry, sessionID, "Arrival greeting", greeting)

	return &HandleArrivalOutput{
		Greeting:           greeting,
		Role:               string(entry.Role),
		ShouldNotifyOwners: entry.Role == domain.RoleGuest,
		SessionID:          sessionID,
	}
}

// appendExchange persists one completed exchange. Failures are logged and
// swallowed so persistence cannot fail an in-flight reply.
func (s *Service) appendExchange(ctx context.Context, entry *domain.Identity, sessionID domain.SessionID, message, reply string) {
	rec := &domain.Exchange{
		ID:          domain.MessageID(uuid.NewString()),
		AvatarKey:   entry.Key,
		AvatarName:  entry.DisplayName,
		RoleLabel:   string(entry.Role),
		MessageText: message,
		Reply:       reply,
		SessionID:   sessionID,
		Timestamp:   s.now(),
	}

	if err := s.exchanges.AppendExchange(ctx, rec); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to append exchange", "error", err)
	}
}
