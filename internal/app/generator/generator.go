package generator

import (
	"context"
	"strings"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// Options carry the generation knobs, all sourced from configuration.
type Options struct {
	PersonaName  string
	Model        string
	MaxTokens    int
	Temperature  float64
	HistoryLimit int
	Timeout      time.Duration
}

// Generator produces the concierge's reply for one chat turn. It never
// returns an error: every failure path resolves to a role-appropriate canned
// fallback so a degraded backend cannot break a conversation.
type Generator struct {
	llm       domain.LLMClient // nil when no generation backend is configured
	exchanges domain.ExchangeStore
	opts      Options
}

// NewGenerator creates a Generator. A nil llm means no credential is
// configured; every call then short-circuits to the fallback reply.
func NewGenerator(llm domain.LLMClient, exchanges domain.ExchangeStore, opts Options) *Generator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Generator{llm: llm, exchanges: exchanges, opts: opts}
}

// GenerateInput is everything known about the speaker and the turn.
type GenerateInput struct {
	Message          string
	AvatarKey        domain.AvatarKey
	AvatarName       string
	Role             domain.Role
	PersonalityNotes string
	FavoriteDrink    string
	SessionID        domain.SessionID
	Transcript       string
}

// Generate returns the reply text for the turn. Raw generated text is
// returned verbatim; action-tag stripping happens downstream.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) string {
	log := observability.LoggerFromContext(ctx).With(
		"avatar_key", in.AvatarKey,
		"session_id", in.SessionID,
	)

	if g.llm == nil {
		log.Warn("no generation backend configured, using fallback reply")
		observability.LLMFallbacksTotal.Inc()
		return fallbackFor(in.Role)
	}

	var system string
	var turns []domain.Turn

	if strings.Contains(in.Transcript, transcriptMarker) {
		system, turns = g.transcriptTurns(in)
	} else {
		system, turns = g.standardTurns(ctx, in)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	reply, err := g.llm.Complete(callCtx, domain.CompletionRequest{
		System:      system,
		Turns:       turns,
		Model:       g.opts.Model,
		MaxTokens:   int32(g.opts.MaxTokens),
		Temperature: float32(g.opts.Temperature),
	})
	if err != nil {
		log.Error("text generation failed, using fallback reply", "error", err)
		observability.LLMFallbacksTotal.Inc()
		return fallbackFor(in.Role)
	}
	if reply == "" {
		log.Warn("text generation returned empty reply, using fallback")
		observability.LLMFallbacksTotal.Inc()
		return fallbackFor(in.Role)
	}

	return reply
}

// transcriptTurns builds the single-turn payload used when the caller
// supplies the recent dialogue as one block. No history lookup is performed.
func (g *Generator) transcriptTurns(in GenerateInput) (string, []domain.Turn) {
	var system string
	if in.Role == domain.RolePrivileged {
		system = privilegedTranscriptPrompt(g.opts.PersonaName, in.AvatarName, in.PersonalityNotes, in.FavoriteDrink)
	} else {
		system = generalTranscriptPrompt(g.opts.PersonaName, in.AvatarName)
	}

	turns := []domain.Turn{{
		Role:    domain.TurnUser,
		Content: in.Transcript + "\n\nRespond naturally to the conversation above.",
	}}
	return system, turns
}

// standardTurns builds the role prompt plus the bounded history window as
// alternating user/assistant turns, ending with the current message.
func (g *Generator) standardTurns(ctx context.Context, in GenerateInput) (string, []domain.Turn) {
	var system string
	if in.Role == domain.RolePrivileged {
		system = privilegedPrompt(g.opts.PersonaName, in.AvatarName, in.PersonalityNotes, in.FavoriteDrink)
	} else {
		system = generalPrompt(g.opts.PersonaName, in.AvatarName)
	}

	var history []*domain.Exchange
	if in.SessionID != "" {
		var err error
		history, err = g.exchanges.ListExchanges(ctx, in.AvatarKey, in.SessionID, g.opts.HistoryLimit)
		if err != nil {
			// Soft failure: reply without prior context.
			observability.LoggerFromContext(ctx).Error("failed to load conversation history", "error", err)
			history = nil
		}
	}

	turns := make([]domain.Turn, 0, len(history)*2+1)
	for _, ex := range history {
		turns = append(turns,
			domain.Turn{Role: domain.TurnUser, Content: ex.MessageText},
			domain.Turn{Role: domain.TurnAssistant, Content: ex.Reply},
		)
	}
	turns = append(turns, domain.Turn{Role: domain.TurnUser, Content: in.Message})

	return system, turns
}
