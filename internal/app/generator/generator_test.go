package generator_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pixelharbor/concierge/internal/adapters/llm"
	memstore "github.com/pixelharbor/concierge/internal/adapters/storage/memory"
	"github.com/pixelharbor/concierge/internal/app/generator"
	"github.com/pixelharbor/concierge/internal/domain"
)

func testOptions() generator.Options {
	return generator.Options{
		PersonaName:  "Rose",
		Model:        "gemini-2.5-flash",
		MaxTokens:    150,
		Temperature:  0.7,
		HistoryLimit: 10,
		Timeout:      time.Second,
	}
}

func TestGenerateFallbackWhenBackendFails(t *testing.T) {
	mock := &llm.MockLLM{Err: errors.New("upstream unavailable")}
	gen := generator.NewGenerator(mock, memstore.NewExchangeStore(), testOptions())

	for _, role := range []domain.Role{domain.RolePrivileged, domain.RoleGuest} {
		reply := gen.Generate(context.Background(), generator.GenerateInput{
			Message:    "Hello",
			AvatarKey:  "avatar",
			AvatarName: "Avatar",
			Role:       role,
			SessionID:  "session",
		})

		if reply == "" {
			t.Fatalf("role %s: expected nonempty fallback", role)
		}
		if strings.Contains(strings.ToLower(reply), "error") {
			t.Fatalf("role %s: fallback must not mention errors, got %q", role, reply)
		}
	}
}

func TestGenerateFallbacksDifferByRole(t *testing.T) {
	mock := &llm.MockLLM{Err: errors.New("down")}
	gen := generator.NewGenerator(mock, memstore.NewExchangeStore(), testOptions())

	privileged := gen.Generate(context.Background(), generator.GenerateInput{
		Message: "hi", AvatarKey: "a", Role: domain.RolePrivileged, SessionID: "s",
	})
	guest := gen.Generate(context.Background(), generator.GenerateInput{
		Message: "hi", AvatarKey: "a", Role: domain.RoleGuest, SessionID: "s",
	})

	if privileged == guest {
		t.Fatalf("expected distinct fallbacks per role")
	}
}

func TestGenerateFallbackWithoutBackend(t *testing.T) {
	gen := generator.NewGenerator(nil, memstore.NewExchangeStore(), testOptions())

	reply := gen.Generate(context.Background(), generator.GenerateInput{
		Message: "hi", AvatarKey: "a", Role: domain.RoleGuest, SessionID: "s",
	})
	if reply == "" {
		t.Fatalf("expected fallback with no backend configured")
	}
}

func TestGenerateFallbackOnEmptyReply(t *testing.T) {
	// MockLLM echoes by default; force an empty completion instead.
	mock := &emptyLLM{}
	gen := generator.NewGenerator(mock, memstore.NewExchangeStore(), testOptions())

	reply := gen.Generate(context.Background(), generator.GenerateInput{
		Message: "hi", AvatarKey: "a", Role: domain.RoleGuest, SessionID: "s",
	})
	if reply == "" || strings.Contains(strings.ToLower(reply), "error") {
		t.Fatalf("expected in-character fallback, got %q", reply)
	}
}

type emptyLLM struct{}

func (emptyLLM) Complete(context.Context, domain.CompletionRequest) (string, error) {
	return "", nil
}

func TestGenerateBoundedHistoryWindow(t *testing.T) {
	ctx := context.Background()
	exchanges := memstore.NewExchangeStore()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		err := exchanges.AppendExchange(ctx, &domain.Exchange{
			ID:          domain.MessageID(uuid.NewString()),
			AvatarKey:   "avatar",
			AvatarName:  "Avatar",
			RoleLabel:   "guest",
			MessageText: fmt.Sprintf("question %d", i),
			Reply:       fmt.Sprintf("answer %d", i),
			SessionID:   "session",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendExchange failed: %v", err)
		}
	}

	mock := llm.NewMockLLM()
	gen := generator.NewGenerator(mock, exchanges, testOptions())

	gen.Generate(ctx, generator.GenerateInput{
		Message:    "current question",
		AvatarKey:  "avatar",
		AvatarName: "Avatar",
		Role:       domain.RoleGuest,
		SessionID:  "session",
	})

	if len(mock.Requests) != 1 {
		t.Fatalf("expected one completion call, got %d", len(mock.Requests))
	}
	turns := mock.Requests[0].Turns

	// 10 exchanges as user/assistant pairs plus the current message.
	if len(turns) != 21 {
		t.Fatalf("expected 21 turns, got %d", len(turns))
	}

	// The window holds the most recent 10 exchanges, oldest of them first.
	if turns[0].Content != "question 5" {
		t.Fatalf("expected window to start at question 5, got %q", turns[0].Content)
	}
	if turns[1].Role != domain.TurnAssistant || turns[1].Content != "answer 5" {
		t.Fatalf("expected assistant turn answer 5, got %+v", turns[1])
	}
	if turns[19].Content != "answer 14" {
		t.Fatalf("expected newest exchange last, got %q", turns[19].Content)
	}
	last := turns[20]
	if last.Role != domain.TurnUser || last.Content != "current question" {
		t.Fatalf("expected current message as final turn, got %+v", last)
	}
}

func TestGenerateTranscriptMode(t *testing.T) {
	ctx := context.Background()
	exchanges := memstore.NewExchangeStore()

	// Stored history must be ignored in transcript mode.
	_ = exchanges.AppendExchange(ctx, &domain.Exchange{
		ID: "x", AvatarKey: "avatar", SessionID: "session",
		MessageText: "old question", Reply: "old answer", Timestamp: time.Now(),
	})

	mock := llm.NewMockLLM()
	gen := generator.NewGenerator(mock, exchanges, testOptions())

	transcript := "[TRANSCRIPT]\nAvatar: so about that meeting\nRose: of course!"
	gen.Generate(ctx, generator.GenerateInput{
		Message:    "so about that meeting",
		AvatarKey:  "avatar",
		AvatarName: "Avatar",
		Role:       domain.RolePrivileged,
		SessionID:  "session",
		Transcript: transcript,
	})

	if len(mock.Requests) != 1 {
		t.Fatalf("expected one completion call, got %d", len(mock.Requests))
	}
	req := mock.Requests[0]

	if len(req.Turns) != 1 {
		t.Fatalf("expected a single transcript turn, got %d", len(req.Turns))
	}
	if !strings.HasPrefix(req.Turns[0].Content, transcript) {
		t.Fatalf("expected transcript to lead the payload")
	}
	if !strings.Contains(req.Turns[0].Content, "Respond naturally to the conversation above.") {
		t.Fatalf("expected the respond-naturally instruction")
	}
	if !strings.Contains(req.System, "reviewing a transcript") {
		t.Fatalf("expected the transcript system prompt")
	}
}

func TestGeneratePromptSelectionByRole(t *testing.T) {
	mock := llm.NewMockLLM()
	gen := generator.NewGenerator(mock, memstore.NewExchangeStore(), testOptions())

	gen.Generate(context.Background(), generator.GenerateInput{
		Message:       "hello",
		AvatarKey:     "owner",
		AvatarName:    "The Boss",
		Role:          domain.RolePrivileged,
		FavoriteDrink: "Mocha",
		SessionID:     "s1",
	})
	gen.Generate(context.Background(), generator.GenerateInput{
		Message:    "hello",
		AvatarKey:  "guest",
		AvatarName: "A Visitor",
		Role:       domain.RoleGuest,
		SessionID:  "s2",
	})

	if len(mock.Requests) != 2 {
		t.Fatalf("expected two completion calls, got %d", len(mock.Requests))
	}

	ownerPrompt := mock.Requests[0].System
	if !strings.Contains(ownerPrompt, "The Boss") || !strings.Contains(ownerPrompt, "Mocha") {
		t.Fatalf("expected privileged prompt to carry name and drink")
	}

	guestPrompt := mock.Requests[1].System
	if !strings.Contains(guestPrompt, "A Visitor") || !strings.Contains(guestPrompt, "professional") {
		t.Fatalf("expected general prompt for guests")
	}
	if strings.Contains(guestPrompt, "Mocha") {
		t.Fatalf("guest prompt must not leak another profile's preferences")
	}
}
