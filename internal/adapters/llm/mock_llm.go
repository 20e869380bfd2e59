package llm

import (
	"context"
	"fmt"

	"github.com/pixelharbor/concierge/internal/domain"
)

// MockLLM is a scriptable domain.LLMClient for local mode and tests. It
// records every request it receives.
type MockLLM struct {
	Reply    string // returned verbatim when set
	Err      error  // returned instead of a reply when set
	Requests []domain.CompletionRequest
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return "", m.Err
	}
	if m.Reply != "" {
		return m.Reply, nil
	}

	last := ""
	if len(req.Turns) > 0 {
		last = req.Turns[len(req.Turns)-1].Content
	}
	return fmt.Sprintf("*smiles* You said %q. How can I help?", last), nil
}
