package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pixelharbor/concierge/internal/domain"
)

// GeminiClient implements domain.LLMClient on Vertex AI (Gemini).
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates the Vertex-backed client. Project and location come
// from configuration; without them there is no credential to call with.
func NewGeminiClient(ctx context.Context, projectID, location string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("gcp project and location are required for the gemini client")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vertex ai client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Complete implements domain.LLMClient.
func (g *GeminiClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.TurnAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	temp := req.Temperature

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   req.MaxTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}

	return text, nil
}
