package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIConfig configures GenAIProvider.
type GenAIConfig struct {
	APIKey string
	Model  string // default: "gemini-2.0-flash"
}

func (c *GenAIConfig) defaults() {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
}

// GenAIProvider adapts google.golang.org/genai to the Provider interface.
// Streaming is accepted as a parameter for interface-compatibility but the
// adapter always collects the full reply before returning, matching the
// ProcessText contract ("the model's full textual reply as a single
// string, even if streaming was requested internally").
type GenAIProvider struct {
	client *genai.Client
	cfg    GenAIConfig
}

// NewGenAIProvider creates a GenAIProvider.
func NewGenAIProvider(ctx context.Context, cfg GenAIConfig) (*GenAIProvider, error) {
	cfg.defaults()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("llm: genai client: %w", err)
	}
	return &GenAIProvider{client: client, cfg: cfg}, nil
}

// ProcessText sends userPrompt (with systemPrompt as system instruction) to
// the configured Gemini model and returns the concatenated text of the
// first candidate.
func (p *GenAIProvider) ProcessText(ctx context.Context, systemPrompt, userPrompt string, streaming bool) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}

	var config *genai.GenerateContentConfig
	if systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		}
	}

	// streaming is part of the interface contract but genai's
	// non-streaming call already returns the full text in one response;
	// the agent never needs partial chunks, so both paths converge here.
	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("llm: empty response from model")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
