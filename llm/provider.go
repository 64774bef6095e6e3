// Package llm defines the LLMProvider collaborator interface the research
// agent calls into, plus a deterministic mock and a thin adapter over
// Google's GenAI SDK for real runs.
package llm

import "context"

// Provider returns the model's full textual reply as a single string, even
// when streaming is requested internally.
type Provider interface {
	ProcessText(ctx context.Context, systemPrompt, userPrompt string, streaming bool) (string, error)
}
