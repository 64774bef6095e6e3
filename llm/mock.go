package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a deterministic, in-memory Provider for tests. Responses
// are consumed in order; once exhausted it returns Fallback.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	calls     []Call
	Fallback  string
}

// Call records the arguments to one ProcessText invocation.
type Call struct {
	SystemPrompt string
	UserPrompt   string
	Streaming    bool
}

// NewMockProvider creates a MockProvider that returns responses in order.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// ProcessText returns the next queued response and records the call.
func (m *MockProvider) ProcessText(ctx context.Context, systemPrompt, userPrompt string, streaming bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{SystemPrompt: systemPrompt, UserPrompt: userPrompt, Streaming: streaming})

	if len(m.responses) == 0 {
		if m.Fallback != "" {
			return m.Fallback, nil
		}
		return "", fmt.Errorf("llm: mock provider exhausted with no fallback set")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// Calls returns a copy of every recorded call, in order.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
