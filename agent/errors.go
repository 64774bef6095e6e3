package agent

import "errors"

var (
	// ErrNoSearchResults is returned when no search provider produced any
	// result at all and the gap queue was also empty.
	ErrNoSearchResults = errors.New("agent: no search results")
	// ErrTokenBudgetExceeded is returned when accumulated token usage
	// exceeds the configured budget.
	ErrTokenBudgetExceeded = errors.New("agent: token budget exceeded")
	// ErrInvalidLLMResponse is returned when the LLM reply cannot be
	// parsed under the strict parser.
	ErrInvalidLLMResponse = errors.New("agent: invalid LLM response")
	// ErrEmptyQuestion is returned for an empty or whitespace-only question.
	ErrEmptyQuestion = errors.New("agent: question must not be empty")
)
