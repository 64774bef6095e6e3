// Package llmparse decodes an LLM's raw text reply into a structured
// LLMResponse, tolerating the malformed JSON real models routinely emit.
package llmparse

import "strings"

// Action is the agent-directing verb an LLMResponse carries.
type Action string

const (
	ActionAnswer  Action = "answer"
	ActionSearch  Action = "search"
	ActionReflect Action = "reflect"
	ActionUnknown Action = "unknown"
)

// parseAction matches case-insensitively, per the reply contract.
func parseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "answer":
		return ActionAnswer
	case "search":
		return ActionSearch
	case "reflect":
		return ActionReflect
	default:
		return ActionUnknown
	}
}

// Reference is a citation attached to an answer.
type Reference struct {
	ExactQuote string `json:"exactQuote,omitempty"`
	URL        string `json:"url"`
}

// LLMResponse is the decoded reply contract.
type LLMResponse struct {
	Action            Action      `json:"action"`
	Thoughts          string      `json:"thoughts"`
	SearchQuery       string      `json:"searchQuery,omitempty"`
	QuestionsToAnswer []string    `json:"questionsToAnswer,omitempty"`
	Answer            string      `json:"answer,omitempty"`
	References        []Reference `json:"references,omitempty"`
}

// wireResponse mirrors the JSON wire shape with a raw action string, so
// parseAction can apply case-insensitivity before it's typed as Action.
type wireResponse struct {
	Action            string      `json:"action"`
	Thoughts          string      `json:"thoughts"`
	SearchQuery       *string     `json:"searchQuery"`
	QuestionsToAnswer []string    `json:"questionsToAnswer"`
	Answer            *string     `json:"answer"`
	References        []Reference `json:"references"`
}

func (w wireResponse) toResponse() LLMResponse {
	r := LLMResponse{
		Action:            parseAction(w.Action),
		Thoughts:          w.Thoughts,
		QuestionsToAnswer: w.QuestionsToAnswer,
		References:        w.References,
	}
	if w.SearchQuery != nil {
		r.SearchQuery = *w.SearchQuery
	}
	if w.Answer != nil {
		r.Answer = *w.Answer
	}
	return r
}
