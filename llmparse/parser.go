package llmparse

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrParseFailure is returned by ParseStrict when every decode/repair
// strategy, including the FINAL ANSWER marker fallback, fails.
var ErrParseFailure = errors.New("llmparse: could not parse LLM response")

// Mode selects the decoding strategy.
type Mode int

const (
	ModeStrict Mode = iota
	ModeLenient
)

// Parse decodes raw per mode.
func Parse(raw string, mode Mode) (LLMResponse, error) {
	if mode == ModeLenient {
		return ParseLenient(raw), nil
	}
	return ParseStrict(raw)
}

var (
	finalAnswerRe  = regexp.MustCompile(`(?i)FINAL ANSWER:`)
	commaFixRe     = regexp.MustCompile(`"\s*\n\s*"`)
	colonSpaceFixRe = regexp.MustCompile(`:\s*\n\s*"`)
)

// ParseStrict implements the four-step decode ladder: raw decode, repair +
// retry, FINAL ANSWER marker fallback, then failure.
func ParseStrict(raw string) (LLMResponse, error) {
	if resp, ok := tryDecode(raw); ok {
		return resp, nil
	}

	repaired := repair(raw)
	if resp, ok := tryDecode(repaired); ok {
		return resp, nil
	}

	if loc := finalAnswerRe.FindStringIndex(raw); loc != nil {
		answer := strings.TrimSpace(raw[loc[1]:])
		if answer != "" {
			return LLMResponse{Action: ActionAnswer, Answer: answer}, nil
		}
	}

	return LLMResponse{}, ErrParseFailure
}

func tryDecode(s string) (LLMResponse, bool) {
	var w wireResponse
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return LLMResponse{}, false
	}
	if w.Action == "" {
		return LLMResponse{}, false
	}
	return w.toResponse(), true
}

// repair strips chat-template tokens, clips to the outermost braces, and
// applies a couple of targeted regex fixes for the newline-broken JSON
// models tend to emit.
func repair(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "<|im_start|>", "")
	s = strings.ReplaceAll(s, "<|im_end|>", "")
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first >= 0 && last > first {
		s = s[first : last+1]
	}

	s = commaFixRe.ReplaceAllString(s, `",\n"`)
	s = colonSpaceFixRe.ReplaceAllString(s, `: "`)
	return s
}
