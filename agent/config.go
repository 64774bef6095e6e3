package agent

import "time"

// ParserMode selects which llmparse strategy the agent uses to decode LLM
// replies.
type ParserMode int

const (
	ParserModeStrict ParserMode = iota
	ParserModeLenient
)

// DefinitivenessMode selects which variant of the definitiveness test
// gates candidate-answer admission.
type DefinitivenessMode int

const (
	// DefinitivenessStrict requires the full structural check: section
	// keywords, a paragraph break, a discourse marker, and minSources.
	DefinitivenessStrict DefinitivenessMode = iota
	// DefinitivenessLenient bypasses the structural check for any answer
	// longer than 50 characters with no hedging phrase.
	DefinitivenessLenient
)

// Config holds the immutable-for-a-run knobs from the agent configuration
// table.
type Config struct {
	StepSleep        time.Duration // delay at the top of every iteration. Default: 200ms.
	MaxBadAttempts   int           // bad attempts before termination. Default: 3.
	TokenBudget      int           // total token budget for a run. Default: 900000.
	MinAnswerLength  int           // minimum answer length for definitiveness. Default: 300.
	MaxSearchQueries int           // query variations generated at init. Default: 5.
	MinSources       int           // minimum reference count for strict definitiveness. Default: 2.

	ContentTokenBudget int // aggregate extracted-content token cap per iteration. Default: 900000.
	PromptTokenCap     int // per-call prompt token cap before sentence-boundary truncation. Default: 120000.

	ParserMode      ParserMode
	Definitiveness  DefinitivenessMode

	// TranscriptDir, if set, makes each run's diary and run counters
	// persisted as a markdown file; the final answer is not included.
	// Optional; never read back.
	TranscriptDir string
}

func (c *Config) defaults() {
	if c.StepSleep <= 0 {
		c.StepSleep = 200 * time.Millisecond
	}
	if c.MaxBadAttempts <= 0 {
		c.MaxBadAttempts = 3
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = 900_000
	}
	if c.MinAnswerLength <= 0 {
		c.MinAnswerLength = 300
	}
	if c.MaxSearchQueries <= 0 {
		c.MaxSearchQueries = 5
	}
	if c.MinSources <= 0 {
		c.MinSources = 2
	}
	if c.ContentTokenBudget <= 0 {
		c.ContentTokenBudget = 900_000
	}
	if c.PromptTokenCap <= 0 {
		c.PromptTokenCap = 120_000
	}
}
