package agent

import (
	"strings"

	"github.com/hazyhaar/deepresearch/llmparse"
)

var hedgingPhrases = []string{
	"i don't know", "unsure", "not available", "insufficient information",
}

var sectionKeywords = []string{"summary", "background", "analysis", "conclusion"}

var discourseMarkers = []string{"first", "additionally", "furthermore", "in conclusion"}

// isDefinitive applies the configured definitiveness test to an answer and
// its references.
func isDefinitive(cfg Config, answer string, refs []llmparse.Reference) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if cfg.Definitiveness == DefinitivenessLenient {
		return len(answer) > 50
	}
	return isStructurallyDefinitive(cfg, answer, lower, refs)
}

func isStructurallyDefinitive(cfg Config, answer, lower string, refs []llmparse.Reference) bool {
	if len(answer) < cfg.MinAnswerLength {
		return false
	}
	for _, kw := range sectionKeywords {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	if !strings.Contains(answer, "\n\n") {
		return false
	}
	hasMarker := false
	for _, m := range discourseMarkers {
		if strings.Contains(lower, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return false
	}
	return len(refs) >= cfg.MinSources
}

// admitsCandidate is the §4.5 step-9 gate. Under DefinitivenessStrict an
// answer must pass the full structural check; the len > 50 shortcut applies
// only under DefinitivenessLenient, where isDefinitive already implements it.
func admitsCandidate(cfg Config, answer string, refs []llmparse.Reference) bool {
	return isDefinitive(cfg, answer, refs)
}
