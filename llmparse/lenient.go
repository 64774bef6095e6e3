package llmparse

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("```[a-zA-Z]*")
	jsonArtifact = regexp.MustCompile(`[{}\[\]"]`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
)

// ParseLenient treats raw as prose, strips JSON/code-fence artefacts and
// heading markers, and returns it as an answer response. It never fails:
// the worst case is an empty answer.
func ParseLenient(raw string) LLMResponse {
	s := codeFenceRe.ReplaceAllString(raw, "")
	s = headingRe.ReplaceAllString(s, "")
	s = jsonArtifact.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	return LLMResponse{
		Action: ActionAnswer,
		Answer: s,
	}
}
