package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/deepresearch/chunk"
)

const actionSchema = `Respond strictly as JSON matching this schema:
{
  "action": "answer" | "search" | "reflect",
  "thoughts": "...",
  "searchQuery": "..." | null,
  "questionsToAnswer": ["..."] | null,
  "answer": "..." | null,
  "references": [{"exactQuote": "...", "url": "..."}] | null
}`

// buildPrompt assembles the per-iteration user prompt: date, question,
// aggregated content (sentence-truncated to fit promptTokenCap), diary,
// visited references, and the action-schema instructions.
func buildPrompt(question, content, diary string, visited []string, promptTokenCap int) string {
	content = chunk.TruncateAtSentence(content, promptTokenCap)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s\n\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	sb.WriteString("Gathered content:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")
	sb.WriteString("Diary:\n")
	sb.WriteString(diary)
	sb.WriteString("\n\n")
	sb.WriteString("Visited references:\n")
	for _, u := range visited {
		sb.WriteString("- " + u + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(actionSchema)
	return sb.String()
}

// aggregateContent greedily admits shortest-first content until
// tokenBudget is reached, per the §4.5 step-4 content-budget rule.
func aggregateContent(pages []string, tokenBudget int) string {
	sorted := append([]string(nil), pages...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })

	var sb strings.Builder
	used := 0
	for _, page := range sorted {
		cost := chunk.EstimateTokens(page)
		if used+cost > tokenBudget {
			continue
		}
		sb.WriteString(page)
		sb.WriteString("\n\n")
		used += cost
	}
	return sb.String()
}

// sourcesAppendix renders the "Sources:" section listing visited URLs.
func sourcesAppendix(visited []string) string {
	if len(visited) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nSources:\n")
	for _, u := range visited {
		sb.WriteString(u + "\n")
	}
	return sb.String()
}
