package agent

import (
	"context"
	"fmt"

	"github.com/hazyhaar/deepresearch/llm"
)

// beastMode is the last-resort, single LLM call made when the loop
// terminates with no candidate answer. It is never an error path: whatever
// the model returns is the answer, verbatim.
func beastMode(ctx context.Context, provider llm.Provider, question string, diary *Diary) (string, error) {
	prompt := fmt.Sprintf(
		"Beast Mode Activated. You must give the best possible final answer now, "+
			"using everything below, even if uncertain.\n\nOriginal question: %s\n\nDiary:\n%s",
		question, diary.String(),
	)
	answer, err := provider.ProcessText(ctx, "", prompt, false)
	if err != nil {
		return "", fmt.Errorf("agent: beast mode call failed: %w", err)
	}
	return answer, nil
}
