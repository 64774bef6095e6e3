// Package agent implements the research control loop: it owns the gap
// queue, the visited-URL set, the diary, token accounting, and
// candidate-answer selection, driving the search and extraction pipelines
// and interpreting the LLM's structured decisions until it produces a
// definitive, citation-bearing answer or exhausts its budgets.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/deepresearch/chunk"
	"github.com/hazyhaar/deepresearch/llm"
	"github.com/hazyhaar/deepresearch/llmparse"
	"github.com/hazyhaar/deepresearch/search"
)

// Extractor converts a URL into clean body text. Satisfied by
// *extract.Factory in production; a narrow interface here keeps agent
// decoupled from the extract package's concrete types.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Agent runs the research control loop.
type Agent struct {
	search    search.Provider
	extractor Extractor
	llm       llm.Provider
	cfg       Config
	logger    *slog.Logger

	writer *transcriptWriter
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithTranscriptWriter overrides the transcript persistence used when
// Config.TranscriptDir is set. Exposed for tests.
func WithTranscriptWriter(w *transcriptWriter) Option {
	return func(a *Agent) { a.writer = w }
}

// New creates an Agent.
func New(searchProvider search.Provider, extractor Extractor, llmProvider llm.Provider, cfg Config, logger *slog.Logger, opts ...Option) *Agent {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{search: searchProvider, extractor: extractor, llm: llmProvider, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	if a.writer == nil && cfg.TranscriptDir != "" {
		a.writer = newTranscriptWriter(cfg.TranscriptDir)
	}
	return a
}

// run holds the per-call state that GetResponse resets on every invocation.
type run struct {
	question       string
	gaps           gapQueue
	visited        *visitedSet
	diary          *Diary
	candidates     candidateAnswers
	badAttempts    int
	maxBadAttempts int
	tokenUsage     int
}

// GetResponse runs the control loop to completion for question and returns
// the final answer with a trailing "Sources:" section. maxBadAttempts
// optionally overrides Config.MaxBadAttempts for this call only; pass
// nothing (or <= 0) to use the Agent's configured default.
func (a *Agent) GetResponse(ctx context.Context, question string, maxBadAttempts ...int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	limit := a.cfg.MaxBadAttempts
	if len(maxBadAttempts) > 0 && maxBadAttempts[0] > 0 {
		limit = maxBadAttempts[0]
	}

	r := &run{
		question:       question,
		visited:        newVisitedSet(),
		diary:          newDiary(),
		maxBadAttempts: limit,
	}
	r.gaps.PushTail(question)
	a.seedQueryVariations(ctx, r)

	if a.writer != nil {
		defer a.writer.finish(r)
	}

	for {
		if err := sleepCancelable(ctx, a.cfg.StepSleep); err != nil {
			return "", err
		}

		current, ok := r.gaps.PopFront()
		if !ok {
			current = r.question
		}

		done, answer, err := a.iterate(ctx, r, current)
		if err != nil {
			return "", err
		}
		if done {
			return answer, nil
		}
	}
}

func sleepCancelable(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// seedQueryVariations asks the LLM for up to MaxSearchQueries distinct
// query variations and prepends them to the gap queue, leaving the original
// question at the tail.
func (a *Agent) seedQueryVariations(ctx context.Context, r *run) {
	prompt := fmt.Sprintf(
		"Generate up to %d distinct web search query variations for the question below. "+
			"Reply with one query per line, no numbering.\n\nQuestion: %s",
		a.cfg.MaxSearchQueries, r.question,
	)
	raw, err := a.llm.ProcessText(ctx, "", prompt, false)
	if err != nil {
		a.logger.Warn("agent: query variation generation failed", "error", err)
		return
	}

	var variations []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		variations = append(variations, line)
		if len(variations) >= a.cfg.MaxSearchQueries {
			break
		}
	}

	for i := len(variations) - 1; i >= 0; i-- {
		r.gaps.PushHead(variations[i])
	}
}

// iterate runs one pass of the control loop body (§4.5 steps 2-10) for the
// gap current. done reports whether the run has terminated.
func (a *Agent) iterate(ctx context.Context, r *run, current string) (done bool, answer string, err error) {
	results, searchErr := a.search.Search(ctx, current)
	if len(results) == 0 && r.gaps.Empty() {
		r.diary.Log(fmt.Sprintf("search for %q returned no results", current))
		if searchErr != nil {
			return false, "", fmt.Errorf("%w: %v", ErrNoSearchResults, searchErr)
		}
		return false, "", ErrNoSearchResults
	}

	var unvisited []search.Result
	seenThisBatch := make(map[string]bool, len(results))
	for _, res := range results {
		key := search.NormalizeURL(res.URL)
		if r.visited.Has(key) || seenThisBatch[key] {
			continue
		}
		seenThisBatch[key] = true
		unvisited = append(unvisited, res)
	}
	if len(unvisited) == 0 {
		r.gaps.PushTail(current)
		r.diary.Log(fmt.Sprintf("no unvisited results for %q, re-queued", current))
		return false, "", nil
	}

	for _, res := range unvisited {
		r.visited.Add(search.NormalizeURL(res.URL))
	}

	pages := a.extractConcurrently(ctx, unvisited)
	r.diary.Log(fmt.Sprintf("extracted %d/%d pages for %q", len(pages), len(unvisited), current))

	content := aggregateContent(pages, a.cfg.ContentTokenBudget)
	prompt := buildPrompt(r.question, content, r.diary.String(), r.visited.URLs(), a.cfg.PromptTokenCap)

	r.tokenUsage += chunk.EstimateTokens(prompt)
	if r.tokenUsage > a.cfg.TokenBudget {
		return false, "", fmt.Errorf("%w: %d > %d", ErrTokenBudgetExceeded, r.tokenUsage, a.cfg.TokenBudget)
	}

	raw, err := a.llm.ProcessText(ctx, "", prompt, true)
	if err != nil {
		return false, "", fmt.Errorf("agent: llm call failed: %w", err)
	}
	r.tokenUsage += chunk.EstimateTokens(raw)

	mode := llmparse.ModeStrict
	if a.cfg.ParserMode == ParserModeLenient {
		mode = llmparse.ModeLenient
	}
	resp, parseErr := llmparse.Parse(raw, mode)
	if parseErr != nil {
		return false, "", fmt.Errorf("%w: %v", ErrInvalidLLMResponse, parseErr)
	}

	a.dispatch(ctx, r, current, resp)

	return a.checkTermination(ctx, r)
}

// checkTermination applies the §4.5 step-10 stop condition: the gap queue
// is drained, or the bad-attempt budget is spent.
func (a *Agent) checkTermination(ctx context.Context, r *run) (done bool, answer string, err error) {
	if r.gaps.Empty() || r.badAttempts >= r.maxBadAttempts {
		final, err := a.conclude(ctx, r)
		return true, final, err
	}
	return false, "", nil
}

// dispatch applies §4.5 step 9 and mutates r accordingly.
func (a *Agent) dispatch(ctx context.Context, r *run, current string, resp llmparse.LLMResponse) {
	switch resp.Action {
	case llmparse.ActionAnswer:
		a.dispatchAnswer(ctx, r, resp)

	case llmparse.ActionReflect:
		if len(resp.QuestionsToAnswer) > 0 {
			for _, q := range resp.QuestionsToAnswer {
				r.gaps.PushTail(q)
			}
		} else {
			r.gaps.PushTail(current)
		}
		r.badAttempts++
		r.diary.Log("LLM reflected, new sub-questions queued")

	case llmparse.ActionSearch:
		if resp.SearchQuery != "" {
			r.gaps.PushHead(resp.SearchQuery)
		} else {
			r.gaps.PushTail(current)
		}
		r.badAttempts++
		r.diary.Log("LLM requested another search")

	default:
		r.badAttempts++
		r.diary.Log("LLM returned an unrecognized action")
	}
}

func (a *Agent) dispatchAnswer(ctx context.Context, r *run, resp llmparse.LLMResponse) {
	answer := strings.TrimSpace(resp.Answer)
	if answer == "" {
		r.badAttempts++
		r.diary.Log("LLM returned an empty answer")
		return
	}

	if len(answer) < 40 {
		if expanded, err := a.expandAnswer(ctx, r, answer); err == nil && expanded != "" {
			answer = expanded
		}
	}

	if admitsCandidate(a.cfg, answer, resp.References) {
		r.candidates.Add(answer)
		r.diary.Log("candidate answer accepted")
	} else {
		r.badAttempts++
		r.diary.Log("candidate answer rejected by definitiveness test")
	}
}

// expandAnswer re-prompts the LLM to expand a too-short answer using the
// diary for context.
func (a *Agent) expandAnswer(ctx context.Context, r *run, answer string) (string, error) {
	prompt := fmt.Sprintf(
		"Your answer was too brief: %q\n\nUsing the research diary below, expand it into a "+
			"complete, well-structured answer.\n\nDiary:\n%s", answer, r.diary.String(),
	)
	return a.llm.ProcessText(ctx, "", prompt, false)
}

// conclude returns the final answer: the latest candidate if one exists,
// otherwise a Beast Mode best-effort answer. Always returns a string.
func (a *Agent) conclude(ctx context.Context, r *run) (string, error) {
	if !r.candidates.Empty() {
		return r.candidates.Latest() + sourcesAppendix(r.visited.URLs()), nil
	}

	answer, err := beastMode(ctx, a.llm, r.question, r.diary)
	if err != nil {
		return "", err
	}
	return answer + sourcesAppendix(r.visited.URLs()), nil
}

type extraction struct {
	url  string
	text string
}

// extractConcurrently fetches content from every result's URL in parallel.
// Per-URL failures are logged and dropped, never failing the batch.
func (a *Agent) extractConcurrently(ctx context.Context, results []search.Result) []string {
	out := make(chan extraction, len(results))
	var wg sync.WaitGroup

	for _, res := range results {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			text, err := a.extractor.Extract(ctx, url)
			if err != nil {
				a.logger.Warn("agent: extraction failed", "url", url, "error", err)
				return
			}
			out <- extraction{url: url, text: text}
		}(search.NormalizeURL(res.URL))
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var pages []string
	for e := range out {
		if strings.TrimSpace(e.text) != "" {
			pages = append(pages, e.text)
		}
	}
	return pages
}
