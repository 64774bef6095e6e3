package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/deepresearch/llm"
	"github.com/hazyhaar/deepresearch/search"
)

// stubSearch returns a fixed, query-keyed set of results. Unlisted queries
// return no results. sequence, if set for a query, overrides results with a
// different result set on each successive call to that same query (the last
// entry repeats once exhausted) — used to simulate a search provider that
// eventually surfaces fresh URLs after returning only already-visited ones.
type stubSearch struct {
	mu       sync.Mutex
	results  map[string][]search.Result
	sequence map[string][][]search.Result
	calls    []string
}

func (s *stubSearch) Search(ctx context.Context, query string) ([]search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, query)

	if seq, ok := s.sequence[query]; ok {
		idx := -1
		for _, c := range s.calls {
			if c == query {
				idx++
			}
		}
		if idx >= len(seq) {
			idx = len(seq) - 1
		}
		return seq[idx], nil
	}
	return s.results[query], nil
}

// stubExtractor returns canned text per URL, or an error for URLs listed in
// failURLs.
type stubExtractor struct {
	mu       sync.Mutex
	text     map[string]string
	failURLs map[string]bool
	seen     []string
}

func (e *stubExtractor) Extract(ctx context.Context, url string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, url)
	if e.failURLs[url] {
		return "", errors.New("extraction failed")
	}
	return e.text[url], nil
}

func noStepSleep(cfg Config) Config {
	cfg.StepSleep = 0
	return cfg
}

const longDefiniteAnswer = `Summary: the rollout proceeded in three stages, each validated independently before moving on.

Background: the team first evaluated the baseline configuration, then iterated across several candidate designs, keeping detailed notes throughout the process.

Analysis: first the metrics improved steadily across every tracked dimension, and additionally latency dropped well below the target threshold in every environment tested.

In conclusion, the change is safe to ship and is well supported by the sources gathered during this research.`

func TestAgent_HappyPath(t *testing.T) {
	search := &stubSearch{results: map[string][]search.Result{
		"what happened": {{Title: "A", URL: "https://example.com/a"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "the rollout proceeded smoothly",
	}}
	responses := []string{
		"", // query-variation seeding: no variations
		`{"action":"answer","thoughts":"done","answer":"` + strings.ReplaceAll(longDefiniteAnswer, "\n", "\\n") + `","references":[{"url":"https://example.com/a"},{"url":"https://example.com/b"}]}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{MinSources: 2})
	a := New(search, extractor, provider, cfg, nil)

	answer, err := a.GetResponse(context.Background(), "what happened")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	if !strings.Contains(answer, "rollout proceeded in three stages") {
		t.Errorf("answer missing expected content: %q", answer)
	}
	if !strings.Contains(answer, "Sources:") {
		t.Errorf("answer missing sources appendix: %q", answer)
	}
}

func TestAgent_SearchThenAnswer(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{
		"q":        {{Title: "A", URL: "https://example.com/a"}},
		"followup": {{Title: "B", URL: "https://example.com/b"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "partial info",
		"https://example.com/b": "the complete answer content",
	}}
	responses := []string{
		"",
		`{"action":"search","thoughts":"need more","searchQuery":"followup"}`,
		`{"action":"answer","thoughts":"done","answer":"` + strings.ReplaceAll(longDefiniteAnswer, "\n", "\\n") + `"}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{Definitiveness: DefinitivenessLenient})
	a := New(s, extractor, provider, cfg, nil)

	answer, err := a.GetResponse(context.Background(), "q")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	if !strings.Contains(answer, "rollout proceeded") {
		t.Errorf("unexpected answer: %q", answer)
	}
	found := false
	for _, c := range s.calls {
		if c == "followup" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a search call for the follow-up query, calls: %v", s.calls)
	}
}

func TestAgent_ReflectWithSubQuestions(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{
		"q":    {{Title: "A", URL: "https://example.com/a"}},
		"sub1": {{Title: "B", URL: "https://example.com/b"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "some info",
		"https://example.com/b": "the answer",
	}}
	responses := []string{
		"",
		`{"action":"reflect","thoughts":"unclear","questionsToAnswer":["sub1"]}`,
		`{"action":"answer","thoughts":"done","answer":"` + strings.ReplaceAll(longDefiniteAnswer, "\n", "\\n") + `"}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{Definitiveness: DefinitivenessLenient})
	a := New(s, extractor, provider, cfg, nil)

	_, err := a.GetResponse(context.Background(), "q")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	found := false
	for _, c := range s.calls {
		if c == "sub1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a search call for the reflected sub-question, calls: %v", s.calls)
	}
}

func TestAgent_TokenBudgetExceeded(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{
		"q": {{Title: "A", URL: "https://example.com/a"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": strings.Repeat("word ", 1000),
	}}
	provider := llm.NewMockProvider("", `{"action":"answer","answer":"irrelevant"}`)
	cfg := noStepSleep(Config{TokenBudget: 10})
	a := New(s, extractor, provider, cfg, nil)

	_, err := a.GetResponse(context.Background(), "q")
	if !errors.Is(err, ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded, got %v", err)
	}
}

// TestAgent_AllVisitedRequeuesWithoutBadAttempt drives "q" through a search
// that returns only an already-visited URL. Per §4.5 step 3 that must
// re-queue the gap and continue with no bad-attempt penalty, not terminate
// early. The search stub is scripted to return fresh results on a later
// call, so the requeued gap eventually produces new content and the run
// still reaches a normal answer — if the fix regressed back to penalizing
// the requeue, a lower MaxBadAttempts here would force premature Beast Mode
// instead of the scripted answer below.
func TestAgent_AllVisitedRequeuesWithoutBadAttempt(t *testing.T) {
	s := &stubSearch{sequence: map[string][][]search.Result{
		"q": {
			{{Title: "A", URL: "https://example.com/a"}},
			{{Title: "A", URL: "https://example.com/a"}}, // same URL again: all visited
			{{Title: "C", URL: "https://example.com/c"}}, // fresh URL: unblocks the gap
		},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "some content",
		"https://example.com/c": "the complete content",
	}}
	responses := []string{
		"",
		`{"action":"search","thoughts":"retry","searchQuery":"q"}`,
		`{"action":"answer","thoughts":"done","answer":"` + strings.ReplaceAll(longDefiniteAnswer, "\n", "\\n") + `"}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{MaxBadAttempts: 2, Definitiveness: DefinitivenessLenient})
	a := New(s, extractor, provider, cfg, nil)

	answer, err := a.GetResponse(context.Background(), "q")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	if !strings.Contains(answer, "rollout proceeded") {
		t.Errorf("expected the scripted answer, not a Beast Mode fallback: %q", answer)
	}

	count := 0
	for _, c := range s.calls {
		if c == "q" {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 search calls for %q (requeue exercised), got %d", "q", count)
	}
}

// TestAgent_FailedExtractionNotRetried verifies the visited-before-extraction
// semantics: a URL is marked visited as soon as it is selected for
// extraction, before the extraction attempt runs, so a failed extraction is
// never retried even though the search provider keeps resurfacing the same
// URL.
func TestAgent_FailedExtractionNotRetried(t *testing.T) {
	s := &stubSearch{sequence: map[string][][]search.Result{
		"q": {
			{{Title: "A", URL: "https://example.com/a"}},
			{{Title: "A", URL: "https://example.com/a"}}, // same URL again: already visited
			{},                                           // exhausted: no results at all
		},
	}}
	extractor := &stubExtractor{failURLs: map[string]bool{
		"https://example.com/a": true,
	}}
	responses := []string{
		"",
		`{"action":"reflect","thoughts":"unclear","questionsToAnswer":[]}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{})
	a := New(s, extractor, provider, cfg, nil)

	_, err := a.GetResponse(context.Background(), "q")
	if !errors.Is(err, ErrNoSearchResults) {
		t.Fatalf("expected ErrNoSearchResults, got %v", err)
	}

	extractCount := 0
	for _, u := range extractor.seen {
		if u == "https://example.com/a" {
			extractCount++
		}
	}
	if extractCount != 1 {
		t.Errorf("expected exactly one extraction attempt on the failing URL, got %d", extractCount)
	}

	searchCount := 0
	for _, c := range s.calls {
		if c == "q" {
			searchCount++
		}
	}
	if searchCount != 3 {
		t.Errorf("expected 3 search calls for %q, got %d", "q", searchCount)
	}
}

func TestAgent_EmptyQuestion(t *testing.T) {
	a := New(&stubSearch{}, &stubExtractor{}, llm.NewMockProvider(), Config{}, nil)
	_, err := a.GetResponse(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestAgent_NoSearchResultsAtAll(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{}}
	provider := llm.NewMockProvider("")
	cfg := noStepSleep(Config{})
	a := New(s, &stubExtractor{}, provider, cfg, nil)

	_, err := a.GetResponse(context.Background(), "nothing will match")
	if !errors.Is(err, ErrNoSearchResults) {
		t.Fatalf("expected ErrNoSearchResults, got %v", err)
	}
}

func TestAgent_BeastModeWhenNoCandidateSurvives(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{
		"q": {{Title: "A", URL: "https://example.com/a"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "thin content",
	}}
	responses := []string{
		"",
		`{"action":"answer","answer":"no"}`, // too short, rejected
	}
	provider := llm.NewMockProvider(responses...)
	provider.Fallback = "the best-effort beast mode answer"
	cfg := noStepSleep(Config{MaxBadAttempts: 1})
	a := New(s, extractor, provider, cfg, nil)

	answer, err := a.GetResponse(context.Background(), "q")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	if !strings.Contains(answer, "beast mode answer") {
		t.Errorf("expected beast mode fallback in answer, got %q", answer)
	}
}

func TestAgent_VisitedURLsAreNeverExtractedTwice(t *testing.T) {
	s := &stubSearch{results: map[string][]search.Result{
		"q": {{Title: "A", URL: "https://example.com/a"}, {Title: "A2", URL: "https://example.com/a"}},
	}}
	extractor := &stubExtractor{text: map[string]string{
		"https://example.com/a": "content",
	}}
	responses := []string{
		"",
		`{"action":"answer","answer":"` + strings.ReplaceAll(longDefiniteAnswer, "\n", "\\n") + `"}`,
	}
	provider := llm.NewMockProvider(responses...)
	cfg := noStepSleep(Config{Definitiveness: DefinitivenessLenient})
	a := New(s, extractor, provider, cfg, nil)

	_, err := a.GetResponse(context.Background(), "q")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	count := 0
	for _, u := range extractor.seen {
		if u == "https://example.com/a" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one extraction of the duplicate URL, got %d", count)
	}
}
