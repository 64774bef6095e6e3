package extract

import (
	"context"
	"testing"
)

type stubExtractor struct {
	name string
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (string, error) {
	return s.name, nil
}

func TestFactory_DispatchesByHost(t *testing.T) {
	social := &stubExtractor{name: "social"}
	web := &stubExtractor{name: "web"}
	f := NewFactory(social, []string{"old.reddit.com"}, web)

	got, _ := f.Extract(context.Background(), "https://old.reddit.com/r/test/comments/abc")
	if got != "social" {
		t.Errorf("expected social extractor, got %q", got)
	}

	got, _ = f.Extract(context.Background(), "https://example.com/article")
	if got != "web" {
		t.Errorf("expected web extractor, got %q", got)
	}
}

func TestFactory_UnwrapsRedirectorBeforeDispatch(t *testing.T) {
	social := &stubExtractor{name: "social"}
	web := &stubExtractor{name: "web"}
	f := NewFactory(social, []string{"old.reddit.com"}, web)

	redirector := "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fold.reddit.com%2Fr%2Ftest"
	got, _ := f.Extract(context.Background(), redirector)
	if got != "social" {
		t.Errorf("expected redirect to unwrap to social host, got %q", got)
	}
}

func TestResolveRedirect_Idempotent(t *testing.T) {
	redirector := "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage"
	once := ResolveRedirect(redirector)
	twice := ResolveRedirect(once)
	if once != twice {
		t.Errorf("ResolveRedirect not idempotent: once=%q twice=%q", once, twice)
	}
}

func TestResolveRedirect_PlainURLUnchanged(t *testing.T) {
	plain := "https://example.com/page?foo=bar"
	if got := ResolveRedirect(plain); got != plain {
		t.Errorf("ResolveRedirect altered a plain URL: got %q", got)
	}
}
