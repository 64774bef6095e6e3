// Package search provides search providers for the research agent: an
// HTML-scraping provider (headless Chrome against a search engine's result
// page), a JSON-API provider, and a composite that fans out to any number
// of child providers and unions their results.
package search

import (
	"context"
	"errors"
	"strings"
)

// Result is a single search result.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Equal reports whether two results refer to the same normalized URL.
func (r Result) Equal(other Result) bool {
	return NormalizeURL(r.URL) == NormalizeURL(other.URL)
}

// Provider executes a query and returns search results.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

var (
	// ErrInvalidQuery is returned for an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("search: invalid query")
	// ErrNoResults is returned when every provider/variation failed to
	// produce any result at all.
	ErrNoResults = errors.New("search: no results")
	// ErrInvalidResponse is returned for a non-2xx provider HTTP response.
	ErrInvalidResponse = errors.New("search: invalid response")
)

// NormalizeURL canonicalizes protocol-relative links (//host/path) to
// https, and is otherwise a pass-through. Used for dedup/equality.
func NormalizeURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// Dedup returns results with duplicate (by normalized URL) entries removed,
// first occurrence wins.
func Dedup(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
