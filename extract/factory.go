package extract

import (
	"context"
	"net/url"
	"strings"
)

// Factory dispatches a URL to the right Extractor by resolved host, after
// unwrapping search-engine redirect links (e.g. DuckDuckGo's uddg= param).
// Table is exported so callers can register additional site-specific
// extractors without forking the factory.
type Factory struct {
	Table   map[string]Extractor
	Default Extractor
}

// NewFactory creates a Factory that dispatches the given social hosts to
// extractor and everything else to def.
func NewFactory(social Extractor, socialHosts []string, def Extractor) *Factory {
	table := make(map[string]Extractor, len(socialHosts))
	for _, h := range socialHosts {
		table[strings.ToLower(h)] = social
	}
	return &Factory{Table: table, Default: def}
}

// Get resolves rawURL (unwrapping any redirector first) and returns the
// Extractor registered for its host, or the default.
func (f *Factory) Get(rawURL string) Extractor {
	resolved := ResolveRedirect(rawURL)
	u, err := url.Parse(resolved)
	if err != nil {
		return f.Default
	}
	if ext, ok := f.Table[strings.ToLower(u.Hostname())]; ok {
		return ext
	}
	return f.Default
}

// Extract resolves url through ResolveRedirect and dispatches to the right
// Extractor.
func (f *Factory) Extract(ctx context.Context, rawURL string) (string, error) {
	resolved := ResolveRedirect(rawURL)
	return f.Get(resolved).Extract(ctx, resolved)
}

// ResolveRedirect unwraps a search-engine redirector URL by decoding its
// uddg (or url) query parameter, if present. The host is not checked: any
// URL carrying a non-empty uddg or url parameter is replaced by its value.
// Calling it again on a resolved URL returns that URL unchanged only when
// the target itself carries neither parameter.
func ResolveRedirect(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, key := range []string{"uddg", "url"} {
		if target := q.Get(key); target != "" {
			if decoded, err := url.QueryUnescape(target); err == nil {
				return decoded
			}
		}
	}
	return rawURL
}
