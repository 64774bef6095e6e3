package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	htmlparse "golang.org/x/net/html"

	"github.com/hazyhaar/deepresearch/extract"
	"github.com/hazyhaar/deepresearch/internal/browser"
)

// Selectors holds CSS selectors for the HTML-scraping provider, matched
// with the same CSS-subset engine the generic content extractor uses.
type Selectors struct {
	ResultItem string
	Title      string
	Link       string
	Snippet    string
}

// HTMLConfig configures HTMLProvider.
type HTMLConfig struct {
	SearchURLTemplate string // "{query}" is replaced with the escaped query.
	Selectors         Selectors
	MaxVariations     int           // cap on query variations. Default: 5.
	MinQueryDelay     time.Duration // delay between variations. Default: 1s.

	Logger *slog.Logger
}

func (c *HTMLConfig) defaults() {
	if c.MaxVariations <= 0 {
		c.MaxVariations = 5
	}
	if c.MinQueryDelay <= 0 {
		c.MinQueryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// HTMLProvider renders a search engine's result page in a headless browser
// and scrapes results via configurable CSS selectors.
type HTMLProvider struct {
	cfg     HTMLConfig
	manager *browser.Manager
}

// NewHTMLProvider creates an HTMLProvider backed by a browser.Manager. The
// manager's Chrome instance is started lazily on first Search call.
func NewHTMLProvider(cfg HTMLConfig, manager *browser.Manager) *HTMLProvider {
	cfg.defaults()
	return &HTMLProvider{cfg: cfg, manager: manager}
}

var variationSuffixes = []string{"", " overview", " explained", " guide", " tutorial"}

func queryVariations(query string, max int) []string {
	var out []string
	for i, suffix := range variationSuffixes {
		if i >= max {
			break
		}
		out = append(out, strings.TrimSpace(query+suffix))
	}
	return out
}

// Search renders several query variations, collects results from each, and
// returns the deduped union. Per-variation failures are logged and
// swallowed. An empty union is an error: the last failed variation's error
// if any variation failed, otherwise ErrNoResults.
func (p *HTMLProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	if p.manager.Browser() == nil {
		if _, err := p.manager.Start(ctx); err != nil {
			return nil, fmt.Errorf("search: start browser: %w", err)
		}
	}

	var all []Result
	var lastErr error
	for i, variation := range queryVariations(query, p.cfg.MaxVariations) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.MinQueryDelay):
			}
		}

		results, err := p.searchOne(ctx, variation)
		if err != nil {
			p.cfg.Logger.Warn("search: html variation failed", "query", variation, "error", err)
			lastErr = err
			continue
		}
		all = append(all, results...)
	}

	all = Dedup(all)
	if len(all) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoResults
	}
	return all, nil
}

func (p *HTMLProvider) searchOne(ctx context.Context, query string) ([]Result, error) {
	url := strings.ReplaceAll(p.cfg.SearchURLTemplate, "{query}", strings.ReplaceAll(query, " ", "+"))

	tab, err := browser.OpenTab(ctx, p.manager, url)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	body, err := tab.HTML(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := htmlparse.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: parse results page: %w", err)
	}

	var results []Result
	for _, item := range extract.QuerySelectorAll(doc, p.cfg.Selectors.ResultItem) {
		title := firstText(extract.QuerySelectorAll(item, p.cfg.Selectors.Title))
		link := firstAttr(extract.QuerySelectorAll(item, p.cfg.Selectors.Link), "href")
		snippet := firstText(extract.QuerySelectorAll(item, p.cfg.Selectors.Snippet))
		if link == "" {
			continue
		}
		results = append(results, Result{
			Title:   title,
			URL:     NormalizeURL(link),
			Snippet: snippet,
		})
	}
	return results, nil
}

func firstText(nodes []*htmlparse.Node) string {
	if len(nodes) == 0 {
		return ""
	}
	var sb strings.Builder
	var walk func(*htmlparse.Node)
	walk = func(n *htmlparse.Node) {
		if n.Type == htmlparse.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(nodes[0])
	return strings.TrimSpace(sb.String())
}

func firstAttr(nodes []*htmlparse.Node, key string) string {
	if len(nodes) == 0 {
		return ""
	}
	for _, a := range nodes[0].Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
