package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/deepresearch/horosafe"
	"github.com/hazyhaar/deepresearch/ratelimit"
)

// APIConfig describes how to call and parse a JSON search API.
type APIConfig struct {
	Endpoint    string            // base URL; "{query}" is replaced with the escaped query.
	Method      string            // HTTP method. Default: GET.
	Headers     map[string]string // ${ENV_VAR} expanded.
	ResultPath  string            // dot-notation path to the results array, e.g. "data.results".
	Fields      map[string]string // {"title":"name","text":"body","url":"link"}. Defaults to those keys.
	RPM         int               // requests per minute. Default: 60.
	PageParam   string            // query string param carrying the page number. Empty disables pagination.
	PageSize    int               // results per page. Default: 10.
	MaxPages    int               // pagination cap. Default: 6.
	MaxResults  int               // overall result cap. Default: 60.
	PageDelayMs int64             // delay between pages. Default: 500ms.

	Client *http.Client
}

func (c *APIConfig) defaults() {
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if c.RPM <= 0 {
		c.RPM = 60
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 6
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 60
	}
	if c.PageDelayMs <= 0 {
		c.PageDelayMs = 500
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
}

// APIProvider queries a JSON search API, optionally paginating, rate
// limited to cfg.RPM via a ratelimit.Limiter.
type APIProvider struct {
	cfg     APIConfig
	limiter *ratelimit.Limiter
}

// NewAPIProvider creates an APIProvider.
func NewAPIProvider(cfg APIConfig) *APIProvider {
	cfg.defaults()
	return &APIProvider{cfg: cfg, limiter: ratelimit.New(cfg.RPM)}
}

// Search calls the configured API, paginating until MaxPages or MaxResults
// is reached, an empty page is returned, or the context is cancelled.
func (p *APIProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	var all []Result
	for page := 1; page <= p.cfg.MaxPages; page++ {
		if err := p.limiter.WaitForSlot(ctx); err != nil {
			return nil, err
		}

		results, err := p.fetchPage(ctx, query, page)
		if err != nil {
			if len(all) > 0 {
				break
			}
			return nil, err
		}
		if len(results) == 0 {
			break
		}
		all = append(all, results...)
		if len(all) >= p.cfg.MaxResults || p.cfg.PageParam == "" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(p.cfg.PageDelayMs) * time.Millisecond):
		}
	}

	if len(all) == 0 {
		return nil, ErrNoResults
	}
	if len(all) > p.cfg.MaxResults {
		all = all[:p.cfg.MaxResults]
	}
	return Dedup(all), nil
}

func (p *APIProvider) fetchPage(ctx context.Context, query string, page int) ([]Result, error) {
	url := strings.ReplaceAll(p.cfg.Endpoint, "{query}", escapeQuery(query))
	if p.cfg.PageParam != "" {
		sep := "&"
		if !strings.Contains(url, "?") {
			sep = "?"
		}
		url = fmt.Sprintf("%s%s%s=%d&page_size=%d", url, sep, p.cfg.PageParam, page, p.cfg.PageSize)
	}

	req, err := http.NewRequestWithContext(ctx, p.cfg.Method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("search: new request: %w", err)
	}
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, os.Expand(v, os.Getenv))
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", ErrInvalidResponse, resp.StatusCode)
	}

	body, err := horosafe.LimitedReadAll(resp.Body, 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("search: read body: %w", err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("search: json decode: %w", err)
	}

	items, err := walkResultPath(raw, p.cfg.ResultPath)
	if err != nil {
		return nil, fmt.Errorf("search: walk path %q: %w", p.cfg.ResultPath, err)
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		results = append(results, extractResultFields(obj, p.cfg.Fields))
	}
	return results, nil
}

func escapeQuery(q string) string {
	return strings.ReplaceAll(q, " ", "+")
}

func walkResultPath(v any, path string) ([]any, error) {
	if path == "" {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("root is not an array")
		}
		return arr, nil
	}
	current := v
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object at %q, got %T", part, current)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("key %q not found", part)
		}
	}
	arr, ok := current.([]any)
	if !ok {
		return nil, fmt.Errorf("path %q is not an array", path)
	}
	return arr, nil
}

func extractResultFields(obj map[string]any, fields map[string]string) Result {
	get := func(key string) string {
		if fields != nil {
			if f, ok := fields[key]; ok {
				key = f
			}
		}
		return asString(obj[key])
	}
	return Result{
		Title:   get("title"),
		URL:     get("url"),
		Snippet: get("text"),
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
