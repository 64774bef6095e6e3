package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/deepresearch/horosafe"
)

// minBlockChars is the threshold a candidate content block's collected text
// must exceed before it's accepted over the regex-stripper fallback.
const minBlockChars = 100

var (
	boilerplateTags = map[string]bool{
		"script": true, "style": true, "nav": true, "footer": true,
		"header": true, "aside": true, "noscript": true,
	}
	blockCandidateOrder = []string{"article", "main", "body"}

	tagStripRe = regexp.MustCompile(`<[^>]*>`)
)

// WebConfig configures WebExtractor.
type WebConfig struct {
	Timeout      time.Duration // HTTP timeout. Default: 20s.
	MaxBytes     int64         // response body cap. Default: 5MB.
	UserAgent    string        // desktop UA sent with every request.
	URLValidator func(string) error

	Logger *slog.Logger
}

func (c *WebConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if c.URLValidator == nil {
		c.URLValidator = horosafe.ValidateURL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// WebExtractor implements the generic extraction algorithm: fetch, strip
// boilerplate, prefer the first of article/main/body whose collected text
// clears minBlockChars, else fall back to a regex tag-stripper over the
// whole document.
type WebExtractor struct {
	client *http.Client
	cfg    WebConfig
	md     *converter.Converter
	policy *bluemonday.Policy
}

// NewWebExtractor creates a WebExtractor.
func NewWebExtractor(cfg WebConfig) *WebExtractor {
	cfg.defaults()
	conv := converter.NewConverter(converter.WithPlugins(base.NewBasePlugin(), commonmark.NewCommonmarkPlugin(), table.NewTablePlugin()))
	return &WebExtractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("extract: too many redirects (%d)", len(via))
				}
				return cfg.URLValidator(req.URL.String())
			},
		},
		cfg:    cfg,
		md:     conv,
		policy: bluemonday.UGCPolicy(),
	}
}

// Extract fetches url and returns its clean body text.
func (e *WebExtractor) Extract(ctx context.Context, url string) (string, error) {
	if err := e.cfg.URLValidator(url); err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("extract: new request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadServerResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: http %d", ErrBadServerResponse, resp.StatusCode)
	}

	body, err := horosafe.LimitedReadAll(resp.Body, e.cfg.MaxBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotDecodeRaw, err)
	}

	return e.extractHTML(string(body), url)
}

func (e *WebExtractor) extractHTML(raw, sourceURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseContent, err)
	}
	stripBoilerplate(doc)

	block := selectContentBlock(doc)
	if block != nil {
		blockHTML := renderNode(block)
		if md := e.toMarkdown(blockHTML, sourceURL); md != "" {
			return CleanText(md), nil
		}
		return CleanText(collectText(block)), nil
	}

	return CleanText(tagStripRe.ReplaceAllString(raw, " ")), nil
}

func (e *WebExtractor) toMarkdown(blockHTML, sourceURL string) string {
	sanitized := e.policy.Sanitize(blockHTML)
	result, err := e.md.ConvertString(sanitized)
	if err != nil || strings.TrimSpace(result) == "" {
		return ""
	}
	return strings.TrimSpace(result)
}

// stripBoilerplate removes script/style/nav/footer/header/aside/noscript
// subtrees in place.
func stripBoilerplate(doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			if c.Type == html.ElementNode && boilerplateTags[c.Data] {
				n.RemoveChild(c)
			} else {
				walk(c)
			}
			c = next
		}
	}
	walk(doc)
}

// selectContentBlock returns the first article/main/body node whose
// collected text exceeds minBlockChars, or nil if none qualifies.
func selectContentBlock(doc *html.Node) *html.Node {
	for _, tag := range blockCandidateOrder {
		for _, n := range QuerySelectorAll(doc, tag) {
			if len(strings.TrimSpace(collectText(n))) > minBlockChars {
				return n
			}
		}
	}
	return nil
}

// collectText concatenates all text node content under n, space-separated.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// renderNode serializes n back to HTML.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
