package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/deepresearch/horosafe"
)

// maxRetry is the cap on retry attempts for the social extractor's requests
// (the thread fetch and the "more children" pagination).
const maxRetry = 5

// SocialMode selects how SocialExtractor renders a fetched thread.
type SocialMode int

const (
	// ModeThread extracts the full post plus its comment tree.
	ModeThread SocialMode = iota
	// ModeIndex extracts a compact summary of a listing page.
	ModeIndex
)

// SocialConfig configures SocialExtractor.
type SocialConfig struct {
	Hosts       []string      // hosts dispatched to this extractor. Default: the aggregator's old. and www. hosts.
	MaxDepth    int           // comment recursion depth cap. Default: 6.
	Concurrency int           // "more children" fetch concurrency. Default: 3.
	ChunkSize   int           // comment IDs per "more children" request. Default: 100.
	Timeout     time.Duration // per-request HTTP timeout. Default: 15s.
	UserAgent   string

	Logger *slog.Logger
}

func (c *SocialConfig) defaults() {
	if len(c.Hosts) == 0 {
		c.Hosts = []string{"old.reddit.com", "www.reddit.com"}
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 6
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "deepresearch/1.0 (content extraction)"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SocialExtractor extracts posts and comment trees from a social-link
// aggregator's JSON API, walking the comment tree with an explicit
// work-queue instead of recursion so depth is always bounded and the stack
// never grows with thread size.
type SocialExtractor struct {
	client *http.Client
	cfg    SocialConfig
	mode   SocialMode
}

// NewSocialExtractor creates a SocialExtractor in the given mode.
func NewSocialExtractor(cfg SocialConfig, mode SocialMode) *SocialExtractor {
	cfg.defaults()
	return &SocialExtractor{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		mode:   mode,
	}
}

// Extract fetches the thread or listing at url and returns clean text.
func (e *SocialExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	apiURL, err := e.toAPIURL(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotDecodeRaw, err)
	}

	body, err := e.getJSON(ctx, apiURL)
	if err != nil {
		return "", err
	}

	switch e.mode {
	case ModeIndex:
		return e.renderIndex(body)
	default:
		return e.renderThread(ctx, body)
	}
}

// toAPIURL forces https and appends the JSON API suffix with a generous
// result limit; other query parameters are kept as they are.
func (e *SocialExtractor) toAPIURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Scheme = "https"
	if !strings.HasSuffix(u.Path, ".json") {
		u.Path = strings.TrimRight(u.Path, "/") + ".json"
	}
	q := u.Query()
	q.Set("limit", "1000")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (e *SocialExtractor) getJSON(ctx context.Context, apiURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetry; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", e.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			e.cfg.Logger.Warn("extract: social rate limited, retrying", "url", apiURL)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
			lastErr = fmt.Errorf("%w: http 429", ErrBadServerResponse)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: http %d", ErrBadServerResponse, resp.StatusCode)
			continue
		}

		body, err := horosafe.LimitedReadAll(resp.Body, 10*1024*1024)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCannotDecodeRaw, err)
		}
		return body, nil
	}
	return nil, lastErr
}

func backoffDelay(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > 60*time.Second {
		d = 60 * time.Second
	}
	return d
}

// listingNode mirrors the aggregator's generic {kind, data} envelope.
type listingNode struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (e *SocialExtractor) renderThread(ctx context.Context, body []byte) (string, error) {
	var listings []listingNode
	if err := json.Unmarshal(body, &listings); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseContent, err)
	}
	if len(listings) == 0 {
		return "", fmt.Errorf("%w: empty thread response", ErrCannotParseContent)
	}

	postChildren := decodeChildren(listings[0].Data)
	if len(postChildren) == 0 {
		return "", fmt.Errorf("%w: thread response missing the post node", ErrCannotParseContent)
	}
	postData := jsonField(postChildren[0], "data")

	var sb strings.Builder
	sb.WriteString(renderPost(postData))
	sb.WriteString("\n\n")

	if len(listings) > 1 {
		linkID := postLinkID(postData)
		comments := decodeChildren(listings[1].Data)
		sb.WriteString(e.renderComments(ctx, linkID, comments))
	}
	return CleanText(sb.String()), nil
}

// postLinkID returns the originating post's fullname (t3_<id>), used as the
// link_id field of "more children" requests. Falls back to synthesizing the
// fullname from the bare id if the API omitted "name".
func postLinkID(data json.RawMessage) string {
	if name, ok := jsonGetString(data, "name"); ok && name != "" {
		return name
	}
	if id, ok := jsonGetString(data, "id"); ok && id != "" {
		return "t3_" + id
	}
	return ""
}

func (e *SocialExtractor) renderIndex(body []byte) (string, error) {
	var listing listingNode
	if err := json.Unmarshal(body, &listing); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCannotParseContent, err)
	}
	children := decodeChildren(listing.Data)

	var sb strings.Builder
	for _, c := range children {
		data := jsonField(c, "data")
		if data == nil {
			continue
		}
		title, _ := jsonGetString(data, "title")
		if title == "" {
			continue
		}
		author, _ := jsonGetString(data, "author")
		score, _ := jsonGetNumber(data, "score")
		numComments, _ := jsonGetNumber(data, "num_comments")
		permalink, _ := jsonGetString(data, "permalink")
		fmt.Fprintf(&sb, "- %s (by %s, score %d, %d comments) %s\n", title, author, int(score), int(numComments), permalink)
	}
	return CleanText(sb.String()), nil
}

// renderPost formats the full post metadata block spec.md §4.3 requires:
// title, author, subreddit, created time, score, comment count, NSFW flag,
// plus self-text.
func renderPost(data json.RawMessage) string {
	title, _ := jsonGetString(data, "title")
	selftext, _ := jsonGetString(data, "selftext")
	author, _ := jsonGetString(data, "author")
	subreddit, _ := jsonGetString(data, "subreddit")
	createdUTC, _ := jsonGetNumber(data, "created_utc")
	score, _ := jsonGetNumber(data, "score")
	numComments, _ := jsonGetNumber(data, "num_comments")
	nsfw, _ := jsonGetBool(data, "over_18")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\nr/%s, by %s, posted %s\n", title, subreddit, author, formatCreatedUTC(createdUTC))
	fmt.Fprintf(&sb, "score %d, %d comments", int(score), int(numComments))
	if nsfw {
		sb.WriteString(", NSFW")
	}
	sb.WriteString("\n\n")
	sb.WriteString(selftext)
	return sb.String()
}

func formatCreatedUTC(createdUTC float64) string {
	if createdUTC <= 0 {
		return "unknown"
	}
	return time.Unix(int64(createdUTC), 0).UTC().Format(time.RFC3339)
}

// commentWork is one unit of the comment-tree work-queue: a batch of
// already-fetched comment nodes at a known depth. "more" stubs among the
// nodes have their child IDs collected and fetched while the batch is
// processed.
type commentWork struct {
	nodes []json.RawMessage
	depth int
}

// renderComments walks the comment tree breadth-first via an explicit
// work-queue (never recursion), resolving "more" stubs through bounded
// concurrent "morechildren"-style fetches, and stops descending past
// cfg.MaxDepth.
func (e *SocialExtractor) renderComments(ctx context.Context, linkID string, top []json.RawMessage) string {
	var sb strings.Builder
	queue := []commentWork{{nodes: top, depth: 0}}

	for len(queue) > 0 {
		work := queue[0]
		queue = queue[1:]
		if work.depth > e.cfg.MaxDepth {
			continue
		}

		var moreIDs []string
		for _, node := range work.nodes {
			kind, _ := jsonGetString(node, "kind")
			data := jsonField(node, "data")
			if data == nil {
				continue
			}
			if kind == "more" {
				ids, _ := jsonGetStringSlice(data, "children")
				moreIDs = append(moreIDs, ids...)
				continue
			}

			body, _ := jsonGetString(data, "body")
			author, _ := jsonGetString(data, "author")
			if body != "" {
				sb.WriteString(strings.Repeat("  ", work.depth))
				fmt.Fprintf(&sb, "%s: %s\n", author, body)
			}

			if repliesRaw := jsonField(data, "replies"); repliesRaw != nil {
				if children := decodeRepliesChildren(repliesRaw); len(children) > 0 {
					queue = append(queue, commentWork{nodes: children, depth: work.depth + 1})
				}
			}
		}

		if len(moreIDs) > 0 && work.depth <= e.cfg.MaxDepth {
			fetched := e.fetchMoreChildren(ctx, linkID, moreIDs, work.depth)
			if len(fetched) > 0 {
				queue = append(queue, commentWork{nodes: fetched, depth: work.depth})
			}
		}
	}
	return sb.String()
}

// fetchMoreChildren resolves "more" stub IDs in ChunkSize-sized batches, up
// to Concurrency batches in flight at once, waiting 500ms between launching
// successive chunks, and swallows per-chunk errors since a partial comment
// tree is still useful.
func (e *SocialExtractor) fetchMoreChildren(ctx context.Context, linkID string, ids []string, depth int) []json.RawMessage {
	chunks := chunkStrings(ids, e.cfg.ChunkSize)
	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var all []json.RawMessage

	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-ctx.Done():
				wg.Wait()
				return all
			case <-time.After(500 * time.Millisecond):
			}
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(chunk []string) {
			defer wg.Done()
			defer func() { <-sem }()

			nodes, err := e.requestMoreChildren(ctx, linkID, chunk, depth)
			if err != nil {
				e.cfg.Logger.Warn("extract: more children fetch failed", "error", err)
				return
			}
			mu.Lock()
			all = append(all, nodes...)
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()
	return all
}

// moreChildrenResponse mirrors the aggregator's "more children" envelope:
// {json: {data: {things: [...]}}}.
type moreChildrenResponse struct {
	JSON struct {
		Data struct {
			Things []json.RawMessage `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// requestMoreChildren resolves a batch of deferred comment IDs via a POST to
// the aggregator's "more children" endpoint, with the fields the API
// requires: api_type, link_id (the thread's t3_<id> fullname), children
// (csv), sort, limit_children, and depth.
func (e *SocialExtractor) requestMoreChildren(ctx context.Context, linkID string, ids []string, depth int) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("https://%s/api/morechildren.json", e.cfg.Hosts[0])
	return e.requestMoreChildrenAt(ctx, endpoint, linkID, ids, depth)
}

// requestMoreChildrenAt issues the "more children" POST against an explicit
// endpoint, split out from requestMoreChildren so tests can point it at an
// httptest server instead of a live aggregator host.
func (e *SocialExtractor) requestMoreChildrenAt(ctx context.Context, endpoint, linkID string, ids []string, depth int) ([]json.RawMessage, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("link_id", linkID)
	form.Set("children", strings.Join(ids, ","))
	form.Set("sort", "confidence")
	form.Set("limit_children", "false")
	form.Set("depth", fmt.Sprintf("%d", depth))

	body, err := e.postForm(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}

	var decoded moreChildrenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotParseContent, err)
	}
	return decoded.JSON.Data.Things, nil
}

// postForm issues the "more children" POST, applying the same 429/backoff
// retry policy as getJSON.
func (e *SocialExtractor) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetry; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", e.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			e.cfg.Logger.Warn("extract: social rate limited, retrying", "url", endpoint)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
			lastErr = fmt.Errorf("%w: http 429", ErrBadServerResponse)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: http %d", ErrBadServerResponse, resp.StatusCode)
			continue
		}

		body, err := horosafe.LimitedReadAll(resp.Body, 10*1024*1024)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCannotDecodeRaw, err)
		}
		return body, nil
	}
	return nil, lastErr
}

func chunkStrings(ids []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}

func decodeChildren(data json.RawMessage) []json.RawMessage {
	children, _ := jsonGetArray(data, "children")
	return children
}

func decodeRepliesChildren(repliesRaw json.RawMessage) []json.RawMessage {
	var asString string
	if err := json.Unmarshal(repliesRaw, &asString); err == nil {
		return nil // replies == "" means no replies
	}
	children, _ := jsonGetArray(repliesRaw, "data", "children")
	return children
}

func jsonField(raw json.RawMessage, keys ...string) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	cur := raw
	obj := m
	for i, k := range keys {
		v, ok := obj[k]
		if !ok {
			return nil
		}
		cur = v
		if i < len(keys)-1 {
			if err := json.Unmarshal(v, &obj); err != nil {
				return nil
			}
		}
	}
	return cur
}

func jsonGetString(raw json.RawMessage, key string) (string, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

func jsonGetNumber(raw json.RawMessage, key string) (float64, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return 0, false
	}
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, false
	}
	return n, true
}

func jsonGetBool(raw json.RawMessage, key string) (bool, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false, false
	}
	v, ok := m[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, false
	}
	return b, true
}

func jsonGetArray(raw json.RawMessage, keys ...string) ([]json.RawMessage, bool) {
	v := jsonField(raw, keys...)
	if v == nil {
		return nil, false
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(v, &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func jsonGetStringSlice(raw json.RawMessage, key string) ([]string, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil, false
	}
	return ids, true
}
