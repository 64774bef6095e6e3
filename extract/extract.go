// Package extract implements content extraction: converting a URL's raw
// response into clean body text. It ships a generic web extractor (HTML
// parse, boilerplate strip, article/main/body preference) and a
// site-specific extractor for a social-link aggregator API, dispatched by
// an extractor factory keyed on the resolved host.
package extract

import (
	"context"
	"errors"
)

// Extractor converts a URL into clean body text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Sentinel errors, matching the ContentExtractor contract in spec §6.
var (
	ErrBadServerResponse  = errors.New("extract: bad server response")
	ErrCannotDecodeRaw    = errors.New("extract: cannot decode raw data")
	ErrCannotParseContent = errors.New("extract: cannot parse response")
)
