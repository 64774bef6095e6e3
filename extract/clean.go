package extract

import "regexp"
import "strings"

var wsRe = regexp.MustCompile(`\s+`)

// CleanText collapses all runs of whitespace to a single space and trims the
// result, the shared normalization step used after every extraction path
// (structural block, regex fallback, markdown conversion) so callers always
// see the same shape of text regardless of which path produced it.
func CleanText(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// SplitParagraphs splits on blank lines, dropping empty fragments. It mirrors
// chunk.splitParagraphs but lives here too since extraction needs it before
// chunking ever sees the text (e.g. to find the first "real" paragraph for a
// title/summary fallback).
func SplitParagraphs(s string) []string {
	parts := strings.Split(s, "\n\n")
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
