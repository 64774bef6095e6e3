package agent

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/deepresearch/idgen"
)

// transcriptWriter deposits one .md file per GetResponse call into
// Config.TranscriptDir, atomically (write .tmp then rename) so a reader
// never observes a partial file.
type transcriptWriter struct {
	dir   string
	newID func() string
}

func newTranscriptWriter(dir string) *transcriptWriter {
	return &transcriptWriter{dir: dir, newID: idgen.Prefixed("run_", idgen.Default)}
}

// transcriptFrontmatter is marshaled with yaml.v3 into the file's header
// block, the same way domwatch's config loader moves structs through YAML.
type transcriptFrontmatter struct {
	ID             string `yaml:"id"`
	Question       string `yaml:"question"`
	VisitedCount   int    `yaml:"visited_count"`
	CandidateCount int    `yaml:"candidate_count"`
	BadAttempts    int    `yaml:"bad_attempts"`
	TokenUsage     int    `yaml:"token_usage"`
	FinishedAt     string `yaml:"finished_at"`
}

// finish renders r's diary and run counters into a frontmatter-prefixed .md
// file and writes it to disk; the final answer is not part of it. Write failures are swallowed: transcript
// persistence is diagnostic, never load-bearing for GetResponse's result.
func (w *transcriptWriter) finish(r *run) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return
	}

	id := w.newID()
	target := filepath.Join(w.dir, id+".md")
	tmp := target + ".tmp"

	fm, err := yaml.Marshal(transcriptFrontmatter{
		ID:             id,
		Question:       r.question,
		VisitedCount:   len(r.visited.URLs()),
		CandidateCount: len(r.candidates.items),
		BadAttempts:    r.badAttempts,
		TokenUsage:     r.tokenUsage,
		FinishedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	var body strings.Builder
	body.WriteString("---\n")
	body.Write(fm)
	body.WriteString("---\n\n")
	body.WriteString("## Diary\n\n")
	body.WriteString(r.diary.String())

	if err := os.WriteFile(tmp, []byte(body.String()), 0o644); err != nil {
		return
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
	}
}
