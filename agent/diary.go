package agent

import "time"

// DiaryEntry is one append-only event in a run's log, included verbatim in
// every subsequent prompt so the LLM has continuity across iterations.
type DiaryEntry struct {
	Timestamp time.Time
	Message   string
}

// Diary is a strictly time-ordered, append-only event log.
type Diary struct {
	entries []DiaryEntry
	now     func() time.Time
}

func newDiary() *Diary {
	return &Diary{now: time.Now}
}

// Log appends a timestamped entry.
func (d *Diary) Log(message string) {
	d.entries = append(d.entries, DiaryEntry{Timestamp: d.now().Local(), Message: message})
}

// Entries returns a snapshot of every entry recorded so far.
func (d *Diary) Entries() []DiaryEntry {
	return append([]DiaryEntry(nil), d.entries...)
}

// String renders the diary for inclusion in a prompt.
func (d *Diary) String() string {
	var s string
	for _, e := range d.entries {
		s += e.Timestamp.Format("15:04:05") + " " + e.Message + "\n"
	}
	return s
}
