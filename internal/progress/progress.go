// Package progress holds the import job's status snapshot for pollers.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is the best-effort status of the current or last job.
type Snapshot struct {
	Started    bool   `json:"started,omitempty"`
	Finished   bool   `json:"finished"`
	Navigating bool   `json:"navigating"`
	Resumed    bool   `json:"resumed,omitempty"`
	Saved      bool   `json:"saved,omitempty"`
	Index      *int   `json:"index,omitempty"`
	IndexDone  *int   `json:"indexDone,omitempty"`
	Total      *int   `json:"total,omitempty"`
	NotStarted int    `json:"notStarted,omitempty"`
	Error      string `json:"error,omitempty"`
	Target     string `json:"target,omitempty"`
	Message    string `json:"message,omitempty"`
	At         int64  `json:"at"`
}

// Int returns a pointer to v, for the optional counters.
func Int(v int) *int { return &v }

// Reporter tracks the latest snapshot. Safe for concurrent use.
type Reporter struct {
	mu        sync.RWMutex
	snap      Snapshot
	now       func() time.Time
	observers []func(Snapshot)
}

// NewReporter returns a reporter with an empty, unfinished snapshot.
func NewReporter() *Reporter {
	return &Reporter{now: time.Now}
}

// SetClock replaces the time source.
func (r *Reporter) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Observe registers fn to receive every new snapshot.
func (r *Reporter) Observe(fn func(Snapshot)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current status.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.snap
	if s.At == 0 {
		s.At = r.now().UnixMilli()
	}
	return s
}

// Update merges changes into the snapshot and stamps it.
func (r *Reporter) Update(change func(*Snapshot)) {
	r.mu.Lock()
	change(&r.snap)
	r.snap.At = r.now().UnixMilli()
	s, obs := r.snap, r.observers
	r.mu.Unlock()
	for _, fn := range obs {
		fn(s)
	}
}

// Reset replaces the snapshot wholesale.
func (r *Reporter) Reset(s Snapshot) {
	r.Update(func(cur *Snapshot) { *cur = s })
}

// Progress records done of total with an optional note.
func (r *Reporter) Progress(done, total int, note string) {
	r.Update(func(s *Snapshot) { s.Message = ProgressText(done, total, note) })
}

// ProgressText renders the progress line, clamping done into [0, total].
func ProgressText(done, total int, note string) string {
	if total < 0 {
		total = 0
	}
	done = max(0, min(done, max(total, 1)))
	if total == 0 {
		done = 0
	}
	text := fmt.Sprintf("Added %d of %d events", done, total)
	if note != "" {
		text += " — " + note
	}
	return text
}

// FinalText is the closing line for a drained job. Rows that never got a
// create form are counted separately.
func FinalText(total, notStarted int) string {
	if notStarted <= 0 {
		return fmt.Sprintf("All events added: %d/%d", total, total)
	}
	return fmt.Sprintf("Events added: %d/%d (%d not started)", max(total-notStarted, 0), total, notStarted)
}
