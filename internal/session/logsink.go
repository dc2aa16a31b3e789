package session

import (
	"time"

	"github.com/ytleenf/ytclient/internal/engine/types"
)

// Severity classifies a user-facing log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one line in the user-facing log.
type LogEntry struct {
	Time     time.Time
	Message  string
	Severity Severity
}

// LogSink is a bounded append-only log. The oldest entry is evicted once
// the limit is reached. It is owned by the client loop and not safe for
// concurrent use.
type LogSink struct {
	entries  []LogEntry
	limit    int
	follow   bool
	now      func() time.Time
	onAppend func(LogEntry)
}

// NewLogSink creates a sink holding at most limit entries.
func NewLogSink(limit int, follow bool) *LogSink {
	if limit <= 0 {
		limit = types.LogLimit
	}
	return &LogSink{
		entries: make([]LogEntry, 0, limit),
		limit:   limit,
		follow:  follow,
		now:     time.Now,
	}
}

func (s *LogSink) Append(sev Severity, msg string) {
	e := LogEntry{Time: s.now(), Message: msg, Severity: sev}
	if len(s.entries) == s.limit {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:s.limit-1]
	}
	s.entries = append(s.entries, e)
	if s.onAppend != nil {
		s.onAppend(e)
	}
}

func (s *LogSink) Info(msg string)    { s.Append(SeverityInfo, msg) }
func (s *LogSink) Success(msg string) { s.Append(SeveritySuccess, msg) }
func (s *LogSink) Warn(msg string)    { s.Append(SeverityWarning, msg) }
func (s *LogSink) Error(msg string)   { s.Append(SeverityError, msg) }

// Entries returns a copy of the retained entries, oldest first.
func (s *LogSink) Entries() []LogEntry {
	return append([]LogEntry(nil), s.entries...)
}

func (s *LogSink) Len() int {
	return len(s.entries)
}

func (s *LogSink) Clear() {
	s.entries = s.entries[:0]
}

// Follow reports whether renderers should keep the newest entry in view.
func (s *LogSink) Follow() bool {
	return s.follow
}

func (s *LogSink) SetFollow(on bool) {
	s.follow = on
}
