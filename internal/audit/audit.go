// Package audit accumulates the human-readable trail of a run: a
// configuration echo, one entry per record and a closing summary.
//
// The log lives in memory until Flush, which may be called once. A run that
// aborts never reaches Flush, so no audit document is produced for it.
package audit

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/pigdbc/dat-conditional-updater/internal/engine"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

// ErrFlushed is returned by a second Flush.
var ErrFlushed = errors.New("audit: log already flushed")

// Status is the audit classification of one record.
type Status int

const (
	StatusUnmodified Status = iota // Data record, no rule fired
	StatusUpdated                  // Data record, at least one rule fired
	StatusHeader                   // Header record, skipped
	StatusUnknown                  // Unrecognised marker, skipped
)

func (s Status) String() string {
	switch s {
	case StatusUnmodified:
		return "UNMODIFIED"
	case StatusUpdated:
		return "UPDATED"
	case StatusHeader:
		return "HEADER"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// Entry is the audit record of one input record.
type Entry struct {
	Index   int // Zero-based record index
	Status  Status
	Marker  byte
	Changes []engine.Change
}

// Warnings returns the number of changes whose old value was undecodable.
func (e Entry) Warnings() int {
	n := 0
	for _, c := range e.Changes {
		if c.Lossy {
			n++
		}
	}
	return n
}

// Preamble is the configuration echoed at the top of the audit document.
type Preamble struct {
	RunID        string
	Started      time.Time
	ConfigPath   string
	InputPath    string
	OutputPath   string
	InputSize    int64 // -1 when unknown
	DryRun       bool
	Settings     format.Settings
	Rules        []rules.Rule
	ConfigErrors []*rules.ConfigError
}

// Summary totals a run. Header and unknown records are excluded from the
// data-record denominator.
type Summary struct {
	Records        int               `json:"records"`
	DataRecords    int               `json:"data_records"`
	Updated        int               `json:"updated"`
	Headers        int               `json:"headers"`
	Unknown        int               `json:"unknown"`
	Changes        int               `json:"changes"`
	DecodeWarnings int               `json:"decode_warnings"`
	Hits           []engine.RuleHits `json:"rule_hits"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d data records evaluated, %d/%d updated",
		s.DataRecords, s.DataRecords, s.Updated, s.DataRecords)
}

// Log is the in-memory audit trail of one run. NOT thread-safe.
type Log struct {
	pre     Preamble
	entries []Entry
	flushed bool
}

// New starts an audit log. A missing run id or start time is filled in.
func New(pre Preamble) *Log {
	if pre.RunID == "" {
		pre.RunID = ksuid.New().String()
	}
	if pre.Started.IsZero() {
		pre.Started = time.Now()
	}
	return &Log{pre: pre}
}

// Preamble returns the configuration echo.
func (l *Log) Preamble() Preamble { return l.pre }

// Record appends the outcome of record index.
func (l *Log) Record(index int, o engine.Outcome) Entry {
	e := Entry{Index: index, Marker: o.Marker, Changes: o.Changes}
	switch {
	case o.Kind == format.KindHeader:
		e.Status = StatusHeader
	case o.Kind == format.KindUnknown:
		e.Status = StatusUnknown
	case o.Modified():
		e.Status = StatusUpdated
	default:
		e.Status = StatusUnmodified
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns the recorded entries in input order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Summary totals the entries and attaches the rule hit counters.
func (l *Log) Summary(hits []engine.RuleHits) Summary {
	s := Summary{Records: len(l.entries), Hits: hits}
	for _, e := range l.entries {
		switch e.Status {
		case StatusHeader:
			s.Headers++
		case StatusUnknown:
			s.Unknown++
		case StatusUpdated:
			s.DataRecords++
			s.Updated++
		case StatusUnmodified:
			s.DataRecords++
		}
		s.Changes += len(e.Changes)
		s.DecodeWarnings += e.Warnings()
	}
	return s
}

// Flush writes the rendered document to w. It may be called only once;
// later calls return ErrFlushed without writing.
func (l *Log) Flush(w io.Writer, hits []engine.RuleHits) error {
	if l.flushed {
		return ErrFlushed
	}
	l.flushed = true
	if _, err := io.WriteString(w, l.Render(hits)); err != nil {
		return fmt.Errorf("audit: flush: %w", err)
	}
	return nil
}

// Flushed reports whether Flush has been called.
func (l *Log) Flushed() bool { return l.flushed }
