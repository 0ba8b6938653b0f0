package engine

import "github.com/pigdbc/dat-conditional-updater/internal/format"

// Decoder renders the bytes of a field window as text for the audit trail.
// ok is false when the bytes could not be decoded cleanly.
type Decoder interface {
	Decode(b []byte) (text string, ok bool)
}

// Change records one update applied to a record.
type Change struct {
	Rule       string `json:"rule"`
	Offset     int    `json:"offset"` // 1-based byte position
	Old        string `json:"old"`    // Decoded value before the write
	New        string `json:"new"`
	Lossy      bool   `json:"lossy,omitempty"`      // Old contains replacement characters
	Overwrites string `json:"overwrites,omitempty"` // Earlier rule whose write this one overlaps
}

// Outcome is the result of processing one record.
type Outcome struct {
	Kind    format.Kind
	Marker  byte
	Changes []Change
	Fired   []string // Names of fully matched rules, in declaration order
}

// Modified reports whether any rule fired on the record.
func (o Outcome) Modified() bool {
	return len(o.Fired) > 0
}

// RuleHits is a rule's hit counter.
type RuleHits struct {
	Rule string `json:"rule"`
	Hits int    `json:"hits"`
}
