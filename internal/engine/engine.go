// Package engine applies a rule set to fixed-size records.
//
// An Engine classifies each record by its marker byte, evaluates data
// records against every rule, writes the updates of fully matched rules in
// place and counts how many records each rule fired on.
//
// NOT thread-safe. One Engine belongs to one sequential run.
package engine

import (
	"fmt"

	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

// Engine evaluates records for one run.
type Engine struct {
	settings format.Settings
	rules    []rules.Rule
	dec      Decoder
	hits     []int // Parallel to rules
}

// New validates the settings and every rule window against the record size.
// Both failures are FatalErrors. A nil dec selects the UTF-16BE codec.
func New(settings format.Settings, rs *rules.RuleSet, dec Decoder) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, format.Fatal("settings", "invalid record layout", err)
	}
	if err := rs.CheckBounds(settings.RecordSize); err != nil {
		return nil, err
	}
	if dec == nil {
		dec = codec.Codec{}
	}
	loaded := rs.Rules()
	return &Engine{
		settings: settings,
		rules:    loaded,
		dec:      dec,
		hits:     make([]int, len(loaded)),
	}, nil
}

// Settings returns the layout the engine was built for.
func (e *Engine) Settings() format.Settings {
	return e.settings
}

// Process classifies record and, for data records, evaluates the rule set
// against it in place. Header and unknown records are never modified.
func (e *Engine) Process(record []byte) (Outcome, error) {
	if len(record) != e.settings.RecordSize {
		return Outcome{}, fmt.Errorf("%w: got %d bytes, want %d", format.ErrRecordSize, len(record), e.settings.RecordSize)
	}
	out := Outcome{
		Kind:   format.Classify(record, e.settings),
		Marker: record[format.MarkerOffset],
	}
	if out.Kind != format.KindData {
		return out, nil
	}

	changes, fired := evaluate(record, e.rules, e.dec)
	for _, i := range fired {
		e.hits[i]++
	}
	out.Changes = changes
	out.Fired = firedNames(e.rules, fired)
	return out, nil
}

// Hits returns every rule's hit counter in declaration order.
func (e *Engine) Hits() []RuleHits {
	out := make([]RuleHits, len(e.rules))
	for i, r := range e.rules {
		out[i] = RuleHits{Rule: r.Name, Hits: e.hits[i]}
	}
	return out
}

// Hit returns the hit counter of a single rule.
func (e *Engine) Hit(name string) int {
	for i, r := range e.rules {
		if r.Name == name {
			return e.hits[i]
		}
	}
	return 0
}
