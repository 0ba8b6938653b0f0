package engine

import (
	"bytes"

	"github.com/pigdbc/dat-conditional-updater/internal/buf"
	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

// Evaluate runs every rule of rs against record, mutating record in place.
//
// Rules are evaluated in declaration order and are independent of each
// other: every rule whose conditions all hold fires. Conditions compare raw
// bytes against the encoded expected value and stop at the first mismatch.
// A later rule sees the writes of earlier rules, and when two rules write
// overlapping bytes the later write wins.
//
// Evaluate does not classify the record and keeps no counters; see Engine.
// A nil dec selects the UTF-16BE codec.
func Evaluate(record []byte, rs *rules.RuleSet, dec Decoder) ([]Change, []string) {
	if dec == nil {
		dec = codec.Codec{}
	}
	loaded := rs.Rules()
	changes, fired := evaluate(record, loaded, dec)
	return changes, firedNames(loaded, fired)
}

// evaluate returns the changes and the indexes of the fired rules.
func evaluate(record []byte, rs []rules.Rule, dec Decoder) ([]Change, []int) {
	var (
		changes []Change
		fired   []int
		writes  []write
	)
	for i, rule := range rs {
		if !matches(record, rule.Conditions) {
			continue
		}
		for _, u := range rule.Updates {
			window, ok := buf.Slice(record, u.Start(), len(u.Encoded))
			if !ok {
				continue
			}
			old, clean := dec.Decode(window)
			region := Region{Start: u.Start(), End: u.End()}
			changes = append(changes, Change{
				Rule:       rule.Name,
				Offset:     u.Offset,
				Old:        old,
				New:        u.Value,
				Lossy:      !clean,
				Overwrites: lastOverlap(writes, rule.Name, region),
			})
			copy(window, u.Encoded)
			writes = append(writes, write{rule: rule.Name, region: region})
		}
		fired = append(fired, i)
	}
	return changes, fired
}

func firedNames(rs []rules.Rule, fired []int) []string {
	if len(fired) == 0 {
		return nil
	}
	names := make([]string, len(fired))
	for i, idx := range fired {
		names[i] = rs[idx].Name
	}
	return names
}

func matches(record []byte, conds []rules.Condition) bool {
	for _, c := range conds {
		window, ok := buf.Slice(record, c.Start(), len(c.Encoded))
		if !ok || !bytes.Equal(window, c.Encoded) {
			return false
		}
	}
	return true
}
