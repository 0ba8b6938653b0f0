// Package rules turns raw rule definitions into an ordered, immutable rule
// set whose condition and update values are already encoded to their
// on-disk form.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pigdbc/dat-conditional-updater/internal/buf"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
)

// Definition is a rule section as read from configuration, before parsing.
type Definition struct {
	Name       string
	Conditions string
	Updates    string
}

// Encoder produces the on-disk bytes of a configured value.
type Encoder interface {
	Encode(text string) ([]byte, error)
}

// RuleSet is an ordered collection of rules. It is not modified after Load.
type RuleSet struct {
	rules []Rule
	index map[string]int
}

// Load parses defs in declaration order. A definition with a malformed entry,
// an empty name or a name already loaded is excluded and reported as a
// ConfigError. A definition that parses to no conditions or no updates is
// excluded silently.
func Load(defs []Definition, enc Encoder) (*RuleSet, []*ConfigError) {
	rs := &RuleSet{index: make(map[string]int, len(defs))}
	var cfgErrs []*ConfigError

	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			cfgErrs = append(cfgErrs, &ConfigError{Rule: def.Name, Field: "Name", Cause: ErrEmptyName})
			continue
		}
		if _, dup := rs.index[name]; dup {
			cfgErrs = append(cfgErrs, &ConfigError{Rule: name, Field: "Name", Cause: ErrDuplicateRule})
			continue
		}

		condFields, err := buildFields(def.Conditions, enc)
		if err != nil {
			cfgErrs = append(cfgErrs, &ConfigError{Rule: name, Field: "Conditions", Cause: err})
			continue
		}
		updFields, err := buildFields(def.Updates, enc)
		if err != nil {
			cfgErrs = append(cfgErrs, &ConfigError{Rule: name, Field: "Updates", Cause: err})
			continue
		}
		if len(condFields) == 0 || len(updFields) == 0 {
			continue
		}

		rule := Rule{
			Name:       name,
			Conditions: make([]Condition, len(condFields)),
			Updates:    make([]Update, len(updFields)),
		}
		for i, f := range condFields {
			rule.Conditions[i] = Condition{f}
		}
		for i, f := range updFields {
			rule.Updates[i] = Update{f}
		}
		rs.index[name] = len(rs.rules)
		rs.rules = append(rs.rules, rule)
	}

	return rs, cfgErrs
}

func buildFields(s string, enc Encoder) ([]Field, error) {
	specs, err := ParseFields(s)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(specs))
	for _, spec := range specs {
		encoded, err := enc.Encode(spec.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Offset: spec.Offset, Value: spec.Value, Encoded: encoded})
	}
	return fields, nil
}

// Rules returns the rules in declaration order.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.rules)
}

// Len returns the number of loaded rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Names returns the rule names in declaration order.
func (rs *RuleSet) Names() []string {
	if rs == nil {
		return nil
	}
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.Name
	}
	return names
}

// Get returns the rule with the given name.
func (rs *RuleSet) Get(name string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	i, ok := rs.index[name]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[i], true
}

// CheckBounds verifies that every condition and update window lies inside a
// record of recordSize bytes. A violation is a FatalError wrapping
// format.ErrWindowOutOfRange.
func (rs *RuleSet) CheckBounds(recordSize int) error {
	if rs == nil {
		return nil
	}
	for _, r := range rs.rules {
		for _, c := range r.Conditions {
			if err := checkField(r.Name, "condition", c.Field, recordSize); err != nil {
				return err
			}
		}
		for _, u := range r.Updates {
			if err := checkField(r.Name, "update", u.Field, recordSize); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkField(rule, role string, f Field, recordSize int) error {
	if _, err := buf.CheckWindow(recordSize, f.Start(), len(f.Encoded)); err != nil {
		return &format.FatalError{
			Op:     "bounds",
			Record: -1,
			Offset: int64(f.Start()),
			Message: fmt.Sprintf("rule %q %s %s spans bytes [%d,%d) of a %d-byte record (%v)",
				rule, role, f, f.Start(), f.End(), recordSize, err),
			Cause: format.ErrWindowOutOfRange,
		}
	}
	return nil
}
