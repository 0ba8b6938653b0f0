package rules

import "strings"

// Rule is a named conjunction of conditions paired with the updates applied
// when every condition holds.
type Rule struct {
	Name       string
	Conditions []Condition
	Updates    []Update
}

// Describe renders the rule as "IF cond AND cond THEN SET upd, upd".
func (r Rule) Describe() string {
	conds := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = c.String()
	}
	upds := make([]string, len(r.Updates))
	for i, u := range r.Updates {
		upds[i] = u.String()
	}
	return "IF " + strings.Join(conds, " AND ") + " THEN SET " + strings.Join(upds, ", ")
}
