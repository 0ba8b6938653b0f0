package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColon indicates an entry without the offset:value separator.
	ErrMissingColon = errors.New("rules: missing ':' between offset and value")
	// ErrInvalidOffset indicates an offset that is not a positive integer.
	ErrInvalidOffset = errors.New("rules: offset must be a positive integer")
	// ErrEmptyValue indicates an entry with nothing after the colon.
	ErrEmptyValue = errors.New("rules: empty value")
	// ErrEmptyName indicates a rule section without a name.
	ErrEmptyName = errors.New("rules: empty rule name")
	// ErrDuplicateRule indicates a second rule with an already loaded name.
	ErrDuplicateRule = errors.New("rules: duplicate rule name")
)

// ConfigError reports a rule that was excluded from the rule set. It never
// aborts a load; the remaining rules are still usable.
type ConfigError struct {
	Rule  string // Rule name as declared
	Field string // "Name", "Conditions" or "Updates"
	Cause error  // Underlying parse or encode error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %q: %s: %v", e.Rule, e.Field, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
