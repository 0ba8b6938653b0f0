package rules

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// EntrySeparator separates offset:value entries.
	EntrySeparator = ","
	// PairSeparator separates an offset from its value.
	PairSeparator = ":"
)

// FieldSpec is one parsed offset:value entry before encoding.
type FieldSpec struct {
	Offset int    // 1-based byte position
	Value  string // Verbatim text after the first colon
}

// Field addresses a byte window inside a record. The window starts at
// Offset-1 and spans len(Encoded) bytes.
type Field struct {
	Offset  int    // 1-based byte position
	Value   string // Configured text
	Encoded []byte // On-disk representation of Value
}

// Start returns the zero-based index of the first byte of the window.
func (f Field) Start() int { return f.Offset - 1 }

// End returns the exclusive zero-based end of the window.
func (f Field) End() int { return f.Start() + len(f.Encoded) }

func (f Field) String() string {
	return fmt.Sprintf("Byte%d='%s'", f.Offset, f.Value)
}

// Condition must hold (byte-for-byte) for its rule to fire.
type Condition struct{ Field }

// Update is written when its rule fires.
type Update struct{ Field }

// ParseFields parses a comma-separated list of offset:value entries. Blank
// entries are ignored, so an empty string yields no fields. Values may not
// contain commas.
func ParseFields(s string) ([]FieldSpec, error) {
	var specs []FieldSpec
	for _, item := range strings.Split(s, EntrySeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		spec, err := parseField(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseField(item string) (FieldSpec, error) {
	rawOffset, value, found := strings.Cut(item, PairSeparator)
	if !found {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrMissingColon, item)
	}
	offset, err := strconv.Atoi(strings.TrimSpace(rawOffset))
	if err != nil || offset < 1 {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrInvalidOffset, item)
	}
	if value == "" {
		return FieldSpec{}, fmt.Errorf("%w: %q", ErrEmptyValue, item)
	}
	return FieldSpec{Offset: offset, Value: value}, nil
}
