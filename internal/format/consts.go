// Package format describes the on-disk layout of a fixed-width record file:
// the run-wide Settings, the marker byte that classifies every record, and
// the error taxonomy shared by the readers, writers and rule machinery.
package format

const (
	// MarkerOffset is the position of the classification byte in every record.
	MarkerOffset = 0

	// MarkerBase is added to a configured marker digit to form the marker
	// byte, so digit 1 becomes ASCII '1' (0x31).
	MarkerBase = 0x30

	// MaxMarkerDigit is the largest digit accepted for a marker.
	MaxMarkerDigit = 9

	// DefaultRecordSize is used when a configuration omits RecordSize.
	DefaultRecordSize = 1300

	// DefaultHeaderDigit and DefaultDataDigit are used when a configuration
	// omits the marker digits.
	DefaultHeaderDigit = 1
	DefaultDataDigit   = 2
)
