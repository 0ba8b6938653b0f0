package format

import "fmt"

// Kind classifies a record by its marker byte.
type Kind uint8

const (
	// KindUnknown is any record whose marker matches neither configured byte.
	KindUnknown Kind = iota
	// KindHeader records are never evaluated or modified.
	KindHeader
	// KindData records are evaluated against the rule set.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "HEADER"
	case KindData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// Settings are the run-wide record layout parameters. They are loaded once
// and never modified during a run.
type Settings struct {
	RecordSize   int  // Bytes per record
	HeaderMarker byte // Marker byte of header records
	DataMarker   byte // Marker byte of data records
}

// DefaultSettings returns the layout used when a configuration omits the
// settings block: 1300-byte records, header '1', data '2'.
func DefaultSettings() Settings {
	return Settings{
		RecordSize:   DefaultRecordSize,
		HeaderMarker: MarkerBase + DefaultHeaderDigit,
		DataMarker:   MarkerBase + DefaultDataDigit,
	}
}

// MarkerByte converts a configured marker digit into its marker byte.
func MarkerByte(digit int) (byte, error) {
	if digit < 0 || digit > MaxMarkerDigit {
		return 0, fmt.Errorf("%w: marker digit %d not in 0-%d", ErrInvalidSettings, digit, MaxMarkerDigit)
	}
	return byte(MarkerBase + digit), nil
}

// Validate checks that the settings describe a usable layout.
func (s Settings) Validate() error {
	if s.RecordSize <= 0 {
		return fmt.Errorf("%w: record size must be positive, got %d", ErrInvalidSettings, s.RecordSize)
	}
	if s.HeaderMarker == s.DataMarker {
		return fmt.Errorf("%w: header and data markers are both 0x%02X", ErrInvalidSettings, s.HeaderMarker)
	}
	return nil
}

// Classify inspects the record's marker byte.
func Classify(record []byte, s Settings) Kind {
	if len(record) <= MarkerOffset {
		return KindUnknown
	}
	switch record[MarkerOffset] {
	case s.HeaderMarker:
		return KindHeader
	case s.DataMarker:
		return KindData
	default:
		return KindUnknown
	}
}
