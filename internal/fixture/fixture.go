// Package fixture builds record files for tests and for the datctl fixture
// command.
package fixture

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
)

// ReferenceRecords is the number of records in the reference file.
const ReferenceRecords = 5

// MinReferenceSize is the smallest record size that holds every field the
// reference file writes (Byte300, two characters).
const MinReferenceSize = 303

// ErrRecordTooSmall is returned when fields do not fit the record size.
var ErrRecordTooSmall = errors.New("fixture: record size too small")

// Placement writes a value at a 1-based offset.
type Placement struct {
	Offset int
	Value  string
}

// Reference builds the canonical 5-record file:
//
//	#0 header
//	#1, #2 Byte50='02', Byte78='534', Byte70='000'
//	#3 Byte234='99', Byte300='00'
//	#4 data, no fields
//
// With the Rule-1/Rule-2 configuration records #1 and #2 match Rule-1 and
// record #3 matches Rule-2.
func Reference(s format.Settings) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.RecordSize < MinReferenceSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrRecordTooSmall, s.RecordSize, MinReferenceSize)
	}

	rule1 := []Placement{{50, "02"}, {78, "534"}, {70, "000"}}
	rule2 := []Placement{{234, "99"}, {300, "00"}}

	out := make([]byte, 0, ReferenceRecords*s.RecordSize)
	for i := range ReferenceRecords {
		var rec []byte
		var err error
		switch i {
		case 0:
			rec = NewRecord(s.RecordSize, s.HeaderMarker)
		case 1, 2:
			rec, err = Data(s, rule1...)
		case 3:
			rec, err = Data(s, rule2...)
		default:
			rec = NewRecord(s.RecordSize, s.DataMarker)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec...)
	}
	return out, nil
}

// NewRecord returns a zero-filled record carrying marker.
func NewRecord(size int, marker byte) []byte {
	rec := make([]byte, size)
	if size > format.MarkerOffset {
		rec[format.MarkerOffset] = marker
	}
	return rec
}

// Data returns a data record with the given fields encoded as UTF-16BE.
func Data(s format.Settings, fields ...Placement) ([]byte, error) {
	rec := NewRecord(s.RecordSize, s.DataMarker)
	if err := Place(rec, fields...); err != nil {
		return nil, err
	}
	return rec, nil
}

// Place encodes each field into rec at its 1-based offset.
func Place(rec []byte, fields ...Placement) error {
	for _, f := range fields {
		enc, err := codec.Encode(f.Value)
		if err != nil {
			return err
		}
		start := f.Offset - 1
		if start < 0 || start+len(enc) > len(rec) {
			return fmt.Errorf("%w: Byte%d='%s' needs %d bytes, record has %d",
				ErrRecordTooSmall, f.Offset, f.Value, start+len(enc), len(rec))
		}
		copy(rec[start:], enc)
	}
	return nil
}

// Profile defines characteristics for generated record files.
type Profile struct {
	// Records is the total record count including the header.
	// 0 = use default (100)
	Records int

	// Settings selects the record size and markers.
	// Zero value = format.DefaultSettings()
	Settings format.Settings

	// MatchPct is the share of data records that receive the Plant fields.
	MatchPct float64

	// UnknownPct is the share of records given an unrecognised marker.
	UnknownPct float64

	// Plant is written into matching records. Defaults to the Rule-1 trigger.
	Plant []Placement

	// Seed for reproducibility (0 = random)
	Seed uint64
}

// Random generates a record file with the specified profile. The first
// record is always a header; data records are filled with random ASCII
// digits encoded as UTF-16BE.
func Random(p Profile) ([]byte, error) {
	if p.Records == 0 {
		p.Records = 100
	}
	if p.Records < 0 {
		return nil, fmt.Errorf("fixture: negative record count %d", p.Records)
	}
	if p.Settings == (format.Settings{}) {
		p.Settings = format.DefaultSettings()
	}
	if err := p.Settings.Validate(); err != nil {
		return nil, err
	}
	if p.Plant == nil {
		p.Plant = []Placement{{50, "02"}, {78, "534"}, {70, "000"}}
	}
	seed := p.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	size := p.Settings.RecordSize
	out := make([]byte, 0, p.Records*size)
	for i := range p.Records {
		if i == 0 {
			out = append(out, NewRecord(size, p.Settings.HeaderMarker)...)
			continue
		}
		if rng.Float64() < p.UnknownPct {
			out = append(out, NewRecord(size, unknownMarker(p.Settings, rng))...)
			continue
		}
		rec := NewRecord(size, p.Settings.DataMarker)
		fillDigits(rec, rng)
		if rng.Float64() < p.MatchPct {
			if err := Place(rec, p.Plant...); err != nil {
				return nil, err
			}
		}
		out = append(out, rec...)
	}
	return out, nil
}

// fillDigits writes UTF-16BE ASCII digits after the marker, keeping
// code units aligned on odd offsets like real field data.
func fillDigits(rec []byte, rng *rand.Rand) {
	for i := format.MarkerOffset + 1; i+1 < len(rec); i += codec.BytesPerChar {
		rec[i] = 0x00
		rec[i+1] = byte('0' + rng.IntN(10))
	}
}

func unknownMarker(s format.Settings, rng *rand.Rand) byte {
	for {
		b := byte('A' + rng.IntN(26))
		if b != s.HeaderMarker && b != s.DataMarker {
			return b
		}
	}
}
