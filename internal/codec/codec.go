// Package codec converts field values to and from their on-disk form:
// UTF-16 big-endian code units, two bytes per BMP character, with no
// byte-order mark.
//
// Encoding is used to build the raw bytes that conditions are compared
// against and updates write. Decoding is only ever used to render old
// values for the audit trail, so it never fails: malformed input is replaced
// with U+FFFD and reported through the second return value.
package codec

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	// BytesPerChar is the width of one UTF-16 code unit.
	BytesPerChar = 2

	// Replacement is substituted for undecodable code units.
	Replacement = "�"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// Codec is the UTF-16BE value codec. The zero value is ready to use.
type Codec struct{}

// Encode implements rules.Encoder.
func (Codec) Encode(text string) ([]byte, error) { return Encode(text) }

// Decode implements engine.Decoder.
func (Codec) Decode(b []byte) (string, bool) { return Decode(b) }

// Encode returns the UTF-16BE representation of text.
func Encode(text string) ([]byte, error) {
	if text == "" {
		return []byte{}, nil
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("codec: invalid UTF-8 in %q", text)
	}
	out, err := utf16be.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", text, err)
	}
	return out, nil
}

// EncodedLen returns the number of bytes Encode produces for valid text.
func EncodedLen(text string) int {
	n := 0
	for _, r := range text {
		units := utf16.RuneLen(r)
		if units < 1 {
			units = 1
		}
		n += units * BytesPerChar
	}
	return n
}

// Decode converts UTF-16BE bytes to a string. ok is false when any part of b
// could not be decoded and was replaced (odd trailing byte, unpaired
// surrogate).
func Decode(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", true
	}
	out, err := utf16be.NewDecoder().Bytes(b)
	if err != nil {
		return strings.Repeat(Replacement, (len(b)+1)/BytesPerChar), false
	}
	s := string(out)
	if len(b)%BytesPerChar != 0 {
		return s, false
	}
	// Lossless iff re-encoding reproduces the input.
	re, err := Encode(s)
	return s, err == nil && bytes.Equal(re, b)
}
