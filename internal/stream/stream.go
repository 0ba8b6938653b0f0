// Package stream reads and writes fixed-size records sequentially. Each
// record read from the input is written to the output at the same index, so
// the output always has the same record count and length as the input.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/pigdbc/dat-conditional-updater/internal/format"
)

// CountRecords returns byteLen / recordSize. A remainder means the final
// record is truncated, which is a FatalError wrapping format.ErrTruncated.
func CountRecords(byteLen int64, recordSize int) (int, error) {
	if recordSize <= 0 {
		return 0, format.Fatal("count", fmt.Sprintf("record size %d", recordSize), format.ErrInvalidSettings)
	}
	if byteLen < 0 {
		return 0, format.Fatal("count", fmt.Sprintf("negative input length %d", byteLen), nil)
	}
	size := int64(recordSize)
	count := byteLen / size
	if rem := byteLen % size; rem != 0 {
		return int(count), &format.FatalError{
			Op:      "count",
			Record:  int(count),
			Offset:  count * size,
			Message: fmt.Sprintf("input is %d bytes, %d bytes past the last whole %d-byte record", byteLen, rem, recordSize),
			Cause:   format.ErrTruncated,
		}
	}
	return int(count), nil
}

// Reader yields fixed-size records from an io.Reader.
type Reader struct {
	r     io.Reader
	size  int
	index int   // Records returned so far
	off   int64 // Bytes consumed so far
}

// NewReader creates a record reader. recordSize must be positive.
func NewReader(r io.Reader, recordSize int) *Reader {
	return &Reader{r: r, size: recordSize}
}

// Next reads the next record into a freshly allocated buffer. ok is false at
// a clean end of stream. A partial trailing record is a FatalError wrapping
// format.ErrTruncated.
func (r *Reader) Next() (record []byte, ok bool, err error) {
	if r.size <= 0 {
		return nil, false, format.Fatal("read", fmt.Sprintf("record size %d", r.size), format.ErrInvalidSettings)
	}
	rec := make([]byte, r.size)
	n, err := io.ReadFull(r.r, rec)
	switch {
	case err == nil:
		r.index++
		r.off += int64(n)
		return rec, true, nil
	case errors.Is(err, io.EOF):
		return nil, false, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, false, &format.FatalError{
			Op:      "read",
			Record:  r.index,
			Offset:  r.off,
			Message: fmt.Sprintf("trailing record has %d of %d bytes", n, r.size),
			Cause:   format.ErrTruncated,
		}
	default:
		return nil, false, &format.FatalError{
			Op:      "read",
			Record:  r.index,
			Offset:  r.off,
			Message: "reading input",
			Cause:   err,
		}
	}
}

// Count returns the number of records returned so far.
func (r *Reader) Count() int { return r.index }

// Writer appends fixed-size records to an io.Writer.
type Writer struct {
	w     io.Writer
	size  int
	count int
}

// NewWriter creates a record writer.
func NewWriter(w io.Writer, recordSize int) *Writer {
	return &Writer{w: w, size: recordSize}
}

// Write appends exactly one record. Records of the wrong length are rejected
// before anything is written.
func (w *Writer) Write(record []byte) error {
	if len(record) != w.size {
		return &format.FatalError{
			Op:      "write",
			Record:  w.count,
			Offset:  int64(w.count) * int64(w.size),
			Message: fmt.Sprintf("record is %d bytes, want %d", len(record), w.size),
			Cause:   format.ErrRecordSize,
		}
	}
	n, err := w.w.Write(record)
	if err == nil && n != len(record) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &format.FatalError{
			Op:      "write",
			Record:  w.count,
			Offset:  int64(w.count) * int64(w.size),
			Message: "writing output",
			Cause:   err,
		}
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }

// Bytes returns the number of bytes written.
func (w *Writer) Bytes() int64 { return int64(w.count) * int64(w.size) }
