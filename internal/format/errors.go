package format

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the input ended inside a record.
	ErrTruncated = errors.New("format: truncated record")
	// ErrWindowOutOfRange indicates a condition or update addresses bytes
	// outside the record.
	ErrWindowOutOfRange = errors.New("format: field window outside record")
	// ErrInvalidSettings indicates the record size or marker bytes are unusable.
	ErrInvalidSettings = errors.New("format: invalid settings")
	// ErrRecordSize indicates a record buffer of the wrong length was supplied.
	ErrRecordSize = errors.New("format: record size mismatch")
)

// FatalError aborts a run. Records already written to the output stay
// written; callers must discard a partially written output.
type FatalError struct {
	Op      string // "read", "write", "settings", "bounds", "config", ...
	Record  int    // Zero-based record index, -1 when not tied to a record
	Offset  int64  // Byte offset in the stream or record, -1 when unknown
	Message string // Human-readable error message
	Cause   error  // Underlying error, if any
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	where := ""
	if e.Record >= 0 {
		where = fmt.Sprintf(" at record #%d", e.Record+1)
	}
	if e.Offset >= 0 {
		where += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed%s: %s: %v", e.Op, where, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed%s: %s", e.Op, where, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// Fatal builds a FatalError that is not tied to a record or offset.
func Fatal(op, message string, cause error) *FatalError {
	return &FatalError{Op: op, Record: -1, Offset: -1, Message: message, Cause: cause}
}

// IsFatal reports whether err, or any error it wraps, is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
