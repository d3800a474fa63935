package geom

import (
	"errors"
	"fmt"
)

// Failure classes of the binary formats. A *FormatError unwraps to exactly
// one of these, so callers can branch with errors.Is.
var (
	ErrHeaderTooShort         = errors.New("header too short")
	ErrLengthMismatch         = errors.New("length mismatch")
	ErrPointDataIncomplete    = errors.New("point data corrupted")
	ErrTriangleHeaderMissing  = errors.New("triangle header missing")
	ErrTriangleDataIncomplete = errors.New("triangle data incomplete")
	ErrTrailingBytes          = errors.New("excess bytes")
	ErrUnrepresentable        = errors.New("value not representable")
)

// FormatError reports malformed, truncated, over-long or unrepresentable
// input to one of the codecs. The input is never partially used.
type FormatError struct {
	// Op names the codec operation, e.g. "decode mesh".
	Op string
	// Kind is one of the Err* sentinels above.
	Kind error
	// Index is the offending point or triangle index, or -1.
	Index int
	// Expected and Actual are byte counts where a size was checked, else 0.
	Expected int
	Actual   int
	// Detail is a human-readable description of the offending field.
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
}

func (e *FormatError) Unwrap() error { return e.Kind }

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// InternalError wraps an unexpected failure (arithmetic, allocation, a
// recovered panic). It is surfaced as-is rather than masked as bad input.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Recovered converts a value obtained from recover() into an *InternalError.
// It returns nil when r is nil.
func Recovered(op string, r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return &InternalError{Op: op, Err: err}
	}
	return &InternalError{Op: op, Err: fmt.Errorf("%v", r)}
}
