package idx

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrReadUnaccepted is returned when the reader ends before the header or all the elements were read.
	ErrReadUnaccepted = errors.New("reader no longer providing bytes")

	// ErrWriteUnaccepted is returned when the writer stops accepting bytes before everything was written.
	ErrWriteUnaccepted = errors.New("writer no longer accepting bytes")
)

// MismatchDTypeIDsError is returned when the dtype id in the header is not the one expected.
// Expected is 0 if any known dtype was accepted.
type MismatchDTypeIDsError struct {
	Expected, Actual uint8
}

func (e *MismatchDTypeIDsError) Error() string {
	if e.Expected == 0 {
		return fmt.Sprintf("unknown dtype ID: 0x%02X", e.Actual)
	}
	return fmt.Sprintf("expected dtype ID: 0x%02X, found ID: 0x%02X", e.Expected, e.Actual)
}

// MismatchNDimsError is returned when the rank in the header is not the one expected.
type MismatchNDimsError struct {
	Expected, Actual uint8
}

func (e *MismatchNDimsError) Error() string {
	return fmt.Sprintf("expected %d dims, found %d", e.Expected, e.Actual)
}

// IOError wraps a failure of the underlying reader or writer. Op is "read" or "write".
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("idx %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *IOError) Unwrap() error { return e.Err }
