package hoststr

import (
	"errors"
	"fmt"

	"github.com/pyembed/hoststr/internal/cpython"
	"github.com/pyembed/hoststr/internal/linmem"
	"github.com/pyembed/hoststr/pkg/hoststr/sandbox"
)

var (
	// ErrInvalidHostString indicates a host string that cannot be used as
	// given, chiefly one with an embedded NUL where a NUL-terminated buffer is
	// required.
	ErrInvalidHostString = errors.New("hoststr: invalid host string")

	// ErrRuntimeDecode indicates that the runtime's locale decode primitive
	// failed, usually because its locale subsystem is not initialized.
	ErrRuntimeDecode = errors.New("hoststr: runtime locale decode failed")

	// ErrAllocation indicates that the runtime could not allocate memory.
	ErrAllocation = errors.New("hoststr: runtime allocation failed")

	// ErrModelMismatch indicates a host string of the wrong unit model for
	// the codec.
	ErrModelMismatch = errors.New("hoststr: host string model does not match codec")

	// ErrNotInvertible indicates a runtime without inverse conversions.
	ErrNotInvertible = errors.New("hoststr: runtime cannot convert objects back to host strings")

	// ErrBridgeClosed indicates use of a closed Bridge.
	ErrBridgeClosed = errors.New("hoststr: bridge closed")

	// ErrNotBuilt indicates that the CPython backend was not compiled in.
	ErrNotBuilt = errors.New("hoststr: cpython backend not built")

	// ErrUnknownBackend indicates an unrecognised backend name.
	ErrUnknownBackend = errors.New("hoststr: unknown backend")
)

// Error wraps an underlying error with the failing operation. Offset is the
// position of the offending unit in the host string, or -1.
type Error struct {
	Op     string
	Offset int
	Err    error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("hoststr.%s: %v at offset %d", e.Op, e.Err, e.Offset)
	}
	return fmt.Sprintf("hoststr.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	return &Error{Op: op, Offset: -1, Err: err}
}

// remapError converts a backend error into the public form. Errors that do
// not match a known backend condition are reported as fallback, with the
// backend error kept in the chain. A nil fallback keeps them as they are.
func remapError(op string, err, fallback error) error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return err
	}
	switch {
	case errors.Is(err, cpython.ErrNotBuilt):
		return opError(op, fmt.Errorf("%w: %w", ErrNotBuilt, err))
	case errors.Is(err, cpython.ErrClosed):
		return opError(op, fmt.Errorf("%w: %w", ErrBridgeClosed, err))
	case errors.Is(err, cpython.ErrNoMemory), errors.Is(err, linmem.ErrOutOfMemory):
		return opError(op, fmt.Errorf("%w: %w", ErrAllocation, err))
	case fallback != nil && !isPrecondition(err):
		return opError(op, fmt.Errorf("%w: %w", fallback, err))
	}
	return opError(op, err)
}

// isPrecondition reports errors caused by the caller rather than the input.
func isPrecondition(err error) bool {
	return errors.Is(err, sandbox.ErrLockNotHeld)
}

// Must panics if err is non-nil and returns v otherwise.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
