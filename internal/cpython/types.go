package cpython

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

var (
	// ErrNotBuilt reports that libpython was not linked into the current
	// binary.
	ErrNotBuilt = errors.New("hoststr/internal/cpython: libpython bindings not built")

	// ErrNoMemory reports a MemoryError raised by the interpreter.
	ErrNoMemory = errors.New("hoststr/internal/cpython: interpreter out of memory")

	// ErrDecode reports a null result from Py_DecodeLocale.
	ErrDecode = errors.New("hoststr/internal/cpython: Py_DecodeLocale failed")

	// ErrClosed reports a call on a runtime whose interpreter was released.
	ErrClosed = errors.New("hoststr/internal/cpython: runtime closed")
)

// Obj is an owned PyObject reference.
type Obj struct {
	p unsafe.Pointer
}

// IsNil reports whether o holds no reference.
func (o Obj) IsNil() bool { return o.p == nil }

// Wide is a wchar_t buffer allocated by Py_DecodeLocale.
type Wide struct {
	p unsafe.Pointer
}

// Addr returns the buffer address.
func (w Wide) Addr() uintptr { return uintptr(w.p) }

// GILState is the token returned by GILEnsure.
type GILState int

// utf16Order is the byteorder argument of PyUnicode_DecodeUTF16 that reads
// uint16 values in host memory order: -1 for little-endian, 1 for big-endian.
func utf16Order() int {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return -1
	}
	return 1
}
