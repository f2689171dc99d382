package ffi

// WidePtr is the address of a runtime-allocated, NUL-terminated
// wide-character buffer. Zero is the null pointer.
type WidePtr uintptr

// IsNull reports whether p is the null pointer.
func (p WidePtr) IsNull() bool { return p == 0 }

// ErrorHandler names a runtime codec error handler.
type ErrorHandler string

const (
	// Strict fails on the first undecodable sequence.
	Strict ErrorHandler = "strict"

	// SurrogateEscape maps each undecodable byte 0x80..0xFF to U+DC80..U+DCFF
	// when decoding, and back when encoding.
	SurrogateEscape ErrorHandler = "surrogateescape"

	// SurrogatePass lets lone surrogate code points through UTF-16 coding.
	SurrogatePass ErrorHandler = "surrogatepass"
)

// ObjectKind distinguishes runtime text from runtime bytes.
type ObjectKind int

const (
	KindText ObjectKind = iota + 1
	KindBytes
)

func (k ObjectKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Object is an owned reference to a runtime text or bytes object.
type Object interface {
	Kind() ObjectKind

	// Release drops the reference. The object must not be used afterwards.
	Release()
}

// Runtime is the set of embedded-runtime primitives the bridge calls.
//
// Byte arguments documented as NUL-terminated carry the terminator as their
// final element; the length handed to the native primitive excludes it.
// Callers must hold the runtime's execution lock.
type Runtime interface {
	// Name identifies the runtime implementation in logs.
	Name() string

	// DecodeLocale decodes the NUL-terminated arg with the active locale into
	// a freshly allocated wide-character buffer. A null pointer or a non-nil
	// error reports failure.
	DecodeLocale(arg []byte) (WidePtr, error)

	// RawFree releases a buffer returned by DecodeLocale.
	RawFree(p WidePtr)

	// DecodeLocaleAndSize decodes the NUL-terminated str with the active
	// locale into a new text object using the given error handler.
	DecodeLocaleAndSize(str []byte, errors ErrorHandler) (Object, error)

	// FromWideChar builds a new text object from explicit-length 16-bit code
	// units. NUL units are part of the value.
	FromWideChar(w []uint16) (Object, error)

	// BytesFromStringAndSize copies b into a new bytes object.
	BytesFromStringAndSize(b []byte) (Object, error)
}

// Inverter is implemented by runtimes that can turn objects back into host
// units.
type Inverter interface {
	// EncodeLocale encodes a text object with the active locale.
	EncodeLocale(obj Object, errors ErrorHandler) ([]byte, error)

	// AsUTF16 returns the code points of a text object as UTF-16 code units,
	// passing lone surrogates through unchanged.
	AsUTF16(obj Object) ([]uint16, error)

	// BytesData returns a copy of a bytes object's payload.
	BytesData(obj Object) ([]byte, error)
}

// Locker is implemented by runtimes with a global execution lock.
type Locker interface {
	// Acquire blocks until the calling goroutine holds the lock and returns
	// the function that releases it.
	Acquire() (release func())
}
