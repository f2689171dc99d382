package hoststr

import (
	"slices"
	"unicode/utf16"
	"unsafe"
)

// Model is the unit model of a host string.
type Model int

const (
	// ModelPOSIX host strings are arbitrary byte sequences.
	ModelPOSIX Model = iota + 1

	// ModelWindows host strings are 16-bit code units that may hold unpaired
	// surrogates.
	ModelWindows
)

func (m Model) String() string {
	switch m {
	case ModelPOSIX:
		return "posix"
	case ModelWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// OSString is a host string in its native unit model. The zero value is an
// empty POSIX string. An OSString owns a private copy of its units.
type OSString struct {
	model Model
	b     []byte
	w     []uint16
}

// FromBytes returns a POSIX host string holding a copy of b.
func FromBytes(b []byte) OSString {
	return OSString{model: ModelPOSIX, b: slices.Clone(b)}
}

// FromUTF16 returns a Windows host string holding a copy of w.
func FromUTF16(w []uint16) OSString {
	return OSString{model: ModelWindows, w: slices.Clone(w)}
}

// Model reports the unit model.
func (s OSString) Model() Model {
	if s.model == 0 {
		return ModelPOSIX
	}
	return s.model
}

// Len returns the number of native units.
func (s OSString) Len() int {
	if s.Model() == ModelWindows {
		return len(s.w)
	}
	return len(s.b)
}

// Bytes returns a copy of the bytes of a POSIX host string, or nil.
func (s OSString) Bytes() []byte {
	if s.Model() != ModelPOSIX {
		return nil
	}
	return slices.Clone(s.b)
}

// UTF16 returns a copy of the code units of a Windows host string, or nil.
func (s OSString) UTF16() []uint16 {
	if s.Model() != ModelWindows {
		return nil
	}
	return slices.Clone(s.w)
}

// NativeBytes returns the units as they are laid out in memory: the bytes
// themselves for POSIX, each code unit as a byte pair in native byte order
// for Windows.
func (s OSString) NativeBytes() []byte {
	if s.Model() == ModelPOSIX {
		return slices.Clone(s.b)
	}
	if len(s.w) == 0 {
		return []byte{}
	}
	return slices.Clone(unsafe.Slice((*byte)(unsafe.Pointer(&s.w[0])), 2*len(s.w)))
}

// unitsFromNative is the inverse of NativeBytes for the Windows model. len(b)
// must be even.
func unitsFromNative(b []byte) []uint16 {
	w := make([]uint16, len(b)/2)
	if len(w) > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), len(b)), b)
	}
	return w
}

// Equal reports whether s and o have the same model and units.
func (s OSString) Equal(o OSString) bool {
	if s.Model() != o.Model() {
		return false
	}
	if s.Model() == ModelWindows {
		return slices.Equal(s.w, o.w)
	}
	return slices.Equal(s.b, o.b)
}

// String converts s to a Go string. POSIX bytes are kept as they are; lone
// surrogates in a Windows string become U+FFFD.
func (s OSString) String() string {
	if s.Model() == ModelWindows {
		return string(utf16.Decode(s.w))
	}
	return string(s.b)
}
