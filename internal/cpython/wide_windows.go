//go:build cgo && cpython && windows

package cpython

/*
#define PY_SSIZE_T_CLEAN
#include <Python.h>
#include <stdlib.h>
#include <wchar.h>
*/
import "C"

import (
	"runtime"
	"unicode/utf16"
	"unsafe"
)

// FromWideChar calls PyUnicode_FromWideChar with an explicit length, so NUL
// units are kept.
func FromWideChar(w []uint16) (Obj, error) {
	var src *C.wchar_t
	if len(w) > 0 {
		src = (*C.wchar_t)(unsafe.Pointer(&w[0]))
	}
	o := C.PyUnicode_FromWideChar(src, C.Py_ssize_t(len(w)))
	runtime.KeepAlive(w)
	if o == nil {
		return Obj{}, fetchError()
	}
	return Obj{p: unsafe.Pointer(o)}, nil
}

// ReadWide returns the code points of a Py_DecodeLocale buffer.
func ReadWide(w Wide) []rune {
	n := int(C.wcslen((*C.wchar_t)(w.p)))
	units := unsafe.Slice((*uint16)(w.p), n)
	return utf16.Decode(units)
}
