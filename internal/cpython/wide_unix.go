//go:build cgo && cpython && !windows

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
	"unsafe"
)

// FromWideChar builds a str from 16-bit code units. wchar_t is 32 bits here,
// so the units go through the UTF-16 decoder with surrogatepass, which pairs
// surrogates and keeps lone ones. The units are read in host byte order.
func FromWideChar(w []uint16) (Obj, error) {
	var src *C.char
	if len(w) > 0 {
		src = (*C.char)(unsafe.Pointer(&w[0]))
	}
	errs := C.CString("surrogatepass")
	defer C.free(unsafe.Pointer(errs))

	order := C.int(utf16Order())
	o := C.PyUnicode_DecodeUTF16(src, C.Py_ssize_t(2*len(w)), errs, &order)
	runtime.KeepAlive(w)
	if o == nil {
		return Obj{}, fetchError()
	}
	return Obj{p: unsafe.Pointer(o)}, nil
}

// ReadWide returns the code points of a Py_DecodeLocale buffer.
func ReadWide(w Wide) []rune {
	n := int(C.wcslen((*C.wchar_t)(w.p)))
	src := unsafe.Slice((*C.wchar_t)(w.p), n)
	out := make([]rune, n)
	for i, c := range src {
		out[i] = rune(c)
	}
	return out
}
