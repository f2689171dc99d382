//go:build cgo && cpython

package cpython

/*
#cgo pkg-config: python3-embed
#define PY_SSIZE_T_CLEAN
#include <Python.h>
#include <stdlib.h>

static int hs_is_unicode(PyObject *o) { return PyUnicode_Check(o); }
static int hs_is_bytes(PyObject *o) { return PyBytes_Check(o); }
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

var (
	initMu  sync.Mutex
	owned   bool
	closeCh chan struct{}
	doneCh  chan error
)

// Initialize starts the interpreter unless the host process already did. It
// reports whether this call started it. The interpreter is brought up on a
// dedicated OS thread that later runs Finalize, and the GIL is released
// before Initialize returns.
func Initialize() (bool, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if owned || C.Py_IsInitialized() != 0 {
		return false, nil
	}

	ready := make(chan struct{})
	closeCh = make(chan struct{})
	doneCh = make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		C.Py_InitializeEx(0)
		state := C.PyEval_SaveThread()
		close(ready)

		<-closeCh
		C.PyEval_RestoreThread(state)
		if C.Py_FinalizeEx() < 0 {
			doneCh <- errors.New("hoststr/internal/cpython: Py_FinalizeEx reported an error")
			return
		}
		doneCh <- nil
	}()
	<-ready

	owned = true
	return true, nil
}

// Finalize shuts down an interpreter started by Initialize. It is a no-op
// when the interpreter belongs to the host process.
func Finalize() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !owned {
		return nil
	}
	close(closeCh)
	err := <-doneCh
	owned = false
	return err
}

// Version returns Py_GetVersion.
func Version() string {
	return C.GoString(C.Py_GetVersion())
}

// GILEnsure acquires the GIL for the calling OS thread.
func GILEnsure() GILState {
	return GILState(C.PyGILState_Ensure())
}

// GILRelease releases a GIL acquired by GILEnsure.
func GILRelease(s GILState) {
	C.PyGILState_Release(C.PyGILState_STATE(s))
}

// DecodeLocale calls Py_DecodeLocale on the NUL-terminated arg.
func DecodeLocale(arg []byte) (Wide, error) {
	if len(arg) == 0 || arg[len(arg)-1] != 0 {
		return Wide{}, errors.New("hoststr/internal/cpython: argument is not NUL-terminated")
	}
	var size C.size_t
	p := C.Py_DecodeLocale((*C.char)(unsafe.Pointer(&arg[0])), &size)
	runtime.KeepAlive(arg)
	if p == nil {
		if size == ^C.size_t(0) {
			return Wide{}, ErrNoMemory
		}
		return Wide{}, ErrDecode
	}
	return Wide{p: unsafe.Pointer(p)}, nil
}

// RawFree calls PyMem_RawFree.
func RawFree(w Wide) {
	C.PyMem_RawFree(w.p)
}

// DecodeLocaleAndSize calls PyUnicode_DecodeLocaleAndSize on the
// NUL-terminated str, excluding the terminator from the length.
func DecodeLocaleAndSize(str []byte, handler string) (Obj, error) {
	if len(str) == 0 || str[len(str)-1] != 0 {
		return Obj{}, errors.New("hoststr/internal/cpython: string is not NUL-terminated")
	}
	cerr := C.CString(handler)
	defer C.free(unsafe.Pointer(cerr))

	o := C.PyUnicode_DecodeLocaleAndSize((*C.char)(unsafe.Pointer(&str[0])), C.Py_ssize_t(len(str)-1), cerr)
	runtime.KeepAlive(str)
	if o == nil {
		return Obj{}, fetchError()
	}
	return Obj{p: unsafe.Pointer(o)}, nil
}

// BytesFromStringAndSize calls PyBytes_FromStringAndSize.
func BytesFromStringAndSize(b []byte) (Obj, error) {
	var src *C.char
	if len(b) > 0 {
		src = (*C.char)(unsafe.Pointer(&b[0]))
	}
	o := C.PyBytes_FromStringAndSize(src, C.Py_ssize_t(len(b)))
	runtime.KeepAlive(b)
	if o == nil {
		return Obj{}, fetchError()
	}
	return Obj{p: unsafe.Pointer(o)}, nil
}

// EncodeLocale calls PyUnicode_EncodeLocale and copies the result out.
func EncodeLocale(o Obj, handler string) ([]byte, error) {
	cerr := C.CString(handler)
	defer C.free(unsafe.Pointer(cerr))

	b := C.PyUnicode_EncodeLocale(pyobj(o), cerr)
	if b == nil {
		return nil, fetchError()
	}
	defer C.Py_DecRef(b)
	return copyBytes(b)
}

// AsUTF16 encodes a str as UTF-16-LE with surrogatepass and returns the code
// units.
func AsUTF16(o Obj) ([]uint16, error) {
	enc := C.CString("utf-16-le")
	defer C.free(unsafe.Pointer(enc))
	errs := C.CString("surrogatepass")
	defer C.free(unsafe.Pointer(errs))

	b := C.PyUnicode_AsEncodedString(pyobj(o), enc, errs)
	if b == nil {
		return nil, fetchError()
	}
	defer C.Py_DecRef(b)
	raw, err := copyBytes(b)
	if err != nil {
		return nil, err
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return units, nil
}

// BytesData copies the payload of a bytes object.
func BytesData(o Obj) ([]byte, error) {
	return copyBytes(pyobj(o))
}

// IsText reports whether o is a str.
func IsText(o Obj) bool { return C.hs_is_unicode(pyobj(o)) != 0 }

// IsBytes reports whether o is a bytes object.
func IsBytes(o Obj) bool { return C.hs_is_bytes(pyobj(o)) != 0 }

// DecRef drops the reference held by o.
func DecRef(o Obj) {
	C.Py_DecRef(pyobj(o))
}

func pyobj(o Obj) *C.PyObject { return (*C.PyObject)(o.p) }

func copyBytes(b *C.PyObject) ([]byte, error) {
	var data *C.char
	var n C.Py_ssize_t
	if C.PyBytes_AsStringAndSize(b, &data, &n) < 0 {
		return nil, fetchError()
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(n)), nil
}

// fetchError converts and clears the pending Python exception.
func fetchError() error {
	if C.PyErr_Occurred() == nil {
		return errors.New("hoststr/internal/cpython: call failed without an exception")
	}
	if C.PyErr_ExceptionMatches(C.PyExc_MemoryError) != 0 {
		C.PyErr_Clear()
		return ErrNoMemory
	}

	var ptype, pvalue, ptb *C.PyObject
	C.PyErr_Fetch(&ptype, &pvalue, &ptb)
	defer func() {
		C.Py_DecRef(ptype)
		C.Py_DecRef(pvalue)
		C.Py_DecRef(ptb)
	}()

	name := "Exception"
	if ptype != nil {
		attr := C.CString("__name__")
		if n := C.PyObject_GetAttrString(ptype, attr); n != nil {
			name = pyString(n)
			C.Py_DecRef(n)
		} else {
			C.PyErr_Clear()
		}
		C.free(unsafe.Pointer(attr))
	}
	if pvalue == nil {
		return fmt.Errorf("python: %s", name)
	}
	s := C.PyObject_Str(pvalue)
	if s == nil {
		C.PyErr_Clear()
		return fmt.Errorf("python: %s", name)
	}
	defer C.Py_DecRef(s)
	return fmt.Errorf("python: %s: %s", name, pyString(s))
}

func pyString(s *C.PyObject) string {
	cs := C.PyUnicode_AsUTF8(s)
	if cs == nil {
		C.PyErr_Clear()
		return "?"
	}
	return C.GoString(cs)
}
