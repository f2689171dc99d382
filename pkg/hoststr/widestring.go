package hoststr

import "github.com/pyembed/hoststr/pkg/hoststr/ffi"

// noCopy lets go vet's copylocks check flag copies of the struct embedding
// it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// WideString owns a wide-character buffer allocated by the runtime's locale
// decoder. It must be released with Free, which hands the buffer back to the
// runtime's raw deallocator exactly once.
//
// A WideString is not safe for concurrent use, and like every conversion its
// methods require the runtime's execution lock.
type WideString struct {
	_   noCopy
	rt  ffi.Runtime
	ptr ffi.WidePtr
}

// NewWideString decodes s with the runtime's active locale into a new
// runtime-allocated wide string. s must not contain a NUL byte; that fails
// with ErrInvalidHostString before the runtime is called. A failing decode
// reports ErrRuntimeDecode.
func NewWideString(rt ffi.Runtime, s string) (*WideString, error) {
	return newWideString("NewWideString", rt, s)
}

// NewWideStringFromOS is NewWideString for a POSIX host string.
func NewWideStringFromOS(rt ffi.Runtime, s OSString) (*WideString, error) {
	if s.Model() != ModelPOSIX {
		return nil, opError("NewWideStringFromOS", ErrModelMismatch)
	}
	return newWideString("NewWideStringFromOS", rt, string(s.b))
}

// MustWideString is like NewWideString but panics on error.
func MustWideString(rt ffi.Runtime, s string) *WideString {
	return Must(NewWideString(rt, s))
}

func newWideString(op string, rt ffi.Runtime, s string) (*WideString, error) {
	buf, err := cstring(op, s)
	if err != nil {
		return nil, err
	}
	p, err := rt.DecodeLocale(buf)
	if err != nil {
		return nil, remapError(op, err, ErrRuntimeDecode)
	}
	if p.IsNull() {
		return nil, opError(op, ErrRuntimeDecode)
	}
	return &WideString{rt: rt, ptr: p}, nil
}

// Ptr returns the buffer address. The pointer is borrowed: it is valid until
// Free and must not be freed by the caller. Ptr panics after Free.
func (w *WideString) Ptr() ffi.WidePtr {
	if w.ptr.IsNull() {
		panic("hoststr: Ptr called on a freed WideString")
	}
	return w.ptr
}

// Freed reports whether Free has been called.
func (w *WideString) Freed() bool {
	return w == nil || w.ptr.IsNull()
}

// Free releases the buffer through the runtime's raw deallocator. Calls after
// the first do nothing.
func (w *WideString) Free() {
	if w.Freed() {
		return
	}
	p := w.ptr
	w.ptr = 0
	w.rt.RawFree(p)
}
