// Package cpython implements the hoststr runtime boundary on top of libpython.
//
// The backend is only functional in binaries built with cgo and the cpython
// build tag. Otherwise Open returns ErrNotBuilt.
//
// Open initializes the interpreter if the host process has not, and releases
// the GIL afterwards. Callers take the GIL through Acquire (or Bridge.Do)
// before every conversion.
package cpython

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pyembed/hoststr/internal/cpython"
	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
)

var (
	// ErrNotBuilt reports that libpython was not linked into the binary.
	ErrNotBuilt = cpython.ErrNotBuilt

	// ErrNoMemory reports a MemoryError raised by the interpreter.
	ErrNoMemory = cpython.ErrNoMemory

	// ErrDecode reports a null result from Py_DecodeLocale.
	ErrDecode = cpython.ErrDecode

	// ErrClosed reports a primitive called after Close.
	ErrClosed = cpython.ErrClosed
)

// Runtime is the libpython backend.
type Runtime struct {
	mu     sync.Mutex
	wides  map[ffi.WidePtr]cpython.Wide
	owner  bool
	closed bool
}

var (
	_ ffi.Runtime  = (*Runtime)(nil)
	_ ffi.Inverter = (*Runtime)(nil)
	_ ffi.Locker   = (*Runtime)(nil)
)

// Open binds to the interpreter, starting it when necessary.
func Open() (*Runtime, error) {
	started, err := cpython.Initialize()
	if err != nil {
		return nil, err
	}
	return &Runtime{
		wides: make(map[ffi.WidePtr]cpython.Wide),
		owner: started,
	}, nil
}

// Close finalizes the interpreter if Open started it. Buffers still
// registered are freed first. Close is idempotent.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return nil
	}
	rt.closed = true
	leaked := rt.wides
	rt.wides = nil
	rt.mu.Unlock()

	if len(leaked) > 0 {
		release := rt.Acquire()
		for _, w := range leaked {
			cpython.RawFree(w)
		}
		release()
	}
	if rt.owner {
		return cpython.Finalize()
	}
	return nil
}

func (rt *Runtime) check() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return ErrClosed
	}
	return nil
}

// Version reports the linked interpreter version.
func Version() string { return cpython.Version() }

// Name implements ffi.Runtime.
func (rt *Runtime) Name() string { return "cpython" }

// Acquire implements ffi.Locker. The calling goroutine stays on its OS thread
// until release is called.
func (rt *Runtime) Acquire() func() {
	runtime.LockOSThread()
	st := cpython.GILEnsure()
	var once sync.Once
	return func() {
		once.Do(func() {
			cpython.GILRelease(st)
			runtime.UnlockOSThread()
		})
	}
}

// Live reports the number of wide buffers handed out and not yet freed.
func (rt *Runtime) Live() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.wides)
}

// DecodeLocale implements ffi.Runtime.
func (rt *Runtime) DecodeLocale(arg []byte) (ffi.WidePtr, error) {
	if err := rt.check(); err != nil {
		return 0, err
	}
	w, err := cpython.DecodeLocale(arg)
	if err != nil {
		return 0, err
	}
	p := ffi.WidePtr(w.Addr())
	rt.mu.Lock()
	rt.wides[p] = w
	rt.mu.Unlock()
	return p, nil
}

// RawFree implements ffi.Runtime. Pointers not produced by DecodeLocale on
// this runtime panic instead of reaching PyMem_RawFree. After Close it does
// nothing, since Close already freed every registered buffer.
func (rt *Runtime) RawFree(p ffi.WidePtr) {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	w, ok := rt.wides[p]
	delete(rt.wides, p)
	rt.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("cpython: RawFree of pointer 0x%x not returned by DecodeLocale or already freed", uintptr(p)))
	}
	cpython.RawFree(w)
}

// ReadWide returns the code points of a live wide buffer.
func (rt *Runtime) ReadWide(p ffi.WidePtr) ([]rune, error) {
	rt.mu.Lock()
	w, ok := rt.wides[p]
	rt.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("cpython: 0x%x is not a live wide buffer", uintptr(p))
	}
	return cpython.ReadWide(w), nil
}

// DecodeLocaleAndSize implements ffi.Runtime.
func (rt *Runtime) DecodeLocaleAndSize(str []byte, errs ffi.ErrorHandler) (ffi.Object, error) {
	if err := rt.check(); err != nil {
		return nil, err
	}
	o, err := cpython.DecodeLocaleAndSize(str, string(errs))
	if err != nil {
		return nil, err
	}
	return &object{rt: rt, o: o, kind: ffi.KindText}, nil
}

// FromWideChar implements ffi.Runtime.
func (rt *Runtime) FromWideChar(w []uint16) (ffi.Object, error) {
	if err := rt.check(); err != nil {
		return nil, err
	}
	o, err := cpython.FromWideChar(w)
	if err != nil {
		return nil, err
	}
	return &object{rt: rt, o: o, kind: ffi.KindText}, nil
}

// BytesFromStringAndSize implements ffi.Runtime.
func (rt *Runtime) BytesFromStringAndSize(b []byte) (ffi.Object, error) {
	if err := rt.check(); err != nil {
		return nil, err
	}
	o, err := cpython.BytesFromStringAndSize(b)
	if err != nil {
		return nil, err
	}
	return &object{rt: rt, o: o, kind: ffi.KindBytes}, nil
}

// EncodeLocale implements ffi.Inverter.
func (rt *Runtime) EncodeLocale(obj ffi.Object, errs ffi.ErrorHandler) ([]byte, error) {
	o, err := rt.unwrap(obj, ffi.KindText)
	if err != nil {
		return nil, err
	}
	return cpython.EncodeLocale(o, string(errs))
}

// AsUTF16 implements ffi.Inverter.
func (rt *Runtime) AsUTF16(obj ffi.Object) ([]uint16, error) {
	o, err := rt.unwrap(obj, ffi.KindText)
	if err != nil {
		return nil, err
	}
	return cpython.AsUTF16(o)
}

// BytesData implements ffi.Inverter.
func (rt *Runtime) BytesData(obj ffi.Object) ([]byte, error) {
	o, err := rt.unwrap(obj, ffi.KindBytes)
	if err != nil {
		return nil, err
	}
	return cpython.BytesData(o)
}

func (rt *Runtime) unwrap(obj ffi.Object, kind ffi.ObjectKind) (cpython.Obj, error) {
	if err := rt.check(); err != nil {
		return cpython.Obj{}, err
	}
	o, ok := obj.(*object)
	if !ok {
		return cpython.Obj{}, fmt.Errorf("cpython: %T is not a libpython object", obj)
	}
	if o.o.IsNil() {
		return cpython.Obj{}, fmt.Errorf("cpython: object already released")
	}
	if o.kind != kind {
		return cpython.Obj{}, fmt.Errorf("cpython: have %s object, want %s", o.kind, kind)
	}
	return o.o, nil
}

type object struct {
	rt   *Runtime
	o    cpython.Obj
	kind ffi.ObjectKind
}

func (o *object) Kind() ffi.ObjectKind { return o.kind }

// Release calls Py_DecRef once. Later calls do nothing, and after the
// runtime is closed the reference is dropped without touching libpython.
func (o *object) Release() {
	if o.o.IsNil() {
		return
	}
	if o.rt.check() == nil {
		cpython.DecRef(o.o)
	}
	o.o = cpython.Obj{}
}
