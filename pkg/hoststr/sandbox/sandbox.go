// Package sandbox is a reference implementation of the runtime boundary.
//
// It models the parts of an embedded interpreter the host-string bridge
// talks to and nothing else: a locale subsystem, a raw allocator for
// wide-character buffers, and reference-counted text and bytes objects. All
// buffers and object payloads live in a WebAssembly linear memory managed by
// internal/linmem, so the Go garbage collector never owns them and every
// allocation and deallocation is counted.
//
// Wide buffers use the POSIX wchar_t layout: NUL-terminated little-endian
// UCS-4. Text objects store code points the same way, so lone surrogates
// produced by surrogate escaping are representable.
//
// Mismatched deallocation is undefined behaviour in a real runtime. Here it
// panics: RawFree of a pointer DecodeLocale did not return, or of one already
// freed, and Release of an object reference twice.
package sandbox

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/pyembed/hoststr/internal/linmem"
	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
	"github.com/pyembed/hoststr/pkg/hoststr/locale"
)

const wcharSize = 4

var (
	// ErrLockNotHeld reports a primitive called without the execution lock.
	ErrLockNotHeld = errors.New("sandbox: execution lock not held")

	// ErrLocaleNotInitialized reports a locale primitive called before a
	// locale was configured.
	ErrLocaleNotInitialized = errors.New("sandbox: locale not initialized")

	// ErrEmbeddedNull reports a NUL byte inside a length-delimited string.
	ErrEmbeddedNull = errors.New("sandbox: embedded null byte")

	// ErrNotTerminated reports a buffer without its terminating NUL.
	ErrNotTerminated = errors.New("sandbox: buffer is not NUL-terminated")

	// ErrUnsupportedHandler reports an error handler the primitive does not
	// accept.
	ErrUnsupportedHandler = errors.New("sandbox: unsupported error handler")

	// ErrForeignObject reports an object that does not belong to this runtime.
	ErrForeignObject = errors.New("sandbox: object does not belong to this runtime")

	// ErrWrongKind reports a text object where bytes were expected or the
	// reverse.
	ErrWrongKind = errors.New("sandbox: wrong object kind")
)

// Options configures a Runtime.
type Options struct {
	// Locale names the active locale or codeset. Empty selects the process
	// environment (LC_ALL, LC_CTYPE, LANG). "none" leaves the locale
	// subsystem uninitialized.
	Locale string

	// HeapPages is the initial heap size in 64 KiB pages.
	HeapPages uint32

	// AllowUnlocked disables the execution lock check on primitives.
	AllowUnlocked bool
}

// Stats extends the allocator counters with runtime-level counts.
type Stats struct {
	linmem.Stats
	WideBuffers int
	Objects     int
}

type record struct {
	kind ffi.ObjectKind
	ptr  uint32
	n    uint32
	refs int
}

// Runtime is the reference runtime.
type Runtime struct {
	heap    *linmem.Heap
	codec   locale.Codec
	enforce bool

	mu    sync.Mutex
	owner atomic.Uint64

	wides   map[uint32]struct{}
	objects map[uint32]*record
	nextID  uint32
}

var (
	_ ffi.Runtime  = (*Runtime)(nil)
	_ ffi.Inverter = (*Runtime)(nil)
	_ ffi.Locker   = (*Runtime)(nil)
)

// New creates a runtime with its own linear memory.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	heap, err := linmem.New(ctx, opts.HeapPages)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		heap:    heap,
		enforce: !opts.AllowUnlocked,
		wides:   make(map[uint32]struct{}),
		objects: make(map[uint32]*record),
	}
	switch opts.Locale {
	case "none":
	case "":
		if rt.codec, err = locale.FromEnvironment(); err != nil {
			_ = heap.Close(ctx)
			return nil, err
		}
	default:
		if err := rt.SetLocale(opts.Locale); err != nil {
			_ = heap.Close(ctx)
			return nil, err
		}
	}
	return rt, nil
}

// Close releases the linear memory. Live buffers and objects are discarded.
func (rt *Runtime) Close(ctx context.Context) error {
	if live := len(rt.wides) + len(rt.objects); live > 0 {
		Logger().Warn("closing runtime with live allocations",
			zap.Int("wide_buffers", len(rt.wides)),
			zap.Int("objects", len(rt.objects)))
	}
	return rt.heap.Close(ctx)
}

// Name implements ffi.Runtime.
func (rt *Runtime) Name() string { return "sandbox" }

// Acquire implements ffi.Locker. The calling goroutine is pinned to its OS
// thread until release is called, and only that goroutine passes the lock
// check. release must be called from the same goroutine.
func (rt *Runtime) Acquire() func() {
	runtime.LockOSThread()
	rt.mu.Lock()
	rt.owner.Store(callerID())
	var once sync.Once
	return func() {
		once.Do(func() {
			rt.owner.Store(0)
			rt.mu.Unlock()
			runtime.UnlockOSThread()
		})
	}
}

// checkLock fails unless the caller is the goroutine that holds the lock.
func (rt *Runtime) checkLock() error {
	if !rt.enforce {
		return nil
	}
	if owner := rt.owner.Load(); owner == 0 || owner != callerID() {
		return ErrLockNotHeld
	}
	return nil
}

func (rt *Runtime) mustLock(op string) {
	if err := rt.checkLock(); err != nil {
		Logger().Error("primitive called without execution lock", zap.String("op", op))
		panic(fmt.Sprintf("sandbox: %s: %v", op, err))
	}
}

// SetLocale initializes the locale subsystem with a locale or codeset name.
func (rt *Runtime) SetLocale(name string) error {
	c, err := locale.Lookup(name)
	if err != nil {
		return err
	}
	rt.codec = c
	return nil
}

// ResetLocale returns the locale subsystem to its uninitialized state.
func (rt *Runtime) ResetLocale() { rt.codec = nil }

// Locale returns the active codec name, or "" when uninitialized.
func (rt *Runtime) Locale() string {
	if rt.codec == nil {
		return ""
	}
	return rt.codec.Name()
}

// Stats returns allocation counters.
func (rt *Runtime) Stats() Stats {
	return Stats{
		Stats:       rt.heap.Stats(),
		WideBuffers: len(rt.wides),
		Objects:     len(rt.objects),
	}
}

// DecodeLocale implements ffi.Runtime. Decoding stops at the first NUL, as
// the native primitive reads a C string.
func (rt *Runtime) DecodeLocale(arg []byte) (ffi.WidePtr, error) {
	if err := rt.checkLock(); err != nil {
		return 0, err
	}
	if rt.codec == nil {
		return 0, ErrLocaleNotInitialized
	}
	end := bytes.IndexByte(arg, 0)
	if end < 0 {
		return 0, ErrNotTerminated
	}
	rs, err := rt.codec.Decode(arg[:end], locale.SurrogateEscape)
	if err != nil {
		return 0, err
	}
	ptr, err := rt.store(append(rs, 0))
	if err != nil {
		return 0, err
	}
	rt.wides[ptr] = struct{}{}
	Logger().Debug("decode locale", zap.Uint32("ptr", ptr), zap.Int("units", len(rs)))
	return ffi.WidePtr(ptr), nil
}

// RawFree implements ffi.Runtime.
func (rt *Runtime) RawFree(p ffi.WidePtr) {
	rt.mustLock("RawFree")
	ptr := uint32(p)
	if uintptr(ptr) != uintptr(p) {
		panic(fmt.Sprintf("sandbox: RawFree of out-of-range pointer 0x%x", uintptr(p)))
	}
	if _, ok := rt.wides[ptr]; !ok {
		Logger().Error("raw free of unknown pointer", zap.Uint32("ptr", ptr))
		panic(fmt.Sprintf("sandbox: RawFree of pointer 0x%x not returned by DecodeLocale or already freed", ptr))
	}
	delete(rt.wides, ptr)
	if err := rt.heap.Free(ptr); err != nil {
		panic(fmt.Sprintf("sandbox: RawFree: %v", err))
	}
	Logger().Debug("raw free", zap.Uint32("ptr", ptr))
}

// ReadWide returns the code points of a live wide buffer, without the
// terminator.
func (rt *Runtime) ReadWide(p ffi.WidePtr) ([]rune, error) {
	ptr := uint32(p)
	if _, ok := rt.wides[ptr]; !ok || uintptr(ptr) != uintptr(p) {
		return nil, fmt.Errorf("sandbox: 0x%x is not a live wide buffer", uintptr(p))
	}
	size, _ := rt.heap.SizeOf(ptr)
	var out []rune
	for off := uint32(0); off+wcharSize <= size; off += wcharSize {
		w, err := rt.heap.ReadUint32(ptr, off)
		if err != nil {
			return nil, err
		}
		if w == 0 {
			return out, nil
		}
		out = append(out, rune(w))
	}
	return nil, ErrNotTerminated
}

// DecodeLocaleAndSize implements ffi.Runtime.
func (rt *Runtime) DecodeLocaleAndSize(str []byte, errs ffi.ErrorHandler) (ffi.Object, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	if rt.codec == nil {
		return nil, ErrLocaleNotInitialized
	}
	if len(str) == 0 || str[len(str)-1] != 0 {
		return nil, ErrNotTerminated
	}
	body := str[:len(str)-1]
	if bytes.IndexByte(body, 0) >= 0 {
		return nil, ErrEmbeddedNull
	}
	mode, err := localeMode(errs)
	if err != nil {
		return nil, err
	}
	rs, err := rt.codec.Decode(body, mode)
	if err != nil {
		return nil, err
	}
	return rt.newText(rs)
}

// FromWideChar implements ffi.Runtime with the 16-bit wchar_t semantics:
// surrogate pairs combine, lone surrogates are kept as code points.
func (rt *Runtime) FromWideChar(w []uint16) (ffi.Object, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	rs := make([]rune, 0, len(w))
	for i := 0; i < len(w); i++ {
		u := rune(w[i])
		if utf16.IsSurrogate(u) && u < 0xDC00 && i+1 < len(w) {
			if r := utf16.DecodeRune(u, rune(w[i+1])); r != unicode.ReplacementChar {
				rs = append(rs, r)
				i++
				continue
			}
		}
		rs = append(rs, u)
	}
	return rt.newText(rs)
}

// BytesFromStringAndSize implements ffi.Runtime.
func (rt *Runtime) BytesFromStringAndSize(b []byte) (ffi.Object, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	ptr, err := rt.heap.Alloc(uint32(len(b)), 1)
	if err != nil {
		return nil, err
	}
	if err := rt.heap.Write(ptr, b); err != nil {
		_ = rt.heap.Free(ptr)
		return nil, err
	}
	return rt.track(ffi.KindBytes, ptr, uint32(len(b))), nil
}

// EncodeLocale implements ffi.Inverter.
func (rt *Runtime) EncodeLocale(obj ffi.Object, errs ffi.ErrorHandler) ([]byte, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	if rt.codec == nil {
		return nil, ErrLocaleNotInitialized
	}
	mode, err := localeMode(errs)
	if err != nil {
		return nil, err
	}
	rs, err := rt.CodePoints(obj)
	if err != nil {
		return nil, err
	}
	return rt.codec.Encode(rs, mode)
}

// AsUTF16 implements ffi.Inverter.
func (rt *Runtime) AsUTF16(obj ffi.Object) ([]uint16, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	rs, err := rt.CodePoints(obj)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, len(rs))
	for _, r := range rs {
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			out = append(out, uint16(hi), uint16(lo))
			continue
		}
		out = append(out, uint16(r))
	}
	return out, nil
}

// BytesData implements ffi.Inverter.
func (rt *Runtime) BytesData(obj ffi.Object) ([]byte, error) {
	if err := rt.checkLock(); err != nil {
		return nil, err
	}
	rec, err := rt.lookup(obj, ffi.KindBytes)
	if err != nil {
		return nil, err
	}
	return rt.heap.Read(rec.ptr, rec.n)
}

// CodePoints returns the code points of a text object.
func (rt *Runtime) CodePoints(obj ffi.Object) ([]rune, error) {
	rec, err := rt.lookup(obj, ffi.KindText)
	if err != nil {
		return nil, err
	}
	raw, err := rt.heap.Read(rec.ptr, rec.n*wcharSize)
	if err != nil {
		return nil, err
	}
	rs := make([]rune, rec.n)
	for i := range rs {
		rs[i] = rune(binary.LittleEndian.Uint32(raw[i*wcharSize:]))
	}
	return rs, nil
}

func (rt *Runtime) lookup(obj ffi.Object, kind ffi.ObjectKind) (*record, error) {
	o, ok := obj.(*object)
	if !ok || o.rt != rt {
		return nil, ErrForeignObject
	}
	rec, ok := rt.objects[o.id]
	if !ok || o.released {
		return nil, fmt.Errorf("sandbox: object %d already released", o.id)
	}
	if rec.kind != kind {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrWrongKind, rec.kind, kind)
	}
	return rec, nil
}

// store writes rs as little-endian UCS-4 into a fresh allocation.
func (rt *Runtime) store(rs []rune) (uint32, error) {
	buf := make([]byte, len(rs)*wcharSize)
	for i, r := range rs {
		binary.LittleEndian.PutUint32(buf[i*wcharSize:], uint32(r))
	}
	ptr, err := rt.heap.Alloc(uint32(len(buf)), wcharSize)
	if err != nil {
		return 0, err
	}
	if err := rt.heap.Write(ptr, buf); err != nil {
		_ = rt.heap.Free(ptr)
		return 0, err
	}
	return ptr, nil
}

func (rt *Runtime) newText(rs []rune) (ffi.Object, error) {
	ptr, err := rt.store(rs)
	if err != nil {
		return nil, err
	}
	return rt.track(ffi.KindText, ptr, uint32(len(rs))), nil
}

func (rt *Runtime) track(kind ffi.ObjectKind, ptr, n uint32) *object {
	rt.nextID++
	rt.objects[rt.nextID] = &record{kind: kind, ptr: ptr, n: n, refs: 1}
	return &object{rt: rt, id: rt.nextID, kind: kind}
}

func (rt *Runtime) decref(id uint32) {
	rt.mustLock("Release")
	rec, ok := rt.objects[id]
	if !ok {
		panic(fmt.Sprintf("sandbox: release of dead object %d", id))
	}
	rec.refs--
	if rec.refs > 0 {
		return
	}
	delete(rt.objects, id)
	if err := rt.heap.Free(rec.ptr); err != nil {
		panic(fmt.Sprintf("sandbox: release object %d: %v", id, err))
	}
}

func localeMode(h ffi.ErrorHandler) (locale.Mode, error) {
	switch h {
	case ffi.Strict, "":
		return locale.Strict, nil
	case ffi.SurrogateEscape:
		return locale.SurrogateEscape, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedHandler, h)
	}
}

// object is one owned reference to a runtime object.
type object struct {
	rt       *Runtime
	id       uint32
	kind     ffi.ObjectKind
	released bool
}

func (o *object) Kind() ffi.ObjectKind { return o.kind }

// Release drops the reference. Releasing the same reference twice panics.
func (o *object) Release() {
	if o.released {
		panic(fmt.Sprintf("sandbox: object %d released twice", o.id))
	}
	o.rt.decref(o.id)
	o.released = true
}
