// Package ffi defines the runtime-facing boundary of the host-string bridge.
//
// The interfaces mirror the handful of embedded-runtime primitives the bridge
// consumes: the locale decoder that returns a raw wide-character buffer, the
// raw deallocator for such buffers, the length-aware locale decoder that
// produces a text object, the explicit-length wide-character constructor and
// the bytes constructor.
//
// # Ownership
//
// Every WidePtr returned by DecodeLocale is owned by the caller and must be
// released with RawFree on the same Runtime, exactly once. Every Object
// returned by a constructor is a new reference owned by the caller and is
// dropped with Object.Release.
//
// # Locking
//
// No method in this package locks. Callers must hold the runtime's execution
// lock (the GIL for CPython) around every call. Runtimes that can hand that
// lock out implement Locker.
package ffi
