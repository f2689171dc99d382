// Package hoststr converts operating-system host strings into the string and
// bytes objects of an embedded interpreter, and owns the wide-character
// buffers the interpreter hands back.
//
// Host strings come in two unit models. On POSIX systems they are arbitrary
// byte sequences; on Windows they are 16-bit code units that need not be
// well-formed UTF-16. OSString records the model next to the units, and a
// Codec implements the conversions for one model:
//
//   - Text: POSIX bytes are decoded with the runtime's locale and the
//     surrogateescape handler, so undecodable bytes map to U+DC80..U+DCFF and
//     come back unchanged. Windows code units go to the runtime as they are.
//   - Bytes: the native units are copied verbatim. Windows code units become
//     byte pairs in native order; this is not a text encoding.
//
// Host is the codec of the build target; POSIX and Windows are available
// everywhere.
//
// NewWideString calls the runtime's locale decoder and returns a *WideString
// that owns the result. Free gives the buffer back to the runtime's raw
// deallocator exactly once.
//
// The runtime itself sits behind the interfaces of package ffi. Two backends
// exist: package sandbox, a reference runtime whose heap is a WebAssembly
// linear memory, and package cpython, which links libpython when built with
// the cpython tag.
//
// # Locking
//
// No function in this package takes the runtime's execution lock. Callers
// must hold it around every conversion and every WideString method:
//
//	err := bridge.Do(func() error {
//	    obj, err := bridge.Text(hoststr.FromString(os.Args[1]))
//	    if err != nil {
//	        return err
//	    }
//	    defer obj.Release()
//	    ...
//	})
package hoststr
