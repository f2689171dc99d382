// Package cpython is the cgo binding to libpython used by the hoststr
// CPython backend.
//
// The real binding is compiled only with cgo and the cpython build tag:
//
//	go build -tags cpython ./...
//
// which links against the python3-embed pkg-config package. Every other build
// compiles a stub whose functions return ErrNotBuilt, so the rest of the
// module never needs a Python toolchain.
//
// Callers hold the GIL around every function except Initialize, Finalize,
// GILEnsure and Version.
package cpython
