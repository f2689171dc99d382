package hoststr

import "github.com/pyembed/hoststr/pkg/hoststr/cpython"

// Version is populated at build time via ldflags.
var Version = "v0.0.0-in-progress"

// PythonVersion returns the version string of the linked libpython, or ""
// when the CPython backend is not built.
func PythonVersion() string {
	return cpython.Version()
}
