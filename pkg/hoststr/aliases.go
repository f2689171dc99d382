package hoststr

import "github.com/pyembed/hoststr/pkg/hoststr/ffi"

// Runtime boundary types, re-exported so callers rarely import ffi.
type (
	Runtime      = ffi.Runtime
	Object       = ffi.Object
	ObjectKind   = ffi.ObjectKind
	WidePtr      = ffi.WidePtr
	ErrorHandler = ffi.ErrorHandler
	Inverter     = ffi.Inverter
	Locker       = ffi.Locker
)

const (
	KindText  = ffi.KindText
	KindBytes = ffi.KindBytes
)
