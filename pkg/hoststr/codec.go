package hoststr

import (
	"fmt"

	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
)

// Codec converts host strings of one unit model into runtime objects and
// back. Every method requires the runtime's execution lock.
type Codec interface {
	// Model is the host string model the codec accepts.
	Model() Model

	// Text converts s into a new runtime text object.
	Text(rt ffi.Runtime, s OSString) (ffi.Object, error)

	// Bytes copies the native units of s into a new runtime bytes object.
	Bytes(rt ffi.Runtime, s OSString) (ffi.Object, error)

	// FromText reverses Text. The runtime must implement ffi.Inverter.
	FromText(rt ffi.Runtime, obj ffi.Object) (OSString, error)

	// FromBytes reverses Bytes. The runtime must implement ffi.Inverter.
	FromBytes(rt ffi.Runtime, obj ffi.Object) (OSString, error)
}

var (
	// POSIX treats host strings as raw bytes and decodes text with the
	// runtime's locale and the surrogateescape handler.
	POSIX Codec = posixCodec{}

	// Windows treats host strings as 16-bit code units and passes them to the
	// runtime without validation.
	Windows Codec = windowsCodec{}
)

// ToText converts s into a runtime text object with the Host codec.
func ToText(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	return Host.Text(rt, s)
}

// ToBytes converts s into a runtime bytes object with the Host codec.
func ToBytes(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	return Host.Bytes(rt, s)
}

func inverter(op string, rt ffi.Runtime) (ffi.Inverter, error) {
	inv, ok := rt.(ffi.Inverter)
	if !ok {
		return nil, opError(op, ErrNotInvertible)
	}
	return inv, nil
}

type posixCodec struct{}

func (posixCodec) Model() Model { return ModelPOSIX }

func (posixCodec) Text(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	const op = "POSIX.Text"
	if s.Model() != ModelPOSIX {
		return nil, opError(op, ErrModelMismatch)
	}
	buf, err := cstring(op, string(s.b))
	if err != nil {
		return nil, err
	}
	obj, err := rt.DecodeLocaleAndSize(buf, ffi.SurrogateEscape)
	if err != nil {
		return nil, remapError(op, err, ErrRuntimeDecode)
	}
	return obj, nil
}

func (posixCodec) Bytes(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	const op = "POSIX.Bytes"
	if s.Model() != ModelPOSIX {
		return nil, opError(op, ErrModelMismatch)
	}
	obj, err := rt.BytesFromStringAndSize(s.b)
	if err != nil {
		return nil, remapError(op, err, ErrAllocation)
	}
	return obj, nil
}

func (posixCodec) FromText(rt ffi.Runtime, obj ffi.Object) (OSString, error) {
	const op = "POSIX.FromText"
	inv, err := inverter(op, rt)
	if err != nil {
		return OSString{}, err
	}
	b, err := inv.EncodeLocale(obj, ffi.SurrogateEscape)
	if err != nil {
		return OSString{}, remapError(op, err, nil)
	}
	return OSString{model: ModelPOSIX, b: b}, nil
}

func (posixCodec) FromBytes(rt ffi.Runtime, obj ffi.Object) (OSString, error) {
	const op = "POSIX.FromBytes"
	inv, err := inverter(op, rt)
	if err != nil {
		return OSString{}, err
	}
	b, err := inv.BytesData(obj)
	if err != nil {
		return OSString{}, remapError(op, err, nil)
	}
	return OSString{model: ModelPOSIX, b: b}, nil
}

type windowsCodec struct{}

func (windowsCodec) Model() Model { return ModelWindows }

func (windowsCodec) Text(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	const op = "Windows.Text"
	if s.Model() != ModelWindows {
		return nil, opError(op, ErrModelMismatch)
	}
	obj, err := rt.FromWideChar(s.w)
	if err != nil {
		return nil, remapError(op, err, ErrAllocation)
	}
	return obj, nil
}

// Bytes copies the code units as raw byte pairs in native order. This is not
// a text encoding.
func (windowsCodec) Bytes(rt ffi.Runtime, s OSString) (ffi.Object, error) {
	const op = "Windows.Bytes"
	if s.Model() != ModelWindows {
		return nil, opError(op, ErrModelMismatch)
	}
	obj, err := rt.BytesFromStringAndSize(s.NativeBytes())
	if err != nil {
		return nil, remapError(op, err, ErrAllocation)
	}
	return obj, nil
}

func (windowsCodec) FromText(rt ffi.Runtime, obj ffi.Object) (OSString, error) {
	const op = "Windows.FromText"
	inv, err := inverter(op, rt)
	if err != nil {
		return OSString{}, err
	}
	w, err := inv.AsUTF16(obj)
	if err != nil {
		return OSString{}, remapError(op, err, nil)
	}
	return OSString{model: ModelWindows, w: w}, nil
}

func (windowsCodec) FromBytes(rt ffi.Runtime, obj ffi.Object) (OSString, error) {
	const op = "Windows.FromBytes"
	inv, err := inverter(op, rt)
	if err != nil {
		return OSString{}, err
	}
	b, err := inv.BytesData(obj)
	if err != nil {
		return OSString{}, remapError(op, err, nil)
	}
	if len(b)%2 != 0 {
		return OSString{}, &Error{Op: op, Offset: len(b) - 1, Err: fmt.Errorf("%w: odd byte count %d", ErrInvalidHostString, len(b))}
	}
	return OSString{model: ModelWindows, w: unitsFromNative(b)}, nil
}
