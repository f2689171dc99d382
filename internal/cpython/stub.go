//go:build !cgo || !cpython

package cpython

// Stub implementations for builds without cgo or the cpython tag.

func Initialize() (bool, error) { return false, ErrNotBuilt }

func Finalize() error { return nil }

func Version() string { return "" }

func GILEnsure() GILState { return 0 }

func GILRelease(GILState) {}

func DecodeLocale([]byte) (Wide, error) { return Wide{}, ErrNotBuilt }

func RawFree(Wide) {}

func DecodeLocaleAndSize([]byte, string) (Obj, error) { return Obj{}, ErrNotBuilt }

func FromWideChar([]uint16) (Obj, error) { return Obj{}, ErrNotBuilt }

func BytesFromStringAndSize([]byte) (Obj, error) { return Obj{}, ErrNotBuilt }

func EncodeLocale(Obj, string) ([]byte, error) { return nil, ErrNotBuilt }

func AsUTF16(Obj) ([]uint16, error) { return nil, ErrNotBuilt }

func BytesData(Obj) ([]byte, error) { return nil, ErrNotBuilt }

func IsText(Obj) bool { return false }

func IsBytes(Obj) bool { return false }

func DecRef(Obj) {}

func ReadWide(Wide) []rune { return nil }
