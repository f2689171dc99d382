package hoststr

import (
	"bytes"
	"fmt"
)

// cstring returns a NUL-terminated copy of s. An embedded NUL fails with
// ErrInvalidHostString and the offset of the first NUL.
func cstring(op, s string) ([]byte, error) {
	b, err := byteSliceFromString(s)
	if err != nil {
		return nil, &Error{Op: op, Offset: bytes.IndexByte([]byte(s), 0), Err: fmt.Errorf("%w: embedded NUL", ErrInvalidHostString)}
	}
	return b, nil
}
