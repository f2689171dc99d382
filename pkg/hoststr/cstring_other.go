//go:build !unix && !windows

package hoststr

import (
	"errors"
	"strings"
)

// byteSliceFromString mirrors the x/sys helper on targets it does not cover.
func byteSliceFromString(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, errors.New("invalid argument")
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}
