//go:build unix

package hoststr

import "golang.org/x/sys/unix"

func byteSliceFromString(s string) ([]byte, error) {
	return unix.ByteSliceFromString(s)
}
