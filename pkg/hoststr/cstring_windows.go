//go:build windows

package hoststr

import "golang.org/x/sys/windows"

func byteSliceFromString(s string) ([]byte, error) {
	return windows.ByteSliceFromString(s)
}
