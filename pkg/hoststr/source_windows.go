//go:build windows

package hoststr

import (
	"errors"
	"os"
	"unicode/utf16"

	"golang.org/x/sys/windows"
)

// FromString returns the UTF-16 code units of s as a Windows host string.
func FromString(s string) OSString {
	if w, err := windows.UTF16FromString(s); err == nil {
		return OSString{model: ModelWindows, w: w[:len(w)-1]}
	}
	return OSString{model: ModelWindows, w: utf16.Encode([]rune(s))}
}

// Getenv reads an environment variable with GetEnvironmentVariableW, so
// unpaired surrogates in the value survive.
func Getenv(key string) (OSString, bool) {
	name, err := windows.UTF16PtrFromString(key)
	if err != nil {
		v, ok := os.LookupEnv(key)
		return FromString(v), ok
	}
	buf := make([]uint16, 256)
	for {
		n, err := windows.GetEnvironmentVariable(name, &buf[0], uint32(len(buf)))
		if err != nil {
			if errors.Is(err, windows.ERROR_ENVVAR_NOT_FOUND) {
				return OSString{}, false
			}
			v, ok := os.LookupEnv(key)
			return FromString(v), ok
		}
		if int(n) < len(buf) {
			return FromUTF16(buf[:n]), true
		}
		buf = make([]uint16, n)
	}
}
