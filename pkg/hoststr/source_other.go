//go:build !windows

package hoststr

import "os"

// FromString returns the bytes of s as a POSIX host string.
func FromString(s string) OSString {
	return OSString{model: ModelPOSIX, b: []byte(s)}
}

// Getenv returns the raw bytes of an environment variable.
func Getenv(key string) (OSString, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return OSString{}, false
	}
	return FromString(v), true
}
