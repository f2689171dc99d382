//go:build windows

package hoststr

// Host is the codec for the build target's host strings.
var Host = Windows
