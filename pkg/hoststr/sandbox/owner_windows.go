//go:build windows

package sandbox

import "golang.org/x/sys/windows"

// callerID identifies the OS thread of a goroutine pinned by Acquire.
func callerID() uint64 { return uint64(windows.GetCurrentThreadId()) }
