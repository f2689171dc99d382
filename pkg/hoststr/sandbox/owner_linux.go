//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// callerID identifies the OS thread of a goroutine pinned by Acquire.
func callerID() uint64 { return uint64(unix.Gettid()) }
