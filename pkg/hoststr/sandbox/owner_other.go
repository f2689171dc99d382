//go:build !linux && !windows

package sandbox

import (
	"bytes"
	"runtime"
	"strconv"
)

// callerID returns the calling goroutine's id, taken from the header line of
// its stack trace ("goroutine 18 [running]:").
func callerID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("sandbox: cannot parse goroutine id: " + err.Error())
	}
	return id
}
