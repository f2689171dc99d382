package hoststr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyembed/hoststr/internal/cpython"
	"github.com/pyembed/hoststr/internal/linmem"
	"github.com/pyembed/hoststr/pkg/hoststr/sandbox"
)

func TestErrorFormatting(t *testing.T) {
	err := &Error{Op: "POSIX.Text", Offset: 3, Err: ErrInvalidHostString}
	assert.Equal(t, "hoststr.POSIX.Text: hoststr: invalid host string at offset 3", err.Error())

	err = &Error{Op: "Open", Offset: -1, Err: ErrUnknownBackend}
	assert.Equal(t, "hoststr.Open: hoststr: unknown backend", err.Error())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRemapError(t *testing.T) {
	decodeFailure := errors.New("decode failure")

	tests := []struct {
		name     string
		err      error
		fallback error
		want     []error
	}{
		{"not built", cpython.ErrNotBuilt, ErrRuntimeDecode, []error{ErrNotBuilt, cpython.ErrNotBuilt}},
		{"python oom", cpython.ErrNoMemory, ErrRuntimeDecode, []error{ErrAllocation}},
		{"heap oom", fmt.Errorf("alloc: %w", linmem.ErrOutOfMemory), nil, []error{ErrAllocation}},
		{"runtime closed", cpython.ErrClosed, ErrRuntimeDecode, []error{ErrBridgeClosed, cpython.ErrClosed}},
		{"lock not held", sandbox.ErrLockNotHeld, ErrRuntimeDecode, []error{sandbox.ErrLockNotHeld}},
		{"fallback", decodeFailure, ErrRuntimeDecode, []error{ErrRuntimeDecode, decodeFailure}},
		{"no fallback", decodeFailure, nil, []error{decodeFailure}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := remapError("Op", tt.err, tt.fallback)
			var he *Error
			assert.ErrorAs(t, got, &he)
			assert.Equal(t, "Op", he.Op)
			for _, want := range tt.want {
				assert.ErrorIs(t, got, want)
			}
		})
	}

	assert.NoError(t, remapError("Op", nil, ErrRuntimeDecode))

	already := opError("Inner", ErrAllocation)
	assert.Same(t, already, remapError("Outer", already, ErrRuntimeDecode))
	assert.False(t, errors.Is(remapError("Op", sandbox.ErrLockNotHeld, ErrRuntimeDecode), ErrRuntimeDecode))
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.PanicsWithError(t, ErrAllocation.Error(), func() { Must(0, ErrAllocation) })
}
