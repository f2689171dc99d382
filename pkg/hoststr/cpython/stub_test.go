//go:build !cgo || !cpython

package cpython

import (
	"errors"
	"testing"
)

func TestOpenReturnsStubError(t *testing.T) {
	rt, err := Open()
	if !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("unexpected error from Open: %v", err)
	}
	if rt != nil {
		t.Fatalf("expected nil runtime, got %+v", rt)
	}
	if v := Version(); v != "" {
		t.Fatalf("expected empty version, got %q", v)
	}
}
