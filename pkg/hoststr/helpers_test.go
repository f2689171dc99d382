package hoststr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
	"github.com/pyembed/hoststr/pkg/hoststr/sandbox"
)

// newRuntime returns a reference runtime whose lock is held by the calling
// goroutine for the rest of the test.
func newRuntime(t testing.TB, locale string) *sandbox.Runtime {
	t.Helper()
	rt := openRuntime(t, locale)
	hold(t, rt)
	return rt
}

// openRuntime returns a reference runtime without taking its lock. Subtests
// and fuzz targets run on their own goroutines and call hold themselves.
func openRuntime(t testing.TB, locale string) *sandbox.Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := sandbox.New(ctx, sandbox.Options{Locale: locale})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	return rt
}

// hold takes the runtime lock until t finishes.
func hold(t testing.TB, rt *sandbox.Runtime) {
	t.Helper()
	t.Cleanup(rt.Acquire())
}

// countingRuntime records primitive calls and delegates to a real runtime.
type countingRuntime struct {
	ffi.Runtime
	calls map[string]int
}

func newCounting(rt ffi.Runtime) *countingRuntime {
	return &countingRuntime{Runtime: rt, calls: map[string]int{}}
}

func (c *countingRuntime) total() int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingRuntime) DecodeLocale(arg []byte) (ffi.WidePtr, error) {
	c.calls["DecodeLocale"]++
	return c.Runtime.DecodeLocale(arg)
}

func (c *countingRuntime) RawFree(p ffi.WidePtr) {
	c.calls["RawFree"]++
	c.Runtime.RawFree(p)
}

func (c *countingRuntime) DecodeLocaleAndSize(str []byte, h ffi.ErrorHandler) (ffi.Object, error) {
	c.calls["DecodeLocaleAndSize"]++
	return c.Runtime.DecodeLocaleAndSize(str, h)
}

func (c *countingRuntime) FromWideChar(w []uint16) (ffi.Object, error) {
	c.calls["FromWideChar"]++
	return c.Runtime.FromWideChar(w)
}

func (c *countingRuntime) BytesFromStringAndSize(b []byte) (ffi.Object, error) {
	c.calls["BytesFromStringAndSize"]++
	return c.Runtime.BytesFromStringAndSize(b)
}
