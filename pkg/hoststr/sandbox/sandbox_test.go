package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
	"github.com/pyembed/hoststr/pkg/hoststr/locale"
)

func newRuntime(t *testing.T, opts Options) *Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := New(ctx, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	return rt
}

func locked(t *testing.T, rt *Runtime) {
	t.Helper()
	release := rt.Acquire()
	t.Cleanup(release)
}

func TestDecodeLocaleSurrogateEscape(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "C.UTF-8"})
	locked(t, rt)

	p, err := rt.DecodeLocale([]byte{'a', 0xFF, 'b', 0})
	require.NoError(t, err)
	require.False(t, p.IsNull())

	got, err := rt.ReadWide(p)
	require.NoError(t, err)
	assert.Equal(t, []rune{'a', 0xDCFF, 'b'}, got)

	st := rt.Stats()
	assert.Equal(t, 1, st.WideBuffers)
	assert.Equal(t, uint64(1), st.Allocs)

	rt.RawFree(p)
	st = rt.Stats()
	assert.Zero(t, st.WideBuffers)
	assert.Equal(t, uint64(1), st.Frees)
}

func TestDecodeLocaleStopsAtFirstNull(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	p, err := rt.DecodeLocale([]byte{'a', 0, 'b', 0})
	require.NoError(t, err)
	defer rt.RawFree(p)

	got, err := rt.ReadWide(p)
	require.NoError(t, err)
	assert.Equal(t, []rune{'a'}, got)

	_, err = rt.DecodeLocale([]byte("abc"))
	assert.ErrorIs(t, err, ErrNotTerminated)
}

func TestLocaleNotInitialized(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "none"})
	locked(t, rt)
	assert.Empty(t, rt.Locale())

	_, err := rt.DecodeLocale([]byte{'x', 0})
	assert.ErrorIs(t, err, ErrLocaleNotInitialized)
	_, err = rt.DecodeLocaleAndSize([]byte{'x', 0}, ffi.SurrogateEscape)
	assert.ErrorIs(t, err, ErrLocaleNotInitialized)
	assert.Zero(t, rt.Stats().Allocs)

	require.NoError(t, rt.SetLocale("en_US.UTF-8"))
	assert.Equal(t, "UTF-8", rt.Locale())
	rt.ResetLocale()
	assert.Empty(t, rt.Locale())
}

func TestRawFreeMismatchPanics(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	p, err := rt.DecodeLocale([]byte{'x', 0})
	require.NoError(t, err)
	rt.RawFree(p)

	assert.Panics(t, func() { rt.RawFree(p) }, "double free")
	assert.Panics(t, func() { rt.RawFree(p + 4) }, "interior pointer")

	obj, err := rt.BytesFromStringAndSize([]byte("payload"))
	require.NoError(t, err)
	defer obj.Release()
	ptr := obj.(*object)
	payload := rt.objects[ptr.id].ptr
	assert.Panics(t, func() { rt.RawFree(ffi.WidePtr(payload)) }, "object payload")
}

func TestDecodeLocaleAndSize(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	obj, err := rt.DecodeLocaleAndSize([]byte("caf\xc3\xa9\x00"), ffi.SurrogateEscape)
	require.NoError(t, err)
	assert.Equal(t, ffi.KindText, obj.Kind())
	cps, err := rt.CodePoints(obj)
	require.NoError(t, err)
	assert.Equal(t, []rune("café"), cps)
	obj.Release()

	obj, err = rt.DecodeLocaleAndSize([]byte{0xFF, 0}, ffi.SurrogateEscape)
	require.NoError(t, err)
	cps, err = rt.CodePoints(obj)
	require.NoError(t, err)
	assert.Equal(t, []rune{0xDCFF}, cps)
	obj.Release()

	_, err = rt.DecodeLocaleAndSize([]byte{0xFF, 0}, ffi.Strict)
	var de *locale.DecodeError
	assert.ErrorAs(t, err, &de)

	_, err = rt.DecodeLocaleAndSize([]byte{'a', 0, 'b', 0}, ffi.SurrogateEscape)
	assert.ErrorIs(t, err, ErrEmbeddedNull)

	_, err = rt.DecodeLocaleAndSize([]byte("ab"), ffi.SurrogateEscape)
	assert.ErrorIs(t, err, ErrNotTerminated)

	_, err = rt.DecodeLocaleAndSize([]byte{'a', 0}, ffi.SurrogatePass)
	assert.ErrorIs(t, err, ErrUnsupportedHandler)

	st := rt.Stats()
	assert.Zero(t, st.Objects)
	assert.Equal(t, st.Allocs, st.Frees)
}

func TestEmptyStringObject(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	obj, err := rt.DecodeLocaleAndSize([]byte{0}, ffi.SurrogateEscape)
	require.NoError(t, err)
	cps, err := rt.CodePoints(obj)
	require.NoError(t, err)
	assert.Empty(t, cps)
	obj.Release()
}

func TestFromWideChar(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})

	tests := []struct {
		name  string
		units []uint16
		want  []rune
	}{
		{"bmp", []uint16{'h', 'i'}, []rune("hi")},
		{"pair", []uint16{0xD83D, 0xDE00}, []rune{0x1F600}},
		{"lone high", []uint16{'a', 0xD800}, []rune{'a', 0xD800}},
		{"lone low", []uint16{0xDC00, 'b'}, []rune{0xDC00, 'b'}},
		{"reversed pair", []uint16{0xDE00, 0xD83D}, []rune{0xDE00, 0xD83D}},
		{"nul unit", []uint16{'a', 0, 'b'}, []rune{'a', 0, 'b'}},
		{"empty", nil, []rune{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked(t, rt)

			obj, err := rt.FromWideChar(tt.units)
			require.NoError(t, err)
			defer obj.Release()

			cps, err := rt.CodePoints(obj)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cps)

			units, err := rt.AsUTF16(obj)
			require.NoError(t, err)
			if len(tt.units) == 0 {
				assert.Empty(t, units)
			} else {
				assert.Equal(t, tt.units, units)
			}
		})
	}
}

func TestBytesObject(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	in := []byte{0, 1, 0xFF, 0}
	obj, err := rt.BytesFromStringAndSize(in)
	require.NoError(t, err)
	defer obj.Release()
	assert.Equal(t, ffi.KindBytes, obj.Kind())

	in[0] = 9
	got, err := rt.BytesData(obj)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 0xFF, 0}, got, "payload is a copy")

	_, err = rt.CodePoints(obj)
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = rt.EncodeLocale(obj, ffi.SurrogateEscape)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestEncodeLocaleInverts(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	raw := []byte{'a', 0xC3, 0xA9, 0x80, 0xFF}
	obj, err := rt.DecodeLocaleAndSize(append(append([]byte{}, raw...), 0), ffi.SurrogateEscape)
	require.NoError(t, err)
	defer obj.Release()

	back, err := rt.EncodeLocale(obj, ffi.SurrogateEscape)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = rt.EncodeLocale(obj, ffi.Strict)
	var ee *locale.EncodeError
	assert.ErrorAs(t, err, &ee)
}

func TestForeignObjectRejected(t *testing.T) {
	a := newRuntime(t, Options{Locale: "UTF-8"})
	b := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, a)
	locked(t, b)

	obj, err := a.BytesFromStringAndSize([]byte("x"))
	require.NoError(t, err)
	defer obj.Release()

	_, err = b.BytesData(obj)
	assert.ErrorIs(t, err, ErrForeignObject)
}

func TestReleaseTwicePanics(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	obj, err := rt.BytesFromStringAndSize(nil)
	require.NoError(t, err)
	obj.Release()
	assert.Panics(t, obj.Release)

	_, err = rt.BytesData(obj)
	assert.Error(t, err)
}

func TestLockEnforced(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})

	_, err := rt.DecodeLocale([]byte{'x', 0})
	assert.ErrorIs(t, err, ErrLockNotHeld)
	_, err = rt.BytesFromStringAndSize([]byte("x"))
	assert.ErrorIs(t, err, ErrLockNotHeld)
	_, err = rt.FromWideChar([]uint16{'x'})
	assert.ErrorIs(t, err, ErrLockNotHeld)
	assert.Panics(t, func() { rt.RawFree(16) })

	release := rt.Acquire()
	obj, err := rt.BytesFromStringAndSize([]byte("x"))
	require.NoError(t, err)
	release()
	release()

	assert.Panics(t, obj.Release, "release outside the lock")

	release = rt.Acquire()
	obj.Release()
	release()
}

func TestLockHeldByAnotherGoroutine(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	type result struct {
		p   ffi.WidePtr
		err error
	}
	done := make(chan result)
	go func() {
		p, err := rt.DecodeLocale([]byte{'x', 0})
		done <- result{p, err}
	}()
	r := <-done
	assert.ErrorIs(t, r.err, ErrLockNotHeld)
	assert.Zero(t, r.p)
	assert.Zero(t, rt.Stats().WideBuffers)

	obj, err := rt.BytesFromStringAndSize([]byte("x"))
	require.NoError(t, err)
	panicked := make(chan bool)
	go func() {
		defer func() { panicked <- recover() != nil }()
		obj.Release()
	}()
	assert.True(t, <-panicked, "release from a goroutine without the lock")
	obj.Release()
}

func TestAllowUnlocked(t *testing.T) {
	rt := newRuntime(t, Options{Locale: "UTF-8", AllowUnlocked: true})

	p, err := rt.DecodeLocale([]byte{'x', 0})
	require.NoError(t, err)
	rt.RawFree(p)
}

func TestUnsupportedLocale(t *testing.T) {
	_, err := New(context.Background(), Options{Locale: "ja_JP.UTF-16"})
	assert.ErrorIs(t, err, locale.ErrUnsupported)
}

func TestRawFreeLogsMismatch(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	rt := newRuntime(t, Options{Locale: "UTF-8"})
	locked(t, rt)

	assert.Panics(t, func() { rt.RawFree(1024) })
	entries := logs.FilterMessage("raw free of unknown pointer").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1024, entries[0].ContextMap()["ptr"])
}
