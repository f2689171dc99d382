package hoststr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSStringCopiesUnits(t *testing.T) {
	b := []byte("abc")
	s := FromBytes(b)
	b[0] = 'x'
	assert.Equal(t, []byte("abc"), s.Bytes())

	out := s.Bytes()
	out[0] = 'y'
	assert.Equal(t, []byte("abc"), s.Bytes())

	w := []uint16{'a', 'b'}
	ws := FromUTF16(w)
	w[0] = 'x'
	assert.Equal(t, []uint16{'a', 'b'}, ws.UTF16())
}

func TestOSStringModel(t *testing.T) {
	var zero OSString
	assert.Equal(t, ModelPOSIX, zero.Model())
	assert.Zero(t, zero.Len())
	assert.True(t, zero.Equal(FromBytes(nil)))

	p := FromBytes([]byte{1, 2, 3})
	w := FromUTF16([]uint16{1, 2, 3})
	assert.Equal(t, "posix", p.Model().String())
	assert.Equal(t, "windows", w.Model().String())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, w.Len())
	assert.Nil(t, p.UTF16())
	assert.Nil(t, w.Bytes())
	assert.False(t, p.Equal(w))
}

func TestOSStringNativeBytes(t *testing.T) {
	p := FromBytes([]byte{0xFF, 0})
	assert.Equal(t, []byte{0xFF, 0}, p.NativeBytes())

	w := FromUTF16([]uint16{0xD800, 0x0041})
	nb := w.NativeBytes()
	assert.Len(t, nb, 4)
	assert.Equal(t, uint16(0xD800), binary.NativeEndian.Uint16(nb[0:]))
	assert.Equal(t, uint16(0x0041), binary.NativeEndian.Uint16(nb[2:]))
	assert.Equal(t, []uint16{0xD800, 0x0041}, unitsFromNative(nb))

	assert.Equal(t, []byte{}, FromUTF16(nil).NativeBytes())
}

func TestOSStringString(t *testing.T) {
	assert.Equal(t, "caf\xc3\xa9", FromBytes([]byte("café")).String())
	assert.Equal(t, "a�b", FromUTF16([]uint16{'a', 0xDC00, 'b'}).String())
}
