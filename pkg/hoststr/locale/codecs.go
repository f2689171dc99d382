package locale

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// UTF8 is the UTF-8 codec. Overlong forms and encoded surrogates are
	// undecodable.
	UTF8 Codec = utf8Codec{}

	// ASCII is the 7-bit US-ASCII codec.
	ASCII Codec = asciiCodec{}
)

// undecodable handles byte b at offset i that the codec cannot map.
func undecodable(codec string, out []rune, b byte, i int, mode Mode) ([]rune, error) {
	if mode == SurrogateEscape && b >= 0x80 {
		return append(out, Escape(b)), nil
	}
	return nil, &DecodeError{Codec: codec, Offset: i, Byte: b}
}

// escaped maps r back to its original byte when mode allows it.
func escaped(r rune, mode Mode) (byte, bool) {
	if mode != SurrogateEscape {
		return 0, false
	}
	return Unescape(r)
}

type utf8Codec struct{}

func (utf8Codec) Name() string { return "UTF-8" }

func (c utf8Codec) Decode(b []byte, mode Mode) ([]rune, error) {
	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			out = append(out, rune(b[i]))
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			var err error
			if out, err = undecodable(c.Name(), out, b[i], i, mode); err != nil {
				return nil, err
			}
			i++
			continue
		}
		out = append(out, r)
		i += size
	}
	return out, nil
}

func (c utf8Codec) Encode(rs []rune, mode Mode) ([]byte, error) {
	out := make([]byte, 0, len(rs))
	for i, r := range rs {
		if b, ok := escaped(r, mode); ok {
			out = append(out, b)
			continue
		}
		if isSurrogate(r) || r < 0 || r > utf8.MaxRune {
			return nil, &EncodeError{Codec: c.Name(), Offset: i, Rune: r}
		}
		out = utf8.AppendRune(out, r)
	}
	return out, nil
}

type asciiCodec struct{}

func (asciiCodec) Name() string { return "US-ASCII" }

func (c asciiCodec) Decode(b []byte, mode Mode) ([]rune, error) {
	out := make([]rune, 0, len(b))
	for i, x := range b {
		if x < utf8.RuneSelf {
			out = append(out, rune(x))
			continue
		}
		var err error
		if out, err = undecodable(c.Name(), out, x, i, mode); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c asciiCodec) Encode(rs []rune, mode Mode) ([]byte, error) {
	out := make([]byte, 0, len(rs))
	for i, r := range rs {
		if b, ok := escaped(r, mode); ok {
			out = append(out, b)
			continue
		}
		if r < 0 || r >= utf8.RuneSelf {
			return nil, &EncodeError{Codec: c.Name(), Offset: i, Rune: r}
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// charmapCodec covers the single-byte codesets of golang.org/x/text.
// Bytes a charmap leaves undefined decode to U+FFFD there and are treated as
// undecodable here.
type charmapCodec struct {
	name string
	cm   *charmap.Charmap
}

func (c *charmapCodec) Name() string { return c.name }

func (c *charmapCodec) Decode(b []byte, mode Mode) ([]rune, error) {
	out := make([]rune, 0, len(b))
	for i, x := range b {
		r := c.cm.DecodeByte(x)
		if r != utf8.RuneError {
			out = append(out, r)
			continue
		}
		var err error
		if out, err = undecodable(c.name, out, x, i, mode); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *charmapCodec) Encode(rs []rune, mode Mode) ([]byte, error) {
	out := make([]byte, 0, len(rs))
	for i, r := range rs {
		if b, ok := escaped(r, mode); ok {
			out = append(out, b)
			continue
		}
		b, ok := c.cm.EncodeRune(r)
		if !ok || r == utf8.RuneError {
			return nil, &EncodeError{Codec: c.name, Offset: i, Rune: r}
		}
		out = append(out, b)
	}
	return out, nil
}
