// Package locale resolves the active locale codeset and implements the
// locale codecs the reference runtime decodes host bytes with.
//
// Every codec supports the strict and surrogate-escape error modes. Under
// surrogate-escape an undecodable byte b (0x80..0xFF) decodes to the lone
// surrogate U+DC00+b, and encoding maps such code points back to b, so any
// byte sequence survives a decode/encode round trip.
package locale

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// Mode selects how a codec reacts to unmappable input.
type Mode int

const (
	Strict Mode = iota
	SurrogateEscape
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case SurrogateEscape:
		return "surrogateescape"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Codec decodes locale bytes to code points and back.
type Codec interface {
	Name() string
	Decode(b []byte, mode Mode) ([]rune, error)
	Encode(r []rune, mode Mode) ([]byte, error)
}

// ErrUnsupported reports a codeset the package has no codec for.
var ErrUnsupported = errors.New("locale: unsupported codeset")

// DecodeError reports an undecodable byte under the strict mode.
type DecodeError struct {
	Codec  string
	Offset int
	Byte   byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("locale: %s cannot decode byte 0x%02x at offset %d", e.Codec, e.Byte, e.Offset)
}

// EncodeError reports a code point the codec cannot represent.
type EncodeError struct {
	Codec  string
	Offset int
	Rune   rune
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("locale: %s cannot encode U+%04X at offset %d", e.Codec, e.Rune, e.Offset)
}

const (
	escapeBase = 0xDC00
	escapeLow  = 0xDC80
	escapeHigh = 0xDCFF
)

// Escape returns the surrogate-escape code point for an undecodable byte.
func Escape(b byte) rune { return escapeBase + rune(b) }

// Unescape reverses Escape for code points in U+DC80..U+DCFF.
func Unescape(r rune) (byte, bool) {
	if r < escapeLow || r > escapeHigh {
		return 0, false
	}
	return byte(r - escapeBase), true
}

func isSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDFFF }

// Lookup returns the codec for a codeset name such as "UTF-8",
// "ANSI_X3.4-1968" or "ISO-8859-15". Full locale names like "de_DE.UTF-8"
// and the "C"/"POSIX" locales are accepted too.
func Lookup(name string) (Codec, error) {
	if c, err := lookupCodeset(name); err == nil {
		return c, nil
	}
	codeset := Codeset(name)
	c, err := lookupCodeset(codeset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return c, nil
}

func lookupCodeset(name string) (Codec, error) {
	switch normalize(name) {
	case "utf8":
		return UTF8, nil
	case "ascii", "usascii", "ansix3.41968", "646":
		return ASCII, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	cm, ok := enc.(*charmap.Charmap)
	if !ok || cm == nil {
		return nil, ErrUnsupported
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return &charmapCodec{name: canonical, cm: cm}, nil
}

func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("-", "", "_", "").Replace(name)
}

// Codeset extracts the codeset from a locale name of the form
// language[_territory][.codeset][@modifier]. The "C" and "POSIX" locales
// select UTF-8 (the interpreter's UTF-8 mode); a locale without an explicit
// codeset selects ISO-8859-1, as glibc does for legacy locales.
func Codeset(locale string) string {
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	switch locale {
	case "", "C", "POSIX":
		return "UTF-8"
	}
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		return locale[i+1:]
	}
	return "ISO-8859-1"
}

// FromEnv returns the locale name in effect according to LC_ALL, LC_CTYPE and
// LANG, in that order of precedence. lookup is usually os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
	}
	return "C"
}

// FromEnvironment resolves the codec of the process environment.
func FromEnvironment() (Codec, error) {
	return Lookup(FromEnv(os.LookupEnv))
}
