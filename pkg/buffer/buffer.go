// Package buffer implements the byte buffer handled by the shell: parsing of
// user literals (hex, ASCII or UTF-16) and the hex renderings printed back.
package buffer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
)

// Mode selects how a literal token is turned into bytes.
type Mode int

const (
	// Hex reads the token as pairs of hexadecimal digits.
	Hex Mode = iota
	// ASCII takes one byte per character.
	ASCII
	// Unicode encodes every character as a UTF-16LE pair.
	Unicode
)

func (m Mode) String() string {
	switch m {
	case Hex:
		return "hex"
	case ASCII:
		return "ascii"
	case Unicode:
		return "unicode"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps the shell keyword (hex, ascii, unicode) to a Mode.
func ParseMode(word string) (Mode, bool) {
	switch word {
	case "hex":
		return Hex, true
	case "ascii":
		return ASCII, true
	case "unicode":
		return Unicode, true
	}
	return 0, false
}

// FormatError reports a literal that cannot be read as bytes.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid literal %q: %s", e.Input, e.Reason)
}

var utf16LE = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)

// Bytes is an ordered sequence of octets with the renderings used by the shell.
type Bytes []byte

// Parse converts a single literal token according to mode.
func Parse(token string, mode Mode) (Bytes, error) {
	switch mode {
	case Hex:
		return ParseHex(token)
	case ASCII:
		return Bytes(token), nil
	case Unicode:
		encoded, err := utf16LE.NewEncoder().String(token)
		if err != nil {
			return nil, &FormatError{Input: token, Reason: err.Error()}
		}
		return Bytes(encoded), nil
	default:
		return nil, fmt.Errorf("unsupported literal mode %s", mode)
	}
}

// ParseHex decodes a hexadecimal literal. Odd lengths and non-hex characters
// are rejected with a *FormatError.
func ParseHex(token string) (Bytes, error) {
	data, err := hex.DecodeString(token)
	if err == nil {
		return Bytes(data), nil
	}

	var invalid hex.InvalidByteError
	switch {
	case errors.As(err, &invalid):
		return nil, &FormatError{Input: token, Reason: fmt.Sprintf("%q is not a hex digit", rune(invalid))}
	case errors.Is(err, hex.ErrLength):
		return nil, &FormatError{Input: token, Reason: "odd number of hex digits"}
	default:
		return nil, &FormatError{Input: token, Reason: err.Error()}
	}
}

// Join parses every token with the same mode and concatenates the results.
// Tokens are not separated in the output: "00 a4" and "00a4" are the same.
func Join(tokens []string, mode Mode) (Bytes, error) {
	var out Bytes
	for _, token := range tokens {
		b, err := Parse(token, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Append returns a new buffer holding b followed by every other buffer.
func (b Bytes) Append(others ...Bytes) Bytes {
	n := len(b)
	for _, o := range others {
		n += len(o)
	}
	out := make(Bytes, 0, n)
	out = append(out, b...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Slice returns a copy of length bytes starting at offset, clamped to the
// buffer bounds.
func (b Bytes) Slice(offset, length int) Bytes {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b) {
		offset = len(b)
	}
	end := offset + length
	if length < 0 || end > len(b) {
		end = len(b)
	}
	return append(Bytes(nil), b[offset:end]...)
}

// Left returns the first n bytes.
func (b Bytes) Left(n int) Bytes {
	return b.Slice(0, n)
}

// Print writes the buffer as uppercase hex pairs joined by sep.
func (b Bytes) Print(w io.Writer, sep string) error {
	_, err := io.WriteString(w, b.Join(sep))
	return err
}

// Join renders the buffer as uppercase hex pairs joined by sep.
func (b Bytes) Join(sep string) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * (2 + len(sep)))
	for i, v := range b {
		if i > 0 {
			sb.WriteString(sep)
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}

// Hex renders the buffer as contiguous uppercase hex.
func (b Bytes) Hex() string {
	return b.Join("")
}

// String renders the buffer as space separated uppercase hex pairs.
func (b Bytes) String() string {
	return b.Join(" ")
}

// AllASCII reports whether the buffer is non-empty and every byte is a
// printable ASCII character.
func (b Bytes) AllASCII() bool {
	if len(b) == 0 {
		return false
	}
	for _, v := range b {
		if v < 0x20 || v > 0x7E {
			return false
		}
	}
	return true
}

// ASCII returns the buffer as text when AllASCII holds, "" otherwise.
func (b Bytes) ASCII() string {
	if !b.AllASCII() {
		return ""
	}
	return string(b)
}
