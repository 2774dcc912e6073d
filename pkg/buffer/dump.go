package buffer

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const dumpRowSize = 16

// Dump writes a conventional hex dump: offset, 16 hex pairs split in two
// groups of 8, and an ASCII gutter. An empty buffer writes nothing.
func (b Bytes) Dump(w io.Writer) error {
	for off := 0; off < len(b); off += dumpRowSize {
		end := min(off+dumpRowSize, len(b))
		if _, err := io.WriteString(w, dumpRow(off, b[off:end])); err != nil {
			return err
		}
	}
	return nil
}

func dumpRow(offset int, row []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04X ", offset)
	for i := 0; i < dumpRowSize; i++ {
		if i == dumpRowSize/2 {
			sb.WriteByte(' ')
		}
		if i < len(row) {
			fmt.Fprintf(&sb, " %02X", row[i])
		} else {
			sb.WriteString("   ")
		}
	}
	sb.WriteString("  ")
	sb.WriteString(MakeSafeASCII(row))
	sb.WriteByte('\n')
	return sb.String()
}

// MakeSafeASCII replaces every non printable byte by a dot.
func MakeSafeASCII(data []byte) string {
	out := make([]byte, len(data))
	for i, c := range data {
		if c >= 32 && c <= 126 {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// MustHex constructs a byte slice from a series of hex strings.
// It is meant for literals known to be valid and panics otherwise.
func MustHex(parts ...string) []byte {
	fullHex := strings.Join(parts, "")
	// Clean up spaces to allow format like "00 A4 04 00"
	cleanHex := strings.ReplaceAll(fullHex, " ", "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}
