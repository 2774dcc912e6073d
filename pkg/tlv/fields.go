package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

var packetsType = reflect.TypeOf([]bertlv.TLV{})

// WriteStructFields appends one "    - prefix.Field (tag): value" line per
// non-empty []byte field of s, then one line per unclaimed packet. The
// block is separated from previous content of sb by a newline and has no
// trailing newline. The `fmt` struct tag selects "ascii" or "int" rendering.
func WriteStructFields(sb *strings.Builder, prefix string, s any) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	typ := val.Type()
	var lines []string
	for i := 0; i < val.NumField(); i++ {
		field, meta := val.Field(i), typ.Field(i)
		switch {
		case isByteSlice(field):
			if field.Len() == 0 {
				continue
			}
			name := meta.Name
			if tag := meta.Tag.Get("tlv"); tag != "" {
				name = fmt.Sprintf("%s (%s)", name, tag)
			}
			lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, name, formatValue(field.Bytes(), meta.Tag.Get("fmt"))))
		case field.Type() == packetsType:
			for _, p := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s", prefix, p.Tag, buffer.Bytes(p.Value).Hex()))
			}
		}
	}

	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

func formatValue(data []byte, format string) string {
	hexText := buffer.Bytes(data).Hex()
	switch format {
	case "ascii":
		return fmt.Sprintf("%s (%q)", hexText, buffer.MakeSafeASCII(data))
	case "int":
		var n int
		for _, b := range data {
			n = n<<8 | int(b)
		}
		return fmt.Sprintf("%s (Dec: %d)", hexText, n)
	default:
		return hexText
	}
}
