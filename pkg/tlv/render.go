package tlv

import (
	"fmt"
	"io"
	"strings"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

const rowSize = 16

// Render writes the tree of list depth first. Each node opens with
// "* TAG (len) name" and a "|\" line and closes with "|/". Primitive values
// are printed in rows of 16 bytes followed by an ASCII line when the value is
// printable text. Nested levels are prefixed with "| " per depth and the
// top level list ends with a blank line.
//
// When a constructed value is malformed, rendering stops after the part decoded
// before the fault and the *MalformedError is returned.
func Render(w io.Writer, list List, dict Dictionary) error {
	r := &renderer{w: w, dict: dict}
	r.list(list, 0)
	r.line("")
	if r.werr != nil {
		return r.werr
	}
	return r.decodeErr
}

type renderer struct {
	w         io.Writer
	dict      Dictionary
	werr      error
	decodeErr error
}

func (r *renderer) line(format string, args ...any) {
	if r.werr != nil {
		return
	}
	_, r.werr = fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *renderer) list(list List, depth int) {
	prefix := strings.Repeat("| ", depth)
	for _, n := range list {
		if r.decodeErr != nil {
			return
		}
		r.line("%s* %s (%d) %s", prefix, buffer.Bytes(n.Tag), n.Length, r.dict.Name(n.Tag))
		r.line("%s|\\", prefix)

		if n.Tag.Constructed() {
			children, err := n.Children()
			r.list(children, depth+1)
			if err != nil {
				r.decodeErr = err
				return
			}
		} else {
			for off := 0; off < len(n.Value); off += rowSize {
				r.line("%s| > %s", prefix, n.Value.Slice(off, rowSize))
			}
			if n.Value.AllASCII() {
				r.line("%s| > ASCII: %s", prefix, n.Value.ASCII())
			}
		}

		r.line("%s|/", prefix)
	}
}
