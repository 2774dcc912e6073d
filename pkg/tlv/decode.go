// Package tlv decodes BER-TLV data objects as used by ISO/IEC 7816-4 and EMV,
// renders them as a tree, and maps them onto Go structures with struct tags.
package tlv

import (
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/bits"
	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

// maxLengthBytes is the largest long form length header accepted (0x84).
const maxLengthBytes = 4

// Tag holds the raw tag bytes of a data object.
type Tag []byte

// Constructed reports whether bit 6 of the first tag byte is set, meaning the
// value is itself a list of data objects.
func (t Tag) Constructed() bool {
	return len(t) > 0 && bits.IsSet(t[0], 6)
}

// String returns the tag as contiguous uppercase hex, e.g. "9F38".
func (t Tag) String() string {
	return buffer.Bytes(t).Hex()
}

// Node is one decoded data object.
type Node struct {
	Tag    Tag
	Length int
	Value  buffer.Bytes
}

// Children decodes the value of a constructed node. Primitive nodes have no
// children. The decoded part is returned even when an error is reported.
func (n Node) Children() (List, error) {
	if !n.Tag.Constructed() {
		return nil, nil
	}
	return Decode(n.Value)
}

// List is an ordered sequence of sibling data objects.
type List []Node

// Find returns the first node of the list carrying tag.
func (l List) Find(tag string) (Node, bool) {
	for _, n := range l {
		if n.Tag.String() == tag {
			return n, true
		}
	}
	return Node{}, false
}

// MalformedError describes the first encoding fault met by Decode.
type MalformedError struct {
	Offset    int // position of the faulty object in the decoded input
	Tag       Tag
	Length    int
	Remaining int
	Reason    string
}

func (e *MalformedError) Error() string {
	if len(e.Tag) == 0 {
		return fmt.Sprintf("malformed TLV at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed TLV at offset %d (tag %s, length %d, %d bytes left): %s",
		e.Offset, e.Tag, e.Length, e.Remaining, e.Reason)
}

// Decode reads a list of BER-TLV data objects until data is exhausted.
// On a malformed object it returns the objects decoded so far together with a
// *MalformedError.
func Decode(data []byte) (List, error) {
	var list List
	pos := 0
	for pos < len(data) {
		node, next, err := decodeOne(data, pos)
		if err != nil {
			return list, err
		}
		list = append(list, node)
		pos = next
	}
	return list, nil
}

func decodeOne(data []byte, start int) (Node, int, error) {
	pos := start

	// Tag: multi-byte when bits 5-1 are all set, then continues while bit 8 is set.
	tagStart := pos
	pos++
	if bits.Field(data[tagStart], 5, 1) == 0x1F {
		for {
			if pos >= len(data) {
				return Node{}, 0, &MalformedError{Offset: start, Reason: "truncated tag"}
			}
			b := data[pos]
			pos++
			if !bits.IsSet(b, 8) {
				break
			}
		}
	}
	tag := Tag(append([]byte(nil), data[tagStart:pos]...))

	if pos >= len(data) {
		return Node{}, 0, &MalformedError{Offset: start, Tag: tag, Reason: "missing length"}
	}
	length := int(data[pos])
	pos++
	if bits.IsSet(byte(length), 8) {
		n := length & 0x7F
		switch {
		case n == 0:
			return Node{}, 0, &MalformedError{Offset: start, Tag: tag, Reason: "indefinite length is not supported"}
		case n > maxLengthBytes:
			return Node{}, 0, &MalformedError{Offset: start, Tag: tag, Reason: fmt.Sprintf("%d length bytes", n)}
		case pos+n > len(data):
			return Node{}, 0, &MalformedError{Offset: start, Tag: tag, Remaining: len(data) - pos, Reason: "truncated length"}
		}
		length = 0
		for _, b := range data[pos : pos+n] {
			length = length<<8 | int(b)
		}
		pos += n
	}

	remaining := len(data) - pos
	if length > remaining {
		return Node{}, 0, &MalformedError{
			Offset:    start,
			Tag:       tag,
			Length:    length,
			Remaining: remaining,
			Reason:    "value overruns the buffer",
		}
	}

	value := buffer.Bytes(data[pos : pos+length]).Slice(0, length)
	return Node{Tag: tag, Length: length, Value: value}, pos + length, nil
}
