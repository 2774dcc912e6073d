package iso7816

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
	"github.com/gregLibert/smart-card-shell/pkg/tlv"
)

// Command APDU cases (ISO/IEC 7816-3 §12.1.3), Lc and Le on one byte (short)
// or with a 00 marker and two bytes (extended):
//
//	case 1   CLA INS P1 P2
//	case 2   CLA INS P1 P2 Le
//	case 3   CLA INS P1 P2 Lc Data
//	case 4   CLA INS P1 P2 Lc Data Le
//
// A response APDU is optional data followed by SW1 SW2.

// Length limits.
const (
	MaxShortLc    = 255
	MaxShortLe    = 256 // encoded 00
	MaxExtendedLc = 65535
	MaxExtendedLe = 65536 // encoded 0000
)

// CommandAPDU is a command to the card. Ne is the expected response length,
// 0 when no data is expected.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int

	// Extended forces extended length fields even when short ones suffice.
	Extended bool
}

// NewCommandAPDU builds a command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command, using extended lengths when Data exceeds 255
// bytes, Ne exceeds 256 or Extended is set.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc, ne := len(c.Data), c.Ne
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes", nc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("expected length %d out of range", ne)
	}

	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	var buf bytes.Buffer
	buf.Write([]byte{cla, byte(c.Instruction.Raw), c.P1, c.P2})

	extended := c.Extended || nc > MaxShortLc || ne > MaxShortLe

	if nc > 0 {
		if extended {
			buf.Write([]byte{0x00, byte(nc >> 8), byte(nc)})
		} else {
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	if ne > 0 {
		switch {
		case !extended:
			buf.WriteByte(byte(ne)) // 256 wraps to 00
		case nc == 0:
			buf.Write([]byte{0x00, byte(ne >> 8), byte(ne)})
		default:
			buf.Write([]byte{byte(ne >> 8), byte(ne)}) // 65536 wraps to 0000
		}
	}

	return buf.Bytes(), nil
}

// String summarizes the command on one line.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ParseCommandAPDU decodes a raw command into one of the four cases, short
// or extended. CLA and INS are not validated so that any byte string typed
// by a user that has a consistent length can be described.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("command too short: %d bytes", len(raw))
	}

	cmd := &CommandAPDU{
		Class:       ParseClass(raw[0]),
		Instruction: ParseInstruction(raw[1]),
		P1:          raw[2],
		P2:          raw[3],
	}
	body := raw[4:]

	switch {
	case len(body) == 0:
		return cmd, nil

	case len(body) == 1:
		cmd.Ne = shortLe(body[0])
		return cmd, nil

	case body[0] != 0:
		lc := int(body[0])
		switch len(body) {
		case 1 + lc:
			cmd.Data = append([]byte(nil), body[1:]...)
		case 2 + lc:
			cmd.Data = append([]byte(nil), body[1:1+lc]...)
			cmd.Ne = shortLe(body[1+lc])
		default:
			return nil, fmt.Errorf("Lc %d inconsistent with %d body bytes", lc, len(body))
		}
		return cmd, nil

	case len(body) == 3:
		cmd.Extended = true
		cmd.Ne = extendedLe(body[1], body[2])
		return cmd, nil

	case len(body) > 3:
		cmd.Extended = true
		lc := int(body[1])<<8 | int(body[2])
		if lc == 0 {
			return nil, fmt.Errorf("extended Lc of zero")
		}
		switch len(body) {
		case 3 + lc:
			cmd.Data = append([]byte(nil), body[3:]...)
		case 5 + lc:
			cmd.Data = append([]byte(nil), body[3:3+lc]...)
			cmd.Ne = extendedLe(body[3+lc], body[4+lc])
		default:
			return nil, fmt.Errorf("extended Lc %d inconsistent with %d body bytes", lc, len(body))
		}
		return cmd, nil
	}

	return nil, fmt.Errorf("invalid command body of %d bytes", len(body))
}

func shortLe(b byte) int {
	if b == 0 {
		return MaxShortLe
	}
	return int(b)
}

func extendedLe(hi, lo byte) int {
	n := int(hi)<<8 | int(lo)
	if n == 0 {
		return MaxExtendedLe
	}
	return n
}

// ResponseAPDU is the card answer.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw into data and status word. At least SW1 SW2
// must be present.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}
	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   append([]byte(nil), raw[:n]...),
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// SW2 returns the low status byte.
func (r *ResponseAPDU) SW2() byte {
	return r.Status.SW2()
}

// Bytes returns the full response, data followed by SW1 SW2.
func (r *ResponseAPDU) Bytes() buffer.Bytes {
	return buffer.Bytes(r.Data).Append(buffer.Bytes{r.Status.SW1(), r.Status.SW2()})
}

// TLV decodes the data field.
func (r *ResponseAPDU) TLV() (tlv.List, error) {
	return tlv.Decode(r.Data)
}

// String summarizes the response on one line.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
