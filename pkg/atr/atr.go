// Package atr decodes an Answer To Reset following the ISO/IEC 7816-3
// grammar and reports it one consumed byte per line.
package atr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gregLibert/smart-card-shell/pkg/bits"
)

// ErrTruncated is returned when the ATR ends before every announced byte.
var ErrTruncated = errors.New("truncated ATR")

// Convention is the TS byte meaning.
type Convention int

const (
	Unexpected Convention = iota
	Direct
	Inverse
)

// Interface is an interface byte TAi, TBi, TCi or TDi.
type Interface struct {
	Kind  byte // 'A', 'B', 'C' or 'D'
	Index int
	Value byte
}

// Name returns the ISO name of the byte, e.g. "TD2".
func (i Interface) Name() string {
	return fmt.Sprintf("T%c%d", i.Kind, i.Index)
}

// ClockRate holds the TA1 decode. D and F are zero when their code is not
// assigned; an unassigned F means the internal clock is used.
type ClockRate struct {
	D    int
	F    int
	FMax float32 // MHz
	ETU  float32
}

// Programming holds the TB1 decode. I is zero when the code is reserved.
type Programming struct {
	I   int // mA
	PI1 int
}

// ATR is the decoded Answer To Reset.
type ATR struct {
	Raw        []byte
	TS         byte
	Convention Convention
	T0         byte
	K          int
	Interfaces []Interface

	TA1 *ClockRate
	TB1 *Programming
	TC1 *int // extra guard time N

	// Protocols lists the T values of the TDi bytes, in order. An ATR without
	// TD1 implies T=0 and leaves this empty.
	Protocols  []int
	Historical []byte

	TCK      *byte
	Checksum byte // XOR of T0 up to TCK, zero when valid

	report []string
}

var dValues = map[byte]int{1: 1, 2: 2, 3: 4, 4: 8, 5: 16, 6: 32, 7: 64, 8: 12, 9: 20}

var fValues = map[byte]struct {
	f    int
	fmax float32
}{
	1: {372, 5}, 2: {558, 6}, 3: {744, 8}, 4: {1116, 12}, 5: {1488, 16}, 6: {1860, 20},
	9: {512, 5}, 10: {768, 7.5}, 11: {1024, 10}, 12: {1536, 15}, 13: {2048, 20},
}

var iValues = map[byte]int{0: 25, 1: 50, 2: 100}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) next() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, fmt.Errorf("%w: %d bytes, byte %d missing", ErrTruncated, len(c.data), c.pos+1)
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// Parse decodes raw in a single pass. On a truncated ATR it returns what was
// decoded so far together with an error wrapping ErrTruncated.
func Parse(raw []byte) (*ATR, error) {
	a := &ATR{Raw: append([]byte(nil), raw...)}
	err := a.parse(&cursor{data: a.Raw})
	return a, err
}

func (a *ATR) parse(c *cursor) error {
	var err error
	if a.TS, err = c.next(); err != nil {
		return err
	}
	switch a.TS {
	case 0x3B:
		a.Convention = Direct
		a.add("TS  = 3B | Direct convention")
	case 0x3F:
		a.Convention = Inverse
		a.add("TS  = 3F | Inverse convention")
	default:
		a.add("TS  = %02X | Unexpected value", a.TS)
	}

	if a.T0, err = c.next(); err != nil {
		return err
	}
	a.K = int(bits.Low(a.T0))
	a.add("T0  = %02X | %spresent, and %d historical bytes", a.T0, presence(a.T0, 1), a.K)

	if bits.IsSet(a.T0, 5) {
		b, err := a.read(c, 'A', 1)
		if err != nil {
			return err
		}
		a.TA1 = clockRate(b)
		a.add("TA1 = %02X | %s", b, a.TA1)
	}

	if bits.IsSet(a.T0, 6) {
		b, err := a.read(c, 'B', 1)
		if err != nil {
			return err
		}
		a.TB1 = &Programming{I: iValues[bits.Field(b, 7, 6)], PI1: int(bits.Field(b, 5, 1))}
		a.add("TB1 = %02X | %s", b, a.TB1)
	}

	if bits.IsSet(a.T0, 7) {
		b, err := a.read(c, 'C', 1)
		if err != nil {
			return err
		}
		n := int(b)
		a.TC1 = &n
		a.add("TC1 = %02X | N = %d", b, n)
	}

	if !bits.IsSet(a.T0, 8) {
		a.add("TD1 is not present, protocol is T=0")
	} else if err := a.parseChain(c); err != nil {
		return err
	}

	for i := 0; i < a.K; i++ {
		b, err := c.next()
		if err != nil {
			return err
		}
		a.Historical = append(a.Historical, b)
	}
	if a.K > 0 {
		a.add("Historical bytes = %s", historical(a.Historical))
	}

	if a.needsTCK() {
		tck, err := c.next()
		if err != nil {
			return err
		}
		a.TCK = &tck
		for _, b := range a.Raw[1:c.pos] {
			a.Checksum ^= b
		}
		if a.Checksum == 0 {
			a.add("TCK = %02X | Checksum is valid", tck)
		} else {
			a.add("TCK = %02X | Checksum is invalid", tck)
		}
	}
	return nil
}

// parseChain reads TD1 and every interface byte group it announces.
func (a *ATR) parseChain(c *cursor) error {
	td, err := a.read(c, 'D', 1)
	if err != nil {
		return err
	}
	a.Protocols = append(a.Protocols, int(bits.Low(td)))
	a.add("TD1 = %02X | %spresent, and protocol is T=%d", td, presence(td, 2), bits.Low(td))

	for i := 2; bits.High(td) != 0; i++ {
		for _, kind := range []byte{'A', 'B', 'C'} {
			if !bits.IsSet(td, uint(kind-'A')+5) {
				continue
			}
			b, err := a.read(c, kind, i)
			if err != nil {
				return err
			}
			a.add("T%c%d = %02X", kind, i, b)
		}

		if !bits.IsSet(td, 8) {
			break
		}
		next, err := a.read(c, 'D', i)
		if err != nil {
			return err
		}
		a.Protocols = append(a.Protocols, int(bits.Low(next)))
		if bits.High(next) != 0 {
			a.add("TD%d = %02X | %spresent", i, next, presence(next, i+1))
		} else {
			a.add("TD%d = %02X", i, next)
		}
		td = next
	}
	return nil
}

func (a *ATR) read(c *cursor, kind byte, index int) (byte, error) {
	b, err := c.next()
	if err != nil {
		return 0, err
	}
	a.Interfaces = append(a.Interfaces, Interface{Kind: kind, Index: index, Value: b})
	return b, nil
}

// needsTCK reports whether a protocol other than T=0 is declared.
func (a *ATR) needsTCK() bool {
	for _, t := range a.Protocols {
		if t != 0 {
			return true
		}
	}
	return false
}

// Protocol returns the first offered protocol, T=0 when TD1 is absent.
func (a *ATR) Protocol() int {
	if len(a.Protocols) == 0 {
		return 0
	}
	return a.Protocols[0]
}

// Report returns the decode, one line per consumed byte.
func (a *ATR) Report() []string {
	return append([]string(nil), a.report...)
}

func (a *ATR) add(format string, args ...any) {
	a.report = append(a.report, fmt.Sprintf(format, args...))
}

// presence lists the interface bytes of group i announced by the high
// nibble of b, each followed by a space.
func presence(b byte, i int) string {
	var sb strings.Builder
	for n, kind := range "ABCD" {
		if bits.IsSet(b, uint(n)+5) {
			fmt.Fprintf(&sb, "T%c%d ", kind, i)
		}
	}
	return sb.String()
}

func clockRate(b byte) *ClockRate {
	r := &ClockRate{D: dValues[bits.Low(b)]}
	if f, ok := fValues[bits.High(b)]; ok {
		r.F, r.FMax = f.f, f.fmax
	}

	d := float32(r.D)
	if r.F != 0 {
		r.ETU = 1.0 / d * float32(r.F) / r.FMax
	} else {
		r.ETU = 1.0 / d * 1.0 / 9600.0
	}
	return r
}

func (r *ClockRate) String() string {
	var sb strings.Builder
	if r.D != 0 {
		fmt.Fprintf(&sb, "D = %d, ", r.D)
	} else {
		sb.WriteString("D = unknown, ")
	}
	if r.F != 0 {
		fmt.Fprintf(&sb, "F = %d and fmax = %s, ", r.F, formatFloat(r.FMax))
	} else {
		sb.WriteString("F = Internal and fmax = 9600, ")
	}
	if r.D != 0 {
		fmt.Fprintf(&sb, "etu = %s", formatFloat(r.ETU))
	} else {
		sb.WriteString("etu = unknown")
	}
	return sb.String()
}

func (p *Programming) String() string {
	if p.I == 0 {
		return fmt.Sprintf("I = unknown and PI1 = %d", p.PI1)
	}
	return fmt.Sprintf("I = %d and PI1 = %d", p.I, p.PI1)
}

// formatFloat prints six significant digits without trailing zeros.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', 6, 32)
}

func historical(h []byte) string {
	var sb strings.Builder
	for i, b := range h {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
