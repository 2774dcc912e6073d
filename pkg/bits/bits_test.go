package bits

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBitMasks(t *testing.T) {
	got := make([]byte, 0, 10)
	for n := uint(0); n <= 9; n++ {
		got = append(got, Bit(n))
	}
	want := []byte{0x00, 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x00}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bit() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetClear(t *testing.T) {
	const b = byte(0b1010_0101)
	tests := []struct {
		name string
		got  byte
		want byte
	}{
		{"set b2", Set(b, 2), 0b1010_0111},
		{"set already set b8", Set(b, 8), b},
		{"clear b1", Clear(b, 1), 0b1010_0100},
		{"clear already clear b7", Clear(b, 7), b},
		{"out of range", Set(Clear(b, 0), 9), b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %08b, want %08b", tt.got, tt.want)
			}
		})
	}
	if !IsSet(b, 8) || IsSet(b, 7) || !IsSet(b, 1) {
		t.Errorf("IsSet disagrees with %08b", b)
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		name      string
		b         byte
		high, low uint
		want      byte
	}{
		{"secure messaging of CLA 0C", 0x0C, 4, 3, 3},
		{"channel of CLA 03", 0x03, 2, 1, 3},
		{"further channel of CLA 4F", 0x4F, 4, 1, 0x0F},
		{"TB1 I field", 0b0100_0000, 7, 6, 2},
		{"whole byte", 0xA5, 8, 1, 0xA5},
		{"single bit", 0x80, 8, 8, 1},
		{"reversed", 0xFF, 1, 4, 0},
		{"past b8", 0xFF, 9, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.b, tt.high, tt.low); got != tt.want {
				t.Errorf("Field(%02X, %d, %d) = %X, want %X", tt.b, tt.high, tt.low, got, tt.want)
			}
		})
	}
}

func TestPut(t *testing.T) {
	tests := []struct {
		name      string
		b         byte
		high, low uint
		v         byte
		want      byte
	}{
		{"channel into interindustry CLA", 0x00, 2, 1, 3, 0x03},
		{"overwrite field", 0x0F, 4, 3, 0, 0x03},
		{"value wider than field", 0x00, 2, 1, 0xFF, 0x03},
		{"invalid range", 0x5A, 3, 4, 1, 0x5A},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Put(tt.b, tt.high, tt.low, tt.v); got != tt.want {
				t.Errorf("Put = %02X, want %02X", got, tt.want)
			}
			if Field(Put(tt.b, 4, 1, 9), 4, 1) != 9 {
				t.Error("Put then Field does not round trip")
			}
		})
	}
}

func TestNibbles(t *testing.T) {
	// T0 of 3B 9F ...: TA1 and TD1 follow, 15 historical bytes.
	if got := High(0x9F); got != 0x9 {
		t.Errorf("High(9F) = %X", got)
	}
	if got := Low(0x9F); got != 0xF {
		t.Errorf("Low(9F) = %X", got)
	}
}
