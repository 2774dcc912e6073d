package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseClass(t *testing.T) {
	tests := []struct {
		name string
		cla  byte
		want Class
	}{
		{
			name: "First interindustry channel 0",
			cla:  0x00,
			want: Class{Raw: 0x00},
		},
		{
			name: "First interindustry channel 3 chained with SM",
			cla:  0b0001_1111,
			want: Class{Raw: 0x1F, IsChained: true, SecureMessaging: SMHeaderAuth, Channel: 3},
		},
		{
			name: "Further interindustry channel 4",
			cla:  0b0100_0000,
			want: Class{Raw: 0x40, Channel: 4},
		},
		{
			name: "Further interindustry channel 19 chained with SM",
			cla:  0b0111_1111,
			want: Class{Raw: 0x7F, IsChained: true, SecureMessaging: SMHeaderNoProc, Channel: 19},
		},
		{
			name: "Proprietary",
			cla:  0x80,
			want: Class{Raw: 0x80, IsProprietary: true},
		},
		{
			name: "Reserved FF kept as proprietary",
			cla:  0xFF,
			want: Class{Raw: 0xFF, IsProprietary: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseClass(tt.cla)); diff != "" {
				t.Errorf("ParseClass(%02X) mismatch (-want +got):\n%s", tt.cla, diff)
			}
		})
	}
}

func TestNewClassRejectsFF(t *testing.T) {
	if _, err := NewClass(0xFF); err == nil {
		t.Error("NewClass(FF) should fail")
	}
	if _, err := NewClass(0x00); err != nil {
		t.Errorf("NewClass(00) failed: %v", err)
	}
}

func TestNewInterindustryClass(t *testing.T) {
	tests := []struct {
		name    string
		chained bool
		sm      SecureMessaging
		channel uint8
		wantRaw byte
		wantErr bool
	}{
		{name: "Channel 1", channel: 1, wantRaw: 0x01},
		{name: "Channel 10 chained with SM", chained: true, sm: SMHeaderNoProc, channel: 10, wantRaw: 0x76},
		{name: "Authenticated header on further range", sm: SMHeaderAuth, channel: 5, wantErr: true},
		{name: "Channel out of range", channel: 20, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewInterindustryClass(tt.chained, tt.sm, tt.channel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewInterindustryClass() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && c.Raw != tt.wantRaw {
				t.Errorf("Raw = %08b, want %08b", c.Raw, tt.wantRaw)
			}
		})
	}
}

func TestClassEncodeRoundTrip(t *testing.T) {
	for _, cla := range []byte{0x00, 0x1F, 0x0C, 0x40, 0x7F, 0x84} {
		c := ParseClass(cla)
		got, err := c.Encode()
		if err != nil {
			t.Fatalf("Encode(%02X): %v", cla, err)
		}
		if got != cla {
			t.Errorf("round trip of %02X gave %02X", cla, got)
		}
	}
}
