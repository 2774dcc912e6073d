package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewInstruction(t *testing.T) {
	tests := []struct {
		name    string
		ins     InsCode
		want    Instruction
		wantErr bool
	}{
		{name: "SELECT", ins: 0xA4, want: Instruction{Raw: INS_SELECT}},
		{name: "READ BINARY BER-TLV", ins: 0xB1, want: Instruction{Raw: INS_READ_BINARY_BER, IsBERTLV: true}},
		{name: "CREATE FILE", ins: 0xE0, want: Instruction{Raw: INS_CREATE_FILE}},
		{name: "Reserved 6X", ins: 0x6A, wantErr: true},
		{name: "Reserved 9X", ins: 0x90, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInstruction(tt.ins)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewInstruction(0x%02X) error = %v, wantErr %v", byte(tt.ins), err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInstructionAcceptsReserved(t *testing.T) {
	got := ParseInstruction(0x61)
	if got.Raw != 0x61 || !got.IsBERTLV {
		t.Errorf("ParseInstruction(61) = %+v", got)
	}
}

func TestInstructionVerbose(t *testing.T) {
	tests := []struct {
		ins  Instruction
		want string
	}{
		{mustInstruction(INS_SELECT), "INS: 0xA4 | Command: SELECT | Format: Standard"},
		{mustInstruction(INS_READ_BINARY_BER), "INS: 0xB1 | Command: READ BINARY | Format: BER-TLV"},
		{ParseInstruction(0x50), "INS: 0x50 | Command: INS 50 | Format: Standard"},
	}

	for _, tt := range tests {
		if got := tt.ins.Verbose(); got != tt.want {
			t.Errorf("Verbose() = %q, want %q", got, tt.want)
		}
	}
}
