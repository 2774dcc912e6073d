package iso7816

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func exchange(sw StatusWord, data ...byte) Transaction {
	return Transaction{
		Command:  &CommandAPDU{},
		Response: &ResponseAPDU{Data: data, Status: sw},
	}
}

func TestTraceOutcome(t *testing.T) {
	type outcome struct {
		Success bool
		Status  string
		Data    []byte
	}

	tests := []struct {
		name  string
		trace Trace
		want  outcome
	}{
		{
			name: "empty",
		},
		{
			name:  "single success",
			trace: Trace{exchange(SW_NO_ERROR, 0x01)},
			want:  outcome{Success: true, Status: "9000", Data: []byte{0x01}},
		},
		{
			name:  "61xx alone counts as success",
			trace: Trace{exchange(NewStatusWord(0x61, 0x10))},
			want:  outcome{Success: true, Status: "6110"},
		},
		{
			name: "61xx then GET RESPONSE",
			trace: Trace{
				exchange(NewStatusWord(0x61, 0x02)),
				exchange(SW_NO_ERROR, 0xCA, 0xFE),
			},
			want: outcome{Success: true, Status: "9000", Data: []byte{0xCA, 0xFE}},
		},
		{
			name: "last exchange fails",
			trace: Trace{
				exchange(SW_NO_ERROR),
				exchange(SW_ERR_FILE_NOT_FOUND),
			},
			want: outcome{Status: "6A82"},
		},
		{
			name:  "exchange without response",
			trace: Trace{{Raw: []byte{0x00}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outcome{Success: tt.trace.IsSuccess()}
			if resp := tt.trace.Response(); resp != nil {
				got.Status = fmt.Sprintf("%04X", uint16(resp.Status))
				got.Data = resp.Data
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("outcome mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTraceLast(t *testing.T) {
	var empty Trace
	if empty.Last() != nil {
		t.Error("Last() of an empty trace should be nil")
	}

	tr := Trace{exchange(SW_NO_ERROR), exchange(SW_ERR_FILE_NOT_FOUND)}
	tr.Last().Raw = []byte{0xFF}
	if tr[1].Raw == nil {
		t.Error("Last() should point into the trace, not at a copy")
	}
}
