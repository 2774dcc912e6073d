package iso7816

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

// scriptedCard answers with the queued responses in order and records what
// it was sent.
type scriptedCard struct {
	responses []string
	sent      []string
	err       error
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, buffer.Bytes(cmd).Hex())
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return []byte{0x6F, 0x00}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return buffer.MustHex(resp), nil
}

func TestClient_Execute(t *testing.T) {
	tests := []struct {
		name      string
		cmd       string
		responses []string
		wantSent  []string
		wantLast  string
	}{
		{
			name:      "Direct answer",
			cmd:       "00A4040002A000",
			responses: []string{"6F00 9000"},
			wantSent:  []string{"00A4040002A000"},
			wantLast:  "6F 00 90 00",
		},
		{
			name:      "61XX fetched with GET RESPONSE",
			cmd:       "00A4040002A000",
			responses: []string{"6105", "0102030405 9000"},
			wantSent:  []string{"00A4040002A000", "00C0000005"},
			wantLast:  "01 02 03 04 05 90 00",
		},
		{
			name:      "6CXX resent with corrected Le",
			cmd:       "00B2010C00",
			responses: []string{"6C10", "AABB 9000"},
			wantSent:  []string{"00B2010C00", "00B2010C10"},
			wantLast:  "AA BB 90 00",
		},
		{
			name:      "6CXX then 61XX",
			cmd:       "00B2010C00",
			responses: []string{"6C02", "6102", "AABB 9000"},
			wantSent:  []string{"00B2010C00", "00B2010C02", "00C0000002"},
			wantLast:  "AA BB 90 00",
		},
		{
			name:      "GET RESPONSE keeps the logical channel",
			cmd:       "01A4040002A000",
			responses: []string{"6100", "9000"},
			wantSent:  []string{"01A4040002A000", "01C0000000"},
			wantLast:  "90 00",
		},
		{
			name:      "Error status ends the chain",
			cmd:       "00A4040002A000",
			responses: []string{"6A82"},
			wantSent:  []string{"00A4040002A000"},
			wantLast:  "6A 82",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &scriptedCard{responses: tt.responses}
			client := NewClient(card)

			trace, err := client.Execute(buffer.MustHex(tt.cmd))
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if diff := cmp.Diff(tt.wantSent, card.sent); diff != "" {
				t.Errorf("sent mismatch (-want +got):\n%s", diff)
			}
			if len(trace) != len(tt.wantSent) {
				t.Errorf("trace has %d exchanges, want %d", len(trace), len(tt.wantSent))
			}
			if got := client.Last().Bytes().String(); got != tt.wantLast {
				t.Errorf("Last() = %q, want %q", got, tt.wantLast)
			}
			if len(client.LastTrace()) != len(trace) {
				t.Errorf("LastTrace() not updated")
			}
		})
	}
}

func TestClient_Transcript(t *testing.T) {
	card := &scriptedCard{responses: []string{"6102", "AABB 9000"}}
	var log strings.Builder
	client := NewClient(card)
	client.Log = &log

	if _, err := client.Execute(buffer.MustHex("00A4040002A000")); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{
		"< 00 A4 04 00 02 A0 00",
		"> 61 02",
		"< 00 C0 00 00 02",
		"> AA BB 90 00",
	}
	got := strings.Split(strings.TrimSuffix(log.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ContinuationLoop(t *testing.T) {
	responses := make([]string, MaxContinuations+5)
	for i := range responses {
		responses[i] = "6110"
	}
	card := &scriptedCard{responses: responses}
	client := NewClient(card)

	_, err := client.Execute(buffer.MustHex("00A4040002A000"))
	if !errors.Is(err, ErrContinuationLoop) {
		t.Fatalf("Execute() error = %v, want ErrContinuationLoop", err)
	}
	if len(card.sent) != MaxContinuations+1 {
		t.Errorf("sent %d commands, want %d", len(card.sent), MaxContinuations+1)
	}
	if client.Last() != nil {
		t.Error("a failed chain must not update the last response")
	}
}

func TestClient_LastKeepsPreviousOnFailure(t *testing.T) {
	card := &scriptedCard{responses: []string{"9000"}}
	client := NewClient(card)
	if _, err := client.Execute(buffer.MustHex("00A40400")); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	card.err = errors.New("reader unplugged")
	if _, err := client.Execute(buffer.MustHex("00A40400")); err == nil {
		t.Fatal("expected a transmission error")
	}
	if got := client.Last().Bytes().String(); got != "90 00" {
		t.Errorf("Last() = %q, want the previous response", got)
	}
}

func TestClient_NoCard(t *testing.T) {
	client := NewClient(nil)
	if _, err := client.Execute([]byte{0x00, 0xA4, 0x04, 0x00}); !errors.Is(err, ErrNoCard) {
		t.Errorf("Execute() error = %v, want ErrNoCard", err)
	}
}

func TestClient_Send(t *testing.T) {
	card := &scriptedCard{responses: []string{"9000"}}
	client := NewClient(card)

	trace, err := client.Send(Select([]byte{0xA0, 0x00}, true, true))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if diff := cmp.Diff([]string{"00A4040002A00000"}, card.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
	if !trace.IsSuccess() {
		t.Error("trace should be successful")
	}
	if trace[0].Command.Instruction.Raw != INS_SELECT {
		t.Errorf("first command decoded as %s", trace[0].Command.Instruction.Raw)
	}
}
