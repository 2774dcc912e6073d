package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

// Reports explain a trace after the fact: the command that started it, the
// continuations the client sent on its own and what the data decodes to.

// Explain returns the report matching the first command of t: SELECT and
// READ RECORD get a dedicated one, anything else the generic report.
func Explain(t Trace) (string, error) {
	if len(t) == 0 {
		return "", fmt.Errorf("cannot explain an empty trace")
	}
	first := t[0].Command
	if first == nil {
		return describeTrace("COMMAND", t, nil), nil
	}

	switch first.Instruction.Raw {
	case INS_SELECT:
		return (&SelectResult{Trace: t}).Describe(), nil
	case INS_READ_RECORD:
		return (&ReadRecordResult{Trace: t}).Describe(), nil
	}
	return describeTrace(first.Instruction.Raw.String(), t, nil), nil
}

// SelectResult is the trace of one SELECT.
type SelectResult struct {
	Trace
}

// NewSelectResult checks that t starts with a SELECT.
func NewSelectResult(t Trace) (*SelectResult, error) {
	if err := checkFirst(t, INS_SELECT); err != nil {
		return nil, err
	}
	return &SelectResult{Trace: t}, nil
}

// FCI decodes the final data according to the P2 of the SELECT.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	if !r.IsSuccess() {
		return nil, fmt.Errorf("selection failed, cannot parse FCI")
	}
	resp := r.Response()
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("no response data found")
	}
	return ParseSelectData(resp.Data, r.Trace[0].Command.P2)
}

// Describe reports the selection parameters, every exchange and the
// decoded templates.
func (r *SelectResult) Describe() string {
	cmd := r.Trace[0].Command
	params := []string{
		fmt.Sprintf("Method   %02X %s", cmd.P1, SelectionMethod(cmd.P1)),
		fmt.Sprintf("Control  %02X %s, %s", cmd.P2, FileOccurrence(cmd.P2&0x03), SelectionControl(cmd.P2&0x0C)),
	}
	if len(cmd.Data) > 0 {
		params = append(params, fmt.Sprintf("Name     %X (%q)", cmd.Data, buffer.MakeSafeASCII(cmd.Data)))
	}

	return describeTrace("SELECT", r.Trace, func(sb *strings.Builder, data []byte) {
		fci, err := r.FCI()
		switch {
		case err != nil:
			fmt.Fprintf(sb, "Outcome  FCI parsing failed: %v\n", err)
		case fci == nil:
			sb.WriteString("Outcome  nothing to decode\n")
		default:
			fmt.Fprintf(sb, "Outcome  %s\n", joinOr(fci.Structures(), " + ", "None"))
			if fields := fci.Describe(); fields != "" {
				sb.WriteString(fields)
				sb.WriteString("\n")
			}
		}
	}, params...)
}

// ReadRecordResult is the trace of one READ RECORD.
type ReadRecordResult struct {
	Trace
}

// NewReadRecordResult checks that t starts with a READ RECORD.
func NewReadRecordResult(t Trace) (*ReadRecordResult, error) {
	if err := checkFirst(t, INS_READ_RECORD); err != nil {
		return nil, err
	}
	return &ReadRecordResult{Trace: t}, nil
}

// Describe reports the record addressed, every exchange and a dump of the
// record.
func (r *ReadRecordResult) Describe() string {
	cmd := r.Trace[0].Command
	sfi := cmd.P2 >> 3
	mode := ReadRecordMode(cmd.P2 & 0x07)

	target := "current EF"
	if sfi > 0 {
		target = fmt.Sprintf("SFI %d", sfi)
	}
	record := fmt.Sprintf("identifier %02X", cmd.P1)
	if mode.ByNumber() {
		record = fmt.Sprintf("number %d", cmd.P1)
		if cmd.P1 == 0 {
			record = "current record"
		}
	}

	return describeTrace("READ RECORD", r.Trace, nil,
		fmt.Sprintf("Target   %s", target),
		fmt.Sprintf("Record   %s", record),
		fmt.Sprintf("Mode     %02X %s", byte(mode), mode),
	)
}

func checkFirst(t Trace, ins InsCode) error {
	if len(t) == 0 {
		return fmt.Errorf("cannot create result from empty trace")
	}
	if t[0].Command == nil {
		return fmt.Errorf("trace does not start with a valid command")
	}
	if got := t[0].Command.Instruction.Raw; got != ins {
		return fmt.Errorf("trace must start with %s (got %02X)", ins, byte(got))
	}
	return nil
}

// describeTrace writes the common frame of a report. outcome, when set,
// replaces the default data dump.
func describeTrace(title string, t Trace, outcome func(*strings.Builder, []byte), params ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s ===\n", title)

	for i, tx := range t {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, commandBytes(tx))
		if i == 0 {
			for _, p := range params {
				fmt.Fprintf(&sb, "    %s\n", p)
			}
		} else if tx.Command != nil {
			fmt.Fprintf(&sb, "    Sent     %s\n", tx.Command.Instruction.Raw)
		}
		if tx.Response != nil {
			fmt.Fprintf(&sb, "    Status   %s\n", statusText(tx.Response.Status))
			if n := len(tx.Response.Data); n > 0 {
				fmt.Fprintf(&sb, "    Data     %d bytes\n", n)
			}
		}
	}

	var data []byte
	if resp := t.Response(); resp != nil {
		data = resp.Data
	}

	if outcome != nil {
		outcome(&sb, data)
	} else if len(data) > 0 {
		sb.WriteString("Outcome\n")
		_ = buffer.Bytes(data).Dump(&sb)
	} else {
		sb.WriteString("Outcome  no data\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func commandBytes(tx Transaction) string {
	if len(tx.Raw) > 0 {
		return buffer.Bytes(tx.Raw).String()
	}
	if tx.Command != nil {
		if raw, err := tx.Command.Bytes(); err == nil {
			return buffer.Bytes(raw).String()
		}
	}
	return "?"
}

func statusText(sw StatusWord) string {
	text := sw.String()
	switch {
	case sw.SW1() == 0x61, sw.SW1() == 0x6C, sw.IsCounter(), sw.IsTriggeringByCard():
		text = sw.Verbose()
	}
	return fmt.Sprintf("%02X %02X %s", sw.SW1(), sw.SW2(), text)
}

func joinOr(parts []string, sep, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, sep)
}
