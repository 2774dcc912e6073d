package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gregLibert/smart-card-shell/pkg/atr"
	"github.com/gregLibert/smart-card-shell/pkg/buffer"
	"github.com/gregLibert/smart-card-shell/pkg/emv"
	"github.com/gregLibert/smart-card-shell/pkg/iso7816"
	"github.com/gregLibert/smart-card-shell/pkg/tlv"
	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

// ErrInvalidReader is returned by connect for an index outside the last
// reader list.
var ErrInvalidReader = errors.New("invalid reader id")

// ErrNoTransport is returned when the shell was built without a backend.
var ErrNoTransport = errors.New("no card transport configured")

// CardShell drives the reader and the card. Lines that match no verb are
// sent to the card as a raw command APDU.
type CardShell struct {
	out  io.Writer
	open transport.Opener
	tags tlv.Dictionary
	log  zerolog.Logger

	ctx     transport.Context
	readers []string
	card    transport.Card
	reader  string
	client  *iso7816.Client

	commands commandTable
}

// NewCardShell writes its output to out and opens the transport context on
// first use.
func NewCardShell(out io.Writer, open transport.Opener, tags tlv.Dictionary, log zerolog.Logger) *CardShell {
	c := &CardShell{
		out:    out,
		open:   open,
		tags:   tags,
		log:    log,
		client: &iso7816.Client{Log: out, Logger: log},
	}
	c.commands = commandTable{
		{Name: "readers", Run: c.listReaders},
		{Name: "connect", Run: c.connect},
		{Name: "disconnect", Run: c.disconnect},
		{Name: "reset", Run: c.reset},
		{Name: "dump", Run: c.dump},
		{Name: "parse", Run: c.parse},
		{Name: "select", Run: c.selectFile},
		{Name: "status", Run: c.status},
		{Name: "read-record", Run: c.readRecord},
		{Name: "explain", Run: c.explain},
	}
	return c
}

// Execute runs a verb, or sends every token as hex to the card.
func (c *CardShell) Execute(argv []string) error {
	if cmd, ok := c.commands.find(argv[0]); ok {
		return cmd.Run(argv)
	}

	if c.card == nil {
		return iso7816.ErrNoCard
	}
	raw, err := buffer.Join(argv, buffer.Hex)
	if err != nil {
		return err
	}
	_, err = c.client.Execute(raw)
	return err
}

// Reader returns the reader of the bound card.
func (c *CardShell) Reader() string {
	if c.card == nil {
		return ""
	}
	return c.reader
}

// HandleEvent disconnects and drops the card when its reader reports an
// empty slot.
func (c *CardShell) HandleEvent(ev transport.Event) {
	switch ev.State {
	case transport.StateEmpty:
		if c.card != nil && ev.Reader == c.reader {
			if err := c.card.Disconnect(); err != nil {
				c.log.Debug().Err(err).Str("reader", ev.Reader).Msg("releasing removed card")
			}
			c.unbind()
		}
		fmt.Fprintf(c.out, "Card removed from %s\n", ev.Reader)
	case transport.StatePresent:
		fmt.Fprintf(c.out, "Card inserted in %s\n", ev.Reader)
	}
	c.log.Info().Str("reader", ev.Reader).Stringer("state", ev.State).Msg("reader event")
}

// Close disconnects the card and releases the context.
func (c *CardShell) Close() error {
	var errs []error
	if c.card != nil {
		errs = append(errs, c.card.Disconnect())
		c.unbind()
	}
	if c.ctx != nil {
		errs = append(errs, c.ctx.Release())
		c.ctx = nil
	}
	return errors.Join(errs...)
}

func (c *CardShell) context() (transport.Context, error) {
	if c.ctx != nil {
		return c.ctx, nil
	}
	if c.open == nil {
		return nil, ErrNoTransport
	}
	ctx, err := c.open()
	if err != nil {
		return nil, err
	}
	c.ctx = ctx
	return ctx, nil
}

func (c *CardShell) bind(reader string, card transport.Card) {
	c.card = card
	c.reader = reader
	c.client.Card = card
}

func (c *CardShell) unbind() {
	c.card = nil
	c.reader = ""
	c.client.Card = nil
}

func (c *CardShell) listReaders([]string) error {
	ctx, err := c.context()
	if err != nil {
		return err
	}
	readers, err := ctx.ListReaders()
	if err != nil {
		c.readers = nil
		return err
	}
	c.readers = readers

	fmt.Fprint(c.out, "Readers:\n")
	for i, r := range readers {
		fmt.Fprintf(c.out, "    %d. %s\n", i+1, r)
	}
	fmt.Fprint(c.out, "\n")
	return nil
}

func (c *CardShell) connect(argv []string) error {
	if len(argv) != 2 {
		fmt.Fprint(c.out, "connect <reader id/name>\n")
		return nil
	}

	reader := argv[1]
	if id, err := strconv.Atoi(reader); err == nil && id > 0 {
		if id > len(c.readers) {
			return ErrInvalidReader
		}
		reader = c.readers[id-1]
	}

	ctx, err := c.context()
	if err != nil {
		return err
	}
	if c.card != nil {
		if err := c.card.Disconnect(); err != nil {
			c.log.Warn().Err(err).Str("reader", c.reader).Msg("disconnect before connect")
		}
		c.unbind()
	}

	card, err := ctx.Connect(reader)
	if err != nil {
		return err
	}
	c.bind(reader, card)
	c.log.Info().Str("reader", reader).Msg("card connected")

	return c.printConnectionInfo()
}

func (c *CardShell) disconnect([]string) error {
	if c.card == nil {
		return nil
	}
	err := c.card.Disconnect()
	c.log.Info().Str("reader", c.reader).Msg("card disconnected")
	c.unbind()
	return err
}

func (c *CardShell) reset(argv []string) error {
	if c.card == nil {
		return nil
	}

	cold := true
	if len(argv) > 1 {
		switch argv[1] {
		case "cold":
		case "warm":
			cold = false
		default:
			fmt.Fprintf(c.out, "Unknown reset type %q. Cold reset will be done.\n", argv[1])
		}
	} else {
		fmt.Fprint(c.out, "Type of reset was not specified (cold or warm).\nImplying cold reset.\n")
	}

	if err := c.card.Reset(cold); err != nil {
		return err
	}
	return c.printConnectionInfo()
}

func (c *CardShell) printConnectionInfo() error {
	st, err := c.card.Status()
	if err != nil {
		return err
	}
	if len(st.ATR) == 0 {
		fmt.Fprint(c.out, "ATR: unavailable\n")
	} else {
		fmt.Fprintf(c.out, "ATR: %s\n", buffer.Bytes(st.ATR))
	}
	fmt.Fprintf(c.out, "Protocol: %s\n", st.Protocol)
	return nil
}

func (c *CardShell) status([]string) error {
	if c.card == nil {
		return iso7816.ErrNoCard
	}
	fmt.Fprintf(c.out, "Reader: %s\n", c.reader)
	return c.printConnectionInfo()
}

// lastData is the data field of the last response, empty when none.
func (c *CardShell) lastData() buffer.Bytes {
	if last := c.client.Last(); last != nil {
		return buffer.Bytes(last.Data)
	}
	return nil
}

// dump prints the whole last response, status word included.
func (c *CardShell) dump(argv []string) error {
	var data buffer.Bytes
	if len(argv) == 1 {
		if last := c.client.Last(); last != nil {
			data = last.Bytes()
		}
	} else {
		var err error
		if data, err = buffer.Join(argv[1:], buffer.Hex); err != nil {
			return err
		}
	}
	if err := data.Dump(c.out); err != nil {
		return err
	}
	fmt.Fprint(c.out, "\n")
	return nil
}

func (c *CardShell) parse(argv []string) error {
	if len(argv) > 1 && argv[1] == "atr" {
		return c.parseATR(argv[2:])
	}

	data := c.lastData()
	if len(argv) > 1 {
		var err error
		if data, err = buffer.Join(argv[1:], buffer.Hex); err != nil {
			return err
		}
	}

	list, decodeErr := tlv.Decode(data)
	if err := tlv.Render(c.out, list, c.tags); err != nil && decodeErr == nil {
		return err
	}
	return decodeErr
}

func (c *CardShell) parseATR(args []string) error {
	var raw buffer.Bytes
	switch {
	case len(args) > 0:
		var err error
		if raw, err = buffer.Join(args, buffer.Hex); err != nil {
			return err
		}
	case c.card != nil:
		st, err := c.card.Status()
		if err != nil {
			return err
		}
		if len(st.ATR) == 0 {
			return fmt.Errorf("ATR of the card in %s: %w", c.reader, transport.ErrUnsupported)
		}
		raw = st.ATR
	default:
		fmt.Fprint(c.out, "No card and no ATR provided\n")
		return nil
	}

	a, err := atr.Parse(raw)
	for _, line := range a.Report() {
		fmt.Fprintf(c.out, "%s\n", line)
	}
	return err
}

func (c *CardShell) selectFile(argv []string) error {
	if len(argv) < 4 {
		return c.selectUsage()
	}

	var first bool
	switch argv[1] {
	case "first":
		first = true
	case "next":
	default:
		return c.selectUsage()
	}

	mode, ok := buffer.ParseMode(argv[2])
	if !ok {
		return c.selectUsage()
	}
	name, err := buffer.Join(argv[3:], mode)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "SELECT %s hex %s\n", argv[1], name)

	if c.card == nil {
		return iso7816.ErrNoCard
	}
	_, err = c.client.Send(iso7816.Select(name, true, first))
	return err
}

func (c *CardShell) selectUsage() error {
	fmt.Fprint(c.out, "usage: select <first/next> <ascii/hex> <name>\n")
	return nil
}

func (c *CardShell) readRecord(argv []string) error {
	if len(argv) != 3 {
		fmt.Fprint(c.out, "usage: read-record <sfi> <record>\n")
		return nil
	}

	sfi, err := parseByte(argv[1])
	if err != nil {
		return err
	}
	record, err := parseByte(argv[2])
	if err != nil {
		return err
	}

	cla, err := iso7816.NewClass(0x00)
	if err != nil {
		return err
	}
	cmd, err := iso7816.ReadRecord(cla, sfi, record)
	if err != nil {
		return err
	}

	if c.card == nil {
		return iso7816.ErrNoCard
	}
	_, err = c.client.Send(cmd)
	return err
}

// parseByte reads a decimal, or 0x prefixed hexadecimal, number below 256.
func parseByte(token string) (byte, error) {
	n, err := strconv.ParseUint(token, 0, 8)
	if err != nil {
		return 0, &buffer.FormatError{Input: token, Reason: "not a number between 0 and 255"}
	}
	return byte(n), nil
}

func (c *CardShell) explain([]string) error {
	report, err := iso7816.Explain(c.client.LastTrace())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n", report)

	if data := c.lastData(); len(data) > 0 {
		if text, ok := emv.Explain(data); ok {
			fmt.Fprintf(c.out, "%s\n", text)
		}
	}
	return nil
}
