package iso7816

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

var (
	// ErrNoCard is returned when no card is bound to the client.
	ErrNoCard = errors.New("no card connected")

	// ErrContinuationLoop is returned when a card keeps asking for
	// continuation beyond MaxContinuations exchanges.
	ErrContinuationLoop = errors.New("too many continuation exchanges")
)

// MaxContinuations bounds the GET RESPONSE and resend exchanges that may
// follow one command.
const MaxContinuations = 16

// Transmitter sends one command APDU and returns the raw response.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client exchanges APDUs with Card. Each exchange is written to Log as a
// "<" line for the command and a ">" line for the response.
type Client struct {
	Card   Transmitter
	Log    io.Writer
	Logger zerolog.Logger

	last      *ResponseAPDU
	lastTrace Trace
}

// NewClient returns a client bound to card, with no transcript and a
// disabled logger.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card, Logger: zerolog.Nop()}
}

// Transmit performs a single exchange without continuation.
func (c *Client) Transmit(raw []byte) (*ResponseAPDU, error) {
	if c.Card == nil {
		return nil, ErrNoCard
	}

	c.transcript("<", raw)
	rawResp, err := c.Card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}
	c.transcript(">", rawResp)

	return ParseResponseAPDU(rawResp)
}

// Execute sends raw and follows the continuation status words:
// 61XX fetches the waiting bytes with GET RESPONSE, 6CXX sends the command
// again with the corrected Le. The final response of the chain becomes the
// last response of the client.
func (c *Client) Execute(raw []byte) (Trace, error) {
	trace, err := c.exchange(raw)
	if err != nil {
		return trace, err
	}
	c.last = trace.Response()
	c.lastTrace = trace
	return trace, nil
}

// Send encodes cmd and executes it.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return c.Execute(raw)
}

// Last returns the final response of the last completed Execute, or nil.
func (c *Client) Last() *ResponseAPDU {
	return c.last
}

// LastTrace returns the exchanges of the last completed Execute.
func (c *Client) LastTrace() Trace {
	return c.lastTrace
}

func (c *Client) exchange(raw []byte) (Trace, error) {
	var trace Trace
	for {
		if len(trace) > MaxContinuations {
			return trace, fmt.Errorf("%w: %d exchanges", ErrContinuationLoop, len(trace))
		}

		resp, err := c.Transmit(raw)
		if err != nil {
			return trace, err
		}
		cmd, _ := ParseCommandAPDU(raw)
		trace = append(trace, Transaction{Raw: raw, Command: cmd, Response: resp})

		if n, ok := resp.Status.BytesAvailable(); ok {
			c.Logger.Debug().Int("available", n).Msg("fetching response data")
			if raw, err = GetResponse(classOf(raw, cmd), n).Bytes(); err != nil {
				return trace, fmt.Errorf("encoding error: %w", err)
			}
			continue
		}

		if n, ok := resp.Status.CorrectLength(); ok {
			c.Logger.Debug().Int("le", n).Msg("resending with corrected length")
			raw = FixLength(raw, n)
			continue
		}

		return trace, nil
	}
}

func classOf(raw []byte, cmd *CommandAPDU) Class {
	if cmd != nil {
		return cmd.Class
	}
	if len(raw) > 0 {
		return ParseClass(raw[0])
	}
	return Class{}
}

func (c *Client) transcript(dir string, data []byte) {
	if c.Log == nil {
		return
	}
	fmt.Fprintf(c.Log, "%s %s\n", dir, buffer.Bytes(data))
}
