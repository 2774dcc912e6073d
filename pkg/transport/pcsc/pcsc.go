// Package pcsc is the transport backend over the platform PC/SC library
// (winscard on Windows, PCSC.framework on macOS, pcsc-lite elsewhere).
package pcsc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebfe/scard"
	"github.com/rs/zerolog"

	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

// Context is an established PC/SC context.
type Context struct {
	ctx *scard.Context
	log zerolog.Logger
}

// Open establishes a context with the resource manager.
func Open(log zerolog.Logger) (*Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, wrap("establish context", err)
	}
	log.Debug().Msg("PC/SC context established")
	return &Context{ctx: ctx, log: log}, nil
}

// Opener returns a transport.Opener bound to log.
func Opener(log zerolog.Logger) transport.Opener {
	return func() (transport.Context, error) {
		return Open(log)
	}
}

// ListReaders returns the reader names known to the resource manager.
func (c *Context) ListReaders() ([]string, error) {
	readers, err := c.ctx.ListReaders()
	if err != nil {
		return nil, wrap("list readers", err)
	}
	return readers, nil
}

// Connect opens the card in reader in shared mode with T=0 or T=1.
func (c *Context) Connect(reader string) (transport.Card, error) {
	card, err := c.ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, wrap("connect", err)
	}
	c.log.Debug().Str("reader", reader).Msg("card connected")
	return &Card{card: card, reader: reader, log: c.log}, nil
}

// Release closes the context.
func (c *Context) Release() error {
	c.log.Debug().Msg("PC/SC context released")
	return wrap("release context", c.ctx.Release())
}

// Watch reports card insertions and removals in readers until ctx is done.
// It runs on its own PC/SC context so that it never races the commands
// sent on c.
func (c *Context) Watch(ctx context.Context, readers []string, fn func(transport.Event)) error {
	if len(readers) == 0 {
		return nil
	}

	monitor, err := scard.EstablishContext()
	if err != nil {
		return wrap("establish monitor context", err)
	}
	defer monitor.Release()

	stop := context.AfterFunc(ctx, func() {
		_ = monitor.Cancel()
	})
	defer stop()

	states := make([]scard.ReaderState, len(readers))
	for i, r := range readers {
		states[i] = scard.ReaderState{Reader: r, CurrentState: scard.StateUnaware}
	}

	initial := true
	for {
		if err := monitor.GetStatusChange(states, -1); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return wrap("wait for status change", err)
		}

		for i := range states {
			st := &states[i]
			present := st.EventState&scard.StatePresent != 0
			wasPresent := st.CurrentState&scard.StatePresent != 0
			if !initial && present != wasPresent {
				ev := transport.Event{Reader: st.Reader, State: transport.StateEmpty}
				if present {
					ev.State = transport.StatePresent
				}
				c.log.Debug().Str("reader", ev.Reader).Stringer("state", ev.State).Msg("reader event")
				fn(ev)
			}
			st.CurrentState = st.EventState &^ scard.StateChanged
		}
		initial = false
	}
}

// Card is a card connected through PC/SC.
type Card struct {
	card   *scard.Card
	reader string
	log    zerolog.Logger
}

// Transmit sends one APDU.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	resp, err := c.card.Transmit(cmd)
	if err != nil {
		return nil, wrap("transmit", err)
	}
	return resp, nil
}

// Status returns the reader, ATR and active protocol.
func (c *Card) Status() (transport.Status, error) {
	st, err := c.card.Status()
	if err != nil {
		return transport.Status{}, wrap("status", err)
	}
	reader := st.Reader
	if reader == "" {
		reader = c.reader
	}
	return transport.Status{
		Reader:   reader,
		ATR:      st.Atr,
		Protocol: protocolOf(st.ActiveProtocol),
	}, nil
}

// Reset reconnects, powering the card down first when cold is set.
func (c *Card) Reset(cold bool) error {
	disposition := scard.ResetCard
	if cold {
		disposition = scard.UnpowerCard
	}
	c.log.Debug().Str("reader", c.reader).Bool("cold", cold).Msg("card reset")
	return wrap("reset", c.card.Reconnect(scard.ShareShared, scard.ProtocolAny, disposition))
}

// Disconnect releases the card, leaving it powered.
func (c *Card) Disconnect() error {
	c.log.Debug().Str("reader", c.reader).Msg("card disconnected")
	return wrap("disconnect", c.card.Disconnect(scard.LeaveCard))
}

func protocolOf(p scard.Protocol) transport.Protocol {
	switch p {
	case scard.ProtocolUndefined:
		return transport.ProtocolUnknown
	case scard.ProtocolT0:
		return transport.ProtocolT0
	case scard.ProtocolT1:
		return transport.ProtocolT1
	}
	return transport.ProtocolRaw
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var code scard.Error
	if errors.As(err, &code) {
		return transport.NewError(op, uint32(code), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
