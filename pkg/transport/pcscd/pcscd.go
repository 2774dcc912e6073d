// Package pcscd is a cgo-free transport backend speaking the pcsc-lite
// daemon protocol over its UNIX socket.
//
// The daemon protocol as implemented by the client library does not expose
// the ATR nor the negotiated protocol: Status reports the reader only.
package pcscd

import (
	"fmt"
	"strings"
	"sync"

	pcsc "github.com/gballet/go-libpcsclite"
	"github.com/rs/zerolog"

	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

// DefaultSocket is the daemon socket of the platform, empty where pcscd
// does not run.
const DefaultSocket = pcsc.PCSCDSockName

// Scope selects the context scope requested from the daemon.
type Scope uint32

const (
	ScopeUser   Scope = pcsc.ScopeUser
	ScopeSystem Scope = pcsc.ScopeSystem
)

// ParseScope maps "user" and "system".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "user":
		return ScopeUser, nil
	case "system", "":
		return ScopeSystem, nil
	}
	return 0, fmt.Errorf("unknown pcscd scope %q", s)
}

// Context is a session with the daemon.
type Context struct {
	client *pcsc.Client
	log    zerolog.Logger
}

// Open connects to the daemon listening on socket.
func Open(socket string, scope Scope, log zerolog.Logger) (*Context, error) {
	if socket == "" {
		socket = DefaultSocket
	}
	client, err := pcsc.EstablishContext(socket, uint32(scope))
	if err != nil {
		return nil, wrap("establish context", err)
	}
	log.Debug().Str("socket", socket).Msg("pcscd context established")
	return &Context{client: client, log: log}, nil
}

// Opener returns a transport.Opener for the given socket and scope.
func Opener(socket string, scope Scope, log zerolog.Logger) transport.Opener {
	return func() (transport.Context, error) {
		return Open(socket, scope, log)
	}
}

// ListReaders returns the readers known to the daemon.
func (c *Context) ListReaders() ([]string, error) {
	names, err := c.client.ListReaders()
	if err != nil {
		return nil, wrap("list readers", err)
	}
	readers := make([]string, 0, len(names))
	for _, n := range names {
		if n = trimName(n); n != "" {
			readers = append(readers, n)
		}
	}
	if len(readers) == 0 {
		return nil, transport.NewError("list readers", transport.CodeNoReadersAvailable, nil)
	}
	return readers, nil
}

// Connect opens the card in reader in shared mode with T=0 or T=1.
func (c *Context) Connect(reader string) (transport.Card, error) {
	card, err := c.client.Connect(reader, pcsc.ShareShared, pcsc.ProtocolAny)
	if err != nil {
		return nil, wrap("connect", err)
	}
	c.log.Debug().Str("reader", reader).Msg("card connected")
	return &Card{client: c.client, card: card, reader: reader, log: c.log}, nil
}

// Release ends the session.
func (c *Context) Release() error {
	c.log.Debug().Msg("pcscd context released")
	return wrap("release context", c.client.ReleaseContext())
}

// Card is a card connected through the daemon.
type Card struct {
	mu     sync.Mutex
	client *pcsc.Client
	card   *pcsc.Card
	reader string
	log    zerolog.Logger
}

// Transmit sends one APDU.
func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, _, err := c.card.Transmit(cmd)
	if err != nil {
		return nil, wrap("transmit", err)
	}
	return resp, nil
}

// Status returns the reader name; ATR and protocol are not available.
func (c *Card) Status() (transport.Status, error) {
	return transport.Status{Reader: c.reader, Protocol: transport.ProtocolUnknown}, nil
}

// Reset disconnects with a reset or power down, then connects again.
func (c *Card) Reset(cold bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	disposition := uint32(pcsc.ResetCard)
	if cold {
		disposition = pcsc.UnpowerCard
	}
	if err := c.card.Disconnect(disposition); err != nil {
		return wrap("reset", err)
	}
	card, err := c.client.Connect(c.reader, pcsc.ShareShared, pcsc.ProtocolAny)
	if err != nil {
		return wrap("reconnect", err)
	}
	c.card = card
	c.log.Debug().Str("reader", c.reader).Bool("cold", cold).Msg("card reset")
	return nil
}

// Disconnect releases the card, leaving it powered.
func (c *Card) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Debug().Str("reader", c.reader).Msg("card disconnected")
	return wrap("disconnect", c.card.Disconnect(pcsc.LeaveCard))
}

// Reader names come in fixed size NUL padded fields.
func trimName(name string) string {
	if i := strings.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// The client library reports daemon failures as text only.
func codeOf(err error) (uint32, bool) {
	var code uint32
	msg := err.Error()
	i := strings.Index(msg, "invalid return code: ")
	if i < 0 {
		return 0, false
	}
	if _, scanErr := fmt.Sscanf(msg[i:], "invalid return code: %x", &code); scanErr != nil {
		return 0, false
	}
	return code, true
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if code, ok := codeOf(err); ok {
		return transport.NewError(op, code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
