package shell

import (
	"github.com/gregLibert/smart-card-shell/pkg/buffer"
	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

// fakeCard answers from a table keyed by the contiguous hex of the command
// and falls back to 6D00.
type fakeCard struct {
	responses    map[string]string
	status       transport.Status
	sent         []string
	resets       []bool
	disconnected bool
	onTransmit   func()
}

func (f *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	key := buffer.Bytes(cmd).Hex()
	f.sent = append(f.sent, key)
	if f.onTransmit != nil {
		f.onTransmit()
	}
	if resp, ok := f.responses[key]; ok {
		return buffer.MustHex(resp), nil
	}
	return []byte{0x6D, 0x00}, nil
}

func (f *fakeCard) Status() (transport.Status, error) {
	return f.status, nil
}

func (f *fakeCard) Reset(cold bool) error {
	f.resets = append(f.resets, cold)
	return nil
}

func (f *fakeCard) Disconnect() error {
	f.disconnected = true
	return nil
}

type fakeContext struct {
	readers  []string
	cards    map[string]*fakeCard
	listErr  error
	released bool
}

func (f *fakeContext) ListReaders() ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.readers, nil
}

func (f *fakeContext) Connect(reader string) (transport.Card, error) {
	card, ok := f.cards[reader]
	if !ok {
		return nil, transport.NewError("connect", transport.CodeUnknownReader, nil)
	}
	card.status.Reader = reader
	return card, nil
}

func (f *fakeContext) Release() error {
	f.released = true
	return nil
}

func (f *fakeContext) opener() transport.Opener {
	return func() (transport.Context, error) { return f, nil }
}

// newFakeContext has two readers; the card of the second one speaks T=1.
func newFakeContext() *fakeContext {
	return &fakeContext{
		readers: []string{"Reader A", "Reader B"},
		cards: map[string]*fakeCard{
			"Reader A": {status: transport.Status{ATR: buffer.MustHex("3B 00"), Protocol: transport.ProtocolT0}},
			"Reader B": {status: transport.Status{ATR: buffer.MustHex("3B 80 01 81"), Protocol: transport.ProtocolT1}},
			"virtual":  {},
		},
	}
}
