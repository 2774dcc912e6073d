// Package transport is the boundary between the shell and the reader stack.
// Backends live in subpackages: pcsc binds the native PC/SC library, pcscd
// talks to the pcsc-lite daemon socket directly.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Protocol is the transmission protocol negotiated with the card.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolT0
	ProtocolT1
	ProtocolRaw
)

func (p Protocol) String() string {
	switch p {
	case ProtocolT0:
		return "T=0"
	case ProtocolT1:
		return "T=1"
	case ProtocolRaw:
		return "RAW"
	default:
		return "unknown"
	}
}

// Status describes a connected card.
type Status struct {
	Reader   string
	ATR      []byte
	Protocol Protocol
}

// Context enumerates readers and opens cards.
type Context interface {
	ListReaders() ([]string, error)
	Connect(reader string) (Card, error)
	Release() error
}

// Card is a connected card. Transmit carries raw APDUs.
type Card interface {
	Transmit(cmd []byte) ([]byte, error)
	Status() (Status, error)
	Reset(cold bool) error
	Disconnect() error
}

// State is the presence of a card in a reader.
type State int

const (
	StateEmpty State = iota
	StatePresent
)

func (s State) String() string {
	if s == StatePresent {
		return "present"
	}
	return "empty"
}

// Event reports that a card was inserted in or removed from Reader.
type Event struct {
	Reader string
	State  State
}

// Watcher is implemented by contexts able to report card movements. Watch
// blocks, calling fn for every change, until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, readers []string, fn func(Event)) error
}

// Opener creates a Context on demand.
type Opener func() (Context, error)

// PC/SC return codes shared by every backend.
const (
	CodeCancelled           uint32 = 0x80100002
	CodeTimeout             uint32 = 0x8010000A
	CodeNoSmartCard         uint32 = 0x8010000C
	CodeNoService           uint32 = 0x8010001D
	CodeNoReadersAvailable  uint32 = 0x8010002E
	CodeRemovedCard         uint32 = 0x80100069
	CodeResetCard           uint32 = 0x80100068
	CodeUnresponsiveCard    uint32 = 0x80100066
	CodeServiceStopped      uint32 = 0x8010001E
	CodeUnknownReader       uint32 = 0x80100009
	CodeSharingViolation    uint32 = 0x8010000B
	CodeReaderUnavailable   uint32 = 0x80100017
	CodeCommunicationFailed uint32 = 0x80100013
)

var (
	// ErrNoReaders means the resource manager sees no reader.
	ErrNoReaders = errors.New("no readers available")

	// ErrCardRemoved means the card left the reader while in use.
	ErrCardRemoved = errors.New("card removed")

	// ErrUnsupported is returned by backends lacking an operation.
	ErrUnsupported = errors.New("operation not supported by the backend")
)

// Error is a backend failure carrying the native return code.
type Error struct {
	Op   string
	Code uint32
	Err  error
}

// NewError wraps err from operation op. Codes with a dedicated meaning are
// matched by errors.Is against ErrNoReaders and ErrCardRemoved.
func NewError(op string, code uint32, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (0x%08X)", e.Op, e.Description(), e.Code)
	}
	return fmt.Sprintf("%s: %s (0x%08X): %v", e.Op, e.Description(), e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinels from the return code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNoReaders:
		return e.Code == CodeNoReadersAvailable
	case ErrCardRemoved:
		return e.Code == CodeRemovedCard
	}
	return false
}

// Description is the human text for the return code.
func (e *Error) Description() string {
	switch e.Code {
	case CodeNoReadersAvailable:
		return "No smart card readers available"
	case CodeRemovedCard:
		return "The smart card has been removed"
	case CodeNoSmartCard:
		return "No smart card in the reader"
	case CodeNoService, CodeServiceStopped:
		return "Smart card service is not running"
	case CodeUnknownReader:
		return "Unknown reader"
	case CodeSharingViolation:
		return "The card is in use by another application"
	case CodeResetCard:
		return "The smart card has been reset"
	case CodeUnresponsiveCard:
		return "The smart card is not responding"
	case CodeTimeout, CodeCancelled:
		return "Operation cancelled or timed out"
	}
	return "Smart card subsystem error"
}

// CodeOf returns the return code carried by err, or 0.
func CodeOf(err error) uint32 {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return 0
}
