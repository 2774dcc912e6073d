package iso7816

import (
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/bits"
)

// CLA layout (ISO/IEC 7816-4 §5.4.1):
//
//	b8 = 1        proprietary class, nothing else is defined
//	b8 b7 = 00    first interindustry:   b5 chaining, b4-b3 SM, b2-b1 channel 0-3
//	b8 b7 = 01    further interindustry: b6 SM, b5 chaining, b4-b1 channel 4-19

// SecureMessaging is the SM indication carried by CLA.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1 // first interindustry only
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3 // first interindustry only
)

func (sm SecureMessaging) String() string {
	switch sm {
	case SMNone:
		return "None"
	case SMProprietary:
		return "Proprietary"
	case SMHeaderNoProc:
		return "ISO (Header not processed)"
	case SMHeaderAuth:
		return "ISO (Header authenticated)"
	default:
		return "Unknown"
	}
}

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // 0-19
}

// NewClass decodes cla. 0xFF is reserved for PPS and rejected.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}
	return ParseClass(cla), nil
}

// ParseClass decodes cla without validation. It is meant for commands typed
// by the user, which are sent verbatim whatever their class.
func ParseClass(cla byte) Class {
	c := Class{Raw: cla}
	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c
	}

	c.IsChained = bits.IsSet(cla, 5)
	if !bits.IsSet(cla, 7) {
		c.SecureMessaging = SecureMessaging(bits.Field(cla, 4, 3))
		c.Channel = bits.Field(cla, 2, 1)
		return c
	}

	if bits.IsSet(cla, 6) {
		c.SecureMessaging = SMHeaderNoProc
	}
	c.Channel = bits.Field(cla, 4, 1) + 4
	return c
}

// NewInterindustryClass builds an interindustry class, choosing the first or
// further encoding from the channel number.
func NewInterindustryClass(isChained bool, sm SecureMessaging, channel uint8) (Class, error) {
	if channel > 19 {
		return Class{}, fmt.Errorf("channel %d out of range (max 19)", channel)
	}
	if channel >= 4 && (sm == SMProprietary || sm == SMHeaderAuth) {
		return Class{}, fmt.Errorf("SM indicator %s not available on channel %d", sm, channel)
	}

	c := Class{IsChained: isChained, SecureMessaging: sm, Channel: channel}
	raw, err := c.Encode()
	if err != nil {
		return Class{}, err
	}
	c.Raw = raw
	return c, nil
}

// Encode returns the CLA byte. Proprietary classes are returned as decoded.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}
	if c.Channel <= 3 {
		res = bits.Put(res, 4, 3, byte(c.SecureMessaging))
		return bits.Put(res, 2, 1, c.Channel), nil
	}

	res = bits.Set(res, 7)
	if c.SecureMessaging != SMNone {
		res = bits.Set(res, 6)
	}
	return bits.Put(res, 4, 1, c.Channel-4), nil
}

// Verbose describes the class on several lines.
func (c Class) Verbose() string {
	if c.IsProprietary {
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	rangeName := "First Interindustry (Ch 0-3)"
	if c.Channel >= 4 {
		rangeName = "Further Interindustry (Ch 4-19)"
	}
	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf("Range: %s\nChaining: %s\nSecure Messaging: %s\nLogical Channel: %d",
		rangeName, chaining, c.SecureMessaging, c.Channel)
}
