package iso7816

// GetResponse builds GET RESPONSE (CLA C0 00 00 Le) on the class of the
// command being continued, with chaining cleared. le = 0 asks for 256 bytes.
func GetResponse(cls Class, le int) *CommandAPDU {
	if le <= 0 || le > MaxShortLe {
		le = MaxShortLe
	}
	cls.IsChained = false
	return NewCommandAPDU(cls, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, le)
}

// FixLength returns raw resent with Le = le, as asked by a 6CXX status.
// le = 0 stands for 256. A command that does not parse as an APDU gets its
// last byte replaced, or Le appended when it is a bare header.
func FixLength(raw []byte, le int) []byte {
	if le <= 0 {
		le = MaxShortLe
	}

	if cmd, err := ParseCommandAPDU(raw); err == nil {
		cmd.Ne = le
		if out, err := cmd.Bytes(); err == nil {
			return out
		}
	}

	out := append([]byte(nil), raw...)
	if len(out) <= 4 {
		return append(out, byte(le))
	}
	out[len(out)-1] = byte(le)
	return out
}
