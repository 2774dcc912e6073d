package tlv

import (
	"fmt"

	"github.com/moov-io/bertlv"
)

// Packets converts a decoded list into bertlv packets, decoding constructed
// values into nested packets.
func Packets(list List) ([]bertlv.TLV, error) {
	packets := make([]bertlv.TLV, 0, len(list))
	for _, n := range list {
		p := bertlv.TLV{Tag: n.Tag.String()}
		if n.Tag.Constructed() {
			children, err := n.Children()
			if err != nil {
				return nil, err
			}
			if p.TLVs, err = Packets(children); err != nil {
				return nil, err
			}
		} else {
			p.Value = n.Value
		}
		packets = append(packets, p)
	}
	return packets, nil
}

// Encode serializes list back to BER-TLV.
func Encode(list List) ([]byte, error) {
	packets, err := Packets(list)
	if err != nil {
		return nil, err
	}
	data, err := bertlv.Encode(packets)
	if err != nil {
		return nil, fmt.Errorf("bertlv encode failed: %w", err)
	}
	return data, nil
}
