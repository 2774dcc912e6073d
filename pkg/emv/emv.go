// Package emv maps the EMV payment templates returned by SELECT and READ
// RECORD onto structs and lists their fields.
package emv

import (
	"errors"
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/tlv"
)

// Payment system environment names, selected by name with SELECT.
const (
	PSE  = "1PAY.SYS.DDF01" // contact
	PPSE = "2PAY.SYS.DDF01" // proximity
)

// Template tags.
const (
	tagFCI    = "6F"
	tagRecord = "70"
)

var errEmpty = errors.New("no data")

// unwrap decodes data. When the first object carries wrapper its children
// are returned with ok set; otherwise the top level list is returned.
func unwrap(data []byte, wrapper string) (list tlv.List, ok bool, err error) {
	if len(data) == 0 {
		return nil, false, errEmpty
	}
	if list, err = tlv.Decode(data); err != nil {
		return nil, false, fmt.Errorf("BER-TLV decode failed: %w", err)
	}
	if len(list) == 0 || list[0].Tag.String() != wrapper {
		return list, false, nil
	}
	children, err := list[0].Children()
	if err != nil {
		return nil, false, fmt.Errorf("template %s: %w", wrapper, err)
	}
	return children, true, nil
}

// mapOnto fills the tagged fields of target from list.
func mapOnto(list tlv.List, target any) error {
	packets, err := tlv.Packets(list)
	if err != nil {
		return err
	}
	return tlv.UnmarshalFromPackets(packets, target)
}

// Explain recognizes an FCI (tag 6F) or a directory record (tag 70) and
// returns its field listing. It reports false for anything else.
func Explain(data []byte) (string, bool) {
	list, err := tlv.Decode(data)
	if err != nil || len(list) == 0 {
		return "", false
	}

	switch list[0].Tag.String() {
	case tagFCI:
		inner, err := list[0].Children()
		if err != nil {
			return "", false
		}
		fci, err := fciFrom(inner)
		if err != nil {
			return "", false
		}
		return fci.Describe(), true
	case tagRecord:
		inner, err := list[0].Children()
		if err != nil {
			return "", false
		}
		record, err := recordFrom(inner)
		if err != nil || len(record.Applications) == 0 {
			return "", false
		}
		return record.Describe(), true
	}
	return "", false
}
