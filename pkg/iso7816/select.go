package iso7816

import (
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/bits"
)

// SELECT (INS A4). P1 is the selection method; P2 b4-b3 choose the returned
// template and b2-b1 the occurrence.

// SelectionMethod is P1 of SELECT.
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

var selectionMethods = map[SelectionMethod]string{
	SelectByFileID:          "Select by File ID",
	SelectChildDF:           "Select Child DF",
	SelectEFUnderCurrentDF:  "Select EF under current DF",
	SelectParentDF:          "Select Parent DF",
	SelectByDFName:          "Select by DF Name (AID)",
	SelectPathFromMF:        "Select Path from MF",
	SelectPathFromCurrentDF: "Select Path from Current DF",
}

func (s SelectionMethod) String() string {
	if name, ok := selectionMethods[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
}

// FileOccurrence is P2 b2-b1.
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b00
	LastOccurrence        FileOccurrence = 0b01
	NextOccurrence        FileOccurrence = 0b10
	PreviousOccurrence    FileOccurrence = 0b11
)

func (f FileOccurrence) String() string {
	return [...]string{"First/Only", "Last", "Next", "Previous"}[f&0b11]
}

// SelectionControl is P2 b4-b3.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000
	ReturnFCP    SelectionControl = 0b0100
	ReturnFMD    SelectionControl = 0b1000
	ReturnNoData SelectionControl = 0b1100
)

func (s SelectionControl) String() string {
	return [...]string{"Return FCI", "Return FCP", "Return FMD", "No Response Data"}[bits.Field(byte(s), 4, 3)]
}

// NewSelectCommand builds a SELECT. Ne is left at zero whenever data is sent
// so the command stays a case 3 on T=0, where the answer comes back through
// 61XX; ne overrides that choice when positive.
func NewSelectCommand(cla Class, method SelectionMethod, occurrence FileOccurrence, ctrl SelectionControl, data []byte, ne int) *CommandAPDU {
	if ne == 0 && len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}
	p2 := byte(ctrl) | byte(occurrence)
	return NewCommandAPDU(cla, mustInstruction(INS_SELECT), byte(method), p2, data, ne)
}

// Select builds a SELECT by DF name on the basic channel:
// 00 A4 04 P2 Lc name [00]. P2 is 00 for the first occurrence and 02 for the
// next one. With extended set, Le = 00 asks for the whole FCI.
func Select(name []byte, extended, first bool) *CommandAPDU {
	occurrence := NextOccurrence
	if first {
		occurrence = FirstOrOnlyOccurrence
	}
	ne := 0
	if extended {
		ne = MaxShortLe
	}
	return NewSelectCommand(Class{}, SelectByDFName, occurrence, ReturnFCI, name, ne)
}
