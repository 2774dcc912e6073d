package iso7816

import (
	"fmt"
)

// READ RECORD (INS B2). P2 b8-b4 is the SFI (0 for the current EF), b3 tells
// whether P1 is a record number (1) or identifier (0), b2-b1 the occurrence.

// ReadRecordMode is P2 b3-b1.
type ReadRecordMode byte

const (
	RefByID_FirstOccurrence    ReadRecordMode = 0b000
	RefByID_LastOccurrence     ReadRecordMode = 0b001
	RefByID_NextOccurrence     ReadRecordMode = 0b010
	RefByID_PreviousOccurrence ReadRecordMode = 0b011

	RefByNum_ReadP1              ReadRecordMode = 0b100
	RefByNum_ReadAllFromP1       ReadRecordMode = 0b101
	RefByNum_ReadAllFromLastToP1 ReadRecordMode = 0b110
)

func (m ReadRecordMode) String() string {
	switch m {
	case RefByID_FirstOccurrence:
		return "Ref ID: First Occurrence"
	case RefByID_LastOccurrence:
		return "Ref ID: Last Occurrence"
	case RefByID_NextOccurrence:
		return "Ref ID: Next Occurrence"
	case RefByID_PreviousOccurrence:
		return "Ref ID: Previous Occurrence"
	case RefByNum_ReadP1:
		return "Ref Num: Read Record P1"
	case RefByNum_ReadAllFromP1:
		return "Ref Num: Read All from P1"
	case RefByNum_ReadAllFromLastToP1:
		return "Ref Num: Read All from Last to P1"
	default:
		return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
	}
}

// ByNumber reports whether P1 holds a record number.
func (m ReadRecordMode) ByNumber() bool {
	return m&0b100 != 0
}

// MaxSFI is the largest short EF identifier.
const MaxSFI = 30

// NewReadRecordCommand builds a READ RECORD asking for up to 256 bytes.
func NewReadRecordCommand(cla Class, sfi, p1 byte, mode ReadRecordMode) (*CommandAPDU, error) {
	if sfi > MaxSFI {
		return nil, fmt.Errorf("SFI %d out of range (max %d)", sfi, MaxSFI)
	}
	p2 := sfi<<3 | byte(mode)
	return NewCommandAPDU(cla, mustInstruction(INS_READ_RECORD), p1, p2, nil, MaxShortLe), nil
}

// ReadRecord reads record number record of the EF with the given SFI.
func ReadRecord(cla Class, sfi, record byte) (*CommandAPDU, error) {
	return NewReadRecordCommand(cla, sfi, record, RefByNum_ReadP1)
}
