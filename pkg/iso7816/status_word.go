package iso7816

import (
	"fmt"

	"github.com/gregLibert/smart-card-shell/pkg/bits"
)

// Status words whose SW2 carries a value (ISO/IEC 7816-4 §5.6):
//   - 61XX: XX bytes still available, fetch with GET RESPONSE.
//   - 6CXX: wrong Le, XX is the exact length.
//   - 62XX / 64XX with XX in 02-80: triggering by the card, XX bytes to query.
//   - 63CX: warning with counter X (remaining tries).

// StatusWord is SW1 SW2 as one value.
type StatusWord uint16

// NewStatusWord joins sw1 and sw2.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the high byte.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the low byte.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// BytesAvailable reports a 61XX status and the number of waiting bytes.
// SW2 = 00 means 256.
func (sw StatusWord) BytesAvailable() (int, bool) {
	if sw.SW1() != 0x61 {
		return 0, false
	}
	return lengthOf(sw.SW2()), true
}

// CorrectLength reports a 6CXX status and the exact Le to use.
// SW2 = 00 means 256.
func (sw StatusWord) CorrectLength() (int, bool) {
	if sw.SW1() != 0x6C {
		return 0, false
	}
	return lengthOf(sw.SW2()), true
}

func lengthOf(sw2 byte) int {
	if sw2 == 0 {
		return MaxShortLe
	}
	return int(sw2)
}

// IsTriggeringByCard reports 62XX or 64XX with XX in 02-80.
func (sw StatusWord) IsTriggeringByCard() bool {
	sw1, sw2 := sw.SW1(), sw.SW2()
	if sw2 < 0x02 || sw2 > 0x80 {
		return false
	}
	return sw1 == 0x62 || sw1 == 0x64
}

// IsCounter reports 63CX.
func (sw StatusWord) IsCounter() bool {
	return sw.SW1() == 0x63 && bits.High(sw.SW2()) == 0x0C
}

// IsSuccess reports 9000 and 61XX.
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.SW1() == 0x61
}

// IsWarning reports 62XX and 63XX.
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError reports 64XX to 6FXX.
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// String returns the registered meaning of the status word, or the
// meaning of its SW1 category.
func (sw StatusWord) String() string {
	if text, ok := swText[sw]; ok {
		return text
	}
	return sw.category()
}

// Verbose describes the status word, decoding the value carried by SW2
// when there is one.
func (sw StatusWord) Verbose() string {
	sw1, sw2 := sw.SW1(), sw.SW2()

	switch {
	case sw.IsTriggeringByCard():
		action := "Warning (Triggering)"
		if sw1 == 0x64 {
			action = "Error/Abort (Triggering)"
		}
		return fmt.Sprintf("%s: Card expects query of %d bytes", action, sw2)
	case sw.IsCounter():
		return fmt.Sprintf("Warning: State changed, counter = %d", bits.Low(sw2))
	case sw1 == 0x61:
		return fmt.Sprintf("Process completed, %d bytes available", sw2)
	case sw1 == 0x6C:
		return fmt.Sprintf("Wrong length, correct Le is %d", sw2)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw)
}

func (sw StatusWord) category() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x67:
		return "Checking Error: Wrong length"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A, 0x6B:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Interindustry status words.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_NO_INFO              StatusWord = 0x6200
	SW_WARN_TRIGGERING_BY_CARD   StatusWord = 0x6202
	SW_WARN_DATA_CORRUPTED       StatusWord = 0x6281
	SW_WARN_EOF_REACHED          StatusWord = 0x6282
	SW_WARN_FILE_DEACTIVATED     StatusWord = 0x6283
	SW_WARN_FCI_BAD_FORMAT       StatusWord = 0x6284
	SW_WARN_TERMINATION_STATE    StatusWord = 0x6285
	SW_WARN_NO_INPUT_FROM_SENSOR StatusWord = 0x6286

	SW_WARN_NV_CHANGED_NO_INFO StatusWord = 0x6300
	SW_WARN_FILE_FILLED        StatusWord = 0x6381
	SW_WARN_COUNTER_0          StatusWord = 0x63C0

	SW_ERR_EXEC_NO_INFO            StatusWord = 0x6400
	SW_ERR_EXEC_IMMEDIATE_RESPONSE StatusWord = 0x6401
	SW_ERR_EXEC_TRIGGERING_BY_CARD StatusWord = 0x6402

	SW_ERR_NV_CHANGED_NO_INFO StatusWord = 0x6500
	SW_ERR_MEMORY_FAILURE     StatusWord = 0x6581
	SW_ERR_SECURITY_ISSUE     StatusWord = 0x6600

	SW_ERR_WRONG_LENGTH              StatusWord = 0x6700
	SW_ERR_CHECKING_NO_INFO          StatusWord = 0x6800
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP  StatusWord = 0x6881
	SW_ERR_SECURE_MESSAGING_NOT_SUPP StatusWord = 0x6882
	SW_ERR_LAST_COMMAND_EXPECTED     StatusWord = 0x6883
	SW_ERR_CHAINING_NOT_SUPP         StatusWord = 0x6884

	SW_ERR_CMD_NOT_ALLOWED_NO_INFO StatusWord = 0x6900
	SW_ERR_CMD_INCOMPATIBLE_FILE   StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_REF_DATA_NOT_USABLE     StatusWord = 0x6984
	SW_ERR_COND_OF_USE_NOT_SAT     StatusWord = 0x6985
	SW_ERR_CMD_NOT_ALLOWED_NO_EF   StatusWord = 0x6986
	SW_ERR_SM_OBJ_MISSING          StatusWord = 0x6987
	SW_ERR_SM_OBJ_INCORRECT        StatusWord = 0x6988

	SW_ERR_WRONG_PARAMS_NO_INFO   StatusWord = 0x6A00
	SW_ERR_INCORRECT_PARAMS_DATA  StatusWord = 0x6A80
	SW_ERR_FUNC_NOT_SUPPORTED     StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND         StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND       StatusWord = 0x6A83
	SW_ERR_NOT_ENOUGH_MEMORY      StatusWord = 0x6A84
	SW_ERR_NC_INCONSISTENT_TLV    StatusWord = 0x6A85
	SW_ERR_INCORRECT_PARAMS_P1P2  StatusWord = 0x6A86
	SW_ERR_NC_INCONSISTENT_P1P2   StatusWord = 0x6A87
	SW_ERR_REF_DATA_NOT_FOUND     StatusWord = 0x6A88
	SW_ERR_FILE_ALREADY_EXISTS    StatusWord = 0x6A89
	SW_ERR_DF_NAME_ALREADY_EXISTS StatusWord = 0x6A8A

	SW_ERR_WRONG_P1P2        StatusWord = 0x6B00
	SW_ERR_INS_INVALID       StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED StatusWord = 0x6E00
	SW_ERR_UNKNOWN           StatusWord = 0x6F00
)

var swText = map[StatusWord]string{
	SW_NO_ERROR: "No error",

	SW_WARN_NO_INFO:              "Warning: no information given",
	SW_WARN_DATA_CORRUPTED:       "Warning: part of returned data may be corrupted",
	SW_WARN_EOF_REACHED:          "Warning: end of file or record reached before reading Ne bytes",
	SW_WARN_FILE_DEACTIVATED:     "Warning: selected file deactivated",
	SW_WARN_FCI_BAD_FORMAT:       "Warning: file control information not formatted",
	SW_WARN_TERMINATION_STATE:    "Warning: selected file in termination state",
	SW_WARN_NO_INPUT_FROM_SENSOR: "Warning: no input data available from a sensor",

	SW_WARN_NV_CHANGED_NO_INFO: "Warning: NV memory changed, no information given",
	SW_WARN_FILE_FILLED:        "Warning: file filled up by the last write",

	SW_ERR_EXEC_NO_INFO:            "Execution error: NV memory unchanged, no information given",
	SW_ERR_EXEC_IMMEDIATE_RESPONSE: "Execution error: immediate response required by the card",

	SW_ERR_NV_CHANGED_NO_INFO: "Execution error: NV memory changed, no information given",
	SW_ERR_MEMORY_FAILURE:     "Execution error: memory failure",
	SW_ERR_SECURITY_ISSUE:     "Execution error: security issue",

	SW_ERR_WRONG_LENGTH:              "Wrong length",
	SW_ERR_CHECKING_NO_INFO:          "Function in CLA not supported",
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP:  "Logical channel not supported",
	SW_ERR_SECURE_MESSAGING_NOT_SUPP: "Secure messaging not supported",
	SW_ERR_LAST_COMMAND_EXPECTED:     "Last command of the chain expected",
	SW_ERR_CHAINING_NOT_SUPP:         "Command chaining not supported",

	SW_ERR_CMD_NOT_ALLOWED_NO_INFO: "Command not allowed",
	SW_ERR_CMD_INCOMPATIBLE_FILE:   "Command incompatible with file structure",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "Security status not satisfied",
	SW_ERR_AUTH_METHOD_BLOCKED:     "Authentication method blocked",
	SW_ERR_REF_DATA_NOT_USABLE:     "Reference data not usable",
	SW_ERR_COND_OF_USE_NOT_SAT:     "Conditions of use not satisfied",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF:   "Command not allowed (no current EF)",
	SW_ERR_SM_OBJ_MISSING:          "Expected secure messaging data objects missing",
	SW_ERR_SM_OBJ_INCORRECT:        "Incorrect secure messaging data objects",

	SW_ERR_WRONG_PARAMS_NO_INFO:   "Wrong parameters P1-P2",
	SW_ERR_INCORRECT_PARAMS_DATA:  "Incorrect parameters in the command data field",
	SW_ERR_FUNC_NOT_SUPPORTED:     "Function not supported",
	SW_ERR_FILE_NOT_FOUND:         "File or application not found",
	SW_ERR_RECORD_NOT_FOUND:       "Record not found",
	SW_ERR_NOT_ENOUGH_MEMORY:      "Not enough memory space in the file",
	SW_ERR_NC_INCONSISTENT_TLV:    "Nc inconsistent with TLV structure",
	SW_ERR_INCORRECT_PARAMS_P1P2:  "Incorrect parameters P1-P2",
	SW_ERR_NC_INCONSISTENT_P1P2:   "Nc inconsistent with parameters P1-P2",
	SW_ERR_REF_DATA_NOT_FOUND:     "Referenced data or reference data not found",
	SW_ERR_FILE_ALREADY_EXISTS:    "File already exists",
	SW_ERR_DF_NAME_ALREADY_EXISTS: "DF name already exists",

	SW_ERR_WRONG_P1P2:        "Wrong parameters P1-P2",
	SW_ERR_INS_INVALID:       "Instruction code not supported or invalid",
	SW_ERR_CLA_NOT_SUPPORTED: "Class not supported",
	SW_ERR_UNKNOWN:           "No precise diagnosis",
}
