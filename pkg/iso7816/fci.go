package iso7816

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/smart-card-shell/pkg/tlv"
)

// Data returned by SELECT, ISO/IEC 7816-4 §7.4. P2 b4-b3 pick the layout:
// a 6F FCI wrapping 62 (FCP) and 64 (FMD), a bare 62, a bare 64 or nothing.
// Data starting with C0 or above is proprietary and kept as is.

// FCPTemplate holds the file control parameters, tag 62.
type FCPTemplate struct {
	DataSizeExcludingStruct []byte `tlv:"80" fmt:"int"`
	TotalFileSize           []byte `tlv:"81" fmt:"int"`
	FileDescriptor          []byte `tlv:"82"`
	FileIdentifier          []byte `tlv:"83"`
	DFName                  []byte `tlv:"84" fmt:"ascii"`
	ProprietaryInfoRaw      []byte `tlv:"85"`
	SecurityAttrProprietary []byte `tlv:"86"`
	ExtFileControlInfoID    []byte `tlv:"87"`
	ShortEFIdentifier       []byte `tlv:"88"`
	LifeCycleStatus         []byte `tlv:"8A"`
	SecAttrRefExpanded      []byte `tlv:"8B"`
	SecurityAttrCompact     []byte `tlv:"8C"`
	SecEnvTemplateID        []byte `tlv:"8D"`
	ChannelSecurityAttr     []byte `tlv:"8E"`
	SecAttrTemplateData     []byte `tlv:"A0"`
	SecAttrTemplateProp     []byte `tlv:"A1"`
	OneOrMorePairs          []byte `tlv:"A2"`
	ProprietaryDataBER      []byte `tlv:"A5"`
	SecurityAttrExpanded    []byte `tlv:"AB"`
	CryptoMechanismID       []byte `tlv:"AC"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FMDTemplate holds the file management data, tag 64.
type FMDTemplate struct {
	ApplicationIdentifier []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel      []byte `tlv:"50" fmt:"ascii"`
	ProprietaryData53     []byte `tlv:"53"`
	ProprietaryData73     []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileControlInfo is the decoded answer to a SELECT.
type FileControlInfo struct {
	FCP *FCPTemplate
	FMD *FMDTemplate

	// Unknown holds what neither template claimed when the objects came
	// without a 62 or 64 wrapper.
	Unknown []bertlv.TLV

	ProprietaryRawData []byte
}

// GetAID returns tag 84 from the FCP, or from the FMD when the FCP has none.
func (fci *FileControlInfo) GetAID() []byte {
	if fci.FCP != nil && len(fci.FCP.DFName) > 0 {
		return fci.FCP.DFName
	}
	if fci.FMD != nil && len(fci.FMD.ApplicationIdentifier) > 0 {
		return fci.FMD.ApplicationIdentifier
	}
	return nil
}

// ApplicationLabel returns tag 50 of the FMD.
func (fci *FileControlInfo) ApplicationLabel() []byte {
	if fci.FMD != nil {
		return fci.FMD.ApplicationLabel
	}
	return nil
}

// Structures lists the parts present: FCP, FMD, Proprietary.
func (fci *FileControlInfo) Structures() []string {
	var parts []string
	if fci.FCP != nil {
		parts = append(parts, "FCP")
	}
	if fci.FMD != nil {
		parts = append(parts, "FMD")
	}
	if len(fci.ProprietaryRawData) > 0 {
		parts = append(parts, "Proprietary")
	}
	return parts
}

// Describe lists every field of the decoded templates, one per line.
func (fci *FileControlInfo) Describe() string {
	var sb strings.Builder
	tlv.WriteStructFields(&sb, "FCP", fci.FCP)
	tlv.WriteStructFields(&sb, "FMD", fci.FMD)
	for _, p := range fci.Unknown {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "    - Unknown Tag %s: %X", p.Tag, p.Value)
	}
	if len(fci.ProprietaryRawData) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "    - Proprietary: %X", fci.ProprietaryRawData)
	}
	return sb.String()
}

// ParseSelectData decodes the data field of a SELECT response according to
// the P2 of the command. It returns nil, nil when there is nothing to decode.
func ParseSelectData(data []byte, p2 byte) (*FileControlInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] >= 0xC0 {
		return &FileControlInfo{ProprietaryRawData: data}, nil
	}

	packets, err := tlv.DecodePackets(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	switch SelectionControl(p2 & 0x0C) {
	case ReturnFCP:
		fcp := &FCPTemplate{}
		if !unmarshalTemplate(packets, "62", fcp) {
			return nil, fmt.Errorf("mandatory tag '62' not found")
		}
		return &FileControlInfo{FCP: fcp}, nil

	case ReturnFMD:
		fmd := &FMDTemplate{}
		if !unmarshalTemplate(packets, "64", fmd) {
			return nil, fmt.Errorf("mandatory tag '64' not found")
		}
		return &FileControlInfo{FMD: fmd}, nil

	case ReturnFCI:
		return parseFCI(packets)
	}

	return nil, nil
}

func parseFCI(packets []bertlv.TLV) (*FileControlInfo, error) {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, "6F") {
			packets = p.TLVs
			break
		}
	}

	fci := &FileControlInfo{FCP: &FCPTemplate{}, FMD: &FMDTemplate{}}
	foundFCP := unmarshalTemplate(packets, "62", fci.FCP)
	foundFMD := unmarshalTemplate(packets, "64", fci.FMD)
	if foundFCP || foundFMD {
		if !foundFCP {
			fci.FCP = nil
		}
		if !foundFMD {
			fci.FMD = nil
		}
		return fci, nil
	}

	// No template: the objects sit directly in the FCI. The FCP takes what
	// it knows, the FMD takes from the rest.
	if err := tlv.UnmarshalFromPackets(packets, fci.FCP); err != nil {
		return nil, fmt.Errorf("flat FCP unmarshal failed: %w", err)
	}
	rest := fci.FCP.Unknown
	fci.FCP.Unknown = nil

	if err := tlv.UnmarshalFromPackets(rest, fci.FMD); err != nil {
		return nil, fmt.Errorf("flat FMD unmarshal failed: %w", err)
	}
	fci.Unknown = fci.FMD.Unknown
	fci.FMD.Unknown = nil

	return fci, nil
}

func unmarshalTemplate(packets []bertlv.TLV, tag string, target any) bool {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return tlv.UnmarshalFromPackets(p.TLVs, target) == nil
		}
	}
	return false
}
