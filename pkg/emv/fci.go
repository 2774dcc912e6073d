package emv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/smart-card-shell/pkg/tlv"
)

// FCI is the EMV answer to SELECT, EMV Book 1 §11.3.4.
type FCI struct {
	DFName              []byte                 `tlv:"84" fmt:"ascii"`
	ProprietaryTemplate FCIProprietaryTemplate `tlv:"A5"`
}

// FCIProprietaryTemplate is tag A5.
type FCIProprietaryTemplate struct {
	ApplicationLabel             []byte `tlv:"50" fmt:"ascii"`
	ApplicationPriorityIndicator []byte `tlv:"87" fmt:"int"`
	SFI                          []byte `tlv:"88" fmt:"int"`
	PDOL                         []byte `tlv:"9F38"`
	LanguagePreference           []byte `tlv:"5F2D" fmt:"ascii"`
	IssuerCodeTableIndex         []byte `tlv:"9F11" fmt:"int"`
	ApplicationPreferredName     []byte `tlv:"9F12" fmt:"ascii"`

	IssuerDiscretionaryData *FCIIssuerDiscretionaryData `tlv:"BF0C"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FCIIssuerDiscretionaryData is tag BF0C.
type FCIIssuerDiscretionaryData struct {
	LogEntry                           []byte `tlv:"9F4D"`
	IssuerIdentificationNumberExtended []byte `tlv:"9F0C"`
	IssuerCountryCodeAlpha3            []byte `tlv:"5F56" fmt:"ascii"`
	IssuerCountryCodeAlpha2            []byte `tlv:"5F55" fmt:"ascii"`
	BankIdentifierCode                 []byte `tlv:"5F54" fmt:"ascii"`
	IBAN                               []byte `tlv:"5F53" fmt:"ascii"`
	IssuerURL                          []byte `tlv:"5F50" fmt:"ascii"`
	IssuerIdentificationNumber         []byte `tlv:"42"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseFCI maps data onto an FCI. The 6F wrapper is optional.
func ParseFCI(data []byte) (*FCI, error) {
	list, _, err := unwrap(data, tagFCI)
	if err != nil {
		return nil, fmt.Errorf("FCI: %w", err)
	}
	return fciFrom(list)
}

func fciFrom(list tlv.List) (*FCI, error) {
	fci := &FCI{}
	if err := mapOnto(list, fci); err != nil {
		return nil, fmt.Errorf("FCI: %w", err)
	}
	return fci, nil
}

// Label returns the preferred name when the card gives one, the
// application label otherwise.
func (f *FCI) Label() string {
	if name := f.ProprietaryTemplate.ApplicationPreferredName; len(name) > 0 {
		return string(name)
	}
	return string(f.ProprietaryTemplate.ApplicationLabel)
}

// Describe lists every field present.
func (f *FCI) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV FCI TEMPLATE ===")
	tlv.WriteStructFields(&sb, "FCI", f)
	tlv.WriteStructFields(&sb, "Proprietary", f.ProprietaryTemplate)
	tlv.WriteStructFields(&sb, "Discretionary", f.ProprietaryTemplate.IssuerDiscretionaryData)
	return sb.String()
}
