package emv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/gregLibert/smart-card-shell/pkg/tlv"
)

// DirectoryDiscretionaryTemplate is tag 73 of a directory entry.
type DirectoryDiscretionaryTemplate struct {
	ApplicationSelectionRegisteredProprietaryData []byte `tlv:"9F0A"`
	IssuerCountryCodeAlpha3                       []byte `tlv:"5F56" fmt:"ascii"`
	IssuerCountryCodeAlpha2                       []byte `tlv:"5F55" fmt:"ascii"`
	BankIdentifierCode                            []byte `tlv:"5F54" fmt:"ascii"`
	IBAN                                          []byte `tlv:"5F53" fmt:"ascii"`
	IssuerURL                                     []byte `tlv:"5F50" fmt:"ascii"`
	IssuerIdentificationNumber                    []byte `tlv:"42"`
	IssuerIdentificationNumberExtended            []byte `tlv:"9F0C"`
	LogEntry                                      []byte `tlv:"9F4D"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ApplicationTemplate is one directory entry, tag 61. AID and label are
// mandatory.
type ApplicationTemplate struct {
	AID                          []byte                         `tlv:"4F"`
	ApplicationLabel             []byte                         `tlv:"50" fmt:"ascii"`
	ApplicationPriorityIndicator []byte                         `tlv:"87" fmt:"int"`
	DirectoryDiscretionaryData   DirectoryDiscretionaryTemplate `tlv:"73"`
	ApplicationPreferredName     []byte                         `tlv:"9F12" fmt:"ascii"`
	DDFName                      []byte                         `tlv:"9D" fmt:"ascii"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// DirectoryRecord is a record of the payment system directory, wrapped in
// a record template (tag 70).
type DirectoryRecord struct {
	Applications []ApplicationTemplate `tlv:"61"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseDirectoryRecord maps the data of a READ RECORD onto a directory
// record.
func ParseDirectoryRecord(data []byte) (*DirectoryRecord, error) {
	list, ok, err := unwrap(data, tagRecord)
	if err != nil {
		return nil, fmt.Errorf("directory record: %w", err)
	}
	if !ok {
		return nil, errors.New("directory record: record template (70) missing")
	}
	return recordFrom(list)
}

func recordFrom(list tlv.List) (*DirectoryRecord, error) {
	record := &DirectoryRecord{}
	if err := mapOnto(list, record); err != nil {
		return nil, fmt.Errorf("directory record: %w", err)
	}
	return record, nil
}

// AIDs returns the application identifiers in record order.
func (r *DirectoryRecord) AIDs() [][]byte {
	aids := make([][]byte, 0, len(r.Applications))
	for _, app := range r.Applications {
		if len(app.AID) > 0 {
			aids = append(aids, app.AID)
		}
	}
	return aids
}

// Describe lists the fields of every application entry.
func (r *DirectoryRecord) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EMV DIRECTORY RECORD ===")
	tlv.WriteStructFields(&sb, "Record", r)
	for i, app := range r.Applications {
		prefix := fmt.Sprintf("App[%d]", i+1)
		tlv.WriteStructFields(&sb, prefix, app)
		tlv.WriteStructFields(&sb, prefix+".Discretionary", app.DirectoryDiscretionaryData)
	}
	return sb.String()
}
