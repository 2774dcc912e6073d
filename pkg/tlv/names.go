package tlv

import (
	"fmt"
	"maps"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

// Dictionary maps an uppercase hex tag to a human readable name.
type Dictionary map[string]string

var builtinNames = Dictionary{
	// ISO 7816-4 interindustry templates
	"42":   "Issuer Identification Number",
	"4F":   "Application Identifier (AID)",
	"50":   "Application Label",
	"5F2D": "Language Preference",
	"5F50": "Issuer URL",
	"5F53": "IBAN",
	"5F54": "Bank Identifier Code (BIC)",
	"5F55": "Issuer Country Code (alpha2)",
	"5F56": "Issuer Country Code (alpha3)",
	"61":   "Application Template",
	"62":   "File Control Parameters (FCP)",
	"64":   "File Management Data (FMD)",
	"6F":   "File Control Information (FCI)",
	"70":   "Record Template",
	"73":   "Directory Discretionary Template",
	"77":   "Response Message Template Format 2",
	"80":   "Response Message Template Format 1",
	"81":   "Total File Size",
	"82":   "File Descriptor",
	"83":   "File Identifier",
	"84":   "DF Name",
	"85":   "Proprietary Information",
	"86":   "Security Attribute (proprietary)",
	"87":   "Application Priority Indicator",
	"88":   "Short File Identifier (SFI)",
	"8A":   "Life Cycle Status",
	"8C":   "Security Attribute (compact)",
	"9D":   "DDF Name",
	"A5":   "FCI Proprietary Template",
	"BF0C": "FCI Issuer Discretionary Data",

	// EMV
	"57":   "Track 2 Equivalent Data",
	"5A":   "Application PAN",
	"5F20": "Cardholder Name",
	"5F24": "Application Expiration Date",
	"5F25": "Application Effective Date",
	"5F28": "Issuer Country Code",
	"5F30": "Service Code",
	"5F34": "PAN Sequence Number",
	"8E":   "CVM List",
	"8F":   "CA Public Key Index",
	"90":   "Issuer Public Key Certificate",
	"92":   "Issuer Public Key Remainder",
	"94":   "Application File Locator (AFL)",
	"9F07": "Application Usage Control",
	"9F08": "Application Version Number",
	"9F0A": "Application Selection Registered Proprietary Data",
	"9F0C": "Issuer Identification Number Extended",
	"9F0D": "Issuer Action Code - Default",
	"9F0E": "Issuer Action Code - Denial",
	"9F0F": "Issuer Action Code - Online",
	"9F11": "Issuer Code Table Index",
	"9F12": "Application Preferred Name",
	"9F1F": "Track 1 Discretionary Data",
	"9F32": "Issuer Public Key Exponent",
	"9F36": "Application Transaction Counter (ATC)",
	"9F38": "PDOL",
	"9F42": "Application Currency Code",
	"9F44": "Application Currency Exponent",
	"9F46": "ICC Public Key Certificate",
	"9F47": "ICC Public Key Exponent",
	"9F48": "ICC Public Key Remainder",
	"9F49": "DDOL",
	"9F4A": "Static Data Authentication Tag List",
	"9F4D": "Log Entry",
}

// DefaultDictionary returns a copy of the built-in tag names.
func DefaultDictionary() Dictionary {
	return maps.Clone(builtinNames)
}

// Name returns the name registered for tag, or "" when the tag is unknown.
func (d Dictionary) Name(tag Tag) string {
	return d[tag.String()]
}

// Merge adds every entry of other, overriding existing names.
func (d Dictionary) Merge(other Dictionary) {
	maps.Copy(d, other)
}

type dictionaryFile struct {
	Tags map[string]string `toml:"tags"`
}

// LoadDictionary reads a TOML file holding a [tags] table and merges it into
// the built-in names.
//
//	[tags]
//	"9F38" = "PDOL"
func LoadDictionary(path string) (Dictionary, error) {
	var raw dictionaryFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load tag dictionary: %w", err)
	}
	return fromFile(raw)
}

// ParseDictionary is LoadDictionary for TOML held in memory.
func ParseDictionary(text string) (Dictionary, error) {
	var raw dictionaryFile
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("parse tag dictionary: %w", err)
	}
	return fromFile(raw)
}

func fromFile(raw dictionaryFile) (Dictionary, error) {
	d := DefaultDictionary()
	for key, name := range raw.Tags {
		tag, err := buffer.ParseHex(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("tag dictionary entry %q: %w", key, err)
		}
		if len(tag) == 0 {
			return nil, fmt.Errorf("tag dictionary entry %q: empty tag", key)
		}
		d[tag.Hex()] = name
	}
	return d, nil
}
