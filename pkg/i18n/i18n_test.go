package i18n

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHelp(t *testing.T) {
	tests := []struct {
		lang, shell, verb, want string
	}{
		{"en", "main", "exit", "Leave the shell"},
		{"fr", "main", "exit", "Quitte le shell"},
		{"en", "crypto", "des-kcv", "<key> Key check value of a DES key"},
		{"", "card", "disconnect", "Release the connected card"},
		// regional variants fall back to the base language
		{"fr-CA", "card", "disconnect", "Libère la carte connectée"},
		// languages without a catalog fall back to English
		{"de", "main", "help", "Print this help"},
	}
	for _, tt := range tests {
		c, err := New(tt.lang)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.lang, err)
		}
		if got := c.Help(tt.shell, tt.verb); got != tt.want {
			t.Errorf("[%s] Help(%s, %s) = %q, want %q", tt.lang, tt.shell, tt.verb, got, tt.want)
		}
	}
}

func TestUnknownID(t *testing.T) {
	if got := English().T("help.card.teleport"); got != "help.card.teleport" {
		t.Errorf("T(unknown) = %q", got)
	}
}

func TestInvalidLanguage(t *testing.T) {
	if _, err := New("not a language!"); err == nil {
		t.Error("New accepted a malformed tag")
	}
}

func TestLanguages(t *testing.T) {
	if diff := cmp.Diff([]string{"en", "fr"}, Languages()); diff != "" {
		t.Errorf("Languages() mismatch (-want +got):\n%s", diff)
	}
}
