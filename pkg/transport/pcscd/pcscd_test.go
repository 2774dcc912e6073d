package pcscd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gregLibert/smart-card-shell/pkg/transport"
)

func TestTrimName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Gemalto USB Reader 00 00\x00\x00\x00", "Gemalto USB Reader 00 00"},
		{"\x00garbage", ""},
		{"Plain", "Plain"},
	}
	for _, tt := range tests {
		if got := trimName(tt.in); got != tt.want {
			t.Errorf("trimName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	err := wrap("connect", fmt.Errorf("invalid return code: %x (%v)", 0x80100069, "removed"))
	if !errors.Is(err, transport.ErrCardRemoved) {
		t.Errorf("%v is not ErrCardRemoved", err)
	}
	if code := transport.CodeOf(err); code != transport.CodeRemovedCard {
		t.Errorf("CodeOf() = %#x", code)
	}

	plain := errors.New("dial unix /run/pcscd/pcscd.comm: connect: no such file or directory")
	err = wrap("establish context", plain)
	if !errors.Is(err, plain) || transport.CodeOf(err) != 0 {
		t.Errorf("wrap(plain) = %v", err)
	}

	if wrap("release", nil) != nil {
		t.Error("wrap(nil) must be nil")
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope("user"); err != nil || s != ScopeUser {
		t.Errorf("ParseScope(user) = %v, %v", s, err)
	}
	if s, err := ParseScope(""); err != nil || s != ScopeSystem {
		t.Errorf("ParseScope(\"\") = %v, %v", s, err)
	}
	if _, err := ParseScope("global"); err == nil {
		t.Error("ParseScope(global) should fail")
	}
}
