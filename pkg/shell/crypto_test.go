package shell

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

func TestCryptoCommands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "unknown verb",
			line: "crypto md5 hex 00",
			want: "Unknown crypto command\n",
		},
		{
			name: "sha256 of ascii",
			line: "crypto sha 256 ascii hello",
			want: "crypto sha 256 hex 68 65 6C 6C 6F\n" +
				"2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824\n",
		},
		{
			name: "sha1 of split hex",
			line: "crypto sha 1 hex 6865 6c6c6f",
			want: "crypto sha 1 hex 68 65 6C 6C 6F\n" +
				"AAF4C61DDCC5E8A2DABEDE0F3B482CD9AEA9434D\n",
		},
		{
			name: "sha3-256",
			line: "crypto sha3 256 ascii hello",
			want: "crypto sha3 256 hex 68 65 6C 6C 6F\n" +
				"3338BE694F50C5F338814986CDF0686453A888B84F424D792AF4B9202398F392\n",
		},
		{
			name: "sha with unsupported size",
			line: "crypto sha 100 hex 00",
			want: "crypto sha [1/224/256/384/512] <hex/ascii> {buffer}\n",
		},
		{
			name: "sha with unknown literal mode",
			line: "crypto sha 256 base64 aGk=",
			want: "crypto sha [1/224/256/384/512] <hex/ascii> {buffer}\n",
		},
		{
			name: "rsa",
			line: "crypto rsa 0ca1 11 hex 41",
			want: "crypto rsa 0CA1 11 hex 41\n0AE6\n",
		},
		{
			name: "rsa usage",
			line: "crypto rsa 0ca1 11",
			want: "crypto rsa <modulus> <exponent> <hex/ascii> {buffer}\n",
		},
		{
			name: "des ecb",
			line: "crypto des encrypt ecb 133457799bbcdff1 hex 0123456789abcdef",
			want: "crypto des encrypt ecb 133457799BBCDFF1 hex 01 23 45 67 89 AB CD EF\n" +
				"85E813540F0AB405\n",
		},
		{
			name: "des ecb decrypt",
			line: "crypto des decrypt ecb 133457799bbcdff1 hex 85e813540f0ab405",
			want: "crypto des decrypt ecb 133457799BBCDFF1 hex 85 E8 13 54 0F 0A B4 05\n" +
				"0123456789ABCDEF\n",
		},
		{
			name: "aes cbc",
			line: "crypto aes encrypt cbc 0f0e0d0c0b0a09080706050403020100 000102030405060708090a0b0c0d0e0f hex 00112233445566778899aabbccddeeff",
			want: "crypto aes encrypt cbc 0F0E0D0C0B0A09080706050403020100 000102030405060708090A0B0C0D0E0F hex 00 11 22 33 44 55 66 77 88 99 AA BB CC DD EE FF\n" +
				"16628846F7334843BC7321CC79661680\n",
		},
		{
			name: "cbc without iv",
			line: "crypto des encrypt cbc 0102030405060708 hex",
			want: "crypto des <encrypt/decrypt> <ecb/cbc {iv}> <key> <hex/ascii> {buffer}\n",
		},
		{
			name: "unknown direction",
			line: "crypto aes wrap ecb 00000000000000000000000000000000 hex 00",
			want: "crypto aes <encrypt/decrypt> <ecb/cbc {iv}> <key> <hex/ascii> {buffer}\n",
		},
		{
			name: "des kcv",
			line: "crypto des-kcv 0102030405060708",
			want: "crypto des-kcv 0102030405060708\nB073DC\n",
		},
		{
			name: "aes kcv",
			line: "crypto aes-kcv 00000000000000000000000000000000",
			want: "crypto aes-kcv 00000000000000000000000000000000\n66E94B\n",
		},
		{
			name: "kcv usage",
			line: "crypto aes-kcv",
			want: "crypto aes-kcv <key>\n",
		},
		{
			name: "keygen usage",
			line: "crypto rsa-keygen 512",
			want: "crypto rsa-keygen <bits> <public exponent>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{})
			if got := run(t, s, tt.line); got != tt.want {
				t.Errorf("mismatch (-want +got):\n%s", cmp.Diff(tt.want, got))
			}
		})
	}
}

func TestCryptoHelp(t *testing.T) {
	s := New(Options{})
	got := run(t, s, "crypto")
	if !strings.HasPrefix(got, "\ncrypto sha [1/224/256/384/512] <hex/ascii> {buffer} SHA digest\n") {
		t.Errorf("crypto help = %q", got)
	}
	if !strings.HasSuffix(got, "Key check value of an AES key\n\n") {
		t.Errorf("crypto help ends with %q", got[max(0, len(got)-40):])
	}
}

func TestCryptoErrors(t *testing.T) {
	s := New(Options{})

	var format *buffer.FormatError
	for _, line := range []string{
		"crypto sha 256 hex 0",
		"crypto rsa 0g 03 hex 00",
		"crypto des-kcv 01020",
		"crypto rsa-keygen many 03",
	} {
		if _, err := s.Execute(line); !errors.As(err, &format) {
			t.Errorf("%q error = %v, want *buffer.FormatError", line, err)
		}
	}

	// partial blocks are refused since no padding is applied
	if _, err := s.Execute("crypto des encrypt ecb 0102030405060708 hex 0011"); err == nil {
		t.Error("des accepted a partial block")
	}
	if _, err := s.Execute("crypto des-kcv 01020304"); err == nil {
		t.Error("des-kcv accepted a 4 byte key")
	}
	s.Drain()
}

func TestCryptoKeygen(t *testing.T) {
	s := New(Options{})
	lines := strings.Split(strings.TrimSuffix(run(t, s, "crypto rsa-keygen 64 03"), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("keygen output %q", lines)
	}
	if lines[0] != "crypto rsa-keygen 64 03" {
		t.Errorf("echo = %q", lines[0])
	}
	prefixes := []string{"Modulus: ", "Public exponent: 03", "Private exponent: "}
	for i, p := range prefixes {
		if !strings.HasPrefix(lines[i+1], p) {
			t.Errorf("line %d = %q, want prefix %q", i+1, lines[i+1], p)
		}
	}
	if modulus := strings.TrimPrefix(lines[1], "Modulus: "); len(modulus) != 16 {
		t.Errorf("64-bit modulus %q", modulus)
	}
}
