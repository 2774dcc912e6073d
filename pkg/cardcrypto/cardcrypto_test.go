package cardcrypto

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

func TestDigests(t *testing.T) {
	hello := []byte("hello")
	tests := []struct {
		name string
		fn   func(int, []byte) ([]byte, error)
		size int
		want string
	}{
		{"SHA-1", SHA, 1, "AAF4C61DDCC5E8A2DABEDE0F3B482CD9AEA9434D"},
		{"SHA-224", SHA, 224, "EA09AE9CC6768C50FCEE903ED054556E5BFC8347907F12598AA24193"},
		{"SHA-256", SHA, 256, "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"},
		{"SHA-384", SHA, 384, "59E1748777448C69DE6B800D7A33BBFB9FF1B463E44354C3553BCDB9C666FA90125A3C79F90397BDF5F6A13DE828684F"},
		{"SHA-512", SHA, 512, "9B71D224BD62F3785D96D46AD3EA3D73319BFBC2890CAADAE2DFF72519673CA72323C3D99BA5C11D7C7ACC6E14B8C5DA0C4663475C2E5C3ADEF46F73BCDEC043"},
		{"SHA3-224", SHA3, 224, "B87F88C72702FFF1748E58B87E9141A42C0DBEDC29A78CB0D4A5CD81"},
		{"SHA3-256", SHA3, 256, "3338BE694F50C5F338814986CDF0686453A888B84F424D792AF4B9202398F392"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.size, hello)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, buffer.Bytes(got).Hex()); diff != "" {
				t.Errorf("digest mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := SHA(128, hello); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SHA(128) error = %v, want ErrUnsupported", err)
	}
	if _, err := SHA3(1, hello); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SHA3(1) error = %v, want ErrUnsupported", err)
	}
}

func TestBlockCiphers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(bool, Mode, []byte, []byte, []byte) ([]byte, error)
		mode Mode
		key  string
		iv   string
		in   string
		want string
	}{
		{"DES ECB", DES, ECB, "133457799BBCDFF1", "", "0123456789ABCDEF", "85E813540F0AB405"},
		{"DES ECB second vector", DES, ECB, "0102030405060708", "", "0011223344556677", "26604D88E55BD3E7"},
		{"DES CBC", DES, CBC, "0102030405060708", "0001020304050607", "00112233445566778899AABBCCDDEEFF", "A97662D4197EE8101347EA0B4F9EC51B"},
		{"2-key TDES ECB", DES, ECB, "0123456789ABCDEFFEDCBA9876543210", "", "0011223344556677", "31A7364CAC91CA39"},
		{"AES-128 ECB", AES, ECB, "000102030405060708090A0B0C0D0E0F", "", "00112233445566778899AABBCCDDEEFF", "69C4E0D86A7B0430D8CDB78070B4C55A"},
		{"AES-128 CBC", AES, CBC, "000102030405060708090A0B0C0D0E0F", "0F0E0D0C0B0A09080706050403020100", "00112233445566778899AABBCCDDEEFF", "16628846F7334843BC7321CC79661680"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, iv, in := buffer.MustHex(tt.key), buffer.MustHex(tt.iv), buffer.MustHex(tt.in)

			got, err := tt.fn(true, tt.mode, key, iv, in)
			if err != nil {
				t.Fatalf("encrypt error = %v", err)
			}
			if diff := cmp.Diff(tt.want, buffer.Bytes(got).Hex()); diff != "" {
				t.Errorf("ciphertext mismatch (-want +got):\n%s", diff)
			}

			back, err := tt.fn(false, tt.mode, key, iv, got)
			if err != nil {
				t.Fatalf("decrypt error = %v", err)
			}
			if !bytes.Equal(back, in) {
				t.Errorf("decrypt gave %X, want %X", back, in)
			}
		})
	}
}

func TestBlockCipherErrors(t *testing.T) {
	key := buffer.MustHex("0102030405060708")

	if _, err := DES(true, ECB, key[:7], nil, make([]byte, 8)); err == nil {
		t.Error("7 byte DES key accepted")
	}
	if _, err := DES(true, ECB, key, nil, make([]byte, 7)); err == nil {
		t.Error("partial block accepted")
	}
	if _, err := DES(true, CBC, key, []byte{0}, make([]byte, 8)); err == nil {
		t.Error("short IV accepted")
	}
	if _, err := AES(true, ECB, key, nil, make([]byte, 16)); err == nil {
		t.Error("8 byte AES key accepted")
	}
}

func TestKCV(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]byte) ([]byte, error)
		key  string
		want string
	}{
		{"DES", DESKCV, "0102030405060708", "B073DC"},
		{"2-key TDES", DESKCV, "0123456789ABCDEFFEDCBA9876543210", "08D7B4"},
		{"3-key TDES", DESKCV, "0123456789ABCDEFFEDCBA987654321089ABCDEF01234567", "3FD539"},
		{"AES-128", AESKCV, "00000000000000000000000000000000", "66E94B"},
		{"AES-256", AESKCV, "000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F", "F29000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(buffer.MustHex(tt.key))
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, buffer.Bytes(got).Hex()); diff != "" {
				t.Errorf("KCV mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRSA(t *testing.T) {
	// n = 61 * 53, e = 17.
	got, err := RSA(buffer.MustHex("0CA1"), buffer.MustHex("11"), buffer.MustHex("41"))
	if err != nil {
		t.Fatalf("RSA() error = %v", err)
	}
	if diff := cmp.Diff("0AE6", buffer.Bytes(got).Hex()); diff != "" {
		t.Errorf("RSA() mismatch (-want +got):\n%s", diff)
	}

	// Small results keep the modulus length.
	got, err = RSA(buffer.MustHex("0CA1"), buffer.MustHex("11"), buffer.MustHex("01"))
	if err != nil {
		t.Fatalf("RSA() error = %v", err)
	}
	if diff := cmp.Diff("0001", buffer.Bytes(got).Hex()); diff != "" {
		t.Errorf("RSA() mismatch (-want +got):\n%s", diff)
	}

	if _, err := RSA(buffer.MustHex("0CA1"), buffer.MustHex("11"), buffer.MustHex("0CA1")); err == nil {
		t.Error("input equal to the modulus accepted")
	}
	if _, err := RSA(nil, buffer.MustHex("11"), buffer.MustHex("01")); err == nil {
		t.Error("zero modulus accepted")
	}
}

func TestGenerateRSAKey(t *testing.T) {
	for _, bits := range []int{64, 129} {
		key, err := GenerateRSAKey(bits, []byte{0x01, 0x00, 0x01})
		if err != nil {
			t.Fatalf("GenerateRSAKey(%d) error = %v", bits, err)
		}

		n := new(big.Int).SetBytes(key.Modulus)
		if n.BitLen() != bits {
			t.Errorf("modulus has %d bits, want %d", n.BitLen(), bits)
		}

		m := []byte{0x42}
		c, err := RSA(key.Modulus, key.PublicExponent, m)
		if err != nil {
			t.Fatalf("RSA() error = %v", err)
		}
		back, err := RSA(key.Modulus, key.PrivateExponent, c)
		if err != nil {
			t.Fatalf("RSA() error = %v", err)
		}
		if new(big.Int).SetBytes(back).Int64() != 0x42 {
			t.Errorf("round trip gave %X", back)
		}
	}

	if _, err := GenerateRSAKey(8, []byte{0x03}); err == nil {
		t.Error("8 bit modulus accepted")
	}
	if _, err := GenerateRSAKey(64, []byte{0x04}); err == nil {
		t.Error("even exponent accepted")
	}
}
