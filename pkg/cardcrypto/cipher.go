package cardcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"
)

// Mode is the block chaining mode.
type Mode int

const (
	ECB Mode = iota
	CBC
)

func (m Mode) String() string {
	if m == CBC {
		return "cbc"
	}
	return "ecb"
}

// KCVLength is the number of bytes kept from the encrypted zero block.
const KCVLength = 3

// NewDESCipher picks the algorithm from the key length: 8 bytes for single
// DES, 16 for two-key triple DES (K1 K2 K1), 24 for three-key triple DES.
func NewDESCipher(key []byte) (cipher.Block, error) {
	switch len(key) {
	case 8:
		return des.NewCipher(key)
	case 16:
		k := make([]byte, 0, 24)
		k = append(k, key...)
		k = append(k, key[:8]...)
		return des.NewTripleDESCipher(k)
	case 24:
		return des.NewTripleDESCipher(key)
	}
	return nil, fmt.Errorf("DES key must be 8, 16 or 24 bytes, got %d", len(key))
}

// NewAESCipher accepts 16, 24 or 32 byte keys.
func NewAESCipher(key []byte) (cipher.Block, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("AES key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	return block, nil
}

// DES encrypts or decrypts data with DES or triple DES.
func DES(encrypt bool, mode Mode, key, iv, data []byte) ([]byte, error) {
	block, err := NewDESCipher(key)
	if err != nil {
		return nil, err
	}
	return Crypt(block, encrypt, mode, iv, data)
}

// AES encrypts or decrypts data with AES.
func AES(encrypt bool, mode Mode, key, iv, data []byte) ([]byte, error) {
	block, err := NewAESCipher(key)
	if err != nil {
		return nil, err
	}
	return Crypt(block, encrypt, mode, iv, data)
}

// Crypt runs block over data in the given mode. data must be a whole number
// of blocks and iv, used in CBC only, exactly one block.
func Crypt(block cipher.Block, encrypt bool, mode Mode, iv, data []byte) ([]byte, error) {
	size := block.BlockSize()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of the %d byte block", len(data), size)
	}

	out := make([]byte, len(data))
	switch mode {
	case ECB:
		for off := 0; off < len(data); off += size {
			if encrypt {
				block.Encrypt(out[off:off+size], data[off:off+size])
			} else {
				block.Decrypt(out[off:off+size], data[off:off+size])
			}
		}
	case CBC:
		if len(iv) != size {
			return nil, fmt.Errorf("IV must be %d bytes, got %d", size, len(iv))
		}
		var bm cipher.BlockMode
		if encrypt {
			bm = cipher.NewCBCEncrypter(block, iv)
		} else {
			bm = cipher.NewCBCDecrypter(block, iv)
		}
		bm.CryptBlocks(out, data)
	default:
		return nil, fmt.Errorf("unknown mode %d", int(mode))
	}
	return out, nil
}

// DESKCV is the key check value of a DES or triple DES key.
func DESKCV(key []byte) ([]byte, error) {
	block, err := NewDESCipher(key)
	if err != nil {
		return nil, err
	}
	return kcv(block), nil
}

// AESKCV is the key check value of an AES key.
func AESKCV(key []byte) ([]byte, error) {
	block, err := NewAESCipher(key)
	if err != nil {
		return nil, err
	}
	return kcv(block), nil
}

func kcv(block cipher.Block) []byte {
	out := make([]byte, block.BlockSize())
	block.Encrypt(out, out)
	return out[:KCVLength]
}
