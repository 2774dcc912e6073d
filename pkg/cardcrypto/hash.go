// Package cardcrypto holds the stateless primitives behind the crypto
// commands: digests, DES and AES block modes, raw RSA and key check values.
// Inputs and outputs are plain byte slices; nothing is padded.
package cardcrypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// ErrUnsupported is returned for a digest size with no matching algorithm.
var ErrUnsupported = errors.New("unsupported algorithm")

var shaFamily = map[int]func() hash.Hash{
	1:   sha1.New,
	224: sha256.New224,
	256: sha256.New,
	384: sha512.New384,
	512: sha512.New,
}

var sha3Family = map[int]func() hash.Hash{
	224: sha3.New224,
	256: sha3.New256,
	384: sha3.New384,
	512: sha3.New512,
}

// SHA returns the SHA-1 (version 1) or SHA-2 digest of data.
func SHA(version int, data []byte) ([]byte, error) {
	return digest(shaFamily, "SHA", version, data)
}

// SHA3 returns the SHA-3 digest of data.
func SHA3(bits int, data []byte) ([]byte, error) {
	return digest(sha3Family, "SHA3", bits, data)
}

func digest(family map[int]func() hash.Hash, name string, size int, data []byte) ([]byte, error) {
	newHash, ok := family[size]
	if !ok {
		return nil, fmt.Errorf("%w: %s-%d", ErrUnsupported, name, size)
	}
	h := newHash()
	h.Write(data)
	return h.Sum(nil), nil
}
