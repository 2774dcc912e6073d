package cardcrypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// MinRSABits is the smallest modulus GenerateRSAKey accepts.
const MinRSABits = 16

var one = big.NewInt(1)

// RSA computes data^exponent mod modulus, without padding. The result is
// left padded with zeros to the modulus length.
func RSA(modulus, exponent, data []byte) ([]byte, error) {
	n := new(big.Int).SetBytes(modulus)
	if n.Sign() == 0 {
		return nil, errors.New("RSA modulus is zero")
	}
	e := new(big.Int).SetBytes(exponent)
	m := new(big.Int).SetBytes(data)
	if m.Cmp(n) >= 0 {
		return nil, errors.New("RSA input is not smaller than the modulus")
	}

	c := new(big.Int).Exp(m, e, n)
	return c.FillBytes(make([]byte, (n.BitLen()+7)/8)), nil
}

// RSAKey is a raw RSA key pair, big-endian unsigned integers.
type RSAKey struct {
	Modulus         []byte
	PublicExponent  []byte
	PrivateExponent []byte
}

// GenerateRSAKey draws a bits-long modulus for the given public exponent.
func GenerateRSAKey(bits int, publicExponent []byte) (*RSAKey, error) {
	return generateRSAKey(rand.Reader, bits, publicExponent)
}

func generateRSAKey(random io.Reader, bits int, publicExponent []byte) (*RSAKey, error) {
	if bits < MinRSABits {
		return nil, fmt.Errorf("RSA modulus must have at least %d bits, got %d", MinRSABits, bits)
	}
	e := new(big.Int).SetBytes(publicExponent)
	if e.Cmp(big.NewInt(3)) < 0 || e.Bit(0) == 0 {
		return nil, fmt.Errorf("RSA public exponent must be odd and at least 3")
	}

	for {
		p, err := rand.Prime(random, (bits+1)/2)
		if err != nil {
			return nil, fmt.Errorf("prime generation failed: %w", err)
		}
		q, err := rand.Prime(random, bits/2)
		if err != nil {
			return nil, fmt.Errorf("prime generation failed: %w", err)
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		if n.BitLen() != bits {
			continue
		}

		p1 := new(big.Int).Sub(p, one)
		q1 := new(big.Int).Sub(q, one)
		phi := new(big.Int).Mul(p1, q1)
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}

		return &RSAKey{
			Modulus:         n.Bytes(),
			PublicExponent:  e.Bytes(),
			PrivateExponent: d.Bytes(),
		}, nil
	}
}
