// crypto.go - MiMC helpers and BLS12-377 key material.

package conceal

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	bls12377_fr "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
)

// KeyPair is the decryption service key pair.
// Sk: scalar (private), Pk: G1 point (public)
type KeyPair struct {
	Sk bls12377_fr.Element
	Pk bls12377.G1Affine
}

// GenerateKeyPair generates a random BLS12-377 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	var sk bls12377_fr.Element
	if _, err := sk.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}
	return keyPairFromSecret(sk), nil
}

// LoadOrCreateKeyPair reads a hex-encoded secret key from path, or generates
// one and writes it there.
func LoadOrCreateKeyPair(path string) (*KeyPair, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode key file %s: %w", path, err)
		}
		var sk bls12377_fr.Element
		sk.SetBytes(b)
		return keyPairFromSecret(sk), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	kp, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	skBytes := kp.Sk.Bytes()
	if err := os.WriteFile(path, []byte(hex.EncodeToString(skBytes[:])), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return kp, nil
}

func keyPairFromSecret(sk bls12377_fr.Element) *KeyPair {
	g := generator()
	var pk bls12377.G1Affine
	pk.ScalarMultiplication(&g, sk.BigInt(new(big.Int)))
	return &KeyPair{Sk: sk, Pk: pk}
}

func generator() bls12377.G1Affine {
	g1Jac, _, _, _ := bls12377.Generators()
	var g bls12377.G1Affine
	g.FromJacobian(&g1Jac)
	return g
}

// hashElements computes MiMC over field elements, in order.
func hashElements(elems ...fr.Element) fr.Element {
	h := mimcNative.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// coords maps a BLS12-377 point to BW6-761 scalars. Both fields share a modulus.
func coords(p *bls12377.G1Affine) (x, y fr.Element) {
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	x.SetBytes(xb[:])
	y.SetBytes(yb[:])
	return x, y
}

// digest maps an address to a field element. Addresses compare case-insensitively.
func digest(addr string) fr.Element {
	sum := sha256.Sum256([]byte(strings.ToLower(addr)))
	var e fr.Element
	e.SetBytes(sum[:])
	return e
}

// masks derives the two pads from the shared secret: m1 = H(X, Y), m2 = H(m1).
func masks(shared *bls12377.G1Affine) (m1, m2 fr.Element) {
	x, y := coords(shared)
	m1 = hashElements(x, y)
	m2 = hashElements(m1)
	return m1, m2
}

func bytesOf(e fr.Element) []byte {
	b := e.Bytes()
	return b[:]
}

func elementFrom(b []byte) (fr.Element, error) {
	var e fr.Element
	if len(b) != fr.Bytes {
		return e, fmt.Errorf("%w: field element has %d bytes", ErrMalformedCiphertext, len(b))
	}
	e.SetBytes(b)
	return e, nil
}
