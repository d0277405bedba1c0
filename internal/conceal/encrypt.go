// encrypt.go - Value encryption, input proofs and decryption.

package conceal

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	bls12377_fr "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
)

// Ciphertext is the stored form of a concealed value.
//
//	Ephemeral  = G^r
//	Masked     = (value + m1, salt + m2) with (m1, m2) derived from Pk^r
//	Commitment = MiMC(value, salt)
//	Handle     = MiMC(Commitment, G^r.X, G^r.Y, H(contract))
type Ciphertext struct {
	Handle     string    `json:"handle"`
	Ephemeral  []byte    `json:"ephemeral"`
	Masked     [2][]byte `json:"masked"`
	Commitment []byte    `json:"commitment"`
}

// Encrypted is what a client submits to the contract: the ciphertext plus an
// input proof scoping it to the submitting user.
type Encrypted struct {
	Ciphertext Ciphertext `json:"ciphertext"`
	Proof      []byte     `json:"proof"`
}

// Encryptor encrypts values under the decryption service public key.
type Encryptor struct {
	pub bls12377.G1Affine
}

// NewEncryptor returns an Encryptor for the given service public key.
func NewEncryptor(pub bls12377.G1Affine) *Encryptor {
	return &Encryptor{pub: pub}
}

// Encrypt conceals value for use by user on contract.
func (e *Encryptor) Encrypt(ctx context.Context, contract, user string, value uint64) (*Encrypted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if contract == "" || user == "" {
		return nil, errors.New("contract and user addresses are required")
	}

	var r bls12377_fr.Element
	if _, err := r.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to sample ephemeral scalar: %w", err)
	}
	rBig := r.BigInt(new(big.Int))
	g := generator()
	var gr, shared bls12377.G1Affine
	gr.ScalarMultiplication(&g, rBig)
	shared.ScalarMultiplication(&e.pub, rBig)

	var v, salt, c1, c2 fr.Element
	v.SetUint64(value)
	if _, err := salt.SetRandom(); err != nil {
		return nil, fmt.Errorf("failed to sample salt: %w", err)
	}
	m1, m2 := masks(&shared)
	c1.Add(&v, &m1)
	c2.Add(&salt, &m2)

	cm := hashElements(v, salt)
	handle := deriveHandle(cm, &gr, contract)
	proof := inputProof(handle, contract, user)

	return &Encrypted{
		Ciphertext: Ciphertext{
			Handle:     encodeHandle(handle),
			Ephemeral:  gr.Marshal(),
			Masked:     [2][]byte{bytesOf(c1), bytesOf(c2)},
			Commitment: bytesOf(cm),
		},
		Proof: bytesOf(proof),
	}, nil
}

// InputVerifier checks input proofs on behalf of the contract.
type InputVerifier struct{}

// VerifyInput checks that ct was produced for contract and that proof binds it
// to user.
func (InputVerifier) VerifyInput(ct Ciphertext, contract, user string, proof []byte) error {
	handle, err := checkScope(ct, contract)
	if err != nil {
		return err
	}
	expected := inputProof(handle, contract, user)
	if !bytes.Equal(bytesOf(expected), proof) {
		return ErrInvalidInputProof
	}
	return nil
}

// checkScope recomputes the handle of ct for contract.
func checkScope(ct Ciphertext, contract string) (fr.Element, error) {
	handle, err := parseHandle(ct.Handle)
	if err != nil {
		return handle, err
	}
	gr, err := ephemeral(ct)
	if err != nil {
		return handle, err
	}
	cm, err := elementFrom(ct.Commitment)
	if err != nil {
		return handle, err
	}
	expected := deriveHandle(cm, &gr, contract)
	if !expected.Equal(&handle) {
		return handle, ErrHandleScope
	}
	return handle, nil
}

// decrypt opens ct with the service secret key and checks the commitment.
func decrypt(keys *KeyPair, ct Ciphertext) (value uint64, salt, cm fr.Element, err error) {
	gr, err := ephemeral(ct)
	if err != nil {
		return 0, salt, cm, err
	}
	var shared bls12377.G1Affine
	shared.ScalarMultiplication(&gr, keys.Sk.BigInt(new(big.Int)))
	m1, m2 := masks(&shared)

	c1, err := elementFrom(ct.Masked[0])
	if err != nil {
		return 0, salt, cm, err
	}
	c2, err := elementFrom(ct.Masked[1])
	if err != nil {
		return 0, salt, cm, err
	}
	if cm, err = elementFrom(ct.Commitment); err != nil {
		return 0, salt, cm, err
	}

	var v fr.Element
	v.Sub(&c1, &m1)
	salt.Sub(&c2, &m2)
	if check := hashElements(v, salt); !check.Equal(&cm) {
		return 0, salt, cm, ErrIntegrity
	}
	if !v.IsUint64() {
		return 0, salt, cm, fmt.Errorf("%w: value out of range", ErrIntegrity)
	}
	return v.Uint64(), salt, cm, nil
}

func deriveHandle(cm fr.Element, gr *bls12377.G1Affine, contract string) fr.Element {
	x, y := coords(gr)
	return hashElements(cm, x, y, digest(contract))
}

func inputProof(handle fr.Element, contract, user string) fr.Element {
	return hashElements(handle, digest(contract), digest(user))
}

func ephemeral(ct Ciphertext) (bls12377.G1Affine, error) {
	var gr bls12377.G1Affine
	if err := gr.Unmarshal(ct.Ephemeral); err != nil {
		return gr, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	return gr, nil
}

func encodeHandle(h fr.Element) string {
	return "0x" + hex.EncodeToString(bytesOf(h))
}

func parseHandle(s string) (fr.Element, error) {
	var e fr.Element
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return e, fmt.Errorf("%w: handle: %v", ErrMalformedCiphertext, err)
	}
	return elementFrom(b)
}
