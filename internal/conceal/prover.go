// prover.go - Groth16 proving and verification of disclosures.

package conceal

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"
)

const (
	provingKeyFile   = "disclosure_pk.bin"
	verifyingKeyFile = "disclosure_vk.bin"
)

// Prover holds the compiled disclosure circuit and its keys.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// NewProver compiles the disclosure circuit. With an empty keyDir the keys
// live in memory only; otherwise they are loaded from or saved to keyDir.
func NewProver(keyDir string) (*Prover, error) {
	logger.Disable()

	var circuit CommitmentCircuit
	ccs, err := frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("disclosure circuit compilation failed: %w", err)
	}

	var pk groth16.ProvingKey
	var vk groth16.VerifyingKey
	if keyDir == "" {
		pk, vk, err = groth16.Setup(ccs)
	} else {
		if err := os.MkdirAll(keyDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create key directory: %w", err)
		}
		pk, vk, err = SetupOrLoadKeys(ccs, filepath.Join(keyDir, provingKeyFile), filepath.Join(keyDir, verifyingKeyFile))
	}
	if err != nil {
		return nil, fmt.Errorf("disclosure key setup failed: %w", err)
	}
	return &Prover{ccs: ccs, pk: pk, vk: vk}, nil
}

// Prove produces a proof that (value, salt) opens cm.
func (p *Prover) Prove(value uint64, salt, cm fr.Element) ([]byte, error) {
	assignment := &CommitmentCircuit{
		Value:      value,
		Commitment: cm.BigInt(new(big.Int)),
		Salt:       salt.BigInt(new(big.Int)),
	}
	w, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}
	proof, err := groth16.Prove(p.ccs, p.pk, w)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("proof serialization failed: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckDisclosure verifies that proof shows value is the clear value committed
// in ct.
func (p *Prover) CheckDisclosure(ct Ciphertext, value uint64, proofBytes []byte) error {
	cm, err := elementFrom(ct.Commitment)
	if err != nil {
		return err
	}
	public := &CommitmentCircuit{
		Value:      value,
		Commitment: cm.BigInt(new(big.Int)),
	}
	w, err := frontend.NewWitness(public, ecc.BW6_761.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}
	proof := groth16.NewProof(ecc.BW6_761)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDisclosureProof, err)
	}
	if err := groth16.Verify(proof, p.vk, w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDisclosureProof, err)
	}
	return nil
}

// SetupOrLoadKeys loads Groth16 keys from disk, or generates and saves them.
func SetupOrLoadKeys(ccs constraint.ConstraintSystem, pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk, pkErr := loadProvingKey(pkPath)
	vk, vkErr := loadVerifyingKey(vkPath)
	if pkErr == nil && vkErr == nil {
		return pk, vk, nil
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, err
	}
	if err := writeKey(pkPath, pk); err != nil {
		return nil, nil, err
	}
	if err := writeKey(vkPath, vk); err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}

func writeKey(path string, key io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = key.WriteTo(f)
	return err
}

func loadProvingKey(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BW6_761)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func loadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BW6_761)
	_, err = vk.ReadFrom(f)
	return vk, err
}
