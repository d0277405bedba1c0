// verifier.go - Disclosure preparation.
//
// Disclosure is a two-step protocol: Prepare decrypts the requested handles and
// proves the clear values; the caller then submits the encoded values and
// proofs to the contract itself.

package conceal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"privlib/internal/metrics"
)

// CiphertextSource resolves a handle to its stored ciphertext.
type CiphertextSource interface {
	Ciphertext(ctx context.Context, handle string) (Ciphertext, error)
}

// Disclosure is a prepared, not yet submitted, disclosure.
type Disclosure struct {
	Handles     []string
	ClearValues map[string]uint64 // keyed by handle
	Encoded     []byte            // clear values in handle order
	Proof       []byte            // one Groth16 proof per handle
}

// Verifier is the decryption service.
type Verifier struct {
	keys    *KeyPair
	prover  *Prover
	source  CiphertextSource
	metrics *metrics.Metrics
}

// NewVerifier wires the service key pair, the prover and the ciphertext source.
// m may be nil.
func NewVerifier(keys *KeyPair, prover *Prover, source CiphertextSource, m *metrics.Metrics) *Verifier {
	return &Verifier{keys: keys, prover: prover, source: source, metrics: m}
}

// Prepare decrypts handles stored under contract and proves each clear value.
func (v *Verifier) Prepare(ctx context.Context, handles []string, contract string) (*Disclosure, error) {
	if len(handles) == 0 {
		return nil, errors.New("no handles to disclose")
	}
	d := &Disclosure{
		Handles:     append([]string(nil), handles...),
		ClearValues: make(map[string]uint64, len(handles)),
	}
	values := make([]uint64, 0, len(handles))
	proofs := make([][]byte, 0, len(handles))

	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ct, err := v.source.Ciphertext(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve handle %s: %w", h, err)
		}
		if _, err := checkScope(ct, contract); err != nil {
			return nil, err
		}
		value, salt, cm, err := decrypt(v.keys, ct)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt handle %s: %w", h, err)
		}

		start := time.Now()
		proof, err := v.prover.Prove(value, salt, cm)
		v.metrics.RecordProofGeneration(time.Since(start))
		if err != nil {
			return nil, err
		}

		d.ClearValues[h] = value
		values = append(values, value)
		proofs = append(proofs, proof)
	}

	d.Encoded = EncodeClearValues(values)
	packed, err := EncodeProofs(proofs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proofs: %w", err)
	}
	d.Proof = packed
	return d, nil
}
