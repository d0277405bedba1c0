package conceal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// wordSize is the width of one encoded clear value, as in ABI-encoded uint256.
const wordSize = 32

// EncodeClearValues encodes values as consecutive 32-byte big-endian words.
func EncodeClearValues(values []uint64) []byte {
	out := make([]byte, wordSize*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[(i+1)*wordSize-8:(i+1)*wordSize], v)
	}
	return out
}

// DecodeClearValues reverses EncodeClearValues.
func DecodeClearValues(b []byte) ([]uint64, error) {
	if len(b) == 0 || len(b)%wordSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedClearValues, len(b))
	}
	values := make([]uint64, 0, len(b)/wordSize)
	for off := 0; off < len(b); off += wordSize {
		word := b[off : off+wordSize]
		for _, hi := range word[:wordSize-8] {
			if hi != 0 {
				return nil, fmt.Errorf("%w: value exceeds 64 bits", ErrMalformedClearValues)
			}
		}
		values = append(values, binary.BigEndian.Uint64(word[wordSize-8:]))
	}
	return values, nil
}

// EncodeProofs packs one proof per handle.
func EncodeProofs(proofs [][]byte) ([]byte, error) {
	return json.Marshal(proofs)
}

// DecodeProofs reverses EncodeProofs.
func DecodeProofs(b []byte) ([][]byte, error) {
	var proofs [][]byte
	if err := json.Unmarshal(b, &proofs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDisclosureProof, err)
	}
	return proofs, nil
}
