package conceal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0xC0ffee0000000000000000000000000000000001"
	testUser     = "0xA11ce00000000000000000000000000000000002"
)

type mapSource map[string]Ciphertext

func (m mapSource) Ciphertext(_ context.Context, handle string) (Ciphertext, error) {
	ct, ok := m[handle]
	if !ok {
		return Ciphertext{}, errors.New("unknown handle")
	}
	return ct, nil
}

func newKeys(t *testing.T) *KeyPair {
	t.Helper()
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp := newKeys(t)
	enc, err := NewEncryptor(kp.Pk).Encrypt(context.Background(), testContract, testUser, 321)
	require.NoError(t, err)
	assert.NotEmpty(t, enc.Ciphertext.Handle)
	assert.NotEmpty(t, enc.Proof)

	value, _, _, err := decrypt(kp, enc.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, uint64(321), value)
}

func TestEncryptIsRandomized(t *testing.T) {
	kp := newKeys(t)
	e := NewEncryptor(kp.Pk)
	a, err := e.Encrypt(context.Background(), testContract, testUser, 7)
	require.NoError(t, err)
	b, err := e.Encrypt(context.Background(), testContract, testUser, 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Ciphertext.Handle, b.Ciphertext.Handle)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	enc, err := NewEncryptor(newKeys(t).Pk).Encrypt(context.Background(), testContract, testUser, 5)
	require.NoError(t, err)

	_, _, _, err = decrypt(newKeys(t), enc.Ciphertext)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestTamperedCiphertext(t *testing.T) {
	kp := newKeys(t)
	enc, err := NewEncryptor(kp.Pk).Encrypt(context.Background(), testContract, testUser, 99)
	require.NoError(t, err)

	ct := enc.Ciphertext
	masked := append([]byte(nil), ct.Masked[0]...)
	masked[len(masked)-1] ^= 0x01
	ct.Masked[0] = masked
	_, _, _, err = decrypt(kp, ct)
	assert.ErrorIs(t, err, ErrIntegrity)

	ct = enc.Ciphertext
	ct.Commitment = []byte{1, 2, 3}
	_, _, _, err = decrypt(kp, ct)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestInputProofScoping(t *testing.T) {
	kp := newKeys(t)
	enc, err := NewEncryptor(kp.Pk).Encrypt(context.Background(), testContract, testUser, 10)
	require.NoError(t, err)
	var iv InputVerifier

	t.Run("accepts the submitting user", func(t *testing.T) {
		assert.NoError(t, iv.VerifyInput(enc.Ciphertext, testContract, testUser, enc.Proof))
	})
	t.Run("addresses are case-insensitive", func(t *testing.T) {
		assert.NoError(t, iv.VerifyInput(enc.Ciphertext, "0xc0ffee0000000000000000000000000000000001", testUser, enc.Proof))
	})
	t.Run("rejects another user", func(t *testing.T) {
		err := iv.VerifyInput(enc.Ciphertext, testContract, "0xB0b0000000000000000000000000000000000003", enc.Proof)
		assert.ErrorIs(t, err, ErrInvalidInputProof)
	})
	t.Run("rejects another contract", func(t *testing.T) {
		err := iv.VerifyInput(enc.Ciphertext, "0xdead000000000000000000000000000000000004", testUser, enc.Proof)
		assert.ErrorIs(t, err, ErrHandleScope)
	})
}

func TestEncryptRequiresAddresses(t *testing.T) {
	_, err := NewEncryptor(newKeys(t).Pk).Encrypt(context.Background(), "", testUser, 1)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewEncryptor(newKeys(t).Pk).Encrypt(ctx, testContract, testUser, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClearValueEncoding(t *testing.T) {
	encoded := EncodeClearValues([]uint64{0, 123, 1 << 40})
	assert.Len(t, encoded, 96)

	values, err := DecodeClearValues(encoded)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 123, 1 << 40}, values)

	_, err = DecodeClearValues(encoded[:31])
	assert.ErrorIs(t, err, ErrMalformedClearValues)

	encoded[0] = 1
	_, err = DecodeClearValues(encoded)
	assert.ErrorIs(t, err, ErrMalformedClearValues)
}

func TestLoadOrCreateKeyPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "gateway.key")
	first, err := LoadOrCreateKeyPair(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	second, err := LoadOrCreateKeyPair(path)
	require.NoError(t, err)
	assert.True(t, first.Pk.Equal(&second.Pk), "reloaded key pair must match")
}

func TestDisclosureProof(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	kp := newKeys(t)
	prover, err := NewProver("")
	require.NoError(t, err)

	enc, err := NewEncryptor(kp.Pk).Encrypt(context.Background(), testContract, testUser, 412)
	require.NoError(t, err)
	handle := enc.Ciphertext.Handle
	verifier := NewVerifier(kp, prover, mapSource{handle: enc.Ciphertext}, nil)

	d, err := verifier.Prepare(context.Background(), []string{handle}, testContract)
	require.NoError(t, err)
	assert.Equal(t, uint64(412), d.ClearValues[handle])

	values, err := DecodeClearValues(d.Encoded)
	require.NoError(t, err)
	proofs, err := DecodeProofs(d.Proof)
	require.NoError(t, err)
	require.Len(t, proofs, 1)

	t.Run("valid proof verifies", func(t *testing.T) {
		assert.NoError(t, prover.CheckDisclosure(enc.Ciphertext, values[0], proofs[0]))
	})
	t.Run("wrong value is rejected", func(t *testing.T) {
		err := prover.CheckDisclosure(enc.Ciphertext, 413, proofs[0])
		assert.ErrorIs(t, err, ErrInvalidDisclosureProof)
	})
	t.Run("garbage proof is rejected", func(t *testing.T) {
		err := prover.CheckDisclosure(enc.Ciphertext, 412, []byte("nope"))
		assert.ErrorIs(t, err, ErrInvalidDisclosureProof)
	})
	t.Run("handle from another contract is refused", func(t *testing.T) {
		_, err := verifier.Prepare(context.Background(), []string{handle}, "0xdead000000000000000000000000000000000004")
		assert.ErrorIs(t, err, ErrHandleScope)
	})
}
