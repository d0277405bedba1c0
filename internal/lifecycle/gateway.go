// gateway.go - Collaborators the controller drives.
package lifecycle

import (
	"context"

	"privlib/internal/conceal"
	"privlib/internal/ledger"
)

// ReadGateway is the read-only ledger client.
type ReadGateway interface {
	Address() string
	ListIDs(ctx context.Context) ([]string, error)
	GetRecord(ctx context.Context, id string) (ledger.RecordData, error)
	GetEncryptedHandle(ctx context.Context, id string) (string, error)
	CheckAvailability(ctx context.Context) (bool, error)
}

// WriteGateway is the signing ledger client.
type WriteGateway interface {
	Create(ctx context.Context, req ledger.CreateRequest) (ledger.Tx, error)
	SubmitDisclosure(ctx context.Context, id string, clearValues, proof []byte) (ledger.Tx, error)
}

// Encryptor conceals a value for contract on behalf of user and returns the
// handle, ciphertext and input proof.
type Encryptor interface {
	Encrypt(ctx context.Context, contract, user string, value uint64) (*conceal.Encrypted, error)
}

// DisclosureVerifier decrypts handles and proves their clear values. It does
// not submit anything; the controller submits the prepared payload itself.
type DisclosureVerifier interface {
	Prepare(ctx context.Context, handles []string, contract string) (*conceal.Disclosure, error)
}

// Account reports the connected wallet address.
type Account interface {
	Account() (string, bool)
}
