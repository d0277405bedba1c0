package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"privlib/internal/wallet"
)

// Approver is the wallet side of a Signer.
type Approver interface {
	Account() (string, bool)
	Approve(ctx context.Context, action string) error
}

// Signer is the signing contract client bound to a wallet.
type Signer struct {
	contract *Contract
	wallet   Approver
	delay    time.Duration
	log      *zap.Logger
}

// NewSigner returns a Signer whose transactions confirm after delay.
func NewSigner(c *Contract, w Approver, delay time.Duration, log *zap.Logger) *Signer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Signer{contract: c, wallet: w, delay: delay, log: log}
}

func (s *Signer) Address() string {
	return s.contract.Address()
}

// Create submits a record creation signed by the connected account.
func (s *Signer) Create(ctx context.Context, req CreateRequest) (Tx, error) {
	sender, err := s.authorize(ctx, "createBook")
	if err != nil {
		return nil, err
	}
	tx := submit(s.delay, func() error {
		return s.contract.CreateRecord(sender, req)
	})
	s.log.Info("transaction submitted", zap.String("method", "createBook"), zap.String("tx", tx.Hash()), zap.String("id", req.ID))
	return tx, nil
}

// SubmitDisclosure submits a clear value and its proof for record id.
func (s *Signer) SubmitDisclosure(ctx context.Context, id string, clearValues, proof []byte) (Tx, error) {
	if _, err := s.authorize(ctx, "verifyPages"); err != nil {
		return nil, err
	}
	tx := submit(s.delay, func() error {
		return s.contract.SubmitDisclosure(id, clearValues, proof)
	})
	s.log.Info("transaction submitted", zap.String("method", "verifyPages"), zap.String("tx", tx.Hash()), zap.String("id", id))
	return tx, nil
}

func (s *Signer) authorize(ctx context.Context, action string) (string, error) {
	sender, ok := s.wallet.Account()
	if !ok {
		return "", wallet.ErrNotConnected
	}
	if err := s.wallet.Approve(ctx, action); err != nil {
		return "", err
	}
	return sender, nil
}
