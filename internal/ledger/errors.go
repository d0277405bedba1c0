package ledger

import (
	"errors"

	"privlib/internal/wallet"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateID     = errors.New("record already exists")
	ErrAlreadyVerified = errors.New("Data already verified")
	ErrInvalidInput    = errors.New("invalid encrypted input")
	ErrUnavailable     = errors.New("contract unavailable")

	// ErrUserRejected is returned by Signer when the wallet declines to sign.
	ErrUserRejected = wallet.ErrRejected
)
