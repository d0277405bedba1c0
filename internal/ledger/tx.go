package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tx is a submitted transaction awaiting confirmation.
type Tx interface {
	Hash() string
	// Wait blocks until the transaction is confirmed or ctx is done. It
	// returns the execution error, if any.
	Wait(ctx context.Context) error
}

type pendingTx struct {
	hash string
	done chan struct{}
	err  error
}

// submit schedules apply to run after delay and returns its pending Tx.
func submit(delay time.Duration, apply func() error) *pendingTx {
	tx := &pendingTx{
		hash: "0x" + uuid.NewString(),
		done: make(chan struct{}),
	}
	run := func() {
		tx.err = apply()
		close(tx.done)
	}
	if delay <= 0 {
		run()
	} else {
		time.AfterFunc(delay, run)
	}
	return tx
}

func (t *pendingTx) Hash() string {
	return t.hash
}

func (t *pendingTx) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
