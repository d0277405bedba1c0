package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Disclosure is the outcome of a successful Disclose.
type Disclosure struct {
	RecordID string
	Value    uint64
	// Cached is set when the record was already verified and nothing was
	// written.
	Cached bool
	// AlreadyVerified is set when a concurrent submission verified the record
	// first; the store has been reloaded.
	AlreadyVerified bool
	TxHash          string
}

// Disclose reveals the concealed page count of record id on the ledger.
//
// A record that is already verified returns its stored value without any
// write. When disclosure serialization is enabled, concurrent calls for the
// same id share one submission. Like Publish, a started disclosure does not
// stop when ctx is cancelled.
func (c *Controller) Disclose(ctx context.Context, id string) (*Disclosure, error) {
	ctx = context.WithoutCancel(ctx)
	if _, ok := c.account.Account(); !ok {
		err := c.fail("disclose", NotConnected, "Please connect your wallet first", nil)
		c.metrics.RecordDisclosure(outcome(err))
		return nil, err
	}
	if !c.serialize {
		return c.disclose(ctx, id)
	}

	v, err, _ := c.disclosures.Do(id, func() (interface{}, error) {
		return c.disclose(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	d := *v.(*Disclosure)
	return &d, nil
}

func (c *Controller) disclose(ctx context.Context, id string) (res *Disclosure, err error) {
	c.disclosing.Add(1)
	defer c.disclosing.Add(-1)
	defer func() { c.metrics.RecordDisclosure(outcome(err)) }()
	defer c.recoverPanic("disclose", &err)

	c.tracker.Pending("Checking record...")
	current, err := c.reader.GetRecord(ctx, id)
	if err != nil {
		return nil, c.fail("disclose", DisclosureFailure, "Failed to verify pages", err)
	}
	if current.IsVerified {
		c.tracker.Info("AlreadyDisclosed", fmt.Sprintf("Pages already verified: %d", current.DecryptedValue))
		return &Disclosure{RecordID: id, Value: current.DecryptedValue, Cached: true}, nil
	}

	if c.verifier == nil {
		return nil, c.fail("disclose", DisclosureFailure, "Encryption system initialization failed", nil)
	}

	handle, err := c.reader.GetEncryptedHandle(ctx, id)
	if err != nil {
		return nil, c.fail("disclose", DisclosureFailure, "Failed to verify pages", err)
	}

	c.tracker.Pending("Decrypting and generating proof...")
	prepared, err := c.verifier.Prepare(ctx, []string{handle}, c.reader.Address())
	if err != nil {
		return nil, c.fail("disclose", DisclosureFailure, "Failed to verify pages", err)
	}
	value, ok := prepared.ClearValues[handle]
	if !ok {
		return nil, c.fail("disclose", DisclosureFailure, "Failed to verify pages", errors.New("no clear value for handle"))
	}

	c.tracker.Pending("Submitting verification...")
	tx, err := c.writer.SubmitDisclosure(ctx, id, prepared.Encoded, prepared.Proof)
	if err == nil {
		c.tracker.Pending("Waiting for confirmation...")
		err = tx.Wait(ctx)
	}
	if err != nil {
		switch {
		case isAlreadyVerified(err):
			return c.convergeVerified(ctx, id, value, err)
		case isUserRejection(err):
			return nil, c.fail("disclose", UserCancelled, "Transaction cancelled by user", err)
		default:
			return nil, c.fail("disclose", DisclosureFailure, "Failed to verify pages", err)
		}
	}

	res = &Disclosure{RecordID: id, Value: value, TxHash: tx.Hash()}
	if rerr := c.reload(ctx); rerr != nil {
		c.reloadFailed("disclose", rerr)
	} else {
		c.tracker.Success(fmt.Sprintf("Pages verified: %d", value))
	}
	c.history.Append(Entry{
		Time:     c.now(),
		Action:   ActionDisclose,
		RecordID: id,
		Value:    value,
		TxHash:   tx.Hash(),
	})
	c.log.Audit("pages_disclosed", map[string]interface{}{
		"id":    id,
		"value": value,
		"tx":    tx.Hash(),
	})
	c.log.Info("pages disclosed", zap.String("id", id), zap.Uint64("value", value))
	return res, nil
}

// convergeVerified handles a submission that lost to a concurrent one. The
// ledger already holds the value, so the store is reloaded and the call
// succeeds.
func (c *Controller) convergeVerified(ctx context.Context, id string, value uint64, cause error) (*Disclosure, error) {
	c.log.Info("record verified concurrently", zap.String("id", id), zap.Error(cause))
	c.metrics.RecordError(AlreadyVerified.String())
	if err := c.reload(ctx); err != nil {
		c.reloadFailed("disclose", err)
	} else {
		c.tracker.Info(AlreadyVerified.String(), "Pages were already verified")
		if r, ok := c.store.Get(id); ok {
			if v, ok := r.Revealed(); ok {
				value = v
			}
		}
	}
	return &Disclosure{RecordID: id, Value: value, AlreadyVerified: true}, nil
}
