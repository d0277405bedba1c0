package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"privlib/internal/ledger"
	"privlib/internal/record"
)

// PublishInput is what the user typed. Pages may contain non-digits.
type PublishInput struct {
	Title  string
	Author string
	ISBN   string
	Pages  string
}

// Published describes a confirmed record creation.
type Published struct {
	ID     string
	TxHash string
	Pages  uint64
}

// Publish encrypts the page count, writes the record and reloads the store.
// Only one publish runs at a time; a second call while one is in flight
// returns Busy without touching the notification. Once started, the workflow
// ignores cancellation of ctx: the ledger write lands either way, so the call
// runs until it is confirmed or fails.
func (c *Controller) Publish(ctx context.Context, in PublishInput) (res *Published, err error) {
	if !c.publishing.CompareAndSwap(false, true) {
		return nil, &Error{Kind: Busy, Op: "publish", Message: "A book is already being published"}
	}
	ctx = context.WithoutCancel(ctx)
	defer c.publishing.Store(false)
	defer func() { c.metrics.RecordPublish(outcome(err)) }()
	defer c.recoverPanic("publish", &err)

	user, ok := c.account.Account()
	if !ok {
		return nil, c.fail("publish", NotConnected, "Please connect your wallet first", nil)
	}
	pages, err := record.SanitizePages(in.Pages)
	if err != nil {
		return nil, c.fail("publish", InvalidInput, "Please enter a valid page count", err)
	}
	if c.encryptor == nil {
		return nil, c.fail("publish", EncryptionFailure, "Encryption system initialization failed", nil)
	}

	id := c.nextID()
	contract := c.reader.Address()

	c.tracker.Pending("Encrypting page count...")
	enc, err := c.encryptor.Encrypt(ctx, contract, user, pages)
	if err != nil {
		return nil, c.fail("publish", EncryptionFailure, "Failed to encrypt page count", err)
	}
	if enc == nil {
		return nil, c.fail("publish", EncryptionFailure, "Failed to encrypt page count", errors.New("empty encryption result"))
	}

	c.tracker.Pending("Publishing book to the ledger...")
	tx, err := c.writer.Create(ctx, ledger.CreateRequest{
		ID:           id,
		Name:         in.Title,
		Encrypted:    *enc,
		PublicValue1: pages,
		PublicValue2: 0,
		Description:  record.PackDescription(in.Author, in.ISBN),
	})
	if err == nil {
		c.tracker.Pending("Waiting for confirmation...")
		err = tx.Wait(ctx)
	}
	if err != nil {
		if isUserRejection(err) {
			return nil, c.fail("publish", UserCancelled, "Transaction cancelled by user", err)
		}
		return nil, c.fail("publish", LedgerWriteFailure, "Failed to publish book", err)
	}

	res = &Published{ID: id, TxHash: tx.Hash(), Pages: pages}
	c.history.Append(Entry{
		Time:     c.now(),
		Action:   ActionPublish,
		RecordID: id,
		Title:    in.Title,
		TxHash:   tx.Hash(),
	})
	c.log.Audit("book_published", map[string]interface{}{
		"id":      id,
		"creator": user,
		"tx":      tx.Hash(),
	})
	c.log.Info("book published", zap.String("id", id), zap.String("tx", tx.Hash()))

	if rerr := c.reload(ctx); rerr != nil {
		c.reloadFailed("publish", rerr)
	} else {
		c.tracker.Success("Book published successfully!")
	}
	c.form.reset()
	return res, nil
}

// nextID derives a record id from the clock. Ids stay unique within the
// session even when two publishes land in the same millisecond. Callers hold
// the publish guard.
func (c *Controller) nextID() string {
	ms := c.now().UnixMilli()
	if ms <= c.lastIDMillis {
		ms = c.lastIDMillis + 1
	}
	c.lastIDMillis = ms
	return fmt.Sprintf("book-%d", ms)
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}
