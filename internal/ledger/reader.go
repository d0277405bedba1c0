package ledger

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"privlib/internal/conceal"
	"privlib/internal/metrics"
)

// Reader is the read-only contract client.
type Reader struct {
	contract *Contract
	handles  *expirable.LRU[string, string]
	metrics  *metrics.Metrics
}

// NewReader returns a Reader caching up to cacheSize encrypted handles for
// ttl. Handles never change once a record exists. m may be nil.
func NewReader(c *Contract, cacheSize int, ttl time.Duration, m *metrics.Metrics) *Reader {
	return &Reader{
		contract: c,
		handles:  expirable.NewLRU[string, string](cacheSize, nil, ttl),
		metrics:  m,
	}
}

func (r *Reader) Address() string {
	return r.contract.Address()
}

func (r *Reader) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.contract.ListIDs(), nil
}

func (r *Reader) GetRecord(ctx context.Context, id string) (RecordData, error) {
	if err := ctx.Err(); err != nil {
		return RecordData{}, err
	}
	return r.contract.GetRecord(id)
}

func (r *Reader) GetEncryptedHandle(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if h, ok := r.handles.Get(id); ok {
		r.metrics.RecordHandleCache(true)
		return h, nil
	}
	r.metrics.RecordHandleCache(false)
	h, err := r.contract.GetEncryptedHandle(id)
	if err != nil {
		return "", err
	}
	r.handles.Add(id, h)
	return h, nil
}

// Ciphertext resolves a handle for the decryption service.
func (r *Reader) Ciphertext(ctx context.Context, handle string) (conceal.Ciphertext, error) {
	if err := ctx.Err(); err != nil {
		return conceal.Ciphertext{}, err
	}
	return r.contract.Ciphertext(handle)
}

func (r *Reader) CheckAvailability(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.contract.IsAvailable(), nil
}
