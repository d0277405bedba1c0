// controller.go - Application state and the record lifecycle workflows.
//
// The Controller owns the record store, the notification tracker, the session
// history and the publish form. Presentation code reads through accessors and
// acts through intents (Publish, Disclose, Refresh, ...); it never mutates the
// state directly.

package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"privlib/internal/logging"
	"privlib/internal/metrics"
	"privlib/internal/record"
	"privlib/internal/status"
)

const defaultReloadConcurrency = 8

// Options wires the controller collaborators. Encryptor may be nil when the
// encryption system failed to initialize; publishing is then refused.
type Options struct {
	Reader    ReadGateway
	Writer    WriteGateway
	Encryptor Encryptor
	Verifier  DisclosureVerifier
	Account   Account
	Tracker   *status.Tracker
	Metrics   *metrics.Metrics
	Logger    *logging.Logger

	// ReloadConcurrency bounds parallel record fetches during a reload.
	ReloadConcurrency int
	// SerializeDisclosure coalesces concurrent disclosures of the same record
	// into one ledger submission.
	SerializeDisclosure bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller is the application state object.
type Controller struct {
	reader    ReadGateway
	writer    WriteGateway
	encryptor Encryptor
	verifier  DisclosureVerifier
	account   Account
	tracker   *status.Tracker
	metrics   *metrics.Metrics
	log       *logging.Logger
	now       func() time.Time

	store   *record.Store
	stats   atomic.Pointer[record.Stats]
	history History
	form    formState

	publishing   atomic.Bool
	lastIDMillis int64
	disclosing   atomic.Int32
	refreshing   atomic.Int32
	serialize    bool
	disclosures  singleflight.Group

	reloadLimit int
	reloadSeq   atomic.Uint64
	reloadMu    sync.Mutex
	appliedSeq  uint64

	contractAddr atomic.Pointer[string]
}

// New builds a controller with an empty store.
func New(opts Options) *Controller {
	c := &Controller{
		reader:      opts.Reader,
		writer:      opts.Writer,
		encryptor:   opts.Encryptor,
		verifier:    opts.Verifier,
		account:     opts.Account,
		tracker:     opts.Tracker,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		now:         opts.Now,
		store:       record.NewStore(),
		serialize:   opts.SerializeDisclosure,
		reloadLimit: opts.ReloadConcurrency,
	}
	if c.tracker == nil {
		c.tracker = status.NewTracker(status.DefaultDurations(), nil)
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.reloadLimit <= 0 {
		c.reloadLimit = defaultReloadConcurrency
	}
	empty := record.Aggregate(nil, c.now())
	c.stats.Store(&empty)
	c.contractAddr.Store(new(string))

	if c.encryptor == nil {
		c.log.Error("encryption system unavailable")
		c.tracker.Error(EncryptionFailure.String(), "Encryption system initialization failed")
	}
	return c
}

// Load runs on wallet connection: it resolves the contract address and loads
// every record.
func (c *Controller) Load(ctx context.Context) error {
	addr := c.reader.Address()
	c.contractAddr.Store(&addr)
	c.log.Info("loading library", zap.String("contract", addr))
	return c.Refresh(ctx)
}

// Refresh reloads the store from the ledger.
func (c *Controller) Refresh(ctx context.Context) error {
	c.tracker.Pending("Loading books...")
	if err := c.reload(ctx); err != nil {
		return c.reloadFailed("refresh", err)
	}
	c.tracker.Success(fmt.Sprintf("Loaded %d books", c.store.Len()))
	return nil
}

// CheckAvailability asks the contract whether it accepts writes.
func (c *Controller) CheckAvailability(ctx context.Context) (bool, error) {
	c.tracker.Pending("Checking contract availability...")
	ok, err := c.reader.CheckAvailability(ctx)
	if err != nil {
		return false, c.fail("availability", UnknownError, "Failed to check availability", err)
	}
	if !ok {
		c.tracker.Error("Unavailable", "Contract is not available")
		return false, nil
	}
	c.tracker.Success("Contract is available")
	return true, nil
}

// reload replaces the store with a full read of the ledger. Records that fail
// to load are skipped. A reload that finishes after a newer one has been
// applied is discarded.
func (c *Controller) reload(ctx context.Context) error {
	seq := c.reloadSeq.Add(1)
	c.refreshing.Add(1)
	defer c.refreshing.Add(-1)
	start := time.Now()

	ids, err := c.reader.ListIDs(ctx)
	if err != nil {
		return err
	}

	fetched := make([]record.Record, len(ids))
	loaded := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.reloadLimit)
	for i, id := range ids {
		g.Go(func() error {
			d, err := c.reader.GetRecord(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.log.Warn("skipping record", zap.String("id", id), zap.Error(err))
				return nil
			}
			fetched[i] = record.FromLedger(id, d)
			loaded[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	records := make([]record.Record, 0, len(ids))
	for i, ok := range loaded {
		if ok {
			records = append(records, fetched[i])
		}
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	if seq < c.appliedSeq {
		c.log.Debug("discarding stale reload", zap.Uint64("seq", seq))
		return nil
	}
	c.appliedSeq = seq
	c.store.ReplaceAll(records)
	stats := record.Aggregate(records, c.now())
	c.stats.Store(&stats)

	c.metrics.RecordReload(time.Since(start))
	c.metrics.SetStats(stats.TotalBooks, stats.VerifiedBooks, stats.RecentAdditions, stats.AvgPages)
	c.log.Debug("store reloaded", zap.Int("records", len(records)), zap.Int("skipped", len(ids)-len(records)))
	return nil
}

func (c *Controller) reloadFailed(op string, err error) error {
	return c.fail(op, ReloadFailure, "Failed to load books", err)
}

// fail classifies err, surfaces it on the tracker and returns it.
func (c *Controller) fail(op string, kind Kind, msg string, err error) *Error {
	e := &Error{Kind: kind, Op: op, Message: msg, Err: err}
	text := msg
	if err != nil && kind != UserCancelled && kind != ReloadFailure {
		text = msg + ": " + err.Error()
	}
	c.tracker.Error(kind.String(), text)
	c.metrics.RecordError(kind.String())
	if kind.Soft() {
		c.log.Info(op+" ended", zap.Stringer("kind", kind), zap.Error(err))
	} else {
		c.log.Error(op+" failed", zap.Stringer("kind", kind), zap.Error(err))
	}
	return e
}

// recoverPanic turns a collaborator panic into an UnknownError.
func (c *Controller) recoverPanic(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = c.fail(op, UnknownError, "Unexpected error", fmt.Errorf("panic: %v", r))
	}
}

func (c *Controller) Records() []record.Record {
	return c.store.All()
}

// Filtered returns the records matching query in store order.
func (c *Controller) Filtered(query string) []record.Record {
	return record.Filter(c.store.All(), query)
}

// Record looks up one record in the current snapshot.
func (c *Controller) Record(id string) (record.Record, bool) {
	return c.store.Get(id)
}

// Stats returns the figures computed at the last reload.
func (c *Controller) Stats() record.Stats {
	return *c.stats.Load()
}

func (c *Controller) Status() status.Status {
	return c.tracker.Current()
}

func (c *Controller) Tracker() *status.Tracker {
	return c.tracker
}

// History returns up to n most recent entries, newest first.
func (c *Controller) History(n int) []Entry {
	return c.history.Last(n)
}

func (c *Controller) ContractAddress() string {
	return *c.contractAddr.Load()
}

func (c *Controller) Refreshing() bool {
	return c.refreshing.Load() > 0
}

func (c *Controller) Publishing() bool {
	return c.publishing.Load()
}

// Disclosing reports how many disclosures are in flight.
func (c *Controller) Disclosing() int {
	return int(c.disclosing.Load())
}
