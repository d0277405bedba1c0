package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"privlib/internal/conceal"
	"privlib/internal/ledger"
	"privlib/internal/logging"
	"privlib/internal/status"
	"privlib/internal/wallet"
)

const (
	testContract = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	testUser     = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
)

type fakeTx struct {
	hash string
	err  error
}

func (t fakeTx) Hash() string { return t.hash }
func (t fakeTx) Wait(context.Context) error { return t.err }

// fakeLedger implements both gateways over an in-memory map.
type fakeLedger struct {
	mu      sync.Mutex
	ids     []string
	records map[string]ledger.RecordData
	now     time.Time

	createErr error
	submitErr error
	listErr   error
	getErr    map[string]error

	creates int
	submits int
	lists   int
}

func newFakeLedger(now time.Time) *fakeLedger {
	return &fakeLedger{
		records: make(map[string]ledger.RecordData),
		getErr:  make(map[string]error),
		now:     now,
	}
}

func (l *fakeLedger) add(id string, d ledger.RecordData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
	l.records[id] = d
}

func (l *fakeLedger) counts() (creates, submits, lists int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creates, l.submits, l.lists
}

func (l *fakeLedger) Address() string { return testContract }

func (l *fakeLedger) ListIDs(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lists++
	if l.listErr != nil {
		return nil, l.listErr
	}
	return append([]string(nil), l.ids...), nil
}

func (l *fakeLedger) GetRecord(ctx context.Context, id string) (ledger.RecordData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.getErr[id]; err != nil {
		return ledger.RecordData{}, err
	}
	d, ok := l.records[id]
	if !ok {
		return ledger.RecordData{}, ledger.ErrNotFound
	}
	return d, nil
}

func (l *fakeLedger) GetEncryptedHandle(ctx context.Context, id string) (string, error) {
	d, err := l.GetRecord(ctx, id)
	return d.EncryptedValue, err
}

func (l *fakeLedger) CheckAvailability(ctx context.Context) (bool, error) {
	return true, nil
}

func (l *fakeLedger) Create(ctx context.Context, req ledger.CreateRequest) (ledger.Tx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creates++
	if l.createErr != nil {
		return nil, l.createErr
	}
	l.ids = append(l.ids, req.ID)
	l.records[req.ID] = ledger.RecordData{
		Name:           req.Name,
		Description:    req.Description,
		EncryptedValue: req.Encrypted.Ciphertext.Handle,
		PublicValue1:   req.PublicValue1,
		PublicValue2:   req.PublicValue2,
		Creator:        testUser,
		Timestamp:      l.now.Unix(),
	}
	return fakeTx{hash: fmt.Sprintf("0xcreate%d", l.creates)}, nil
}

func (l *fakeLedger) SubmitDisclosure(ctx context.Context, id string, clearValues, proof []byte) (ledger.Tx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submits++
	if l.submitErr != nil {
		return nil, l.submitErr
	}
	hash := fmt.Sprintf("0xverify%d", l.submits)
	d := l.records[id]
	if d.IsVerified {
		return fakeTx{hash: hash, err: ledger.ErrAlreadyVerified}, nil
	}
	values, err := conceal.DecodeClearValues(clearValues)
	if err != nil {
		return nil, err
	}
	d.IsVerified = true
	d.DecryptedValue = values[0]
	l.records[id] = d
	return fakeTx{hash: hash}, nil
}

// fakeEncryptor records the plaintexts it was given.
type fakeEncryptor struct {
	mu     sync.Mutex
	values []uint64
	err    error
	block  chan struct{}
	panic  bool
}

func (e *fakeEncryptor) Encrypt(ctx context.Context, contract, user string, value uint64) (*conceal.Encrypted, error) {
	if e.block != nil {
		<-e.block
	}
	if e.panic {
		panic("encryptor exploded")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = append(e.values, value)
	if e.err != nil {
		return nil, e.err
	}
	return &conceal.Encrypted{
		Ciphertext: conceal.Ciphertext{Handle: fmt.Sprintf("0xhandle-%d", value)},
		Proof:      []byte("input-proof"),
	}, nil
}

func (e *fakeEncryptor) seen() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.values...)
}

// fakeVerifier "decrypts" handles through a fixed table.
type fakeVerifier struct {
	values  map[string]uint64
	err     error
	arrived *sync.WaitGroup // when set, each call waits until all expected callers arrived
	mu      sync.Mutex
	calls   int
}

func (v *fakeVerifier) Prepare(ctx context.Context, handles []string, contract string) (*conceal.Disclosure, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.arrived != nil {
		v.arrived.Done()
		v.arrived.Wait()
	}
	if v.err != nil {
		return nil, v.err
	}
	d := &conceal.Disclosure{Handles: handles, ClearValues: make(map[string]uint64)}
	values := make([]uint64, 0, len(handles))
	for _, h := range handles {
		d.ClearValues[h] = v.values[h]
		values = append(values, v.values[h])
	}
	d.Encoded = conceal.EncodeClearValues(values)
	d.Proof = []byte("proof")
	return d, nil
}

type harness struct {
	c        *Controller
	ledger   *fakeLedger
	enc      *fakeEncryptor
	verifier *fakeVerifier
	wallet   *wallet.Session
	now      time.Time
}

func newHarness(t *testing.T, serialize bool) *harness {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	h := &harness{
		ledger:   newFakeLedger(now),
		enc:      &fakeEncryptor{},
		verifier: &fakeVerifier{values: make(map[string]uint64)},
		wallet:   wallet.NewSession(),
		now:      now,
	}
	require.NoError(t, h.wallet.Connect(testUser))

	tracker := status.NewTracker(status.Durations{Success: time.Minute, Error: time.Minute, Info: time.Minute}, nil)
	t.Cleanup(tracker.Close)

	h.c = New(Options{
		Reader:              h.ledger,
		Writer:              h.ledger,
		Encryptor:           h.enc,
		Verifier:            h.verifier,
		Account:             h.wallet,
		Tracker:             tracker,
		Logger:              logging.Nop(),
		ReloadConcurrency:   4,
		SerializeDisclosure: serialize,
		Now:                 func() time.Time { return now },
	})
	return h
}

// seedUnverified stores an unverified record whose handle decrypts to value.
func (h *harness) seedUnverified(id string, value uint64) {
	handle := "0xhandle-" + id
	h.ledger.add(id, ledger.RecordData{
		Name:           "Seeded " + id,
		EncryptedValue: handle,
		PublicValue1:   value,
		Creator:        testUser,
		Timestamp:      h.now.Unix(),
	})
	h.verifier.values[handle] = value
}
