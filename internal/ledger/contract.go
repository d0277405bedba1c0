// contract.go - The library contract state and its state transitions.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"privlib/internal/conceal"
)

// RecordData is the on-chain view of a record.
type RecordData struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	EncryptedValue string `json:"encryptedValue"`
	PublicValue1   uint64 `json:"publicValue1"`
	PublicValue2   uint64 `json:"publicValue2"`
	Creator        string `json:"creator"`
	Timestamp      int64  `json:"timestamp"`
	IsVerified     bool   `json:"isVerified"`
	DecryptedValue uint64 `json:"decryptedValue"`
}

// CreateRequest carries the arguments of a record creation.
type CreateRequest struct {
	ID           string
	Name         string
	Encrypted    conceal.Encrypted
	PublicValue1 uint64
	PublicValue2 uint64
	Description  string
}

// InputVerifier checks that a ciphertext was produced for this contract and sender.
type InputVerifier interface {
	VerifyInput(ct conceal.Ciphertext, contract, user string, proof []byte) error
}

// DisclosureChecker verifies a proof that value is the plaintext of ct.
type DisclosureChecker interface {
	CheckDisclosure(ct conceal.Ciphertext, value uint64, proof []byte) error
}

type entry struct {
	ID string `json:"id"`
	RecordData
}

// snapshot is the persisted form of a Contract.
type snapshot struct {
	Address     string                        `json:"address"`
	Available   bool                          `json:"available"`
	Records     []*entry                      `json:"records"`
	Ciphertexts map[string]conceal.Ciphertext `json:"ciphertexts"`
}

// Contract is the library registry. It is safe for concurrent use.
type Contract struct {
	mu          sync.RWMutex
	address     string
	available   bool
	order       []string
	records     map[string]*entry
	ciphertexts map[string]conceal.Ciphertext

	inputs      InputVerifier
	disclosures DisclosureChecker
	now         func() time.Time
	path        string
	log         *zap.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithSnapshot persists the contract to path after every state change.
func WithSnapshot(path string) Option {
	return func(c *Contract) { c.path = path }
}

func WithClock(now func() time.Time) Option {
	return func(c *Contract) { c.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Contract) { c.log = log }
}

// NewContract deploys an empty contract at address.
func NewContract(address string, inputs InputVerifier, disclosures DisclosureChecker, opts ...Option) *Contract {
	c := &Contract{
		address:     address,
		available:   true,
		records:     make(map[string]*entry),
		ciphertexts: make(map[string]conceal.Ciphertext),
		inputs:      inputs,
		disclosures: disclosures,
		now:         time.Now,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadContract restores a contract from its snapshot, or deploys a new one at
// address when the file does not exist yet.
func LoadContract(path, address string, inputs InputVerifier, disclosures DisclosureChecker, opts ...Option) (*Contract, error) {
	c := NewContract(address, inputs, disclosures, append(opts, WithSnapshot(path))...)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contract snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode contract snapshot: %w", err)
	}
	if snap.Address != "" && snap.Address != address {
		return nil, fmt.Errorf("snapshot belongs to contract %s, not %s", snap.Address, address)
	}
	c.available = snap.Available
	for _, e := range snap.Records {
		if _, dup := c.records[e.ID]; dup {
			return nil, fmt.Errorf("snapshot lists %s twice: %w", e.ID, ErrDuplicateID)
		}
		c.order = append(c.order, e.ID)
		c.records[e.ID] = e
	}
	for h, ct := range snap.Ciphertexts {
		c.ciphertexts[h] = ct
	}
	return c, nil
}

// SaveToFile writes the contract snapshot to path, replacing any previous file.
func (c *Contract) SaveToFile(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveLocked(path)
}

func (c *Contract) saveLocked(path string) error {
	snap := snapshot{
		Address:     c.address,
		Available:   c.available,
		Records:     make([]*entry, 0, len(c.order)),
		Ciphertexts: c.ciphertexts,
	}
	for _, id := range c.order {
		snap.Records = append(snap.Records, c.records[id])
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// commitLocked persists after a state change. A failed write is logged and
// does not undo the change.
func (c *Contract) commitLocked() {
	if c.path == "" {
		return
	}
	if err := c.saveLocked(c.path); err != nil {
		c.log.Warn("failed to persist contract snapshot", zap.String("path", c.path), zap.Error(err))
	}
}

func (c *Contract) Address() string {
	return c.address
}

func (c *Contract) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// SetAvailable pauses or resumes writes.
func (c *Contract) SetAvailable(v bool) {
	c.mu.Lock()
	c.available = v
	c.commitLocked()
	c.mu.Unlock()
}

// ListIDs returns record ids in insertion order.
func (c *Contract) ListIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

func (c *Contract) GetRecord(id string) (RecordData, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.records[id]
	if !ok {
		return RecordData{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e.RecordData, nil
}

func (c *Contract) GetEncryptedHandle(id string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.records[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e.EncryptedValue, nil
}

// Ciphertext returns the ciphertext stored under handle.
func (c *Contract) Ciphertext(handle string) (conceal.Ciphertext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.ciphertexts[handle]
	if !ok {
		return conceal.Ciphertext{}, fmt.Errorf("handle %s: %w", handle, ErrNotFound)
	}
	return ct, nil
}

// CreateRecord appends a record on behalf of sender.
func (c *Contract) CreateRecord(sender string, req CreateRequest) error {
	if req.ID == "" {
		return errors.New("record id is required")
	}
	ct := req.Encrypted.Ciphertext
	if err := c.inputs.VerifyInput(ct, c.address, sender, req.Encrypted.Proof); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.available {
		return ErrUnavailable
	}
	if _, exists := c.records[req.ID]; exists {
		return fmt.Errorf("%s: %w", req.ID, ErrDuplicateID)
	}
	c.records[req.ID] = &entry{
		ID: req.ID,
		RecordData: RecordData{
			Name:           req.Name,
			Description:    req.Description,
			EncryptedValue: ct.Handle,
			PublicValue1:   req.PublicValue1,
			PublicValue2:   req.PublicValue2,
			Creator:        sender,
			Timestamp:      c.now().Unix(),
		},
	}
	c.order = append(c.order, req.ID)
	c.ciphertexts[ct.Handle] = ct
	c.commitLocked()
	c.log.Debug("record created", zap.String("id", req.ID), zap.String("creator", sender))
	return nil
}

// SubmitDisclosure verifies the clear value of a record's concealed field and
// marks the record verified. A record is verified at most once; later
// submissions fail with ErrAlreadyVerified.
func (c *Contract) SubmitDisclosure(id string, clearValues, proof []byte) error {
	c.mu.RLock()
	e, ok := c.records[id]
	var (
		verified bool
		ct       conceal.Ciphertext
		known    bool
	)
	if ok {
		verified = e.IsVerified
		ct, known = c.ciphertexts[e.EncryptedValue]
	}
	available := c.available
	c.mu.RUnlock()

	switch {
	case !ok:
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	case !available:
		return ErrUnavailable
	case verified:
		return ErrAlreadyVerified
	case !known:
		return fmt.Errorf("ciphertext for %s: %w", id, ErrNotFound)
	}

	values, err := conceal.DecodeClearValues(clearValues)
	if err != nil {
		return err
	}
	proofs, err := conceal.DecodeProofs(proof)
	if err != nil {
		return err
	}
	if len(values) != 1 || len(proofs) != 1 {
		return fmt.Errorf("expected one clear value and one proof, got %d and %d", len(values), len(proofs))
	}
	if err := c.disclosures.CheckDisclosure(ct, values[0], proofs[0]); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.IsVerified {
		return ErrAlreadyVerified
	}
	e.IsVerified = true
	e.DecryptedValue = values[0]
	c.commitLocked()
	c.log.Debug("record verified", zap.String("id", id))
	return nil
}
