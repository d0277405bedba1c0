// wallet.go - Wallet connection session and signing approval.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrRejected is returned when the wallet owner declines to sign.
var ErrRejected = errors.New("user rejected transaction")

// ErrNotConnected is returned by Approve when no account is connected.
var ErrNotConnected = errors.New("wallet not connected")

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Policy decides whether a signing request is approved.
type Policy int

const (
	ApproveAll Policy = iota
	DeclineAll
)

// Session is a single wallet connection. The zero value is disconnected and
// approves every request once connected.
type Session struct {
	mu      sync.RWMutex
	address string
	policy  Policy
}

func NewSession() *Session {
	return &Session{}
}

// ValidAddress reports whether addr is a 20-byte hex address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// Connect binds the session to addr. Addresses are stored lowercased.
func (s *Session) Connect(addr string) error {
	if !ValidAddress(addr) {
		return fmt.Errorf("invalid wallet address %q", addr)
	}
	s.mu.Lock()
	s.address = strings.ToLower(addr)
	s.mu.Unlock()
	return nil
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	s.address = ""
	s.mu.Unlock()
}

// Account returns the connected address and whether one is available.
func (s *Session) Account() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.address != ""
}

func (s *Session) Address() string {
	addr, _ := s.Account()
	return addr
}

func (s *Session) Connected() bool {
	_, ok := s.Account()
	return ok
}

func (s *Session) SetPolicy(p Policy) {
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// Approve asks the wallet owner to sign action.
func (s *Session) Approve(ctx context.Context, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == "" {
		return ErrNotConnected
	}
	if s.policy == DeclineAll {
		return fmt.Errorf("%s: %w", action, ErrRejected)
	}
	return nil
}
