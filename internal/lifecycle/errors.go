// errors.go - Workflow failure classification.

package lifecycle

import (
	"errors"
	"strings"

	"privlib/internal/ledger"
	"privlib/internal/wallet"
)

// Kind classifies a workflow failure.
type Kind int

const (
	UnknownError Kind = iota
	NotConnected
	EncryptionFailure
	LedgerWriteFailure
	UserCancelled
	AlreadyVerified
	DisclosureFailure
	Busy
	InvalidInput
	ReloadFailure
)

var kindNames = [...]string{
	UnknownError:       "UnknownError",
	NotConnected:       "NotConnected",
	EncryptionFailure:  "EncryptionFailure",
	LedgerWriteFailure: "LedgerWriteFailure",
	UserCancelled:      "UserCancelled",
	AlreadyVerified:    "AlreadyVerified",
	DisclosureFailure:  "DisclosureFailure",
	Busy:               "Busy",
	InvalidInput:       "InvalidInput",
	ReloadFailure:      "ReloadFailure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownError"
}

// Soft reports whether the kind is shown as a notice rather than a failure.
func (k Kind) Soft() bool {
	return k == UserCancelled || k == AlreadyVerified
}

// Error is a classified workflow failure. Message is the user-facing text.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or UnknownError when err was not
// produced by the controller.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownError
}

// IsKind reports whether err is a controller failure of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Collaborators outside this process report some failures only through their
// message, so both the typed and the textual forms are recognised.
func isUserRejection(err error) bool {
	if errors.Is(err, wallet.ErrRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

func isAlreadyVerified(err error) bool {
	if errors.Is(err, ledger.ErrAlreadyVerified) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already verified")
}
