// record.go - Record model for the confidential library.
//
// A Record is one book published to the ledger. Its page count is stored on the
// ledger only as an encrypted handle until the creator discloses it; the plain
// echo in PublicValue1 is what the list shows before disclosure.

package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AnonymousAuthor is shown for every record loaded from the ledger: author and
// ISBN are packed into the free-text description and are not read back.
const AnonymousAuthor = "Anonymous Author"

// ErrInvalidPages is returned when the page count has no digits or is zero.
var ErrInvalidPages = errors.New("page count must be a positive integer")

// Record mirrors one ledger entry.
type Record struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	ISBN           string `json:"isbn"`
	Description    string `json:"description"`
	EncryptedField string `json:"encrypted_field"` // handle of the concealed page count
	PublicValue1   uint64 `json:"public_value1"`   // plaintext echo of the page count
	PublicValue2   uint64 `json:"public_value2"`
	Creator        string `json:"creator"`
	CreatedAt      int64  `json:"created_at"` // ledger timestamp, seconds
	Disclosed      bool   `json:"disclosed"`
	DisclosedValue uint64 `json:"disclosed_value"`
}

// Revealed returns the verified page count. ok is false until the value has
// been disclosed on-chain; DisclosedValue must not be trusted before that.
func (r Record) Revealed() (value uint64, ok bool) {
	if !r.Disclosed {
		return 0, false
	}
	return r.DisclosedValue, true
}

// PlaceholderISBN derives the display ISBN for a record loaded from the ledger.
func PlaceholderISBN(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "ISBN-" + id
}

// PackDescription packs author and ISBN into the ledger description field.
func PackDescription(author, isbn string) string {
	return fmt.Sprintf("Author: %s, ISBN: %s", author, isbn)
}

// DigitsOnly strips every non-digit character, as the publish form does on input.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizePages turns user input such as "12a3" into 123.
func SanitizePages(raw string) (uint64, error) {
	digits := DigitsOnly(raw)
	if digits == "" {
		return 0, ErrInvalidPages
	}
	pages, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPages, err)
	}
	if pages == 0 {
		return 0, ErrInvalidPages
	}
	return pages, nil
}
