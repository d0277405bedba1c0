package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privlib/internal/ledger"
)

func TestSanitizePages(t *testing.T) {
	t.Run("strips non-digits", func(t *testing.T) {
		pages, err := SanitizePages("12a3")
		require.NoError(t, err)
		assert.Equal(t, uint64(123), pages)
	})

	t.Run("plain number", func(t *testing.T) {
		pages, err := SanitizePages("250")
		require.NoError(t, err)
		assert.Equal(t, uint64(250), pages)
	})

	for _, raw := range []string{"", "abc", "0", "000", "-"} {
		_, err := SanitizePages(raw)
		if !errors.Is(err, ErrInvalidPages) {
			t.Errorf("SanitizePages(%q) error = %v, want ErrInvalidPages", raw, err)
		}
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := SanitizePages("99999999999999999999999")
		assert.ErrorIs(t, err, ErrInvalidPages)
	})
}

func TestRevealed(t *testing.T) {
	r := Record{DisclosedValue: 42}
	_, ok := r.Revealed()
	assert.False(t, ok, "value must not be revealed before disclosure")

	r.Disclosed = true
	v, ok := r.Revealed()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)
}

func TestDescriptionAndPlaceholders(t *testing.T) {
	assert.Equal(t, "Author: Ada, ISBN: 978-1", PackDescription("Ada", "978-1"))
	assert.Equal(t, "ISBN-book-170", PlaceholderISBN("book-1700000000000"))
	assert.Equal(t, "ISBN-abc", PlaceholderISBN("abc"))
}

func TestFromLedger(t *testing.T) {
	d := ledger.RecordData{
		Name:           "Dune",
		Description:    PackDescription("Frank Herbert", "9780441013593"),
		EncryptedValue: "0xabc",
		PublicValue1:   412,
		Creator:        "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		Timestamp:      1_700_000_000,
		DecryptedValue: 999,
	}

	got := FromLedger("book-1700000000000", d)
	if got.Author != AnonymousAuthor || got.ISBN != "ISBN-book-170" {
		t.Errorf("unexpected placeholders: %q %q", got.Author, got.ISBN)
	}
	if _, ok := got.Revealed(); ok || got.DisclosedValue != 0 {
		t.Errorf("unverified record must not carry a disclosed value")
	}

	d.IsVerified = true
	got = FromLedger("book-1700000000000", d)
	if v, ok := got.Revealed(); !ok || v != 999 {
		t.Errorf("Revealed() = %d, %v", v, ok)
	}
}
