package record

import "privlib/internal/ledger"

// FromLedger maps the on-chain view of record id. Author and ISBN are not
// recoverable from the packed description and get display placeholders.
func FromLedger(id string, d ledger.RecordData) Record {
	r := Record{
		ID:             id,
		Title:          d.Name,
		Author:         AnonymousAuthor,
		ISBN:           PlaceholderISBN(id),
		Description:    d.Description,
		EncryptedField: d.EncryptedValue,
		PublicValue1:   d.PublicValue1,
		PublicValue2:   d.PublicValue2,
		Creator:        d.Creator,
		CreatedAt:      d.Timestamp,
		Disclosed:      d.IsVerified,
	}
	if d.IsVerified {
		r.DisclosedValue = d.DecryptedValue
	}
	return r
}
