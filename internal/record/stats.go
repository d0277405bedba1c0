package record

import "time"

// RecentWindow is the age below which a record counts as a recent addition.
const RecentWindow = 7 * 24 * time.Hour

// Stats are the aggregate figures shown above the record list.
type Stats struct {
	TotalBooks      int     `json:"total_books"`
	VerifiedBooks   int     `json:"verified_books"`
	AvgPages        float64 `json:"avg_pages"`
	RecentAdditions int     `json:"recent_additions"`
}

// Aggregate computes Stats over records. Ages use the ledger-reported
// CreatedAt against now; a record exactly RecentWindow old is not recent.
func Aggregate(records []Record, now time.Time) Stats {
	st := Stats{TotalBooks: len(records)}
	if len(records) == 0 {
		return st
	}
	window := int64(RecentWindow / time.Second)
	nowSec := now.Unix()
	var pages float64
	for _, r := range records {
		if r.Disclosed {
			st.VerifiedBooks++
		}
		pages += float64(r.PublicValue1)
		if nowSec-r.CreatedAt < window {
			st.RecentAdditions++
		}
	}
	st.AvgPages = pages / float64(len(records))
	return st
}
