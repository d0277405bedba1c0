package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	records := []Record{
		{ID: "1", Title: "The Go Programming Language", Author: "Donovan", ISBN: "ISBN-111"},
		{ID: "2", Title: "Dune", Author: "Herbert", ISBN: "ISBN-222"},
		{ID: "3", Title: "Structure and Interpretation", Author: "Abelson", ISBN: "ISBN-go-333"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps order", "", []string{"1", "2", "3"}},
		{"title case-insensitive", "DUNE", []string{"2"}},
		{"author", "herb", []string{"2"}},
		{"isbn", "isbn-111", []string{"1"}},
		{"matches across fields keeps order", "go", []string{"1", "3"}},
		{"no match", "rust", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(records, tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}
