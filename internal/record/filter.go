package record

import "strings"

// Filter keeps the records whose title, author or ISBN contains query,
// ignoring case. An empty query keeps everything. Order is preserved.
func Filter(records []Record, query string) []Record {
	q := strings.ToLower(query)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if q == "" ||
			strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Author), q) ||
			strings.Contains(strings.ToLower(r.ISBN), q) {
			out = append(out, r)
		}
	}
	return out
}
