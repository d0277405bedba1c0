package lifecycle

import (
	"sync"
	"time"
)

// HistoryLimit is how many entries the session view shows.
const HistoryLimit = 5

// Action names a history entry.
type Action string

const (
	ActionPublish  Action = "publish"
	ActionDisclose Action = "disclose"
)

// Entry is one successful mutation of the session.
type Entry struct {
	Time     time.Time `json:"time"`
	Action   Action    `json:"action"`
	RecordID string    `json:"record_id"`
	Title    string    `json:"title,omitempty"`
	Value    uint64    `json:"value,omitempty"`
	TxHash   string    `json:"tx_hash,omitempty"`
}

// History is the append-only session log.
type History struct {
	mu      sync.Mutex
	entries []Entry
}

func (h *History) Append(e Entry) {
	h.mu.Lock()
	h.entries = append(h.entries, e)
	h.mu.Unlock()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Last returns up to n most recent entries in the order they happened. n <= 0
// returns all.
func (h *History) Last(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}
