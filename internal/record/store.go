package record

import "sync/atomic"

// Store is the session cache of ledger records. It is replaced wholesale on
// every reload; readers always see one complete snapshot.
type Store struct {
	snapshot atomic.Pointer[[]Record]
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	empty := []Record{}
	s.snapshot.Store(&empty)
	return s
}

// ReplaceAll swaps in a new collection. The slice is copied so the caller may
// keep using it.
func (s *Store) ReplaceAll(records []Record) {
	next := make([]Record, len(records))
	copy(next, records)
	s.snapshot.Store(&next)
}

// All returns the current snapshot in ledger enumeration order.
func (s *Store) All() []Record {
	cur := *s.snapshot.Load()
	out := make([]Record, len(cur))
	copy(out, cur)
	return out
}

// Len returns the size of the current snapshot.
func (s *Store) Len() int {
	return len(*s.snapshot.Load())
}

// Get looks a record up by id in the current snapshot.
func (s *Store) Get(id string) (Record, bool) {
	for _, r := range *s.snapshot.Load() {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
