package record

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestStoreReplaceAll(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.All())
	assert.Zero(t, s.Len())

	in := []Record{{ID: "b"}, {ID: "a"}, {ID: "c"}}
	s.ReplaceAll(in)
	in[0].ID = "mutated"

	if diff := cmp.Diff([]string{"b", "a", "c"}, ids(s.All())); diff != "" {
		t.Errorf("snapshot order changed (-want +got):\n%s", diff)
	}

	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)
	_, ok = s.Get("mutated")
	assert.False(t, ok)

	out := s.All()
	out[0].Title = "changed by reader"
	first, _ := s.Get("b")
	assert.Empty(t, first.Title, "readers must not mutate the store")
}

func TestStoreConcurrentSnapshots(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := (w+i)%5 + 1
				batch := make([]Record, n)
				for j := range batch {
					batch[j] = Record{ID: fmt.Sprintf("%d", n)}
				}
				s.ReplaceAll(batch)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				snap := s.All()
				for _, rec := range snap {
					// every batch of size n is tagged with n
					if rec.ID != fmt.Sprintf("%d", len(snap)) {
						t.Errorf("torn snapshot: len %d holds %q", len(snap), rec.ID)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
