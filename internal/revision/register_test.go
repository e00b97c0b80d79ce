package revision

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dreamware/csync/internal/types"
)

// TestGrowIsMonotonic covers the "Revision monotonicity" property: across
// any sequence of successful mutations, the observed rev is strictly
// increasing.
func TestGrowIsMonotonic(t *testing.T) {
	r := NewRegister()

	prev := uint64(0)
	for i := 0; i < 50; i++ {
		got := r.Grow()
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestGrowConcurrentIsMonotonic(t *testing.T) {
	r := NewRegister()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Grow()
		}()
	}
	wg.Wait()

	rev, _ := r.Snapshot()
	assert.Equal(t, uint64(20), rev)
}

func TestSetAndClearLatest(t *testing.T) {
	r := NewRegister()
	r.Grow()
	r.SetLatest(types.Metadata{ID: 7, Summary: "hello"})

	rev, latest := r.Snapshot()
	assert.Equal(t, uint64(1), rev)
	if assert.NotNil(t, latest) {
		assert.Equal(t, uint64(7), latest.ID)
	}

	r.ClearLatest(99)
	_, latest = r.Snapshot()
	assert.NotNil(t, latest, "clearing an unrelated id must not drop the cached latest")

	r.ClearLatest(7)
	_, latest = r.Snapshot()
	assert.Nil(t, latest)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegister()
	r.SetLatest(types.Metadata{ID: 1, Summary: "original"})

	_, latest := r.Snapshot()
	latest.Summary = "mutated"

	_, latest2 := r.Snapshot()
	assert.Equal(t, "original", latest2.Summary)
}
