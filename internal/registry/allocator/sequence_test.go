package allocator

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"mintgate/pkg/domain"
	"mintgate/pkg/platform/sentinel"
)

func TestSequence_Next(t *testing.T) {
	seq := NewSequence()

	first, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, domain.TokenID(1), first)

	second, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, domain.TokenID(2), second)

	assert.Equal(t, uint64(2), seq.Last())
}

func TestSequence_NextN(t *testing.T) {
	t.Run("consecutive block", func(t *testing.T) {
		seq := NewSequence()
		ids, err := seq.NextN(5)
		require.NoError(t, err)
		require.Len(t, ids, 5)
		for i, id := range ids {
			assert.Equal(t, domain.TokenID(i+1), id)
		}
	})

	t.Run("zero and negative allocate nothing", func(t *testing.T) {
		seq := NewSequence()
		ids, err := seq.NextN(0)
		require.NoError(t, err)
		assert.Nil(t, ids)

		ids, err = seq.NextN(-3)
		require.NoError(t, err)
		assert.Nil(t, ids)
		assert.Equal(t, uint64(0), seq.Last())
	})

	t.Run("exhaustion consumes nothing", func(t *testing.T) {
		seq := &Sequence{last: math.MaxUint64 - 2}

		_, err := seq.NextN(3)
		require.ErrorIs(t, err, sentinel.ErrExhausted)
		assert.Equal(t, uint64(math.MaxUint64-2), seq.Last())

		// A smaller block still fits.
		ids, err := seq.NextN(2)
		require.NoError(t, err)
		assert.Equal(t, domain.TokenID(math.MaxUint64), ids[1])

		_, err = seq.Next()
		assert.ErrorIs(t, err, sentinel.ErrExhausted)
	})
}

func TestSequence_ConcurrentAllocation(t *testing.T) {
	const (
		goroutines = 16
		perWorker  = 50
	)

	seq := NewSequence()
	results := make(chan domain.TokenID, goroutines*perWorker)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id, err := seq.Next()
				if err != nil {
					t.Error(err)
					return
				}
				results <- id
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[domain.TokenID]bool)
	for id := range results {
		assert.False(t, seen[id], "identifier %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perWorker)
	assert.Equal(t, uint64(goroutines*perWorker), seq.Last())
}

// Property: across any interleaving of single and block allocations,
// identifiers are strictly increasing with no gaps and no reuse.
func TestSequence_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := NewSequence()
		var prev uint64

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for range steps {
			n := rapid.IntRange(1, 8).Draw(t, "n")
			ids, err := seq.NextN(n)
			if err != nil {
				t.Fatalf("allocation failed: %v", err)
			}
			for _, id := range ids {
				if uint64(id) != prev+1 {
					t.Fatalf("expected %d, got %d", prev+1, id)
				}
				prev = uint64(id)
			}
		}
		if seq.Last() != prev {
			t.Fatalf("last %d does not match highest allocation %d", seq.Last(), prev)
		}
	})
}
