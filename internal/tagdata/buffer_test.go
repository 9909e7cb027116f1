package tagdata

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(i int) TagRecord {
	return TagRecord{EPC: "A", Timestamp: fmt.Sprint(i), Channel: 902.75, Phase: float64(i)}
}

func phases(rs []TagRecord) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Phase
	}
	return out
}

func TestBufferCapacityAndFIFO(t *testing.T) {
	b := NewBuffer(4)
	for i := 1; i <= 11; i++ {
		b.Push(rec(i))
		require.LessOrEqual(t, b.Size(), b.Capacity())
		snap := b.Snapshot()
		if i > 4 {
			// Oldest retained is the capacity-th most recent push.
			assert.Equal(t, float64(i-3), snap[0].Phase)
		}
		assert.Equal(t, float64(i), snap[len(snap)-1].Phase)
	}
	assert.Equal(t, []float64{8, 9, 10, 11}, phases(b.Snapshot()))
}

func TestBufferLastN(t *testing.T) {
	b := NewBuffer(5)
	for i := 1; i <= 7; i++ {
		b.Push(rec(i))
	}

	tests := []struct {
		n    int
		want []float64
	}{
		{0, []float64{}},
		{-3, []float64{}},
		{2, []float64{6, 7}},
		{5, []float64{3, 4, 5, 6, 7}},
		{50, []float64{3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, phases(b.LastN(tt.n)))
		})
	}
}

func TestBufferReadsAreCopies(t *testing.T) {
	b := NewBuffer(3)
	b.Push(rec(1))
	b.Push(rec(2))

	snap := b.LastN(2)
	snap[0].Phase = 99
	b.Push(rec(3))

	assert.Equal(t, []float64{1, 2, 3}, phases(b.Snapshot()))
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Push(rec(i))
	}
	b.Clear()
	assert.Zero(t, b.Size())
	assert.Empty(t, b.Snapshot())

	b.Push(rec(6))
	assert.Equal(t, []float64{6}, phases(b.Snapshot()))
}

func TestBufferMinimumCapacity(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, 1, b.Capacity())
	b.Push(rec(1))
	b.Push(rec(2))
	assert.Equal(t, []float64{2}, phases(b.Snapshot()))
}

func TestBufferConcurrentReadsSeeContiguousRuns(t *testing.T) {
	b := NewBuffer(64)
	const total = 5000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= total; i++ {
			b.Push(rec(i))
		}
	}()

	for k := 0; k < 4; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				got := phases(b.LastN(32))
				for i := 1; i < len(got); i++ {
					if got[i] != got[i-1]+1 {
						t.Errorf("torn read: %v", got)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 64, b.Size())
}
