package quality

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/notargets/gocdo/parallel"
	"github.com/stretchr/testify/assert"
)

func TestHistogram(t *testing.T) {
	{ // Serial, uniform values over [0, 10)
		vals := make([]float64, 20)
		for i := range vals {
			vals[i] = 0.5 * float64(i)
		}
		h := NewHistogram(vals, nil)
		assert.Equal(t, 0.0, h.Min)
		assert.Equal(t, 9.5, h.Max)
		assert.Equal(t, uint64(20), h.NVals)
		var total uint64
		for _, c := range h.Count {
			total += c
		}
		assert.Equal(t, uint64(20), total)
		// Maximum lands in the closed last interval
		assert.GreaterOrEqual(t, h.Count[nHistogramSubs-1], uint64(1))
	}
	{ // Constant values collapse the range, all counts land in bin 0
		h := NewHistogram([]float64{3, 3, 3}, nil)
		assert.Equal(t, 3.0, h.Min)
		assert.Equal(t, 3.0, h.Max)
		assert.Equal(t, uint64(3), h.Count[0])
		var buf bytes.Buffer
		h.Display(&buf, "constant field")
		assert.Contains(t, buf.String(), "minimum value =")
		assert.NotContains(t, buf.String(), "[")
	}
	{ // Two ranks, global range and counts are reduced collectively
		grp := parallel.NewRankGroup(2)
		perRank := [][]float64{{0, 1, 2}, {8, 9, 10}}
		var (
			mu sync.Mutex
			hs = make([]*Histogram, 2)
			wg sync.WaitGroup
		)
		wg.Add(2)
		for rank := 0; rank < 2; rank++ {
			go func(rank int) {
				defer wg.Done()
				h := NewHistogram(perRank[rank], grp.Comm(rank))
				mu.Lock()
				hs[rank] = h
				mu.Unlock()
			}(rank)
		}
		wg.Wait()
		for rank := 0; rank < 2; rank++ {
			assert.Equal(t, 0.0, hs[rank].Min)
			assert.Equal(t, 10.0, hs[rank].Max)
			assert.Equal(t, uint64(6), hs[rank].NVals)
			// Bins of width 1, values 0,1,2 and 8,9,10
			assert.Equal(t, uint64(1), hs[rank].Count[0])
			assert.Equal(t, uint64(1), hs[rank].Count[2])
			assert.Equal(t, uint64(0), hs[rank].Count[5])
			assert.Equal(t, uint64(2), hs[rank].Count[9])
		}
	}
	{ // Display formatting
		h := NewHistogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, nil)
		var buf bytes.Buffer
		h.Display(&buf, "cell volume")
		out := buf.String()
		assert.Contains(t, out, "Histogram of cell volume")
		assert.Contains(t, out, "  1 : [")
		assert.Equal(t, nHistogramSubs, strings.Count(out, " : ["))
		assert.Contains(t, out, "] =") // closed last interval
	}
}

func TestTriangleShape(t *testing.T) {
	var (
		h  = math.Sqrt(3) / 2
		VX = []float64{0, 1, 0.5, 1, 100}
		VY = []float64{0, 0, h, 1, 0.001}
	)
	q := TriangleShape(VX, VY, [][3]int{
		{0, 1, 2}, // equilateral
		{0, 1, 3}, // right isoceles
		{0, 1, 4}, // nearly degenerate sliver
	})
	assert.InDelta(t, 1.0, q[0], 1.e-8)
	assert.Greater(t, q[1], 0.5)
	assert.Less(t, q[1], 1.0)
	assert.Less(t, q[2], 0.05)
}
