package quality

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/gocdo/parallel"
)

// Quality indicators are binned into a fixed subdivision of their range
const nHistogramSubs = 10

/*
Histogram bins a mesh quality indicator over its global value range. The
range is reduced across all ranks before binning, so every rank bins into
identical intervals and the counts can be summed collectively.
*/
type Histogram struct {
	Min, Max float64
	Count    [nHistogramSubs]uint64
	NVals    uint64
}

func NewHistogram(vals []float64, c *parallel.Comm) (h *Histogram) {
	h = &Histogram{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}
	for _, v := range vals {
		if v < h.Min {
			h.Min = v
		}
		if v > h.Max {
			h.Max = v
		}
	}
	h.Min = c.Reduce(h.Min, parallel.OpMin)
	h.Max = c.Reduce(h.Max, parallel.OpMax)

	// Define step and bin the local values, the last interval is closed
	step := (h.Max - h.Min) / nHistogramSubs
	for _, v := range vals {
		var bin int
		if step > 0 {
			bin = int((v - h.Min) / step)
			if bin > nHistogramSubs-1 {
				bin = nHistogramSubs - 1
			}
		}
		h.Count[bin]++
	}
	for i := range h.Count {
		h.Count[i] = c.CounterSum(h.Count[i])
	}
	h.NVals = c.CounterSum(uint64(len(vals)))
	return
}

// Display prints the global range and the per interval counts
func (h *Histogram) Display(w io.Writer, name string) {
	fmt.Fprintf(w, "\n  Histogram of %s:\n\n", name)
	if h.NVals == 0 {
		fmt.Fprintf(w, "    no values\n")
		return
	}
	fmt.Fprintf(w, "    minimum value =         %10.5e\n", h.Min)
	fmt.Fprintf(w, "    maximum value =         %10.5e\n\n", h.Max)
	if h.Max-h.Min == 0 {
		return
	}
	step := (h.Max - h.Min) / nHistogramSubs
	for i := 0; i < nHistogramSubs; i++ {
		var (
			lo = h.Min + float64(i)*step
			hi = h.Min + float64(i+1)*step
		)
		if i < nHistogramSubs-1 {
			fmt.Fprintf(w, "    %3d : [ %10.5e ; %10.5e [ = %10d\n", i+1, lo, hi, h.Count[i])
		} else {
			fmt.Fprintf(w, "    %3d : [ %10.5e ; %10.5e ] = %10d\n", i+1, lo, h.Max, h.Count[i])
		}
	}
}
