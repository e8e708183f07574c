package assemble

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/notargets/gocdo/connect"
	"github.com/notargets/gocdo/parallel"
)

/*
AssemblyStrategy selects how concurrent value submissions from multiple
workers are made safe against each other. Atomic is the default when more
than one worker is active; Single is only legal with one worker. A fourth
option exists outside this type: partition the entities into conflict-free
groups with renumber.IndependentGroups and run Single within each group.
*/
type AssemblyStrategy uint8

const (
	AssemblySingle AssemblyStrategy = iota
	AssemblyAtomic
	AssemblyCritical
)

func NewAssemblyStrategy(name string) (s AssemblyStrategy) {
	switch name {
	case "single", "":
		s = AssemblySingle
	case "atomic":
		s = AssemblyAtomic
	case "critical":
		s = AssemblyCritical
	default:
		panic(fmt.Errorf("unknown assembly strategy %q", name))
	}
	return
}

func (s AssemblyStrategy) String() string {
	switch s {
	case AssemblySingle:
		return "single"
	case AssemblyAtomic:
		return "atomic"
	case AssemblyCritical:
		return "critical"
	}
	return "unknown"
}

type distantVal struct {
	Row, Col int64
	Val      float64
}

/*
ValuesAssembler is the accumulation front end over a Matrix for one assembly
pass. Workers submit batches of (global row, global col, value) triples; the
final value of an entry is the sum of every contribution regardless of
submission order. Under the atomic strategy the floating-point summation
order varies run to run, so results are additively exact but not bit
reproducible across worker counts.
*/
type ValuesAssembler struct {
	M        *Matrix
	Strategy AssemblyStrategy

	// Atomic strategy accumulates into bit-pattern arrays folded in Finalize
	dBits, xBits []uint64

	mu sync.Mutex // critical strategy

	distantMu sync.Mutex
	distant   []distantVal // contributions to rows owned by other ranks
}

/*
NewValuesAssembler selects the concrete accumulation path: fewer than two
workers always degrades to the single-threaded add, mirroring how the
strategy choice interacts with the active thread count.
*/
func NewValuesAssembler(m *Matrix, strategy AssemblyStrategy, nWorkers int) (va *ValuesAssembler) {
	if nWorkers < 2 {
		strategy = AssemblySingle
	} else if strategy == AssemblySingle {
		panic("single-threaded assembly strategy with multiple workers")
	}
	va = &ValuesAssembler{
		M:        m,
		Strategy: strategy,
	}
	if strategy == AssemblyAtomic {
		va.dBits = make([]uint64, len(m.DVal))
		va.xBits = make([]uint64, len(m.XVal))
	}
	return
}

// AddG accumulates one batch of n triples; safe for concurrent submission
// under the atomic and critical strategies
func (va *ValuesAssembler) AddG(n int, rows, cols []int64, vals []float64) {
	if va.Strategy == AssemblyCritical {
		va.mu.Lock()
		defer va.mu.Unlock()
	}
	var (
		m  = va.M
		ms = m.S
	)
	for i := 0; i < n; i++ {
		grow := rows[i]
		if grow < ms.LRange[0] || grow >= ms.LRange[1] {
			// Owned by another rank: buffered, exchanged in Finalize
			va.distantMu.Lock()
			va.distant = append(va.distant, distantVal{grow, cols[i], vals[i]})
			va.distantMu.Unlock()
			continue
		}
		row := int(grow - ms.LRange[0])
		if cols[i] == grow {
			va.addDiag(row, vals[i])
		} else {
			pos, ok := ms.posOf(row, cols[i])
			if !ok {
				panic(fmt.Errorf("value submitted off-pattern at (%d,%d)", grow, cols[i]))
			}
			va.addOff(pos, vals[i])
		}
	}
}

func (va *ValuesAssembler) addDiag(row int, val float64) {
	if va.Strategy == AssemblyAtomic {
		atomicAdd(&va.dBits[row], val)
		return
	}
	va.M.DVal[row] += val
}

func (va *ValuesAssembler) addOff(pos int, val float64) {
	if va.Strategy == AssemblyAtomic {
		atomicAdd(&va.xBits[pos], val)
		return
	}
	va.M.XVal[pos] += val
}

// atomicAdd performs a compare-and-swap add on a float64 bit pattern
func atomicAdd(bits *uint64, val float64) {
	for {
		old := atomic.LoadUint64(bits)
		next := math.Float64bits(math.Float64frombits(old) + val)
		if atomic.CompareAndSwapUint64(bits, old, next) {
			return
		}
	}
}

/*
Finalize completes the pass: the atomic accumulators are folded into the
matrix, and contributions to distant rows are shipped to their owning ranks
and added there. Must be entered by every rank of the group.
*/
func (va *ValuesAssembler) Finalize(rs *connect.RangeSet) {
	if va.Strategy == AssemblyAtomic {
		for i, b := range va.dBits {
			va.M.DVal[i] += math.Float64frombits(b)
		}
		for i, b := range va.xBits {
			va.M.XVal[i] += math.Float64frombits(b)
		}
	}
	if rs.Comm.NP() < 2 {
		if len(va.distant) > 0 {
			panic("distant contributions in a single rank run")
		}
		return
	}
	send := make([][]distantVal, rs.Comm.NP())
	for _, dv := range va.distant {
		send[rs.Owner(dv.Row)] = append(send[rs.Owner(dv.Row)], dv)
	}
	va.distant = nil
	recv := parallel.Exchange(rs.Comm, send)
	ms := va.M.S
	for rank, dvs := range recv {
		if rank == rs.Comm.MyRank {
			continue
		}
		for _, dv := range dvs {
			row := int(dv.Row - ms.LRange[0])
			if row < 0 || row >= ms.NRows {
				panic(fmt.Errorf("received value for row %d owned elsewhere", dv.Row))
			}
			if dv.Col == dv.Row {
				va.M.DVal[row] += dv.Val
			} else {
				pos, ok := ms.posOf(row, dv.Col)
				if !ok {
					panic(fmt.Errorf("received off-pattern value at (%d,%d)", dv.Row, dv.Col))
				}
				va.M.XVal[pos] += dv.Val
			}
		}
	}
}
