package assemble

import (
	"fmt"

	"github.com/notargets/gocdo/connect"
)

/*
PrepareSystem compacts the unknown and right-hand-side arrays from the local
scatter ordering into the distributed gather ordering expected by the linear
solver, in place. In a multi-rank run the right-hand side is first summed
across ranks at shared boundary entities, because boundary contributions are
computed redundantly on every owning rank during local assembly. Single rank
execution reduces to a pass-through.

Returns the number of structural nonzeros of the compiled matrix summed over
all ranks, a collective and deterministic diagnostic.
*/
func PrepareSystem(stride, xSize int, m *Matrix, rs *connect.RangeSet, x, b []float64) (nnz uint64) {
	var (
		nScatterElts = xSize
		nGatherElts  = m.S.NRows
	)
	if nGatherElts > nScatterElts {
		panic(fmt.Errorf("gather rows (%d) exceed scatter entries (%d)", nGatherElts, nScatterElts))
	}

	if rs.Comm.NP() > 1 { // Parallel mode
		// Compact numbering to fit the algebraic decomposition
		rs.Gather(stride, x)

		// The right-hand side stems from a cellwise building on this rank;
		// distant ranks contribute to shared boundary entities
		rs.Ifs.Sum(rs, stride, true, b)
		rs.Gather(stride, b)
	}

	nnz = uint64(m.S.NNZ())
	nnz = rs.Comm.CounterSum(nnz)
	return
}
