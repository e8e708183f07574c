package assemble

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gocdo/connect"
	"github.com/notargets/gocdo/utils"
)

func closedTriangleGraph() *connect.Adjacency {
	// 3 entities, each adjacent to the other two
	return connect.NewAdjacency(3,
		utils.Index{0, 2, 4, 6},
		utils.Index{1, 2, 0, 2, 0, 1})
}

func TestBuildMatrixAssembler(t *testing.T) {
	{ // Closed triangle, 1 dof per entity: 3 diagonal + 6 off-diagonal pairs
		var (
			x2x = closedTriangleGraph()
			rs  = connect.NewSerialRangeSet(3)
			ma  = BuildMatrixAssembler(3, 1, x2x, rs)
			ms  = ma.S
		)
		assert.Equal(t, 3, ms.NRows)
		assert.Equal(t, 9, ms.NNZ())
		// Symmetric pattern: every row holds the other two columns
		assert.Equal(t, []int64{1, 2}, ms.ColGID[ms.RowIndex[0]:ms.RowIndex[1]])
		assert.Equal(t, []int64{0, 2}, ms.ColGID[ms.RowIndex[1]:ms.RowIndex[2]])
		assert.Equal(t, []int64{0, 1}, ms.ColGID[ms.RowIndex[2]:ms.RowIndex[3]])
	}
	{ // Idempotence: compiling the same inputs twice gives identical patterns
		var (
			x2x = closedTriangleGraph()
			rs  = connect.NewSerialRangeSet(3)
			ms1 = BuildMatrixAssembler(3, 1, x2x, rs).S
			ms2 = BuildMatrixAssembler(3, 1, x2x, rs).S
		)
		assert.Equal(t, ms1.NRows, ms2.NRows)
		assert.Equal(t, ms1.RowIndex, ms2.RowIndex)
		assert.Equal(t, ms1.ColGID, ms2.ColGID)
	}
	{ // An entity with zero neighbors still contributes its diagonal block
		var (
			x2x = connect.NewAdjacency(2, utils.Index{0, 0, 0}, utils.Index{})
			rs  = connect.NewSerialRangeSet(2)
			ms  = BuildMatrixAssembler(2, 1, x2x, rs).S
		)
		assert.Equal(t, 2, ms.NRows)
		assert.Equal(t, 2, ms.NNZ()) // diagonal only
	}
	{ // 3 dofs per entity: the diagonal block alone is 9 pairs per entity
		var (
			x2x = connect.NewAdjacency(2, utils.Index{0, 1, 2}, utils.Index{1, 0})
			rs  = connect.NewSerialRangeSet(2).Expand(3)
			ms  = BuildMatrixAssembler(2, 3, x2x, rs).S
		)
		assert.Equal(t, 6, ms.NRows)
		// Each dof row: 2 in-entity off-diagonals + 3 neighbor couples
		assert.Equal(t, 6+6*5, ms.NNZ())
	}
	{ // Missing numbering is a fatal setup error
		assert.Panics(t, func() {
			BuildMatrixAssembler(3, 1, closedTriangleGraph(), nil)
		})
	}
}

func TestAssembleCellSystem(t *testing.T) {
	{
		/*
			Single entity with 3 scalar dofs mapped to global ids [10,11,12],
			cellwise matrix 2*I: expect diagonal entries of 2.0 and zero
			off-diagonals
		*/
		var (
			n   = 13
			idx = utils.NewIndex(n + 1)
			ids utils.Index
		)
		// Entities 10..12 mutually adjacent, the rest isolated
		for v := 0; v < n; v++ {
			if v >= 10 {
				for _, nbr := range []int{10, 11, 12} {
					if nbr != v {
						ids = append(ids, nbr)
					}
				}
			}
			idx[v+1] = len(ids)
		}
		var (
			x2x  = connect.NewAdjacency(n, idx, ids)
			rs   = connect.NewSerialRangeSet(n)
			ma   = BuildMatrixAssembler(n, 1, x2x, rs)
			m    = NewMatrixFromStructure(ma.S)
			va   = NewValuesAssembler(m, AssemblySingle, 1)
			pool = NewBufferPool(1, 3, 9)
		)
		csys := &CellSystem{
			NDofs:  3,
			DofIDs: utils.Index{10, 11, 12},
			Mat:    utils.NewMatrix(3, 3, []float64{2, 0, 0, 0, 2, 0, 0, 0, 2}),
		}
		AssembleCellSystem(csys, rs, pool.Get(0), va)
		va.Finalize(rs)
		assert.Equal(t, 2.0, m.At(10, 10))
		assert.Equal(t, 2.0, m.At(11, 11))
		assert.Equal(t, 2.0, m.At(12, 12))
		assert.Equal(t, 0.0, m.At(10, 11))
		assert.Equal(t, 0.0, m.At(12, 10))
	}
	{ // Additivity at a shared dof: two entities both touch dof 1
		var (
			x2x  = closedTriangleGraph()
			rs   = connect.NewSerialRangeSet(3)
			ma   = BuildMatrixAssembler(3, 1, x2x, rs)
			m    = NewMatrixFromStructure(ma.S)
			va   = NewValuesAssembler(m, AssemblySingle, 1)
			pool = NewBufferPool(1, 2, 4)
		)
		ones := utils.NewMatrix(2, 2, []float64{1, 1, 1, 1})
		AssembleCellSystem(&CellSystem{NDofs: 2, DofIDs: utils.Index{0, 1}, Mat: ones},
			rs, pool.Get(0), va)
		AssembleCellSystem(&CellSystem{NDofs: 2, DofIDs: utils.Index{1, 2}, Mat: ones},
			rs, pool.Get(0), va)
		va.Finalize(rs)
		assert.Equal(t, 1.0, m.At(0, 0))
		assert.Equal(t, 2.0, m.At(1, 1)) // both entities contribute
		assert.Equal(t, 1.0, m.At(2, 2))
		assert.Equal(t, 1.0, m.At(0, 1))
		assert.Equal(t, 0.0, m.At(0, 2)) // in pattern, never touched
	}
	{ // Zero dofs is a legitimate no-op
		var (
			x2x  = closedTriangleGraph()
			rs   = connect.NewSerialRangeSet(3)
			m    = NewMatrixFromStructure(BuildMatrixAssembler(3, 1, x2x, rs).S)
			va   = NewValuesAssembler(m, AssemblySingle, 1)
			pool = NewBufferPool(1, 2, 4)
		)
		AssembleCellSystem(&CellSystem{NDofs: 0}, rs, pool.Get(0), va)
		va.Finalize(rs)
		assert.Equal(t, 0.0, m.At(0, 0))
	}
	{ // Overflowing the preallocated buffer is a fatal sizing bug
		var (
			x2x  = closedTriangleGraph()
			rs   = connect.NewSerialRangeSet(3)
			m    = NewMatrixFromStructure(BuildMatrixAssembler(3, 1, x2x, rs).S)
			va   = NewValuesAssembler(m, AssemblySingle, 1)
			pool = NewBufferPool(1, 2, 4)
		)
		csys := &CellSystem{
			NDofs:  3,
			DofIDs: utils.Index{0, 1, 2},
			Mat:    utils.NewMatrix(3, 3),
		}
		assert.Panics(t, func() {
			AssembleCellSystem(csys, rs, pool.Get(0), va)
		})
	}
}

func TestAssembleBlockCellSystem(t *testing.T) {
	/*
		Two entities with 3 dofs each, mutually adjacent. Assembling the
		2x2 grid of 3x3 blocks must match flattening to a 6x6 dense matrix
		and running the plain variant.
	*/
	var (
		x2x    = connect.NewAdjacency(2, utils.Index{0, 1, 2}, utils.Index{1, 0})
		rsVect = connect.NewSerialRangeSet(2).Expand(3)
		ma     = BuildMatrixAssembler(2, 3, x2x, rsVect)
	)
	bm := utils.NewBlockMatrix(2, 2)
	val := 0.
	for bi := 0; bi < 2; bi++ {
		for bj := 0; bj < 2; bj++ {
			sub := utils.NewMatrix(3, 3)
			for ii := 0; ii < 3; ii++ {
				for jj := 0; jj < 3; jj++ {
					val += 1.
					sub.Set(ii, jj, val)
				}
			}
			bm.M[bi][bj] = sub
		}
	}
	dofIDs := utils.NewRange(0, 5) // interlaced dof-level ids

	// Block variant
	mBlock := NewMatrixFromStructure(ma.S)
	vaBlock := NewValuesAssembler(mBlock, AssemblySingle, 1)
	pool := NewBufferPool(1, 6, 36)
	mab := pool.Get(0)
	mab.NxDofs = 3
	AssembleBlockCellSystem(&CellSystem{NDofs: 6, DofIDs: dofIDs, Block: &bm},
		rsVect, mab, vaBlock)
	vaBlock.Finalize(rsVect)

	// Plain variant over the flattened matrix
	mPlain := NewMatrixFromStructure(ma.S)
	vaPlain := NewValuesAssembler(mPlain, AssemblySingle, 1)
	AssembleCellSystem(&CellSystem{NDofs: 6, DofIDs: dofIDs, Mat: bm.Flatten()},
		rsVect, pool.Get(0), vaPlain)
	vaPlain.Finalize(rsVect)

	assert.InDeltaSlice(t, mPlain.DVal, mBlock.DVal, 1.e-14)
	assert.InDeltaSlice(t, mPlain.XVal, mBlock.XVal, 1.e-14)
}

func TestAssemblyStrategies(t *testing.T) {
	/*
		A chain of entities assembled concurrently from NW workers must give
		the same sums under the atomic and critical strategies as the
		single-threaded reference, to floating-point commutativity.
	*/
	var (
		nElts = 64
		NW    = 4
		idx   = utils.NewIndex(nElts + 1)
		ids   utils.Index
	)
	for i := 0; i < nElts; i++ {
		if i > 0 {
			ids = append(ids, i-1)
		}
		if i < nElts-1 {
			ids = append(ids, i+1)
		}
		idx[i+1] = len(ids)
	}
	var (
		x2x = connect.NewAdjacency(nElts, idx, ids)
		rs  = connect.NewSerialRangeSet(nElts)
		ma  = BuildMatrixAssembler(nElts, 1, x2x, rs)
	)
	cellMat := utils.NewMatrix(2, 2, []float64{2, -1, -1, 2})

	runPass := func(strategy AssemblyStrategy, nWorkers int) *Matrix {
		var (
			m    = NewMatrixFromStructure(ma.S)
			va   = NewValuesAssembler(m, strategy, nWorkers)
			pool = NewBufferPool(nWorkers, 2, 4)
			pm   = utils.NewPartitionMap(nWorkers, nElts-1)
			wg   = sync.WaitGroup{}
		)
		wg.Add(nWorkers)
		for n := 0; n < nWorkers; n++ {
			go func(tid int) {
				defer wg.Done()
				kMin, kMax := pm.GetBucketRange(tid)
				for k := kMin; k < kMax; k++ { // one 2-dof element per edge
					AssembleCellSystem(&CellSystem{
						NDofs:  2,
						DofIDs: utils.Index{k, k + 1},
						Mat:    cellMat,
					}, rs, pool.Get(tid), va)
				}
			}(n)
		}
		wg.Wait()
		va.Finalize(rs)
		return m
	}

	ref := runPass(AssemblySingle, 1)
	for _, strategy := range []AssemblyStrategy{AssemblyAtomic, AssemblyCritical} {
		m := runPass(strategy, NW)
		assert.InDeltaSlice(t, ref.DVal, m.DVal, 1.e-12, strategy.String())
		assert.InDeltaSlice(t, ref.XVal, m.XVal, 1.e-12, strategy.String())
	}

	// Interior dofs see both neighboring elements
	assert.Equal(t, 2.0, ref.At(0, 0))
	assert.Equal(t, 4.0, ref.At(1, 1))
	assert.Equal(t, -1.0, ref.At(1, 2))
}

func TestBufferPool(t *testing.T) {
	pool := NewBufferPool(3, 4, 16)
	assert.NotNil(t, pool.Get(0))
	assert.NotNil(t, pool.Get(2))
	assert.Nil(t, pool.Get(3))
	assert.Nil(t, pool.Get(-1))
	assert.Equal(t, 16, pool.Get(1).BufferSize)
	assert.Panics(t, func() { NewBufferPool(1, 4, 9) }) // below dofs^2
}
