package assemble

import (
	"fmt"

	"github.com/notargets/gocdo/connect"
	"github.com/notargets/gocdo/utils"
)

/*
CellSystem is the small dense system computed independently for one mesh
entity before being folded into the global system. DofIDs maps the local
dense rows to local dof indices of the range set; for the block layout,
DofIDs is interlaced (the n_x_dofs components of block entity b occupy
DofIDs[b*NxDofs : (b+1)*NxDofs]) and Block holds the sub-matrix grid.
*/
type CellSystem struct {
	NDofs     int
	DofIDs    utils.Index
	Mat       utils.Matrix
	RHS       []float64
	Block     *utils.BlockMatrix
	ForcedIDs utils.Index // per-dof index into the imposed value array, -1 if free
}

/*
AssembleCellSystem folds one plain (non-block) cellwise system into the
global matrix: every (i,j) of the dense matrix becomes one (global row,
global col, value) triple in the worker's buffer, row-major, diagonal not
special-cased, then the whole batch goes to the value assembler in one call.
A zero-dof system is a legitimate no-op.
*/
func AssembleCellSystem(csys *CellSystem, rs *connect.RangeSet, mab *AssemblyBuffer, mav *ValuesAssembler) {
	var (
		n = csys.NDofs
	)
	if n == 0 {
		return
	}
	// Capacity is a precondition established at setup: a violation is a
	// sizing bug, not recoverable input
	if n*n > mab.BufferSize {
		panic(fmt.Errorf("cellwise system needs %d buffer slots, buffer holds %d", n*n, mab.BufferSize))
	}

	// Define the dof gids
	for i := 0; i < n; i++ {
		mab.DofGIDs[i] = rs.GID[csys.DofIDs[i]]
	}

	var bufsize int
	for i := 0; i < n; i++ {
		var (
			iGID    = mab.DofGIDs[i]
			valRowi = csys.Mat.Row(i)
		)
		for j := 0; j < n; j++ {
			mab.RowGIDs[bufsize] = iGID
			mab.ColGIDs[bufsize] = mab.DofGIDs[j]
			mab.Values[bufsize] = valRowi[j]
			bufsize++
		}
	}
	mav.AddG(bufsize, mab.RowGIDs, mab.ColGIDs, mab.Values)
}

/*
AssembleBlockCellSystem folds a block-layout cellwise system: the matrix is
an nBlocks x nBlocks grid of (NxDofs x NxDofs) sub-matrices and the global
ids are read at stride NxDofs from the dof-level numbering. Equivalent to
flattening the grid and running AssembleCellSystem, without materializing
the flattened form.
*/
func AssembleBlockCellSystem(csys *CellSystem, rs *connect.RangeSet, mab *AssemblyBuffer, mav *ValuesAssembler) {
	var (
		nxDofs = mab.NxDofs
		bd     = csys.Block
	)
	if bd == nil {
		panic("block assembly on a cellwise system without a block matrix")
	}
	if bd.Nr != bd.Nc {
		panic(fmt.Errorf("block grid is %dx%d, square expected", bd.Nr, bd.Nc))
	}
	need := bd.Nr * bd.Nc * nxDofs * nxDofs
	if need > mab.BufferSize {
		panic(fmt.Errorf("block cellwise system needs %d buffer slots, buffer holds %d", need, mab.BufferSize))
	}

	var bufsize int
	for bi := 0; bi < bd.Nr; bi++ {
		// DofIDs is interlaced: the next nxDofs entries belong to block bi
		biGIDs := rs.GID[csys.DofIDs[nxDofs*bi]:]
		for bj := 0; bj < bd.Nc; bj++ {
			var (
				bjGIDs = rs.GID[csys.DofIDs[nxDofs*bj]:]
				mIJ    = bd.GetBlock(bi, bj)
			)
			for ii := 0; ii < nxDofs; ii++ {
				var (
					iGID    = biGIDs[ii]
					valRowi = mIJ.Row(ii)
				)
				for jj := 0; jj < nxDofs; jj++ {
					mab.RowGIDs[bufsize] = iGID
					mab.ColGIDs[bufsize] = bjGIDs[jj]
					mab.Values[bufsize] = valRowi[jj]
					bufsize++
				}
			}
		}
	}
	if bufsize > 0 {
		mav.AddG(bufsize, mab.RowGIDs, mab.ColGIDs, mab.Values)
	}
}
