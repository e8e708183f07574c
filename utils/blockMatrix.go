package utils

import (
	"bytes"
	"fmt"
)

type BlockMatrix struct {
	M      [][]Matrix // First slice points to rows of matrices - Note, the Matrix type allows for scalar matrices
	Nr, Nc int        // number of rows, columns in the block matrix, each cell holds a sub-matrix
}

func NewBlockMatrix(Nr, Nc int) (R BlockMatrix) {
	R = BlockMatrix{
		Nr: Nr,
		Nc: Nc,
	}
	R.M = make([][]Matrix, Nr)
	for n := range R.M {
		R.M[n] = make([]Matrix, Nc)
	}
	return R
}

func (bm BlockMatrix) GetBlock(i, j int) Matrix {
	return bm.M[i][j]
}

// Flatten composes the dense equivalent of the block matrix, assuming every
// sub-matrix is square with the same dimension
func (bm BlockMatrix) Flatten() (R Matrix) {
	var (
		bs, _ = bm.M[0][0].Dims()
	)
	R = NewMatrix(bm.Nr*bs, bm.Nc*bs)
	for i := 0; i < bm.Nr; i++ {
		for j := 0; j < bm.Nc; j++ {
			sub := bm.M[i][j]
			nr, nc := sub.Dims()
			if nr != bs || nc != bs {
				panic(fmt.Errorf("non-uniform block size at [%d][%d]: %dx%d, expected %dx%d",
					i, j, nr, nc, bs, bs))
			}
			for ii := 0; ii < bs; ii++ {
				for jj := 0; jj < bs; jj++ {
					R.Set(i*bs+ii, j*bs+jj, sub.At(ii, jj))
				}
			}
		}
	}
	return
}

func (bm BlockMatrix) Copy() (R BlockMatrix) {
	R = NewBlockMatrix(bm.Nr, bm.Nc)
	for i := 0; i < bm.Nr; i++ {
		for j := 0; j < bm.Nc; j++ {
			R.M[i][j] = bm.M[i][j].Copy()
		}
	}
	return
}

func (bm BlockMatrix) String() string {
	var (
		buf = &bytes.Buffer{}
	)
	for i := 0; i < bm.Nr; i++ {
		for j := 0; j < bm.Nc; j++ {
			fmt.Fprintf(buf, "M[%d][%d] = %s\n", i, j, bm.M[i][j].String())
		}
	}
	return buf.String()
}
