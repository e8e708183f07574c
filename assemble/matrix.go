package assemble

import (
	"fmt"
	"sort"

	"github.com/notargets/gocdo/utils"
)

/*
MatrixStructure is the realized sparse pattern in separated-diagonal (MSR)
form: the diagonal has one implicit slot per owned row, off-diagonal columns
are stored sorted per row. It is compiled once per (entity family, dof
layout) case and reused for every assembly pass while the mesh is unchanged.
*/
type MatrixStructure struct {
	NRows    int         // owned (gather ordering) rows
	LRange   [2]int64    // global ids of the owned rows
	RowIndex utils.Index // len NRows+1, offsets into ColGID
	ColGID   []int64     // off-diagonal column global ids, sorted per row
}

// NNZ counts structural nonzeros including the diagonal
func (ms *MatrixStructure) NNZ() int {
	return ms.NRows + len(ms.ColGID)
}

// posOf locates gcol within row's off-diagonal entries
func (ms *MatrixStructure) posOf(row int, gcol int64) (pos int, ok bool) {
	var (
		start, end = ms.RowIndex[row], ms.RowIndex[row+1]
		cols       = ms.ColGID[start:end]
	)
	i := sort.Search(len(cols), func(i int) bool { return cols[i] >= gcol })
	if i < len(cols) && cols[i] == gcol {
		return start + i, true
	}
	return 0, false
}

/*
Matrix holds the numeric values over a compiled MatrixStructure. Values are
reset and re-accumulated every assembly pass; the structure is never
rebuilt.
*/
type Matrix struct {
	S    *MatrixStructure
	DVal []float64 // diagonal values
	XVal []float64 // off-diagonal values, parallel to S.ColGID
}

func NewMatrixFromStructure(ms *MatrixStructure) (m *Matrix) {
	m = &Matrix{
		S:    ms,
		DVal: make([]float64, ms.NRows),
		XVal: make([]float64, len(ms.ColGID)),
	}
	return
}

func (m *Matrix) Reset() {
	for i := range m.DVal {
		m.DVal[i] = 0
	}
	for i := range m.XVal {
		m.XVal[i] = 0
	}
}

// At reads the value at (owned local row, global column); zero off-pattern
func (m *Matrix) At(row int, gcol int64) float64 {
	if gcol == m.S.LRange[0]+int64(row) {
		return m.DVal[row]
	}
	if pos, ok := m.S.posOf(row, gcol); ok {
		return m.XVal[pos]
	}
	return 0
}

/*
MulVec computes b = A*x for a single rank matrix, where x is indexed by
global column id. Off-rank columns would need a halo exchange; that path
belongs to the linear solver layer, so multi-rank use is rejected here.
*/
func (m *Matrix) MulVec(x []float64) (b []float64) {
	if m.S.LRange[0] != 0 || len(x) < m.S.NRows {
		panic(fmt.Errorf("MulVec requires a single rank matrix and a full-length x"))
	}
	b = make([]float64, m.S.NRows)
	for row := 0; row < m.S.NRows; row++ {
		sum := m.DVal[row] * x[row]
		for pos := m.S.RowIndex[row]; pos < m.S.RowIndex[row+1]; pos++ {
			sum += m.XVal[pos] * x[m.S.ColGID[pos]]
		}
		b[row] = sum
	}
	return
}

// ToCSR folds the separated diagonal back into a conventional CSR matrix
// for consumption by an external solver (single rank export)
func (m *Matrix) ToCSR() (R utils.CSR) {
	var (
		n    = m.S.NRows
		ia   = make([]int, n+1)
		ja   = make([]int, 0, m.S.NNZ())
		data = make([]float64, 0, m.S.NNZ())
	)
	if m.S.LRange[0] != 0 {
		panic("CSR export uses global columns as local: single rank only")
	}
	for row := 0; row < n; row++ {
		diagDone := false
		grow := int64(row)
		for pos := m.S.RowIndex[row]; pos < m.S.RowIndex[row+1]; pos++ {
			gcol := m.S.ColGID[pos]
			if !diagDone && gcol > grow {
				ja = append(ja, row)
				data = append(data, m.DVal[row])
				diagDone = true
			}
			ja = append(ja, int(gcol))
			data = append(data, m.XVal[pos])
		}
		if !diagDone {
			ja = append(ja, row)
			data = append(data, m.DVal[row])
		}
		ia[row+1] = len(ja)
	}
	R = utils.NewCSRFromArrays(n, n, ia, ja, data)
	return
}
