package assemble

import (
	"fmt"

	"github.com/notargets/gocdo/connect"
)

type BalanceLocation uint8

const (
	BalanceAtVertices BalanceLocation = iota
	BalanceAtCells
)

const nBalanceTerms = 7

/*
Balance accumulates the per-entity terms of an equation budget: the total
plus one segment per physical contribution, all stored as equal-length
slices of a single backing array so the whole set resets and synchronizes in
one operation.
*/
type Balance struct {
	Location BalanceLocation
	Size     int

	backing   []float64
	Total     []float64
	Unsteady  []float64
	Reaction  []float64
	Diffusion []float64
	Advection []float64
	Source    []float64
	Boundary  []float64
}

func NewBalance(location BalanceLocation, size int) (b *Balance) {
	if location != BalanceAtVertices && location != BalanceAtCells {
		panic(fmt.Errorf("invalid balance location %d", location))
	}
	b = &Balance{
		Location: location,
		Size:     size,
		backing:  make([]float64, nBalanceTerms*size),
	}
	b.Total = b.backing[:size]
	b.Unsteady = b.backing[size : 2*size]
	b.Reaction = b.backing[2*size : 3*size]
	b.Diffusion = b.backing[3*size : 4*size]
	b.Advection = b.backing[4*size : 5*size]
	b.Source = b.backing[5*size : 6*size]
	b.Boundary = b.backing[6*size : 7*size]
	return
}

func (b *Balance) Reset() {
	for i := range b.backing {
		b.backing[i] = 0
	}
}

/*
Sync sums every term at entities shared between ranks. Only vertex-located
balances carry shared entities; a cell belongs to exactly one rank, so the
cell location is always a no-op.
*/
func (b *Balance) Sync(rs *connect.RangeSet) {
	if rs.Comm.NP() < 2 {
		return
	}
	if b.Location != BalanceAtVertices {
		return
	}
	if b.Size != rs.N {
		panic(fmt.Errorf("balance covers %d entities, range set has %d", b.Size, rs.N))
	}
	// One stride per kind of term, block layout over the backing array
	rs.Ifs.Sum(rs, nBalanceTerms, false, b.backing)
}
