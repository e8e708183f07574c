package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gocdo/parallel"
	"github.com/notargets/gocdo/utils"
)

func TestAdjacency(t *testing.T) {
	{ // Closed triangle of 3 entities, each adjacent to the other two
		a := NewAdjacency(3,
			utils.Index{0, 2, 4, 6},
			utils.Index{1, 2, 0, 2, 0, 1})
		assert.Equal(t, 2, a.MaxDegree())
		assert.Equal(t, utils.Index{1, 2}, a.Neighbors(0))
	}
	{ // Self entries are rejected
		assert.Panics(t, func() {
			NewAdjacency(2, utils.Index{0, 1, 2}, utils.Index{0, 0})
		})
	}
	{ // Decreasing offsets are rejected
		a := &Adjacency{N: 2, Idx: utils.Index{0, 2, 1}, IDs: utils.Index{1, 0}}
		assert.NotNil(t, a.Validate())
	}
}

func TestVertexToVertex(t *testing.T) {
	// Two triangles sharing edge 1-2: [0,1,2] and [1,3,2]
	EToV := [][]int{{0, 1, 2}, {1, 3, 2}}
	v2v := VertexToVertex(4, EToV)
	assert.Equal(t, utils.Index{1, 2}, v2v.Neighbors(0))
	assert.Equal(t, utils.Index{0, 2, 3}, v2v.Neighbors(1))
	assert.Equal(t, utils.Index{0, 1, 3}, v2v.Neighbors(2))
	assert.Equal(t, utils.Index{1, 2}, v2v.Neighbors(3))
}

func TestElementToElement(t *testing.T) {
	EToV := [][3]int{{0, 1, 2}, {1, 3, 2}, {3, 4, 2}}
	e2e := ElementToElement(EToV)
	assert.Equal(t, utils.Index{1}, e2e.Neighbors(0))
	assert.Equal(t, utils.Index{0, 2}, e2e.Neighbors(1))
	assert.Equal(t, utils.Index{1}, e2e.Neighbors(2))
}

func TestRangeSet(t *testing.T) {
	{ // Serial identity numbering
		rs := NewSerialRangeSet(5)
		assert.Equal(t, 5, rs.NOwned())
		assert.True(t, rs.Owns(4))
		assert.False(t, rs.Owns(5))
		assert.Equal(t, 0, rs.Owner(3))
	}
	{ // Expand to 3 dofs per entity keeps entity dofs contiguous
		rs := NewSerialRangeSet(4)
		dofRS := rs.Expand(3)
		assert.Equal(t, 12, dofRS.N)
		assert.Equal(t, int64(6), dofRS.GID[6]) // entity 2, component 0
		assert.Equal(t, int64(7), dofRS.GID[7])
		assert.Equal(t, [2]int64{0, 12}, dofRS.LRange)
	}
	{ // Gather is a pass-through reorder in serial
		rs := NewSerialRangeSet(3)
		x := []float64{1, 2, 3}
		out := rs.Gather(1, x)
		assert.Equal(t, []float64{1, 2, 3}, out)
	}
}

func TestDecomposeTwoRanks(t *testing.T) {
	/*
		Four triangles over a 2x1 strip of 6 vertices:

		  3---4---5
		  | \ | \ |
		  0---1---2

		Elements 0,1 go to rank 0 and 2,3 to rank 1; vertices 1 and 4 sit on
		the partition boundary.
	*/
	EToV := [][3]int{{0, 1, 3}, {1, 4, 3}, {1, 2, 4}, {2, 5, 4}}
	d, err := DecomposeWithParts(EToV, 6, 2, []int32{0, 0, 1, 1})
	assert.Nil(t, err)

	p0, p1 := d.Parts[0], d.Parts[1]
	assert.Equal(t, 2, len(p0.EToV))
	assert.Equal(t, 2, len(p1.EToV))
	assert.Equal(t, 4, p0.NVerts) // 0,1,3,4
	assert.Equal(t, 4, p1.NVerts) // 1,2,4,5

	// Rank 0 owns all its vertices, rank 1 owns only 2 and 5
	assert.Equal(t, 4, p0.RS.NOwned())
	assert.Equal(t, 2, p1.RS.NOwned())
	assert.Equal(t, int64(6), p0.RS.AllRanges[1][1])

	// The shared vertices appear in both interface target lists
	assert.Equal(t, 2, len(p0.RS.Ifs.Targets[1]))
	assert.Equal(t, 2, len(p1.RS.Ifs.Targets[0]))

	// Interface sum: both ranks contribute 1.0 at each shared vertex; the
	// reconciled value is 2.0 at shared vertices, 1.0 elsewhere
	results := make([][]float64, 2)
	d.Group.Run(func(c *parallel.Comm) {
		p := d.Parts[c.MyRank]
		b := make([]float64, p.NVerts)
		for i := range b {
			b[i] = 1.0
		}
		p.RS.Ifs.Sum(p.RS, 1, true, b)
		results[c.MyRank] = b
	})
	for rank := 0; rank < 2; rank++ {
		p := d.Parts[rank]
		for local, v := range p.VertGlob {
			if v == 1 || v == 4 {
				assert.Equal(t, 2.0, results[rank][local])
			} else {
				assert.Equal(t, 1.0, results[rank][local])
			}
		}
	}

	// Gather compacts each rank's scatter array to its owned block
	d.Group.Run(func(c *parallel.Comm) {
		p := d.Parts[c.MyRank]
		x := make([]float64, p.NVerts)
		for i, gid := range p.RS.GID {
			x[i] = float64(gid)
		}
		out := p.RS.Gather(1, x)
		assert.Equal(t, p.RS.NOwned(), len(out))
		for row, val := range out {
			assert.Equal(t, float64(p.RS.LRange[0]+int64(row)), val)
		}
	})
}
