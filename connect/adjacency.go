package connect

import (
	"fmt"
	"sort"

	"github.com/notargets/gocdo/utils"
)

/*
Adjacency is an entity-to-entity graph in compressed sparse row form. The
neighbors of entity i are IDs[Idx[i]:Idx[i+1]]. Self entries are never
stored - the diagonal is implicit everywhere this graph is consumed.
*/
type Adjacency struct {
	N   int
	Idx utils.Index
	IDs utils.Index
}

func NewAdjacency(n int, idx, ids utils.Index) (a *Adjacency) {
	a = &Adjacency{
		N:   n,
		Idx: idx,
		IDs: ids,
	}
	if err := a.Validate(); err != nil {
		panic(err)
	}
	return
}

func (a *Adjacency) Validate() error {
	if len(a.Idx) != a.N+1 {
		return fmt.Errorf("offset array has length %d, expected %d", len(a.Idx), a.N+1)
	}
	if a.Idx[0] != 0 || a.Idx[a.N] != len(a.IDs) {
		return fmt.Errorf("offset array does not span the neighbor array")
	}
	for i := 0; i < a.N; i++ {
		if a.Idx[i+1] < a.Idx[i] {
			return fmt.Errorf("offsets decrease at entity %d", i)
		}
		for _, nbr := range a.IDs[a.Idx[i]:a.Idx[i+1]] {
			if nbr < 0 || nbr >= a.N {
				return fmt.Errorf("entity %d has out of range neighbor %d", i, nbr)
			}
			if nbr == i {
				return fmt.Errorf("entity %d stores a self entry", i)
			}
		}
	}
	return nil
}

func (a *Adjacency) Degree(i int) int {
	return a.Idx[i+1] - a.Idx[i]
}

func (a *Adjacency) Neighbors(i int) utils.Index {
	return a.IDs[a.Idx[i]:a.Idx[i+1]]
}

func (a *Adjacency) MaxDegree() (max int) {
	for i := 0; i < a.N; i++ {
		if d := a.Degree(i); d > max {
			max = d
		}
	}
	return
}

// VertexToVertex builds the vertex neighbor graph from an element-to-vertex
// table: two vertices are adjacent when they appear in the same element
func VertexToVertex(nVerts int, EToV [][]int) (a *Adjacency) {
	nbrs := make([]map[int]struct{}, nVerts)
	for v := range nbrs {
		nbrs[v] = make(map[int]struct{})
	}
	for _, verts := range EToV {
		for _, v1 := range verts {
			for _, v2 := range verts {
				if v1 != v2 {
					nbrs[v1][v2] = struct{}{}
				}
			}
		}
	}
	var (
		idx = utils.NewIndex(nVerts + 1)
		ids utils.Index
	)
	for v := 0; v < nVerts; v++ {
		row := make(utils.Index, 0, len(nbrs[v]))
		for nbr := range nbrs[v] {
			row = append(row, nbr)
		}
		sort.Ints(row)
		ids = append(ids, row...)
		idx[v+1] = len(ids)
	}
	return NewAdjacency(nVerts, idx, ids)
}

// ElementToElement builds the triangle neighbor graph: two triangles are
// adjacent when they share an edge
func ElementToElement(EToV [][3]int) (a *Adjacency) {
	type edge [2]int
	var (
		K       = len(EToV)
		edgeMap = make(map[edge][]int)
	)
	mkEdge := func(v1, v2 int) edge {
		if v1 > v2 {
			v1, v2 = v2, v1
		}
		return edge{v1, v2}
	}
	for k, verts := range EToV {
		for n := 0; n < 3; n++ {
			e := mkEdge(verts[n], verts[(n+1)%3])
			edgeMap[e] = append(edgeMap[e], k)
		}
	}
	nbrs := make([]map[int]struct{}, K)
	for k := range nbrs {
		nbrs[k] = make(map[int]struct{})
	}
	for _, tris := range edgeMap {
		if len(tris) == 2 {
			nbrs[tris[0]][tris[1]] = struct{}{}
			nbrs[tris[1]][tris[0]] = struct{}{}
		}
	}
	var (
		idx = utils.NewIndex(K + 1)
		ids utils.Index
	)
	for k := 0; k < K; k++ {
		row := make(utils.Index, 0, len(nbrs[k]))
		for nbr := range nbrs[k] {
			row = append(row, nbr)
		}
		sort.Ints(row)
		ids = append(ids, row...)
		idx[k+1] = len(ids)
	}
	return NewAdjacency(K, idx, ids)
}
