package connect

import (
	"fmt"
	"log"
	"sort"

	metis "github.com/notargets/go-metis"
	"github.com/notargets/gocdo/parallel"
	"github.com/notargets/gocdo/utils"
)

/*
Partition is one rank's share of a triangulated mesh: the elements assigned
to the rank plus every vertex those elements touch. Vertices on the
partition boundary appear on more than one rank; their dof contributions are
reconciled through the RangeSet's interface set.
*/
type Partition struct {
	Rank      int
	EToV      [][3]int    // local vertex indices
	VertGlob  utils.Index // local vertex -> vertex index of the undecomposed mesh
	NVerts    int
	V2V       *Adjacency
	RS        *RangeSet
	ElemsGlob utils.Index // local element -> element index of the undecomposed mesh
}

type Decomposition struct {
	NP    int
	Parts []*Partition
	Group *parallel.RankGroup
}

/*
Decompose splits a triangle mesh over NP ranks. Elements are assigned by
METIS k-way partitioning of the element graph (single rank bypasses METIS);
a shared vertex is owned by the lowest rank holding it, and the global
vertex numbering is rebuilt so every rank owns one contiguous block.
*/
func Decompose(EToV [][3]int, nVerts, NP int) (d *Decomposition, err error) {
	var (
		K    = len(EToV)
		part []int32
	)
	if NP < 1 {
		return nil, fmt.Errorf("invalid rank count %d", NP)
	}
	if NP == 1 {
		part = make([]int32, K)
	} else {
		if part, err = partitionElements(EToV, NP); err != nil {
			return nil, err
		}
	}
	return DecomposeWithParts(EToV, nVerts, NP, part)
}

// DecomposeWithParts builds the rank-local structures from an explicit
// element-to-rank assignment, bypassing METIS
func DecomposeWithParts(EToV [][3]int, nVerts, NP int, part []int32) (d *Decomposition, err error) {
	if len(part) != len(EToV) {
		return nil, fmt.Errorf("partition vector has length %d, expected %d", len(part), len(EToV))
	}
	// Ranks holding each vertex, owner is the lowest rank
	holders := make([][]int, nVerts)
	for k, verts := range EToV {
		rank := int(part[k])
		for _, v := range verts {
			if !utils.Index(holders[v]).Contains(rank) {
				holders[v] = append(holders[v], rank)
			}
		}
	}
	for v := range holders {
		sort.Ints(holders[v])
	}

	// Rebuild the global numbering: rank 0's owned vertices first, then
	// rank 1's, so each rank owns a contiguous block
	var (
		gidOfVert = make([]int64, nVerts)
		ranges    = make([][2]int64, NP)
		next      int64
	)
	for rank := 0; rank < NP; rank++ {
		ranges[rank][0] = next
		for v := 0; v < nVerts; v++ {
			if len(holders[v]) > 0 && holders[v][0] == rank {
				gidOfVert[v] = next
				next++
			}
		}
		ranges[rank][1] = next
	}

	d = &Decomposition{
		NP:    NP,
		Parts: make([]*Partition, NP),
		Group: parallel.NewRankGroup(NP),
	}
	for rank := 0; rank < NP; rank++ {
		d.Parts[rank] = buildPartition(rank, NP, EToV, part, holders, gidOfVert, ranges)
		if NP > 1 {
			d.Parts[rank].RS.Comm = d.Group.Comm(rank)
		}
	}
	return
}

func buildPartition(rank, NP int, EToV [][3]int, part []int32,
	holders [][]int, gidOfVert []int64, ranges [][2]int64) (p *Partition) {
	p = &Partition{Rank: rank}

	// Local vertex set: every vertex touched by an element of this rank
	vertLocal := make(map[int]int)
	for k, verts := range EToV {
		if int(part[k]) != rank {
			continue
		}
		p.ElemsGlob = append(p.ElemsGlob, k)
		var lv [3]int
		for n, v := range verts {
			local, seen := vertLocal[v]
			if !seen {
				local = len(p.VertGlob)
				vertLocal[v] = local
				p.VertGlob = append(p.VertGlob, v)
			}
			lv[n] = local
		}
		p.EToV = append(p.EToV, lv)
	}
	p.NVerts = len(p.VertGlob)

	// Local vertex graph and numbering
	eAsSlices := make([][]int, len(p.EToV))
	for k, verts := range p.EToV {
		eAsSlices[k] = verts[:]
	}
	p.V2V = VertexToVertex(p.NVerts, eAsSlices)

	rs := &RangeSet{
		N:         p.NVerts,
		GID:       make([]int64, p.NVerts),
		LRange:    ranges[rank],
		AllRanges: ranges,
	}
	targets := make([]utils.Index, NP)
	for local, v := range p.VertGlob {
		rs.GID[local] = gidOfVert[v]
		for _, other := range holders[v] {
			if other != rank {
				targets[other] = append(targets[other], local)
			}
		}
	}
	if NP > 1 {
		rs.Ifs = NewInterfaceSet(rs.GID, targets)
	}
	p.RS = rs
	return
}

func partitionElements(EToV [][3]int, NP int) (part []int32, err error) {
	var (
		e2e = ElementToElement(EToV)
	)
	log.Printf("Partitioning %d elements into %d ranks", len(EToV), NP)

	// CSR graph in METIS form
	xadj := make([]int32, e2e.N+1)
	adjncy := make([]int32, len(e2e.IDs))
	for i, off := range e2e.Idx {
		xadj[i] = int32(off)
	}
	for i, id := range e2e.IDs {
		adjncy[i] = int32(id)
	}

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	opts[metis.OptionObjType] = metis.ObjTypeCut

	ubvec := []float32{1.05}
	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, nil, nil,
		int32(NP), nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	log.Printf("Partition edge cut: %d", objval)
	return
}
