package connect

import (
	"fmt"

	"github.com/notargets/gocdo/parallel"
	"github.com/notargets/gocdo/utils"
)

/*
RangeSet maps each local ("scatter") entity index to a globally unique,
rank-ordered id. Every rank owns one contiguous global block LRange; entities
whose gid falls outside LRange live on this rank only as duplicated partition
boundary copies, and their owning rank is found through AllRanges.
*/
type RangeSet struct {
	N         int        // number of local (scatter ordered) entities
	GID       []int64    // local index -> global id
	LRange    [2]int64   // the contiguous global block owned by this rank
	AllRanges [][2]int64 // owned blocks of every rank, indexed by rank
	Ifs       *InterfaceSet
	Comm      *parallel.Comm
}

// NewSerialRangeSet is the single rank identity numbering
func NewSerialRangeSet(n int) (rs *RangeSet) {
	rs = &RangeSet{
		N:         n,
		GID:       make([]int64, n),
		LRange:    [2]int64{0, int64(n)},
		AllRanges: [][2]int64{{0, int64(n)}},
	}
	for i := range rs.GID {
		rs.GID[i] = int64(i)
	}
	return
}

func (rs *RangeSet) NOwned() int {
	return int(rs.LRange[1] - rs.LRange[0])
}

func (rs *RangeSet) Owns(gid int64) bool {
	return gid >= rs.LRange[0] && gid < rs.LRange[1]
}

// Owner returns the rank whose contiguous block contains gid
func (rs *RangeSet) Owner(gid int64) int {
	for rank, rng := range rs.AllRanges {
		if gid >= rng[0] && gid < rng[1] {
			return rank
		}
	}
	panic(fmt.Errorf("global id %d is outside every rank's range", gid))
}

/*
Expand produces the dof-level numbering for stride dofs per entity: the dofs
of entity i are globally contiguous at GID[i]*stride. The interface set and
communicator are shared with the entity-level set.
*/
func (rs *RangeSet) Expand(stride int) (dofRS *RangeSet) {
	if stride < 1 {
		panic("stride must be at least 1")
	}
	dofRS = &RangeSet{
		N:         rs.N * stride,
		GID:       make([]int64, rs.N*stride),
		LRange:    [2]int64{rs.LRange[0] * int64(stride), rs.LRange[1] * int64(stride)},
		AllRanges: make([][2]int64, len(rs.AllRanges)),
		Ifs:       rs.Ifs,
		Comm:      rs.Comm,
	}
	for rank, rng := range rs.AllRanges {
		dofRS.AllRanges[rank] = [2]int64{rng[0] * int64(stride), rng[1] * int64(stride)}
	}
	for i := 0; i < rs.N; i++ {
		for k := 0; k < stride; k++ {
			dofRS.GID[i*stride+k] = rs.GID[i]*int64(stride) + int64(k)
		}
	}
	return
}

/*
Gather compacts a scatter-ordered array (stride values per local entity,
duplicated at partition boundaries) into the gather ordering (stride values
per owned row), in place. The returned slice aliases the front of x.
*/
func (rs *RangeSet) Gather(stride int, x []float64) (out []float64) {
	var (
		nOwned = rs.NOwned()
	)
	if len(x) < rs.N*stride {
		panic(fmt.Errorf("scatter array too short: len = %d, need %d", len(x), rs.N*stride))
	}
	tmp := make([]float64, nOwned*stride)
	for i := 0; i < rs.N; i++ {
		gid := rs.GID[i]
		if !rs.Owns(gid) {
			continue
		}
		row := int(gid - rs.LRange[0])
		copy(tmp[row*stride:(row+1)*stride], x[i*stride:(i+1)*stride])
	}
	out = x[:nOwned*stride]
	copy(out, tmp)
	return
}

/*
InterfaceSet lists the local entities duplicated on other ranks. Targets[j]
holds the local indices of entities also present on rank j; glook resolves a
global id received from a peer back to a local index.
*/
type InterfaceSet struct {
	Targets []utils.Index // per rank, local indices shared with that rank
	glook   map[int64]int // global id -> local index
}

func NewInterfaceSet(gidOfLocal []int64, targets []utils.Index) (ifs *InterfaceSet) {
	ifs = &InterfaceSet{
		Targets: targets,
		glook:   make(map[int64]int),
	}
	for local, gid := range gidOfLocal {
		ifs.glook[gid] = local
	}
	return
}

type ifaceMsg struct {
	GID  int64
	Vals []float64
}

/*
Sum adds the contributions of all sharing ranks at every shared entity. Each
rank computes boundary values redundantly during local assembly; the result
at a shared entity is the sum over all sharers, never an overwrite. With
interleaved layout component k of entity i sits at v[i*stride+k]; with block
layout it sits at v[k*size+i] where size = len(v)/stride.
*/
func (ifs *InterfaceSet) Sum(rs *RangeSet, stride int, interleaved bool, v []float64) {
	var (
		c = rs.Comm
	)
	if c.NP() < 2 {
		return
	}
	size := len(v) / stride
	at := func(local, k int) int {
		if interleaved {
			return local*stride + k
		}
		return k*size + local
	}
	send := make([][]ifaceMsg, c.NP())
	for rank, locals := range ifs.Targets {
		if rank == c.MyRank || len(locals) == 0 {
			continue
		}
		for _, local := range locals {
			vals := make([]float64, stride)
			for k := 0; k < stride; k++ {
				vals[k] = v[at(local, k)]
			}
			send[rank] = append(send[rank], ifaceMsg{GID: rs.GID[local], Vals: vals})
		}
	}
	recv := parallel.Exchange(c, send)
	for rank, msgs := range recv {
		if rank == c.MyRank {
			continue
		}
		for _, msg := range msgs {
			local, ok := ifs.glook[msg.GID]
			if !ok {
				panic(fmt.Errorf("received interface value for unknown global id %d", msg.GID))
			}
			for k := 0; k < stride; k++ {
				v[at(local, k)] += msg.Vals[k]
			}
		}
	}
}
