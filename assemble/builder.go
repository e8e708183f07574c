package assemble

import (
	"fmt"

	"github.com/notargets/gocdo/connect"
)

/*
BuildMatrixAssembler converts a local adjacency graph plus a global
numbering into a compiled assembler: for every entity i and neighbor j, the
pattern receives the full diagonal block {(gid(i,a), gid(i,b))} and one
block {(gid(i,a), gid(j,b))} per neighbor, for all components a,b in
[0, nDofsByX). The diagonal block is emitted first because self entries are
never stored in the adjacency. Each entity's full pair set goes to the
assembler in one batch.
*/
func BuildMatrixAssembler(nElts, nDofsByX int, x2x *connect.Adjacency, rs *connect.RangeSet) (ma *MatrixAssembler) {
	if rs == nil {
		panic("matrix build attempted before the global numbering is available")
	}
	if x2x.N != nElts {
		panic(fmt.Errorf("adjacency covers %d entities, expected %d", x2x.N, nElts))
	}
	ma = NewMatrixAssembler(rs, true) // separated diagonal -> MSR storage

	// Scratch sized to the worst-case entity: its own block plus one block
	// per neighbor
	var (
		bufSize = nDofsByX * nDofsByX * (x2x.MaxDegree() + 1)
		grows   = make([]int64, bufSize)
		gcols   = make([]int64, bufSize)
	)

	if nDofsByX == 1 { // Simplified version
		for rowID := 0; rowID < nElts; rowID++ {
			var (
				growID = rs.GID[rowID]
				nbrs   = x2x.Neighbors(rowID)
			)
			// Diagonal term is excluded in this connectivity: add it manually
			grows[0], gcols[0] = growID, growID

			// Extra diagonal couples
			for i, nbr := range nbrs {
				grows[i+1] = growID
				gcols[i+1] = rs.GID[nbr]
			}
			ma.AddGIDs(len(nbrs)+1, grows, gcols)
		}
	} else {
		for rowID := 0; rowID < nElts; rowID++ {
			var (
				nbrs     = x2x.Neighbors(rowID)
				nEntries = (len(nbrs) + 1) * nDofsByX * nDofsByX
				growIDs  = rs.GID[rowID*nDofsByX:]
				shift    int
			)
			// Diagonal term is excluded in this connectivity: add it manually
			for dofI := 0; dofI < nDofsByX; dofI++ {
				growID := growIDs[dofI]
				for dofJ := 0; dofJ < nDofsByX; dofJ++ {
					grows[shift] = growID
					gcols[shift] = growIDs[dofJ]
					shift++
				}
			}
			// Extra diagonal couples
			for _, colID := range nbrs {
				gcolIDs := rs.GID[colID*nDofsByX:]
				for dofI := 0; dofI < nDofsByX; dofI++ {
					growID := growIDs[dofI]
					for dofJ := 0; dofJ < nDofsByX; dofJ++ {
						grows[shift] = growID
						gcols[shift] = gcolIDs[dofJ]
						shift++
					}
				}
			}
			if shift != nEntries {
				panic(fmt.Errorf("entity %d emitted %d pairs, expected %d", rowID, shift, nEntries))
			}
			ma.AddGIDs(nEntries, grows, gcols)
		}
	}

	ma.Compute()
	return
}

/*
FamilyCase identifies one (entity family, dof layout) combination tracked by
the registry. The vertex-based cases cover scalar and vector unknowns; more
cases follow the same pattern when higher-order face-based layouts are
added.
*/
type FamilyCase int

const (
	VtxScalar FamilyCase = iota
	VtxVector
	nFamilyCases
)

/*
RegistryConfig sizes the shared assembly resources. MaxEntitiesPerCell is
the largest number of dof-carrying entities a single cellwise system can
touch (3 for linear triangles); the worst-case local dense block and the
per-thread buffers derive from it.
*/
type RegistryConfig struct {
	NWorkers           int
	MaxEntitiesPerCell int
	ScalarVtx          bool
	VectorVtx          bool
	Strategy           AssemblyStrategy
}

/*
StructureRegistry is the explicit discretization context replacing the
module-level statics of a global solver state: it owns one assembler and one
compiled structure per active family case, the shared work buffer, and the
per-worker assembly buffer pool. Created once per solve setup and threaded
through every assembly call.
*/
type StructureRegistry struct {
	MA       [nFamilyCases]*MatrixAssembler
	MS       [nFamilyCases]*MatrixStructure
	Pool     *BufferPool
	Strategy AssemblyStrategy
	NWorkers int

	workBuffer []float64
}

func NewStructureRegistry(v2v *connect.Adjacency, rs *connect.RangeSet, cfg RegistryConfig) (sr *StructureRegistry) {
	if rs == nil {
		panic("registry setup attempted before the global numbering is available")
	}
	if cfg.NWorkers < 1 {
		cfg.NWorkers = 1
	}
	sr = &StructureRegistry{
		Strategy: cfg.Strategy,
		NWorkers: cfg.NWorkers,
	}

	var (
		nVerts        = v2v.N
		vbSysMax      = cfg.MaxEntitiesPerCell * cfg.MaxEntitiesPerCell
		cwbSize       = nVerts
		locAssembler  int
		assemblerDofs int
	)

	if cfg.ScalarVtx {
		sr.MA[VtxScalar] = BuildMatrixAssembler(nVerts, 1, v2v, rs)
		sr.MS[VtxScalar] = sr.MA[VtxScalar].S
		if vbSysMax > locAssembler {
			locAssembler = vbSysMax
		}
		if cfg.MaxEntitiesPerCell > assemblerDofs {
			assemblerDofs = cfg.MaxEntitiesPerCell
		}
	}
	if cfg.VectorVtx {
		rsVect := rs.Expand(3)
		sr.MA[VtxVector] = BuildMatrixAssembler(nVerts, 3, v2v, rsVect)
		sr.MS[VtxVector] = sr.MA[VtxVector].S
		if 9*vbSysMax > locAssembler {
			locAssembler = 9 * vbSysMax
		}
		if 3*cfg.MaxEntitiesPerCell > assemblerDofs {
			assemblerDofs = 3 * cfg.MaxEntitiesPerCell
		}
		if 3*nVerts > cwbSize {
			cwbSize = 3 * nVerts
		}
	}

	// One buffer set per worker, sized to the max over every active family
	// so the same buffers serve all of them
	sr.Pool = NewBufferPool(cfg.NWorkers, assemblerDofs, locAssembler)
	sr.workBuffer = make([]float64, 2*cwbSize)
	return
}

// Structure returns the compiled structure for a case, nil when inactive
func (sr *StructureRegistry) Structure(fc FamilyCase) *MatrixStructure {
	if fc < 0 || fc >= nFamilyCases {
		return nil
	}
	return sr.MS[fc]
}

// NewValuesAssembler starts one value-accumulation pass over a fresh matrix
// for the given family case
func (sr *StructureRegistry) NewValuesAssembler(fc FamilyCase) (m *Matrix, va *ValuesAssembler) {
	ms := sr.Structure(fc)
	if ms == nil {
		panic(fmt.Errorf("family case %d was not activated at setup", fc))
	}
	m = NewMatrixFromStructure(ms)
	va = NewValuesAssembler(m, sr.Strategy, sr.NWorkers)
	return
}

// TmpBuf exposes the shared scratch buffer (at least twice the cellwise
// buffer size established at setup)
func (sr *StructureRegistry) TmpBuf() []float64 {
	return sr.workBuffer
}
