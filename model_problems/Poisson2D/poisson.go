package Poisson2D

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/notargets/gocdo/assemble"
	"github.com/notargets/gocdo/connect"
	"github.com/notargets/gocdo/field"
	"github.com/notargets/gocdo/geometry2D"
	"github.com/notargets/gocdo/utils"
)

/*
The Poisson problem on the unit square:
				-∇²u = f   in (0,1)x(0,1)
				   u = g   on the boundary

discretized with linear (P1) triangle elements. For a triangle with
vertices (x1,y1), (x2,y2), (x3,y3) and area A, the shape function
gradients are constant:
				∇N_i = (b_i, c_i) / (2A)
				b_i = y_j - y_k,  c_i = x_k - x_j  (i,j,k cyclic)

which gives the element stiffness matrix
				K_ij = (b_i*b_j + c_i*c_j) / (4A)

and a lumped load vector f(centroid)*A/3 per vertex. Each element produces
one small dense cellwise system; boundary values are enforced algebraically
on the cellwise system before it is folded into the global matrix.
*/
type Poisson2D struct {
	Mesh *geometry2D.TriMesh
	RS   *connect.RangeSet
	Reg  *assemble.StructureRegistry
	EqB  *assemble.EquationBuilder

	Source    field.Definition
	Dirichlet field.Definition

	// Set by Run
	M   *assemble.Matrix
	RHS []float64
	U   []float64
	NNZ uint64
}

func NewPoisson2D(nx, ny, nWorkers int, strategy assemble.AssemblyStrategy,
	source, dirichlet field.Definition) (p2d *Poisson2D) {
	var (
		tm  = geometry2D.NewUnitSquareMesh(nx, ny)
		t0  = time.Now()
		eqb = assemble.NewEquationBuilder()
	)
	p2d = &Poisson2D{
		Mesh:      tm,
		RS:        connect.NewSerialRangeSet(tm.NVerts),
		EqB:       eqb,
		Source:    source,
		Dirichlet: dirichlet,
	}
	etov := make([][]int, tm.K)
	for k := 0; k < tm.K; k++ {
		etov[k] = []int{tm.EToV[k][0], tm.EToV[k][1], tm.EToV[k][2]}
	}
	v2v := connect.VertexToVertex(tm.NVerts, etov)
	p2d.Reg = assemble.NewStructureRegistry(v2v, p2d.RS, assemble.RegistryConfig{
		NWorkers:           nWorkers,
		MaxEntitiesPerCell: 3,
		ScalarVtx:          true,
		Strategy:           strategy,
	})
	eqb.DiffusionActive = true
	eqb.SourceActive = source != nil
	eqb.Tcb.AddSince(t0)
	return
}

/*
Run assembles and solves the global system. Elements are split across the
registry's workers; each worker owns its assembly buffer and accumulates
its share of the right-hand side locally before merging.
*/
func (p2d *Poisson2D) Run() (err error) {
	var (
		tm     = p2d.Mesh
		rs     = p2d.RS
		nVerts = tm.NVerts
		t0     = time.Now()
	)
	m, va := p2d.Reg.NewValuesAssembler(assemble.VtxScalar)

	// Imposed boundary values, indexed by position in BCVerts
	var (
		forcedVals = make([]float64, len(tm.BCVerts))
		forcedIdx  = make(map[int]int, len(tm.BCVerts))
	)
	for i, v := range tm.BCVerts {
		forcedIdx[v] = i
		if p2d.Dirichlet != nil {
			forcedVals[i] = p2d.Dirichlet.Evaluate(0, tm.VX[v], tm.VY[v])
		}
	}

	var (
		b  = make([]float64, nVerts)
		pm = utils.NewPartitionMap(p2d.Reg.NWorkers, tm.K)
		mu sync.Mutex
		wg sync.WaitGroup
	)
	wg.Add(p2d.Reg.NWorkers)
	for tid := 0; tid < p2d.Reg.NWorkers; tid++ {
		go func(tid int) {
			defer wg.Done()
			var (
				kMin, kMax = pm.GetBucketRange(tid)
				mab        = p2d.Reg.Pool.Get(tid)
				bLoc       = make([]float64, nVerts)
				work       = make([]float64, 6)
				csys       = &assemble.CellSystem{
					NDofs:  3,
					DofIDs: make(utils.Index, 3),
					Mat:    utils.NewMatrix(3, 3),
					RHS:    make([]float64, 3),
				}
			)
			for k := kMin; k < kMax; k++ {
				p2d.cellSystem(k, csys, forcedIdx)
				assemble.EnforceInternalDofs(forcedVals, csys, work)
				assemble.AssembleCellSystem(csys, rs, mab, va)
				for i := 0; i < 3; i++ {
					bLoc[csys.DofIDs[i]] += csys.RHS[i]
				}
			}
			mu.Lock()
			for i, v := range bLoc {
				b[i] += v
			}
			mu.Unlock()
		}(tid)
	}
	wg.Wait()
	va.Finalize(rs)
	p2d.EqB.Tcd.AddSince(t0)

	t0 = time.Now()
	x := make([]float64, nVerts)
	p2d.NNZ = assemble.PrepareSystem(1, nVerts, m, rs, x, b)
	p2d.M, p2d.RHS = m, b

	// Dense direct solve, adequate at model problem sizes
	A := m.ToCSR().ToDense()
	if p2d.U, err = A.LUSolve(b); err != nil {
		err = fmt.Errorf("direct solve failed: %v", err)
		return
	}
	p2d.EqB.Tce.AddSince(t0)
	return
}

/*
cellSystem fills csys with the P1 stiffness and lumped load of element k.
The stiffness rows that belong to boundary vertices are tagged for
enforcement through ForcedIDs.
*/
func (p2d *Poisson2D) cellSystem(k int, csys *assemble.CellSystem, forcedIdx map[int]int) {
	var (
		tm  = p2d.Mesh
		tri = tm.EToV[k]
		x1  = tm.VX[tri[0]]
		y1  = tm.VY[tri[0]]
		x2  = tm.VX[tri[1]]
		y2  = tm.VY[tri[1]]
		x3  = tm.VX[tri[2]]
		y3  = tm.VY[tri[2]]
		a2  = tm.Area2(k)
		bb  = [3]float64{y2 - y3, y3 - y1, y1 - y2}
		cc  = [3]float64{x3 - x2, x1 - x3, x2 - x1}
	)
	if a2 <= 0 {
		panic(fmt.Errorf("element %d is degenerate or inverted", k))
	}
	for i := 0; i < 3; i++ {
		csys.DofIDs[i] = tri[i]
		for j := 0; j < 3; j++ {
			csys.Mat.Set(i, j, (bb[i]*bb[j]+cc[i]*cc[j])/(2*a2))
		}
	}

	// Lumped source, one third of the centroid value times the area
	var fc float64
	if p2d.Source != nil {
		fc = p2d.Source.Evaluate(0, (x1+x2+x3)/3, (y1+y2+y3)/3)
	}
	for i := 0; i < 3; i++ {
		csys.RHS[i] = fc * a2 / 6
	}

	csys.ForcedIDs = csys.ForcedIDs[:0]
	var anyForced bool
	for i := 0; i < 3; i++ {
		fi, forced := forcedIdx[tri[i]]
		if !forced {
			fi = -1
		} else {
			anyForced = true
		}
		csys.ForcedIDs = append(csys.ForcedIDs, fi)
	}
	if !anyForced {
		csys.ForcedIDs = nil
	}
}

// L2Error compares the solve against an exact solution on the vertices
func (p2d *Poisson2D) L2Error(exact func(x, y float64) float64) (l2 float64) {
	if p2d.U == nil {
		panic("error norm requested before the solve")
	}
	for v := 0; v < p2d.Mesh.NVerts; v++ {
		d := p2d.U[v] - exact(p2d.Mesh.VX[v], p2d.Mesh.VY[v])
		l2 += d * d
	}
	l2 = math.Sqrt(l2 / float64(p2d.Mesh.NVerts))
	return
}
