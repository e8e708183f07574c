package geometry2D

import (
	"fmt"

	"github.com/notargets/gocdo/utils"
)

/*
TriMesh is a 2D triangle mesh in the standard vertex coordinate plus
element to vertex form. Vertices are numbered row major, elements counter
clockwise.
*/
type TriMesh struct {
	K       int // Number of elements
	NVerts  int
	VX, VY  []float64
	EToV    [][3]int
	BCVerts utils.Index // vertices on the domain boundary, sorted
}

/*
NewUnitSquareMesh triangulates [0,1]x[0,1] on an nx by ny structured grid,
splitting each quad along its diagonal into two triangles. It produces
(nx+1)*(ny+1) vertices and 2*nx*ny elements.
*/
func NewUnitSquareMesh(nx, ny int) (tm *TriMesh) {
	if nx < 1 || ny < 1 {
		panic(fmt.Errorf("invalid mesh dimensions %dx%d", nx, ny))
	}
	var (
		nvx = nx + 1
		nvy = ny + 1
	)
	tm = &TriMesh{
		K:      2 * nx * ny,
		NVerts: nvx * nvy,
		VX:     make([]float64, nvx*nvy),
		VY:     make([]float64, nvx*nvy),
		EToV:   make([][3]int, 0, 2*nx*ny),
	}
	for j := 0; j < nvy; j++ {
		for i := 0; i < nvx; i++ {
			v := j*nvx + i
			tm.VX[v] = float64(i) / float64(nx)
			tm.VY[v] = float64(j) / float64(ny)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var (
				v00 = j*nvx + i
				v10 = v00 + 1
				v01 = v00 + nvx
				v11 = v01 + 1
			)
			tm.EToV = append(tm.EToV,
				[3]int{v00, v10, v11},
				[3]int{v00, v11, v01})
		}
	}
	for j := 0; j < nvy; j++ {
		for i := 0; i < nvx; i++ {
			if i == 0 || i == nx || j == 0 || j == ny {
				tm.BCVerts = append(tm.BCVerts, j*nvx+i)
			}
		}
	}
	return
}

// OnBoundary reports whether vertex v lies on the domain boundary
func (tm *TriMesh) OnBoundary(v int) bool {
	return tm.BCVerts.Contains(v)
}

// Area returns twice the signed area of element k
func (tm *TriMesh) Area2(k int) float64 {
	var (
		tri = tm.EToV[k]
		x1  = tm.VX[tri[1]] - tm.VX[tri[0]]
		y1  = tm.VY[tri[1]] - tm.VY[tri[0]]
		x2  = tm.VX[tri[2]] - tm.VX[tri[0]]
		y2  = tm.VY[tri[2]] - tm.VY[tri[0]]
	)
	return x1*y2 - x2*y1
}
