/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/notargets/gocdo/assemble"
	"github.com/notargets/gocdo/connect"
	"github.com/notargets/gocdo/geometry2D"
	"github.com/notargets/gocdo/parallel"
	"github.com/notargets/gocdo/quality"
	"github.com/notargets/gocdo/renumber"
	"github.com/notargets/gocdo/utils"

	"github.com/spf13/cobra"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition the unit square mesh and report the distributed assembly layout",
	Long: `Partition the unit square mesh across ranks, assemble the vertex
connectivity structure on each rank and report the distributed layout:
per rank element and vertex counts, the collective nonzero count and the
independent edge groups available for conflict free threading.`,
	Run: func(cmd *cobra.Command, args []string) {
		nx, _ := cmd.Flags().GetInt("nx")
		ny, _ := cmd.Flags().GetInt("ny")
		np, _ := cmd.Flags().GetInt("numRanks")
		maxGroup, _ := cmd.Flags().GetInt("maxGroupSize")
		RunPartition(nx, ny, np, maxGroup)
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	PartitionCmd.Flags().IntP("nx", "x", 16, "mesh cells in x")
	PartitionCmd.Flags().IntP("ny", "y", 16, "mesh cells in y")
	PartitionCmd.Flags().IntP("numRanks", "n", 2, "number of ranks to partition across")
	PartitionCmd.Flags().IntP("maxGroupSize", "m", 256, "cap on independent edge group size")
}

func RunPartition(nx, ny, np, maxGroup int) {
	tm := geometry2D.NewUnitSquareMesh(nx, ny)
	fmt.Printf("mesh: %d elements, %d vertices\n", tm.K, tm.NVerts)

	// Mesh quality on the undecomposed mesh
	q := quality.TriangleShape(tm.VX, tm.VY, tm.EToV)
	h := quality.NewHistogram(q, nil)
	h.Display(os.Stdout, "triangle shape")

	// Independent edge groups, usable for lock free threading within a rank
	fg := independentEdgeGroups(tm, maxGroup)
	fmt.Printf("interior edges form %d independent groups", fg.NGroups())
	var largest int
	for _, gs := range fg.GroupSize {
		if gs > largest {
			largest = gs
		}
	}
	fmt.Printf(", largest holds %d edges\n", largest)

	d, err := connect.Decompose(tm.EToV, tm.NVerts, np)
	if err != nil {
		panic(err)
	}
	for rank := 0; rank < np; rank++ {
		p := d.Parts[rank]
		fmt.Printf("rank %d: %d elements, %d vertices (%d owned)\n",
			rank, len(p.EToV), p.NVerts, p.RS.NOwned())
	}

	// Assemble the vertex connectivity structure on every rank and report
	// the collective nonzero count
	var (
		nnzs = make([]uint64, np)
		mu   sync.Mutex
	)
	d.Group.Run(func(c *parallel.Comm) {
		var (
			rank   = c.MyRank
			p      = d.Parts[rank]
			ma     = assemble.BuildMatrixAssembler(p.NVerts, 1, p.V2V, p.RS)
			m      = assemble.NewMatrixFromStructure(ma.S)
			x      = make([]float64, p.NVerts)
			b      = make([]float64, p.NVerts)
			nnzLoc = assemble.PrepareSystem(1, p.NVerts, m, p.RS, x, b)
		)
		mu.Lock()
		nnzs[rank] = nnzLoc
		mu.Unlock()
	})
	fmt.Printf("collective structure holds %d nonzeros\n", nnzs[0])
}

/*
independentEdgeGroups treats every interior edge of the triangulation as a
face between its two elements and groups them so no two edges of a group
touch the same element.
*/
func independentEdgeGroups(tm *geometry2D.TriMesh, maxGroup int) *renumber.FaceGroups {
	e2e := connect.ElementToElement(tm.EToV)
	var faceCell utils.Index
	for k := 0; k < tm.K; k++ {
		for _, nb := range e2e.Neighbors(k) {
			if nb > k {
				faceCell = append(faceCell, k, nb)
			}
		}
	}
	nFaces := len(faceCell) / 2
	return renumber.IndependentGroups(maxGroup, tm.K, nFaces, faceCell)
}
