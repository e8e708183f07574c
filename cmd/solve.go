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
	"time"

	"github.com/notargets/gocdo/InputParameters"
	"github.com/notargets/gocdo/assemble"
	"github.com/notargets/gocdo/field"
	"github.com/notargets/gocdo/model_problems/Poisson2D"
	"github.com/notargets/gocdo/quality"
	"github.com/notargets/gocdo/utils"

	"github.com/spf13/cobra"
)

type SolveModel struct {
	ICFile string
	Graph  bool
	Delay  time.Duration
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assemble and solve the Poisson model problem on the unit square",
	Long:  `Assemble and solve the Poisson model problem on the unit square`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("solve called")
		sm := &SolveModel{}
		if sm.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		sm.Graph, _ = cmd.Flags().GetBool("graph")
		dr, _ := cmd.Flags().GetInt("delay")
		sm.Delay = time.Duration(dr) * time.Millisecond
		ip := processSolveInput(sm)
		RunSolve(sm, ip)
	},
}

func processSolveInput(sm *SolveModel) (ip *InputParameters.InputParameters) {
	var (
		err error
	)
	if len(sm.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Unit Square Poisson"
MeshNx: 16
MeshNy: 16
NumWorkers: 4
Strategy: atomic # Can be "single" or "critical"
SourceValue: 1.
Monitoring: true
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = os.ReadFile(sm.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- MeshNx, MeshNy\n\t- NumWorkers\n\t- Strategy")
	SolveCmd.Flags().BoolP("graph", "g", false, "display a graph of the solution midline")
	SolveCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
}

func RunSolve(sm *SolveModel, ip *InputParameters.InputParameters) {
	ip.Print()
	var (
		strategy = assemble.NewAssemblyStrategy(ip.Strategy)
		source   = field.Constant(ip.SourceValue)
		p2d      = Poisson2D.NewPoisson2D(ip.MeshNx, ip.MeshNy, ip.NumWorkers,
			strategy, source, nil)
	)

	// Mesh quality before assembly
	q := quality.TriangleShape(p2d.Mesh.VX, p2d.Mesh.VY, p2d.Mesh.EToV)
	h := quality.NewHistogram(q, nil)
	h.Display(os.Stdout, "triangle shape")

	if err := p2d.Run(); err != nil {
		panic(err)
	}
	fmt.Printf("solved %d unknowns, matrix has %d stored entries\n",
		p2d.Mesh.NVerts, p2d.NNZ)
	if ip.Monitoring {
		p2d.EqB.WriteMonitoring(ip.Title)
	}

	if sm.Graph {
		plotMidline(p2d, sm.Delay)
	}
}

// plotMidline draws the solution along the horizontal midline of the square
func plotMidline(p2d *Poisson2D.Poisson2D, delay time.Duration) {
	var (
		tm   = p2d.Mesh
		x, f []float64
		fmax float64
	)
	for v := 0; v < tm.NVerts; v++ {
		if tm.VY[v] == 0.5 {
			x = append(x, tm.VX[v])
			f = append(f, p2d.U[v])
			if p2d.U[v] > fmax {
				fmax = p2d.U[v]
			}
		}
	}
	if len(x) == 0 {
		return
	}
	lc := utils.NewLineChart(1920, 1080, 0, 1, 0, 1.1*fmax)
	lc.Plot(delay, x, f, 0.7, "u(x, 0.5)")
}
