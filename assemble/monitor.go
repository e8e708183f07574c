package assemble

import (
	"fmt"
	"time"
)

type TimerCounter struct {
	Elapsed time.Duration
}

func (tc *TimerCounter) AddSince(t0 time.Time) {
	tc.Elapsed += time.Since(t0)
}

/*
EquationBuilder carries the transient state of one equation across its
assembly passes: which terms are active and how much wall time each one
consumes. One instance per equation, reset only when the equation setup
changes.
*/
type EquationBuilder struct {
	DiffusionActive bool
	AdvectionActive bool
	ReactionActive  bool
	UnsteadyActive  bool
	SourceActive    bool

	Tcb TimerCounter // complete system building
	Tcd TimerCounter // diffusion terms
	Tca TimerCounter // advection terms
	Tcr TimerCounter // reaction terms
	Tcs TimerCounter // source terms
	Tce TimerCounter // extra operations (enforcement, balance)
}

func NewEquationBuilder() (eqb *EquationBuilder) {
	eqb = &EquationBuilder{}
	return
}

// WriteMonitoring prints the per-term wall clock totals for one equation
func (eqb *EquationBuilder) WriteMonitoring(eqname string) {
	t := [6]float64{
		eqb.Tcb.Elapsed.Seconds(),
		eqb.Tcd.Elapsed.Seconds(),
		eqb.Tca.Elapsed.Seconds(),
		eqb.Tcr.Elapsed.Seconds(),
		eqb.Tcs.Elapsed.Seconds(),
		eqb.Tce.Elapsed.Seconds(),
	}
	label := "<CDO/Equation> Monitoring"
	if eqname != "" {
		label = fmt.Sprintf("<CDO/%s> Monitoring", eqname)
	}
	fmt.Printf(" %-35s %9.3f %9.3f %9.3f %9.3f %9.3f %9.3f seconds\n",
		label, t[0], t[1], t[2], t[3], t[4], t[5])
}
