package field

import "fmt"

/*
Definition describes how a scalar field is defined over the mesh. Each
variant carries exactly the data it needs; callers evaluate through the
interface and never inspect the concrete type.
*/
type Definition interface {
	// Evaluate returns the field value at time t and point (x, y)
	Evaluate(t, x, y float64) float64
	// Uniform reports whether the value is independent of the point
	Uniform() bool
}

// Constant is a value uniform in space and time
type Constant float64

func (c Constant) Evaluate(t, x, y float64) float64 {
	return float64(c)
}

func (c Constant) Uniform() bool { return true }

// AnalyticFunc adapts a closure into a Definition
type AnalyticFunc func(t, x, y float64) float64

func (f AnalyticFunc) Evaluate(t, x, y float64) float64 {
	return f(t, x, y)
}

func (f AnalyticFunc) Uniform() bool { return false }

/*
Array holds one value per entity of a borrowed, caller owned slice. The
slice must outlive the definition, Array never copies or resizes it.
Evaluation goes through EvaluateAt since an array value is located by
entity id, not by coordinates.
*/
type Array struct {
	Vals   []float64 // borrowed view, owned by the caller
	Stride int
}

func NewArray(vals []float64, stride int) *Array {
	if stride < 1 {
		panic(fmt.Errorf("invalid array definition stride %d", stride))
	}
	if len(vals)%stride != 0 {
		panic(fmt.Errorf("array definition length %d not a multiple of stride %d", len(vals), stride))
	}
	return &Array{Vals: vals, Stride: stride}
}

func (a *Array) EvaluateAt(id, comp int) float64 {
	return a.Vals[id*a.Stride+comp]
}

func (a *Array) Evaluate(t, x, y float64) float64 {
	panic("array definitions are evaluated by entity id, use EvaluateAt")
}

func (a *Array) Uniform() bool { return false }
