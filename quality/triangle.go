package quality

import "math"

/*
TriangleShape computes a shape indicator per triangle, the ratio of twice
the inradius to the circumradius. Equilateral triangles score 1, degenerate
triangles approach 0.
*/
func TriangleShape(VX, VY []float64, EToV [][3]int) (q []float64) {
	q = make([]float64, len(EToV))
	for k, tri := range EToV {
		var (
			ax, ay = VX[tri[0]], VY[tri[0]]
			bx, by = VX[tri[1]], VY[tri[1]]
			cx, cy = VX[tri[2]], VY[tri[2]]
			a      = math.Hypot(cx-bx, cy-by)
			b      = math.Hypot(cx-ax, cy-ay)
			c      = math.Hypot(bx-ax, by-ay)
			s      = 0.5 * (a + b + c)
		)
		if s == 0 || a*b*c == 0 {
			continue
		}
		area := math.Sqrt(math.Max(0, s*(s-a)*(s-b)*(s-c)))
		var (
			inradius    = area / s
			circumR     = a * b * c / (4 * area)
			shapeMetric float64
		)
		if area > 0 {
			shapeMetric = 2 * inradius / circumR
		}
		q[k] = shapeMetric
	}
	return
}
