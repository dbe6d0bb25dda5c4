package content

import (
	"math"

	"seehuhn.de/go/geom/matrix"
)

// mulMatrix left-multiplies m by n in content-stream composition order:
// applying the result to a point is the same as applying m first, then n
// (matches cm's "CTM' = M·CTM" rule, where M is applied before the
// previous CTM in user-space-to-device-space order).
func mulMatrix(m, n matrix.Matrix) matrix.Matrix {
	return m.Mul(n)
}

// transformPoint maps (x,y) through m: x' = a*x + c*y + e, y' = b*x + d*y + f.
func transformPoint(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func translateMatrix(dx, dy float64) matrix.Matrix {
	return matrix.Matrix{1, 0, 0, 1, dx, dy}
}

// yScale returns the magnitude of the matrix's effect on a unit vector
// along y, used for font-size scaling.
func yScale(m matrix.Matrix) float64 {
	return hypot(m[2], m[3])
}

// xScale returns the magnitude of the matrix's effect on a unit vector
// along x, used for advance-width scaling.
func xScale(m matrix.Matrix) float64 {
	return hypot(m[0], m[1])
}

func hypot(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}
