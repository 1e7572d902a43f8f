package steamprops

import (
	"fmt"
	"math"
)

// Annular-gap friction: λ = a·Re^b with Re held at the transition value
// below reMin.
const (
	frictionA = 0.2635
	frictionB = -0.234
	reMin     = 3000.0
)

func frictionFactor(re float64) float64 {
	return frictionA * math.Pow(math.Max(re, reMin), frictionB)
}

// lossTable maps the rounding ratio r/2δ to the inlet loss coefficient ξ.
// Values outside the table are clamped to its ends.
var lossTable = [][2]float64{
	{0, 0.50},
	{0.25, 0.45},
	{0.5, 0.40},
	{1, 0.32},
	{1.5, 0.27},
	{2, 0.24},
	{3, 0.20},
	{4, 0.174},
}

func linearInterp(x, x0, y0, x1, y1 float64) float64 {
	if x0 == x1 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// interpolate returns y at x over sorted pairs, clamping at both ends.
func interpolate(x float64, pairs [][2]float64) (float64, error) {
	n := len(pairs)
	if n == 0 {
		return 0, fmt.Errorf("empty table")
	}
	if x <= pairs[0][0] {
		return pairs[0][1], nil
	}
	if x >= pairs[n-1][0] {
		return pairs[n-1][1], nil
	}
	for i := 0; i < n-1; i++ {
		x0, y0 := pairs[i][0], pairs[i][1]
		x1, y1 := pairs[i+1][0], pairs[i+1][1]
		if x >= x0 && x <= x1 {
			return linearInterp(x, x0, y0, x1, y1), nil
		}
	}
	return 0, fmt.Errorf("interpolation failed at x=%g", x)
}
