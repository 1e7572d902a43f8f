package steamprops

import "math"

// IAPWS 2008 viscosity of ordinary water substance, without the critical
// enhancement term.
const (
	critTemperature = 647.096 // K
	critDensity     = 322.0   // kg/m³
)

var viscH0 = [4]float64{1.67752, 2.20462, 0.6366564, -0.241605}

var viscH1 = [6][7]float64{
	{5.20094e-1, 2.22531e-1, -2.81378e-1, 1.61913e-1, -3.25372e-2, 0, 0},
	{8.50895e-2, 9.99115e-1, -9.06851e-1, 2.57399e-1, 0, 0, 0},
	{-1.08374, 1.88797, -7.72479e-1, 0, 0, 0, 0},
	{-2.89555e-1, 1.26613, -4.89837e-1, 0, 6.98452e-2, 0, -4.35673e-3},
	{0, 0, -2.57040e-1, 0, 0, 8.72102e-3, 0},
	{0, 1.20573e-1, 0, 0, 0, 0, -5.93264e-4},
}

// waterViscosity returns μ (Pa·s) at density rho (kg/m³) and t (K).
func waterViscosity(rho, t float64) float64 {
	tb := t / critTemperature
	rb := rho / critDensity

	var den float64
	for i, h := range viscH0 {
		den += h / math.Pow(tb, float64(i))
	}
	mu0 := 100 * math.Sqrt(tb) / den

	var sum float64
	x := 1/tb - 1
	y := rb - 1
	for i := range viscH1 {
		xi := math.Pow(x, float64(i))
		for j, h := range viscH1[i] {
			if h == 0 {
				continue
			}
			sum += xi * h * math.Pow(y, float64(j))
		}
	}
	mu1 := math.Exp(rb * sum)
	return mu0 * mu1 * 1e-6
}
