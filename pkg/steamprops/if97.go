package steamprops

import "math"

// specific gas constant of water, kJ/(kg·K)
const rWater = 0.461526

const (
	tMin       = 273.15  // K
	tMax       = 1073.15 // K, upper limit of region 2
	t13        = 623.15  // K, region 1/3 boundary
	pSatMin    = 611.213e-6
	pSat13     = 16.5291643 // MPa, saturation pressure at 623.15 K
	pMax       = 100.0
	region2Ref = 0.5
)

// Region 1 (IF97 Table 2).
var (
	r1I = [34]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3, 4, 4, 4, 5, 8, 8, 21, 23, 29, 30, 31, 32}
	r1J = [34]int{-2, -1, 0, 1, 2, 3, 4, 5, -9, -7, -1, 0, 1, 3, -3, 0, 1, 3, 17, -4, 0, 6, -5, -2, 10, -8, -11, -6, -29, -31, -38, -39, -40, -41}
	r1N = [34]float64{
		0.14632971213167, -0.84548187169114, -0.37563603672040e1, 0.33855169168385e1,
		-0.95791963387872, 0.15772038513228, -0.16616417199501e-1, 0.81214629983568e-3,
		0.28319080123804e-3, -0.60706301565874e-3, -0.18990068218419e-1, -0.32529748770505e-1,
		-0.21841717175414e-1, -0.52838357969930e-4, -0.47184321073267e-3, -0.30001780793026e-3,
		0.47661393906987e-4, -0.44141845330846e-5, -0.72694996297594e-15, -0.31679644845054e-4,
		-0.28270797985312e-5, -0.85205128120103e-9, -0.22425281908000e-5, -0.65171222895601e-6,
		-0.14341729937924e-12, -0.40516996860117e-6, -0.12734301741641e-8, -0.17424871230634e-9,
		-0.68762131295531e-18, 0.14478307828521e-19, 0.26335781662795e-22, -0.11947622640071e-22,
		0.18228094581404e-23, -0.93537087292458e-25,
	}
)

// Region 2 ideal-gas part (IF97 Table 10).
var (
	r2J0 = [9]int{0, 1, -5, -4, -3, -2, -1, 2, 3}
	r2N0 = [9]float64{
		-0.96927686500217e1, 0.10086655968018e2, -0.56087911283020e-2,
		0.71452738081455e-1, -0.40710498223928, 0.14240819171444e1,
		-0.43839511319450e1, -0.28408632460772, 0.21268463753307e-1,
	}
)

// Region 2 residual part (IF97 Table 11).
var (
	r2I = [43]int{1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 4, 4, 5, 6, 6, 6, 7, 7, 7, 8, 8, 9, 10, 10, 10, 16, 16, 18, 20, 20, 20, 21, 22, 23, 24, 24, 24}
	r2J = [43]int{0, 1, 2, 3, 6, 1, 2, 4, 7, 36, 0, 1, 3, 6, 35, 1, 2, 3, 7, 3, 16, 35, 0, 11, 25, 8, 36, 13, 4, 10, 14, 29, 50, 57, 20, 35, 48, 21, 53, 39, 26, 40, 58}
	r2N = [43]float64{
		-0.17731742473213e-2, -0.17834862292358e-1, -0.45996013696365e-1, -0.57581259083432e-1,
		-0.50325278727930e-1, -0.33032641670203e-4, -0.18948987516315e-3, -0.39392777243355e-2,
		-0.43797295650573e-1, -0.26674547914087e-4, 0.20481737692309e-7, 0.43870667284435e-6,
		-0.32277677238570e-4, -0.15033924542148e-2, -0.40668253562649e-1, -0.78847309559367e-9,
		0.12790717852285e-7, 0.48225372718507e-6, 0.22922076337661e-5, -0.16714766451061e-10,
		-0.21171472321355e-2, -0.23895741934104e2, -0.59059564324270e-17, -0.12621808899101e-5,
		-0.38946842435739e-1, 0.11256211360459e-10, -0.82311340897998e1, 0.19809712802088e-7,
		0.10406965210174e-18, -0.10234747095929e-12, -0.10018179379511e-8, -0.80882908646985e-10,
		0.10693031879409, -0.33662250574171, 0.89185845355421e-24, 0.30629316876232e-12,
		-0.42002467698208e-5, -0.59056029685639e-25, 0.37826947613457e-5, -0.12768608934681e-14,
		0.73087610595061e-28, 0.55414715350778e-16, -0.94369707241210e-6,
	}
)

// Region 4 saturation line (IF97 Table 34).
var r4N = [10]float64{
	0.11670521452767e4, -0.72421316703206e6, -0.17073846940092e2,
	0.12020824702470e5, -0.32325550322333e7, 0.14915108613530e2,
	-0.48232657361591e4, 0.40511340542057e6, -0.23855557567849,
	0.65017534844798e3,
}

// B23 boundary (IF97 Table 1).
var b23N = [5]float64{
	0.34805185628969e3, -0.11671859879975e1, 0.10192970039326e-2,
	0.57254459862746e3, 0.13918839778870e2,
}

// region1 returns v (m³/kg) and h (kJ/kg) at p (MPa), t (K).
func region1(p, t float64) (v, h float64) {
	pi := p / 16.53
	tau := 1386 / t
	a := 7.1 - pi
	b := tau - 1.222
	var gp, gt float64
	for i := range r1N {
		n, ii, jj := r1N[i], float64(r1I[i]), float64(r1J[i])
		if r1I[i] != 0 {
			gp -= n * ii * math.Pow(a, ii-1) * math.Pow(b, jj)
		}
		if r1J[i] != 0 {
			gt += n * math.Pow(a, ii) * jj * math.Pow(b, jj-1)
		}
	}
	v = rWater * t / (p * 1000) * pi * gp
	h = rWater * t * tau * gt
	return v, h
}

// region2 returns v (m³/kg) and h (kJ/kg) at p (MPa), t (K).
func region2(p, t float64) (v, h float64) {
	pi := p
	tau := 540 / t
	var g0t float64
	for i := range r2N0 {
		if r2J0[i] != 0 {
			j := float64(r2J0[i])
			g0t += r2N0[i] * j * math.Pow(tau, j-1)
		}
	}
	b := tau - region2Ref
	var grp, grt float64
	for i := range r2N {
		n, ii, jj := r2N[i], float64(r2I[i]), float64(r2J[i])
		grp += n * ii * math.Pow(pi, ii-1) * math.Pow(b, jj)
		if r2J[i] != 0 {
			grt += n * math.Pow(pi, ii) * jj * math.Pow(b, jj-1)
		}
	}
	v = rWater * t / (p * 1000) * pi * (1/pi + grp)
	h = rWater * t * tau * (g0t + grt)
	return v, h
}

// saturationTemperature returns Ts (K) at p (MPa).
func saturationTemperature(p float64) float64 {
	beta := math.Pow(p, 0.25)
	e := beta*beta + r4N[2]*beta + r4N[5]
	f := r4N[0]*beta*beta + r4N[3]*beta + r4N[6]
	g := r4N[1]*beta*beta + r4N[4]*beta + r4N[7]
	d := 2 * g / (-f - math.Sqrt(f*f-4*e*g))
	return (r4N[9] + d - math.Sqrt((r4N[9]+d)*(r4N[9]+d)-4*(r4N[8]+r4N[9]*d))) / 2
}

// saturationPressure returns ps (MPa) at t (K).
func saturationPressure(t float64) float64 {
	th := t + r4N[8]/(t-r4N[9])
	a := th*th + r4N[0]*th + r4N[1]
	b := r4N[2]*th*th + r4N[3]*th + r4N[4]
	c := r4N[5]*th*th + r4N[6]*th + r4N[7]
	return math.Pow(2*c/(-b+math.Sqrt(b*b-4*a*c)), 4)
}

// b23Pressure is the region 2/3 boundary pressure (MPa) at t (K).
func b23Pressure(t float64) float64 {
	return b23N[0] + b23N[1]*t + b23N[2]*t*t
}

// b23Temperature is the region 2/3 boundary temperature (K) at p (MPa).
func b23Temperature(p float64) float64 {
	return b23N[3] + math.Sqrt((p-b23N[4])/b23N[2])
}
