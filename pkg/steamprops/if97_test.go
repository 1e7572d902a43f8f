package steamprops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Verification values from the IAPWS-IF97 release (Tables 5, 15, 35, 36)
// and the IAPWS 2008 viscosity release (Table 4).

func TestRegion1_CheckValues(t *testing.T) {
	cases := []struct {
		p, t, v, h float64
	}{
		{3, 300, 0.100215168e-2, 0.115331273e3},
		{80, 300, 0.971180894e-3, 0.184142828e3},
		{3, 500, 0.120241800e-2, 0.975542239e3},
	}
	for _, tc := range cases {
		v, h := region1(tc.p, tc.t)
		assert.InEpsilon(t, tc.v, v, 1e-8, "v at p=%g T=%g", tc.p, tc.t)
		assert.InEpsilon(t, tc.h, h, 1e-8, "h at p=%g T=%g", tc.p, tc.t)
	}
}

func TestRegion2_CheckValues(t *testing.T) {
	cases := []struct {
		p, t, v, h float64
	}{
		{0.0035, 300, 0.394913866e2, 0.254991145e4},
		{0.0035, 700, 0.923015898e2, 0.333568375e4},
		{30, 700, 0.542946619e-2, 0.263149474e4},
	}
	for _, tc := range cases {
		v, h := region2(tc.p, tc.t)
		assert.InEpsilon(t, tc.v, v, 1e-8, "v at p=%g T=%g", tc.p, tc.t)
		assert.InEpsilon(t, tc.h, h, 1e-8, "h at p=%g T=%g", tc.p, tc.t)
	}
}

func TestSaturationLine(t *testing.T) {
	assert.InEpsilon(t, 0.353658941e-2, saturationPressure(300), 1e-8)
	assert.InEpsilon(t, 0.263889776e1, saturationPressure(500), 1e-8)
	assert.InEpsilon(t, 0.372755919e3, saturationTemperature(0.1), 1e-8)
	assert.InEpsilon(t, 0.453035632e3, saturationTemperature(1), 1e-8)
}

func TestWaterViscosity(t *testing.T) {
	cases := []struct {
		t, rho, mu float64 // mu in µPa·s
	}{
		{298.15, 998, 889.735100},
		{298.15, 1200, 1437.649467},
		{373.15, 1000, 307.883622},
		{433.15, 1, 14.538324},
		{433.15, 1000, 217.685358},
		{873.15, 1, 32.619287},
		{873.15, 100, 35.802262},
		{873.15, 600, 77.430195},
		{1173.15, 1, 44.217245},
		{1173.15, 100, 47.640433},
		{1173.15, 400, 64.154608},
	}
	for _, tc := range cases {
		assert.InEpsilon(t, tc.mu*1e-6, waterViscosity(tc.rho, tc.t), 1e-6, "T=%g rho=%g", tc.t, tc.rho)
	}
}

func TestB23Boundary(t *testing.T) {
	assert.InEpsilon(t, 0.165291643e2, b23Pressure(0.62315e3), 1e-8)
	assert.InEpsilon(t, 0.62315e3, b23Temperature(0.165291643e2), 1e-8)
}
