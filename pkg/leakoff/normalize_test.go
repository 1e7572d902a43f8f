package leakoff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

func threeSectionValve() types.Valve {
	return types.Valve{
		Drawing:        "KV-3",
		Clearance:      0.215,
		Diameter:       40,
		RoundRadius:    2,
		SectionLengths: lengths(313.5, 50, 97.5),
	}
}

func threeSectionRequest() types.CalculationRequest {
	return types.CalculationRequest{
		StartTemperature:        555,
		AirTemperature:          40,
		ValveCount:              2,
		SectionPressures:        []float64{130, 10, 1.03},
		EjectorSuctionPressures: []float64{0.97, 0.97},
	}
}

func TestNormalize_ConvertsUnits(t *testing.T) {
	in, err := Normalize(threeSectionValve(), threeSectionRequest(), newFakeProps())
	require.NoError(t, err)

	g := in.Geometry
	assert.Equal(t, 3, g.SectionCount())
	assert.InDelta(t, 0.000215, g.Clearance, 1e-15)
	assert.InDelta(t, 0.04, g.StemDiameter, 1e-15)
	assert.InDeltaSlice(t, []float64{0.3135, 0.05, 0.0975}, g.SectionLengths, 1e-15)
	assert.InDelta(t, 0.002/(2*0.000215), g.ProportionalityRatio, 1e-12)
	assert.InDelta(t, 0.000215*math.Pi*0.04, g.ClearanceArea, 1e-18)
	assert.Equal(t, 0.2, g.LossCoefficient)

	p := in.Parameters
	assert.Equal(t, types.UnitKgfPerCm2, p.Unit)
	assert.InDeltaSlice(t, []float64{130 * 0.0980665, 10 * 0.0980665, 1.03 * 0.0980665}, p.SectionPressures, 1e-12)
	assert.InDeltaSlice(t, []float64{0.97 * 0.0980665, 0.97 * 0.0980665}, p.SuctionPressures, 1e-12)
}

func TestNormalize_NilLengthEndsList(t *testing.T) {
	valve := threeSectionValve()
	valve.SectionLengths = []*float64{ptr(190), ptr(110), nil, ptr(40)}
	req := threeSectionRequest()
	req.SectionPressures = []float64{130, 1.03}

	in, err := Normalize(valve, req, newFakeProps())
	require.NoError(t, err)
	assert.Equal(t, 2, in.Geometry.SectionCount())
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Valve, *types.CalculationRequest)
		kind    Kind
		section int
	}{
		{
			name:   "one section length",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { v.SectionLengths = lengths(100) },
			kind:   KindGeometry,
		},
		{
			name: "second length missing",
			mutate: func(v *types.Valve, r *types.CalculationRequest) {
				v.SectionLengths = []*float64{ptr(100), nil, ptr(50)}
			},
			kind: KindGeometry,
		},
		{
			name:   "six sections",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { v.SectionLengths = lengths(1, 2, 3, 4, 5, 6) },
			kind:   KindGeometry,
		},
		{
			name:    "zero length",
			mutate:  func(v *types.Valve, r *types.CalculationRequest) { v.SectionLengths = lengths(100, 0, 50) },
			kind:    KindGeometry,
			section: 2,
		},
		{
			name:   "zero clearance",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { v.Clearance = 0 },
			kind:   KindGeometry,
		},
		{
			name:   "negative diameter",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { v.Diameter = -40 },
			kind:   KindGeometry,
		},
		{
			name:   "zero rounding radius",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { v.RoundRadius = 0 },
			kind:   KindGeometry,
		},
		{
			name:   "unknown unit",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.PressureUnit = 9 },
			kind:   KindGeometry,
		},
		{
			name:   "too few pressures",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.SectionPressures = []float64{130, 10} },
			kind:   KindParameterMismatch,
		},
		{
			name:   "too many pressures",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.SectionPressures = []float64{130, 10, 1.03, 1} },
			kind:   KindParameterMismatch,
		},
		{
			name:    "zero section pressure",
			mutate:  func(v *types.Valve, r *types.CalculationRequest) { r.SectionPressures = []float64{130, 0, 1.03} },
			kind:    KindParameterMismatch,
			section: 2,
		},
		{
			name:   "no suction pressures",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.EjectorSuctionPressures = nil },
			kind:   KindParameterMismatch,
		},
		{
			name:   "negative suction pressure",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.EjectorSuctionPressures = []float64{-1} },
			kind:   KindParameterMismatch,
		},
		{
			name:   "zero valves",
			mutate: func(v *types.Valve, r *types.CalculationRequest) { r.ValveCount = 0 },
			kind:   KindParameterMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			valve, req := threeSectionValve(), threeSectionRequest()
			tc.mutate(&valve, &req)

			_, err := Normalize(valve, req, newFakeProps())
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err), "err = %v", err)
			assert.Equal(t, tc.section, SectionOf(err))
		})
	}
}

func TestNormalize_SuctionMinimum(t *testing.T) {
	for n, need := range map[int]int{2: 1, 3: 1, 4: 2, 5: 3} {
		assert.Equal(t, need, MinSuctionCount(n), "sections %d", n)

		ls := make([]float64, n)
		ps := make([]float64, n)
		for i := range ls {
			ls[i] = 50
			ps[i] = float64(100 - 10*i)
		}
		valve := threeSectionValve()
		valve.SectionLengths = lengths(ls...)
		req := threeSectionRequest()
		req.SectionPressures = ps

		req.EjectorSuctionPressures = make([]float64, need-1)
		for i := range req.EjectorSuctionPressures {
			req.EjectorSuctionPressures[i] = 0.97
		}
		_, err := Normalize(valve, req, newFakeProps())
		assert.ErrorIs(t, err, ErrParameterMismatch, "sections %d with %d suctions", n, need-1)

		req.EjectorSuctionPressures = append(req.EjectorSuctionPressures, 0.97)
		_, err = Normalize(valve, req, newFakeProps())
		assert.NoError(t, err, "sections %d with %d suctions", n, need)
	}
}

func TestNormalize_LossCoefficientFailure(t *testing.T) {
	_, err := Normalize(threeSectionValve(), threeSectionRequest(), lossFailer{newFakeProps()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPropertyLookup)
	assert.ErrorIs(t, err, errFakeRange)
}

type lossFailer struct{ *fakeProps }

func (lossFailer) LossCoefficient(float64) (float64, error) { return 0, errFakeRange }
