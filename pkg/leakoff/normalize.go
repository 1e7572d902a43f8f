package leakoff

import (
	"math"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

const (
	minSections = 2
	maxSections = 5
)

// Geometry is a valve stem in SI units plus the values derived from it.
type Geometry struct {
	Clearance      float64   // radial gap δ, m
	StemDiameter   float64   // m
	RoundingRadius float64   // m
	SectionLengths []float64 // m, stem order

	ProportionalityRatio float64 // r / 2δ
	ClearanceArea        float64 // δ·π·D, m²
	LossCoefficient      float64 // ξ
}

// SectionCount is the number of clearance sections along the stem.
func (g Geometry) SectionCount() int { return len(g.SectionLengths) }

// Parameters are the process conditions with pressures in MPa.
type Parameters struct {
	StartTemperature float64
	AirTemperature   float64
	ValveCount       int
	SectionPressures []float64
	SuctionPressures []float64
	Unit             types.PressureUnit
}

// Input is a normalized, validated calculation input.
type Input struct {
	Geometry   Geometry
	Parameters Parameters
}

// MinSuctionCount is the number of ejector suction pressures a valve with n
// sections needs: 2→1, 3→1, 4→2, 5→3.
func MinSuctionCount(n int) int {
	if n <= 2 {
		return 1
	}
	return n - 2
}

// Normalize converts catalog geometry and a request into SI units, checks
// their structure and derives the clearance area and loss coefficient.
func Normalize(valve types.Valve, req types.CalculationRequest, props Properties) (Input, error) {
	const op = "normalize"

	unit := req.Unit()
	if _, ok := unitFactor(unit); !ok {
		return Input{}, newError(KindGeometry, op, 0, "unknown pressure unit %d", int(unit))
	}

	g, err := normalizeGeometry(valve)
	if err != nil {
		return Input{}, err
	}
	n := g.SectionCount()

	if req.ValveCount <= 0 {
		return Input{}, newError(KindParameterMismatch, op, 0, "valve count must be positive, got %d", req.ValveCount)
	}
	if len(req.SectionPressures) != n {
		return Input{}, newError(KindParameterMismatch, op, 0,
			"got %d section pressures for %d sections", len(req.SectionPressures), n)
	}
	pressures := make([]float64, n)
	for i, p := range req.SectionPressures {
		if p <= 0 {
			return Input{}, newError(KindParameterMismatch, op, i+1, "section pressure must be > 0, got %g", p)
		}
		pressures[i], _ = ToMPa(p, unit)
	}

	need := MinSuctionCount(n)
	if len(req.EjectorSuctionPressures) < need {
		return Input{}, newError(KindParameterMismatch, op, 0,
			"%d sections need at least %d ejector suction pressures, got %d",
			n, need, len(req.EjectorSuctionPressures))
	}
	suctions := make([]float64, len(req.EjectorSuctionPressures))
	for i, p := range req.EjectorSuctionPressures {
		if p <= 0 {
			return Input{}, newError(KindParameterMismatch, op, 0,
				"ejector suction pressure %d must be > 0, got %g", i+1, p)
		}
		suctions[i], _ = ToMPa(p, unit)
	}

	xi, err := props.LossCoefficient(g.ProportionalityRatio)
	if err != nil {
		return Input{}, lookupError(op, 0, err, "loss coefficient for ratio %g", g.ProportionalityRatio)
	}
	g.LossCoefficient = xi

	return Input{
		Geometry: g,
		Parameters: Parameters{
			StartTemperature: req.StartTemperature,
			AirTemperature:   req.AirTemperature,
			ValveCount:       req.ValveCount,
			SectionPressures: pressures,
			SuctionPressures: suctions,
			Unit:             unit,
		},
	}, nil
}

func normalizeGeometry(valve types.Valve) (Geometry, error) {
	const op = "normalize"

	switch {
	case valve.Clearance <= 0:
		return Geometry{}, newError(KindGeometry, op, 0, "clearance must be > 0, got %g mm", valve.Clearance)
	case valve.Diameter <= 0:
		return Geometry{}, newError(KindGeometry, op, 0, "stem diameter must be > 0, got %g mm", valve.Diameter)
	case valve.RoundRadius <= 0:
		return Geometry{}, newError(KindGeometry, op, 0, "rounding radius must be > 0, got %g mm", valve.RoundRadius)
	}

	var lengths []float64
	for i, l := range valve.SectionLengths {
		if l == nil {
			break
		}
		if *l <= 0 {
			return Geometry{}, newError(KindGeometry, op, i+1, "section length must be > 0, got %g mm", *l)
		}
		lengths = append(lengths, mm(*l))
	}
	if len(lengths) < minSections {
		return Geometry{}, newError(KindGeometry, op, 0,
			"valve %q needs at least %d section lengths, got %d", valve.Drawing, minSections, len(lengths))
	}
	if len(lengths) > maxSections {
		return Geometry{}, newError(KindGeometry, op, 0,
			"valve %q has %d sections, at most %d are supported", valve.Drawing, len(lengths), maxSections)
	}

	g := Geometry{
		Clearance:      mm(valve.Clearance),
		StemDiameter:   mm(valve.Diameter),
		RoundingRadius: mm(valve.RoundRadius),
		SectionLengths: lengths,
	}
	g.ProportionalityRatio = g.RoundingRadius / (2 * g.Clearance)
	g.ClearanceArea = g.Clearance * math.Pi * g.StemDiameter
	if g.ClearanceArea <= 0 || math.IsInf(g.ClearanceArea, 0) {
		return Geometry{}, newError(KindGeometry, op, 0, "clearance area must be > 0, got %g m²", g.ClearanceArea)
	}
	return g, nil
}

func mm(v float64) float64 { return v / 1000 }
