package leakoff

import (
	"fmt"
	"math"
)

// ExtractionPoint is a mixed stream at a deaerator or ejector tap.
// Pressure is in MPa.
type ExtractionPoint struct {
	MassFlow    float64
	Temperature float64
	Enthalpy    float64
	Pressure    float64
}

// Extractions are the taps of one valve. Deaerator is nil below three sections.
type Extractions struct {
	Deaerator *ExtractionPoint
	Ejectors  []ExtractionPoint
}

// stream is an extraction before its temperature is known.
type stream struct {
	flow, enthalpy, pressure float64
}

// mix combines section flows at each tap. It runs after the whole cascade.
func (c *Calculator) mix(in Input, stages []StageState) (Extractions, error) {
	params := in.Parameters
	n := len(stages)
	nv := float64(params.ValveCount)
	g := func(i int) float64 { return stages[i-1].MassFlow }
	h := func(i int) float64 { return stages[i-1].Enthalpy }
	floor := c.cfg.DenominatorFloor
	weighted := func(a, b int) float64 {
		return (h(a)*g(a) + h(b)*g(b)) / math.Max(g(a)+g(b), floor)
	}
	suction := params.SuctionPressures

	var out Extractions

	if n >= 3 {
		flow := g(1)
		for i := 2; i <= n-1; i++ {
			flow -= g(i)
		}
		pt, err := c.settle(stream{flow: flow * nv, enthalpy: h(2), pressure: params.SectionPressures[1]}, "deaerator")
		if err != nil {
			return Extractions{}, err
		}
		out.Deaerator = &pt
	}

	var streams []stream
	switch n {
	case 2:
		streams = []stream{
			{flow: (g(1) + g(2)) * nv, enthalpy: weighted(1, 2), pressure: suction[0]},
		}
	case 3:
		hMix := (h(3)*threeSectionScale*g(3) + h(2)*g(2)) / math.Max(g(2)+g(3), floor)
		streams = []stream{
			{flow: (g(2) + g(3)) * nv, enthalpy: hMix, pressure: suction[0]},
		}
	case 4:
		streams = []stream{
			{flow: math.Max(g(2)-g(3)-g(4), 0) * nv, enthalpy: h(2), pressure: suction[0]},
			{flow: math.Abs(g(3)-g(4)) * nv, enthalpy: weighted(3, 4), pressure: suction[1]},
		}
	case 5:
		streams = []stream{
			{flow: math.Max(g(2)-g(3)-g(4), 0) * nv, enthalpy: h(2), pressure: suction[0]},
			{flow: math.Abs(g(3)-g(4)) * nv, enthalpy: h(2), pressure: suction[1]},
			{flow: (g(4) + g(5)) * nv, enthalpy: weighted(4, 5), pressure: suction[2]},
		}
	default:
		return Extractions{}, newError(KindGeometry, "mix", 0, "section count %d outside [%d, %d]", n, minSections, maxSections)
	}

	out.Ejectors = make([]ExtractionPoint, 0, len(streams))
	for i, s := range streams {
		pt, err := c.settle(s, fmt.Sprintf("ejector %d", i+1))
		if err != nil {
			return Extractions{}, err
		}
		out.Ejectors = append(out.Ejectors, pt)
	}
	return out, nil
}

// settle resolves a stream's temperature from its pressure and enthalpy.
func (c *Calculator) settle(s stream, tap string) (ExtractionPoint, error) {
	_, t, _, err := c.props.SteamStateFromEnthalpy(s.pressure, s.enthalpy)
	if err != nil {
		return ExtractionPoint{}, lookupError("mix", 0, err, "%s temperature at %.6f MPa, h=%.3f kJ/kg",
			tap, s.pressure, s.enthalpy)
	}
	return ExtractionPoint{MassFlow: s.flow, Temperature: t, Enthalpy: s.enthalpy, Pressure: s.pressure}, nil
}
