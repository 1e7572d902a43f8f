package leakoff

import "fmt"

// FluidKind is the medium leaking through a section.
type FluidKind int

const (
	FluidSteam FluidKind = iota
	FluidAir
)

func (f FluidKind) String() string {
	if f == FluidAir {
		return "air"
	}
	return "steam"
}

// pressureSource names where a section boundary pressure comes from.
type pressureSource struct {
	kind  sourceKind
	index int // 0-based into SectionPressures or SuctionPressures
}

type sourceKind int

const (
	fromSection sourceKind = iota
	fromSuction
	fromAtmosphere
)

func (p pressureSource) resolve(params Parameters) float64 {
	switch p.kind {
	case fromSection:
		return params.SectionPressures[p.index]
	case fromSuction:
		return params.SuctionPressures[p.index]
	default:
		return AtmosphericPressure
	}
}

func (p pressureSource) String() string {
	switch p.kind {
	case fromSection:
		return fmt.Sprintf("P%d", p.index+1)
	case fromSuction:
		return fmt.Sprintf("suction[%d]", p.index)
	default:
		return "atmosphere"
	}
}

// sectionPlan is the descriptor for one section of an N-section valve.
type sectionPlan struct {
	Section    int // 1-based
	Fluid      FluidKind
	Upstream   pressureSource
	Downstream pressureSource
	Terminal   bool
}

// suctionIndex is the ejector line a section drains into. It is a fixed
// lookup over (sections, section).
func suctionIndex(n, section int) (int, error) {
	switch section {
	case 2:
		return 0, nil
	case 3:
		if n == 3 {
			return 0, nil
		}
		return 1, nil
	case 4:
		if n == 4 {
			return 1, nil
		}
		return 2, nil
	case 5:
		return 2, nil
	}
	return 0, newError(KindParameterMismatch, "cascade", section, "no ejector suction for section %d of %d", section, n)
}

// planSections builds the descriptor table for an n-section valve.
func planSections(n int) ([]sectionPlan, error) {
	if n < minSections || n > maxSections {
		return nil, newError(KindGeometry, "cascade", 0, "section count %d outside [%d, %d]", n, minSections, maxSections)
	}
	plans := make([]sectionPlan, 0, n)
	for i := 1; i <= n; i++ {
		p := sectionPlan{Section: i}
		switch {
		case i == n:
			idx, err := suctionIndex(n, i)
			if err != nil {
				return nil, err
			}
			p.Fluid = FluidAir
			p.Terminal = true
			p.Upstream = pressureSource{kind: fromAtmosphere}
			p.Downstream = pressureSource{kind: fromSuction, index: idx}
		case i == 1:
			p.Fluid = FluidSteam
			p.Upstream = pressureSource{kind: fromSection, index: 0}
			if n > 2 {
				p.Downstream = pressureSource{kind: fromSection, index: 1}
			} else {
				p.Downstream = pressureSource{kind: fromSuction, index: 0}
			}
		default:
			p.Fluid = FluidSteam
			p.Upstream = pressureSource{kind: fromSection, index: i - 1}
			if i+1 < n {
				p.Downstream = pressureSource{kind: fromSection, index: i}
			} else {
				idx, err := suctionIndex(n, i)
				if err != nil {
					return nil, err
				}
				p.Downstream = pressureSource{kind: fromSuction, index: idx}
			}
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// StageState is the settled state of one section. It is built once and
// never modified.
type StageState struct {
	Section          int
	Fluid            FluidKind
	Upstream         float64 // MPa, nominal
	Downstream       float64 // MPa
	MassFlow         float64 // t/h per valve
	Temperature      float64 // °C
	Enthalpy         float64 // kJ/kg
	SpecificVolume   float64 // m³/kg
	DynamicViscosity float64 // Pa·s
	Flow             Flow
}

// cascade runs the solver once per section in stem order.
func (c *Calculator) cascade(in Input) ([]StageState, error) {
	const op = "cascade"
	g, params := in.Geometry, in.Parameters
	n := g.SectionCount()

	plans, err := planSections(n)
	if err != nil {
		return nil, err
	}

	steamH, err := c.props.SteamEnthalpy(params.SectionPressures[0], params.StartTemperature)
	if err != nil {
		return nil, lookupError(op, 1, err, "steam enthalpy at %.6f MPa, %g °C",
			params.SectionPressures[0], params.StartTemperature)
	}

	s := solver{cfg: c.cfg, props: c.props}
	stages := make([]StageState, 0, n)
	for _, plan := range plans {
		st := StageState{
			Section:    plan.Section,
			Fluid:      plan.Fluid,
			Upstream:   plan.Upstream.resolve(params),
			Downstream: plan.Downstream.resolve(params),
		}

		switch plan.Fluid {
		case FluidSteam:
			v, t, mu, err := c.props.SteamStateFromEnthalpy(st.Upstream, steamH)
			if err != nil {
				return nil, lookupError(op, plan.Section, err, "steam state at %.6f MPa, h=%.3f kJ/kg", st.Upstream, steamH)
			}
			st.Enthalpy, st.SpecificVolume, st.Temperature, st.DynamicViscosity = steamH, v, t, mu
		case FluidAir:
			ta := params.AirTemperature
			v, err := c.props.AirSpecificVolume(ta)
			if err != nil {
				return nil, lookupError(op, plan.Section, err, "air specific volume at %g °C", ta)
			}
			mu, err := c.props.AirViscosity(ta)
			if err != nil {
				return nil, lookupError(op, plan.Section, err, "air viscosity at %g °C", ta)
			}
			st.Enthalpy, st.SpecificVolume, st.Temperature, st.DynamicViscosity = AirEnthalpyFactor*ta, v, ta, mu
		}

		ch := Channel{
			Length:          g.SectionLengths[plan.Section-1],
			Clearance:       g.Clearance,
			Area:            g.ClearanceArea,
			LossCoefficient: g.LossCoefficient,
		}
		flow, err := s.solve(st.Upstream, st.Downstream,
			Fluid{SpecificVolume: st.SpecificVolume, DynamicViscosity: st.DynamicViscosity}, ch, plan.Terminal)
		if err != nil {
			return nil, atSection(err, plan.Section)
		}
		st.Flow = flow
		st.MassFlow = flow.MassFlow

		c.log.Debug("leakoff: section solved",
			"section", plan.Section,
			"fluid", plan.Fluid.String(),
			"from", plan.Upstream.String(),
			"to", plan.Downstream.String(),
			"p1_mpa", flow.Upstream,
			"p2_mpa", st.Downstream,
			"re", flow.Reynolds,
			"lambda", flow.Friction,
			"alpha", flow.Discharge,
			"iterations", flow.Iterations,
			"g_th", flow.MassFlow)

		stages = append(stages, st)
	}
	return stages, nil
}
