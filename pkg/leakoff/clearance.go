package leakoff

import (
	"math"
)

// Channel is the geometry of one section's annular gap.
type Channel struct {
	Length          float64 // m
	Clearance       float64 // m
	Area            float64 // m²
	LossCoefficient float64
}

// Fluid is the state of the leaking medium at the section inlet.
type Fluid struct {
	SpecificVolume   float64 // m³/kg
	DynamicViscosity float64 // Pa·s
}

// Flow is the converged state of one clearance.
type Flow struct {
	MassFlow     float64 // t/h
	Velocity     float64 // m/s
	Reynolds     float64
	Friction     float64 // λ
	Discharge    float64 // α
	Iterations   int
	Upstream     float64 // MPa, after any nudge
	Nudged       bool
	FloorApplied bool
	IterationCap bool
}

// solver is the bisection kernel. It carries only configuration and the
// friction source, so it holds no per-call state.
type solver struct {
	cfg   SolverConfig
	props Properties
}

// solve finds the gap velocity at which the discharge equation reproduces
// itself and returns the resulting mass flow. Pressures are in MPa.
func (s solver) solve(pUp, pDown float64, fluid Fluid, ch Channel, terminal bool) (Flow, error) {
	const op = "solve"
	out := Flow{}

	if pUp <= pDown {
		if math.Abs(pUp-pDown) < s.cfg.NudgeEpsilon {
			pUp += s.cfg.NudgeIncrement
			out.Nudged = true
		} else {
			return Flow{}, newError(KindFlowDirection, op, 0,
				"upstream pressure %.6f MPa must exceed downstream %.6f MPa", pUp, pDown)
		}
	}
	out.Upstream = pUp

	if ch.Area <= 0 || ch.Clearance <= 0 || ch.Length <= 0 {
		return Flow{}, newError(KindGeometry, op, 0,
			"area %g m², clearance %g m and length %g m must all be > 0", ch.Area, ch.Clearance, ch.Length)
	}

	nu := fluid.SpecificVolume * fluid.DynamicViscosity
	if nu <= 0 || math.IsNaN(nu) {
		return Flow{}, newError(KindNumericDomain, op, 0,
			"kinematic viscosity must be > 0, got %.3e (v=%g, mu=%g)", nu, fluid.SpecificVolume, fluid.DynamicViscosity)
	}

	p1 := pUp * 1e6
	p2 := pDown * 1e6
	radicand := (p1*p1 - p2*p2) / (p1 * fluid.SpecificVolume)
	if radicand <= 0 || math.IsNaN(radicand) {
		return Flow{}, newError(KindNumericDomain, op, 0,
			"discharge radicand %.3e is not positive (p1=%.6f MPa, p2=%.6f MPa, v=%g)",
			radicand, pUp, pDown, fluid.SpecificVolume)
	}
	root := math.Sqrt(radicand)

	// evaluate returns G in t/h at trial velocity w.
	evaluate := func(w float64) (g, re, lambda, alpha float64, floored bool, err error) {
		re = w * 2 * ch.Clearance / nu
		lambda, err = s.props.FrictionFactor(re)
		if err != nil {
			return 0, re, 0, 0, false, lookupError(op, 0, err, "friction factor at Re=%.2f", re)
		}
		alpha = 1 / math.Sqrt(1+ch.LossCoefficient+0.5*lambda*ch.Length/ch.Clearance)
		g = alpha * ch.Area * root * 3.6
		if terminal && g < s.cfg.TerminalFloor {
			g = s.cfg.TerminalFloor
			floored = true
		}
		return g, re, lambda, alpha, floored, nil
	}

	lo, hi := s.cfg.VelocityMin, s.cfg.VelocityMax
	for hi-lo > s.cfg.Tolerance {
		w := 0.5 * (lo + hi)
		g, _, _, _, _, err := evaluate(w)
		if err != nil {
			return Flow{}, err
		}
		wCalc := fluid.SpecificVolume * (g / 3.6) / ch.Area
		if w-wCalc > 0 {
			hi = w
		} else {
			lo = w
		}
		out.Iterations++
		if out.Iterations >= s.cfg.MaxIterations {
			out.IterationCap = hi-lo > s.cfg.Tolerance
			break
		}
	}

	w := 0.5 * (lo + hi)
	g, re, lambda, alpha, floored, err := evaluate(w)
	if err != nil {
		return Flow{}, err
	}
	out.MassFlow = g
	out.Velocity = w
	out.Reynolds = re
	out.Friction = lambda
	out.Discharge = alpha
	out.FloorApplied = floored
	return out, nil
}
