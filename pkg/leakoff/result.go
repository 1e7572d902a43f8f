package leakoff

import (
	"fmt"
	"log/slog"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// Calculator runs the normalize → cascade → mix → assemble pipeline.
// Its fields are set at construction and never change, so a single value
// may be shared between goroutines.
type Calculator struct {
	props Properties
	cfg   SolverConfig
	log   *slog.Logger
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithSolverConfig overrides DefaultSolverConfig.
func WithSolverConfig(cfg SolverConfig) Option {
	return func(c *Calculator) { c.cfg = cfg }
}

// WithLogger routes per-section debug output to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Calculator backed by props.
func New(props Properties, opts ...Option) *Calculator {
	c := &Calculator{props: props, cfg: DefaultSolverConfig(), log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Config returns the solver tuning in effect.
func (c *Calculator) Config() SolverConfig { return c.cfg }

// Outcome is everything one calculation produced: the caller-facing result
// plus the intermediate states it was built from.
type Outcome struct {
	Input       Input
	Stages      []StageState
	Extractions Extractions
	Result      types.CalculationResult
}

// Diagnostics summarises solver behaviour per section.
func (o *Outcome) Diagnostics() []types.SectionDiagnostics {
	out := make([]types.SectionDiagnostics, 0, len(o.Stages))
	for _, st := range o.Stages {
		out = append(out, types.SectionDiagnostics{
			Section:      st.Section,
			Fluid:        st.Fluid.String(),
			Velocity:     st.Flow.Velocity,
			Reynolds:     st.Flow.Reynolds,
			Friction:     st.Flow.Friction,
			Discharge:    st.Flow.Discharge,
			Iterations:   st.Flow.Iterations,
			Nudged:       st.Flow.Nudged,
			FloorApplied: st.Flow.FloorApplied,
			IterationCap: st.Flow.IterationCap,
		})
	}
	return out
}

// Calculate runs the full pipeline for one valve and request.
func (c *Calculator) Calculate(valve types.Valve, req types.CalculationRequest) (*Outcome, error) {
	// A bad solver config is the caller's setup, not the request, so it
	// carries no Kind.
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("leakoff: %w", err)
	}

	in, err := Normalize(valve, req, c.props)
	if err != nil {
		return nil, err
	}

	stages, err := c.cascade(in)
	if err != nil {
		return nil, err
	}

	ex, err := c.mix(in, stages)
	if err != nil {
		return nil, err
	}

	res, err := assemble(in, stages, ex)
	if err != nil {
		return nil, err
	}

	c.log.Debug("leakoff: calculation complete",
		"valve", valve.Drawing,
		"sections", len(stages),
		"flows", res.SectionFlows,
		"ejectors", len(res.Ejectors))

	return &Outcome{Input: in, Stages: stages, Extractions: ex, Result: res}, nil
}

// assemble builds the caller-facing record, converting pressures back to the
// request unit.
func assemble(in Input, stages []StageState, ex Extractions) (types.CalculationResult, error) {
	unit := in.Parameters.Unit
	n := len(stages)
	res := types.CalculationResult{
		SectionFlows:        make([]float64, n),
		SectionPressures:    make([]float64, n),
		SectionTemperatures: make([]float64, n),
		SectionEnthalpies:   make([]float64, n),
		Ejectors:            make([]types.Extraction, 0, len(ex.Ejectors)),
		PressureUnit:        unit,
	}

	for i, st := range stages {
		p, err := FromMPa(in.Parameters.SectionPressures[i], unit)
		if err != nil {
			return types.CalculationResult{}, err
		}
		res.SectionFlows[i] = st.MassFlow
		res.SectionPressures[i] = p
		res.SectionTemperatures[i] = st.Temperature
		res.SectionEnthalpies[i] = st.Enthalpy
	}

	toWire := func(pt ExtractionPoint) (types.Extraction, error) {
		p, err := FromMPa(pt.Pressure, unit)
		if err != nil {
			return types.Extraction{}, err
		}
		return types.Extraction{Flow: pt.MassFlow, Temperature: pt.Temperature, Enthalpy: pt.Enthalpy, Pressure: p}, nil
	}

	if ex.Deaerator != nil {
		d, err := toWire(*ex.Deaerator)
		if err != nil {
			return types.CalculationResult{}, err
		}
		res.Deaerator = &d
	}
	for _, e := range ex.Ejectors {
		w, err := toWire(e)
		if err != nil {
			return types.CalculationResult{}, err
		}
		res.Ejectors = append(res.Ejectors, w)
	}
	return res, nil
}
