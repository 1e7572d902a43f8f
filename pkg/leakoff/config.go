package leakoff

import "fmt"

const (
	// AtmosphericPressure is the upstream pressure of the terminal air section, MPa.
	AtmosphericPressure = 0.1013
	// AirEnthalpyFactor converts air temperature in °C to enthalpy in kJ/kg.
	AirEnthalpyFactor = 1.006
	// threeSectionScale multiplies the terminal enthalpy term of the single
	// ejector stream of a three-section valve. Kept as found in the reference
	// data; flagged for review.
	threeSectionScale = 4.1868
)

// SolverConfig tunes the clearance bisection and the numeric guards around
// it. Velocities are m/s, pressures MPa, flows t/h.
type SolverConfig struct {
	VelocityMin      float64 `yaml:"w_min" json:"w_min"`
	VelocityMax      float64 `yaml:"w_max" json:"w_max"`
	Tolerance        float64 `yaml:"tolerance" json:"tolerance"`
	MaxIterations    int     `yaml:"max_iterations" json:"max_iterations"`
	NudgeEpsilon     float64 `yaml:"nudge_epsilon" json:"nudge_epsilon"`
	NudgeIncrement   float64 `yaml:"nudge_increment" json:"nudge_increment"`
	TerminalFloor    float64 `yaml:"terminal_floor" json:"terminal_floor"`
	DenominatorFloor float64 `yaml:"denominator_floor" json:"denominator_floor"`
}

// DefaultSolverConfig returns the tuning the reference fixtures were built with.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		VelocityMin:      1,
		VelocityMax:      1000,
		Tolerance:        1e-3,
		MaxIterations:    1000,
		NudgeEpsilon:     1e-9,
		NudgeIncrement:   0.003,
		TerminalFloor:    0.001,
		DenominatorFloor: 1e-9,
	}
}

// Validate checks that the bracket and guards are usable.
func (c SolverConfig) Validate() error {
	switch {
	case c.VelocityMin <= 0:
		return fmt.Errorf("solver: w_min must be > 0, got %g", c.VelocityMin)
	case c.VelocityMax <= c.VelocityMin:
		return fmt.Errorf("solver: w_max (%g) must exceed w_min (%g)", c.VelocityMax, c.VelocityMin)
	case c.Tolerance <= 0:
		return fmt.Errorf("solver: tolerance must be > 0, got %g", c.Tolerance)
	case c.MaxIterations <= 0:
		return fmt.Errorf("solver: max_iterations must be > 0, got %d", c.MaxIterations)
	case c.NudgeEpsilon < 0 || c.NudgeIncrement < 0:
		return fmt.Errorf("solver: nudge values must be >= 0")
	case c.TerminalFloor <= 0:
		return fmt.Errorf("solver: terminal_floor must be > 0, got %g", c.TerminalFloor)
	case c.DenominatorFloor <= 0:
		return fmt.Errorf("solver: denominator_floor must be > 0, got %g", c.DenominatorFloor)
	}
	return nil
}
