package types

import "time"

// PressureUnit selects the unit in which section and suction pressures are
// supplied and reported.
type PressureUnit int

const (
	UnitPa           PressureUnit = 1
	UnitKPa          PressureUnit = 2
	UnitKgfPerCm2    PressureUnit = 3
	UnitTechnicalAtm PressureUnit = 4
	UnitBar          PressureUnit = 5
	UnitPhysicalAtm  PressureUnit = 6
)

// DefaultPressureUnit applies when a request leaves the unit unset.
const DefaultPressureUnit = UnitKgfPerCm2

// Valve is the geometry of one valve stem as stored in the catalog.
// Lengths and diameters are in millimetres.
type Valve struct {
	ID          int     `json:"id" yaml:"id"`
	Drawing     string  `json:"drawing" yaml:"drawing"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty"`
	TurbineName string  `json:"turbine_name,omitempty" yaml:"-"`
	Diameter    float64 `json:"diameter" yaml:"diameter"`
	Clearance   float64 `json:"clearance" yaml:"clearance"`
	RoundRadius float64 `json:"round_radius" yaml:"round_radius"`

	// SectionLengths lists lengths in stem order; a nil entry ends the list.
	SectionLengths []*float64 `json:"section_lengths" yaml:"section_lengths"`
}

// Turbine groups the valves fitted to one turbine model.
type Turbine struct {
	ID     int     `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Valves []Valve `json:"valves" yaml:"valves"`
}

// CalculationRequest is the caller-supplied process data for one valve.
type CalculationRequest struct {
	TurbineName  string `json:"turbine_name,omitempty" yaml:"turbine_name,omitempty"`
	ValveDrawing string `json:"valve_drawing,omitempty" yaml:"valve_drawing,omitempty"`
	ValveID      int    `json:"valve_id,omitempty" yaml:"valve_id,omitempty"`

	StartTemperature        float64      `json:"temperature_start" yaml:"temperature_start"`
	AirTemperature          float64      `json:"t_air" yaml:"t_air"`
	ValveCount              int          `json:"count_valves" yaml:"count_valves"`
	SectionPressures        []float64    `json:"p_values" yaml:"p_values"`
	EjectorSuctionPressures []float64    `json:"p_ejector" yaml:"p_ejector"`
	PressureUnit            PressureUnit `json:"pressure_unit,omitempty" yaml:"pressure_unit,omitempty"`
}

// Unit returns the requested pressure unit, falling back to kgf/cm².
func (r CalculationRequest) Unit() PressureUnit {
	if r.PressureUnit == 0 {
		return DefaultPressureUnit
	}
	return r.PressureUnit
}

// Extraction is the mixed stream delivered to a deaerator or ejector tap.
type Extraction struct {
	Flow        float64 `json:"g"` // t/h
	Temperature float64 `json:"t"` // °C
	Enthalpy    float64 `json:"h"` // kJ/kg
	Pressure    float64 `json:"p"` // caller unit
}

// CalculationResult is the per-section and per-extraction output for one
// request. Deaerator is nil for two-section valves.
type CalculationResult struct {
	SectionFlows        []float64    `json:"Gi"`
	SectionPressures    []float64    `json:"Pi_in"`
	SectionTemperatures []float64    `json:"Ti"`
	SectionEnthalpies   []float64    `json:"Hi"`
	Deaerator           *Extraction  `json:"deaerator,omitempty"`
	Ejectors            []Extraction `json:"ejectors"`
	PressureUnit        PressureUnit `json:"pressure_unit"`
}

// SectionDiagnostics summarises how the clearance solver settled for one
// section. Not part of the engineering result, but kept with it so hints can
// be derived later.
type SectionDiagnostics struct {
	Section      int     `json:"section"`
	Fluid        string  `json:"fluid"`
	Velocity     float64 `json:"velocity"`
	Reynolds     float64 `json:"reynolds"`
	Friction     float64 `json:"friction"`
	Discharge    float64 `json:"discharge"`
	Iterations   int     `json:"iterations"`
	Nudged       bool    `json:"nudged,omitempty"`
	FloorApplied bool    `json:"floor_applied,omitempty"`
	IterationCap bool    `json:"iteration_cap,omitempty"`
}

// CalculationRecord is a stored calculation: request, result and metadata.
type CalculationRecord struct {
	ID           string               `json:"id"`
	ValveDrawing string               `json:"valve_drawing"`
	TurbineName  string               `json:"turbine_name,omitempty"`
	UserName     string               `json:"user_name,omitempty"`
	CreatedAt    time.Time            `json:"calc_timestamp"`
	Input        CalculationRequest   `json:"input_data"`
	Output       CalculationResult    `json:"output_data"`
	Diagnostics  []SectionDiagnostics `json:"diagnostics,omitempty"`
}
