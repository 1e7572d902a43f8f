package leakoff

import (
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// UnitInfo describes one supported pressure unit.
type UnitInfo struct {
	Code   types.PressureUnit `json:"code"`
	Name   string             `json:"name"`
	Symbol string             `json:"symbol"`
	ToMPa  float64            `json:"to_mpa"`
}

// unitTable is ordered by code. Factors are exact.
var unitTable = []UnitInfo{
	{Code: types.UnitPa, Name: "pascal", Symbol: "Pa", ToMPa: 1e-6},
	{Code: types.UnitKPa, Name: "kilopascal", Symbol: "kPa", ToMPa: 1e-3},
	{Code: types.UnitKgfPerCm2, Name: "kilogram-force per square centimetre", Symbol: "kgf/cm²", ToMPa: 0.0980665},
	{Code: types.UnitTechnicalAtm, Name: "technical atmosphere", Symbol: "at", ToMPa: 0.0980665},
	{Code: types.UnitBar, Name: "bar", Symbol: "bar", ToMPa: 0.1},
	{Code: types.UnitPhysicalAtm, Name: "physical atmosphere", Symbol: "atm", ToMPa: 0.101325},
}

// Units returns the supported pressure units ordered by code.
func Units() []UnitInfo {
	out := make([]UnitInfo, len(unitTable))
	copy(out, unitTable)
	return out
}

func unitFactor(u types.PressureUnit) (float64, bool) {
	if u == 0 {
		u = types.DefaultPressureUnit
	}
	for _, info := range unitTable {
		if info.Code == u {
			return info.ToMPa, true
		}
	}
	return 0, false
}

// ToMPa converts a pressure in unit u to MPa. A zero unit means kgf/cm².
func ToMPa(value float64, u types.PressureUnit) (float64, error) {
	f, ok := unitFactor(u)
	if !ok {
		return 0, newError(KindGeometry, "normalize", 0, "unknown pressure unit %d", int(u))
	}
	return value * f, nil
}

// FromMPa converts a pressure in MPa back to unit u.
func FromMPa(value float64, u types.PressureUnit) (float64, error) {
	f, ok := unitFactor(u)
	if !ok {
		return 0, newError(KindGeometry, "assemble", 0, "unknown pressure unit %d", int(u))
	}
	return value / f, nil
}
