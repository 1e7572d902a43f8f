// Package steamprops provides the water, steam and air properties used by the
// leak-off calculator.
//
// Water and steam follow IAPWS-IF97 regions 1, 2 and 4 (liquid, vapour and
// the saturation line) with viscosity from the IAPWS 2008 formulation.
// Region 3 (near-critical states) is not covered; such states return
// ErrOutOfRange. Air is an ideal gas at atmospheric pressure with Sutherland
// viscosity. Friction and local-loss coefficients are the empirical
// annular-gap correlations used for valve stem seals.
//
// Units: MPa, °C, kJ/kg, m³/kg, Pa·s.
package steamprops
