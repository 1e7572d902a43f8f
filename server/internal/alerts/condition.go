package alerts

import (
	"strconv"
	"strings"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// evalCondition evaluates a rule condition string against a calculation.
//
// Supported expressions (field operator value):
//
//	total_ejector_flow > 2
//	deaerator_flow < 0
//	max_section_flow > 1.5
//	min_section_flow <= 0.001
//	terminal_floor_hits > 0
//	nudged_sections > 0
//	iterations_max >= 1000
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is
// unknown or absent from rec (deaerator_flow on a two-section valve).
func evalCondition(cond string, rec types.CalculationRecord) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	v, ok := numericField(field, rec)
	if !ok {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the record.
func numericField(field string, rec types.CalculationRecord) (float64, bool) {
	out := rec.Output
	switch field {
	case "total_ejector_flow":
		sum := 0.0
		for _, e := range out.Ejectors {
			sum += e.Flow
		}
		return sum, true
	case "deaerator_flow":
		if out.Deaerator == nil {
			return 0, false
		}
		return out.Deaerator.Flow, true
	case "max_section_flow", "min_section_flow":
		if len(out.SectionFlows) == 0 {
			return 0, false
		}
		v := out.SectionFlows[0]
		for _, g := range out.SectionFlows[1:] {
			if (field == "max_section_flow") == (g > v) {
				v = g
			}
		}
		return v, true
	case "terminal_floor_hits":
		return countDiag(rec, func(d types.SectionDiagnostics) bool { return d.FloorApplied }), true
	case "nudged_sections":
		return countDiag(rec, func(d types.SectionDiagnostics) bool { return d.Nudged }), true
	case "iterations_max":
		m := 0
		for _, d := range rec.Diagnostics {
			if d.Iterations > m {
				m = d.Iterations
			}
		}
		return float64(m), true
	default:
		return 0, false
	}
}

func countDiag(rec types.CalculationRecord, match func(types.SectionDiagnostics) bool) float64 {
	n := 0
	for _, d := range rec.Diagnostics {
		if match(d) {
			n++
		}
	}
	return float64(n)
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
