package api

import (
	"fmt"
	"sort"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// DiagnosticHint is one engineering note about a stored calculation. The UI
// shows Title as a chip next to the result and Detail on hover.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Section is the 1-based section the hint concerns, or 0.
	Section int `json:"section,omitempty"`
	// Value is an optional number the hint refers to (flow, velocity, ...).
	Value *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives hints from a record and the solver tuning in
// effect. Hints are ordered critical first, then warnings, then info.
func computeDiagnostics(rec types.CalculationRecord, cfg leakoff.SolverConfig) []DiagnosticHint {
	var hints []DiagnosticHint
	out := rec.Output

	// ── Deaerator balance ────────────────────────────────────────────────────
	if d := out.Deaerator; d != nil && d.Flow < 0 {
		v := d.Flow
		hints = append(hints, DiagnosticHint{
			Key:   "deaerator_negative",
			Level: "critical",
			Title: "Negative deaerator flow",
			Detail: fmt.Sprintf(
				"The deaerator receives %.4f t/h, i.e. the second section passes more "+
					"steam on to the suction chambers than it takes from the first. "+
					"Check the section pressures: P2 is usually entered too close to P1 "+
					"or the ejector suction pressure is too low.",
				d.Flow),
			Value: &v,
		})
	}

	for _, d := range rec.Diagnostics {
		if d.IterationCap {
			v := d.Velocity
			hints = append(hints, DiagnosticHint{
				Key:     fmt.Sprintf("iteration_cap_%d", d.Section),
				Level:   "warning",
				Title:   fmt.Sprintf("Section %d not converged", d.Section),
				Section: d.Section,
				Detail: fmt.Sprintf(
					"The velocity search stopped after %d iterations without meeting the "+
						"%.g tolerance. The flow for this section is the last midpoint "+
						"and may be off. Widen the velocity bracket or raise max_iterations.",
					d.Iterations, cfg.Tolerance),
				Value: &v,
			})
		}
		if cfg.VelocityMax > 0 && d.Velocity >= 0.99*cfg.VelocityMax {
			v := d.Velocity
			hints = append(hints, DiagnosticHint{
				Key:     fmt.Sprintf("velocity_bracket_%d", d.Section),
				Level:   "warning",
				Title:   fmt.Sprintf("Section %d at w_max", d.Section),
				Section: d.Section,
				Detail: fmt.Sprintf(
					"The solved velocity %.1f m/s sits at the top of the search bracket "+
						"(%.0f m/s). The true root is probably above it.",
					d.Velocity, cfg.VelocityMax),
				Value: &v,
			})
		}
		if d.FloorApplied {
			v := cfg.TerminalFloor
			hints = append(hints, DiagnosticHint{
				Key:     "terminal_floor",
				Level:   "warning",
				Title:   "Terminal flow at floor",
				Section: d.Section,
				Detail: fmt.Sprintf(
					"The last section came out at or below %.3g t/h and was raised to that "+
						"floor. The reported ejector flow for this section is a placeholder, "+
						"not a solved value.",
					cfg.TerminalFloor),
				Value: &v,
			})
		}
		if d.Nudged {
			hints = append(hints, DiagnosticHint{
				Key:     fmt.Sprintf("nudged_%d", d.Section),
				Level:   "info",
				Title:   fmt.Sprintf("Section %d pressures nudged", d.Section),
				Section: d.Section,
				Detail: fmt.Sprintf(
					"Inlet and outlet pressures of section %d were nearly equal, so the "+
						"outlet was lowered by %.3g MPa before solving. Small flows here "+
						"are expected.",
					d.Section, cfg.NudgeIncrement),
			})
		}
	}

	for i, e := range out.Ejectors {
		if e.Flow > 0 {
			continue
		}
		v := e.Flow
		hints = append(hints, DiagnosticHint{
			Key:   fmt.Sprintf("ejector_zero_%d", i+1),
			Level: "info",
			Title: fmt.Sprintf("Ejector stream %d empty", i+1),
			Detail: "No steam or air reaches this ejector tap. Its temperature is " +
				"that of the section stream it would have drawn from.",
			Value: &v,
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		var first float64
		if len(out.SectionFlows) > 0 {
			first = out.SectionFlows[0]
		}
		hints = append(hints, DiagnosticHint{
			Key:   "ok",
			Level: "ok",
			Title: "Solved cleanly",
			Detail: fmt.Sprintf(
				"All %d sections converged inside the velocity bracket without "+
					"adjustments. Leak-off past the first section is %.4f t/h per valve.",
				len(out.SectionFlows), first),
			Value: &first,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}
