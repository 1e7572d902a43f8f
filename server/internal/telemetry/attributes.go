package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// Attribute keys used on calculation spans.
const (
	ValveDrawingKey  = "leakoff.valve.drawing"
	TurbineKey       = "leakoff.turbine"
	SectionsKey      = "leakoff.sections"
	PressureUnitKey  = "leakoff.pressure_unit"
	CacheHitKey      = "leakoff.cache_hit"
	EjectorFlowKey   = "leakoff.ejector_flow_total"
	DeaeratorFlowKey = "leakoff.deaerator_flow"
	ErrorKindKey     = "error.type"
	ErrorSectionKey  = "leakoff.error.section"
)

// RequestAttributes describes the calculation being started.
func RequestAttributes(valve types.Valve, req types.CalculationRequest) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ValveDrawingKey, valve.Drawing),
		attribute.String(TurbineKey, valve.TurbineName),
		attribute.Int(SectionsKey, len(req.SectionPressures)),
		attribute.Int(PressureUnitKey, int(req.Unit())),
	}
}

// ResultAttributes summarises a finished calculation.
func ResultAttributes(res types.CalculationResult) []attribute.KeyValue {
	total := 0.0
	for _, e := range res.Ejectors {
		total += e.Flow
	}
	attrs := []attribute.KeyValue{attribute.Float64(EjectorFlowKey, total)}
	if res.Deaerator != nil {
		attrs = append(attrs, attribute.Float64(DeaeratorFlowKey, res.Deaerator.Flow))
	}
	return attrs
}

// ErrorAttributes tags a span with a failure kind and, when known, the
// section it happened in.
func ErrorAttributes(kind string, section int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ErrorKindKey, kind)}
	if section > 0 {
		attrs = append(attrs, attribute.Int(ErrorSectionKey, section))
	}
	return attrs
}
