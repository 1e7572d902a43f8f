package api

import (
	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/server/internal/cache"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string               `json:"status"`
	StoredResults int                  `json:"stored_results"`
	Turbines      int                  `json:"turbines"`
	Valves        int                  `json:"valves"`
	ActiveAlerts  int                  `json:"active_alerts"`
	Solver        leakoff.SolverConfig `json:"solver"`
	Cache         cache.Stats          `json:"cache"`
}

// TurbineResponse is one entry in GET /api/v1/turbines.
type TurbineResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ValveCount int    `json:"valve_count"`
}

// DiagnosticsResponse is the payload for GET /api/v1/calculations/{id}/diagnostics.
type DiagnosticsResponse struct {
	CalculationID string           `json:"calculation_id"`
	ValveDrawing  string           `json:"valve_drawing"`
	Hints         []DiagnosticHint `json:"hints"`
}

// errorResponse is the JSON error body. Kind and Section are set for
// rejected calculations.
type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Section int    `json:"section,omitempty"`
}
