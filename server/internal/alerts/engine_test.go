package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
	"github.com/SKB-CADDep/Balance-plus/server/internal/config"
)

func threeSectionRecord(id string) types.CalculationRecord {
	return types.CalculationRecord{
		ID:           id,
		ValveDrawing: "VS-215.40",
		Output: types.CalculationResult{
			SectionFlows: []float64{0.5366, 0.0741, 0.0035},
			Deaerator:    &types.Extraction{Flow: 0.925},
			Ejectors:     []types.Extraction{{Flow: 0.155}, {Flow: 0.02}},
		},
		Diagnostics: []types.SectionDiagnostics{
			{Section: 1, Iterations: 20},
			{Section: 2, Iterations: 21, Nudged: true},
			{Section: 3, Iterations: 19, FloorApplied: true},
		},
	}
}

func TestEvalCondition(t *testing.T) {
	rec := threeSectionRecord("c1")
	cases := []struct {
		cond  string
		fires bool
		value float64
	}{
		{"total_ejector_flow > 0.1", true, 0.175},
		{"deaerator_flow < 0", false, 0.925},
		{"max_section_flow >= 0.5366", true, 0.5366},
		{"min_section_flow <= 0.0035", true, 0.0035},
		{"terminal_floor_hits > 0", true, 1},
		{"nudged_sections == 1", true, 1},
		{"iterations_max != 21", false, 21},
		{"unknown_field > 0", false, 0},
		{"deaerator_flow >", false, 0},
		{"deaerator_flow > abc", false, 0},
		{"deaerator_flow ~ 1", false, 0.925},
	}
	for _, tc := range cases {
		t.Run(tc.cond, func(t *testing.T) {
			fires, v := evalCondition(tc.cond, rec)
			assert.Equal(t, tc.fires, fires)
			assert.InDelta(t, tc.value, v, 1e-12)
		})
	}
}

func TestEvalCondition_NoDeaerator(t *testing.T) {
	rec := threeSectionRecord("c1")
	rec.Output.Deaerator = nil
	fires, _ := evalCondition("deaerator_flow < 1", rec)
	assert.False(t, fires)
}

func TestEngine_FireCooldownResolve(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "floor", Condition: "terminal_floor_hits > 0", Cooldown: time.Minute},
	}})
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	rec := threeSectionRecord("c1")
	e.Evaluate(rec)
	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "firing", active[0].State)
	assert.Equal(t, "c1", active[0].CalculationID)
	assert.Equal(t, "warning", active[0].Severity)
	firstID := active[0].ID

	// within cooldown: no new alert
	clock = clock.Add(30 * time.Second)
	e.Evaluate(rec)
	require.Len(t, e.Active(), 1)
	assert.Equal(t, firstID, e.Active()[0].ID)

	// condition clears
	clean := threeSectionRecord("c2")
	clean.Diagnostics[2].FloorApplied = false
	e.Evaluate(clean)
	active = e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "resolved", active[0].State)
	require.NotNil(t, active[0].ResolvedAt)

	// resolved alerts age out of Active after an hour
	clock = clock.Add(2 * time.Hour)
	assert.Empty(t, e.Active())
	e.Wait()
}

func TestEngine_PerValveKeys(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "ejector", Condition: "total_ejector_flow > 0.1", Severity: "critical"},
	}})
	a := threeSectionRecord("a")
	b := threeSectionRecord("b")
	b.ValveDrawing = "VS-230.50"

	e.Evaluate(a)
	e.Evaluate(b)
	assert.Len(t, e.Active(), 2)
	e.Wait()
}

func TestEngine_SetConfigDropsRemovedRules(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "floor", Condition: "terminal_floor_hits > 0"},
	}})
	e.Evaluate(threeSectionRecord("c1"))
	require.Len(t, e.Active(), 1)

	e.SetConfig(config.AlertsConfig{})
	assert.Empty(t, e.Active())
	e.Evaluate(threeSectionRecord("c2"))
	assert.Empty(t, e.Active())
	e.Wait()
}

func TestEngine_WebhookDelivery(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		mu.Lock()
		bodies = append(bodies, m)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("HOOK_HTTP", srv.URL)
	t.Setenv("HOOK_SLACK", srv.URL)
	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "dea", Condition: "deaerator_flow > 0.5"}},
		Webhooks: []config.WebhookConfig{
			{Type: "http", URLEnv: "HOOK_HTTP"},
			{Type: "slack", URLEnv: "HOOK_SLACK"},
			{Type: "pager", URLEnv: "HOOK_HTTP"},
			{Type: "teams", URLEnv: "HOOK_UNSET"},
		},
	})

	e.Evaluate(threeSectionRecord("c1"))
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	alert, ok := bodies[0]["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VS-215.40", alert["valve_drawing"])
	assert.Contains(t, bodies[1]["text"], "[WARNING]")
}

func TestEngine_WebhookFailureIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{})
	err := e.send(srv.URL, []byte(`{}`))
	assert.ErrorContains(t, err, "502")
}

func TestPayloads(t *testing.T) {
	firing := &Alert{
		RuleName:      "dea-backflow",
		ValveDrawing:  "VS-215.40",
		CalculationID: "c7",
		Severity:      "critical",
		Value:         -0.012,
		State:         "firing",
	}

	raw, err := slackMessage(firing)
	require.NoError(t, err)
	var slack map[string]string
	require.NoError(t, json.Unmarshal(raw, &slack))
	assert.Equal(t, "[CRITICAL] valve VS-215.40 leak-off: dea-backflow (value -0.012)", slack["text"])

	raw, err = teamsCard(firing)
	require.NoError(t, err)
	var card struct {
		ThemeColor string `json:"themeColor"`
		Sections   []struct {
			Facts []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"facts"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, "D13438", card.ThemeColor)
	require.Len(t, card.Sections, 1)
	facts := map[string]string{}
	for _, f := range card.Sections[0].Facts {
		facts[f.Name] = f.Value
	}
	assert.Equal(t, "VS-215.40", facts["Valve"])
	assert.Equal(t, "c7", facts["Calculation"])
	assert.Equal(t, "-0.012", facts["Value"])

	resolved := *firing
	resolved.State = "resolved"
	assert.Equal(t, "[RESOLVED] valve VS-215.40 back within limits: dea-backflow", headline(&resolved))
	assert.Equal(t, "[INFO]", levelTag(""))
}
