package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SKB-CADDep/Balance-plus/cli/internal/local"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

const valveYAML = `
id: 11
drawing: VS-215.40
diameter: 40
clearance: 0.215
round_radius: 2
section_lengths: [313.5, 50, 97.5]
`

const requestJSON = `{
  "valve_drawing": "VS-215.40",
  "temperature_start": 555,
  "t_air": 40,
  "count_valves": 2,
  "p_values": [130, 10, 1.03],
  "p_ejector": [0.97, 0.97]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUnits(t *testing.T) {
	out, err := execute(t, "units")
	require.NoError(t, err)
	assert.Contains(t, out, "kgf/cm²")
	assert.Contains(t, out, "bar")
}

func TestCalc_Stdout(t *testing.T) {
	dir := t.TempDir()
	valve := writeFile(t, dir, "valve.yaml", valveYAML)
	req := writeFile(t, dir, "req.json", requestJSON)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"calc", "-r", req, "--valve", valve})
	require.NoError(t, cmd.Execute())

	var res local.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "VS-215.40", res.ValveDrawing)
	require.Len(t, res.Output.SectionFlows, 3)
	assert.InDelta(t, 0.536574, res.Output.SectionFlows[0], 1e-4)
}

func TestCalc_ValveAndCatalogExclusive(t *testing.T) {
	dir := t.TempDir()
	req := writeFile(t, dir, "req.json", requestJSON)
	_, err := execute(t, "calc", "-r", req, "--valve", "a.yaml", "--catalog", "b.yaml")
	assert.Error(t, err)
}

func TestCalc_NeedsGeometry(t *testing.T) {
	req := writeFile(t, t.TempDir(), "req.json", requestJSON)
	_, err := execute(t, "calc", "-r", req)
	assert.Error(t, err)
}

func TestBatch_WritesResultsAndReportsFailures(t *testing.T) {
	dir := t.TempDir()
	valve := writeFile(t, dir, "valve.yaml", valveYAML)
	reqDir := filepath.Join(dir, "requests")
	require.NoError(t, os.Mkdir(reqDir, 0o755))
	writeFile(t, reqDir, "good.json", requestJSON)
	writeFile(t, reqDir, "bad.json", `{"valve_drawing": "VS-215.40", "temperature_start": 555, "t_air": 40,
  "count_valves": 2, "p_values": [130, 10], "p_ejector": [0.97, 0.97]}`)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "batch", "-d", reqDir, "--valve", valve, "-o", outDir, "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "FAILED")

	_, statErr := os.Stat(filepath.Join(outDir, "good.yaml"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(outDir, "bad.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSubmit_PostsEachFile(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/calculations" {
			http.NotFound(w, r)
			return
		}
		n := posts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.CalculationRecord{ID: "rec-" + string(rune('0'+n)), ValveDrawing: "VS-215.40"})
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", requestJSON)
	b := writeFile(t, dir, "b.json", requestJSON)

	out, err := execute(t, "submit", "--server", srv.URL, "-j", "1", a, b)
	require.NoError(t, err)
	assert.EqualValues(t, 2, posts.Load())
	assert.Contains(t, out, "rec-")
}

func TestSubmit_NoFiles(t *testing.T) {
	_, err := execute(t, "submit", "--server", "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "", "error"} {
		_, err := parseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestCheck_ReportsHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","stored_results":7,"turbines":2,"valves":3}`))
	}))
	defer srv.Close()

	out, err := execute(t, "check", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "stored results")
	assert.Contains(t, out, "7")
}
