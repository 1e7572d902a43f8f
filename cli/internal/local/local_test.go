package local

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/SKB-CADDep/Balance-plus/pkg/catalog"
	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/steamprops"
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

func calculator() *leakoff.Calculator { return leakoff.New(steamprops.New()) }

func TestLoadValve_YAML(t *testing.T) {
	v, err := LoadValve(writeFile(t, t.TempDir(), "valve.yaml", valveYAML))
	require.NoError(t, err)
	assert.Equal(t, "VS-215.40", v.Drawing)
	require.Len(t, v.SectionLengths, 3)
	assert.Equal(t, 97.5, *v.SectionLengths[2])
}

func TestLoadValve_DrawingFromFileName(t *testing.T) {
	body := strings.Replace(valveYAML, "drawing: VS-215.40\n", "", 1)
	v, err := LoadValve(writeFile(t, t.TempDir(), "VS-999.yaml", body))
	require.NoError(t, err)
	assert.Equal(t, "VS-999", v.Drawing)
}

func TestLoadRequest_RejectsUnknownFields(t *testing.T) {
	_, err := LoadRequest(writeFile(t, t.TempDir(), "req.json", `{"p_valuez": [1]}`))
	assert.Error(t, err)

	_, err = LoadRequest(writeFile(t, t.TempDir(), "req.yaml", "p_valuez: [1]\n"))
	assert.Error(t, err)
}

func TestLoadRequest_YAMLMatchesJSON(t *testing.T) {
	dir := t.TempDir()
	fromJSON, err := LoadRequest(writeFile(t, dir, "a.json", requestJSON))
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal([]byte(requestJSON), &generic))
	y, err := yaml.Marshal(generic)
	require.NoError(t, err)
	fromYAML, err := LoadRequest(writeFile(t, dir, "a.yaml", string(y)))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
}

func TestCalculate_SingleValve(t *testing.T) {
	dir := t.TempDir()
	v, err := LoadValve(writeFile(t, dir, "valve.yaml", valveYAML))
	require.NoError(t, err)
	req, err := LoadRequest(writeFile(t, dir, "req.json", requestJSON))
	require.NoError(t, err)

	res, err := Calculate(calculator(), SingleValve(v), "req.json", req)
	require.NoError(t, err)
	assert.Equal(t, "VS-215.40", res.ValveDrawing)
	require.Len(t, res.Output.SectionFlows, 3)
	assert.InDelta(t, 0.536574, res.Output.SectionFlows[0], 1e-3)
	assert.Len(t, res.Diagnostics, 3)
}

func TestCalculate_CatalogUnknownValve(t *testing.T) {
	cat, err := catalog.FromTurbines(nil)
	require.NoError(t, err)
	_, err = Calculate(calculator(), cat, "", types.CalculationRequest{ValveDrawing: "VS-1"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestWriteFile_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	res := Result{ValveDrawing: "VS-215.40", Output: types.CalculationResult{SectionFlows: []float64{0.5, 0.07}}}

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, WriteFile(jsonPath, FormatFor(jsonPath, FormatJSON), res))
	var back Result
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []float64{0.5, 0.07}, back.Output.SectionFlows)

	yamlPath := filepath.Join(dir, "out.yml")
	require.NoError(t, WriteFile(yamlPath, FormatFor(yamlPath, FormatJSON), res))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "valve_drawing: VS-215.40")
	assert.Contains(t, string(data), "Gi:")
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := writeFile(t, t.TempDir(), "out.json", "stale")
	require.NoError(t, WriteFile(path, FormatJSON, map[string]int{"n": 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 1}`, string(data))
}

func TestEncode_UnknownFormat(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, Encode(&sb, "toml", 1))
}

func TestScan_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", requestJSON)
	writeFile(t, dir, "a.yaml", "valve_drawing: VS-215.40\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	jobs, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name())
	assert.Equal(t, "b", jobs[1].Name())
}

func TestRun_BoundedAndOrdered(t *testing.T) {
	jobs := make([]Job, 12)
	for i := range jobs {
		jobs[i] = Job{Path: filepath.Join("in", string(rune('a'+i))+".json")}
	}

	var inFlight, peak atomic.Int32
	out, err := Run(context.Background(), jobs, 3, func(_ context.Context, j Job) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		if j.Name() == "c" {
			return "", errors.New("boom")
		}
		return j.Name(), nil
	})
	require.NoError(t, err)
	require.Len(t, out, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, "a", out[0].Value)
	assert.EqualError(t, out[2].Err, "boom")
	assert.Equal(t, "l", out[11].Value)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{{Path: "a.json"}, {Path: "b.json"}, {Path: "c.json"}}
	var calls atomic.Int32
	out, err := Run(ctx, jobs, 2, func(context.Context, Job) (int, error) {
		calls.Add(1)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
	require.Len(t, out, 3)
	for i, o := range out {
		assert.Equal(t, jobs[i].Name(), o.Job.Name())
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}
