package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// Resolver finds the valve geometry a request refers to. *catalog.Catalog
// implements it.
type Resolver interface {
	Resolve(req types.CalculationRequest) (types.Valve, error)
}

// SingleValve resolves every request to the same geometry.
type SingleValve types.Valve

func (v SingleValve) Resolve(types.CalculationRequest) (types.Valve, error) {
	return types.Valve(v), nil
}

// Result is what calc and batch write for one request.
type Result struct {
	Source       string                     `json:"source,omitempty"`
	ValveDrawing string                     `json:"valve_drawing"`
	TurbineName  string                     `json:"turbine_name,omitempty"`
	Input        types.CalculationRequest   `json:"input_data"`
	Output       types.CalculationResult    `json:"output_data"`
	Diagnostics  []types.SectionDiagnostics `json:"diagnostics,omitempty"`
}

// Calculate resolves the valve for req and runs the calculator.
func Calculate(calc *leakoff.Calculator, res Resolver, source string, req types.CalculationRequest) (Result, error) {
	valve, err := res.Resolve(req)
	if err != nil {
		return Result{}, err
	}
	out, err := calc.Calculate(valve, req)
	if err != nil {
		return Result{}, err
	}
	req.ValveDrawing = valve.Drawing
	return Result{
		Source:       source,
		ValveDrawing: valve.Drawing,
		TurbineName:  valve.TurbineName,
		Input:        req,
		Output:       out.Result,
		Diagnostics:  out.Diagnostics(),
	}, nil
}

// Job is one request file.
type Job struct {
	Path    string
	Request types.CalculationRequest
}

// Name is the file name without directory or extension.
func (j Job) Name() string {
	base := filepath.Base(j.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Scan loads every .json, .yaml and .yml request in dir, ordered by file
// name. Subdirectories are not visited.
func Scan(dir string) ([]Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", dir, err)
	}
	var jobs []Job
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		req, err := LoadRequest(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, Job{Path: path, Request: req})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs, nil
}

// Outcome pairs a job with what fn produced for it.
type Outcome[T any] struct {
	Job   Job
	Value T
	Err   error
}

// Run applies fn to every job with at most limit calls in flight. A failing
// job does not stop the others; outcomes keep the order of jobs. The returned
// error is non-nil only when ctx ends before all jobs ran.
func Run[T any](ctx context.Context, jobs []Job, limit int, fn func(context.Context, Job) (T, error)) ([]Outcome[T], error) {
	if limit < 1 {
		limit = 1
	}
	out := make([]Outcome[T], len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		if err := gctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				out[j] = Outcome[T]{Job: jobs[j], Err: err}
			}
			break
		}
		i, job := i, job // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = Outcome[T]{Job: job, Err: err}
				return err
			}
			v, err := fn(gctx, job)
			out[i] = Outcome[T]{Job: job, Value: v, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
