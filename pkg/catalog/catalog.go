package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

// ErrNotFound is returned when a turbine or valve lookup misses.
var ErrNotFound = errors.New("catalog: not found")

type file struct {
	Turbines []types.Turbine `yaml:"turbines"`
}

type index struct {
	turbines  []types.Turbine
	byName    map[string]int
	byDrawing map[string]types.Valve
	byID      map[int]types.Valve
}

// Catalog is an in-memory index of turbines and valves.
type Catalog struct {
	path string

	mu  sync.RWMutex
	idx index
}

// Load reads the catalog file at path.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromTurbines builds a catalog without a backing file.
func FromTurbines(turbines []types.Turbine) (*Catalog, error) {
	idx, err := build(turbines)
	if err != nil {
		return nil, err
	}
	return &Catalog{idx: idx}, nil
}

// Path returns the backing file, empty for catalogs built in memory.
func (c *Catalog) Path() string { return c.path }

// Reload re-reads the backing file. On failure the current data is kept.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("catalog: read %q: %w", c.path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("catalog: parse yaml: %w", err)
	}
	idx, err := build(f.Turbines)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.idx = idx
	c.mu.Unlock()
	return nil
}

func build(turbines []types.Turbine) (index, error) {
	idx := index{
		turbines:  make([]types.Turbine, 0, len(turbines)),
		byName:    make(map[string]int, len(turbines)),
		byDrawing: make(map[string]types.Valve),
		byID:      make(map[int]types.Valve),
	}
	for _, t := range turbines {
		if t.Name == "" {
			return index{}, fmt.Errorf("catalog: turbine %d has no name", t.ID)
		}
		if _, dup := idx.byName[t.Name]; dup {
			return index{}, fmt.Errorf("catalog: duplicate turbine %q", t.Name)
		}
		valves := make([]types.Valve, 0, len(t.Valves))
		for _, v := range t.Valves {
			if v.Drawing == "" {
				return index{}, fmt.Errorf("catalog: turbine %q: valve %d has no drawing", t.Name, v.ID)
			}
			if _, dup := idx.byDrawing[v.Drawing]; dup {
				return index{}, fmt.Errorf("catalog: duplicate valve drawing %q", v.Drawing)
			}
			v.TurbineName = t.Name
			idx.byDrawing[v.Drawing] = v
			if v.ID != 0 {
				idx.byID[v.ID] = v
			}
			valves = append(valves, v)
		}
		t.Valves = valves
		idx.byName[t.Name] = len(idx.turbines)
		idx.turbines = append(idx.turbines, t)
	}
	sort.SliceStable(idx.turbines, func(i, j int) bool { return idx.turbines[i].Name < idx.turbines[j].Name })
	for i, t := range idx.turbines {
		idx.byName[t.Name] = i
	}
	return idx, nil
}

// Turbines returns all turbines ordered by name, without their valves.
func (c *Catalog) Turbines() []types.Turbine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Turbine, len(c.idx.turbines))
	for i, t := range c.idx.turbines {
		out[i] = types.Turbine{ID: t.ID, Name: t.Name}
	}
	return out
}

// Turbine returns the named turbine with its valves.
func (c *Catalog) Turbine(name string) (types.Turbine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.idx.byName[name]
	if !ok {
		return types.Turbine{}, fmt.Errorf("turbine %q: %w", name, ErrNotFound)
	}
	t := c.idx.turbines[i]
	t.Valves = append([]types.Valve(nil), t.Valves...)
	return t, nil
}

// Valve looks a valve up by drawing name.
func (c *Catalog) Valve(drawing string) (types.Valve, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.idx.byDrawing[drawing]
	if !ok {
		return types.Valve{}, fmt.Errorf("valve %q: %w", drawing, ErrNotFound)
	}
	return v, nil
}

// ValveByID looks a valve up by its numeric id.
func (c *Catalog) ValveByID(id int) (types.Valve, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.idx.byID[id]
	if !ok {
		return types.Valve{}, fmt.Errorf("valve id %d: %w", id, ErrNotFound)
	}
	return v, nil
}

// Resolve finds the valve a request refers to, preferring the drawing name.
func (c *Catalog) Resolve(req types.CalculationRequest) (types.Valve, error) {
	switch {
	case req.ValveDrawing != "":
		return c.Valve(req.ValveDrawing)
	case req.ValveID != 0:
		return c.ValveByID(req.ValveID)
	default:
		return types.Valve{}, fmt.Errorf("request names no valve: %w", ErrNotFound)
	}
}
