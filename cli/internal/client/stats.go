package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric families exported by balance-plus-server.
const (
	famCalculations = "leakoff_calculations_total"
	famErrors       = "leakoff_calculation_errors_total"
	famSolverFlags  = "leakoff_solver_flags_total"
	famCache        = "leakoff_cache_requests_total"
	famStored       = "leakoff_stored_results"
)

// Stats is a summary of the server's calculation counters.
type Stats struct {
	Calculations  map[string]float64 `json:"calculations"`   // by outcome
	Errors        map[string]float64 `json:"errors"`         // by kind
	SolverFlags   map[string]float64 `json:"solver_flags"`   // by flag
	Cache         map[string]float64 `json:"cache"`          // hit / miss
	StoredResults float64            `json:"stored_results"` // gauge
}

// Stats scrapes GET /metrics and summarises the leak-off counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.retry(ctx, "metrics", func(ctx context.Context) error {
		mfs, err := c.fetchMetrics(ctx)
		if err != nil {
			return err
		}
		st = summarise(mfs)
		return nil
	})
	return st, err
}

func (c *Client) fetchMetrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: "metrics endpoint"}
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser // legacy name validation is the package default in this prometheus/common version
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

func summarise(mfs map[string]*dto.MetricFamily) Stats {
	return Stats{
		Calculations:  sumByLabel(mfs[famCalculations], "outcome"),
		Errors:        sumByLabel(mfs[famErrors], "kind"),
		SolverFlags:   sumByLabel(mfs[famSolverFlags], "flag"),
		Cache:         sumByLabel(mfs[famCache], "result"),
		StoredResults: sumFamily(mfs[famStored]),
	}
}

// sumByLabel adds up sample values grouped by one label. A nil family gives
// an empty map.
func sumByLabel(mf *dto.MetricFamily, label string) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, m := range mf.GetMetric() {
		key := ""
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				key = lp.GetValue()
				break
			}
		}
		out[key] += value(m)
	}
	return out
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += value(m)
	}
	return total
}

func value(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}
