package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
	"github.com/SKB-CADDep/Balance-plus/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID            string     `json:"id"`
	RuleName      string     `json:"rule_name"`
	ValveDrawing  string     `json:"valve_drawing"`
	CalculationID string     `json:"calculation_id"`
	Severity      string     `json:"severity"`
	Message       string     `json:"message"`
	Value         float64    `json:"value"`
	FiredAt       time.Time  `json:"fired_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	State         string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against finished calculations and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: "ruleName:valveDrawing"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts

	client   *http.Client
	now      func() time.Time
	delivery sync.WaitGroup
}

// New creates an Engine from the server alert configuration.
// An Engine with empty rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// SetConfig swaps rules and webhooks after a config reload. Firing alerts
// for rules that no longer exist are dropped.
func (e *Engine) SetConfig(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks

	keep := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		keep[r.Name] = true
	}
	for key, a := range e.active {
		if !keep[a.RuleName] {
			delete(e.active, key)
		}
	}
}

// Evaluate tests all configured rules against rec.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing for the same valve but whose condition is now false
// are resolved.
func (e *Engine) Evaluate(rec types.CalculationRecord) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()

	now := e.now()
	for _, rule := range rules {
		fires, value := evalCondition(rule.Condition, rec)
		if fires {
			e.fire(rule, rec, value, now)
		} else {
			e.resolve(rule, rec.ValveDrawing, now)
		}
	}
}

func (e *Engine) fire(rule config.AlertRule, rec types.CalculationRecord, value float64, now time.Time) {
	key := rule.Name + ":" + rec.ValveDrawing
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	e.mu.Lock()
	if last, ok := e.lastFire[key]; ok && now.Sub(last) <= cooldown {
		e.mu.Unlock()
		return
	}
	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:            fmt.Sprintf("%s:%s:%d", rule.Name, rec.ValveDrawing, now.UnixNano()),
		RuleName:      rule.Name,
		ValveDrawing:  rec.ValveDrawing,
		CalculationID: rec.ID,
		Severity:      sev,
		Value:         value,
		Message: fmt.Sprintf("[%s] %s fired on valve %s: %s (value %.4g)",
			sev, rule.Name, rec.ValveDrawing, rule.Condition, value),
		FiredAt: now,
		State:   "firing",
	}
	e.active[key] = a
	e.lastFire[key] = now
	alertCopy := *a
	e.mu.Unlock()

	slog.Warn("alerts: fired",
		"rule", rule.Name,
		"valve", rec.ValveDrawing,
		"value", value,
		"severity", sev,
	)
	e.dispatch(&alertCopy)
}

func (e *Engine) resolve(rule config.AlertRule, drawing string, now time.Time) {
	key := rule.Name + ":" + drawing

	e.mu.Lock()
	a, ok := e.active[key]
	if !ok || a.State != "firing" {
		e.mu.Unlock()
		return
	}
	resolved := now
	a.State = "resolved"
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	slog.Info("alerts: resolved", "rule", rule.Name, "valve", drawing)
	e.dispatch(&alertCopy)
}

func (e *Engine) dispatch(a *Alert) {
	e.delivery.Add(1)
	go func() {
		defer e.delivery.Done()
		e.notify(a)
	}()
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() { e.delivery.Wait() }

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}
