package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SKB-CADDep/Balance-plus/pkg/catalog"
	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
	"github.com/SKB-CADDep/Balance-plus/server/internal/cache"
	"github.com/SKB-CADDep/Balance-plus/server/internal/metrics"
	"github.com/SKB-CADDep/Balance-plus/server/internal/store"
	"github.com/SKB-CADDep/Balance-plus/server/internal/telemetry"
	"github.com/SKB-CADDep/Balance-plus/server/internal/ws"
)

const tracerName = "github.com/SKB-CADDep/Balance-plus/server/internal/service"

// Publisher pushes events to live subscribers.
type Publisher interface {
	Publish(event string, data any)
}

// Evaluator checks alert rules against a finished calculation.
type Evaluator interface {
	Evaluate(rec types.CalculationRecord)
}

// Options wires optional collaborators. Nil fields fall back to no-ops.
type Options struct {
	Cache     cache.Cache
	Publisher Publisher
	Alerts    Evaluator
	Logger    *slog.Logger

	// Tracing defaults to the global provider.
	Tracing trace.TracerProvider
}

// Service runs and records calculations. It is safe for concurrent use;
// solver tuning can be swapped at runtime with SetSolverConfig.
type Service struct {
	props   leakoff.Properties
	catalog *catalog.Catalog
	store   store.Store
	cache   cache.Cache
	pub     Publisher
	alerts  Evaluator
	log     *slog.Logger
	tracer  trace.Tracer

	calc atomic.Pointer[leakoff.Calculator]

	now   func() time.Time
	newID func() string
}

// New builds a Service using props for fluid properties and cfg for solver
// tuning.
func New(props leakoff.Properties, cfg leakoff.SolverConfig, cat *catalog.Catalog, st store.Store, opts Options) *Service {
	s := &Service{
		props:   props,
		catalog: cat,
		store:   st,
		cache:   opts.Cache,
		pub:     opts.Publisher,
		alerts:  opts.Alerts,
		log:     opts.Logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.Tracing != nil {
		s.tracer = opts.Tracing.Tracer(tracerName)
	} else {
		s.tracer = telemetry.Tracer(tracerName)
	}
	s.calc.Store(leakoff.New(props, leakoff.WithSolverConfig(cfg), leakoff.WithLogger(s.log)))
	return s
}

// SetSolverConfig replaces the solver tuning for subsequent calculations.
func (s *Service) SetSolverConfig(cfg leakoff.SolverConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.calc.Store(leakoff.New(s.props, leakoff.WithSolverConfig(cfg), leakoff.WithLogger(s.log)))
	s.log.Info("service: solver config updated", "w_min", cfg.VelocityMin, "w_max", cfg.VelocityMax, "tolerance", cfg.Tolerance)
	return nil
}

// SolverConfig returns the tuning currently in effect.
func (s *Service) SolverConfig() leakoff.SolverConfig { return s.calc.Load().Config() }

// Catalog exposes the valve catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// CacheStats reports result cache traffic.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// Count returns the number of stored calculations.
func (s *Service) Count(ctx context.Context) (int, error) { return s.store.Count(ctx) }

// Calculate resolves the valve named by req, runs the calculation and, when
// persist is set, stores and announces the record. user is recorded as the
// author and may be empty.
func (s *Service) Calculate(ctx context.Context, req types.CalculationRequest, user string, persist bool) (types.CalculationRecord, error) {
	valve, err := s.catalog.Resolve(req)
	if err != nil {
		metrics.RecordFailure("unknown_valve")
		return types.CalculationRecord{}, err
	}

	ctx, span := s.tracer.Start(ctx, "leakoff.calculate", trace.WithAttributes(telemetry.RequestAttributes(valve, req)...))
	defer span.End()

	calc := s.calc.Load()
	key := cache.Key(valve, req, calc.Config())

	var (
		result types.CalculationResult
		diags  []types.SectionDiagnostics
	)
	entry, hit := s.cache.Get(ctx, key)
	metrics.RecordCacheLookup(hit)
	span.SetAttributes(attribute.Bool(telemetry.CacheHitKey, hit))
	if hit {
		result, diags = entry.Result, entry.Diagnostics
	} else {
		start := time.Now()
		out, err := calc.Calculate(valve, req)
		if err != nil {
			kind := leakoff.KindOf(err).String()
			metrics.RecordFailure(kind)
			span.SetAttributes(telemetry.ErrorAttributes(kind, leakoff.SectionOf(err))...)
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
			s.log.Debug("service: calculation rejected", "valve", valve.Drawing, "kind", kind, "err", err)
			return types.CalculationRecord{}, err
		}
		result, diags = out.Result, out.Diagnostics()
		metrics.RecordSuccess(len(out.Stages), time.Since(start), diags)
		s.cache.Set(ctx, key, cache.Entry{Result: result, Diagnostics: diags})
	}
	span.SetAttributes(telemetry.ResultAttributes(result)...)

	req.ValveDrawing = valve.Drawing
	req.TurbineName = valve.TurbineName
	rec := types.CalculationRecord{
		ValveDrawing: valve.Drawing,
		TurbineName:  valve.TurbineName,
		UserName:     user,
		CreatedAt:    s.now().UTC(),
		Input:        req,
		Output:       result,
		Diagnostics:  diags,
	}
	if !persist {
		return rec, nil
	}

	rec.ID = s.newID()
	if err := s.store.Put(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store")
		return types.CalculationRecord{}, fmt.Errorf("service: save calculation: %w", err)
	}
	s.refreshCount(ctx)

	s.log.Info("service: calculation stored",
		"id", rec.ID,
		"valve", rec.ValveDrawing,
		"sections", len(result.SectionFlows),
		"cached", hit)

	if s.pub != nil {
		s.pub.Publish(ws.EventCalculationCreated, rec)
	}
	if s.alerts != nil {
		s.alerts.Evaluate(rec)
	}
	return rec, nil
}

// Get returns a stored calculation.
func (s *Service) Get(ctx context.Context, id string) (types.CalculationRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns all stored calculations, newest first.
func (s *Service) List(ctx context.Context) ([]types.CalculationRecord, error) {
	return s.store.List(ctx)
}

// ListByValve returns stored calculations for one valve, newest first. The
// drawing must exist in the catalog.
func (s *Service) ListByValve(ctx context.Context, drawing string) ([]types.CalculationRecord, error) {
	if _, err := s.catalog.Valve(drawing); err != nil {
		return nil, err
	}
	return s.store.ListByValve(ctx, drawing)
}

// Delete removes a stored calculation and announces the deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshCount(ctx)
	s.log.Info("service: calculation deleted", "id", id)
	if s.pub != nil {
		s.pub.Publish(ws.EventCalculationDeleted, map[string]string{"id": id})
	}
	return nil
}

func (s *Service) refreshCount(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		s.log.Warn("service: count stored results", "err", err)
		return
	}
	metrics.SetStoredResults(n)
}

// IsNotFound reports whether err means an unknown valve, turbine or record.
func IsNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound) || errors.Is(err, store.ErrNotFound)
}
