package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/SKB-CADDep/Balance-plus/pkg/leakoff"
	"github.com/SKB-CADDep/Balance-plus/pkg/types"
	"github.com/SKB-CADDep/Balance-plus/server/internal/alerts"
	"github.com/SKB-CADDep/Balance-plus/server/internal/auth"
	"github.com/SKB-CADDep/Balance-plus/server/internal/config"
	"github.com/SKB-CADDep/Balance-plus/server/internal/service"
)

// maxBodyBytes caps request bodies on POST routes.
const maxBodyBytes = 1 << 20

// AlertLister exposes currently firing alerts.
type AlertLister interface {
	Active() []*alerts.Alert
}

// Options configures the router. Zero values disable the matching feature.
type Options struct {
	Auth config.AuthConfig
	// ReadOnlyOpen lets GET requests through without an API key.
	ReadOnlyOpen bool

	// RequestsPerMinute is the per-IP limit on /api/v1.
	RequestsPerMinute int

	// Tracing wraps the router with otelhttp using this provider.
	Tracing trace.TracerProvider

	// Metrics and Live are mounted at /metrics and /ws when set.
	Metrics http.Handler
	Live    http.Handler

	Logger *slog.Logger
}

// Handler serves the REST API.
type Handler struct {
	svc    *service.Service
	alerts AlertLister
	log    *slog.Logger
	router chi.Router
}

// New builds the router for svc. al may be nil.
func New(svc *service.Service, al AlertLister, opts Options) http.Handler {
	h := &Handler{svc: svc, alerts: al, log: opts.Logger}
	if h.log == nil {
		h.log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	if opts.Live != nil {
		r.Handle("/ws", opts.Live)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RequestsPerMinute > 0 {
			r.Use(rateLimit(opts.RequestsPerMinute, time.Minute))
		}
		r.Use(auth.APIKey(opts.Auth.Mode, opts.Auth.EffectiveHeader(), opts.Auth.Key(), opts.ReadOnlyOpen))
		r.Use(auth.User)

		r.Get("/health", h.health)
		r.Get("/units", h.units)
		r.Get("/alerts", h.listAlerts)

		r.Route("/calculations", func(r chi.Router) {
			r.Get("/", h.listCalculations)
			r.Post("/", h.createCalculation)
			r.Post("/preview", h.previewCalculation)
			r.Get("/{id}", h.getCalculation)
			r.Delete("/{id}", h.deleteCalculation)
			r.Get("/{id}/diagnostics", h.calculationDiagnostics)
		})

		r.Get("/turbines", h.listTurbines)
		r.Get("/turbines/{name}/valves", h.turbineValves)
		r.Get("/valves/{drawing}", h.getValve)
		r.Get("/valves/{drawing}/results", h.valveResults)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.router = r

	if opts.Tracing != nil {
		return otelhttp.NewHandler(h, "balance-plus",
			otelhttp.WithTracerProvider(opts.Tracing),
			otelhttp.WithFilter(shouldTrace),
			otelhttp.WithSpanNameFormatter(spanName),
		)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- calculations -----------------------------------------------------------

// createCalculation handles POST /api/v1/calculations.
func (h *Handler) createCalculation(w http.ResponseWriter, r *http.Request) {
	h.calculate(w, r, true)
}

// previewCalculation handles POST /api/v1/calculations/preview. Nothing is
// stored or announced.
func (h *Handler) previewCalculation(w http.ResponseWriter, r *http.Request) {
	h.calculate(w, r, false)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request, persist bool) {
	var req types.CalculationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	rec, err := h.svc.Calculate(r.Context(), req, auth.UserFrom(r.Context()), persist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	code := http.StatusOK
	if persist {
		code = http.StatusCreated
		w.Header().Set("Location", "/api/v1/calculations/"+rec.ID)
	}
	jsonResp(w, code, rec)
}

// listCalculations handles GET /api/v1/calculations. ?valve= narrows the
// list to one drawing.
func (h *Handler) listCalculations(w http.ResponseWriter, r *http.Request) {
	var (
		recs []types.CalculationRecord
		err  error
	)
	if drawing := r.URL.Query().Get("valve"); drawing != "" {
		recs, err = h.svc.ListByValve(r.Context(), drawing)
	} else {
		recs, err = h.svc.List(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, nonNil(recs))
}

func (h *Handler) getCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, rec)
}

func (h *Handler) deleteCalculation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// calculationDiagnostics handles GET /api/v1/calculations/{id}/diagnostics.
func (h *Handler) calculationDiagnostics(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, DiagnosticsResponse{
		CalculationID: rec.ID,
		ValveDrawing:  rec.ValveDrawing,
		Hints:         computeDiagnostics(rec, h.svc.SolverConfig()),
	})
}

// --- catalog ----------------------------------------------------------------

func (h *Handler) listTurbines(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	turbines := cat.Turbines()
	out := make([]TurbineResponse, 0, len(turbines))
	for _, t := range turbines {
		full, err := cat.Turbine(t.Name)
		if err != nil {
			// Removed by a concurrent reload.
			continue
		}
		out = append(out, TurbineResponse{ID: t.ID, Name: t.Name, ValveCount: len(full.Valves)})
	}
	jsonResp(w, http.StatusOK, out)
}

func (h *Handler) turbineValves(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Catalog().Turbine(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, nonNil(t.Valves))
}

func (h *Handler) getValve(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Catalog().Valve(chi.URLParam(r, "drawing"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, v)
}

// valveResults handles GET /api/v1/valves/{drawing}/results.
func (h *Handler) valveResults(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListByValve(r.Context(), chi.URLParam(r, "drawing"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, nonNil(recs))
}

// --- misc -------------------------------------------------------------------

func (h *Handler) units(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, leakoff.Units())
}

// health returns GET /api/v1/health. A failing store read degrades the status
// but still answers 200 so load balancers keep routing calculations.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	resp := HealthResponse{
		Status: "ok",
		Solver: h.svc.SolverConfig(),
		Cache:  h.svc.CacheStats(),
	}
	for _, t := range cat.Turbines() {
		resp.Turbines++
		if full, err := cat.Turbine(t.Name); err == nil {
			resp.Valves += len(full.Valves)
		}
	}
	n, err := h.svc.Count(r.Context())
	if err != nil {
		h.log.Warn("api: count stored results", "err", err)
		resp.Status = "degraded"
	}
	resp.StoredResults = n
	if h.alerts != nil {
		resp.ActiveAlerts = len(h.alerts.Active())
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, nonNil(h.alerts.Active()))
}

// --- helpers ----------------------------------------------------------------

// writeError maps err to a status: rejected calculations are 422, unknown
// valves and records 404, everything else 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var calcErr *leakoff.Error
	switch {
	case errors.As(err, &calcErr):
		jsonResp(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   err.Error(),
			Kind:    calcErr.Kind.String(),
			Section: calcErr.Section,
		})
	case service.IsNotFound(err):
		jsonErr(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("api: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err)
		jsonErr(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// rateLimit returns a per-IP sliding window limiter with a JSON 429 body.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			jsonErr(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func shouldTrace(r *http.Request) bool {
	switch r.URL.Path {
	case "/metrics", "/ws", "/api/v1/health":
		return false
	}
	return true
}

func spanName(operation string, r *http.Request) string {
	return operation + " " + r.Method + " " + r.URL.Path
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
