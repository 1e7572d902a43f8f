package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/SKB-CADDep/Balance-plus/pkg/catalog"
	"github.com/SKB-CADDep/Balance-plus/pkg/steamprops"
	"github.com/SKB-CADDep/Balance-plus/server/internal/alerts"
	"github.com/SKB-CADDep/Balance-plus/server/internal/api"
	"github.com/SKB-CADDep/Balance-plus/server/internal/cache"
	"github.com/SKB-CADDep/Balance-plus/server/internal/config"
	"github.com/SKB-CADDep/Balance-plus/server/internal/metrics"
	"github.com/SKB-CADDep/Balance-plus/server/internal/service"
	"github.com/SKB-CADDep/Balance-plus/server/internal/store"
	"github.com/SKB-CADDep/Balance-plus/server/internal/telemetry"
	"github.com/SKB-CADDep/Balance-plus/server/internal/ws"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	readOnlyOpen := flag.Bool("open-reads", true, "serve GET requests without an API key")
	flag.Parse()

	if err := run(*configPath, *readOnlyOpen); err != nil {
		slog.Error("balance-plus-server stopped", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, readOnlyOpen bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	sc := cfg.Server

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(sc.LogLevel)}))
	slog.SetDefault(logger)

	slog.Info("balance-plus-server starting",
		"version", version,
		"config", configPath,
		"http_port", sc.HTTPPort,
		"auth_mode", sc.Auth.Mode,
		"store", sc.Store.Backend,
		"cache", sc.Cache.Enabled,
		"telemetry", sc.Telemetry.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        sc.Telemetry.Enabled,
		ServiceName:    sc.Telemetry.ServiceName,
		ServiceVersion: version,
		ExporterType:   sc.Telemetry.Exporter,
		Endpoint:       sc.Telemetry.Endpoint,
		SamplingRate:   sc.Telemetry.SamplingRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	cat, err := openCatalog(sc.Catalog.Path)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var st store.Store
	switch sc.Store.Backend {
	case "sqlite":
		db, err := store.OpenSQLite(sc.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		st = db
	default:
		mem := store.NewMemory(sc.Store.TTL)
		g.Go(func() error { mem.Run(gctx); return nil })
		st = mem
	}

	var resultCache cache.Cache = cache.Nop{}
	if sc.Cache.Enabled {
		rc, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     sc.Cache.Addr,
			Password: sc.Cache.Password(),
			TTL:      sc.Cache.TTL,
		})
		if err != nil {
			// Calculations still work uncached.
			slog.Warn("result cache disabled", "err", err)
		} else {
			defer rc.Close()
			resultCache = rc
		}
	}

	alertEngine := alerts.New(sc.Alerts)

	var tracing trace.TracerProvider
	if tp.Enabled() {
		tracing = otel.GetTracerProvider()
	}

	hubRef := &lateHub{}
	svc := service.New(steamprops.New(), sc.Solver, cat, st, service.Options{
		Cache:     resultCache,
		Publisher: hubRef,
		Alerts:    alertEngine,
		Logger:    logger,
		Tracing:   tracing,
	})
	hub := ws.New(svc, 15*time.Second)
	hubRef.hub = hub

	if n, err := svc.Count(ctx); err == nil {
		metrics.SetStoredResults(n)
	}

	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", sc.HTTPPort),
		Handler: api.New(svc, alertEngine, api.Options{
			Auth:              sc.Auth,
			ReadOnlyOpen:      readOnlyOpen,
			RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
			Tracing:           tracing,
			Metrics:           metrics.Handler(),
			Live:              hub,
			Logger:            logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("balance-plus-server shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		return httpSrv.Shutdown(shutdownCtx)
	})

	// Solver tuning and alert rules reload live; other settings need a restart.
	g.Go(func() error {
		return config.Watch(gctx, configPath, func(next *config.Config) {
			if err := svc.SetSolverConfig(next.Server.Solver); err != nil {
				slog.Error("solver config rejected", "err", err)
			}
			alertEngine.SetConfig(next.Server.Alerts)
		})
	})

	if cat.Path() != "" {
		g.Go(func() error {
			return config.WatchFile(gctx, cat.Path(), func() {
				if err := cat.Reload(); err != nil {
					slog.Error("catalog reload failed, keeping previous data", "path", cat.Path(), "err", err)
					return
				}
				slog.Info("catalog reloaded", "path", cat.Path(), "turbines", len(cat.Turbines()))
			})
		})
	}

	err = g.Wait()
	alertEngine.Wait()
	return err
}

func openCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		slog.Warn("no catalog configured; every calculation will report an unknown valve")
		return catalog.FromTurbines(nil)
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "path", path, "turbines", len(cat.Turbines()))
	return cat, nil
}

// lateHub breaks the construction cycle between the service, which publishes
// events, and the hub, which counts stored results through the service.
type lateHub struct{ hub *ws.Hub }

func (l *lateHub) Publish(event string, data any) {
	if l.hub != nil {
		l.hub.Publish(event, data)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
