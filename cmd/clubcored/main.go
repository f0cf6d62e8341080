// Command clubcored runs the clubcore HTTP server: tenant-scoped entity
// CRUD under /api/v1, export archives, and optional telemetry endpoints.
package main

import (
	"context"
	"errors"
	"expvar"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubcore/internal/adapters/export"
	"clubcore/internal/adapters/rest"
	"clubcore/internal/config"
	"clubcore/internal/core"
	"clubcore/internal/infra/blob"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	logger := cfg.NewLogger(os.Stderr)

	if err := cfg.Publish(); err != nil {
		logger.Error("publishing backend settings", "error", err)
		os.Exit(1)
	}

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		logger.Error("opening entity store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing entity store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []core.ServiceOption{core.WithLogger(logger)}
	opts, metricsHandler, err := wireTelemetry(cfg, opts, logger)
	if err != nil {
		logger.Error("wiring telemetry", "error", err)
		os.Exit(1)
	}
	svc := core.NewService(store, opts...)

	blobStore, err := blob.Open(ctx)
	if err != nil {
		logger.Error("opening blob store", "driver", cfg.Blob.Driver, "error", err)
		os.Exit(1)
	}
	exporter := export.New(svc, blobStore, export.WithLogger(logger))

	mux := http.NewServeMux()
	mux.Handle("/api/v1/exports", export.NewHandler(exporter))
	mux.Handle("/api/v1/exports/", export.NewHandler(exporter))
	mux.Handle("/api/v1/", rest.NewHandler(svc, logger))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDuration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// wireTelemetry attaches the configured metrics recorders and tracer to the
// service options. The Prometheus handler is returned when enabled so main
// can mount /metrics.
func wireTelemetry(cfg *config.Config, opts []core.ServiceOption, logger *slog.Logger) ([]core.ServiceOption, http.Handler, error) {
	var recorders []core.MetricsRecorder
	var handler http.Handler

	switch cfg.Telemetry.Metrics {
	case "expvar":
		recorders = append(recorders, core.NewExpvarMetricsRecorder("clubcore_service_metrics"))
	case "prometheus", "both":
		rec, err := core.NewPrometheusMetricsRecorder(nil)
		if err != nil {
			return nil, nil, err
		}
		recorders = append(recorders, rec)
		handler = promhttp.Handler()
		if cfg.Telemetry.Metrics == "both" {
			recorders = append(recorders, core.NewExpvarMetricsRecorder("clubcore_service_metrics"))
		}
	case "none":
	}

	switch len(recorders) {
	case 0:
	case 1:
		opts = append(opts, core.WithMetricsRecorder(recorders[0]))
	default:
		opts = append(opts, core.WithMetricsRecorder(fanoutRecorder(recorders)))
	}

	if cfg.Telemetry.TracePath != "" {
		f, err := os.OpenFile(cfg.Telemetry.TracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warn("trace output disabled", "path", cfg.Telemetry.TracePath, "error", err)
		} else {
			opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
		}
	}
	return opts, handler, nil
}

// fanoutRecorder forwards each observation to every attached recorder.
type fanoutRecorder []core.MetricsRecorder

func (f fanoutRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, rec := range f {
		rec.Observe(ctx, operation, success, duration)
	}
}
