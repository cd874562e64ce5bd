// Command hotspotd is the hotspot scoring service.
// It serves the report API, Prometheus metrics and a health check.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/api"
	"github.com/hotspot-prioritizer/hotspot/internal/config"
	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
	"github.com/hotspot-prioritizer/hotspot/internal/observability"
	"github.com/hotspot-prioritizer/hotspot/internal/platform"
)

func main() {
	configPath := flag.String("config", os.Getenv("HOTSPOT_CONFIG"), "service config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := platform.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("hotspotd exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	deps, err := wire(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := ingestion.NewService(deps.engine, deps.store,
		ingestion.WithStorage(deps.storage),
		ingestion.WithLocation(deps.location),
		ingestion.WithText(deps.text),
		ingestion.WithDetector(deps.detector),
		ingestion.WithPublisher(deps.publisher),
		ingestion.WithMetrics(metrics),
		ingestion.WithLogger(logger),
	)

	mux := http.NewServeMux()
	handler := api.NewHandler(svc, deps.models, api.NewReportCache(cfg.Server.ReportCacheSize), logger)
	handler.RegisterRoutes(mux, api.APIKeyAuth(cfg.Server.APIKey))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler(deps.ping))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.AccessLog(logger, api.CORS(cfg.Server.CORSOrigin, mux)),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting hotspotd", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
