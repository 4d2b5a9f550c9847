package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/okian/ganalytics/internal/app"
	"github.com/okian/ganalytics/internal/config"
	"github.com/okian/ganalytics/pkg/logger"
	"github.com/okian/ganalytics/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	heartbeatInterval = 10 * time.Second
)

// AnalyticsRuntime is the process's own analytics surface.
type AnalyticsRuntime struct {
	_ struct{} `analytics:"convention=lower_snake"`

	Started   func(addr string)
	Heartbeat func(host string, seq int)
	Stopping  func(reason string) error `analytics:"action=shutdown"`
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "service failed", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the analytics service and the metrics endpoint and blocks
// until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithSettings(settings),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	rt, err := app.Bind[AnalyticsRuntime](ctx, svc)
	if err != nil {
		_ = svc.Stop(ctx)
		return err
	}

	registerRuntimeCollectors(metrics.GetRegistry())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	rt.Started(cfg.Addr)
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go heartbeat(hbCtx, rt, heartbeatInterval)

	reason := "signal"
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			reason = "server_error"
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")
	stopHeartbeat()
	if err := rt.Stopping(reason); err != nil {
		log.Warn(ctx, "shutdown event not emitted", logger.Error(err))
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newMux serves Prometheus metrics and a health probe.
func newMux(svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if started, _ := svc.GetStats()["started"].(bool); !started {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// registerRuntimeCollectors adds Go and process metrics to reg once.
func registerRuntimeCollectors(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		var already prometheus.AlreadyRegisteredError
		if err := reg.Register(c); err != nil && !errors.As(err, &already) {
			logger.GetOrNop().Warn(context.Background(), "collector not registered", logger.Error(err))
		}
	}
}

// heartbeat emits a runtime event every interval until ctx is done.
func heartbeat(ctx context.Context, rt AnalyticsRuntime, interval time.Duration) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := 1; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Heartbeat(host, seq)
		}
	}
}
