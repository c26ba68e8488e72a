package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/halfpace/internal/adapters/http/api"
	"github.com/okian/halfpace/internal/adapters/http/swagger"
	"github.com/okian/halfpace/internal/adapters/repository"
	app "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/config"
	"github.com/okian/halfpace/internal/domain/commentary"
	"github.com/okian/halfpace/internal/domain/predict"
	"github.com/okian/halfpace/pkg/logger"
	"github.com/okian/halfpace/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "halfpace exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go reloadOnHangup(ctx, svc, loggerInstance)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newService wires the configured dataset source, model and commentary.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	name, predictor := newPredictor(cfg)
	return app.New(
		app.WithLogger(log),
		app.WithSource(repository.NewCSVSource(cfg.DataFile, repository.WithLogger(log.Named("repository")))),
		app.WithPredictor(name, predictor),
		app.WithCommentary(newCommentary(cfg)),
		app.WithCacheSize(cfg.CacheSize),
		app.WithEventName(cfg.EventName),
		app.WithMaxSimulations(cfg.MaxSimulations),
		app.WithSimulationWorkers(cfg.SimulationWorkers),
	)
}

func newPredictor(cfg *config.Config) (string, predict.Predictor) {
	if cfg.PredictorKind == config.PredictorRemote {
		return config.PredictorRemote, predict.NewRemotePredictor(cfg.PredictorURL,
			predict.WithTimeout(time.Duration(cfg.PredictorTimeoutMS)*time.Millisecond),
			predict.WithRetries(cfg.PredictorMaxRetries, 200*time.Millisecond),
		)
	}
	return config.PredictorLinear, predict.LinearModel{
		Intercept:     cfg.ModelIntercept,
		Coef5k:        cfg.ModelCoef5k,
		CoefFemale:    cfg.ModelCoefFemale,
		CoefBirthYear: cfg.ModelCoefBirthYear,
	}
}

func newCommentary(cfg *config.Config) commentary.Generator {
	return commentary.New(cfg.CommentaryAPIKey,
		commentary.WithBaseURL(cfg.CommentaryBaseURL),
		commentary.WithModel(cfg.CommentaryModel),
		commentary.WithTemperature(float32(cfg.CommentaryTemperature)),
		commentary.WithMaxTokens(cfg.CommentaryMaxTokens),
		commentary.WithTimeout(time.Duration(cfg.CommentaryTimeoutMS)*time.Millisecond),
		commentary.WithLanguage(cfg.CommentaryLanguage),
	)
}

// newMux registers the API docs and business routes.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxTopLimit, log.Named("api")).Register(ctx, mux)
	return mux
}

// reloadOnHangup reloads the dataset on SIGHUP.
func reloadOnHangup(ctx context.Context, svc *app.Service, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := svc.Reload(ctx); err != nil {
				log.Error(ctx, "dataset reload failed", logger.Error(err))
			}
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
