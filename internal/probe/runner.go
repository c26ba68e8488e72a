package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/halfpace/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percentMultiplier   = 100
)

// Run executes the complete probe: health check, concurrent submission,
// per-report and cross-report verification.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("probe")

	log.Info(ctx, "starting halfpace probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("runners", cfg.Runners),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	profiles := GenerateProfiles(cfg.Runners)
	stats.Generated = len(profiles)

	results, err := submit(ctx, cfg, client, profiles, stats, log)
	if err != nil {
		return stats, err
	}

	var violations []error
	for _, r := range results {
		violations = append(violations, CheckReport(r.Profile, r.Report)...)
	}
	violations = append(violations, CheckMonotonic(results)...)
	stats.Violations = len(violations)
	if cfg.Verbose {
		for _, v := range violations {
			log.Warn(ctx, "invariant violated", logger.Error(v))
		}
	}

	if cfg.OutputFile != "" {
		if err := saveResults(cfg.OutputFile, results); err != nil {
			log.Warn(ctx, "failed to save reports", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d violations, first: %w", ErrInvariant, stats.Violations, violations[0])
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running and has a dataset.
func checkServiceHealth(ctx context.Context, client *httpClient) error {
	for _, path := range []string{"/healthz", "/v1/dataset"} {
		code, err := client.get(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to connect to service: %w", err)
		}
		if code != http.StatusOK {
			return fmt.Errorf("%s returned status %d", path, code)
		}
	}
	return nil
}

// submit posts every profile with at most cfg.Workers requests in flight.
// Failed requests are counted, not fatal.
func submit(ctx context.Context, cfg *Config, client *httpClient, profiles []Profile, stats *Stats, log logger.Logger) ([]Result, error) {
	var (
		mu         sync.Mutex
		results    = make([]Result, 0, len(profiles))
		submitted  atomic.Int64
		successful atomic.Int64
		failed     atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, p := range profiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			submitted.Add(1)
			var rep Result
			rep.Profile = p
			if err := client.postJSON(gctx, "/v1/predictions", p, &rep.Report); err != nil {
				failed.Add(1)
				if cfg.Verbose {
					log.Warn(gctx, "prediction failed", logger.String("runner", p.Name), logger.Error(err))
				}
				return nil
			}
			successful.Add(1)
			mu.Lock()
			results = append(results, rep)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Successful = int(successful.Load())
	stats.Failed = int(failed.Load())
	if err != nil {
		return nil, fmt.Errorf("submission interrupted: %w", err)
	}
	return results, nil
}

// saveResults writes results to filename as an indented JSON array.
func saveResults(filename string, results []Result) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
