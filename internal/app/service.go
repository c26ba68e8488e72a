// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/halfpace/internal/adapters/repository"
	"github.com/okian/halfpace/internal/domain/commentary"
	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/memo"
	"github.com/okian/halfpace/internal/domain/predict"
	"github.com/okian/halfpace/pkg/logger"
	"github.com/okian/halfpace/pkg/metrics"
)

// Service answers statistics queries and predictions over one immutable
// dataset snapshot. Query results are memoized per dataset version.
type Service struct {
	mu sync.RWMutex

	// Core components
	source      repository.Source
	ds          *dataset.Dataset
	report      repository.Report
	cache       memo.Cache
	estimator   *predict.Estimator
	predictor   predict.Predictor
	modelName   string
	commentator commentary.Generator

	// Configuration
	cacheSize         int
	eventName         string
	maxSimulations    int
	simulationWorkers int
	now               func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the loader used by Start and Reload.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithDataset serves a pre-built dataset. Start then skips loading.
func WithDataset(ds *dataset.Dataset) Option {
	return func(s *Service) {
		s.ds = ds
	}
}

// WithPredictor replaces the default linear model. name labels metrics.
func WithPredictor(name string, p predict.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
			s.modelName = name
		}
	}
}

// WithClock sets the clock used to derive birth years.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCommentary sets the commentary generator. Defaults to commentary.Noop.
func WithCommentary(g commentary.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.commentator = g
		}
	}
}

// WithCacheSize bounds the query memo. Zero or less means unbounded.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithEventName sets the race name used in commentary.
func WithEventName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.eventName = name
		}
	}
}

// WithMaxSimulations caps the size of a simulation batch.
func WithMaxSimulations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSimulations = n
		}
	}
}

// WithSimulationWorkers bounds concurrent reports within a batch.
func WithSimulationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.simulationWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		predictor:         predict.NewLinearModel(),
		modelName:         "linear",
		commentator:       commentary.Noop{},
		cacheSize:         4096,
		eventName:         "Półmaraton Wrocław",
		maxSimulations:    50,
		simulationWorkers: runtime.NumCPU(),
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.estimator = predict.NewEstimator(s.predictor, predict.WithClock(s.now))
	return s
}

// Start loads the dataset and makes the service ready for queries.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting halfpace service...")

	if s.ds == nil {
		ds, rep, err := s.load(ctx)
		if err != nil {
			return err
		}
		s.ds, s.report = ds, rep
	}

	s.cache = memo.New(
		memo.WithMaxSize(s.cacheSize),
		memo.WithObserver(metrics.RecordCacheLookup),
	)

	s.started = true
	s.logger.Info(ctx, "halfpace service started",
		logger.Int("records", s.ds.Len()),
		logger.String("version", s.ds.Version()),
		logger.String("model", s.modelName),
		logger.Bool("commentary", s.commentator.Enabled()),
		logger.Int("cacheSize", s.cacheSize),
	)

	return nil
}

func (s *Service) load(ctx context.Context) (*dataset.Dataset, repository.Report, error) {
	if s.source == nil {
		return nil, repository.Report{}, ErrNoSource
	}
	ds, rep, err := s.source.Load(ctx)
	if err != nil {
		return nil, rep, fmt.Errorf("load dataset: %w", err)
	}
	return ds, rep, nil
}

// Reload replaces the dataset with a fresh load from the source. Memoized
// results of other versions are dropped.
func (s *Service) Reload(ctx context.Context) error {
	if _, err := s.snapshot(); err != nil {
		return err
	}
	ds, rep, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.ds.Version()
	s.ds, s.report = ds, rep
	s.cache.Retain(ds.Version())
	s.mu.Unlock()

	metrics.UpdateCacheEntries(s.cache.Size())
	s.logger.Info(ctx, "dataset reloaded",
		logger.String("previous", prev),
		logger.String("version", ds.Version()),
		logger.Int("records", ds.Len()),
	)
	return nil
}

// Stop marks the service as stopped. Further queries fail with ErrNotStarted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "halfpace service stopped")
}

// snapshot returns the dataset every query of one call runs against.
func (s *Service) snapshot() (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ds, nil
}

// Ready reports whether queries can be served.
func (s *Service) Ready() bool {
	_, err := s.snapshot()
	return err == nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"model":             s.modelName,
		"commentaryEnabled": s.commentator.Enabled(),
		"cacheSize":         s.cacheSize,
	}

	if s.started {
		stats["datasetRecords"] = s.ds.Len()
		stats["datasetVersion"] = s.ds.Version()
		stats["rowsDropped"] = s.report.DroppedTotal()
		stats["cacheEntries"] = s.cache.Size()

		metrics.UpdateCacheEntries(s.cache.Size())
	}

	return stats
}

// Size returns the current number of memoized results.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return 0
	}
	return s.cache.Size()
}
