package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/commentary"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/stats"
	"github.com/okian/halfpace/internal/domain/types"
	"github.com/okian/halfpace/pkg/logger"
	"github.com/okian/halfpace/pkg/metrics"
)

// PredictionRequest describes one runner.
type PredictionRequest struct {
	Name          string
	Gender        model.Gender
	Age           int
	Time5kSeconds int
}

func (r PredictionRequest) validate() (string, error) {
	if strings.TrimSpace(r.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if !r.Gender.Valid() {
		return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidRequest, r.Gender)
	}
	if r.Time5kSeconds <= 0 {
		return "", fmt.Errorf("%w: 5 km time must be positive", ErrInvalidRequest)
	}
	code, err := category.CategorizeStrict(r.Age, r.Gender)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return code, nil
}

// Predict estimates the finish time of one runner and puts it in the
// context of the historical results. Commentary is attached when the
// generator is enabled; its failures never fail the prediction.
func (s *Service) Predict(ctx context.Context, req PredictionRequest) (types.Report, error) {
	return s.buildReport(ctx, req, true)
}

// Simulate builds reports for a batch of what-if profiles concurrently.
// Reports come back in request order and carry no commentary.
func (s *Service) Simulate(ctx context.Context, reqs []PredictionRequest) ([]types.Report, error) {
	if _, err := s.snapshot(); err != nil {
		return nil, err
	}
	switch {
	case len(reqs) == 0:
		return nil, fmt.Errorf("%w: no profiles to simulate", ErrInvalidRequest)
	case len(reqs) > s.maxSimulations:
		return nil, fmt.Errorf("%w: at most %d profiles per batch", ErrInvalidRequest, s.maxSimulations)
	}
	metrics.RecordSimulationBatch(len(reqs))

	out := make([]types.Report, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.simulationWorkers)
	for i, req := range reqs {
		g.Go(func() error {
			rep, err := s.buildReport(gctx, req, false)
			if err != nil {
				return fmt.Errorf("profile %d: %w", i, err)
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) buildReport(ctx context.Context, req PredictionRequest, withCommentary bool) (types.Report, error) {
	ds, err := s.snapshot()
	if err != nil {
		return types.Report{}, err
	}
	code, err := req.validate()
	if err != nil {
		return types.Report{}, err
	}

	features := s.estimator.Features(req.Gender, req.Age, req.Time5kSeconds)
	start := time.Now()
	pred, err := s.estimator.Estimate(ctx, features)
	if err != nil {
		metrics.RecordPredictionError(s.modelName)
		return types.Report{}, fmt.Errorf("predict: %w", err)
	}
	metrics.RecordPrediction(s.modelName, float64(time.Since(start).Microseconds())/1000)

	catStats, err := s.CategoryStats(ctx, code, req.Gender)
	if err != nil {
		return types.Report{}, err
	}
	general, err := s.Ranking(ctx, pred.Seconds, req.Gender, "")
	if err != nil {
		return types.Report{}, err
	}
	inCategory, err := s.Ranking(ctx, pred.Seconds, req.Gender, code)
	if err != nil {
		return types.Report{}, err
	}
	winners, err := s.Winners(ctx, code, req.Gender)
	if err != nil {
		return types.Report{}, err
	}

	rep := types.Report{
		Name:            strings.TrimSpace(req.Name),
		Gender:          req.Gender.String(),
		Age:             req.Age,
		BirthYear:       features.BirthYear,
		AgeCategory:     code,
		Prediction:      pred,
		CategoryStats:   catStats,
		GeneralRanking:  general,
		CategoryRanking: inCategory,
		CategoryWinners: winners,
		BestGap:         stats.BestGap(pred.Seconds, winners),
	}

	s.logger.Debug(ctx, "prediction served",
		logger.String("category", code),
		logger.Int("predicted", pred.Seconds),
		logger.String("version", ds.Version()),
	)

	if withCommentary {
		rep.Commentary = s.comment(ctx, rep, inCategory)
	}
	return rep, nil
}

// comment returns the generated commentary or "" on any failure.
func (s *Service) comment(ctx context.Context, rep types.Report, ranking types.RankingEstimate) string {
	if !s.commentator.Enabled() {
		metrics.RecordCommentary("disabled", 0)
		return ""
	}
	start := time.Now()
	text, err := s.commentator.Generate(ctx, commentary.Context{
		Name:          rep.Name,
		Gender:        model.Gender(rep.Gender),
		Age:           rep.Age,
		AgeCategory:   rep.AgeCategory,
		Predicted:     rep.Prediction.Formatted,
		EventName:     s.eventName,
		CategoryStats: rep.CategoryStats,
		Ranking:       ranking,
	})
	took := float64(time.Since(start).Microseconds()) / 1000
	switch {
	case errors.Is(err, commentary.ErrDisabled):
		metrics.RecordCommentary("disabled", 0)
		return ""
	case err != nil:
		metrics.RecordCommentary("error", took)
		metrics.RecordErrorByComponent("commentary", "generate")
		s.logger.Warn(ctx, "commentary unavailable", logger.Error(err))
		return ""
	}
	metrics.RecordCommentary("ok", took)
	return text
}
