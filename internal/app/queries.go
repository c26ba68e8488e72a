package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/memo"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/stats"
	"github.com/okian/halfpace/internal/domain/types"
	"github.com/okian/halfpace/pkg/metrics"
)

// Memoized operations.
const (
	opCategoryStats = "category_stats"
	opRanking       = "ranking"
	opTop           = "top"
	opWinners       = "winners"
	opAverages      = "averages"
)

// query runs fn through the memo under (version, op, params) and records
// query metrics. Returned slices are shared between callers and must not be
// modified.
func query[T any](s *Service, ds *dataset.Dataset, op string, fn func() T, params ...any) (T, error) {
	start := time.Now()
	v, err := memo.Typed(s.cache, memo.NewKey(ds.Version(), op, params...), func() (T, error) {
		return fn(), nil
	})
	metrics.RecordQuery(op, float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateCacheEntries(s.cache.Size())
	return v, err
}

// Summary describes the loaded dataset.
func (s *Service) Summary(_ context.Context) (types.DatasetSummary, error) {
	ds, err := s.snapshot()
	if err != nil {
		return types.DatasetSummary{}, err
	}
	return ds.Summary(), nil
}

// Categorize returns the category code for age and gender.
func (s *Service) Categorize(_ context.Context, age int, g model.Gender) (string, error) {
	if !g.Valid() {
		return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidRequest, g)
	}
	code, err := category.CategorizeStrict(age, g)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return code, nil
}

func validCohort(code string, g model.Gender) error {
	if !g.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidRequest, g)
	}
	if code != "" && !category.Valid(code, g) {
		return fmt.Errorf("%w: category %q does not exist for gender %s", ErrInvalidRequest, code, g)
	}
	return nil
}

// CategoryStats aggregates the finish times of a (category, gender) cohort.
func (s *Service) CategoryStats(_ context.Context, code string, g model.Gender) (types.CategoryStats, error) {
	ds, err := s.snapshot()
	if err != nil {
		return types.CategoryStats{}, err
	}
	if code == "" {
		return types.CategoryStats{}, fmt.Errorf("%w: category is required", ErrInvalidRequest)
	}
	if err := validCohort(code, g); err != nil {
		return types.CategoryStats{}, err
	}
	return query(s, ds, opCategoryStats, func() types.CategoryStats {
		return stats.CategoryStats(ds, code, g)
	}, code, g)
}

// Ranking places a finish time in the gender cohort, narrowed to a category
// when code is not empty.
func (s *Service) Ranking(_ context.Context, seconds int, g model.Gender, code string) (types.RankingEstimate, error) {
	ds, err := s.snapshot()
	if err != nil {
		return types.RankingEstimate{}, err
	}
	if seconds <= 0 {
		return types.RankingEstimate{}, fmt.Errorf("%w: time must be positive", ErrInvalidRequest)
	}
	if err := validCohort(code, g); err != nil {
		return types.RankingEstimate{}, err
	}
	return query(s, ds, opRanking, func() types.RankingEstimate {
		return stats.EstimateRanking(ds, seconds, g, code)
	}, seconds, g, code)
}

// Top returns the n fastest results matching f.
func (s *Service) Top(_ context.Context, n int, f stats.TopFilter) ([]types.Result, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", ErrInvalidRequest)
	}
	if f.Gender != "" && !f.Gender.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %q", ErrInvalidRequest, f.Gender)
	}
	return query(s, ds, opTop, func() []types.Result {
		return stats.OverallTop(ds, n, f)
	}, n, f.Year, f.Gender)
}

// Winners returns the fastest result of every (year, gender, category) group,
// filtered by category and gender when given.
func (s *Service) Winners(_ context.Context, code string, g model.Gender) ([]types.Result, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if g != "" && !g.Valid() {
		return nil, fmt.Errorf("%w: unknown gender %q", ErrInvalidRequest, g)
	}
	if code != "" {
		if _, cg, ok := category.Lookup(code); !ok || (g != "" && cg != g) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, code)
		}
	}
	all, err := query(s, ds, opWinners, func() []types.Result {
		return stats.WinnersByGroup(ds)
	})
	if err != nil || (code == "" && g == "") {
		return all, err
	}
	return stats.FilterWinners(all, code, g), nil
}

// Averages returns mean finish times per (year, gender, category), or per
// (year, gender) when byCategory is false.
func (s *Service) Averages(_ context.Context, byCategory bool) ([]types.GroupAverage, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return query(s, ds, opAverages, func() []types.GroupAverage {
		if byCategory {
			return stats.AveragesByGroup(ds)
		}
		return stats.AveragesBy(ds)
	}, byCategory)
}
