// Package stats implements the read-only queries over a results dataset:
// category aggregates, ranking estimates, top-N and category winners.
//
// Every function is a pure function of its arguments. Callers that want to
// cache results key them by the dataset version.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/types"
)

// finishTimes collects the finish times of rows matching keep, in row order.
func finishTimes(ds *dataset.Dataset, keep func(model.ResultRecord) bool) []float64 {
	var out []float64
	ds.Each(func(_ int, r model.ResultRecord) bool {
		if keep(r) {
			out = append(out, float64(r.FinishSeconds))
		}
		return true
	})
	return out
}

// CategoryStats aggregates finish times of the (code, gender) cohort.
// Mean, median, min and max are truncated to whole seconds.
func CategoryStats(ds *dataset.Dataset, code string, g model.Gender) types.CategoryStats {
	xs := finishTimes(ds, func(r model.ResultRecord) bool {
		return r.Gender == g && r.AgeCategory == code
	})
	return aggregate(xs)
}

func aggregate(xs []float64) types.CategoryStats {
	if len(xs) == 0 {
		return types.CategoryStats{}
	}
	mean := int(stat.Mean(xs, nil))
	median := int(median(xs))
	lo := int(floats.Min(xs))
	hi := int(floats.Max(xs))
	return types.CategoryStats{
		Count:  len(xs),
		Mean:   &mean,
		Median: &median,
		Min:    &lo,
		Max:    &hi,
	}
}

// median of a non-empty sample; even sizes average the two middle values.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
