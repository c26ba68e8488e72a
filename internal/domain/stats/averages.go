package stats

import (
	"math"
	"sort"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/internal/domain/types"
)

type sum struct {
	total int
	n     int
}

func (s sum) mean() float64 { return float64(s.total) / float64(s.n) }

func groupSums(ds *dataset.Dataset, key func(model.ResultRecord) groupKey) ([]groupKey, map[groupKey]sum) {
	sums := make(map[groupKey]sum)
	ds.Each(func(_ int, r model.ResultRecord) bool {
		k := key(r)
		s := sums[k]
		s.total += r.FinishSeconds
		s.n++
		sums[k] = s
		return true
	})
	keys := make([]groupKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys, sums
}

// AveragesByGroup returns the mean finish time, truncated, of every
// (year, gender, category) group ordered by that triple.
func AveragesByGroup(ds *dataset.Dataset) []types.GroupAverage {
	keys, sums := groupSums(ds, keyOf)
	out := make([]types.GroupAverage, len(keys))
	for i, k := range keys {
		s := sums[k]
		mean := int(s.mean())
		out[i] = types.GroupAverage{
			Year:          k.year,
			Gender:        k.gender.String(),
			AgeCategory:   k.code,
			MeanSeconds:   mean,
			MeanFormatted: timefmt.FormatSeconds(mean),
			Runners:       s.n,
		}
	}
	return out
}

// AveragesBy returns the mean finish time of every (year, gender) pair,
// rounded half to even to whole seconds.
func AveragesBy(ds *dataset.Dataset) []types.GroupAverage {
	keys, sums := groupSums(ds, func(r model.ResultRecord) groupKey {
		return groupKey{year: r.Year, gender: r.Gender}
	})
	out := make([]types.GroupAverage, len(keys))
	for i, k := range keys {
		s := sums[k]
		mean := int(math.RoundToEven(s.mean()))
		out[i] = types.GroupAverage{
			Year:          k.year,
			Gender:        k.gender.String(),
			MeanSeconds:   mean,
			MeanFormatted: timefmt.FormatSeconds(mean),
			Runners:       s.n,
		}
	}
	return out
}
