package stats

import (
	"strconv"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/types"
)

// EstimateRanking places predicted among the runners of gender g, narrowed to
// category code when code is not empty.
//
// Historical runners with exactly the predicted time count as neither faster
// nor slower. Percentile is derived from the position and FasterThanPercent
// from the slower count, so the two do not sum to 100.
func EstimateRanking(ds *dataset.Dataset, predicted int, g model.Gender, code string) types.RankingEstimate {
	var total, faster, slower int
	ds.Each(func(_ int, r model.ResultRecord) bool {
		if r.Gender != g || (code != "" && r.AgeCategory != code) {
			return true
		}
		total++
		switch {
		case r.FinishSeconds < predicted:
			faster++
		case r.FinishSeconds > predicted:
			slower++
		}
		return true
	})
	if total == 0 {
		return types.RankingEstimate{}
	}

	position := faster + 1
	percentile := round1(float64(position) / float64(total) * 100)
	fasterThan := round1(float64(slower) / float64(total) * 100)
	return types.RankingEstimate{
		EstimatedPosition: &position,
		TotalRunners:      total,
		Percentile:        &percentile,
		FasterThanPercent: &fasterThan,
		FasterRunners:     faster,
		SlowerRunners:     slower,
	}
}

// round1 rounds to one decimal place using the shortest correctly rounded
// decimal form, so exact binary ties go to even.
func round1(x float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return v
}
