package probe

import (
	"fmt"
	"sort"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/types"
)

// Result pairs a submitted profile with the report the server returned.
type Result struct {
	Profile Profile      `json:"profile"`
	Report  types.Report `json:"report"`
}

// CheckReport verifies the invariants a single report must satisfy.
func CheckReport(p Profile, rep types.Report) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: "+format, append([]any{p.Name}, args...)...))
	}

	g, err := model.ParseGender(p.Gender)
	if err != nil {
		fail("profile gender: %v", err)
		return errs
	}
	if want := category.Categorize(p.Age, g); rep.AgeCategory != want {
		fail("age_category %q, want %q", rep.AgeCategory, want)
	}
	if rep.Gender != g.String() || rep.Age != p.Age {
		fail("echoed gender/age %s/%d, want %s/%d", rep.Gender, rep.Age, g, p.Age)
	}
	if rep.Prediction.Seconds <= 0 {
		fail("non-positive prediction %d", rep.Prediction.Seconds)
	}

	for name, r := range map[string]types.RankingEstimate{
		"general_ranking":  rep.GeneralRanking,
		"category_ranking": rep.CategoryRanking,
	} {
		for _, e := range checkRanking(r) {
			fail("%s: %v", name, e)
		}
	}
	if rep.CategoryRanking.TotalRunners > rep.GeneralRanking.TotalRunners {
		fail("category cohort %d larger than gender cohort %d",
			rep.CategoryRanking.TotalRunners, rep.GeneralRanking.TotalRunners)
	}
	if rep.CategoryStats.Count != rep.CategoryRanking.TotalRunners {
		fail("category_stats count %d, category_ranking total %d",
			rep.CategoryStats.Count, rep.CategoryRanking.TotalRunners)
	}

	best := 0
	for i, w := range rep.CategoryWinners {
		if w.AgeCategory != rep.AgeCategory || w.Gender != rep.Gender {
			fail("winner %d is %s/%s", i, w.Gender, w.AgeCategory)
		}
		if i > 0 && w.Year <= rep.CategoryWinners[i-1].Year {
			fail("winners not ordered by year at %d", i)
		}
		if best == 0 || w.FinishSeconds < best {
			best = w.FinishSeconds
		}
	}
	switch {
	case len(rep.CategoryWinners) == 0 && rep.BestGap != nil:
		fail("best_gap present without winners")
	case len(rep.CategoryWinners) > 0 && rep.BestGap == nil:
		fail("best_gap missing")
	case rep.BestGap != nil:
		if rep.BestGap.BestSeconds != best {
			fail("best_gap best %d, fastest winner %d", rep.BestGap.BestSeconds, best)
		}
		if rep.BestGap.GapSeconds != rep.Prediction.Seconds-best {
			fail("best_gap gap %d, want %d", rep.BestGap.GapSeconds, rep.Prediction.Seconds-best)
		}
	}
	return errs
}

func checkRanking(r types.RankingEstimate) []error {
	if r.TotalRunners == 0 {
		if r.EstimatedPosition != nil || r.Percentile != nil || r.FasterThanPercent != nil {
			return []error{fmt.Errorf("empty cohort with non-null fields")}
		}
		return nil
	}
	if r.EstimatedPosition == nil {
		return []error{fmt.Errorf("missing position for %d runners", r.TotalRunners)}
	}
	var errs []error
	pos := *r.EstimatedPosition
	if pos < 1 || pos > r.TotalRunners+1 {
		errs = append(errs, fmt.Errorf("position %d outside 1..%d", pos, r.TotalRunners+1))
	}
	if pos != r.FasterRunners+1 {
		errs = append(errs, fmt.Errorf("position %d with %d faster runners", pos, r.FasterRunners))
	}
	if r.FasterRunners+r.SlowerRunners > r.TotalRunners {
		errs = append(errs, fmt.Errorf("faster %d + slower %d exceed %d", r.FasterRunners, r.SlowerRunners, r.TotalRunners))
	}
	return errs
}

// CheckMonotonic verifies that within a cohort a slower prediction never
// ranks ahead of a faster one.
func CheckMonotonic(results []Result) []error {
	general := map[string][]types.Report{}
	byCategory := map[string][]types.Report{}
	for _, r := range results {
		general[r.Report.Gender] = append(general[r.Report.Gender], r.Report)
		key := r.Report.Gender + "/" + r.Report.AgeCategory
		byCategory[key] = append(byCategory[key], r.Report)
	}

	var errs []error
	check := func(cohort string, reps []types.Report, ranking func(types.Report) types.RankingEstimate) {
		sort.SliceStable(reps, func(i, j int) bool {
			return reps[i].Prediction.Seconds < reps[j].Prediction.Seconds
		})
		for i := 1; i < len(reps); i++ {
			prev, cur := ranking(reps[i-1]), ranking(reps[i])
			if prev.EstimatedPosition == nil || cur.EstimatedPosition == nil {
				continue
			}
			if *cur.EstimatedPosition < *prev.EstimatedPosition {
				errs = append(errs, fmt.Errorf("%s: %s (%ds) ranks %d ahead of %s (%ds) at %d",
					cohort, reps[i].Name, reps[i].Prediction.Seconds, *cur.EstimatedPosition,
					reps[i-1].Name, reps[i-1].Prediction.Seconds, *prev.EstimatedPosition))
			}
		}
	}
	for gender, reps := range general {
		check(gender, reps, func(r types.Report) types.RankingEstimate { return r.GeneralRanking })
	}
	for cohort, reps := range byCategory {
		check(cohort, reps, func(r types.Report) types.RankingEstimate { return r.CategoryRanking })
	}
	return errs
}
