package stats

import (
	"sort"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/internal/domain/types"
)

// DefaultTopN is the size of the overall leaderboard.
const DefaultTopN = 10

// TopFilter narrows OverallTop. Zero values disable the corresponding filter.
type TopFilter struct {
	Year   int
	Gender model.Gender
}

func (f TopFilter) match(r model.ResultRecord) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Gender != "" && r.Gender != f.Gender {
		return false
	}
	return true
}

// ToResult converts a record into its display shape.
func ToResult(r model.ResultRecord) types.Result {
	out := types.Result{
		Year:            r.Year,
		Gender:          r.Gender.String(),
		AgeCategory:     r.AgeCategory,
		FullName:        r.FullName,
		Country:         r.Country,
		FinishSeconds:   r.FinishSeconds,
		FinishFormatted: timefmt.FormatSeconds(r.FinishSeconds),
		SplitFormatted:  timefmt.FormatSplitOptional(r.Split()),
	}
	if s, ok := r.Split(); ok {
		out.SplitSeconds = &s
	}
	return out
}

// OverallTop returns the n fastest matching records, fastest first. Equal
// times keep dataset order. n <= 0 yields an empty result.
func OverallTop(ds *dataset.Dataset, n int, f TopFilter) []types.Result {
	if n <= 0 {
		return []types.Result{}
	}
	var rows []model.ResultRecord
	ds.Each(func(_ int, r model.ResultRecord) bool {
		if f.match(r) {
			rows = append(rows, r)
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FinishSeconds < rows[j].FinishSeconds
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]types.Result, len(rows))
	for i, r := range rows {
		out[i] = ToResult(r)
	}
	return out
}

type groupKey struct {
	year   int
	gender model.Gender
	code   string
}

func (k groupKey) less(o groupKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.gender != o.gender {
		return k.gender < o.gender
	}
	return k.code < o.code
}

func keyOf(r model.ResultRecord) groupKey {
	return groupKey{year: r.Year, gender: r.Gender, code: r.AgeCategory}
}

// WinnersByGroup returns the fastest record of every (year, gender, category)
// group ordered by that triple. The first record wins exact ties.
func WinnersByGroup(ds *dataset.Dataset) []types.Result {
	best := make(map[groupKey]model.ResultRecord)
	ds.Each(func(_ int, r model.ResultRecord) bool {
		k := keyOf(r)
		if cur, ok := best[k]; !ok || r.FinishSeconds < cur.FinishSeconds {
			best[k] = r
		}
		return true
	})

	keys := make([]groupKey, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]types.Result, len(keys))
	for i, k := range keys {
		out[i] = ToResult(best[k])
	}
	return out
}

// FilterWinners keeps the rows of one category and gender, preserving order.
// An empty code or gender matches every row.
func FilterWinners(rows []types.Result, code string, g model.Gender) []types.Result {
	out := []types.Result{}
	for _, r := range rows {
		if (code == "" || r.AgeCategory == code) && (g == "" || r.Gender == g.String()) {
			out = append(out, r)
		}
	}
	return out
}

// BestGap compares predicted with the fastest of winners. It returns nil when
// winners is empty.
func BestGap(predicted int, winners []types.Result) *types.BestGap {
	if len(winners) == 0 {
		return nil
	}
	best := winners[0].FinishSeconds
	for _, w := range winners[1:] {
		if w.FinishSeconds < best {
			best = w.FinishSeconds
		}
	}
	gap := predicted - best
	abs := gap
	if abs < 0 {
		abs = -abs
	}
	return &types.BestGap{
		BestSeconds:   best,
		BestFormatted: timefmt.FormatSeconds(best),
		GapSeconds:    gap,
		GapMinutes:    abs / 60,
		GapRemainder:  abs % 60,
		BeatsBestTime: gap <= 0,
	}
}
