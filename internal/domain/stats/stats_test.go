package stats_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(year int, g model.Gender, cat string, finish int) model.ResultRecord {
	return model.ResultRecord{Year: year, Gender: g, AgeCategory: cat, FinishSeconds: finish}
}

func scenario() *dataset.Dataset {
	return dataset.MustNew([]model.ResultRecord{
		rec(2024, model.Male, "M30", 5400),
		rec(2024, model.Male, "M30", 5600),
		rec(2024, model.Male, "M30", 5400),
	})
}

func mixed() *dataset.Dataset {
	return dataset.MustNew([]model.ResultRecord{
		rec(2023, model.Male, "M30", 5400),
		rec(2023, model.Male, "M40", 5100),
		rec(2023, model.Female, "K30", 6200),
		rec(2024, model.Male, "M30", 5000),
		rec(2024, model.Male, "M30", 5000),
		rec(2024, model.Female, "K30", 5900),
		rec(2024, model.Female, "K40", 7000),
		rec(2024, model.Male, "M40", 6100),
		rec(2024, model.Male, "M30", 4700),
		rec(2023, model.Female, "K30", 6000),
	})
}

func TestCategoryStats(t *testing.T) {
	Convey("Given the three-runner M30 cohort", t, func() {
		s := stats.CategoryStats(scenario(), "M30", model.Male)

		Convey("Then the aggregates match", func() {
			So(s.Count, ShouldEqual, 3)
			So(*s.Min, ShouldEqual, 5400)
			So(*s.Max, ShouldEqual, 5600)
			So(*s.Median, ShouldEqual, 5400)
			So(*s.Mean, ShouldEqual, 5466)
		})
	})

	Convey("Given an even cohort", t, func() {
		ds := dataset.MustNew([]model.ResultRecord{
			rec(2024, model.Female, "K20", 6001),
			rec(2024, model.Female, "K20", 6000),
		})
		s := stats.CategoryStats(ds, "K20", model.Female)

		Convey("Then the median averages the middle pair and truncates", func() {
			So(*s.Median, ShouldEqual, 6000)
			So(*s.Mean, ShouldEqual, 6000)
		})
	})

	Convey("Given a cohort with no rows", t, func() {
		s := stats.CategoryStats(scenario(), "M30", model.Female)

		Convey("Then count is zero and the rest is absent", func() {
			So(s.Empty(), ShouldBeTrue)
			So(s.Mean, ShouldBeNil)
			So(s.Median, ShouldBeNil)
			So(s.Min, ShouldBeNil)
			So(s.Max, ShouldBeNil)
		})
	})

	Convey("Given every populated cohort", t, func() {
		ds := mixed()
		cohorts := []struct {
			code  string
			g     model.Gender
			count int
		}{
			{"M30", model.Male, 4},
			{"M40", model.Male, 2},
			{"K30", model.Female, 3},
			{"K40", model.Female, 1},
		}

		Convey("Then min <= median <= max and counts are exact", func() {
			for _, c := range cohorts {
				s := stats.CategoryStats(ds, c.code, c.g)
				So(s.Count, ShouldEqual, c.count)
				So(*s.Min, ShouldBeLessThanOrEqualTo, *s.Median)
				So(*s.Median, ShouldBeLessThanOrEqualTo, *s.Max)
			}
		})
	})
}

func TestEstimateRanking(t *testing.T) {
	Convey("Given a predicted time between the cohort times", t, func() {
		r := stats.EstimateRanking(scenario(), 5500, model.Male, "M30")

		Convey("Then ties and the +1 offset follow the ranking rules", func() {
			So(r.FasterRunners, ShouldEqual, 2)
			So(r.SlowerRunners, ShouldEqual, 1)
			So(*r.EstimatedPosition, ShouldEqual, 3)
			So(r.TotalRunners, ShouldEqual, 3)
			So(*r.FasterThanPercent, ShouldEqual, 33.3)
			So(*r.Percentile, ShouldEqual, 100.0)
		})
	})

	Convey("Given a predicted time equal to historical times", t, func() {
		r := stats.EstimateRanking(scenario(), 5400, model.Male, "M30")

		Convey("Then equal runners count as neither faster nor slower", func() {
			So(r.FasterRunners, ShouldEqual, 0)
			So(r.SlowerRunners, ShouldEqual, 1)
			So(*r.EstimatedPosition, ShouldEqual, 1)
			So(*r.Percentile, ShouldEqual, 33.3)
		})
	})

	Convey("Given no category", t, func() {
		r := stats.EstimateRanking(mixed(), 5200, model.Male, "")

		Convey("Then the whole gender is the cohort", func() {
			So(r.TotalRunners, ShouldEqual, 6)
			So(r.FasterRunners, ShouldEqual, 4)
			So(*r.EstimatedPosition, ShouldEqual, 5)
			So(*r.Percentile, ShouldEqual, 83.3)
			So(*r.FasterThanPercent, ShouldEqual, 33.3)
		})
	})

	Convey("Given an empty cohort", t, func() {
		r := stats.EstimateRanking(mixed(), 5200, model.Female, "K70")

		Convey("Then every field is absent", func() {
			So(r.Empty(), ShouldBeTrue)
			So(r.EstimatedPosition, ShouldBeNil)
			So(r.Percentile, ShouldBeNil)
			So(r.FasterThanPercent, ShouldBeNil)
		})
	})

	Convey("Given increasing predicted times", t, func() {
		ds := mixed()

		Convey("Then positions stay in range and never decrease", func() {
			prev := 0
			for p := 4000; p <= 7500; p += 50 {
				r := stats.EstimateRanking(ds, p, model.Male, "")
				pos := *r.EstimatedPosition
				So(pos, ShouldBeBetweenOrEqual, 1, r.TotalRunners+1)
				So(pos, ShouldBeGreaterThanOrEqualTo, prev)
				prev = pos
			}
		})
	})
}

func TestOverallTop(t *testing.T) {
	Convey("Given the mixed dataset", t, func() {
		ds := mixed()

		Convey("Then the default leaderboard holds every row in ascending order", func() {
			top := stats.OverallTop(ds, stats.DefaultTopN, stats.TopFilter{})
			So(len(top), ShouldEqual, 10)
			for i := 1; i < len(top); i++ {
				So(top[i-1].FinishSeconds, ShouldBeLessThanOrEqualTo, top[i].FinishSeconds)
			}
		})

		Convey("And filters narrow the cohort", func() {
			top := stats.OverallTop(ds, 10, stats.TopFilter{Year: 2024, Gender: model.Male})
			So(len(top), ShouldEqual, 4)
			So(top[0].FinishSeconds, ShouldEqual, 4700)
			So(top[0].FinishFormatted, ShouldEqual, "1:18:20")
		})

		Convey("And n caps the result", func() {
			top := stats.OverallTop(ds, 2, stats.TopFilter{Gender: model.Female})
			So(len(top), ShouldEqual, 2)
			So(top[0].FinishSeconds, ShouldEqual, 5900)
			So(top[1].FinishSeconds, ShouldEqual, 6000)
		})

		Convey("And non-positive n is empty", func() {
			So(stats.OverallTop(ds, 0, stats.TopFilter{}), ShouldBeEmpty)
		})
	})

	Convey("Given equal finish times", t, func() {
		ds := dataset.MustNew([]model.ResultRecord{
			{Year: 2024, Gender: model.Male, AgeCategory: "M30", FinishSeconds: 5000, FullName: "first"},
			{Year: 2024, Gender: model.Male, AgeCategory: "M40", FinishSeconds: 4000, FullName: "fastest"},
			{Year: 2024, Gender: model.Male, AgeCategory: "M50", FinishSeconds: 5000, FullName: "second"},
		})
		top := stats.OverallTop(ds, 3, stats.TopFilter{})

		Convey("Then dataset order breaks the tie", func() {
			So(top[0].FullName, ShouldEqual, "fastest")
			So(top[1].FullName, ShouldEqual, "first")
			So(top[2].FullName, ShouldEqual, "second")
		})
	})
}

func TestWinnersByGroup(t *testing.T) {
	Convey("Given the mixed dataset", t, func() {
		ds := mixed()
		winners := stats.WinnersByGroup(ds)

		Convey("Then there is one row per group, ordered by the triple", func() {
			So(len(winners), ShouldEqual, 7)
			type key struct {
				y    int
				g, c string
			}
			seen := map[key]bool{}
			for i, w := range winners {
				k := key{w.Year, w.Gender, w.AgeCategory}
				So(seen[k], ShouldBeFalse)
				seen[k] = true
				if i > 0 {
					p := winners[i-1]
					So(p.Year < w.Year ||
						(p.Year == w.Year && p.Gender < w.Gender) ||
						(p.Year == w.Year && p.Gender == w.Gender && p.AgeCategory < w.AgeCategory), ShouldBeTrue)
				}
			}
			So(winners[0].Year, ShouldEqual, 2023)
			So(winners[0].Gender, ShouldEqual, "K")
		})

		Convey("And each row is the group minimum", func() {
			for _, w := range winners {
				s := stats.CategoryStats(ds, w.AgeCategory, model.Gender(w.Gender))
				So(s.Count, ShouldBeGreaterThan, 0)
				lowest := 0
				ds.Each(func(_ int, r model.ResultRecord) bool {
					if r.Year == w.Year && r.Gender.String() == w.Gender && r.AgeCategory == w.AgeCategory {
						if lowest == 0 || r.FinishSeconds < lowest {
							lowest = r.FinishSeconds
						}
					}
					return true
				})
				So(w.FinishSeconds, ShouldEqual, lowest)
			}
		})
	})

	Convey("Given splits that are present and absent", t, func() {
		ds := dataset.MustNew([]model.ResultRecord{
			{Year: 2024, Gender: model.Male, AgeCategory: "M30", FinishSeconds: 5000, HasSplit: true, Split5kSeconds: 1150},
			{Year: 2024, Gender: model.Male, AgeCategory: "M40", FinishSeconds: 5100},
		})
		winners := stats.WinnersByGroup(ds)

		Convey("Then splits are formatted or marked unavailable", func() {
			So(winners[0].SplitFormatted, ShouldEqual, "19:10")
			So(*winners[0].SplitSeconds, ShouldEqual, 1150)
			So(winners[1].SplitFormatted, ShouldEqual, "N/A")
			So(winners[1].SplitSeconds, ShouldBeNil)
		})
	})

	Convey("Given exact ties within a group", t, func() {
		ds := dataset.MustNew([]model.ResultRecord{
			{Year: 2024, Gender: model.Female, AgeCategory: "K50", FinishSeconds: 6500, FullName: "a"},
			{Year: 2024, Gender: model.Female, AgeCategory: "K50", FinishSeconds: 6500, FullName: "b"},
		})

		Convey("Then the first row wins", func() {
			So(stats.WinnersByGroup(ds)[0].FullName, ShouldEqual, "a")
		})
	})
}

func TestWinnerHelpers(t *testing.T) {
	Convey("Given category winners across years", t, func() {
		winners := stats.FilterWinners(stats.WinnersByGroup(mixed()), "M30", model.Male)

		Convey("Then only the category is kept", func() {
			So(len(winners), ShouldEqual, 2)
			So(winners[0].Year, ShouldEqual, 2023)
			So(winners[1].FinishSeconds, ShouldEqual, 4700)
		})

		Convey("And the gap to the best is split into minutes and seconds", func() {
			gap := stats.BestGap(4700+125, winners)
			So(gap.BestSeconds, ShouldEqual, 4700)
			So(gap.GapSeconds, ShouldEqual, 125)
			So(gap.GapMinutes, ShouldEqual, 2)
			So(gap.GapRemainder, ShouldEqual, 5)
			So(gap.BeatsBestTime, ShouldBeFalse)
		})

		Convey("And a faster prediction beats the best", func() {
			gap := stats.BestGap(4600, winners)
			So(gap.BeatsBestTime, ShouldBeTrue)
			So(gap.GapSeconds, ShouldEqual, -100)
			So(gap.GapMinutes, ShouldEqual, 1)
			So(gap.GapRemainder, ShouldEqual, 40)
		})
	})

	Convey("Given no winners", t, func() {
		So(stats.BestGap(5000, nil), ShouldBeNil)
		So(stats.FilterWinners(nil, "M30", model.Male), ShouldBeEmpty)
	})
}

func TestAverages(t *testing.T) {
	Convey("Given the mixed dataset", t, func() {
		ds := mixed()

		Convey("Then group averages are truncated per triple", func() {
			avg := stats.AveragesByGroup(ds)
			So(len(avg), ShouldEqual, 7)
			for _, a := range avg {
				if a.Year == 2024 && a.AgeCategory == "M30" {
					So(a.Runners, ShouldEqual, 3)
					So(a.MeanSeconds, ShouldEqual, 4900)
					So(a.MeanFormatted, ShouldEqual, "1:21:40")
				}
			}
		})

		Convey("And year and gender averages are rounded", func() {
			avg := stats.AveragesBy(ds)
			So(len(avg), ShouldEqual, 4)
			So(avg[0].Year, ShouldEqual, 2023)
			So(avg[0].Gender, ShouldEqual, "K")
			So(avg[0].MeanSeconds, ShouldEqual, 6100)
			So(avg[0].AgeCategory, ShouldEqual, "")
			// 2024 M: 5000+5000+6100+4700 = 20800 / 4
			So(avg[3].MeanSeconds, ShouldEqual, 5200)
		})
	})

	Convey("Given a mean with a half second", t, func() {
		ds := dataset.MustNew([]model.ResultRecord{
			rec(2024, model.Male, "M30", 5001),
			rec(2024, model.Male, "M30", 5002),
		})

		Convey("Then ties round to even", func() {
			So(stats.AveragesBy(ds)[0].MeanSeconds, ShouldEqual, 5002)
			So(stats.AveragesByGroup(ds)[0].MeanSeconds, ShouldEqual, 5001)
		})
	})
}

func TestIdempotence(t *testing.T) {
	Convey("Given repeated queries on one dataset", t, func() {
		ds := mixed()
		encode := func(v any) string {
			b, err := json.Marshal(v)
			So(err, ShouldBeNil)
			return string(b)
		}

		Convey("Then results are byte-identical", func() {
			So(encode(stats.CategoryStats(ds, "M30", model.Male)), ShouldEqual, encode(stats.CategoryStats(ds, "M30", model.Male)))
			So(encode(stats.EstimateRanking(ds, 5300, model.Male, "M30")), ShouldEqual, encode(stats.EstimateRanking(ds, 5300, model.Male, "M30")))
			So(encode(stats.OverallTop(ds, 5, stats.TopFilter{})), ShouldEqual, encode(stats.OverallTop(ds, 5, stats.TopFilter{})))
			So(encode(stats.WinnersByGroup(ds)), ShouldEqual, encode(stats.WinnersByGroup(ds)))
			So(encode(stats.AveragesByGroup(ds)), ShouldEqual, encode(stats.AveragesByGroup(ds)))
		})
	})
}
