package dataset_test

import (
	"errors"
	"testing"

	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(year int, g model.Gender, cat string, finish int) model.ResultRecord {
	return model.ResultRecord{Year: year, Gender: g, AgeCategory: cat, FinishSeconds: finish, Country: "POL"}
}

func TestNew(t *testing.T) {
	Convey("Given valid records", t, func() {
		in := []model.ResultRecord{
			rec(2023, model.Male, "M30", 5400),
			rec(2024, model.Female, "K40", 6600),
			rec(2024, model.Male, "M20", 4800),
		}
		ds, err := dataset.New(in)

		Convey("Then the dataset is built", func() {
			So(err, ShouldBeNil)
			So(ds.Len(), ShouldEqual, 3)
			So(ds.At(1).AgeCategory, ShouldEqual, "K40")
		})

		Convey("And it does not alias the caller's slice", func() {
			in[0].FinishSeconds = 1
			So(ds.At(0).FinishSeconds, ShouldEqual, 5400)
		})

		Convey("And the summary groups by year", func() {
			s := ds.Summary()
			So(s.TotalRecords, ShouldEqual, 3)
			So(s.Years, ShouldResemble, []int{2023, 2024})
			So(s.RecordsByYear, ShouldResemble, map[int]int{2023: 1, 2024: 2})
			So(s.Version, ShouldEqual, ds.Version())
		})

		Convey("And Each stops when asked", func() {
			visited := 0
			ds.Each(func(i int, r model.ResultRecord) bool {
				visited++
				return i < 1
			})
			So(visited, ShouldEqual, 2)
		})
	})

	Convey("Given identical and different contents", t, func() {
		a := dataset.MustNew([]model.ResultRecord{rec(2023, model.Male, "M30", 5400)})
		b := dataset.MustNew([]model.ResultRecord{rec(2023, model.Male, "M30", 5400)})
		c := dataset.MustNew([]model.ResultRecord{rec(2023, model.Male, "M30", 5401)})

		Convey("Then versions follow the contents", func() {
			So(a.Version(), ShouldEqual, b.Version())
			So(a.Version(), ShouldNotEqual, c.Version())
		})
	})

	Convey("Given records that break the schema", t, func() {
		cases := []model.ResultRecord{
			rec(2023, model.Male, "M30", 0),
			rec(2023, model.Gender("X"), "M30", 5400),
			rec(2023, model.Female, "M30", 5400),
			rec(2023, model.Female, "K80", 5400),
			{Year: 2023, Gender: model.Male, AgeCategory: "M30", FinishSeconds: 10, HasSplit: true, Split5kSeconds: -1},
		}

		Convey("Then New rejects each of them", func() {
			for _, c := range cases {
				_, err := dataset.New([]model.ResultRecord{c})
				So(errors.Is(err, dataset.ErrInvalidRecord), ShouldBeTrue)
			}
		})

		Convey("And MustNew panics", func() {
			So(func() { dataset.MustNew(cases[:1]) }, ShouldPanic)
		})
	})

	Convey("Given no records", t, func() {
		ds, err := dataset.New(nil)
		So(err, ShouldBeNil)
		So(ds.Len(), ShouldEqual, 0)
		So(ds.Years(), ShouldBeEmpty)
	})
}
