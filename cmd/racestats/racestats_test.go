package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

const resultsCSV = "Rok,Płeć,Kategoria wiekowa,Czas_sekundy,5 km Czas_sekundy,Imię i nazwisko\n" +
	"2023,M,M30,5400,1250,Jan Kowalski\n" +
	"2023,M,M30,5600,1300,Piotr Nowak\n" +
	"2023,K,K30,6400,1500,Anna Nowak\n" +
	"2024,M,M30,5100,1200,Adam Lis\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte(resultsCSV), 0o600); err != nil {
		t.Fatalf("write results: %v", err)
	}
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--data", path}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRacestats(t *testing.T) {
	convey.Convey("Given the racestats command", t, func() {
		convey.Convey("When printing the summary", func() {
			out, err := execute(t, "summary")
			convey.So(err, convey.ShouldBeNil)

			var s types.DatasetSummary
			convey.So(json.Unmarshal([]byte(out), &s), convey.ShouldBeNil)
			convey.So(s.TotalRecords, convey.ShouldEqual, 4)
			convey.So(s.Years, convey.ShouldResemble, []int{2023, 2024})
		})

		convey.Convey("When categorizing a runner", func() {
			out, err := execute(t, "categorize", "--age", "35", "--gender", "k")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"category": "K30"`)
		})

		convey.Convey("When categorizing an out of range age", func() {
			_, err := execute(t, "categorize", "--age", "12", "--gender", "M")
			convey.So(errors.Is(err, service.ErrInvalidRequest), convey.ShouldBeTrue)
		})

		convey.Convey("When printing category statistics", func() {
			out, err := execute(t, "stats", "--category", "m30", "--gender", "M")
			convey.So(err, convey.ShouldBeNil)

			var s types.CategoryStats
			convey.So(json.Unmarshal([]byte(out), &s), convey.ShouldBeNil)
			convey.So(s.Count, convey.ShouldEqual, 3)
			convey.So(*s.Min, convey.ShouldEqual, 5100)
		})

		convey.Convey("When ranking a clock time", func() {
			out, err := execute(t, "rank", "--time", "1:30:00", "--gender", "M")
			convey.So(err, convey.ShouldBeNil)

			var r types.RankingEstimate
			convey.So(json.Unmarshal([]byte(out), &r), convey.ShouldBeNil)
			convey.So(r.TotalRunners, convey.ShouldEqual, 3)
			convey.So(r.FasterRunners, convey.ShouldEqual, 1)
		})

		convey.Convey("When ranking a malformed time", func() {
			_, err := execute(t, "rank", "--time", "fast", "--gender", "M")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When listing the top results", func() {
			out, err := execute(t, "top", "-n", "2")
			convey.So(err, convey.ShouldBeNil)

			var rows []types.Result
			convey.So(json.Unmarshal([]byte(out), &rows), convey.ShouldBeNil)
			convey.So(len(rows), convey.ShouldEqual, 2)
			convey.So(rows[0].FinishSeconds, convey.ShouldEqual, 5100)
		})

		convey.Convey("When listing winners of one gender", func() {
			out, err := execute(t, "winners", "--gender", "K")
			convey.So(err, convey.ShouldBeNil)

			var rows []types.Result
			convey.So(json.Unmarshal([]byte(out), &rows), convey.ShouldBeNil)
			convey.So(len(rows), convey.ShouldEqual, 1)
			convey.So(rows[0].FullName, convey.ShouldEqual, "Anna Nowak")
		})

		convey.Convey("When printing averages by gender", func() {
			out, err := execute(t, "averages", "--group", "gender")
			convey.So(err, convey.ShouldBeNil)

			var rows []types.GroupAverage
			convey.So(json.Unmarshal([]byte(out), &rows), convey.ShouldBeNil)
			convey.So(len(rows), convey.ShouldEqual, 3)
		})

		convey.Convey("When the averages group is unknown", func() {
			_, err := execute(t, "averages", "--group", "country")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When predicting with the linear model", func() {
			out, err := execute(t, "predict", "--gender", "M", "--age", "35", "--5k", "21:40")
			convey.So(err, convey.ShouldBeNil)

			var rep types.Report
			convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
			convey.So(rep.AgeCategory, convey.ShouldEqual, "M30")
			convey.So(rep.Prediction.Seconds, convey.ShouldBeGreaterThan, 0)
			convey.So(rep.Commentary, convey.ShouldBeEmpty)
		})

		convey.Convey("When the data file is missing", func() {
			var out bytes.Buffer
			cmd := newRootCmd(&out)
			cmd.SetArgs([]string{"--data", filepath.Join(t.TempDir(), "missing.csv"), "summary"})
			convey.So(cmd.ExecuteContext(context.Background()), convey.ShouldNotBeNil)
			convey.So(out.Len(), convey.ShouldEqual, 0)
		})
	})
}
