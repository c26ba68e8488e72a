package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/halfpace/internal/adapters/repository"
	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const firstEdition = "Rok,Płeć,Kategoria wiekowa,Czas_sekundy,5 km Czas_sekundy\n" +
	"2023,M,M30,5400,1250\n" +
	"2023,M,M30,5600,1300\n" +
	"2023,K,K30,6400,1500\n" +
	"2023,X,M30,5000,1200\n"

const secondEdition = "2024,M,M30,5000,1180\n" +
	"2024,M,M40,5300,1240\n"

func writeResults(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write results: %v", err)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service loading a CSV file", t, func() {
		path := filepath.Join(t.TempDir(), "results.csv")
		writeResults(t, path, firstEdition)

		svc := service.New(
			service.WithSource(repository.NewCSVSource(path)),
			service.WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
			service.WithCacheSize(64),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then malformed rows are dropped at load", func() {
			stats := svc.GetStats()
			So(stats["datasetRecords"], ShouldEqual, 3)
			So(stats["rowsDropped"], ShouldEqual, 1)
		})

		Convey("When the linear model predicts for a runner", func() {
			rep, err := svc.Predict(ctx, service.PredictionRequest{
				Name: "Anna", Gender: model.Female, Age: 33, Time5kSeconds: 1500,
			})

			Convey("Then the report is complete", func() {
				So(err, ShouldBeNil)
				So(rep.AgeCategory, ShouldEqual, "K30")
				So(rep.BirthYear, ShouldEqual, 1992)
				So(rep.Prediction.Seconds, ShouldBeGreaterThan, 0)
				So(rep.CategoryStats.Count, ShouldEqual, 1)
				So(rep.BestGap, ShouldNotBeNil)
				So(rep.BestGap.BestSeconds, ShouldEqual, 6400)
			})
		})

		Convey("When the file changes and the service reloads", func() {
			before, err := svc.Summary(ctx)
			So(err, ShouldBeNil)
			_, err = svc.CategoryStats(ctx, "M30", model.Male)
			So(err, ShouldBeNil)
			So(svc.Size(), ShouldBeGreaterThan, 0)

			writeResults(t, path, firstEdition+secondEdition)
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then queries see the new version and old entries are gone", func() {
				So(svc.Size(), ShouldEqual, 0)

				after, err := svc.Summary(ctx)
				So(err, ShouldBeNil)
				So(after.Version, ShouldNotEqual, before.Version)
				So(after.Years, ShouldResemble, []int{2023, 2024})

				cs, err := svc.CategoryStats(ctx, "M30", model.Male)
				So(err, ShouldBeNil)
				So(cs.Count, ShouldEqual, 3)
				So(*cs.Min, ShouldEqual, 5000)
			})
		})

		Convey("When the file disappears", func() {
			So(os.Remove(path), ShouldBeNil)
			err := svc.Reload(ctx)

			Convey("Then reload fails and the old snapshot keeps serving", func() {
				So(err, ShouldNotBeNil)
				summary, err := svc.Summary(ctx)
				So(err, ShouldBeNil)
				So(summary.TotalRecords, ShouldEqual, 3)
			})
		})
	})
}
