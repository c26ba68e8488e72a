package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/halfpace/internal/domain/model"
)

const sampleCSV = "\xEF\xBB\xBFRok,Płeć,Kategoria wiekowa,Czas_sekundy,5 km Czas_sekundy,Kraj,Imię i nazwisko\n" +
	"2023,M,M30,5400,1250,POL,Jan Kowalski\n" +
	"2023,K,K40,6600.0,,GER,Anna Schmidt\n" +
	"2024,M,M20,4800,1100,,Piotr Nowak\n" +
	"2024,X,M20,4800,1100,POL,Bad Gender\n" +
	"2024,M,M20,,1100,POL,No Finish\n" +
	",M,M20,4800,1100,POL,No Year\n" +
	"2024,K,K80,7000,1600,POL,Bad Category\n" +
	"2024,M,M20,0,1100,POL,Zero Finish\n"

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestCSVSource_Load(t *testing.T) {
	ctx := context.Background()
	ds, rep, err := NewCSVSource(writeTemp(t, sampleCSV)).Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.Rows != 8 {
		t.Errorf("expected 8 rows, got %d", rep.Rows)
	}
	if rep.Kept != 3 || ds.Len() != 3 {
		t.Errorf("expected 3 kept rows, got report %d, dataset %d", rep.Kept, ds.Len())
	}
	if rep.DroppedTotal() != 5 {
		t.Errorf("expected 5 dropped rows, got %d", rep.DroppedTotal())
	}
	want := map[string]int{DropBadGender: 1, DropBadFinish: 2, DropMissingYear: 1, DropBadCategory: 1}
	for reason, n := range want {
		if rep.Dropped[reason] != n {
			t.Errorf("reason %s: expected %d, got %d", reason, n, rep.Dropped[reason])
		}
	}
	if rep.Columns[0] != "Rok" {
		t.Errorf("expected BOM to be stripped from the first header, got %q", rep.Columns[0])
	}

	first := ds.At(0)
	if first.Year != 2023 || first.Gender != model.Male || first.AgeCategory != "M30" || first.FinishSeconds != 5400 {
		t.Errorf("unexpected first record: %+v", first)
	}
	if s, ok := first.Split(); !ok || s != 1250 {
		t.Errorf("expected split 1250, got %d (%v)", s, ok)
	}
	if first.FullName != "Jan Kowalski" || first.Country != "POL" {
		t.Errorf("unexpected name or country: %+v", first)
	}

	second := ds.At(1)
	if second.FinishSeconds != 6600 {
		t.Errorf("expected float seconds to be truncated to 6600, got %d", second.FinishSeconds)
	}
	if _, ok := second.Split(); ok {
		t.Error("expected missing split")
	}
	if second.Country != "GER" {
		t.Errorf("expected GER, got %s", second.Country)
	}

	if ds.At(2).Country != "POL" {
		t.Errorf("expected default country, got %q", ds.At(2).Country)
	}
}

func TestCSVSource_ClockColumns(t *testing.T) {
	content := "rok,Płeć,Kategoria wiekowa,Czas,5 km Czas,Imię,Nazwisko\n" +
		"2024,K,K30,1:55:00,26:40,Ola,Nowak\n" +
		"2024,M,M40,bad,25:00,Jan,\n"
	ds, rep, err := NewCSVSource("", WithDefaultCountry("CZE")).Read(context.Background(), strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 || rep.Dropped[DropBadFinish] != 1 {
		t.Fatalf("expected one kept and one bad finish, got %d kept, %v", ds.Len(), rep.Dropped)
	}
	r := ds.At(0)
	if r.FinishSeconds != 6900 {
		t.Errorf("expected 6900, got %d", r.FinishSeconds)
	}
	if s, ok := r.Split(); !ok || s != 1600 {
		t.Errorf("expected split 1600, got %d", s)
	}
	if r.FullName != "Ola Nowak" {
		t.Errorf("expected joined name, got %q", r.FullName)
	}
	if r.Country != "CZE" {
		t.Errorf("expected default country option, got %q", r.Country)
	}
}

func TestCSVSource_LegacySplitColumn(t *testing.T) {
	content := "Rok,Płeć,Kategoria wiekowa,Czas_sekundy,5km_sekundy\n2023,M,M50,6000,1500.0\n"
	ds, _, err := NewCSVSource("").Read(context.Background(), strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := ds.At(0).Split(); !ok || s != 1500 {
		t.Errorf("expected split 1500 from legacy column, got %d", s)
	}
}

func TestCSVSource_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).Load(ctx)
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad for a missing file, got %v", err)
	}

	_, _, err = NewCSVSource("").Read(ctx, strings.NewReader("Rok,Płeć\n2023,M\n"))
	if !errors.Is(err, ErrSchema) {
		t.Errorf("expected ErrSchema, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "Kategoria wiekowa") {
		t.Errorf("expected missing column names in %q", err.Error())
	}

	_, _, err = NewCSVSource("").Read(ctx, strings.NewReader(""))
	if !errors.Is(err, ErrLoad) {
		t.Errorf("expected ErrLoad for empty input, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = NewCSVSource("").Read(cancelled, strings.NewReader(sampleCSV))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReport(t *testing.T) {
	r := Report{Dropped: map[string]int{"b": 2, "a": 1}}
	if r.DroppedTotal() != 3 {
		t.Errorf("expected 3, got %d", r.DroppedTotal())
	}
	if got := r.Reasons(); len(got) != 2 || got[0] != "a" {
		t.Errorf("expected sorted reasons, got %v", got)
	}
}
