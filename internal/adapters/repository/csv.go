package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/dataset"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/pkg/logger"
	"github.com/okian/halfpace/pkg/metrics"
)

const (
	// DefaultCountry is used for rows without a country.
	DefaultCountry = "POL"
	ctxCheckEvery  = 1024
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Recognised header names, first match wins.
var (
	colYear      = []string{"Rok", "rok"}
	colGender    = []string{"Płeć"}
	colCategory  = []string{"Kategoria wiekowa"}
	colFinishSec = []string{"Czas_sekundy"}
	colFinish    = []string{"Czas"}
	colSplitSec  = []string{"5 km Czas_sekundy", "5km_sekundy"}
	colSplit     = []string{"5 km Czas"}
	colCountry   = []string{"Kraj"}
	colFullName  = []string{"Imię i nazwisko"}
	colFirstName = []string{"Imię"}
	colLastName  = []string{"Nazwisko"}
)

// values gota and pandas use for missing cells.
var nanValues = []string{"", "NA", "NaN", "nan", "N/A", "<nil>"}

// CSVSource loads the results dataset from a CSV file.
type CSVSource struct {
	path           string
	log            logger.Logger
	defaultCountry string
}

// NewCSVSource creates a source for the file at path.
func NewCSVSource(path string, opts ...Option) *CSVSource {
	s := &CSVSource{
		path:           path,
		log:            logger.New(io.Discard, logger.FormatText),
		defaultCountry: DefaultCountry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the file and records load metrics.
func (s *CSVSource) Load(ctx context.Context) (*dataset.Dataset, Report, error) {
	start := time.Now()
	f, err := os.Open(s.path)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "open")
		return nil, Report{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	ds, rep, err := s.Read(ctx, f)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "read")
		return nil, rep, err
	}

	for _, reason := range rep.Reasons() {
		metrics.RecordRowsDropped(reason, rep.Dropped[reason])
	}
	metrics.RecordDatasetLoad(ds.Version(), ds.Len(), float64(time.Since(start).Microseconds())/1000)
	s.log.Info(ctx, "dataset loaded",
		logger.String("path", s.path),
		logger.Int("rows", rep.Rows),
		logger.Int("kept", rep.Kept),
		logger.Int("dropped", rep.DroppedTotal()),
		logger.String("version", ds.Version()),
		logger.Duration("took", time.Since(start)),
	)
	return ds, rep, nil
}

// columns holds the resolved cell values of every recognised column.
type columns struct {
	year          []string
	gender        []string
	category      []string
	finish        []string
	finishIsClock bool
	split         []string
	splitIsClock  bool
	country       []string
	fullName      []string
	first         []string
	last          []string
}

// Read parses CSV content from r.
func (s *CSVSource) Read(ctx context.Context, r io.Reader) (*dataset.Dataset, Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Report{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, Report{}, fmt.Errorf("%w: %w", ErrLoad, df.Err)
	}

	rep := Report{Rows: df.Nrow(), Dropped: map[string]int{}, Columns: df.Names()}
	cols, err := resolve(df)
	if err != nil {
		return nil, rep, err
	}

	records := make([]model.ResultRecord, 0, rep.Rows)
	for i := 0; i < rep.Rows; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, rep, fmt.Errorf("%w: %w", ErrLoad, err)
			}
		}
		rec, reason := s.row(cols, i)
		if reason != "" {
			rep.Dropped[reason]++
			s.log.Debug(ctx, "row dropped", logger.Int("row", i+2), logger.String("reason", reason))
			continue
		}
		records = append(records, rec)
	}
	if n := rep.DroppedTotal(); n > 0 {
		s.log.Warn(ctx, "malformed rows dropped", logger.Int("dropped", n), logger.Any("reasons", rep.Dropped))
	}

	ds, err := dataset.New(records)
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	rep.Kept = ds.Len()
	return ds, rep, nil
}

func resolve(df dataframe.DataFrame) (columns, error) {
	names := make(map[string]bool)
	for _, n := range df.Names() {
		names[n] = true
	}
	pick := func(candidates []string) []string {
		for _, c := range candidates {
			if names[c] {
				return df.Col(c).Records()
			}
		}
		return nil
	}

	var c columns
	var missing []string
	if c.year = pick(colYear); c.year == nil {
		missing = append(missing, "Rok")
	}
	if c.gender = pick(colGender); c.gender == nil {
		missing = append(missing, "Płeć")
	}
	if c.category = pick(colCategory); c.category == nil {
		missing = append(missing, "Kategoria wiekowa")
	}
	if c.finish = pick(colFinishSec); c.finish == nil {
		c.finish, c.finishIsClock = pick(colFinish), true
		if c.finish == nil {
			missing = append(missing, "Czas_sekundy")
		}
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}

	if c.split = pick(colSplitSec); c.split == nil {
		c.split, c.splitIsClock = pick(colSplit), true
	}
	c.country = pick(colCountry)
	c.fullName = pick(colFullName)
	if c.fullName == nil {
		c.first, c.last = pick(colFirstName), pick(colLastName)
	}
	return c, nil
}

func (s *CSVSource) row(c columns, i int) (model.ResultRecord, string) {
	year, ok := parseCount(c.year[i])
	if !ok || year <= 0 {
		return model.ResultRecord{}, DropMissingYear
	}
	g, err := model.ParseGender(c.gender[i])
	if err != nil {
		return model.ResultRecord{}, DropBadGender
	}
	finish, ok := parseTime(c.finish[i], c.finishIsClock)
	if !ok || finish <= 0 {
		return model.ResultRecord{}, DropBadFinish
	}
	code := strings.TrimSpace(c.category[i])
	if !category.Valid(code, g) {
		return model.ResultRecord{}, DropBadCategory
	}

	rec := model.ResultRecord{
		Year:          year,
		Gender:        g,
		AgeCategory:   code,
		FinishSeconds: finish,
		Country:       s.defaultCountry,
	}
	if c.split != nil {
		if v, ok := parseTime(c.split[i], c.splitIsClock); ok {
			rec.Split5kSeconds, rec.HasSplit = v, true
		}
	}
	if c.country != nil {
		if v := cell(c.country[i]); v != "" {
			rec.Country = v
		}
	}
	switch {
	case c.fullName != nil:
		rec.FullName = cell(c.fullName[i])
	case c.first != nil && c.last != nil:
		rec.FullName = strings.TrimSpace(cell(c.first[i]) + " " + cell(c.last[i]))
	}
	return rec, ""
}

// cell normalises a missing value to "".
func cell(v string) string {
	v = strings.TrimSpace(v)
	if v == "NaN" {
		return ""
	}
	return v
}

// parseCount parses an integer that may have been written as a float.
func parseCount(v string) (int, bool) {
	v = cell(v)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// parseTime parses seconds, either numeric or as a clock string.
func parseTime(v string, clock bool) (int, bool) {
	v = cell(v)
	if v == "" {
		return 0, false
	}
	if clock || strings.Contains(v, ":") {
		n, err := timefmt.ParseClock(v)
		return n, err == nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(f), true
}
