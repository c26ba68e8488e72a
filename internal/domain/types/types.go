// Package types contains the result shapes returned by queries and the API.
package types

// CategoryStats aggregates finish times of one (category, gender) cohort.
// Count is 0 and every other field is nil for an empty cohort.
type CategoryStats struct {
	Count  int  `json:"count"`
	Mean   *int `json:"mean"`
	Median *int `json:"median"`
	Min    *int `json:"min"`
	Max    *int `json:"max"`
}

// Empty reports whether the cohort had no rows.
func (s CategoryStats) Empty() bool { return s.Count == 0 }

// RankingEstimate places a hypothetical finish time inside a historical cohort.
// TotalRunners is 0 and the pointer fields are nil for an empty cohort.
type RankingEstimate struct {
	EstimatedPosition *int     `json:"estimated_position"`
	TotalRunners      int      `json:"total_runners"`
	Percentile        *float64 `json:"percentile"`
	FasterThanPercent *float64 `json:"faster_than_percent"`
	FasterRunners     int      `json:"faster_runners"`
	SlowerRunners     int      `json:"slower_runners"`
}

// Empty reports whether the cohort had no rows.
func (r RankingEstimate) Empty() bool { return r.TotalRunners == 0 }

// Result is the display shape of a single historical record.
type Result struct {
	Year            int    `json:"year"`
	Gender          string `json:"gender"`
	AgeCategory     string `json:"age_category"`
	FullName        string `json:"full_name,omitempty"`
	Country         string `json:"country,omitempty"`
	FinishSeconds   int    `json:"finish_seconds"`
	FinishFormatted string `json:"finish_formatted"`
	SplitSeconds    *int   `json:"split_5k_seconds"`
	SplitFormatted  string `json:"split_5k_formatted"`
}

// GroupAverage is the mean finish time of a (year, gender, category) group.
type GroupAverage struct {
	Year          int    `json:"year"`
	Gender        string `json:"gender"`
	AgeCategory   string `json:"age_category,omitempty"`
	MeanSeconds   int    `json:"mean_seconds"`
	MeanFormatted string `json:"mean_formatted"`
	Runners       int    `json:"runners"`
}

// DatasetSummary describes the loaded historical dataset.
type DatasetSummary struct {
	Version       string      `json:"version"`
	TotalRecords  int         `json:"total_records"`
	Years         []int       `json:"years"`
	RecordsByYear map[int]int `json:"records_by_year"`
}

// BestGap compares a predicted time with the fastest category winner.
type BestGap struct {
	BestSeconds   int    `json:"best_seconds"`
	BestFormatted string `json:"best_formatted"`
	GapSeconds    int    `json:"gap_seconds"`
	GapMinutes    int    `json:"gap_minutes"`
	GapRemainder  int    `json:"gap_remainder_seconds"`
	BeatsBestTime bool   `json:"beats_best_time"`
}

// Prediction is the model output for a runner.
type Prediction struct {
	Seconds   int    `json:"seconds"`
	Formatted string `json:"formatted"`
	PacePerKm string `json:"pace_per_km"`
}

// Report is the full response for one prediction request.
type Report struct {
	Name            string          `json:"name"`
	Gender          string          `json:"gender"`
	Age             int             `json:"age"`
	BirthYear       int             `json:"birth_year"`
	AgeCategory     string          `json:"age_category"`
	Prediction      Prediction      `json:"prediction"`
	CategoryStats   CategoryStats   `json:"category_stats"`
	GeneralRanking  RankingEstimate `json:"general_ranking"`
	CategoryRanking RankingEstimate `json:"category_ranking"`
	CategoryWinners []Result        `json:"category_winners"`
	BestGap         *BestGap        `json:"best_gap"`
	Commentary      string          `json:"commentary,omitempty"`
}
