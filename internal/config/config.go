// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and HALFPACE_ environment variables over them.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Predictor kinds.
const (
	PredictorLinear = "linear"
	PredictorRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataFile is the historical results CSV loaded at start.
	DataFile string `koanf:"data_file"`

	// EventName is used in commentary prompts.
	EventName string `koanf:"event_name"`

	// CacheSize bounds the query memo. Zero or less means unbounded.
	CacheSize int `koanf:"cache_size"`

	// MaxTopLimit caps GET /v1/top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// MaxSimulations caps the batch size of POST /v1/simulations.
	MaxSimulations int `koanf:"max_simulations"`

	// SimulationWorkers bounds the concurrent reports of a batch.
	SimulationWorkers int `koanf:"simulation_workers"`

	// Predictor selection and remote client settings.
	PredictorKind       string `koanf:"predictor_kind"`
	PredictorURL        string `koanf:"predictor_url"`
	PredictorTimeoutMS  int    `koanf:"predictor_timeout_ms"`
	PredictorMaxRetries int    `koanf:"predictor_max_retries"`

	// Linear model coefficients.
	ModelIntercept     float64 `koanf:"model_intercept"`
	ModelCoef5k        float64 `koanf:"model_coef_5k"`
	ModelCoefFemale    float64 `koanf:"model_coef_female"`
	ModelCoefBirthYear float64 `koanf:"model_coef_birth_year"`

	// Commentary generator. An empty key disables commentary.
	CommentaryAPIKey      string  `koanf:"commentary_api_key"`
	CommentaryBaseURL     string  `koanf:"commentary_base_url"`
	CommentaryModel       string  `koanf:"commentary_model"`
	CommentaryTemperature float64 `koanf:"commentary_temperature"`
	CommentaryMaxTokens   int     `koanf:"commentary_max_tokens"`
	CommentaryTimeoutMS   int     `koanf:"commentary_timeout_ms"`
	CommentaryLanguage    string  `koanf:"commentary_language"`
}

// New creates a Config with defaults. Context is accepted first to follow the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataFile:              "data/halfmarathon_wroclaw_2023_2024.csv",
		EventName:             "Półmaraton Wrocław",
		CacheSize:             4096,
		MaxTopLimit:           100,
		MaxSimulations:        50,
		SimulationWorkers:     runtime.NumCPU(),
		PredictorKind:         PredictorLinear,
		PredictorTimeoutMS:    5000,
		PredictorMaxRetries:   2,
		ModelIntercept:        8080,
		ModelCoef5k:           4.4,
		ModelCoefFemale:       150,
		ModelCoefBirthYear:    -4,
		CommentaryModel:       "gpt-4o-mini",
		CommentaryTemperature: 0.7,
		CommentaryMaxTokens:   300,
		CommentaryTimeoutMS:   15000,
		CommentaryLanguage:    "pl",
	}
}

// Validate checks the values Load cannot fix up by itself.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.MaxTopLimit < 1:
		return fmt.Errorf("%w: max_top_limit must be at least 1", ErrInvalidConfig)
	case c.MaxSimulations < 1:
		return fmt.Errorf("%w: max_simulations must be at least 1", ErrInvalidConfig)
	case c.SimulationWorkers < 1:
		return fmt.Errorf("%w: simulation_workers must be at least 1", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.PredictorKind {
	case PredictorLinear:
	case PredictorRemote:
		if c.PredictorURL == "" {
			return fmt.Errorf("%w: predictor_url is required for the remote predictor", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown predictor_kind %q", ErrInvalidConfig, c.PredictorKind)
	}
	return nil
}
