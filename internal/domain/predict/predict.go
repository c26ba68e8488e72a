// Package predict turns a runner's gender, age and 5 km split into a
// half-marathon finish time.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/halfpace/internal/domain/category"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/internal/domain/types"
)

// Features are the inputs the regression model was trained on.
type Features struct {
	Gender         model.Gender `json:"gender"`
	Split5kSeconds int          `json:"time_5k_seconds"`
	BirthYear      int          `json:"birth_year"`
}

// Predictor estimates a finish time in seconds.
type Predictor interface {
	// Predict honours ctx for cancellation.
	Predict(ctx context.Context, f Features) (float64, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, f Features) (float64, error)

// Predict calls fn.
func (fn PredictorFunc) Predict(ctx context.Context, f Features) (float64, error) {
	return fn(ctx, f)
}

// BirthYear derives a birth year from age, clamped so the runner is between
// category.MinAge and category.MaxAge years old in currentYear.
func BirthYear(age, currentYear int) int {
	y := currentYear - age
	if newest := currentYear - category.MinAge; y > newest {
		y = newest
	}
	if oldest := currentYear - category.MaxAge; y < oldest {
		y = oldest
	}
	return y
}

// Default linear coefficients. They approximate the regression trained on
// the Wroclaw half-marathon results of 2023 and 2024.
const (
	DefaultIntercept     = 8080.0
	DefaultCoef5k        = 4.4
	DefaultCoefFemale    = 150.0
	DefaultCoefBirthYear = -4.0
)

// LinearModel is a local linear regression over Features.
type LinearModel struct {
	Intercept     float64
	Coef5k        float64
	CoefFemale    float64
	CoefBirthYear float64
}

// NewLinearModel returns a model with the default coefficients.
func NewLinearModel() LinearModel {
	return LinearModel{
		Intercept:     DefaultIntercept,
		Coef5k:        DefaultCoef5k,
		CoefFemale:    DefaultCoefFemale,
		CoefBirthYear: DefaultCoefBirthYear,
	}
}

// Predict evaluates the regression. It never blocks.
func (m LinearModel) Predict(ctx context.Context, f Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("linear model: %w", err)
	}
	female := 0.0
	if f.Gender == model.Female {
		female = 1
	}
	return m.Intercept +
		m.Coef5k*float64(f.Split5kSeconds) +
		m.CoefFemale*female +
		m.CoefBirthYear*float64(f.BirthYear), nil
}

// Estimator wraps a Predictor with the feature preparation and output
// formatting shared by every model.
type Estimator struct {
	model Predictor
	now   func() time.Time
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock sets the clock used to derive birth years.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEstimator creates an Estimator over p.
func NewEstimator(p Predictor, opts ...Option) *Estimator {
	e := &Estimator{model: p, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Features builds the model input for a runner.
func (e *Estimator) Features(g model.Gender, age, split5k int) Features {
	return Features{
		Gender:         g,
		Split5kSeconds: split5k,
		BirthYear:      BirthYear(age, e.now().Year()),
	}
}

// Estimate predicts and formats the finish time. Predictions are truncated
// to whole seconds; non-finite or non-positive outputs give ErrPredict.
func (e *Estimator) Estimate(ctx context.Context, f Features) (types.Prediction, error) {
	raw, err := e.model.Predict(ctx, f)
	if err != nil {
		return types.Prediction{}, err
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 1 {
		return types.Prediction{}, fmt.Errorf("%w: model returned %v", ErrPredict, raw)
	}
	secs := int(raw)
	return types.Prediction{
		Seconds:   secs,
		Formatted: timefmt.FormatSeconds(secs),
		PacePerKm: timefmt.FormatPace(secs, timefmt.HalfMarathonKm),
	}, nil
}
