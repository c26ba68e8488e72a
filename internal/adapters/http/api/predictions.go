package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/domain/model"
)

// maxBodyBytes bounds prediction and simulation request bodies.
const maxBodyBytes = 1 << 20

// requestValidate is shared by every request body. Initialized in init()
// with the custom notblank rule.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New(validator.WithRequiredStructEnabled())
	if err := requestValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	// Report JSON names in validation errors.
	requestValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// predictionRequest mirrors the OpenAPI schema for POST /v1/predictions.
// The 5 km limits are 10:00 and 90:59.
type predictionRequest struct {
	Name          string `json:"name" validate:"required,notblank,max=200"`
	Gender        string `json:"gender" validate:"required,oneof=M K"`
	Age           int    `json:"age" validate:"required,min=18,max=99"`
	Time5kSeconds int    `json:"time_5k_seconds" validate:"required,min=600,max=5459"`
}

func (p *predictionRequest) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Gender = strings.ToUpper(strings.TrimSpace(p.Gender))
}

func (p predictionRequest) toService() service.PredictionRequest {
	return service.PredictionRequest{
		Name:          p.Name,
		Gender:        model.Gender(p.Gender),
		Age:           p.Age,
		Time5kSeconds: p.Time5kSeconds,
	}
}

// simulationRequest mirrors the OpenAPI schema for POST /v1/simulations.
type simulationRequest struct {
	Profiles []predictionRequest `json:"profiles" validate:"required,min=1,dive"`
}

// validationError turns validator output into one readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// PredictionHandler handles prediction and simulation requests.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// HandlePostPrediction handles POST /v1/predictions requests.
func (h *PredictionHandler) HandlePostPrediction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_prediction"
	if r.Method != http.MethodPost {
		methodNotFound(w, op)
		return
	}
	var req predictionRequest
	if err := decode(r, w, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	req.normalize()
	if err := requestValidate.Struct(req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, validationError(err)))
		return
	}
	rep, err := h.deps.Predict(r.Context(), req.toService())
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandlePostSimulation handles POST /v1/simulations requests.
func (h *PredictionHandler) HandlePostSimulation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_simulation"
	if r.Method != http.MethodPost {
		methodNotFound(w, op)
		return
	}
	var req simulationRequest
	if err := decode(r, w, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	for i := range req.Profiles {
		req.Profiles[i].normalize()
	}
	if err := requestValidate.Struct(req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, validationError(err)))
		return
	}
	reqs := make([]service.PredictionRequest, len(req.Profiles))
	for i, p := range req.Profiles {
		reqs[i] = p.toService()
	}
	reports, err := h.deps.Simulate(r.Context(), reqs)
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
