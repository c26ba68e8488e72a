// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/halfpace/internal/app"
	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/predict"
	"github.com/okian/halfpace/internal/domain/stats"
	"github.com/okian/halfpace/internal/domain/types"
	"github.com/okian/halfpace/pkg/logger"
)

// DefaultTopLimit is used when GET /v1/top has no limit.
const DefaultTopLimit = stats.DefaultTopN

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	QueryDependencies
	PredictionDependencies
}

// QueryDependencies are the read-only dataset queries.
type QueryDependencies interface {
	Summary(ctx context.Context) (types.DatasetSummary, error)
	Categorize(ctx context.Context, age int, g model.Gender) (string, error)
	CategoryStats(ctx context.Context, code string, g model.Gender) (types.CategoryStats, error)
	Ranking(ctx context.Context, seconds int, g model.Gender, code string) (types.RankingEstimate, error)
	Top(ctx context.Context, n int, f stats.TopFilter) ([]types.Result, error)
	Winners(ctx context.Context, code string, g model.Gender) ([]types.Result, error)
	Averages(ctx context.Context, byCategory bool) ([]types.GroupAverage, error)
}

// PredictionDependencies produce prediction reports.
type PredictionDependencies interface {
	Predict(ctx context.Context, req service.PredictionRequest) (types.Report, error)
	Simulate(ctx context.Context, reqs []service.PredictionRequest) ([]types.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	queryHandler      *QueryHandler
	topHandler        *TopHandler
	rankingHandler    *RankingHandler
	predictionHandler *PredictionHandler
	log               logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxTopLimit int, log logger.Logger) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		queryHandler:      NewQueryHandler(deps),
		topHandler:        NewTopHandler(deps, maxTopLimit),
		rankingHandler:    NewRankingHandler(deps),
		predictionHandler: NewPredictionHandler(deps),
		log:               log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.log))
	}

	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/v1/dataset", "dataset", s.queryHandler.HandleDataset)
	route("/v1/categorize", "categorize", s.queryHandler.HandleCategorize)
	route("/v1/category-stats", "category_stats", s.queryHandler.HandleCategoryStats)
	route("/v1/ranking", "ranking", s.rankingHandler.HandleGetRanking)
	route("/v1/top", "top", s.topHandler.HandleGetTop)
	route("/v1/winners", "winners", s.queryHandler.HandleWinners)
	route("/v1/averages", "averages", s.queryHandler.HandleAverages)
	route("/v1/predictions", "predictions", s.predictionHandler.HandlePostPrediction)
	route("/v1/simulations", "simulations", s.predictionHandler.HandlePostSimulation)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an error to its status code and error body.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrNotReady), errors.Is(err, service.ErrNotStarted), errors.Is(err, predict.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// failure wraps a dependency error so that writeFailure keeps its kind.
func failure(op string, err error) error {
	if errors.Is(err, service.ErrInvalidRequest) {
		return WrapKind(op, ErrBadRequest, err)
	}
	if errors.Is(err, service.ErrNotStarted) || errors.Is(err, predict.ErrUnavailable) {
		return WrapKind(op, ErrNotReady, err)
	}
	return Wrap(op, err)
}

// methodNotFound answers requests with the wrong method.
func methodNotFound(w http.ResponseWriter, op string) {
	writeFailure(w, NewKind(op, ErrNotFound))
}
