package api

import (
	"context"
	"net/http"

	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/types"
)

// RankingDependencies defines the interface for ranking estimates.
type RankingDependencies interface {
	Ranking(ctx context.Context, seconds int, g model.Gender, code string) (types.RankingEstimate, error)
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRanking handles GET /v1/ranking?time=&gender=&category= requests.
// Without a category the runner is ranked against the whole gender.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	q := r.URL.Query()
	secs, err := timeParam(q)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := genderParam(q, true)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	est, err := h.deps.Ranking(r.Context(), secs, g, categoryParam(q))
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, est)
}
