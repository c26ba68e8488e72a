package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/halfpace/internal/domain/stats"
	"github.com/okian/halfpace/internal/domain/types"
)

// TopDependencies defines the interface for the overall top query.
type TopDependencies interface {
	Top(ctx context.Context, n int, f stats.TopFilter) ([]types.Result, error)
}

// TopHandler handles top results requests.
type TopHandler struct {
	deps     TopDependencies
	maxLimit int
}

// NewTopHandler creates a new top handler. maxLimit below DefaultTopLimit
// is raised to it.
func NewTopHandler(deps TopDependencies, maxLimit int) *TopHandler {
	if maxLimit < DefaultTopLimit {
		maxLimit = DefaultTopLimit
	}
	return &TopHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetTop handles GET /v1/top?limit=N&year=&gender= requests.
func (h *TopHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	q := r.URL.Query()
	n, err := intParam(q, "limit", DefaultTopLimit)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if n < 1 || n > h.maxLimit {
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be between 1 and %d", h.maxLimit)))
		return
	}
	year, err := intParam(q, "year", 0)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := genderParam(q, false)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := h.deps.Top(r.Context(), n, stats.TopFilter{Year: year, Gender: g})
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
