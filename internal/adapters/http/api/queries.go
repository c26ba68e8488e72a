package api

import (
	"errors"
	"net/http"
	"strings"
)

// QueryHandler serves the dataset, categorize, category statistics, winners
// and averages queries.
type QueryHandler struct {
	deps QueryDependencies
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps QueryDependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

type categorizeResponse struct {
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
}

// HandleDataset handles GET /v1/dataset requests.
func (h *QueryHandler) HandleDataset(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dataset"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	summary, err := h.deps.Summary(r.Context())
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleCategorize handles GET /v1/categorize?age=&gender= requests.
func (h *QueryHandler) HandleCategorize(w http.ResponseWriter, r *http.Request) {
	const op = "api.categorize"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("age")) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing age")))
		return
	}
	age, err := intParam(q, "age", 0)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := genderParam(q, true)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	code, err := h.deps.Categorize(r.Context(), age, g)
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, categorizeResponse{Age: age, Gender: g.String(), Category: code})
}

// HandleCategoryStats handles GET /v1/category-stats?category=&gender= requests.
func (h *QueryHandler) HandleCategoryStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.category_stats"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	q := r.URL.Query()
	code := categoryParam(q)
	if code == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing category")))
		return
	}
	g, err := genderParam(q, true)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	cs, err := h.deps.CategoryStats(r.Context(), code, g)
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// HandleWinners handles GET /v1/winners?category=&gender= requests. Both
// filters are optional.
func (h *QueryHandler) HandleWinners(w http.ResponseWriter, r *http.Request) {
	const op = "api.winners"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	q := r.URL.Query()
	g, err := genderParam(q, false)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := h.deps.Winners(r.Context(), categoryParam(q), g)
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleAverages handles GET /v1/averages?group=category|gender requests.
func (h *QueryHandler) HandleAverages(w http.ResponseWriter, r *http.Request) {
	const op = "api.averages"
	if r.Method != http.MethodGet {
		methodNotFound(w, op)
		return
	}
	var byCategory bool
	switch group := strings.ToLower(r.URL.Query().Get("group")); group {
	case "", "category":
		byCategory = true
	case "gender":
	default:
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("group must be category or gender")))
		return
	}
	rows, err := h.deps.Averages(r.Context(), byCategory)
	if err != nil {
		writeFailure(w, failure(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
