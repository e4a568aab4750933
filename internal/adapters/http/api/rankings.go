package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/types"
)

// RankingDependencies defines the ranking reads.
type RankingDependencies interface {
	Rankings(ctx context.Context, track model.Track) ([]model.ProjectResult, error)
	ProjectRank(ctx context.Context, projectID string) (model.ProjectResult, error)
}

// RankingsHandler handles /rankings requests.
type RankingsHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /rankings?track=&limit=&view=compact.
// Without limit every ranked project is returned.
func (h *RankingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	q := r.URL.Query()

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer")))
			return
		}
		if n > h.maxLimit {
			writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must not exceed %d", h.maxLimit)))
			return
		}
		limit = n
	}

	results, err := h.deps.Rankings(r.Context(), model.Track(q.Get("track")))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if q.Get("view") == "compact" {
		entries := make([]types.Entry, len(results))
		for i, res := range results {
			entries[i] = types.EntryFrom(res)
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleGet handles GET /rankings/{project_id}.
func (h *RankingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_project_rank"
	res, err := h.deps.ProjectRank(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
