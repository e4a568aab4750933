package api

import (
	"context"
	"net/http"

	service "github.com/okian/juryrank/internal/app"
	"github.com/okian/juryrank/internal/domain/model"
	"github.com/okian/juryrank/internal/domain/types"
)

// idempotencyHeader may carry the submission id instead of the body field.
const idempotencyHeader = "Idempotency-Key"

// ScoreDependencies defines the score operations.
type ScoreDependencies interface {
	Scores(ctx context.Context, f service.ScoreFilter) []model.Score
	SubmitScore(ctx context.Context, submissionID string, s model.Score) (service.SubmitResult, error)
	UpsertScore(ctx context.Context, s model.Score) (model.Score, error)
	DeleteScore(ctx context.Context, id string) error
}

// ScoresHandler handles /scores requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleList handles GET /scores?judge_id=&project_id=.
func (h *ScoresHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.deps.Scores(r.Context(), service.ScoreFilter{
		JudgeID:   q.Get("judge_id"),
		ProjectID: q.Get("project_id"),
	}))
}

// HandleSubmit handles POST /scores. The score is applied asynchronously:
// 202 when queued, 200 for a repeated submission id, 429 when the queue is full.
func (h *ScoresHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	var req types.ScoreSubmission
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	id := req.SubmissionID
	if id == "" {
		id = r.Header.Get(idempotencyHeader)
	}

	res, err := h.deps.SubmitScore(r.Context(), id, req.Score)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, types.Ack{Status: "duplicate", SubmissionID: res.SubmissionID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, types.Ack{Status: "accepted", SubmissionID: res.SubmissionID})
}

// HandleUpsert handles PUT /scores/{id} synchronously.
func (h *ScoresHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_score"
	var sc model.Score
	if err := decodeJSON(r, &sc); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	sc.ID = r.PathValue("id")
	stored, err := h.deps.UpsertScore(r.Context(), sc)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// HandleDelete handles DELETE /scores/{id}.
func (h *ScoresHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_score"
	if err := h.deps.DeleteScore(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
