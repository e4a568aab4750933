package api

import (
	"context"
	"net/http"

	"github.com/okian/juryrank/internal/domain/model"
)

// JudgeDependencies defines the judge catalog operations.
type JudgeDependencies interface {
	Judges(ctx context.Context) []model.Judge
	Judge(ctx context.Context, id string) (model.Judge, error)
	CreateJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	UpdateJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	DeleteJudge(ctx context.Context, id string) error
	Assignments(ctx context.Context, judgeID string) (model.Assignments, error)
}

// JudgesHandler handles /judges requests.
type JudgesHandler struct {
	deps JudgeDependencies
}

// NewJudgesHandler creates a new judges handler.
func NewJudgesHandler(deps JudgeDependencies) *JudgesHandler {
	return &JudgesHandler{deps: deps}
}

func (h *JudgesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Judges(r.Context()))
}

func (h *JudgesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_judge"
	j, err := h.deps.Judge(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JudgesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_judge"
	var j model.Judge
	if err := decodeJSON(r, &j); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	created, err := h.deps.CreateJudge(r.Context(), j)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *JudgesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_judge"
	var j model.Judge
	if err := decodeJSON(r, &j); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	j.ID = r.PathValue("id")
	updated, err := h.deps.UpdateJudge(r.Context(), j)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *JudgesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_judge"
	if err := h.deps.DeleteJudge(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignments handles GET /judges/{id}/assignments.
func (h *JudgesHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "api.judge_assignments"
	a, err := h.deps.Assignments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
