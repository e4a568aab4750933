package api

import (
	"context"
	"net/http"

	"github.com/okian/juryrank/internal/domain/model"
)

// CriterionDependencies defines the criteria catalog operations.
type CriterionDependencies interface {
	Criteria(ctx context.Context) []model.Criterion
	Criterion(ctx context.Context, id string) (model.Criterion, error)
	CreateCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error)
	UpdateCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error)
	DeleteCriterion(ctx context.Context, id string) error
}

// CriteriaHandler handles /criteria requests.
type CriteriaHandler struct {
	deps CriterionDependencies
}

// NewCriteriaHandler creates a new criteria handler.
func NewCriteriaHandler(deps CriterionDependencies) *CriteriaHandler {
	return &CriteriaHandler{deps: deps}
}

func (h *CriteriaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Criteria(r.Context()))
}

func (h *CriteriaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_criterion"
	c, err := h.deps.Criterion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CriteriaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_criterion"
	var c model.Criterion
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	created, err := h.deps.CreateCriterion(r.Context(), c)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CriteriaHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_criterion"
	var c model.Criterion
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	c.ID = r.PathValue("id")
	updated, err := h.deps.UpdateCriterion(r.Context(), c)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CriteriaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_criterion"
	if err := h.deps.DeleteCriterion(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
