package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/juryrank/internal/domain/model"
)

// ProjectDependencies defines the project catalog operations.
type ProjectDependencies interface {
	Projects(ctx context.Context) []model.Project
	Project(ctx context.Context, id string) (model.Project, error)
	CreateProjects(ctx context.Context, ps []model.Project) ([]model.Project, error)
	UpdateProject(ctx context.Context, p model.Project) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// ProjectsHandler handles /projects requests.
type ProjectsHandler struct {
	deps ProjectDependencies
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(deps ProjectDependencies) *ProjectsHandler {
	return &ProjectsHandler{deps: deps}
}

// HandleList handles GET /projects.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Projects(r.Context()))
}

// HandleGet handles GET /projects/{id}.
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_project"
	p, err := h.deps.Project(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCreate handles POST /projects. The body is one project or an array;
// the response mirrors the request shape.
func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_projects"
	body, err := readBody(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	var ps []model.Project
	single := len(body) == 0 || body[0] != '['
	if single {
		var p model.Project
		err = json.Unmarshal(body, &p)
		ps = []model.Project{p}
	} else {
		err = json.Unmarshal(body, &ps)
	}
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	created, err := h.deps.CreateProjects(r.Context(), ps)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	if single {
		writeJSON(w, http.StatusCreated, created[0])
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /projects/{id}. The path id wins over the body.
func (h *ProjectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_project"
	var p model.Project
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	p.ID = r.PathValue("id")
	updated, err := h.deps.UpdateProject(r.Context(), p)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /projects/{id}.
func (h *ProjectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_project"
	if err := h.deps.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
