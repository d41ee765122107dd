package http

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Description string `json:"description" validate:"required,max=1000"`
	Completed   bool   `json:"completed"`
}

type updateTaskRequest struct {
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Completed   *bool   `json:"completed"`
}

type taskListResponse struct {
	Count int           `json:"count"`
	Tasks []models.Task `json:"tasks"`
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	t, err := h.tasks.Create(r.Context(), p, req.Description, req.Completed)
	if err != nil {
		h.fail(w, r, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTasks accepts ?completed=<bool>, ?limit=<n> and ?skip=<n>.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	f, msg := parseFilter(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	list, err := h.tasks.List(r.Context(), p, f)
	if err != nil {
		h.fail(w, r, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, taskListResponse{Count: len(list), Tasks: list})
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	t, err := h.tasks.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	t, err := h.tasks.Update(r.Context(), p, chi.URLParam(r, "id"), services.TaskUpdate{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.fail(w, r, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	if err := h.tasks.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter reads the list query. A non-empty message means bad input.
func parseFilter(r *http.Request) (tasks.Filter, string) {
	var f tasks.Filter
	q := r.URL.Query()

	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "completed must be true or false"
		}
		f.Completed = &b
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "skip": &f.Skip} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, name + " must be a non-negative integer"
		}
		*dst = n
	}
	return f, ""
}
