package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/goldtodo/internal/core/domain"
	"github.com/yndnr/goldtodo/internal/core/service"
)

// handleCreateTodo handles POST /todos.
func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	todo, err := h.todos.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/todos/"+strconv.FormatInt(todo.ID, 10))
	h.writeJSON(w, r, http.StatusCreated, todo)
}

// handleListTodos handles GET /todos.
func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todos.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, ListTodosResponse{
		Items: todos,
		Total: len(todos),
	})
}

// handleGetTodo handles GET /todos/{id}.
func (h *Handler) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	todo, err := h.todos.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, todo)
}

// handleUpdateTodo handles PATCH /todos/{id}. An empty body changes nothing.
func (h *Handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var patch UpdateTodoRequest
	if err := decodeBody(w, r, &patch); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, err)
		return
	}

	todo, err := h.todos.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, todo)
}

// handleToggleTodo handles PATCH /todos/{id}/toggle.
func (h *Handler) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	todo, err := h.todos.Toggle(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, todo)
}

// handleDeleteTodo handles DELETE /todos/{id}.
func (h *Handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.todos.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseID reads the {id} path value as a positive integer.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidArgument.WithDetails("id must be a positive integer, got " + strconv.Quote(raw))
	}
	return id, nil
}

// decodeBody decodes a JSON body into v. An empty body yields an error
// wrapping io.EOF so callers may treat it as optional.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrBadRequest.WithDetails("request body is required").WithCause(err)
		}
		return domain.ErrBadRequest.WithDetails("invalid request body: " + err.Error()).WithCause(err)
	}
	return nil
}
