package httpapi

import (
	"net/http"

	"taskgate.org/internal/workspace"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		tasks, err := a.ws.ListTasks(r.Context(), pr, workspace.TaskQuery{
			Status:   q.Get("status"),
			Category: q.Get("category"),
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": tasks})
	case http.MethodPost:
		var in workspace.TaskInput
		if err := decodeJSON(r, &in); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		task, err := a.ws.CreateTask(r.Context(), pr, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	id, sub := resourceID(r.URL.Path, "/v1/tasks/")
	if id == "" || (sub != "" && sub != "status") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	pr, ok := principal(w, r)
	if !ok {
		return
	}

	if sub == "status" {
		if r.Method != http.MethodPatch && r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPatch, http.MethodPut)
			return
		}
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		task, err := a.ws.UpdateTaskStatus(r.Context(), pr, id, req.Status)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := a.ws.GetTask(r.Context(), pr, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodPatch, http.MethodPut:
		var patch workspace.TaskPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		task, err := a.ws.UpdateTask(r.Context(), pr, id, patch)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := a.ws.DeleteTask(r.Context(), pr, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)
	}
}
