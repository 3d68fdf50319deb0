package httpapi

import (
	"net/http"

	"taskgate.org/internal/workspace"
)

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := a.ws.ListUsers(r.Context(), pr)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users})
	case http.MethodPost:
		var in workspace.UserInput
		if err := decodeJSON(r, &in); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		u, err := a.ws.CreateUser(r.Context(), pr, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, sub := resourceID(r.URL.Path, "/v1/users/")
	if id == "" || sub != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		u, err := a.ws.GetUser(r.Context(), pr, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPatch, http.MethodPut:
		var patch workspace.UserPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		u, err := a.ws.UpdateUser(r.Context(), pr, id, patch)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		if err := a.ws.DeleteUser(r.Context(), pr, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)
	}
}
