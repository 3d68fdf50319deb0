package httpapi

import (
	"net/http"

	"taskgate.org/internal/workspace"
)

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		orgs, err := a.ws.ListOrganizations(r.Context(), pr)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": orgs})
	case http.MethodPost:
		var in workspace.OrganizationInput
		if err := decodeJSON(r, &in); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		org, err := a.ws.CreateOrganization(r.Context(), pr, in)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, org)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	id, sub := resourceID(r.URL.Path, "/v1/organizations/")
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
		org, err := a.ws.GetOrganization(r.Context(), pr, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPatch, http.MethodPut:
		var patch workspace.OrganizationPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		org, err := a.ws.UpdateOrganization(r.Context(), pr, id, patch)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if err := a.ws.DeleteOrganization(r.Context(), pr, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete)
	}
}
