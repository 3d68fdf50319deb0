package httpapi

import (
	"net/http"
	"strings"

	"taskgate.org/internal/auth"
	"taskgate.org/internal/policy"
	"taskgate.org/internal/workspace"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	OrganizationID string `json:"organization_id"`
}

type authzCheckRequest struct {
	Resource       string `json:"resource"`
	Action         string `json:"action"`
	OrganizationID string `json:"organization_id,omitempty"`
	OwnerID        string `json:"owner_id,omitempty"`
}

type meResponse struct {
	Principal   policy.Principal    `json:"principal"`
	User        workspace.User      `json:"user"`
	Permissions []policy.Permission `json:"permissions"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	sess, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleRegister creates a viewer account. Roles above viewer are granted
// through the users API.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	sess, err := a.auth.Register(r.Context(), auth.RegisterRequest{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	u, err := a.ws.GetUser(r.Context(), pr, pr.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	perms := policy.Grants(pr.Role)
	if perms == nil {
		perms = []policy.Permission{}
	}
	writeJSON(w, http.StatusOK, meResponse{Principal: pr, User: u, Permissions: perms})
}

// handleAuthzCheck explains what the policy decides for the caller. Without
// an organization only the permission table is consulted.
func (a *API) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	pr, ok := principal(w, r)
	if !ok {
		return
	}
	var req authzCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	res, err := policy.ParseResource(req.Resource)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	act, err := policy.ParseAction(req.Action)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	var desc *policy.ResourceDescriptor
	if org := strings.TrimSpace(req.OrganizationID); org != "" {
		desc = &policy.ResourceDescriptor{OrganizationID: org, OwnerID: strings.TrimSpace(req.OwnerID)}
	}
	writeJSON(w, http.StatusOK, a.ws.Policy().Explain(pr, res, act, desc))
}
