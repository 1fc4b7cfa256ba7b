package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"filogate.org/internal/auth"
)

type assignRightRequest struct {
	AccessLevelID int64           `json:"access_level_id" validate:"required"`
	AccessScope   json.RawMessage `json:"access_scope"`
}

type updateRightRequest struct {
	AccessLevelID *int64          `json:"access_level_id"`
	AccessScope   json.RawMessage `json:"access_scope"`
}

// requireManager gates permission administration. Only the configured
// admin account or a CORPORATE manager passes.
func (a *API) requireManager(w http.ResponseWriter, r *http.Request) (*auth.RequestContext, bool) {
	rc, ok := auth.FromContext(r.Context())
	if !ok {
		handleAuthError(w, r, auth.ErrNoToken)
		return nil, false
	}
	if !a.svc.IsPermissionManager(rc) {
		handleAuthError(w, r, auth.PermissionDenied(auth.PermManageRights, rc.Permissions))
		return nil, false
	}
	return rc, true
}

// handleUserResource serves POST /v1/users/{id}/access-rights.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "access-rights" {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	rc, ok := a.requireManager(w, r)
	if !ok {
		return
	}

	var req assignRightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, auth.ErrMissingFields.Code, "access_level_id is required")
		return
	}

	right, err := a.svc.AssignAccessRight(r.Context(), userID, req.AccessLevelID, req.AccessScope, rc.UserID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, right)
}

// handleAccessRightResource serves DELETE and PATCH on
// /v1/access-rights/{id}.
func (a *API) handleAccessRightResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/access-rights/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}
	rightID, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		rc, ok := a.requireManager(w, r)
		if !ok {
			return
		}
		if err := a.svc.RevokeAccessRight(r.Context(), rightID, rc.UserID); err != nil {
			handleAuthError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPatch:
		rc, ok := a.requireManager(w, r)
		if !ok {
			return
		}
		var req updateRightRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
			return
		}
		if req.AccessLevelID == nil && req.AccessScope == nil {
			writeError(w, r, http.StatusBadRequest, auth.ErrMissingFields.Code, "nothing to update")
			return
		}
		right, err := a.svc.UpdateAccessRight(r.Context(), rightID, auth.AccessRightUpdate{
			AccessLevelID: req.AccessLevelID,
			AccessScope:   req.AccessScope,
		}, rc.UserID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, right)
	default:
		methodNotAllowed(w, r, http.MethodDelete, http.MethodPatch)
	}
}
