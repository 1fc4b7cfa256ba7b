package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"filogate.org/internal/audit"
	"filogate.org/internal/auth"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the stable error envelope. The code field is part
// of the API contract; clients branch on it, not on the message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": msg,
		},
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// decodeJSON relies on the MaxBodyBytes middleware for the size cap;
// the body reaching a handler is already limit-wrapped.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps coded policy failures onto HTTP statuses.
// Unknown errors never leak details to the client.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	status := http.StatusInternalServerError
	switch authErr.Code {
	case auth.ErrNoToken.Code, auth.ErrInvalidToken.Code, auth.ErrExpiredToken.Code,
		auth.ErrInvalidRefreshToken.Code, auth.ErrExpiredRefreshToken.Code,
		auth.ErrInvalidCredentials.Code:
		status = http.StatusUnauthorized
	case auth.ErrAccountLocked.Code:
		status = http.StatusLocked
	case auth.ErrInsufficientPermission.Code, auth.ErrAdminProtected.Code:
		status = http.StatusForbidden
	case auth.ErrMissingFields.Code, auth.ErrInvalidAccessLevel.Code, auth.ErrInvalidUser.Code:
		status = http.StatusBadRequest
	case auth.ErrUserNotFound.Code, auth.ErrAccessRightNotFound.Code, auth.ErrNotFound.Code:
		status = http.StatusNotFound
	}
	writeError(w, r, status, authErr.Code, authErr.Message)
}
