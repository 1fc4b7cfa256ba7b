package httpapi

import (
	"errors"
	"net/http"
	"time"

	"filogate.org/internal/audit"
	"filogate.org/internal/auth"
	"filogate.org/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type sessionResponse struct {
	AccessToken      string               `json:"accessToken"`
	RefreshToken     string               `json:"refreshToken"`
	TokenType        string               `json:"tokenType"`
	ExpiresIn        int64                `json:"expiresIn"`
	RefreshExpiresIn int64                `json:"refreshExpiresIn"`
	Permissions      []string             `json:"permissions"`
	Context          *auth.RequestContext `json:"context"`
}

func newSessionResponse(pair auth.TokenPair, rc *auth.RequestContext) sessionResponse {
	return sessionResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(time.Until(pair.AccessExpiresAt).Seconds()),
		RefreshExpiresIn: int64(time.Until(pair.RefreshExpiresAt).Seconds()),
		Permissions:      rc.Permissions,
		Context:          rc,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, auth.ErrMissingFields.Code, "email and password are required")
		return
	}

	pair, rc, err := a.svc.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			obs.CountLogin("locked")
		case errors.Is(err, auth.ErrInvalidCredentials):
			obs.CountLogin("invalid")
		default:
			obs.CountLogin("error")
		}
		handleAuthError(w, r, err)
		return
	}
	obs.CountLogin("success")
	_ = audit.LogEvent(auth.ContextWith(r.Context(), rc), "auth.login", map[string]any{
		"email":        rc.Email,
		"access_level": rc.AccessLevel,
	})
	writeJSON(w, http.StatusOK, newSessionResponse(pair, rc))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, auth.ErrMissingFields.Code, "refreshToken is required")
		return
	}

	pair, rc, err := a.svc.Refresh(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredRefreshToken):
			obs.CountRefresh("expired")
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			obs.CountRefresh("invalid")
		default:
			obs.CountRefresh("error")
		}
		handleAuthError(w, r, err)
		return
	}
	obs.CountRefresh("success")
	_ = audit.LogEvent(auth.ContextWith(r.Context(), rc), "auth.token.refreshed", nil)
	writeJSON(w, http.StatusOK, newSessionResponse(pair, rc))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	rc, ok := auth.FromContext(r.Context())
	if !ok || rc.UserID == 0 {
		handleAuthError(w, r, auth.ErrNoToken)
		return
	}
	if err := a.svc.Logout(r.Context(), rc.UserID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe echoes the freshly resolved request context so clients can
// inspect their effective permissions and scope.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	rc, ok := auth.FromContext(r.Context())
	if !ok {
		handleAuthError(w, r, auth.ErrNoToken)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}
