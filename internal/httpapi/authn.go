package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"filogate.org/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearer       = "Bearer "
	apiKeyHeader = "X-Api-Key"
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/",
}

// apiKeyPermissions is the fixed capability set for machine callers.
// Keys read telemetry and reporting data; they never administer.
var apiKeyPermissions = []string{
	auth.PermDataRead,
	auth.PermFleetRead,
	auth.PermFuelRead,
	auth.PermReportsRead,
}

// withAuth resolves the caller's authorization context before the
// request reaches a handler. Context is rebuilt from the store on
// every request; token claims only prove identity.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if key := strings.TrimSpace(r.Header.Get(apiKeyHeader)); key != "" {
			rc, ok := a.apiKeyContext(key)
			if !ok {
				handleAuthError(w, r, auth.ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWith(r.Context(), rc)))
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		rc, err := a.svc.AuthenticateAccessToken(r.Context(), token)
		if err != nil {
			// A deactivated or deleted subject reads the same as a bad
			// token from the outside.
			if errors.Is(err, auth.ErrUserNotFound) {
				err = auth.ErrInvalidToken
			}
			handleAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWith(r.Context(), rc)))
	})
}

// apiKeyContext builds the synthetic context for a configured service
// key: read-only permissions under an unrestricted scope.
func (a *API) apiKeyContext(key string) (*auth.RequestContext, bool) {
	for name, configured := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(configured), []byte(key)) == 1 {
			return &auth.RequestContext{
				AccessLevel:   auth.LevelCorporate,
				HierarchyRank: auth.RankCorporate,
				Scope:         auth.UnrestrictedScope(),
				Permissions:   append([]string(nil), apiKeyPermissions...),
				APIKeyName:    name,
			}, true
		}
	}
	return nil, false
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrNoToken
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", auth.ErrInvalidToken
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrNoToken
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
