package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"filogate.org/internal/auth"
)

func TestAuthRejectsMissingToken(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	rr := doJSON(t, api.Handler(), http.MethodGet, "/v1/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "NO_TOKEN" {
		t.Fatalf("unexpected code: %s", body.Error.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	rr := doJSON(t, api.Handler(), http.MethodGet, "/v1/auth/me", "not.a.jwt", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "INVALID_TOKEN" {
		t.Fatalf("unexpected code: %s", body.Error.Code)
	}
}

func TestPublicPathsSkipAuth(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	h := api.Handler()
	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		rr := doJSON(t, h, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rr.Code)
		}
	}
}

func TestAPIKeyAuthentication(t *testing.T) {
	api, _ := newTestAPI(t, Options{APIKeys: map[string]string{"telemetry": "gizli-anahtar"}})
	h := api.Handler()

	req := newRequest(http.MethodGet, "/v1/auth/me")
	req.Header.Set("X-Api-Key", "gizli-anahtar")
	rr := record(h, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("api key request returned %d: %s", rr.Code, rr.Body.String())
	}
	var rc auth.RequestContext
	if err := json.Unmarshal(rr.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if rc.APIKeyName != "telemetry" {
		t.Fatalf("expected api key identity, got %+v", rc)
	}
	if !rc.Scope.Unrestricted {
		t.Fatal("api key scope must be unrestricted")
	}
	if rc.HasPermission(auth.PermDataWrite) || rc.HasPermission(auth.PermManageRights) {
		t.Fatalf("api key must stay read-only, got %v", rc.Permissions)
	}
	if !rc.HasPermission(auth.PermFleetRead) {
		t.Fatalf("api key should read fleet data, got %v", rc.Permissions)
	}

	req = newRequest(http.MethodGet, "/v1/auth/me")
	req.Header.Set("X-Api-Key", "yanlis")
	rr = record(h, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrong key to fail, got %d", rr.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"  Bearer   abc  ", "abc", nil},
		{"", "", auth.ErrNoToken},
		{"Bearer ", "", auth.ErrInvalidToken},
		{"Basic abc", "", auth.ErrInvalidToken},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("header %q: expected %v, got %v", tc.header, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got token %q", tc.header, got)
		}
	}
}
