package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.20:5050"
	return req
}

func record(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))

	rr := record(h, newRequest(http.MethodGet, "/x"))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	if seen == "" || rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRequestIDHonorsInbound(t *testing.T) {
	h := RequestID(okHandler())
	req := newRequest(http.MethodGet, "/x")
	req.Header.Set("X-Request-Id", "upstream-42")
	rr := record(h, req)
	if got := rr.Header().Get("X-Request-Id"); got != "upstream-42" {
		t.Fatalf("expected upstream id echoed, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler())
	rr := record(h, newRequest(http.MethodGet, "/x"))
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Fatalf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(okHandler())
	req := newRequest(http.MethodOptions, "/v1/auth/login")
	req.Header.Set("Origin", "http://localhost:3000")
	rr := record(h, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight returned %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("origin not allowed: %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSUnknownOriginNotEchoed(t *testing.T) {
	h := CORS(okHandler())
	req := newRequest(http.MethodGet, "/x")
	req.Header.Set("Origin", "https://saldirgan.example")
	rr := record(h, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestRateLimitExceeded(t *testing.T) {
	h := RequestID(RateLimit(okHandler(), 1, 1))

	rr1 := record(h, newRequest(http.MethodGet, "/limited"))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first call 200, got %d", rr1.Code)
	}

	rr2 := record(h, newRequest(http.MethodGet, "/limited"))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr2.Code)
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	var body errorBody
	if err := json.Unmarshal(rr2.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rate limit body: %v", err)
	}
	if body.Error.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected code: %s", body.Error.Code)
	}
	if body.RequestID == "" {
		t.Fatal("expected request_id in body")
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	h := RateLimit(okHandler(), 1, 1)

	a := newRequest(http.MethodGet, "/limited")
	a.RemoteAddr = "192.0.2.1:1000"
	b := newRequest(http.MethodGet, "/limited")
	b.RemoteAddr = "192.0.2.2:1000"

	if rr := record(h, a); rr.Code != http.StatusOK {
		t.Fatalf("first client blocked: %d", rr.Code)
	}
	if rr := record(h, a); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("first client should be limited")
	}
	if rr := record(h, b); rr.Code != http.StatusOK {
		t.Fatalf("second client must not share the bucket: %d", rr.Code)
	}
}
