package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/auth/login":                "/v1/auth/login",
		"/v1/users/42/access-rights":    "/v1/users/:id/access-rights",
		"/v1/access-rights/17":          "/v1/access-rights/:id",
		"/v1/access-rights/17?pretty=1": "/v1/access-rights/:id",
		"/v1/users/42/extra/deep":       "/v1/users/42/extra/deep",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
