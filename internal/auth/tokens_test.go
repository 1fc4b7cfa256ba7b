package auth

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-signing-secret")

func testContext() *RequestContext {
	return &RequestContext{
		UserID:        42,
		Email:         "driver@example.com",
		AccessLevel:   LevelWorksite,
		HierarchyRank: RankWorksite,
		Scope:         RestrictedScope(5),
		Permissions:   []string{PermDataRead, PermFleetRead},
		PositionLevel: 1,
		CompanyID:     1,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, exp, err := signAccessToken(testSecret, "filogate", testContext(), now, 30*time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected future expiry, got %v", exp)
	}

	userID, claims, err := verifyAccessToken(testSecret, "filogate", token, time.Now)
	if err != nil {
		t.Fatalf("verifyAccessToken: %v", err)
	}
	if userID != 42 {
		t.Fatalf("unexpected subject: %d", userID)
	}
	if claims.Scope.Unrestricted || len(claims.Scope.WorkAreaIDs) != 1 || claims.Scope.WorkAreaIDs[0] != 5 {
		t.Fatalf("scope claim not preserved: %+v", claims.Scope)
	}
	if claims.CompanyID != 1 {
		t.Fatalf("company claim not preserved: %d", claims.CompanyID)
	}
}

func TestVerifyAccessTokenMissing(t *testing.T) {
	if _, _, err := verifyAccessToken(testSecret, "filogate", "   ", time.Now); err != ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	token, _, err := signAccessToken(testSecret, "filogate", testContext(), time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if _, _, err := verifyAccessToken([]byte("other-secret"), "filogate", token, time.Now); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccessTokenWrongIssuer(t *testing.T) {
	token, _, err := signAccessToken(testSecret, "someone-else", testContext(), time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if _, _, err := verifyAccessToken(testSecret, "filogate", token, time.Now); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token, _, err := signAccessToken(testSecret, "filogate", testContext(), past, 30*time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if _, _, err := verifyAccessToken(testSecret, "filogate", token, time.Now); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshSecretHashing(t *testing.T) {
	secret, err := newRefreshSecret()
	if err != nil {
		t.Fatalf("newRefreshSecret: %v", err)
	}
	salt, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt: %v", err)
	}
	rec := &RefreshToken{Salt: salt, SecretHash: hashRefreshSecret(salt, secret)}

	if !verifyRefreshSecret(rec, secret) {
		t.Fatalf("expected matching secret to verify")
	}
	if verifyRefreshSecret(rec, secret+"x") {
		t.Fatalf("tampered secret must not verify")
	}

	otherSalt, _ := newSalt()
	if hashRefreshSecret(salt, secret) == hashRefreshSecret(otherSalt, secret) {
		t.Fatalf("hash must depend on the salt")
	}
}

func TestSplitRefreshToken(t *testing.T) {
	id, secret, err := splitRefreshToken("01ABC.s3cret")
	if err != nil || id != "01ABC" || secret != "s3cret" {
		t.Fatalf("split failed: %q %q %v", id, secret, err)
	}
	for _, raw := range []string{"", "nodot", ".secret", "id.", "a.b.c"} {
		if _, _, err := splitRefreshToken(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestAccessClaimsAreCompact(t *testing.T) {
	token, _, err := signAccessToken(testSecret, "filogate", testContext(), time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("signAccessToken: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a three-segment JWT, got %q", token)
	}
}
