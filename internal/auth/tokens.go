package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims are carried by the signed access token. Everything
// beyond the subject is advisory: the middleware recomputes
// permissions and scope from the store on every request, so a change
// server-side takes effect before the token expires.
type AccessClaims struct {
	Permissions   []string      `json:"permissions"`
	Scope         WorkAreaScope `json:"scope"`
	Department    string        `json:"department,omitempty"`
	PositionLevel int           `json:"position_level"`
	CompanyID     int64         `json:"company_id"`
	jwt.RegisteredClaims
}

// signAccessToken mints an HS256 access token for the resolved context.
func signAccessToken(secret []byte, issuer string, rc *RequestContext, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("token secret is not configured")
	}
	exp := now.Add(ttl)
	claims := AccessClaims{
		Permissions:   rc.Permissions,
		Scope:         rc.Scope,
		Department:    rc.Department,
		PositionLevel: rc.PositionLevel,
		CompanyID:     rc.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(rc.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// verifyAccessToken checks signature, issuer and expiry, returning the
// subject user id. Expired tokens are reported distinctly so callers
// can surface EXPIRED_TOKEN instead of the generic failure.
func verifyAccessToken(secret []byte, issuer, token string, now func() time.Time) (int64, *AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil, ErrNoToken
	}
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, nil, ErrExpiredToken
		}
		return 0, nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return 0, nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, nil, ErrInvalidToken
	}
	return userID, claims, nil
}

// Refresh tokens travel as "<id>.<secret>": a ULID id for indexed
// lookup and a 256-bit random secret the store never sees in
// plaintext.

func newRefreshSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func newSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashRefreshSecret(salt, secret string) string {
	sum := sha256.Sum256([]byte(salt + secret))
	return hex.EncodeToString(sum[:])
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func verifyRefreshSecret(rec *RefreshToken, secret string) bool {
	expected := hashRefreshSecret(rec.Salt, secret)
	if len(expected) != len(rec.SecretHash) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(rec.SecretHash)) == 1
}
