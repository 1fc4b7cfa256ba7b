package auth

import "fmt"

// Error is a policy failure with a stable machine-readable code. The
// HTTP layer maps codes to statuses; the code never changes once
// published.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

// Is matches on the code, so a detail-carrying copy of a sentinel
// still satisfies errors.Is against it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Authentication failures.
var (
	ErrNoToken             = &Error{Code: "NO_TOKEN", Message: "authorization token is missing"}
	ErrInvalidToken        = &Error{Code: "INVALID_TOKEN", Message: "authorization token is invalid"}
	ErrExpiredToken        = &Error{Code: "EXPIRED_TOKEN", Message: "authorization token has expired"}
	ErrInvalidRefreshToken = &Error{Code: "INVALID_REFRESH_TOKEN", Message: "refresh token is invalid or has been revoked"}
	ErrExpiredRefreshToken = &Error{Code: "EXPIRED_REFRESH_TOKEN", Message: "refresh token has expired"}
	ErrInvalidCredentials  = &Error{Code: "INVALID_CREDENTIALS", Message: "email or password is incorrect"}
)

// Authorization failures.
var (
	ErrInsufficientPermission = &Error{Code: "INSUFFICIENT_PERMISSION", Message: "operation is not permitted"}
	ErrAccountLocked          = &Error{Code: "ACCOUNT_LOCKED", Message: "account is temporarily locked"}
	ErrAdminProtected         = &Error{Code: "ADMIN_PERMISSION_PROTECTED", Message: "administrator access rights cannot be revoked"}
)

// Validation failures.
var (
	ErrMissingFields      = &Error{Code: "MISSING_FIELDS", Message: "required fields are missing"}
	ErrInvalidAccessLevel = &Error{Code: "INVALID_ACCESS_LEVEL", Message: "access level does not exist or is inactive"}
	ErrInvalidUser        = &Error{Code: "INVALID_USER", Message: "target user does not exist or is inactive"}
)

// Lookup failures.
var (
	ErrUserNotFound        = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrAccessRightNotFound = &Error{Code: "ACCESS_RIGHT_NOT_FOUND", Message: "access right not found"}
)

// ErrNotFound is the generic store-level miss, translated by the
// service into one of the coded lookup failures above.
var ErrNotFound = &Error{Code: "NOT_FOUND", Message: "not found"}
