package auth

import (
	"fmt"
	"strings"
)

// HasPermission reports whether the context's permission set contains
// the wildcard or the exact permission string.
func (rc *RequestContext) HasPermission(perm string) bool {
	if rc == nil || perm == "" {
		return false
	}
	for _, p := range rc.Permissions {
		if p == PermissionAll || p == perm {
			return true
		}
	}
	return false
}

// PermissionDenied builds the coded deny, echoing the permission the
// operation required and the caller's current set so a rejected client
// can see what it is missing.
func PermissionDenied(required string, held []string) *Error {
	current := "none"
	if len(held) > 0 {
		current = strings.Join(held, ", ")
	}
	return &Error{
		Code:    ErrInsufficientPermission.Code,
		Message: fmt.Sprintf("operation requires %s; current permissions: %s", required, current),
	}
}

// RequirePermission authorizes one operation against the context. The
// deny satisfies errors.Is against ErrInsufficientPermission and
// carries the required permission and the caller's set.
func RequirePermission(rc *RequestContext, perm string) error {
	if rc.HasPermission(perm) {
		return nil
	}
	var held []string
	if rc != nil {
		held = rc.Permissions
	}
	return PermissionDenied(perm, held)
}

// IsPermissionManager reports whether the context may administer
// access rights: either the configured administrator account, or a
// CORPORATE context holding the wildcard or the dedicated management
// permission.
func (s *Service) IsPermissionManager(rc *RequestContext) bool {
	if rc == nil {
		return false
	}
	if s.adminEmail != "" && strings.EqualFold(rc.Email, s.adminEmail) {
		return true
	}
	if rc.AccessLevel != LevelCorporate {
		return false
	}
	return rc.HasPermission(PermissionAll) || rc.HasPermission(PermManageRights)
}
