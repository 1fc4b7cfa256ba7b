package auth

import (
	"context"
	"encoding/json"
)

// Store describes persistence operations required by the engine.
type Store interface {
	Users(ctx context.Context) UserStore
	AccessLevels(ctx context.Context) AccessLevelStore
	AccessRights(ctx context.Context) AccessRightStore
	Personnel(ctx context.Context) PersonnelStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// UserStore manages user accounts.
type UserStore interface {
	Find(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Deactivate(ctx context.Context, id int64) error
}

// AccessLevelStore reads the static access-level reference data.
type AccessLevelStore interface {
	Find(ctx context.Context, id int64) (*AccessLevel, error)
	FindByCode(ctx context.Context, code AccessLevelCode) (*AccessLevel, error)
}

// AccessRightUpdate mutates an existing right in place. Nil fields are
// left untouched.
type AccessRightUpdate struct {
	AccessLevelID *int64
	AccessScope   json.RawMessage
}

// AccessRightStore manages access-level assignments.
type AccessRightStore interface {
	Find(ctx context.Context, id int64) (*UserAccessRight, error)
	// ActiveForUser returns the single active right, or ErrNotFound.
	ActiveForUser(ctx context.Context, userID int64) (*UserAccessRight, error)
	// Grant atomically deactivates every active right of the target
	// user and inserts the new one, preserving the single-active-right
	// invariant under concurrent grants.
	Grant(ctx context.Context, right *UserAccessRight) error
	Deactivate(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, upd AccessRightUpdate) error
}

// PersonnelStore resolves current site assignments.
type PersonnelStore interface {
	// CurrentWorkArea returns the active assignment, or ErrNotFound
	// when the personnel member is unassigned.
	CurrentWorkArea(ctx context.Context, personnelID int64) (*PersonnelWorkArea, error)
}

// RefreshTokenStore manages the refresh-token lifecycle. Revoked is a
// terminal state; no operation reactivates a token.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	// Rotate revokes the presented token and inserts its successor in
	// one transaction, so a crash cannot leave both or neither valid.
	Rotate(ctx context.Context, revokeID string, next *RefreshToken) error
	MarkRevoked(ctx context.Context, id string) error
	MarkRevokedByUser(ctx context.Context, userID int64) error
	// RevokeExpired marks expired-but-unrevoked tokens revoked and
	// returns how many rows it touched.
	RevokeExpired(ctx context.Context) (int64, error)
}

// Security is the external lockout collaborator. Counters live in a
// shared store keyed by identifier, not in process memory.
type Security interface {
	IsAccountLocked(ctx context.Context, email string) (bool, error)
	TrackLoginAttempt(ctx context.Context, attempt LoginAttempt) error
}

// Audit records before/after images of administrative changes.
type Audit interface {
	RecordChange(ctx context.Context, entity string, id int64, action string, before, after any, actor int64) error
}
