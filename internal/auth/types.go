package auth

import (
	"encoding/json"
	"time"
)

// AccessLevelCode identifies a rank in the authorization hierarchy.
type AccessLevelCode string

const (
	LevelCorporate  AccessLevelCode = "CORPORATE"
	LevelDepartment AccessLevelCode = "DEPARTMENT"
	LevelRegional   AccessLevelCode = "REGIONAL"
	LevelWorksite   AccessLevelCode = "WORKSITE"
)

// Hierarchy ranks for the static access levels. Higher rank sees more.
const (
	RankWorksite   = 1
	RankRegional   = 2
	RankDepartment = 3
	RankCorporate  = 4
)

// Rank returns the hierarchy rank for a level code. Unknown codes rank
// lowest.
func (c AccessLevelCode) Rank() int {
	switch c {
	case LevelCorporate:
		return RankCorporate
	case LevelDepartment:
		return RankDepartment
	case LevelRegional:
		return RankRegional
	default:
		return RankWorksite
	}
}

// User is an account that can authenticate against the engine.
// Users are never hard-deleted; deactivation revokes all access.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Department    string    `json:"department,omitempty"`
	PositionLevel int       `json:"position_level"`
	PersonnelID   *int64    `json:"personnel_id,omitempty"`
	CompanyID     int64     `json:"company_id"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccessLevel is static reference data describing one hierarchy rank.
type AccessLevel struct {
	ID     int64           `json:"id"`
	Code   AccessLevelCode `json:"code"`
	Rank   int             `json:"rank"`
	Name   string          `json:"name"`
	Active bool            `json:"active"`
}

// UserAccessRight assigns an access level (and an optional structured
// scope) to a user. At most one right per user is active at any time;
// superseded rights are deactivated, never deleted.
type UserAccessRight struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AccessLevelID int64           `json:"access_level_id"`
	AccessScope   json.RawMessage `json:"access_scope,omitempty"`
	Active        bool            `json:"active"`
	GrantedBy     int64           `json:"granted_by"`
	GrantedAt     time.Time       `json:"granted_at"`
}

// WorkArea is a physical site or region that business records attach to.
type WorkArea struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ParentLocation string `json:"parent_location,omitempty"`
}

// PersonnelWorkArea records a personnel member's current site
// assignment. At most one row per personnel is active.
type PersonnelWorkArea struct {
	PersonnelID int64 `json:"personnel_id"`
	WorkAreaID  int64 `json:"work_area_id"`
	PositionID  int64 `json:"position_id"`
	Active      bool  `json:"active"`
}

// RefreshToken is the persisted half of an opaque refresh credential.
// Only the salted hash of the secret is stored; the plaintext leaves
// the server once, at issuance.
type RefreshToken struct {
	ID         string
	UserID     int64
	Salt       string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time
	IssuedIP   string
	IssuedUA   string
}

// RequestContext is the immutable per-request authorization context.
// It is rebuilt from the store on every request, never cached across
// requests.
type RequestContext struct {
	UserID        int64           `json:"user_id"`
	PersonnelID   *int64          `json:"personnel_id,omitempty"`
	Email         string          `json:"email"`
	AccessLevel   AccessLevelCode `json:"access_level"`
	HierarchyRank int             `json:"hierarchy_rank"`
	Scope         WorkAreaScope   `json:"scope"`
	Permissions   []string        `json:"permissions"`
	Department    string          `json:"department,omitempty"`
	PositionLevel int             `json:"position_level"`
	WorkAreaID    *int64          `json:"work_area_id,omitempty"`
	CompanyID     int64           `json:"company_id"`
	APIKeyName    string          `json:"api_key_name,omitempty"`
}

// LoginAttempt describes one authentication attempt for tracking.
type LoginAttempt struct {
	Email     string
	Success   bool
	IP        string
	UserAgent string
	Reason    string
}

// TokenPair bundles freshly issued access and refresh credentials.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
