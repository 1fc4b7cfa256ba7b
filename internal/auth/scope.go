package auth

import (
	"encoding/json"
	"sort"
)

// Permission capability tokens known to the engine. PermissionAll is
// the wildcard that matches every check.
const (
	PermissionAll = "*"

	PermDataRead       = "data:read"
	PermDataWrite      = "data:write"
	PermPersonnelRead  = "personnel:read"
	PermPersonnelWrite = "personnel:write"
	PermFleetRead      = "fleet:read"
	PermFleetWrite     = "fleet:write"
	PermFuelRead       = "fuel:read"
	PermFuelWrite      = "fuel:write"
	PermReportsRead    = "reports:read"
	PermFinanceRead    = "finance:read"
	PermFinanceWrite   = "finance:write"
	PermAssetRead      = "asset:read"
	PermAssetWrite     = "asset:write"
	PermManageRights   = "permission:manage"
)

// WorkAreaScope is the resolved data-visibility scope of a request.
// Either unrestricted, or restricted to an explicit work-area id list.
type WorkAreaScope struct {
	Unrestricted bool    `json:"unrestricted"`
	WorkAreaIDs  []int64 `json:"work_area_ids,omitempty"`
}

// UnrestrictedScope sees every work area.
func UnrestrictedScope() WorkAreaScope {
	return WorkAreaScope{Unrestricted: true}
}

// RestrictedScope sees only the given work areas. An empty list means
// nothing scoped is visible.
func RestrictedScope(ids ...int64) WorkAreaScope {
	return WorkAreaScope{WorkAreaIDs: ids}
}

// Allows reports whether a row owned by the given work area is visible
// under this scope. Rows with no work-area owner remain visible to
// everyone; that union is deliberate and relied upon by query builders.
func (s WorkAreaScope) Allows(workAreaID *int64) bool {
	if s.Unrestricted {
		return true
	}
	if workAreaID == nil {
		return true
	}
	for _, id := range s.WorkAreaIDs {
		if id == *workAreaID {
			return true
		}
	}
	return false
}

// regionalScope is the structured payload carried by REGIONAL access
// rights.
type regionalScope struct {
	WorkAreaIDs []int64 `json:"work_area_ids"`
}

// ResolveWorkAreaScope maps an access-level assignment to a visibility
// scope. Pure. Every ambiguity resolves to the most restrictive
// outcome: malformed REGIONAL scope data and unknown level codes both
// yield an empty restricted scope, never an unrestricted one.
func ResolveWorkAreaScope(level AccessLevelCode, accessScope json.RawMessage, currentWorkAreaID *int64) WorkAreaScope {
	switch level {
	case LevelCorporate, LevelDepartment:
		return UnrestrictedScope()
	case LevelWorksite:
		if currentWorkAreaID == nil {
			return RestrictedScope()
		}
		return RestrictedScope(*currentWorkAreaID)
	case LevelRegional:
		if len(accessScope) == 0 {
			return RestrictedScope()
		}
		var parsed regionalScope
		if err := json.Unmarshal(accessScope, &parsed); err != nil {
			return RestrictedScope()
		}
		if len(parsed.WorkAreaIDs) == 0 {
			return RestrictedScope()
		}
		return RestrictedScope(parsed.WorkAreaIDs...)
	default:
		return RestrictedScope()
	}
}

// departmentPermissions extends the DEPARTMENT base set per department.
// Unknown departments get the base set only.
var departmentPermissions = map[string][]string{
	"muhasebe":   {PermFinanceRead, PermFinanceWrite, PermReportsRead},
	"ik":         {PermPersonnelRead, PermPersonnelWrite},
	"satin_alma": {PermAssetRead, PermAssetWrite, PermFinanceRead},
	"operasyon":  {PermFleetRead, PermFleetWrite, PermFuelRead, PermFuelWrite},
}

// ResolvePermissions maps an access-level assignment to a permission
// set. Pure and deterministic: the returned slice is sorted and
// deduplicated so identical inputs always compare equal.
func ResolvePermissions(level AccessLevelCode, department string, positionLevel int) []string {
	switch level {
	case LevelCorporate:
		return []string{PermissionAll}
	case LevelDepartment:
		perms := []string{PermDataRead}
		perms = append(perms, departmentPermissions[department]...)
		return normalizePermissions(perms)
	case LevelRegional:
		return normalizePermissions([]string{
			PermDataRead, PermDataWrite,
			PermPersonnelRead, PermPersonnelWrite,
			PermFleetRead, PermFleetWrite,
			PermReportsRead,
			PermFuelRead, PermFuelWrite,
		})
	case LevelWorksite:
		perms := []string{PermDataRead, PermFleetRead, PermFuelWrite}
		if positionLevel >= 2 {
			perms = append(perms, PermDataWrite, PermPersonnelRead, PermFleetWrite)
		}
		return normalizePermissions(perms)
	default:
		return []string{PermDataRead}
	}
}

// DefaultPermissions is the least-privilege set applied when a user has
// no active access right.
func DefaultPermissions() []string {
	return []string{PermDataRead}
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
