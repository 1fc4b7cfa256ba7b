package pg

import (
	"fmt"

	"filogate.org/internal/auth"
)

// ScopeCondition renders a work-area scope as a SQL predicate over the
// given owner column. Unrestricted scopes emit no predicate. Restricted
// scopes match the listed areas plus rows with no owner, so shared
// records stay visible; with an empty list only ownerless rows match.
//
// argIndex is the placeholder number the predicate should start at.
// Callers append the returned args to their own argument list.
func ScopeCondition(scope auth.WorkAreaScope, column string, argIndex int) (string, []any) {
	if scope.Unrestricted {
		return "", nil
	}
	ids := scope.WorkAreaIDs
	if ids == nil {
		ids = []int64{}
	}
	clause := fmt.Sprintf("(%s = any($%d) or %s is null)", column, argIndex, column)
	return clause, []any{ids}
}
