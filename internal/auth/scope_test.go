package auth

import (
	"encoding/json"
	"reflect"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func TestResolveWorkAreaScopeUnrestrictedLevels(t *testing.T) {
	for _, level := range []AccessLevelCode{LevelCorporate, LevelDepartment} {
		scope := ResolveWorkAreaScope(level, json.RawMessage(`{"work_area_ids":[1]}`), int64p(7))
		if !scope.Unrestricted {
			t.Fatalf("%s: expected unrestricted scope, got %+v", level, scope)
		}
		scope = ResolveWorkAreaScope(level, nil, nil)
		if !scope.Unrestricted {
			t.Fatalf("%s: expected unrestricted scope without inputs, got %+v", level, scope)
		}
	}
}

func TestResolveWorkAreaScopeWorksite(t *testing.T) {
	scope := ResolveWorkAreaScope(LevelWorksite, nil, int64p(7))
	if scope.Unrestricted || !reflect.DeepEqual(scope.WorkAreaIDs, []int64{7}) {
		t.Fatalf("expected restricted to [7], got %+v", scope)
	}

	scope = ResolveWorkAreaScope(LevelWorksite, nil, nil)
	if scope.Unrestricted || len(scope.WorkAreaIDs) != 0 {
		t.Fatalf("unassigned worksite must see nothing, got %+v", scope)
	}
}

func TestResolveWorkAreaScopeRegional(t *testing.T) {
	scope := ResolveWorkAreaScope(LevelRegional, json.RawMessage(`{"work_area_ids":[3,9]}`), nil)
	if scope.Unrestricted || !reflect.DeepEqual(scope.WorkAreaIDs, []int64{3, 9}) {
		t.Fatalf("expected restricted to [3 9], got %+v", scope)
	}

	malformed := []json.RawMessage{
		nil,
		json.RawMessage(``),
		json.RawMessage(`not json`),
		json.RawMessage(`{"work_area_ids":"oops"}`),
		json.RawMessage(`{"work_area_ids":[]}`),
		json.RawMessage(`{}`),
	}
	for _, raw := range malformed {
		scope := ResolveWorkAreaScope(LevelRegional, raw, int64p(5))
		if scope.Unrestricted {
			t.Fatalf("malformed scope %q must fail closed, got unrestricted", raw)
		}
		if len(scope.WorkAreaIDs) != 0 {
			t.Fatalf("malformed scope %q must resolve empty, got %v", raw, scope.WorkAreaIDs)
		}
	}
}

func TestResolveWorkAreaScopeUnknownLevel(t *testing.T) {
	scope := ResolveWorkAreaScope(AccessLevelCode("GALACTIC"), nil, int64p(2))
	if scope.Unrestricted || len(scope.WorkAreaIDs) != 0 {
		t.Fatalf("unknown level must resolve empty restricted, got %+v", scope)
	}
}

func TestScopeAllows(t *testing.T) {
	if !UnrestrictedScope().Allows(int64p(42)) {
		t.Fatalf("unrestricted scope must allow everything")
	}
	restricted := RestrictedScope(3, 9)
	if !restricted.Allows(int64p(9)) {
		t.Fatalf("expected work area 9 visible")
	}
	if restricted.Allows(int64p(4)) {
		t.Fatalf("work area 4 must not be visible")
	}
	// Rows with no work-area owner stay visible to everyone.
	if !restricted.Allows(nil) {
		t.Fatalf("unowned rows must remain visible")
	}
	if !RestrictedScope().Allows(nil) {
		t.Fatalf("unowned rows must remain visible even to an empty scope")
	}
	if RestrictedScope().Allows(int64p(1)) {
		t.Fatalf("empty scope must hide owned rows")
	}
}

func TestResolvePermissionsWorksite(t *testing.T) {
	got := ResolvePermissions(LevelWorksite, "", 1)
	want := normalizePermissions([]string{PermDataRead, PermFleetRead, PermFuelWrite})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("worksite level 1: got %v want %v", got, want)
	}

	got = ResolvePermissions(LevelWorksite, "", 2)
	want = normalizePermissions([]string{
		PermDataRead, PermFleetRead, PermFuelWrite,
		PermDataWrite, PermPersonnelRead, PermFleetWrite,
	})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("worksite level 2: got %v want %v", got, want)
	}
}

func TestResolvePermissionsCorporateWildcard(t *testing.T) {
	got := ResolvePermissions(LevelCorporate, "muhasebe", 5)
	if !reflect.DeepEqual(got, []string{PermissionAll}) {
		t.Fatalf("corporate must resolve to the wildcard, got %v", got)
	}
}

func TestResolvePermissionsDepartmentTable(t *testing.T) {
	cases := map[string][]string{
		"muhasebe":   {PermDataRead, PermFinanceRead, PermFinanceWrite, PermReportsRead},
		"ik":         {PermDataRead, PermPersonnelRead, PermPersonnelWrite},
		"satin_alma": {PermDataRead, PermAssetRead, PermAssetWrite, PermFinanceRead},
		"operasyon":  {PermDataRead, PermFleetRead, PermFleetWrite, PermFuelRead, PermFuelWrite},
		"bilinmeyen": {PermDataRead},
		"":           {PermDataRead},
	}
	for dept, want := range cases {
		got := ResolvePermissions(LevelDepartment, dept, 1)
		if !reflect.DeepEqual(got, normalizePermissions(want)) {
			t.Fatalf("department %q: got %v want %v", dept, got, normalizePermissions(want))
		}
	}
}

func TestResolvePermissionsDeterministic(t *testing.T) {
	first := ResolvePermissions(LevelRegional, "operasyon", 3)
	for i := 0; i < 10; i++ {
		again := ResolvePermissions(LevelRegional, "operasyon", 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolution is not deterministic: %v vs %v", first, again)
		}
	}
}
