package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"filogate.org/internal/auth"
)

func TestAssignAccessRightSupersedesActive(t *testing.T) {
	store := seedStore(t)
	audit := &fakeAudit{}
	svc := newService(t, store, auth.WithAudit(audit))

	first, err := svc.AssignAccessRight(context.Background(), 1, 1, nil, 2)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	second, err := svc.AssignAccessRight(context.Background(), 1, 2, json.RawMessage(`{"work_area_ids":[3]}`), 2)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}

	active := store.ActiveRights(1)
	if len(active) != 1 {
		t.Fatalf("expected exactly one active right, got %d", len(active))
	}
	if active[0].ID != second.ID {
		t.Fatalf("the newest right must be the active one")
	}
	if active[0].GrantedBy != 2 {
		t.Fatalf("grantedBy not recorded: %+v", active[0])
	}
	_ = first

	if len(audit.changes) != 2 || audit.changes[1].Action != "grant" {
		t.Fatalf("expected two audited grants, got %+v", audit.changes)
	}
}

func TestAssignAccessRightValidatesTarget(t *testing.T) {
	store := seedStore(t)
	svc := newService(t, store)

	if _, err := svc.AssignAccessRight(context.Background(), 999, 1, nil, 2); !errors.Is(err, auth.ErrInvalidUser) {
		t.Fatalf("missing user: expected ErrInvalidUser, got %v", err)
	}

	if err := store.Users(context.Background()).Deactivate(context.Background(), 1); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.AssignAccessRight(context.Background(), 1, 1, nil, 2); !errors.Is(err, auth.ErrInvalidUser) {
		t.Fatalf("inactive user: expected ErrInvalidUser, got %v", err)
	}
}

func TestAssignAccessRightValidatesLevel(t *testing.T) {
	store := seedStore(t)
	svc := newService(t, store)

	if _, err := svc.AssignAccessRight(context.Background(), 1, 999, nil, 2); !errors.Is(err, auth.ErrInvalidAccessLevel) {
		t.Fatalf("expected ErrInvalidAccessLevel, got %v", err)
	}
}

func TestRevokeAccessRightProtectsAdmin(t *testing.T) {
	store := seedStore(t)
	svc := newService(t, store)

	right, err := svc.AssignAccessRight(context.Background(), 2, 4, nil, 2)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.RevokeAccessRight(context.Background(), right.ID, 2); !errors.Is(err, auth.ErrAdminProtected) {
		t.Fatalf("expected ErrAdminProtected, got %v", err)
	}
	if active := store.ActiveRights(2); len(active) != 1 {
		t.Fatalf("admin right must stay active, got %d", len(active))
	}
}

func TestRevokeAccessRightNotFound(t *testing.T) {
	store := seedStore(t)
	svc := newService(t, store)
	if err := svc.RevokeAccessRight(context.Background(), 12345, 2); !errors.Is(err, auth.ErrAccessRightNotFound) {
		t.Fatalf("expected ErrAccessRightNotFound, got %v", err)
	}
}

func TestUpdateAccessRightInPlace(t *testing.T) {
	store := seedStore(t)
	audit := &fakeAudit{}
	svc := newService(t, store, auth.WithAudit(audit))

	right, err := svc.AssignAccessRight(context.Background(), 1, 2, json.RawMessage(`{"work_area_ids":[3]}`), 2)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	newScope := json.RawMessage(`{"work_area_ids":[3,9]}`)
	updated, err := svc.UpdateAccessRight(context.Background(), right.ID, auth.AccessRightUpdate{AccessScope: newScope}, 2)
	if err != nil {
		t.Fatalf("UpdateAccessRight: %v", err)
	}
	if updated.ID != right.ID {
		t.Fatalf("update must not create a new row")
	}
	if string(updated.AccessScope) != string(newScope) {
		t.Fatalf("scope not updated: %s", updated.AccessScope)
	}
	if active := store.ActiveRights(1); len(active) != 1 || active[0].ID != right.ID {
		t.Fatalf("update must keep the same active row")
	}

	badLevel := int64(999)
	if _, err := svc.UpdateAccessRight(context.Background(), right.ID, auth.AccessRightUpdate{AccessLevelID: &badLevel}, 2); !errors.Is(err, auth.ErrInvalidAccessLevel) {
		t.Fatalf("expected ErrInvalidAccessLevel, got %v", err)
	}
}

func TestUpdateRevokedRightFails(t *testing.T) {
	store := seedStore(t)
	svc := newService(t, store)

	right, err := svc.AssignAccessRight(context.Background(), 1, 1, nil, 2)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.RevokeAccessRight(context.Background(), right.ID, 2); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.UpdateAccessRight(context.Background(), right.ID, auth.AccessRightUpdate{}, 2); !errors.Is(err, auth.ErrAccessRightNotFound) {
		t.Fatalf("expected ErrAccessRightNotFound on revoked right, got %v", err)
	}
}
