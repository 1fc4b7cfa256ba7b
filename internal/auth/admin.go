package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// AssignAccessRight grants a new access-level assignment to the target
// user. Every currently-active right of the target is deactivated and
// the new row inserted in one store transaction, so concurrent grants
// cannot leave two active rights behind. Superseded rights are kept as
// audit trail.
func (s *Service) AssignAccessRight(ctx context.Context, targetUserID, accessLevelID int64, accessScope json.RawMessage, actingAdminID int64) (*UserAccessRight, error) {
	target, err := s.store.Users(ctx).Find(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, err
	}
	if !target.Active {
		return nil, ErrInvalidUser
	}

	level, err := s.store.AccessLevels(ctx).Find(ctx, accessLevelID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAccessLevel
		}
		return nil, err
	}
	if !level.Active {
		return nil, ErrInvalidAccessLevel
	}

	rights := s.store.AccessRights(ctx)
	before, err := rights.ActiveForUser(ctx, targetUserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	right := &UserAccessRight{
		UserID:        targetUserID,
		AccessLevelID: accessLevelID,
		AccessScope:   accessScope,
		Active:        true,
		GrantedBy:     actingAdminID,
		GrantedAt:     s.now().UTC(),
	}
	if err := rights.Grant(ctx, right); err != nil {
		return nil, err
	}
	s.recordChange(ctx, "user_access_right", right.ID, "grant", before, right, actingAdminID)
	return right, nil
}

// RevokeAccessRight soft-deletes an access right. Rights belonging to
// the configured administrator account are refused outright rather
// than silently succeeding.
func (s *Service) RevokeAccessRight(ctx context.Context, rightID, actingAdminID int64) error {
	rights := s.store.AccessRights(ctx)
	right, err := rights.Find(ctx, rightID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccessRightNotFound
		}
		return err
	}

	owner, err := s.store.Users(ctx).Find(ctx, right.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if owner != nil && s.adminEmail != "" && strings.EqualFold(owner.Email, s.adminEmail) {
		return ErrAdminProtected
	}

	if err := rights.Deactivate(ctx, rightID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccessRightNotFound
		}
		return err
	}
	after := *right
	after.Active = false
	s.recordChange(ctx, "user_access_right", rightID, "revoke", right, &after, actingAdminID)
	return nil
}

// UpdateAccessRight mutates the existing active row in place instead
// of writing a new audited version. The audit trail is therefore
// weaker than grant/revoke; a known limitation kept for parity with
// how scope adjustments are applied operationally.
func (s *Service) UpdateAccessRight(ctx context.Context, rightID int64, upd AccessRightUpdate, actingAdminID int64) (*UserAccessRight, error) {
	rights := s.store.AccessRights(ctx)
	right, err := rights.Find(ctx, rightID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccessRightNotFound
		}
		return nil, err
	}
	if !right.Active {
		return nil, ErrAccessRightNotFound
	}

	if upd.AccessLevelID != nil {
		level, err := s.store.AccessLevels(ctx).Find(ctx, *upd.AccessLevelID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidAccessLevel
			}
			return nil, err
		}
		if !level.Active {
			return nil, ErrInvalidAccessLevel
		}
	}

	if err := rights.Update(ctx, rightID, upd); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccessRightNotFound
		}
		return nil, err
	}

	after := *right
	if upd.AccessLevelID != nil {
		after.AccessLevelID = *upd.AccessLevelID
	}
	if upd.AccessScope != nil {
		after.AccessScope = upd.AccessScope
	}
	s.recordChange(ctx, "user_access_right", rightID, "update", right, &after, actingAdminID)
	return &after, nil
}

func (s *Service) recordChange(ctx context.Context, entity string, id int64, action string, before, after any, actor int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.RecordChange(ctx, entity, id, action, before, after, actor)
}
