// Package authtest provides an in-memory auth.Store for tests that
// exercise service behavior without a database.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"filogate.org/internal/auth"
)

// Store keeps everything in maps guarded by one mutex. Transactional
// store operations (Grant, Rotate) hold the lock across both steps,
// mirroring the atomicity the SQL implementation gets from
// transactions.
type Store struct {
	mu sync.Mutex

	users       map[int64]*auth.User
	levels      map[int64]*auth.AccessLevel
	rights      map[int64]*auth.UserAccessRight
	assignments map[int64]*auth.PersonnelWorkArea
	tokens      map[string]*auth.RefreshToken

	nextRightID int64
	clock       func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*auth.User),
		levels:      make(map[int64]*auth.AccessLevel),
		rights:      make(map[int64]*auth.UserAccessRight),
		assignments: make(map[int64]*auth.PersonnelWorkArea),
		tokens:      make(map[string]*auth.RefreshToken),
		nextRightID: 1,
		clock:       time.Now,
	}
}

var _ auth.Store = (*Store)(nil)

// SetClock overrides the store's time source (useful for tests that
// need the fake store to agree with an injected service clock).
func (s *Store) SetClock(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.clock = fn
	}
}

func (s *Store) Users(context.Context) auth.UserStore                 { return (*userStore)(s) }
func (s *Store) AccessLevels(context.Context) auth.AccessLevelStore   { return (*levelStore)(s) }
func (s *Store) AccessRights(context.Context) auth.AccessRightStore   { return (*rightStore)(s) }
func (s *Store) Personnel(context.Context) auth.PersonnelStore        { return (*personnelStore)(s) }
func (s *Store) RefreshTokens(context.Context) auth.RefreshTokenStore { return (*tokenStore)(s) }

// AddUser seeds a user.
func (s *Store) AddUser(u *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// AddLevel seeds an access level.
func (s *Store) AddLevel(l *auth.AccessLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.levels[l.ID] = &cp
}

// AddAssignment seeds a personnel work-area assignment.
func (s *Store) AddAssignment(a *auth.PersonnelWorkArea) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assignments[a.PersonnelID] = &cp
}

// ActiveRights returns the active rights of a user, for invariant
// assertions.
func (s *Store) ActiveRights(userID int64) []*auth.UserAccessRight {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.UserAccessRight
	for _, r := range s.rights {
		if r.UserID == userID && r.Active {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// ActiveTokens returns the unrevoked refresh tokens of a user.
func (s *Store) ActiveTokens(userID int64) []*auth.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

type userStore Store

func (s *userStore) Find(_ context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *userStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Active = false
	return nil
}

type levelStore Store

func (s *levelStore) Find(_ context.Context, id int64) (*auth.AccessLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *levelStore) FindByCode(_ context.Context, code auth.AccessLevelCode) (*auth.AccessLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.levels {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

type rightStore Store

func (s *rightStore) Find(_ context.Context, id int64) (*auth.UserAccessRight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rights[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *rightStore) ActiveForUser(_ context.Context, userID int64) (*auth.UserAccessRight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rights {
		if r.UserID == userID && r.Active {
			cp := *r
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *rightStore) Grant(_ context.Context, right *auth.UserAccessRight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rights {
		if r.UserID == right.UserID && r.Active {
			r.Active = false
		}
	}
	right.ID = s.nextRightID
	s.nextRightID++
	cp := *right
	s.rights[right.ID] = &cp
	return nil
}

func (s *rightStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rights[id]
	if !ok {
		return auth.ErrNotFound
	}
	r.Active = false
	return nil
}

func (s *rightStore) Update(_ context.Context, id int64, upd auth.AccessRightUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rights[id]
	if !ok || !r.Active {
		return auth.ErrNotFound
	}
	if upd.AccessLevelID != nil {
		r.AccessLevelID = *upd.AccessLevelID
	}
	if upd.AccessScope != nil {
		r.AccessScope = upd.AccessScope
	}
	return nil
}

type personnelStore Store

func (s *personnelStore) CurrentWorkArea(_ context.Context, personnelID int64) (*auth.PersonnelWorkArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[personnelID]
	if !ok || !a.Active {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

type tokenStore Store

func (s *tokenStore) Create(_ context.Context, tok *auth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tok
	s.tokens[tok.ID] = &cp
	return nil
}

func (s *tokenStore) Find(_ context.Context, id string) (*auth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *tokenStore) Rotate(_ context.Context, revokeID string, next *auth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.tokens[revokeID]
	if !ok {
		return auth.ErrNotFound
	}
	now := s.clock()
	old.Revoked = true
	old.RevokedAt = &now
	cp := *next
	s.tokens[next.ID] = &cp
	return nil
}

func (s *tokenStore) MarkRevoked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return auth.ErrNotFound
	}
	now := s.clock()
	t.Revoked = true
	t.RevokedAt = &now
	return nil
}

func (s *tokenStore) MarkRevokedByUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for _, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			t.RevokedAt = &now
		}
	}
	return nil
}

func (s *tokenStore) RevokeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	var n int64
	for _, t := range s.tokens {
		if !t.Revoked && now.After(t.ExpiresAt) {
			t.Revoked = true
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}
