package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"filogate.org/internal/ids"
)

const (
	defaultIssuer     = "filogate"
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Service owns credential verification, token issuance and per-request
// context resolution. It is stateless between requests: every call
// recomputes its view from the store, so instances scale horizontally
// without sticky sessions.
type Service struct {
	store    Store
	security Security
	audit    Audit
	now      func() time.Time

	tokenSecret []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	adminEmail  string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenSecret sets the HS256 signing secret for access tokens.
func WithTokenSecret(secret string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(secret) == "" {
			return errors.New("auth: token secret is empty")
		}
		s.tokenSecret = []byte(secret)
		return nil
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access-token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh-token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithAdminEmail names the protected administrator account. Its access
// rights cannot be revoked and it always passes the manager gate.
func WithAdminEmail(email string) ServiceOption {
	return func(s *Service) error {
		s.adminEmail = strings.TrimSpace(strings.ToLower(email))
		return nil
	}
}

// WithSecurity injects the lockout collaborator.
func WithSecurity(sec Security) ServiceOption {
	return func(s *Service) error {
		s.security = sec
		return nil
	}
}

// WithAudit injects the audit collaborator.
func WithAudit(a Audit) ServiceOption {
	return func(s *Service) error {
		s.audit = a
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service over the given store.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	svc := &Service{
		store:      store,
		now:        time.Now,
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	if len(svc.tokenSecret) == 0 {
		return nil, errors.New("auth: token secret is required")
	}
	return svc, nil
}

// AccessTTL reports the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Login verifies credentials and issues a fresh token pair. The
// lockout collaborator is consulted before the password hash is
// touched; a locked account fails fast with ErrAccountLocked.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (TokenPair, *RequestContext, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.trackAttempt(ctx, email, false, ip, userAgent, "unknown_user")
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if !user.Active {
		s.trackAttempt(ctx, email, false, ip, userAgent, "inactive_user")
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	if s.security != nil {
		locked, err := s.security.IsAccountLocked(ctx, email)
		if err != nil {
			return TokenPair{}, nil, err
		}
		if locked {
			s.trackAttempt(ctx, email, false, ip, userAgent, "account_locked")
			return TokenPair{}, nil, ErrAccountLocked
		}
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.trackAttempt(ctx, email, false, ip, userAgent, "bad_password")
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	s.trackAttempt(ctx, email, true, ip, userAgent, "")

	rc, err := s.resolveContext(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.mintTokens(ctx, rc, ip, userAgent)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, rc, nil
}

// Refresh exchanges a refresh token for a new pair, revoking the
// presented token in the same transaction that records its successor.
// A token that was already rotated fails: replay is how theft shows.
func (s *Service) Refresh(ctx context.Context, raw, ip, userAgent string) (TokenPair, *RequestContext, error) {
	tokenID, secret, err := splitRefreshToken(raw)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}

	tokens := s.store.RefreshTokens(ctx)
	record, err := tokens.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidRefreshToken
		}
		return TokenPair{}, nil, err
	}
	if record.Revoked {
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}
	if s.now().After(record.ExpiresAt) {
		return TokenPair{}, nil, ErrExpiredRefreshToken
	}
	if !verifyRefreshSecret(record, secret) {
		// A correct id with a wrong secret is a strong theft signal:
		// burn the row so guessing cannot continue.
		_ = tokens.MarkRevoked(ctx, record.ID)
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}

	rc, err := s.BuildContext(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, nil, ErrInvalidRefreshToken
		}
		return TokenPair{}, nil, err
	}

	now := s.now()
	accessToken, accessExp, err := signAccessToken(s.tokenSecret, s.issuer, rc, now, s.accessTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}
	rawNext, next, err := s.generateRefreshToken(rc.UserID, now, ip, userAgent)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if err := tokens.Rotate(ctx, record.ID, next); err != nil {
		return TokenPair{}, nil, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     rawNext,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: next.ExpiresAt,
	}, rc, nil
}

// Logout revokes every active refresh token of the user, across all
// devices and sessions.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.RefreshTokens(ctx).MarkRevokedByUser(ctx, userID)
}

// AuthenticateAccessToken validates the token cryptographically and
// then rebuilds the request context from live store data. Claims are
// never trusted for authorization: a revoked or changed access right
// takes effect on the very next request.
func (s *Service) AuthenticateAccessToken(ctx context.Context, token string) (*RequestContext, error) {
	userID, _, err := verifyAccessToken(s.tokenSecret, s.issuer, token, s.now)
	if err != nil {
		return nil, err
	}
	return s.BuildContext(ctx, userID)
}

// BuildContext loads the user's current record and active access right
// and re-runs the scope resolver. Missing or inactive users fail with
// ErrUserNotFound regardless of token validity; a missing access right
// resolves to the least-privilege default, never the most.
func (s *Service) BuildContext(ctx context.Context, userID int64) (*RequestContext, error) {
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserNotFound
	}
	return s.resolveContext(ctx, user)
}

func (s *Service) resolveContext(ctx context.Context, user *User) (*RequestContext, error) {
	var workAreaID *int64
	if user.PersonnelID != nil {
		assignment, err := s.store.Personnel(ctx).CurrentWorkArea(ctx, *user.PersonnelID)
		switch {
		case err == nil:
			workAreaID = &assignment.WorkAreaID
		case errors.Is(err, ErrNotFound):
			// unassigned personnel, worksite scope resolves empty
		default:
			return nil, err
		}
	}

	rc := &RequestContext{
		UserID:        user.ID,
		PersonnelID:   user.PersonnelID,
		Email:         user.Email,
		Department:    user.Department,
		PositionLevel: user.PositionLevel,
		WorkAreaID:    workAreaID,
		CompanyID:     user.CompanyID,
	}

	right, err := s.store.AccessRights(ctx).ActiveForUser(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var level *AccessLevel
	if right != nil {
		level, err = s.store.AccessLevels(ctx).Find(ctx, right.AccessLevelID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if level != nil && !level.Active {
			level = nil
		}
	}

	if level == nil {
		// No usable assignment: least privilege, not most.
		rc.AccessLevel = LevelWorksite
		rc.HierarchyRank = RankWorksite
		rc.Scope = ResolveWorkAreaScope(LevelWorksite, nil, workAreaID)
		rc.Permissions = DefaultPermissions()
		return rc, nil
	}

	rc.AccessLevel = level.Code
	rc.HierarchyRank = level.Rank
	if rc.HierarchyRank == 0 {
		rc.HierarchyRank = level.Code.Rank()
	}
	rc.Scope = ResolveWorkAreaScope(level.Code, right.AccessScope, workAreaID)
	rc.Permissions = ResolvePermissions(level.Code, user.Department, user.PositionLevel)
	return rc, nil
}

// SweepExpiredTokens marks expired-but-unrevoked refresh tokens as
// revoked for bookkeeping. Meant to run on a schedule.
func (s *Service) SweepExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.RefreshTokens(ctx).RevokeExpired(ctx)
}

func (s *Service) mintTokens(ctx context.Context, rc *RequestContext, ip, userAgent string) (TokenPair, error) {
	now := s.now()
	accessToken, accessExp, err := signAccessToken(s.tokenSecret, s.issuer, rc, now, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	raw, rec, err := s.generateRefreshToken(rc.UserID, now, ip, userAgent)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, rec); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     raw,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *Service) generateRefreshToken(userID int64, now time.Time, ip, userAgent string) (string, *RefreshToken, error) {
	secret, err := newRefreshSecret()
	if err != nil {
		return "", nil, err
	}
	salt, err := newSalt()
	if err != nil {
		return "", nil, err
	}
	rec := &RefreshToken{
		ID:         ids.New(),
		UserID:     userID,
		Salt:       salt,
		SecretHash: hashRefreshSecret(salt, secret),
		ExpiresAt:  now.Add(s.refreshTTL),
		CreatedAt:  now,
		IssuedIP:   ip,
		IssuedUA:   userAgent,
	}
	return rec.ID + "." + secret, rec, nil
}

func (s *Service) trackAttempt(ctx context.Context, email string, success bool, ip, userAgent, reason string) {
	if s.security == nil {
		return
	}
	_ = s.security.TrackLoginAttempt(ctx, LoginAttempt{
		Email:     email,
		Success:   success,
		IP:        ip,
		UserAgent: userAgent,
		Reason:    reason,
	})
}
