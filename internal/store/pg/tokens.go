package pg

import (
	"context"
	"database/sql"
	"errors"

	"filogate.org/internal/auth"
)

type refreshTokenStore struct {
	db *sql.DB
}

const tokenColumns = `id, user_id, salt, secret_hash, expires_at, created_at, revoked, revoked_at, coalesce(issued_ip, ''), coalesce(issued_user_agent, '')`

func (s *refreshTokenStore) Create(ctx context.Context, tok *auth.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens (id, user_id, salt, secret_hash, expires_at, created_at, revoked, issued_ip, issued_user_agent)
		values ($1, $2, $3, $4, $5, $6, false, nullif($7, ''), nullif($8, ''))
	`, tok.ID, tok.UserID, tok.Salt, tok.SecretHash, tok.ExpiresAt, tok.CreatedAt, tok.IssuedIP, tok.IssuedUA)
	return err
}

func (s *refreshTokenStore) Find(ctx context.Context, id string) (*auth.RefreshToken, error) {
	var t auth.RefreshToken
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `select `+tokenColumns+` from refresh_tokens where id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Salt, &t.SecretHash, &t.ExpiresAt, &t.CreatedAt,
			&t.Revoked, &revokedAt, &t.IssuedIP, &t.IssuedUA)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return &t, nil
}

// Rotate revokes the presented token and inserts its successor in one
// transaction. The update is conditional on the token still being
// unrevoked, so a concurrent replay loses the race and sees zero rows.
func (s *refreshTokenStore) Rotate(ctx context.Context, revokeID string, next *auth.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		update refresh_tokens set revoked = true, revoked_at = now()
		where id = $1 and not revoked
	`, revokeID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrInvalidRefreshToken
	}

	if _, err := tx.ExecContext(ctx, `
		insert into refresh_tokens (id, user_id, salt, secret_hash, expires_at, created_at, revoked, issued_ip, issued_user_agent)
		values ($1, $2, $3, $4, $5, $6, false, nullif($7, ''), nullif($8, ''))
	`, next.ID, next.UserID, next.Salt, next.SecretHash, next.ExpiresAt, next.CreatedAt, next.IssuedIP, next.IssuedUA); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *refreshTokenStore) MarkRevoked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		update refresh_tokens set revoked = true, revoked_at = now()
		where id = $1 and not revoked
	`, id)
	return err
}

func (s *refreshTokenStore) MarkRevokedByUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		update refresh_tokens set revoked = true, revoked_at = now()
		where user_id = $1 and not revoked
	`, userID)
	return err
}

func (s *refreshTokenStore) RevokeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		update refresh_tokens set revoked = true, revoked_at = now()
		where not revoked and expires_at <= now()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
