package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"filogate.org/internal/auth"
)

const pgErrForeignKeyViolation = "23503"

type accessRightStore struct {
	db *sql.DB
}

const rightColumns = `id, user_id, access_level_id, access_scope, active, granted_by, granted_at`

func (s *accessRightStore) Find(ctx context.Context, id int64) (*auth.UserAccessRight, error) {
	row := s.db.QueryRowContext(ctx, `select `+rightColumns+` from user_access_rights where id = $1`, id)
	return scanRight(row)
}

func (s *accessRightStore) ActiveForUser(ctx context.Context, userID int64) (*auth.UserAccessRight, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+rightColumns+`
		from user_access_rights
		where user_id = $1 and active
		order by granted_at desc
		limit 1
	`, userID)
	return scanRight(row)
}

// Grant deactivates every active right of the user and inserts the new
// one in a single transaction.
func (s *accessRightStore) Grant(ctx context.Context, right *auth.UserAccessRight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		update user_access_rights set active = false
		where user_id = $1 and active
	`, right.UserID); err != nil {
		return err
	}

	var scope any
	if len(right.AccessScope) > 0 {
		scope = []byte(right.AccessScope)
	}
	err = tx.QueryRowContext(ctx, `
		insert into user_access_rights (user_id, access_level_id, access_scope, active, granted_by, granted_at)
		values ($1, $2, $3, true, $4, now())
		returning id, granted_at
	`, right.UserID, right.AccessLevelID, scope, right.GrantedBy).Scan(&right.ID, &right.GrantedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrInvalidAccessLevel
		}
		return err
	}
	right.Active = true
	return tx.Commit()
}

func (s *accessRightStore) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		update user_access_rights set active = false
		where id = $1 and active
	`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *accessRightStore) Update(ctx context.Context, id int64, upd auth.AccessRightUpdate) error {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.AccessLevelID != nil {
		sets = append(sets, fmt.Sprintf("access_level_id = $%d", idx))
		args = append(args, *upd.AccessLevelID)
		idx++
	}
	if upd.AccessScope != nil {
		sets = append(sets, fmt.Sprintf("access_scope = $%d", idx))
		args = append(args, []byte(upd.AccessScope))
		idx++
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf(`update user_access_rights set %s where id = $%d and active`, strings.Join(sets, ", "), idx)
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrInvalidAccessLevel
		}
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func scanRight(row *sql.Row) (*auth.UserAccessRight, error) {
	var r auth.UserAccessRight
	var scope []byte
	err := row.Scan(&r.ID, &r.UserID, &r.AccessLevelID, &scope, &r.Active, &r.GrantedBy, &r.GrantedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(scope) > 0 {
		r.AccessScope = append([]byte(nil), scope...)
	}
	return &r, nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
