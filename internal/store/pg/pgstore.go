package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"filogate.org/internal/auth"
)

// Store implements auth.Store on top of PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)

// Open connects via the pgx stdlib driver and applies pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle. Tests use this with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users(ctx context.Context) auth.UserStore { return &userStore{db: s.db} }

func (s *Store) AccessLevels(ctx context.Context) auth.AccessLevelStore {
	return &accessLevelStore{db: s.db}
}

func (s *Store) AccessRights(ctx context.Context) auth.AccessRightStore {
	return &accessRightStore{db: s.db}
}

func (s *Store) Personnel(ctx context.Context) auth.PersonnelStore {
	return &personnelStore{db: s.db}
}

func (s *Store) RefreshTokens(ctx context.Context) auth.RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}

type userStore struct {
	db *sql.DB
}

const userColumns = `id, email, password_hash, coalesce(department, ''), position_level, personnel_id, company_id, active, created_at, updated_at`

func (s *userStore) Find(ctx context.Context, id int64) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where lower(email) = lower($1)`, strings.TrimSpace(email))
	return scanUser(row)
}

func (s *userStore) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		update users set active = false, updated_at = now()
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

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	var personnelID sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Department, &u.PositionLevel,
		&personnelID, &u.CompanyID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if personnelID.Valid {
		u.PersonnelID = &personnelID.Int64
	}
	return &u, nil
}

type accessLevelStore struct {
	db *sql.DB
}

const levelColumns = `id, code, rank, name, active`

func (s *accessLevelStore) Find(ctx context.Context, id int64) (*auth.AccessLevel, error) {
	row := s.db.QueryRowContext(ctx, `select `+levelColumns+` from access_levels where id = $1`, id)
	return scanLevel(row)
}

func (s *accessLevelStore) FindByCode(ctx context.Context, code auth.AccessLevelCode) (*auth.AccessLevel, error) {
	row := s.db.QueryRowContext(ctx, `select `+levelColumns+` from access_levels where code = $1`, string(code))
	return scanLevel(row)
}

func scanLevel(row *sql.Row) (*auth.AccessLevel, error) {
	var l auth.AccessLevel
	err := row.Scan(&l.ID, &l.Code, &l.Rank, &l.Name, &l.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

type personnelStore struct {
	db *sql.DB
}

func (s *personnelStore) CurrentWorkArea(ctx context.Context, personnelID int64) (*auth.PersonnelWorkArea, error) {
	var pwa auth.PersonnelWorkArea
	err := s.db.QueryRowContext(ctx, `
		select personnel_id, work_area_id, position_id, active
		from personnel_work_areas
		where personnel_id = $1 and active
	`, personnelID).Scan(&pwa.PersonnelID, &pwa.WorkAreaID, &pwa.PositionID, &pwa.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pwa, nil
}
