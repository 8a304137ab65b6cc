package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PGUserStore implements UserStore on PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

var _ UserStore = (*PGUserStore)(nil)

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Create(ctx context.Context, p *Principal) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, display_name, role, account_kind, password_hash, passport_id, active)
		 values($1,$2,$3,$4,$5,$6,nullif($7,''),$8)`,
		p.ID, p.Email, p.DisplayName, string(p.Role), string(p.AccountKind), p.PasswordHash, p.PassportID, p.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

const userColumns = `id, email, display_name, role, account_kind, password_hash,
	coalesce(passport_id, ''), active, last_login_at, created_at, updated_at`

func (s *PGUserStore) Find(ctx context.Context, id string) (*Principal, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanPrincipal(row)
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1)`, email)
	return scanPrincipal(row)
}

func (s *PGUserStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set last_login_at=$2, updated_at=now() where id=$1`, id, at.UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPrincipal(row *sql.Row) (*Principal, error) {
	var (
		p         Principal
		role      string
		kind      string
		lastLogin sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &role, &kind, &p.PasswordHash,
		&p.PassportID, &p.Active, &lastLogin, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Role = Role(role)
	p.AccountKind = AccountKind(kind)
	if lastLogin.Valid {
		t := lastLogin.Time
		p.LastLoginAt = &t
	}
	return &p, nil
}

// PGRefreshRegistry implements RefreshRegistry on PostgreSQL. Revocation is
// a single-statement flag flip, so concurrent revokes of the same token are
// serialized by the row lock and stay idempotent.
type PGRefreshRegistry struct {
	db *sql.DB
}

var _ RefreshRegistry = (*PGRefreshRegistry)(nil)

func NewPGRefreshRegistry(db *sql.DB) *PGRefreshRegistry {
	return &PGRefreshRegistry{db: db}
}

func (r *PGRefreshRegistry) Register(ctx context.Context, subjectID, tokenID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`insert into refresh_sessions(token_id, subject_id, expires_at) values($1,$2,$3)`,
		tokenID, subjectID, expiresAt.UTC(),
	)
	return err
}

func (r *PGRefreshRegistry) Revoke(ctx context.Context, tokenID string) error {
	_, err := r.db.ExecContext(ctx,
		`update refresh_sessions set revoked=true where token_id=$1`, tokenID)
	return err
}

func (r *PGRefreshRegistry) RevokeAll(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx,
		`update refresh_sessions set revoked=true where subject_id=$1`, subjectID)
	return err
}

func (r *PGRefreshRegistry) IsActive(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx,
		`select revoked from refresh_sessions where token_id=$1`, tokenID).Scan(&revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !revoked, nil
}

// PurgeExpired deletes sessions long past expiry. Housekeeping; see
// RefreshRegistry.
func (r *PGRefreshRegistry) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`delete from refresh_sessions where expires_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
