package consent

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`insert into consents(id, subject_id, consent_type, lawful_basis, granted_at)
		 values($1,$2,$3,$4,$5)`,
		rec.ID, rec.SubjectID, string(rec.Type), string(rec.Basis), rec.GrantedAt.UTC(),
	)
	return err
}

const consentColumns = `id, subject_id, consent_type, lawful_basis, granted_at, withdrawn_at`

func (s *PGStore) Latest(ctx context.Context, subjectID string, t Type) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+consentColumns+` from consents
		 where subject_id=$1 and consent_type=$2
		 order by granted_at desc limit 1`,
		subjectID, string(t),
	)
	return scanRecord(row)
}

func (s *PGStore) ListBySubject(ctx context.Context, subjectID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+consentColumns+` from consents where subject_id=$1 order by granted_at asc`,
		subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			rec       Record
			ctype     string
			basis     string
			withdrawn sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.SubjectID, &ctype, &basis, &rec.GrantedAt, &withdrawn); err != nil {
			return nil, err
		}
		rec.Type = Type(ctype)
		rec.Basis = LawfulBasis(basis)
		if withdrawn.Valid {
			t := withdrawn.Time
			rec.WithdrawnAt = &t
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *PGStore) MarkWithdrawn(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update consents set withdrawn_at=$2 where id=$1 and withdrawn_at is null`, id, at.UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		rec       Record
		ctype     string
		basis     string
		withdrawn sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.SubjectID, &ctype, &basis, &rec.GrantedAt, &withdrawn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Type = Type(ctype)
	rec.Basis = LawfulBasis(basis)
	if withdrawn.Valid {
		t := withdrawn.Time
		rec.WithdrawnAt = &t
	}
	return &rec, nil
}
