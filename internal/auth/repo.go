package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campus-records/records/internal/platform/db"
	"github.com/campus-records/records/internal/sessions"
)

// Repository persists session audit records. Tokens themselves are never
// stored; rows are keyed by fingerprint.
type Repository interface {
	CreateSession(ctx context.Context, sess sessions.Session, ip, ua string) error
	DeleteSession(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

// CreateSession persists a new login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, sess sessions.Session, ip, ua string) error {
	const query = `
INSERT INTO login_sessions (id, fingerprint, username, access_lvl, issued_at, expires_at, ip, ua)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		uuid.New(),
		sessions.Fingerprint(sess.Token),
		sess.Username,
		sess.Role.Tier(),
		pgtype.Timestamptz{Time: sess.IssuedAt.UTC(), Valid: true},
		pgtype.Timestamptz{Time: sess.ExpiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""},
	)
	if err != nil {
		return fmt.Errorf("auth: create session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM login_sessions WHERE fingerprint = $1`, sessions.Fingerprint(token)); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes records of sessions that expired before now.
func (r *PGRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM login_sessions WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("auth: purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

type nopRepository struct{}

func (nopRepository) CreateSession(context.Context, sessions.Session, string, string) error {
	return nil
}

func (nopRepository) DeleteSession(context.Context, string) error { return nil }

func (nopRepository) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

var _ Repository = (*PGRepository)(nil)
