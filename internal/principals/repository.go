package principals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campus-records/records/internal/platform/db"
	"github.com/campus-records/records/internal/shared"
)

// PGRepository implements Store using PostgreSQL.
type PGRepository struct {
	db db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

// FindByUsername fetches a principal by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Principal, error) {
	const query = `SELECT username, access_lvl, salt, user_pass FROM login_info WHERE username = $1`
	var (
		p    Principal
		tier string
	)
	if err := r.db.QueryRow(ctx, query, username).Scan(&p.Username, &tier, &p.Salt, &p.Verifier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("principals: find %s: %w", username, err)
	}
	role, ok := ParseRole(tier)
	if !ok {
		return nil, fmt.Errorf("principals: %s has unknown access level %q", username, tier)
	}
	p.Role = role
	return &p, nil
}

// Tutees lists usernames of students whose tutor is staff.
func (r *PGRepository) Tutees(ctx context.Context, staff string) ([]string, error) {
	const query = `
SELECT sl.username
FROM student s
JOIN login_info sl ON sl.id = s.id
JOIN login_info tl ON tl.id = s.tutor_id
WHERE tl.username = $1
ORDER BY sl.username`
	return r.strings(ctx, query, staff)
}

// TaughtModules lists module codes taught by staff.
func (r *PGRepository) TaughtModules(ctx context.Context, staff string) ([]string, error) {
	const query = `
SELECT ms.module_code
FROM module_staff ms
JOIN login_info l ON l.id = ms.staff_id
WHERE l.username = $1
ORDER BY ms.module_code`
	return r.strings(ctx, query, staff)
}

// Insert provisions a principal row and returns its id.
func (r *PGRepository) Insert(ctx context.Context, p Principal) (int64, error) {
	const query = `INSERT INTO login_info (username, salt, user_pass, access_lvl) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, query, p.Username, p.Salt, p.Verifier, p.Role.Tier()).Scan(&id); err != nil {
		return 0, fmt.Errorf("principals: insert %s: %w", p.Username, err)
	}
	return id, nil
}

func (r *PGRepository) strings(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("principals: query relationships: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("principals: scan relationships: %w", err)
	}
	return values, nil
}

var _ Store = (*PGRepository)(nil)
