package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/campus-records/records/internal/platform/db"
	"github.com/campus-records/records/internal/shared"
)

// PGRepository implements Store using PostgreSQL. Search issues its queries
// concurrently, so the Querier must be safe for concurrent use (a pool, not a
// transaction).
type PGRepository struct {
	db db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

// StudentProfile implements Store.
func (r *PGRepository) StudentProfile(ctx context.Context, username string) (*StudentProfile, error) {
	const query = `
SELECT s.id, l.username, s.first_name, COALESCE(s.middle_name, ''), s.last_name, s.email,
       s.current_level, COALESCE(s.picture_url, ''), s.entry_year, COALESCE(s.programme_code, '')
FROM student s
JOIN login_info l ON l.id = s.id
WHERE l.username = $1`
	var p StudentProfile
	err := r.db.QueryRow(ctx, query, username).Scan(
		&p.ID, &p.Username, &p.FirstName, &p.MiddleName, &p.LastName, &p.Email,
		&p.Level, &p.PictureURL, &p.EntryYear, &p.Programme,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("records: student profile: %w", err)
	}
	return &p, nil
}

// StudentModules implements Store.
func (r *PGRepository) StudentModules(ctx context.Context, username string, period Period) ([]ModuleSummary, error) {
	const query = `
SELECT m.code, m.name, sm.year, sm.semester
FROM student_module sm
JOIN module m ON m.code = sm.module_code
JOIN login_info l ON l.id = sm.student_id
WHERE l.username = $1 AND sm.current = $2
ORDER BY m.code`
	rows, err := r.db.Query(ctx, query, username, period == PeriodNow)
	if err != nil {
		return nil, fmt.Errorf("records: student modules: %w", err)
	}
	return collect(rows, scanModuleSummary)
}

// StudentCoursework implements Store.
func (r *PGRepository) StudentCoursework(ctx context.Context, username string, view CourseworkView) ([]Coursework, error) {
	const timetable = `
SELECT c.code, c.module_code, c.name, c.deadline, c.weight, NULL::int
FROM coursework c
JOIN student_module sm ON sm.module_code = c.module_code AND sm.current
JOIN login_info l ON l.id = sm.student_id
WHERE l.username = $1
ORDER BY c.deadline, c.code`
	const results = `
SELECT c.code, c.module_code, c.name, c.deadline, c.weight, cr.mark
FROM coursework_result cr
JOIN coursework c ON c.code = cr.coursework_code
JOIN login_info l ON l.id = cr.student_id
WHERE l.username = $1
ORDER BY c.deadline, c.code`
	query := timetable
	if view == ViewResults {
		query = results
	}
	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("records: student coursework: %w", err)
	}
	return collect(rows, scanCoursework)
}

// StaffProfile implements Store.
func (r *PGRepository) StaffProfile(ctx context.Context, username string) (*StaffProfile, error) {
	const query = `
SELECT s.id, l.username, s.first_name, s.last_name, s.email, COALESCE(s.phone, ''), COALESCE(s.office, '')
FROM staff s
JOIN login_info l ON l.id = s.id
WHERE l.username = $1`
	var p StaffProfile
	err := r.db.QueryRow(ctx, query, username).Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Office)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("records: staff profile: %w", err)
	}
	return &p, nil
}

// StaffModules implements Store.
func (r *PGRepository) StaffModules(ctx context.Context, username string) ([]ModuleSummary, error) {
	const query = `
SELECT m.code, m.name, 0, 0
FROM module_staff ms
JOIN module m ON m.code = ms.module_code
JOIN login_info l ON l.id = ms.staff_id
WHERE l.username = $1
ORDER BY m.code`
	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("records: staff modules: %w", err)
	}
	return collect(rows, scanModuleSummary)
}

// Tutees implements Store.
func (r *PGRepository) Tutees(ctx context.Context, staff string) ([]Person, error) {
	const query = `
SELECT sl.username, s.first_name, s.last_name, s.email
FROM student s
JOIN login_info sl ON sl.id = s.id
JOIN login_info tl ON tl.id = s.tutor_id
WHERE tl.username = $1
ORDER BY sl.username`
	rows, err := r.db.Query(ctx, query, staff)
	if err != nil {
		return nil, fmt.Errorf("records: tutees: %w", err)
	}
	return collect(rows, scanPerson)
}

// Module implements Store.
func (r *PGRepository) Module(ctx context.Context, code string) (*ModuleDetail, error) {
	const query = `
SELECT m.code, m.name, COALESCE(m.description, ''), m.credits, m.level,
       COALESCE(array_agg(mp.prerequisite_code ORDER BY mp.prerequisite_code)
                FILTER (WHERE mp.prerequisite_code IS NOT NULL), '{}')
FROM module m
LEFT JOIN module_prerequisite mp ON mp.module_code = m.code
WHERE m.code = $1
GROUP BY m.code`
	var m ModuleDetail
	err := r.db.QueryRow(ctx, query, code).Scan(&m.Code, &m.Name, &m.Description, &m.Credits, &m.Level, &m.Prerequisites)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("records: module: %w", err)
	}
	return &m, nil
}

// ModuleStudents implements Store.
func (r *PGRepository) ModuleStudents(ctx context.Context, code string) ([]Person, error) {
	const query = `
SELECT l.username, s.first_name, s.last_name, s.email
FROM student_module sm
JOIN student s ON s.id = sm.student_id
JOIN login_info l ON l.id = s.id
WHERE sm.module_code = $1 AND sm.current
ORDER BY l.username`
	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("records: module students: %w", err)
	}
	return collect(rows, scanPerson)
}

// Coursework implements Store.
func (r *PGRepository) Coursework(ctx context.Context, code string) ([]Coursework, error) {
	const query = `
SELECT code, module_code, name, deadline, weight, NULL::int
FROM coursework
WHERE code = $1`
	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("records: coursework: %w", err)
	}
	return collect(rows, scanCoursework)
}

// CourseworkStudents implements Store.
func (r *PGRepository) CourseworkStudents(ctx context.Context, code string) ([]CourseworkResult, error) {
	const query = `
SELECT l.username, s.first_name, s.last_name, cr.mark
FROM coursework_result cr
JOIN student s ON s.id = cr.student_id
JOIN login_info l ON l.id = s.id
WHERE cr.coursework_code = $1
ORDER BY l.username`
	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("records: coursework students: %w", err)
	}
	return collect(rows, func(row pgx.CollectableRow) (CourseworkResult, error) {
		var res CourseworkResult
		err := row.Scan(&res.Username, &res.FirstName, &res.LastName, &res.Mark)
		return res, err
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search implements Store. The four record groups are queried concurrently.
func (r *PGRepository) Search(ctx context.Context, query string) (SearchResult, error) {
	result := emptySearchResult()
	q := normalizeQuery(query)
	if q == "" {
		return result, nil
	}
	pattern := "%" + likeEscaper.Replace(q) + "%"

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		const sql = `
SELECT code, name, 0, 0 FROM module
WHERE code ILIKE $1 OR name ILIKE $1
ORDER BY code LIMIT $2`
		rows, err := r.db.Query(ctx, sql, pattern, MaxSearchResults)
		if err != nil {
			return fmt.Errorf("records: search modules: %w", err)
		}
		result.Modules, err = collect(rows, scanModuleSummary)
		return err
	})
	g.Go(func() error {
		const sql = `
SELECT code, name FROM programme
WHERE code ILIKE $1 OR name ILIKE $1
ORDER BY code LIMIT $2`
		rows, err := r.db.Query(ctx, sql, pattern, MaxSearchResults)
		if err != nil {
			return fmt.Errorf("records: search programmes: %w", err)
		}
		result.Programmes, err = collect(rows, func(row pgx.CollectableRow) (Programme, error) {
			var p Programme
			err := row.Scan(&p.Code, &p.Name)
			return p, err
		})
		return err
	})
	g.Go(func() error {
		const sql = `
SELECT l.username, s.first_name, s.last_name, s.email
FROM staff s JOIN login_info l ON l.id = s.id
WHERE l.username ILIKE $1 OR s.first_name ILIKE $1 OR s.last_name ILIKE $1
ORDER BY l.username LIMIT $2`
		rows, err := r.db.Query(ctx, sql, pattern, MaxSearchResults)
		if err != nil {
			return fmt.Errorf("records: search staff: %w", err)
		}
		result.Staff, err = collect(rows, scanPerson)
		return err
	})
	g.Go(func() error {
		const sql = `
SELECT l.username, s.first_name, s.last_name, s.email
FROM student s JOIN login_info l ON l.id = s.id
WHERE l.username ILIKE $1 OR s.first_name ILIKE $1 OR s.last_name ILIKE $1
ORDER BY l.username LIMIT $2`
		rows, err := r.db.Query(ctx, sql, pattern, MaxSearchResults)
		if err != nil {
			return fmt.Errorf("records: search students: %w", err)
		}
		result.Students, err = collect(rows, scanPerson)
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

func collect[T any](rows pgx.Rows, scan pgx.RowToFunc[T]) ([]T, error) {
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("records: scan: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func scanModuleSummary(row pgx.CollectableRow) (ModuleSummary, error) {
	var m ModuleSummary
	err := row.Scan(&m.Code, &m.Name, &m.Year, &m.Semester)
	return m, err
}

func scanCoursework(row pgx.CollectableRow) (Coursework, error) {
	var c Coursework
	err := row.Scan(&c.Code, &c.ModuleCode, &c.Name, &c.Deadline, &c.Weight, &c.Mark)
	return c, err
}

func scanPerson(row pgx.CollectableRow) (Person, error) {
	var p Person
	err := row.Scan(&p.Username, &p.FirstName, &p.LastName, &p.Email)
	return p, err
}

var _ Store = (*PGRepository)(nil)
