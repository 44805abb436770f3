package records

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Store reads institutional records. Lookups of a single record return
// shared.ErrNotFound when absent; list lookups return an empty slice.
type Store interface {
	StudentProfile(ctx context.Context, username string) (*StudentProfile, error)
	StudentModules(ctx context.Context, username string, period Period) ([]ModuleSummary, error)
	StudentCoursework(ctx context.Context, username string, view CourseworkView) ([]Coursework, error)
	StaffProfile(ctx context.Context, username string) (*StaffProfile, error)
	StaffModules(ctx context.Context, username string) ([]ModuleSummary, error)
	Tutees(ctx context.Context, staff string) ([]Person, error)
	Module(ctx context.Context, code string) (*ModuleDetail, error)
	ModuleStudents(ctx context.Context, code string) ([]Person, error)
	Coursework(ctx context.Context, code string) ([]Coursework, error)
	CourseworkStudents(ctx context.Context, code string) ([]CourseworkResult, error)
	Search(ctx context.Context, query string) (SearchResult, error)
}

// MaxSearchResults caps each group of a search result.
const MaxSearchResults = 20

// normalizeQuery case-folds and trims a search query.
func normalizeQuery(query string) string {
	return cases.Fold().String(strings.TrimSpace(query))
}
