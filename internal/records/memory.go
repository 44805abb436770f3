package records

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/campus-records/records/internal/shared"
)

// Enrolment places a student on a module.
type Enrolment struct {
	Username   string
	ModuleCode string
	Year       int
	Semester   int
	Current    bool
}

// MemoryStore keeps records in process memory. It backs the memory store
// driver and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	students   map[string]StudentProfile
	staff      map[string]StaffProfile
	tutors     map[string]string
	modules    map[string]ModuleDetail
	teaching   map[string][]string
	enrolments []Enrolment
	coursework map[string]Coursework
	marks      map[string]map[string]int
	programmes []Programme
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:   make(map[string]StudentProfile),
		staff:      make(map[string]StaffProfile),
		tutors:     make(map[string]string),
		modules:    make(map[string]ModuleDetail),
		teaching:   make(map[string][]string),
		coursework: make(map[string]Coursework),
		marks:      make(map[string]map[string]int),
	}
}

// AddStudent registers a student profile. tutor may be empty.
func (s *MemoryStore) AddStudent(p StudentProfile, tutor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[p.Username] = p
	if tutor != "" {
		s.tutors[p.Username] = tutor
	}
}

// AddStaff registers a staff profile.
func (s *MemoryStore) AddStaff(p StaffProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[p.Username] = p
}

// AddModule registers a module and the staff who teach it.
func (s *MemoryStore) AddModule(m ModuleDetail, teachers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[m.Code] = m
	for _, t := range teachers {
		s.teaching[t] = append(s.teaching[t], m.Code)
	}
}

// Enrol records a module enrolment.
func (s *MemoryStore) Enrol(e Enrolment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolments = append(s.enrolments, e)
}

// AddCoursework registers coursework. Any Mark on cw is ignored.
func (s *MemoryStore) AddCoursework(cw Coursework) {
	cw.Mark = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coursework[cw.Code] = cw
}

// RecordMark stores a student's mark for coursework.
func (s *MemoryStore) RecordMark(code, username string, mark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marks[code] == nil {
		s.marks[code] = make(map[string]int)
	}
	s.marks[code][username] = mark
}

// AddProgramme registers a degree programme.
func (s *MemoryStore) AddProgramme(p Programme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programmes = append(s.programmes, p)
}

// StudentProfile implements Store.
func (s *MemoryStore) StudentProfile(_ context.Context, username string) (*StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.students[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// StudentModules implements Store.
func (s *MemoryStore) StudentModules(_ context.Context, username string, period Period) ([]ModuleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ModuleSummary{}
	for _, e := range s.enrolments {
		if e.Username != username || e.Current != (period == PeriodNow) {
			continue
		}
		m := s.modules[e.ModuleCode]
		out = append(out, ModuleSummary{Code: e.ModuleCode, Name: m.Name, Year: e.Year, Semester: e.Semester})
	}
	slices.SortFunc(out, func(a, b ModuleSummary) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

// StudentCoursework implements Store.
func (s *MemoryStore) StudentCoursework(_ context.Context, username string, view CourseworkView) ([]Coursework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Coursework{}
	switch view {
	case ViewTimetable:
		current := make(map[string]bool)
		for _, e := range s.enrolments {
			if e.Username == username && e.Current {
				current[e.ModuleCode] = true
			}
		}
		for _, cw := range s.coursework {
			if current[cw.ModuleCode] {
				out = append(out, cw)
			}
		}
	case ViewResults:
		for code, byStudent := range s.marks {
			mark, ok := byStudent[username]
			if !ok {
				continue
			}
			cw := s.coursework[code]
			cw.Mark = &mark
			out = append(out, cw)
		}
	}
	slices.SortFunc(out, func(a, b Coursework) int {
		return cmp.Or(a.Deadline.Compare(b.Deadline), cmp.Compare(a.Code, b.Code))
	})
	return out, nil
}

// StaffProfile implements Store.
func (s *MemoryStore) StaffProfile(_ context.Context, username string) (*StaffProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.staff[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// StaffModules implements Store.
func (s *MemoryStore) StaffModules(_ context.Context, username string) ([]ModuleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ModuleSummary{}
	for _, code := range s.teaching[username] {
		out = append(out, ModuleSummary{Code: code, Name: s.modules[code].Name})
	}
	slices.SortFunc(out, func(a, b ModuleSummary) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

// Tutees implements Store.
func (s *MemoryStore) Tutees(_ context.Context, staff string) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Person{}
	for student, tutor := range s.tutors {
		if tutor == staff {
			out = append(out, studentPerson(s.students[student]))
		}
	}
	sortPeople(out)
	return out, nil
}

// Module implements Store.
func (s *MemoryStore) Module(_ context.Context, code string) (*ModuleDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	m.Prerequisites = slices.Clone(m.Prerequisites)
	return &m, nil
}

// ModuleStudents implements Store.
func (s *MemoryStore) ModuleStudents(_ context.Context, code string) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Person{}
	for _, e := range s.enrolments {
		if e.ModuleCode == code && e.Current {
			out = append(out, studentPerson(s.students[e.Username]))
		}
	}
	sortPeople(out)
	return out, nil
}

// Coursework implements Store.
func (s *MemoryStore) Coursework(_ context.Context, code string) ([]Coursework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cw, ok := s.coursework[code]
	if !ok {
		return []Coursework{}, nil
	}
	return []Coursework{cw}, nil
}

// CourseworkStudents implements Store.
func (s *MemoryStore) CourseworkStudents(_ context.Context, code string) ([]CourseworkResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []CourseworkResult{}
	for username, mark := range s.marks[code] {
		p := s.students[username]
		out = append(out, CourseworkResult{Username: username, FirstName: p.FirstName, LastName: p.LastName, Mark: &mark})
	}
	slices.SortFunc(out, func(a, b CourseworkResult) int { return cmp.Compare(a.Username, b.Username) })
	return out, nil
}

// Search implements Store with a case-folded substring match.
func (s *MemoryStore) Search(_ context.Context, query string) (SearchResult, error) {
	result := emptySearchResult()
	q := normalizeQuery(query)
	if q == "" {
		return result, nil
	}
	// Casers are stateful and not shared between goroutines.
	fold := cases.Fold()
	matches := func(fields ...string) bool {
		for _, f := range fields {
			if strings.Contains(fold.String(f), q) {
				return true
			}
		}
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.modules {
		if matches(m.Code, m.Name) {
			result.Modules = append(result.Modules, ModuleSummary{Code: m.Code, Name: m.Name})
		}
	}
	for _, p := range s.programmes {
		if matches(p.Code, p.Name) {
			result.Programmes = append(result.Programmes, p)
		}
	}
	for _, p := range s.staff {
		if matches(p.Username, p.FirstName, p.LastName) {
			result.Staff = append(result.Staff, staffPerson(p))
		}
	}
	for _, p := range s.students {
		if matches(p.Username, p.FirstName, p.LastName) {
			result.Students = append(result.Students, studentPerson(p))
		}
	}

	slices.SortFunc(result.Modules, func(a, b ModuleSummary) int { return cmp.Compare(a.Code, b.Code) })
	slices.SortFunc(result.Programmes, func(a, b Programme) int { return cmp.Compare(a.Code, b.Code) })
	sortPeople(result.Staff)
	sortPeople(result.Students)
	result.Modules = truncate(result.Modules)
	result.Programmes = truncate(result.Programmes)
	result.Staff = truncate(result.Staff)
	result.Students = truncate(result.Students)
	return result, nil
}

func studentPerson(p StudentProfile) Person {
	return Person{Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}

func staffPerson(p StaffProfile) Person {
	return Person{Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}

func sortPeople(people []Person) {
	slices.SortFunc(people, func(a, b Person) int { return cmp.Compare(a.Username, b.Username) })
}

func truncate[T any](items []T) []T {
	if len(items) > MaxSearchResults {
		return items[:MaxSearchResults]
	}
	return items
}

var _ Store = (*MemoryStore)(nil)
