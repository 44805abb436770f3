package records

import "time"

// Period selects current or completed module enrolments.
type Period string

const (
	PeriodPast Period = "past"
	PeriodNow  Period = "now"
)

// CourseworkView selects upcoming deadlines or marked results.
type CourseworkView string

const (
	ViewTimetable CourseworkView = "timetable"
	ViewResults   CourseworkView = "results"
)

// StudentProfile is returned by the student profile endpoint.
type StudentProfile struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Level      int    `json:"current_level"`
	PictureURL string `json:"picture_url,omitempty"`
	EntryYear  int    `json:"entry_year"`
	Programme  string `json:"programme,omitempty"`
}

// StaffProfile is returned by the staff profile endpoint.
type StaffProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Office    string `json:"office,omitempty"`
}

// ModuleSummary lists a module in enrolment, teaching and search results.
type ModuleSummary struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Year     int    `json:"year,omitempty"`
	Semester int    `json:"semester,omitempty"`
}

// ModuleDetail is returned by the module lookup. Unknown codes produce the
// zero value, which encodes as {"prerequisites":null}.
type ModuleDetail struct {
	Code          string   `json:"code,omitempty"`
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	Credits       int      `json:"credits,omitempty"`
	Level         int      `json:"level,omitempty"`
	Prerequisites []string `json:"prerequisites"`
}

// Coursework describes a piece of assessed work.
type Coursework struct {
	Code       string    `json:"code"`
	ModuleCode string    `json:"module_code"`
	Name       string    `json:"name"`
	Deadline   time.Time `json:"deadline"`
	Weight     int       `json:"weight"`
	Mark       *int      `json:"mark,omitempty"`
}

// CourseworkResult is one student's mark for a piece of coursework.
type CourseworkResult struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mark      *int   `json:"mark"`
}

// Person is a short student or staff listing.
type Person struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// Programme is a degree programme.
type Programme struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SearchResult groups search matches by record type. Every slice is non-nil.
type SearchResult struct {
	Modules    []ModuleSummary `json:"modules"`
	Programmes []Programme     `json:"programmes"`
	Staff      []Person        `json:"staff"`
	Students   []Person        `json:"students"`
}

func emptySearchResult() SearchResult {
	return SearchResult{
		Modules:    []ModuleSummary{},
		Programmes: []Programme{},
		Staff:      []Person{},
		Students:   []Person{},
	}
}
